package npss

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bft-labs/npss/internal/aggregate"
	"github.com/bft-labs/npss/internal/domain"
	"github.com/bft-labs/npss/internal/ports"
)

func TestSnapshotSubRange(t *testing.T) {
	snap, stats := openCounted(t, writeSamples(t, makeSamples(100, 200, 300, 400)))

	loaded, err := snap.Snapshot(1, 2)
	require.NoError(t, err)
	cpu := loaded.CPU
	require.Equal(t, 2, cpu.SampleCount)
	require.Equal(t, int64(200), cpu.StartTime)
	require.Equal(t, int64(300), cpu.EndTime)
	require.Equal(t, int64(100), cpu.Duration())

	worker := cpu.Thread(1)
	require.NotNil(t, worker)
	require.Equal(t, int64(100), worker.Root.TotalTime)
	require.Equal(t, 2, worker.Root.Samples)

	idle := cpu.Thread(2)
	require.NotNil(t, idle)
	require.Zero(t, idle.Root.TotalTime)
	require.Equal(t, 2, idle.Root.Samples)

	// The cursor is untouched by a rescan.
	require.Equal(t, -1, snap.CurrentIndex())
	opened, closed, _ := stats.snapshotCounts()
	require.Equal(t, 2, opened)
	require.Equal(t, 1, closed)
}

func TestSnapshotRangeErrors(t *testing.T) {
	snap, stats := openCounted(t, writeSamples(t, makeSamples(1, 2, 3, 4)))

	for _, r := range [][2]int{{-1, 0}, {0, 4}, {2, 1}, {4, 4}} {
		_, err := snap.Snapshot(r[0], r[1])
		require.ErrorIs(t, err, domain.ErrUsage, "range %v", r)
	}
	opened, _, _ := stats.snapshotCounts()
	require.Equal(t, 1, opened)
}

// failingBuilder accepts samples and fails to finalize.
type failingBuilder struct{ added int }

func (b *failingBuilder) AddSample([]domain.ThreadSnapshot, int64) { b.added++ }

func (b *failingBuilder) Finalize(int64) (*aggregate.Snapshot, error) {
	return nil, domain.ErrNoData
}

func TestSnapshotFinalizeFailure(t *testing.T) {
	path := writeSamples(t, makeSamples(1, 2))
	builder := &failingBuilder{}
	snap, stats := openCounted(t, path, WithBuilderFactory(func() ports.AggregateBuilder { return builder }))

	_, err := snap.Snapshot(0, 1)
	require.ErrorIs(t, err, domain.ErrIO)
	require.ErrorIs(t, err, domain.ErrNoData)
	require.Equal(t, 2, builder.added)

	opened, closed, _ := stats.snapshotCounts()
	require.Equal(t, opened-1, closed, "only the primary stream stays open")

	// Same failure through the incremental path.
	for i := 0; i < 2; i++ {
		_, err := snap.TimestampOf(i)
		require.NoError(t, err)
	}
	_, err = snap.Snapshot(0, 1)
	require.ErrorIs(t, err, domain.ErrIO)
	require.ErrorIs(t, err, domain.ErrNoData)
}

func TestSnapshotHotspots(t *testing.T) {
	snap, _ := openCounted(t, writeSamples(t, makeSamples(0, 10, 20)))
	loaded, err := snap.Snapshot(0, 2)
	require.NoError(t, err)

	hot := loaded.CPU.Hotspots(1)
	require.Len(t, hot, 1)
	require.Equal(t, "app.Worker.step", hot[0].Method)
	require.Equal(t, int64(20), loaded.CPU.TotalTime())
	require.Contains(t, loaded.CPU.String(), "app.Main.main")
}
