package aggregate

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/pprof/profile"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/npss/internal/domain"
)

func frames(names ...string) []domain.Frame {
	out := make([]domain.Frame, len(names))
	for i, n := range names {
		dot := strings.LastIndexByte(n, '.')
		out[i] = domain.Frame{ClassName: n[:dot], MethodName: n[dot+1:]}
	}
	return out
}

func runnable(id int64, name string, stack ...string) domain.ThreadSnapshot {
	return domain.ThreadSnapshot{ID: id, Name: name, State: domain.StateRunnable, StackFrames: frames(stack...)}
}

func TestFinalizeWithoutSamples(t *testing.T) {
	b := NewBuilder()
	_, err := b.Finalize(0)
	require.ErrorIs(t, err, domain.ErrNoData)
}

func TestBuilderChargesRunnableThreads(t *testing.T) {
	b := NewBuilder()
	b.AddSample([]domain.ThreadSnapshot{runnable(1, "main", "app.Worker.compute", "app.Main.main")}, 100)
	b.AddSample([]domain.ThreadSnapshot{
		runnable(1, "main", "app.Worker.compute", "app.Main.main"),
		{ID: 2, Name: "idle", State: domain.StateWaiting, StackFrames: frames("java.lang.Object.wait")},
	}, 110)
	b.AddSample([]domain.ThreadSnapshot{runnable(1, "main", "app.Worker.io", "app.Main.main")}, 130)

	s, err := b.Finalize(100)
	require.NoError(t, err)
	require.Equal(t, 3, s.SampleCount)
	require.Equal(t, int64(100), s.StartTime)
	require.Equal(t, int64(130), s.EndTime)
	require.Equal(t, int64(30), s.Duration())
	require.Len(t, s.Threads, 2)

	main := s.Thread(1)
	require.NotNil(t, main)
	mainNode := main.Root.Child("app.Main", "main")
	require.NotNil(t, mainNode)
	require.Equal(t, 3, mainNode.Samples)
	require.Equal(t, int64(30), mainNode.TotalTime)
	require.Zero(t, mainNode.SelfTime)

	compute := mainNode.Child("app.Worker", "compute")
	require.Equal(t, int64(10), compute.SelfTime)
	require.Equal(t, 2, compute.Samples)
	require.Equal(t, int64(20), mainNode.Child("app.Worker", "io").SelfTime)

	idle := s.Thread(2)
	require.Equal(t, 1, idle.Root.Samples)
	require.Zero(t, idle.Root.TotalTime)

	require.Equal(t, int64(30), s.TotalTime())

	// The builder starts over after Finalize.
	require.Zero(t, b.Samples())
	_, err = b.Finalize(0)
	require.ErrorIs(t, err, domain.ErrNoData)
}

func TestHotspots(t *testing.T) {
	b := NewBuilder()
	b.AddSample([]domain.ThreadSnapshot{runnable(1, "a", "x.Y.leaf", "x.Y.rec", "x.Y.rec")}, 0)
	b.AddSample([]domain.ThreadSnapshot{runnable(1, "a", "x.Y.leaf", "x.Y.rec", "x.Y.rec")}, 10)
	b.AddSample([]domain.ThreadSnapshot{runnable(2, "b", "x.Y.other")}, 15)
	s, err := b.Finalize(0)
	require.NoError(t, err)

	hs := s.Hotspots(0)
	require.Len(t, hs, 3)
	require.Equal(t, "x.Y.leaf", hs[0].Method)
	require.Equal(t, int64(10), hs[0].SelfTime)
	require.Equal(t, "x.Y.other", hs[1].Method)
	require.Equal(t, int64(5), hs[1].SelfTime)

	// Recursion is not double counted.
	require.Equal(t, "x.Y.rec", hs[2].Method)
	require.Equal(t, int64(10), hs[2].TotalTime)
	require.Equal(t, 2, hs[2].Samples)

	require.Len(t, s.Hotspots(1), 1)
}

func TestStringAndPprof(t *testing.T) {
	b := NewBuilder()
	b.AddSample([]domain.ThreadSnapshot{runnable(7, "worker", "app.A.b", "app.A.a")}, 1_000)
	b.AddSample([]domain.ThreadSnapshot{runnable(7, "worker", "app.A.c", "app.A.a")}, 2_000)
	s, err := b.Finalize(1_000)
	require.NoError(t, err)

	out := s.String()
	require.Contains(t, out, `"worker" t@7`)
	require.Contains(t, out, "app.A.a: self 0 total 1000 samples 2")
	require.Contains(t, out, "app.A.c: self 1000 total 1000 samples 1")

	var buf bytes.Buffer
	require.NoError(t, s.WritePprof(&buf))
	p, err := profile.Parse(&buf)
	require.NoError(t, err)
	require.Len(t, p.Sample, 2)
	require.Len(t, p.Function, 3)
	require.Equal(t, int64(1_000), p.TimeNanos)
	require.Equal(t, int64(1_000), p.Period)

	var cpu int64
	for _, smp := range p.Sample {
		require.Equal(t, []string{"worker"}, smp.Label["thread"])
		require.Equal(t, "app.A.a", smp.Location[len(smp.Location)-1].Line[0].Function.Name)
		cpu += smp.Value[1]
	}
	require.Equal(t, int64(1_000), cpu)
}
