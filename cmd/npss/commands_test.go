package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bft-labs/npss/internal/aggregate"
	"github.com/bft-labs/npss/internal/cliconfig"
	"github.com/bft-labs/npss/internal/domain"
	"github.com/bft-labs/npss/pkg/npss"
)

func TestStripMarkup(t *testing.T) {
	dump := npss.FormatThreadDump([]domain.ThreadSnapshot{{
		Name: "main", ID: 1, State: domain.StateRunnable,
		StackFrames: []domain.Frame{{ClassName: "app.Box", MethodName: "<init>", FileName: "Box.java", LineNumber: 3}},
	}})
	got := stripMarkup(dump)
	require.Contains(t, got, "\"main\" - Thread t@1\n")
	require.Contains(t, got, "\tat app.Box.<init>(Box.java:3)\n")
	require.NotContains(t, got, "<a ")
}

func loadedFixture(t *testing.T) *npss.LoadedSnapshot {
	t.Helper()
	b := aggregate.NewBuilder()
	threads := []domain.ThreadSnapshot{{
		Name: "main", ID: 1, State: domain.StateRunnable,
		StackFrames: []domain.Frame{{ClassName: "app.Main", MethodName: "main", LineNumber: domain.LineUnknown}},
	}}
	b.AddSample(threads, 0)
	b.AddSample(threads, 10)
	cpu, err := b.Finalize(0)
	require.NoError(t, err)
	return &npss.LoadedSnapshot{CPU: cpu, Settings: npss.CPUPreset()}
}

func TestWriteSnapshotFormats(t *testing.T) {
	loaded := loadedFixture(t)
	cfg := cliconfig.DefaultConfig()
	for _, format := range []string{cliconfig.FormatTree, cliconfig.FormatTop, cliconfig.FormatPprof} {
		cfg.Format = format
		var buf bytes.Buffer
		require.NoError(t, writeSnapshot(&buf, loaded, cfg), format)
		require.NotZero(t, buf.Len(), format)
		if format != cliconfig.FormatPprof {
			require.Contains(t, buf.String(), "app.Main.main", format)
		}
	}
}

func TestWriteSnapshotFile(t *testing.T) {
	loaded := loadedFixture(t)
	cfg := cliconfig.DefaultConfig()
	cfg.Format = cliconfig.FormatTop

	path := filepath.Join(t.TempDir(), "top.txt")
	require.NoError(t, writeSnapshotFile(path, loaded, cfg))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "app.Main.main")

	missing := filepath.Join(t.TempDir(), "absent", "top.txt")
	require.Error(t, writeSnapshotFile(missing, loaded, cfg))
}
