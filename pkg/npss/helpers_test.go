package npss

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bft-labs/npss/internal/adapters/fs"
	"github.com/bft-labs/npss/internal/aggregate"
	"github.com/bft-labs/npss/internal/codec"
	"github.com/bft-labs/npss/internal/domain"
	"github.com/bft-labs/npss/internal/ports"
)

func frame(class, method string, line int) domain.Frame {
	return domain.Frame{ClassName: class, MethodName: method, FileName: "Src.java", LineNumber: line}
}

// makeSamples builds one sample per timestamp. Sample i has a RUNNABLE
// worker with i+1 frames and a WAITING thread with two frames.
func makeSamples(timestamps ...int64) []domain.ThreadsSample {
	out := make([]domain.ThreadsSample, len(timestamps))
	for i, ts := range timestamps {
		stack := []domain.Frame{frame("app.Main", "main", 10)}
		for d := 0; d < i; d++ {
			stack = append([]domain.Frame{frame("app.Worker", "step", 20+d)}, stack...)
		}
		out[i] = domain.ThreadsSample{
			Timestamp: ts,
			Threads: []domain.ThreadSnapshot{
				{Name: "worker", ID: 1, State: domain.StateRunnable, StackFrames: stack},
				{
					Name:        "idle",
					ID:          2,
					State:       domain.StateWaiting,
					StackFrames: []domain.Frame{frame("java.lang.Object", "wait", domain.LineNative), frame("app.Pool", "take", 5)},
					LockInfo:    &domain.LockDescriptor{IdentityHash: 0xabc, ClassName: "app.Pool"},
				},
			},
		}
	}
	return out
}

func writeSamples(t *testing.T, samples []domain.ThreadsSample) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshot.npss")
	require.NoError(t, codec.WriteFile(path, samples))
	return path
}

func writeStreaming(t *testing.T, samples []domain.ThreadsSample) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "live.npss")
	require.NoError(t, codec.WriteStreamingFile(path, samples))
	return path
}

// writeWithHint writes samples under a header claiming count samples.
func writeWithHint(t *testing.T, samples []domain.ThreadsSample, count int, last int64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lying.npss")
	f, err := os.Create(path)
	require.NoError(t, err)
	w, err := codec.NewWriter(f, count, last)
	require.NoError(t, err)
	for i := range samples {
		require.NoError(t, w.WriteSample(&samples[i]))
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	return path
}

// streamStats counts stream activity across every stream a snapshot opens.
type streamStats struct {
	mu       sync.Mutex
	opened   int
	closed   int
	reads    int
	builders int
}

func (s *streamStats) snapshotCounts() (opened, closed, reads int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened, s.closed, s.reads
}

func (s *streamStats) decoder() ports.StreamDecoder {
	return func(rc io.ReadCloser) (ports.SampleStream, error) {
		stream, err := codec.Decoder(rc)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.opened++
		s.mu.Unlock()
		return &countingStream{SampleStream: stream, stats: s}, nil
	}
}

func (s *streamStats) builderFactory() ports.BuilderFactory {
	return func() ports.AggregateBuilder {
		s.mu.Lock()
		s.builders++
		s.mu.Unlock()
		return aggregate.NewBuilder()
	}
}

type countingStream struct {
	ports.SampleStream
	stats *streamStats
}

func (c *countingStream) ReadSample() (*domain.ThreadsSample, error) {
	c.stats.mu.Lock()
	c.stats.reads++
	c.stats.mu.Unlock()
	return c.SampleStream.ReadSample()
}

func (c *countingStream) Close() error {
	c.stats.mu.Lock()
	c.stats.closed++
	c.stats.mu.Unlock()
	return c.SampleStream.Close()
}

func openCounted(t *testing.T, path string, opts ...Option) (*SampledCPUSnapshot, *streamStats) {
	t.Helper()
	stats := &streamStats{}
	opts = append([]Option{WithDecoder(stats.decoder()), WithBuilderFactory(stats.builderFactory())}, opts...)
	snap, err := New(fs.NewFileProvider(path), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { snap.Close() })
	return snap, stats
}

// recordingProgress implements ports.ProgressSink.
type recordingProgress struct {
	total    int
	updates  []int
	finished int
}

func (r *recordingProgress) Start(total int)  { r.total = total }
func (r *recordingProgress) Progress(cur int) { r.updates = append(r.updates, cur) }
func (r *recordingProgress) Finish()          { r.finished++ }
