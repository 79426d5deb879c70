package npss

import (
	"errors"
	"fmt"
	"io"

	"github.com/bft-labs/npss/internal/adapters/fs"
	"github.com/bft-labs/npss/internal/domain"
	"github.com/bft-labs/npss/internal/ports"
	"github.com/bft-labs/npss/pkg/log"
)

// SampledCPUSnapshot provides access to one NPSS file.
type SampledCPUSnapshot struct {
	file ports.FileProvider
	opts options

	count         int
	lastTimestamp int64

	cursor cursor
}

// Open opens the NPSS file at path.
func Open(path string, opts ...Option) (*SampledCPUSnapshot, error) {
	return New(fs.NewFileProvider(path), opts...)
}

// New opens the primary stream over file and reads the summary from its
// header, prescanning the whole file when the header does not carry it.
func New(file ports.FileProvider, opts ...Option) (*SampledCPUSnapshot, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	s := &SampledCPUSnapshot{
		file:   file,
		opts:   o,
		cursor: newCursor(),
	}

	stream, err := s.openStream()
	if err != nil {
		return nil, err
	}
	s.count = stream.SampleCountHint()
	s.lastTimestamp = stream.LastTimestampHint()

	if s.count == 0 {
		sum, err := Prescan(file, o.decode, o.progress, o.avgRecordSize)
		if err != nil {
			stream.Close()
			return nil, err
		}
		s.count = sum.SampleCount
		s.lastTimestamp = sum.LastTimestamp
		o.logger.Info("prescanned sample file",
			log.String("file", file.Name()),
			log.Int("samples", s.count),
			log.Int64("last_timestamp", s.lastTimestamp))
	}

	if s.count == 0 {
		// Nothing to read; the cursor starts out exhausted.
		if err := stream.Close(); err != nil {
			return nil, domain.WrapIO("close stream", err)
		}
		s.cursor.state = stateExhausted
		return s, nil
	}
	s.cursor.stream = stream
	return s, nil
}

// Name returns the name of the underlying file.
func (s *SampledCPUSnapshot) Name() string {
	return s.file.Name()
}

// FileSize returns the current size of the underlying file in bytes.
func (s *SampledCPUSnapshot) FileSize() (int64, error) {
	return s.file.Size()
}

// SampleCount returns the number of samples in the file.
func (s *SampledCPUSnapshot) SampleCount() int {
	return s.count
}

// LastTimestamp returns the timestamp of the final sample.
func (s *SampledCPUSnapshot) LastTimestamp() int64 {
	return s.lastTimestamp
}

// StartTime returns the timestamp at which the incremental aggregation
// window starts, or 0 before the first TimestampOf call.
func (s *SampledCPUSnapshot) StartTime() int64 {
	return s.cursor.startTime
}

// CurrentIndex returns the index of the sample held by the cursor, -1 before
// the first read.
func (s *SampledCPUSnapshot) CurrentIndex() int {
	return s.cursor.index
}

// Current returns the sample held by the cursor, or nil before the first read.
func (s *SampledCPUSnapshot) Current() *domain.ThreadsSample {
	return s.cursor.sample
}

// PrimaryStreamOpen reports whether the cursor still owns an open stream.
func (s *SampledCPUSnapshot) PrimaryStreamOpen() bool {
	return s.cursor.stream != nil
}

// Close releases the primary stream if it is still open. Later cursor reads
// fail with ErrUsage; independent reads keep working.
func (s *SampledCPUSnapshot) Close() error {
	return s.cursor.close(s.opts.logger, stateClosed)
}

// openStream opens and decodes a private stream over the file.
func (s *SampledCPUSnapshot) openStream() (ports.SampleStream, error) {
	rc, err := s.file.Open()
	if err != nil {
		return nil, domain.WrapIO("open "+s.file.Name(), err)
	}
	stream, err := s.opts.decode(rc)
	if err != nil {
		rc.Close()
		return nil, domain.WrapIO("decode "+s.file.Name(), err)
	}
	s.opts.logger.Debug("opened sample stream", log.String("file", s.file.Name()))
	return stream, nil
}

// seek opens a private stream positioned before sample index.
func (s *SampledCPUSnapshot) seek(index int) (ports.SampleStream, error) {
	stream, err := s.openStream()
	if err != nil {
		return nil, err
	}
	for i := 0; i < index; i++ {
		if _, err := readNext(stream, i); err != nil {
			stream.Close()
			return nil, err
		}
	}
	return stream, nil
}

// readNext reads the sample expected at index i from stream.
func readNext(stream ports.SampleStream, i int) (*domain.ThreadsSample, error) {
	sample, err := stream.ReadSample()
	if errors.Is(err, ports.ErrEndOfSamples) {
		return nil, &domain.IOError{Op: "read sample", Err: fmt.Errorf("sample %d: %w", i, io.ErrUnexpectedEOF)}
	}
	if err != nil {
		return nil, domain.WrapIO(fmt.Sprintf("read sample %d", i), err)
	}
	return sample, nil
}

// closeStream closes a private stream, keeping the first error.
func closeStream(stream ports.SampleStream, errp *error) {
	if err := stream.Close(); err != nil && *errp == nil {
		*errp = domain.WrapIO("close stream", err)
	}
}

func (s *SampledCPUSnapshot) checkRange(op string, index int) error {
	if index < 0 || index >= s.count {
		return &domain.UsageError{Op: op, Current: s.cursor.index, Requested: index, Count: s.count}
	}
	return nil
}
