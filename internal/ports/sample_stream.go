package ports

import (
	"io"

	"github.com/bft-labs/npss/internal/domain"
)

// SampleStream yields samples from one open sample file in file order.
type SampleStream interface {
	// SampleCountHint returns the number of samples recorded in the file
	// header, or 0 when the writer did not know it.
	SampleCountHint() int

	// LastTimestampHint returns the timestamp of the final sample as recorded
	// in the file header. Meaningless when SampleCountHint is 0.
	LastTimestampHint() int64

	// ReadSample decodes the next sample.
	// Returns io.EOF once every sample has been read.
	ReadSample() (*domain.ThreadsSample, error)

	// Close releases the stream and the underlying byte source.
	Close() error
}

// StreamDecoder opens a SampleStream over a raw byte stream. On error the
// decoder must not close rc; the caller still owns it.
type StreamDecoder func(rc io.ReadCloser) (SampleStream, error)

// ErrEndOfSamples is returned by ReadSample once the stream is exhausted.
var ErrEndOfSamples = io.EOF
