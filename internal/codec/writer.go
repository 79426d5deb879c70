package codec

import (
	"encoding/binary"
	"errors"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"

	"github.com/bft-labs/npss/internal/domain"
)

// Writer encodes samples into an NPSS stream.
type Writer struct {
	gz     *gzip.Writer
	buf    []byte
	count  int
	closed bool
}

// NewWriter writes the NPSS header to w. Pass countHint 0 when the number of
// samples is not known up front; readers will then prescan the file.
func NewWriter(w io.Writer, countHint int, lastHint int64) (*Writer, error) {
	gz := gzip.NewWriter(w)
	hdr := make([]byte, 0, len(magic)+1+2*binary.MaxVarintLen64)
	hdr = append(hdr, magic...)
	hdr = append(hdr, version)
	hdr = binary.AppendUvarint(hdr, uint64(countHint))
	hdr = binary.AppendVarint(hdr, lastHint)
	if _, err := gz.Write(hdr); err != nil {
		return nil, err
	}
	return &Writer{gz: gz}, nil
}

// WriteSample appends one sample record.
func (w *Writer) WriteSample(s *domain.ThreadsSample) error {
	if w.closed {
		return errors.New("codec: write on closed writer")
	}
	rec := appendSample(w.buf[:0], s)
	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(len(rec)))
	if _, err := w.gz.Write(lenBuf[:n]); err != nil {
		return err
	}
	if _, err := w.gz.Write(rec); err != nil {
		return err
	}
	w.buf = rec
	w.count++
	return nil
}

// Count returns the number of samples written so far.
func (w *Writer) Count() int { return w.count }

// Flush pushes buffered records to the underlying writer so that concurrent
// readers can see them.
func (w *Writer) Flush() error {
	return w.gz.Flush()
}

// Close finishes the gzip stream. It does not close the underlying writer.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.gz.Close()
}

// WriteFile writes samples to path with an exact header.
func WriteFile(path string, samples []domain.ThreadsSample) error {
	var last int64
	if len(samples) > 0 {
		last = samples[len(samples)-1].Timestamp
	}
	return writeFile(path, samples, len(samples), last)
}

// WriteStreamingFile writes samples to path with an unknown-count header, the
// way a recorder that is still capturing does.
func WriteStreamingFile(path string, samples []domain.ThreadsSample) error {
	return writeFile(path, samples, 0, 0)
}

func writeFile(path string, samples []domain.ThreadsSample, count int, last int64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w, err := NewWriter(f, count, last)
	if err != nil {
		f.Close()
		return err
	}
	for i := range samples {
		if err := w.WriteSample(&samples[i]); err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
