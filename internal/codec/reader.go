package codec

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/bft-labs/npss/internal/domain"
	"github.com/bft-labs/npss/internal/ports"
)

const (
	magic   = "NPSS"
	version = 1

	// maxRecordSize bounds a single encoded sample.
	maxRecordSize = 64 << 20
)

// Reader implements ports.SampleStream over an NPSS byte stream.
type Reader struct {
	src   io.ReadCloser
	gz    *gzip.Reader
	br    *bufio.Reader
	count int
	last  int64
}

// NewReader decodes the header of an NPSS stream. On error src is left open.
func NewReader(src io.ReadCloser) (*Reader, error) {
	gz, err := gzip.NewReader(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBadFormat, err)
	}
	r := &Reader{
		src: src,
		gz:  gz,
		br:  bufio.NewReaderSize(gz, 64*1024),
	}
	if err := r.readHeader(); err != nil {
		gz.Close()
		return nil, err
	}
	return r, nil
}

// Decoder adapts NewReader to ports.StreamDecoder.
func Decoder(src io.ReadCloser) (ports.SampleStream, error) {
	r, err := NewReader(src)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Reader) readHeader() error {
	var hdr [len(magic) + 1]byte
	if _, err := io.ReadFull(r.br, hdr[:]); err != nil {
		return fmt.Errorf("%w: header: %v", domain.ErrBadFormat, err)
	}
	if string(hdr[:len(magic)]) != magic {
		return fmt.Errorf("%w: bad magic %q", domain.ErrBadFormat, hdr[:len(magic)])
	}
	if hdr[len(magic)] != version {
		return fmt.Errorf("%w: unsupported version %d", domain.ErrBadFormat, hdr[len(magic)])
	}
	count, err := binary.ReadUvarint(r.br)
	if err != nil {
		return fmt.Errorf("%w: sample count: %v", domain.ErrBadFormat, err)
	}
	last, err := binary.ReadVarint(r.br)
	if err != nil {
		return fmt.Errorf("%w: last timestamp: %v", domain.ErrBadFormat, err)
	}
	r.count = int(count)
	r.last = last
	return nil
}

// SampleCountHint returns the sample count from the header, 0 if unknown.
func (r *Reader) SampleCountHint() int { return r.count }

// LastTimestampHint returns the last sample timestamp from the header.
func (r *Reader) LastTimestampHint() int64 { return r.last }

// ReadSample decodes the next sample. Returns io.EOF at the end of the file.
func (r *Reader) ReadSample() (*domain.ThreadsSample, error) {
	size, err := binary.ReadUvarint(r.br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: record length: %v", domain.ErrBadFormat, err)
	}
	if size > maxRecordSize {
		return nil, fmt.Errorf("%w: record of %d bytes exceeds limit", domain.ErrBadFormat, size)
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r.br, buf); err != nil {
		return nil, fmt.Errorf("%w: truncated record: %v", domain.ErrBadFormat, err)
	}
	return decodeSample(buf)
}

// Close releases the gzip reader and the underlying stream.
func (r *Reader) Close() error {
	gzErr := r.gz.Close()
	srcErr := r.src.Close()
	if gzErr != nil {
		return gzErr
	}
	return srcErr
}
