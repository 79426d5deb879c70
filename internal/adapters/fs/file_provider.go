package fs

import (
	"io"
	"os"
)

// FileProvider implements ports.FileProvider for a file on local disk.
// Each Open returns an independent handle, so concurrent readers never share
// a file offset.
type FileProvider struct {
	path string
}

// NewFileProvider creates a FileProvider for path.
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path}
}

// Open returns a fresh read handle positioned at the start of the file.
func (p *FileProvider) Open() (io.ReadCloser, error) {
	return os.Open(p.path)
}

// Size returns the current file size in bytes.
func (p *FileProvider) Size() (int64, error) {
	fi, err := os.Stat(p.path)
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

// Name returns the file path.
func (p *FileProvider) Name() string {
	return p.path
}
