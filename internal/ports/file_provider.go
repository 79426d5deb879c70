package ports

import "io"

// FileProvider hands out independent byte streams over one sample file.
// Every call to Open returns a fresh stream positioned at the start.
type FileProvider interface {
	// Open returns a new raw byte stream. The caller must close it.
	Open() (io.ReadCloser, error)

	// Size returns the file size in bytes. Used only to estimate
	// prescan progress.
	Size() (int64, error)

	// Name identifies the file in logs and errors.
	Name() string
}
