package source

import (
	"context"
	"fmt"
	"io"
	"os"
)

// File is a Source backed by a local file.
type File struct {
	path string
	f    *os.File
	size int64
}

var _ Source = (*File)(nil)

// OpenFile opens path for ranged reads.
func OpenFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	return &File{path: path, f: f, size: st.Size()}, nil
}

func (s *File) Kind() Kind { return KindFilePath }

func (s *File) Size() int64 { return s.size }

// Path returns the file path.
func (s *File) Path() string { return s.path }

func (s *File) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := checkRange(s.size, p, off); err != nil {
		return 0, err
	}

	n, err := s.f.ReadAt(p, off)
	if err == io.EOF && n == len(p) {
		err = nil
	}

	return n, err
}

func (s *File) Close() error {
	return s.f.Close()
}
