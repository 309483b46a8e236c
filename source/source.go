// Package source provides random-access byte sources for encoded table files.
//
// A Source is opened once per reader session, queried for its size and read with
// ranged reads. ReadAt either fills p completely or returns an error; sources do
// not retry.
package source

import (
	"context"
	"fmt"
	"io"
)

// Kind identifies where the encoded bytes live.
type Kind uint8

const (
	KindFilePath Kind = iota + 1
	KindHostBuffer
	KindDeviceBuffer
	KindS3
)

func (k Kind) String() string {
	switch k {
	case KindFilePath:
		return "file"
	case KindHostBuffer:
		return "host_buffer"
	case KindDeviceBuffer:
		return "device_buffer"
	case KindS3:
		return "s3"
	default:
		return "unknown"
	}
}

// Source is a sized, random-access encoded byte source.
type Source interface {
	// Kind returns the storage kind.
	Kind() Kind

	// Size returns the total size in bytes.
	Size() int64

	// ReadAt reads len(p) bytes starting at off. A short read is an error.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)

	// Close releases the source.
	Close() error
}

func checkRange(size int64, p []byte, off int64) error {
	if off < 0 || off+int64(len(p)) > size {
		return fmt.Errorf("range [%d, +%d) outside source of %d bytes: %w", off, len(p), size, io.ErrUnexpectedEOF)
	}

	return nil
}

// ReaderAt adapts a Source to io.ReaderAt and io.ReadSeeker, binding ctx to every read.
//
// It is the bridge to libraries that take an io.ReaderAt, such as the parquet
// footer reader.
func ReaderAt(ctx context.Context, src Source) *SectionReader {
	return &SectionReader{src: src, sr: io.NewSectionReader(readerAtFunc{ctx: ctx, src: src}, 0, src.Size())}
}

// SectionReader implements io.ReaderAt, io.Reader and io.Seeker over a Source.
type SectionReader struct {
	src Source
	sr  *io.SectionReader
}

func (r *SectionReader) ReadAt(p []byte, off int64) (int, error) { return r.sr.ReadAt(p, off) }

func (r *SectionReader) Read(p []byte) (int, error) { return r.sr.Read(p) }

func (r *SectionReader) Seek(offset int64, whence int) (int64, error) {
	return r.sr.Seek(offset, whence)
}

func (r *SectionReader) Size() int64 { return r.src.Size() }

type readerAtFunc struct {
	ctx context.Context
	src Source
}

// ReadAt clamps reads that run past the end so io.SectionReader sees io.EOF semantics.
func (f readerAtFunc) ReadAt(p []byte, off int64) (int, error) {
	size := f.src.Size()
	if off >= size {
		return 0, io.EOF
	}

	var eof error
	if remain := size - off; int64(len(p)) > remain {
		p = p[:remain]
		eof = io.EOF
	}

	n, err := f.src.ReadAt(f.ctx, p, off)
	if err != nil {
		return n, err
	}

	return n, eof
}
