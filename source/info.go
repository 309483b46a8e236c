package source

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/arloliu/colchunk/errs"
)

// Info selects a source. Exactly the fields matching Kind are used.
type Info struct {
	Kind Kind

	// Path for KindFilePath.
	Path string
	// Data for KindHostBuffer and KindDeviceBuffer.
	Data []byte
	// Device allocator receiving the copy of Data for KindDeviceBuffer.
	Device memory.Allocator
	// Bucket and Key for KindS3.
	Bucket string
	Key    string
	// S3 client for KindS3.
	S3 S3API
}

// Open opens the source described by info.
func Open(ctx context.Context, info Info) (Source, error) {
	switch info.Kind {
	case KindFilePath:
		return OpenFile(info.Path)
	case KindHostBuffer:
		return NewHostBuffer(info.Data), nil
	case KindDeviceBuffer:
		mem := info.Device
		if mem == nil {
			mem = memory.DefaultAllocator
		}

		return CopyToDevice(info.Data, mem), nil
	case KindS3:
		if info.S3 == nil {
			return nil, fmt.Errorf("%w: s3 source without client", errs.ErrUnknownSourceKind)
		}

		return NewS3(ctx, info.S3, info.Bucket, info.Key)
	default:
		return nil, fmt.Errorf("%w: %d", errs.ErrUnknownSourceKind, info.Kind)
	}
}

// ParseLocation maps "s3://bucket/key" to an S3 Info and anything else to a file path Info.
func ParseLocation(loc string) (Info, error) {
	if !strings.HasPrefix(loc, "s3://") {
		return Info{Kind: KindFilePath, Path: loc}, nil
	}

	u, err := url.Parse(loc)
	if err != nil {
		return Info{}, fmt.Errorf("parse %q: %w", loc, err)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return Info{}, fmt.Errorf("%w: %q needs bucket and key", errs.ErrUnknownSourceKind, loc)
	}

	return Info{Kind: KindS3, Bucket: u.Host, Key: key}, nil
}

// OpenAll opens every info in order. On failure the sources opened so far are closed.
func OpenAll(ctx context.Context, infos []Info) ([]Source, error) {
	srcs := make([]Source, 0, len(infos))
	for i, info := range infos {
		src, err := Open(ctx, info)
		if err != nil {
			_ = CloseAll(srcs)
			return nil, fmt.Errorf("open source %d: %w", i, err)
		}
		srcs = append(srcs, src)
	}

	return srcs, nil
}

// CloseAll closes every source and returns the first error.
func CloseAll(srcs []Source) error {
	var first error
	for _, s := range srcs {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}

	return first
}
