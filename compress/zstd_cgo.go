//go:build cgo && gozstd

package compress

import (
	"fmt"

	"github.com/valyala/gozstd"
)

// ZstdCompressor provides Zstandard compression backed by the reference C library.
//
// Built only with the gozstd build tag and cgo enabled.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a Zstd codec.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}

// Compress compresses data at level 3.
func (c ZstdCompressor) Compress(data []byte) ([]byte, error) {
	return gozstd.CompressLevel(nil, data, 3), nil
}

// DecompressInto decompresses Zstd data into dst without growing it.
func (c ZstdCompressor) DecompressInto(dst, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return dst, checkDecodedLen("zstd", 0, len(dst))
	}

	out, err := gozstd.Decompress(dst[:0], data)
	if err != nil {
		return nil, fmt.Errorf("zstd decompression failed: %w", err)
	}
	if err := checkDecodedLen("zstd", len(out), len(dst)); err != nil {
		return nil, err
	}

	return out, nil
}
