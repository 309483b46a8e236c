package compress

import (
	"fmt"

	"github.com/arloliu/colchunk/errs"
	"github.com/arloliu/colchunk/format"
)

// Compressor compresses one column chunk payload.
//
// The input is the encoded column payload of a single row group. Implementations
// must not retain or modify the input slice.
type Compressor interface {
	// Compress compresses data and returns a newly allocated result owned by the caller.
	Compress(data []byte) ([]byte, error)
}

// Decompressor restores column chunk payloads.
//
// Implementations must be safe for concurrent use: the decode engine decompresses
// the columns of a staged batch in parallel with a single shared codec.
type Decompressor interface {
	// DecompressInto decompresses data into dst.
	//
	// The length of dst must equal the decoded size recorded in the column chunk
	// entry. The returned slice aliases dst. A decoded size that differs from
	// len(dst) is reported as errs.ErrTruncatedPayload.
	//
	// Parameters:
	//   - dst: Destination buffer, typically allocated from the host allocator
	//   - data: Compressed payload
	//
	// Returns:
	//   - []byte: dst filled with the decoded payload
	//   - error: Decompression or size mismatch error
	DecompressInto(dst, data []byte) ([]byte, error)
}

// Codec combines compression and decompression for one algorithm.
type Codec interface {
	Compressor
	Decompressor
}

// CompressionStats describes the outcome of compressing one payload.
type CompressionStats struct {
	Algorithm      format.CompressionType
	OriginalSize   int64
	CompressedSize int64
}

// CompressionRatio returns compressed size / original size, or 0 for an empty original.
func (s CompressionStats) CompressionRatio() float64 {
	if s.OriginalSize == 0 {
		return 0.0
	}

	return float64(s.CompressedSize) / float64(s.OriginalSize)
}

// SpaceSavings returns the space saved in percent.
func (s CompressionStats) SpaceSavings() float64 {
	return (1.0 - s.CompressionRatio()) * 100.0
}

// CreateCodec creates a Codec for the given compression type.
//
// Parameters:
//   - compressionType: Compression algorithm
//   - target: Description of what the codec is for, used in error messages
//
// Returns:
//   - Codec: Codec instance for the algorithm
//   - error: errs.ErrInvalidCompression for unknown types
func CreateCodec(compressionType format.CompressionType, target string) (Codec, error) {
	switch compressionType {
	case format.CompressionNone:
		return NewNoOpCompressor(), nil
	case format.CompressionZstd:
		return NewZstdCompressor(), nil
	case format.CompressionS2:
		return NewS2Compressor(), nil
	case format.CompressionLZ4:
		return NewLZ4Compressor(), nil
	case format.CompressionSnappy:
		return NewSnappyCompressor(), nil
	default:
		return nil, fmt.Errorf("%w: %s compression %s", errs.ErrInvalidCompression, target, compressionType)
	}
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone:   NewNoOpCompressor(),
	format.CompressionZstd:   NewZstdCompressor(),
	format.CompressionS2:     NewS2Compressor(),
	format.CompressionLZ4:    NewLZ4Compressor(),
	format.CompressionSnappy: NewSnappyCompressor(),
}

// GetCodec returns the shared built-in Codec for the compression type.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("%w: %s", errs.ErrInvalidCompression, compressionType)
}

func checkDecodedLen(codec string, got, want int) error {
	if got != want {
		return fmt.Errorf("%s: decoded %d bytes, want %d: %w", codec, got, want, errs.ErrTruncatedPayload)
	}

	return nil
}
