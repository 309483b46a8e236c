package compress

import "github.com/golang/snappy"

// SnappyCompressor provides block-format Snappy compression.
//
// Snappy is the default codec of most columnar writers, which makes it the
// natural choice when converting existing data sets.
type SnappyCompressor struct{}

var _ Codec = (*SnappyCompressor)(nil)

// NewSnappyCompressor creates a Snappy codec.
func NewSnappyCompressor() SnappyCompressor {
	return SnappyCompressor{}
}

// Compress compresses data using Snappy block format.
func (c SnappyCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return snappy.Encode(nil, data), nil
}

// DecompressInto decompresses Snappy block data into dst.
func (c SnappyCompressor) DecompressInto(dst, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return dst, checkDecodedLen("snappy", 0, len(dst))
	}

	n, err := snappy.DecodedLen(data)
	if err != nil {
		return nil, err
	}
	if err := checkDecodedLen("snappy", n, len(dst)); err != nil {
		return nil, err
	}

	return snappy.Decode(dst, data)
}
