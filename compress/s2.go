package compress

import "github.com/klauspost/compress/s2"

type S2Compressor struct{}

var _ Codec = (*S2Compressor)(nil)

// NewS2Compressor creates an S2 codec.
func NewS2Compressor() S2Compressor {
	return S2Compressor{}
}

// Compress compresses data using S2.
func (c S2Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.Encode(nil, data), nil
}

func (c S2Compressor) DecompressInto(dst, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return dst, checkDecodedLen("s2", 0, len(dst))
	}

	n, err := s2.DecodedLen(data)
	if err != nil {
		return nil, err
	}
	if err := checkDecodedLen("s2", n, len(dst)); err != nil {
		return nil, err
	}

	return s2.Decode(dst, data)
}
