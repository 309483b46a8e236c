package compress

// NoOpCompressor passes payloads through unchanged.
//
// It backs column chunks written with format.CompressionNone.
type NoOpCompressor struct{}

var _ Codec = (*NoOpCompressor)(nil)

// NewNoOpCompressor creates a pass-through codec.
func NewNoOpCompressor() NoOpCompressor {
	return NoOpCompressor{}
}

// Compress returns data as-is. The result shares memory with the input.
func (c NoOpCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// DecompressInto copies data into dst.
func (c NoOpCompressor) DecompressInto(dst, data []byte) ([]byte, error) {
	if err := checkDecodedLen("none", len(data), len(dst)); err != nil {
		return nil, err
	}
	copy(dst, data)

	return dst, nil
}
