package section

import (
	"encoding/binary"

	"github.com/arloliu/colchunk/errs"
)

// Header is the fixed-size section at offset 0 of every file.
//
// Layout (always little-endian, 8 bytes):
//
//	0-1  Flag.Options
//	2    Flag.Version
//	3    Flag.Compression
//	4-5  ColumnCount
//	6-7  reserved
type Header struct {
	Flag        Flag
	ColumnCount uint16
}

// NewHeader creates a header with default flags for columnCount columns.
func NewHeader(columnCount int) Header {
	return Header{Flag: NewFlag(), ColumnCount: uint16(columnCount)} //nolint: gosec
}

// Parse parses the header from exactly HeaderSize bytes.
//
// Parameters:
//   - data: Header bytes
//
// Returns:
//   - error: ErrInvalidHeaderSize on wrong length, or flag validation errors
func (h *Header) Parse(data []byte) error {
	if len(data) != HeaderSize {
		return errs.ErrInvalidHeaderSize
	}

	h.Flag.Options = binary.LittleEndian.Uint16(data[0:2])
	h.Flag.Version = data[2]
	h.Flag.Compression = data[3]
	h.ColumnCount = binary.LittleEndian.Uint16(data[4:6])

	return h.Flag.Validate()
}

// Bytes serializes the header.
func (h Header) Bytes() []byte {
	b := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint16(b[0:2], h.Flag.Options)
	b[2] = h.Flag.Version
	b[3] = h.Flag.Compression
	binary.LittleEndian.PutUint16(b[4:6], h.ColumnCount)

	return b
}

// ParseHeader parses a header from the first HeaderSize bytes of data.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, errs.ErrInvalidHeaderSize
	}

	var h Header
	if err := h.Parse(data[:HeaderSize]); err != nil {
		return Header{}, err
	}

	return h, nil
}

// IsCCT reports whether data starts with a version 1 header magic.
func IsCCT(data []byte) bool {
	if len(data) < 2 {
		return false
	}

	return binary.LittleEndian.Uint16(data[0:2])&MagicNumberMask == MagicCCTV1Opt
}
