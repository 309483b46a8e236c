package section

import (
	"encoding/binary"

	"github.com/arloliu/colchunk/errs"
)

// Trailer is the fixed-size section closing every file. It locates the footer.
//
// Layout (always little-endian, 24 bytes):
//
//	0-7    FooterOffset
//	8-11   FooterLength
//	12-19  FooterChecksum (xxhash64 of the footer bytes)
//	20-23  TrailerMagic
type Trailer struct {
	FooterOffset   uint64
	FooterLength   uint32
	FooterChecksum uint64
}

// Parse parses the trailer from exactly TrailerSize bytes.
func (t *Trailer) Parse(data []byte) error {
	if len(data) != TrailerSize {
		return errs.ErrInvalidTrailerSize
	}
	if binary.LittleEndian.Uint32(data[20:24]) != TrailerMagic {
		return errs.ErrInvalidMagicNumber
	}

	t.FooterOffset = binary.LittleEndian.Uint64(data[0:8])
	t.FooterLength = binary.LittleEndian.Uint32(data[8:12])
	t.FooterChecksum = binary.LittleEndian.Uint64(data[12:20])

	return nil
}

// Bytes serializes the trailer.
func (t Trailer) Bytes() []byte {
	b := make([]byte, TrailerSize)
	binary.LittleEndian.PutUint64(b[0:8], t.FooterOffset)
	binary.LittleEndian.PutUint32(b[8:12], t.FooterLength)
	binary.LittleEndian.PutUint64(b[12:20], t.FooterChecksum)
	binary.LittleEndian.PutUint32(b[20:24], TrailerMagic)

	return b
}

// FooterEnd returns the offset one past the last footer byte.
func (t Trailer) FooterEnd() uint64 {
	return t.FooterOffset + uint64(t.FooterLength)
}
