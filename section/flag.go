package section

import (
	"github.com/arloliu/colchunk/endian"
	"github.com/arloliu/colchunk/errs"
	"github.com/arloliu/colchunk/format"
)

// Flag is the packed first four bytes of the header.
type Flag struct {
	// Options packs the byte order bit, the checksum bit and the magic number.
	//   - Bit 0: 0 little-endian, 1 big-endian
	//   - Bit 1: column chunk checksums present
	//   - Bit 2-3: reserved, must be 0
	//   - Bit 4-15: magic number (0xCC10 for version 1)
	Options uint16

	// Version is the layout version.
	Version uint8

	// Compression is the default compression of column chunks written into the file.
	// Each column records the compression actually used in the footer schema.
	Compression uint8
}

// NewFlag returns a little-endian flag with checksums enabled and Zstd as default compression.
func NewFlag() Flag {
	f := Flag{
		Options:     MagicCCTV1Opt,
		Version:     FormatVersion,
		Compression: uint8(format.CompressionZstd),
	}
	f.SetChecksums(true)

	return f
}

func (f Flag) IsLittleEndian() bool {
	return f.Options&EndiannessMask == 0
}

func (f Flag) IsBigEndian() bool {
	return f.Options&EndiannessMask != 0
}

func (f *Flag) WithLittleEndian() {
	f.Options &^= EndiannessMask
}

func (f *Flag) WithBigEndian() {
	f.Options |= EndiannessMask
}

// HasChecksums reports whether column chunk checksums are present and must be verified.
func (f Flag) HasChecksums() bool {
	return f.Options&ChecksumMask != 0
}

func (f *Flag) SetChecksums(enabled bool) {
	if enabled {
		f.Options |= ChecksumMask
	} else {
		f.Options &^= ChecksumMask
	}
}

// MagicNumber returns bits 4-15 of Options.
func (f Flag) MagicNumber() uint16 {
	return f.Options & MagicNumberMask
}

// DefaultCompression returns the file level compression type.
func (f Flag) DefaultCompression() format.CompressionType {
	return format.CompressionType(f.Compression)
}

// Engine returns the byte order used by the footer and column payloads.
func (f Flag) Engine() endian.EndianEngine {
	if f.IsBigEndian() {
		return endian.GetBigEndianEngine()
	}

	return endian.GetLittleEndianEngine()
}

// Validate checks the magic number, reserved bits, version and default compression.
func (f Flag) Validate() error {
	if f.MagicNumber() != MagicCCTV1Opt {
		return errs.ErrInvalidMagicNumber
	}
	if f.Options&ReservedBitsMask != 0 {
		return errs.ErrInvalidHeaderFlags
	}
	if f.Version != FormatVersion {
		return errs.ErrUnsupportedVersion
	}
	if !f.DefaultCompression().Valid() {
		return errs.ErrInvalidCompression
	}

	return nil
}
