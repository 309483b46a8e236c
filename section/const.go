package section

const (
	// Flag option bit masks
	EndiannessMask   = 0x0001 // 0=little-endian, 1=big-endian
	ChecksumMask     = 0x0002 // column chunk checksums present
	ReservedBitsMask = 0x000C // must be zero
	MagicNumberMask  = 0xFFF0

	// MagicCCTV1Opt identifies a version 1 columnar chunk table file in the header options.
	MagicCCTV1Opt = 0xCC10
	// TrailerMagic closes every file ("CCT1" little-endian).
	TrailerMagic uint32 = 0x31544343

	// FormatVersion is the only layout version this package reads and writes.
	FormatVersion uint8 = 1
)

// fixed section sizes in bytes
const (
	HeaderSize           = 8
	TrailerSize          = 24
	RowGroupEntrySize    = 24
	ColumnChunkEntrySize = 32
	// MinFileSize is the size of a file with no row groups and no columns.
	MinFileSize = HeaderSize + TrailerSize
	// MaxColumns is bounded by the uint16 column count of the header.
	MaxColumns = 1<<16 - 1
)
