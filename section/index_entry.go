package section

import (
	"github.com/arloliu/colchunk/endian"
	"github.com/arloliu/colchunk/errs"
)

// RowGroupEntry locates one row group inside the file.
//
// The byte range [Offset, Offset+Length) covers the column chunks of every
// column of the row group; it is the unit fetched by the input stager.
type RowGroupEntry struct {
	// Offset is the absolute byte offset of the first column chunk.
	//
	// Offset: 0, Size: 8 bytes
	Offset uint64

	// Length is the total encoded length of the row group.
	//
	// Offset: 8, Size: 8 bytes
	Length uint64

	// Rows is the number of rows in the row group.
	//
	// Offset: 16, Size: 8 bytes
	Rows uint64
}

// WriteToSlice writes the entry at offset and returns the next write position.
func (e RowGroupEntry) WriteToSlice(data []byte, offset int, engine endian.EndianEngine) int {
	engine.PutUint64(data[offset:offset+8], e.Offset)
	engine.PutUint64(data[offset+8:offset+16], e.Length)
	engine.PutUint64(data[offset+16:offset+24], e.Rows)

	return offset + RowGroupEntrySize
}

// End returns the offset one past the last byte of the row group.
func (e RowGroupEntry) End() uint64 {
	return e.Offset + e.Length
}

// ParseRowGroupEntry parses a RowGroupEntry.
//
// Returns:
//   - RowGroupEntry: Parsed entry
//   - error: ErrInvalidIndexEntry if data is shorter than RowGroupEntrySize
func ParseRowGroupEntry(data []byte, engine endian.EndianEngine) (RowGroupEntry, error) {
	if len(data) < RowGroupEntrySize {
		return RowGroupEntry{}, errs.ErrInvalidIndexEntry
	}

	return RowGroupEntry{
		Offset: engine.Uint64(data[0:8]),
		Length: engine.Uint64(data[8:16]),
		Rows:   engine.Uint64(data[16:24]),
	}, nil
}

// ColumnChunkEntry locates the payload of one column inside one row group.
type ColumnChunkEntry struct {
	// Offset is the absolute byte offset of the compressed payload.
	//
	// Offset: 0, Size: 8 bytes
	Offset uint64

	// CompressedSize is the stored payload length.
	//
	// Offset: 8, Size: 4 bytes
	CompressedSize uint32

	// RawSize is the encoded payload length after decompression.
	//
	// Offset: 12, Size: 4 bytes
	RawSize uint32

	// Checksum is the xxhash64 of the stored payload, zero when checksums are disabled.
	//
	// Offset: 16, Size: 8 bytes
	Checksum uint64

	// Rows must equal the row count of the owning row group.
	//
	// Offset: 24, Size: 4 bytes. Bytes 28-31 are reserved.
	Rows uint32
}

// WriteToSlice writes the entry at offset and returns the next write position.
func (e ColumnChunkEntry) WriteToSlice(data []byte, offset int, engine endian.EndianEngine) int {
	engine.PutUint64(data[offset:offset+8], e.Offset)
	engine.PutUint32(data[offset+8:offset+12], e.CompressedSize)
	engine.PutUint32(data[offset+12:offset+16], e.RawSize)
	engine.PutUint64(data[offset+16:offset+24], e.Checksum)
	engine.PutUint32(data[offset+24:offset+28], e.Rows)
	engine.PutUint32(data[offset+28:offset+32], 0)

	return offset + ColumnChunkEntrySize
}

// End returns the offset one past the last payload byte.
func (e ColumnChunkEntry) End() uint64 {
	return e.Offset + uint64(e.CompressedSize)
}

// ParseColumnChunkEntry parses a ColumnChunkEntry.
func ParseColumnChunkEntry(data []byte, engine endian.EndianEngine) (ColumnChunkEntry, error) {
	if len(data) < ColumnChunkEntrySize {
		return ColumnChunkEntry{}, errs.ErrInvalidIndexEntry
	}

	return ColumnChunkEntry{
		Offset:         engine.Uint64(data[0:8]),
		CompressedSize: engine.Uint32(data[8:12]),
		RawSize:        engine.Uint32(data[12:16]),
		Checksum:       engine.Uint64(data[16:24]),
		Rows:           engine.Uint32(data[24:28]),
	}, nil
}
