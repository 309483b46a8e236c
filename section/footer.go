package section

import (
	"encoding/binary"
	"fmt"

	"github.com/arloliu/colchunk/endian"
	"github.com/arloliu/colchunk/errs"
	"github.com/arloliu/colchunk/format"
)

// ColumnSpec describes one column of the file schema.
type ColumnSpec struct {
	Name        string
	Type        format.ColumnType
	Compression format.CompressionType
}

// RowGroupMeta is the footer record of one row group: its location and one
// ColumnChunkEntry per schema column, in schema order.
type RowGroupMeta struct {
	Entry  RowGroupEntry
	Chunks []ColumnChunkEntry
}

// Footer holds the schema and the row group directory.
//
// Layout (byte order from the header flag):
//
//	uint16 column count
//	per column: type u8, compression u8, uvarint name length, name bytes
//	uint32 row group count
//	per row group: RowGroupEntry, then one ColumnChunkEntry per column
type Footer struct {
	Columns   []ColumnSpec
	RowGroups []RowGroupMeta
}

// Size returns the serialized length of the footer.
func (f *Footer) Size() int {
	n := 2 + 4
	for _, c := range f.Columns {
		n += 2 + uvarintLen(uint64(len(c.Name))) + len(c.Name)
	}
	n += len(f.RowGroups) * (RowGroupEntrySize + len(f.Columns)*ColumnChunkEntrySize)

	return n
}

// Bytes serializes the footer with the given byte order.
func (f *Footer) Bytes(engine endian.EndianEngine) []byte {
	data := make([]byte, 0, f.Size())
	data = engine.AppendUint16(data, uint16(len(f.Columns))) //nolint: gosec
	for _, c := range f.Columns {
		data = append(data, uint8(c.Type), uint8(c.Compression))
		data = binary.AppendUvarint(data, uint64(len(c.Name)))
		data = append(data, c.Name...)
	}
	data = engine.AppendUint32(data, uint32(len(f.RowGroups))) //nolint: gosec

	offset := len(data)
	data = data[:cap(data)]
	for _, rg := range f.RowGroups {
		offset = rg.Entry.WriteToSlice(data, offset, engine)
		for _, chunk := range rg.Chunks {
			offset = chunk.WriteToSlice(data, offset, engine)
		}
	}

	return data[:offset]
}

// ParseFooter parses the footer. Structural problems wrap errs.ErrInvalidFooter;
// semantic consistency of offsets and row counts is checked by the row-group index.
//
// Parameters:
//   - data: Footer bytes, exactly Trailer.FooterLength long
//   - engine: Byte order from the header flag
//   - columnCount: Column count from the header
func ParseFooter(data []byte, engine endian.EndianEngine, columnCount int) (Footer, error) {
	if len(data) < 2 {
		return Footer{}, fmt.Errorf("%w: %d bytes", errs.ErrInvalidFooter, len(data))
	}
	if n := int(engine.Uint16(data[0:2])); n != columnCount {
		return Footer{}, fmt.Errorf("%w: footer has %d columns, header has %d", errs.ErrInvalidFooter, n, columnCount)
	}
	pos := 2

	f := Footer{Columns: make([]ColumnSpec, columnCount)}
	for i := range f.Columns {
		if pos+2 > len(data) {
			return Footer{}, fmt.Errorf("%w: truncated column %d", errs.ErrInvalidFooter, i)
		}
		spec := ColumnSpec{
			Type:        format.ColumnType(data[pos]),
			Compression: format.CompressionType(data[pos+1]),
		}
		pos += 2
		if !spec.Type.Valid() {
			return Footer{}, fmt.Errorf("%w: column %d type 0x%02x", errs.ErrInvalidColumnType, i, uint8(spec.Type))
		}
		if !spec.Compression.Valid() {
			return Footer{}, fmt.Errorf("%w: column %d compression 0x%02x", errs.ErrInvalidCompression, i, uint8(spec.Compression))
		}

		nameLen, n := binary.Uvarint(data[pos:])
		if n <= 0 || nameLen > uint64(len(data)-pos-n) {
			return Footer{}, fmt.Errorf("%w: column %d name", errs.ErrInvalidFooter, i)
		}
		pos += n
		spec.Name = string(data[pos : pos+int(nameLen)])
		pos += int(nameLen)
		f.Columns[i] = spec
	}

	if pos+4 > len(data) {
		return Footer{}, fmt.Errorf("%w: missing row group count", errs.ErrInvalidFooter)
	}
	rgCount := int(engine.Uint32(data[pos : pos+4]))
	pos += 4

	per := RowGroupEntrySize + columnCount*ColumnChunkEntrySize
	if rgCount < 0 || (len(data)-pos) != rgCount*per {
		return Footer{}, fmt.Errorf("%w: %d row groups need %d bytes, have %d",
			errs.ErrInvalidFooter, rgCount, rgCount*per, len(data)-pos)
	}

	f.RowGroups = make([]RowGroupMeta, rgCount)
	for i := range f.RowGroups {
		entry, err := ParseRowGroupEntry(data[pos:], engine)
		if err != nil {
			return Footer{}, err
		}
		pos += RowGroupEntrySize

		chunks := make([]ColumnChunkEntry, columnCount)
		for c := range chunks {
			if chunks[c], err = ParseColumnChunkEntry(data[pos:], engine); err != nil {
				return Footer{}, err
			}
			pos += ColumnChunkEntrySize
		}
		f.RowGroups[i] = RowGroupMeta{Entry: entry, Chunks: chunks}
	}

	return f, nil
}

func uvarintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}

	return n
}
