package encoding

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/bitutil"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/arloliu/colchunk/endian"
	"github.com/arloliu/colchunk/errs"
	"github.com/arloliu/colchunk/format"
)

// ColumnDecoder decodes the payloads of consecutive row groups of one column
// into a single arrow array.
//
// Buffers are sized once for the total row count, so a chunk spanning several
// row groups is decoded without an intermediate concatenation.
//
//	d, err := encoding.NewColumnDecoder(typ, engine, totalRows, totalRaw, mem)
//	if err != nil {
//	    return nil, err
//	}
//	defer d.Release()
//	for _, p := range payloads {
//	    if err := d.Append(p.raw, p.rows); err != nil {
//	        return nil, err
//	    }
//	}
//	return d.Finish()
type ColumnDecoder struct {
	typ    format.ColumnType
	engine endian.EndianEngine
	native bool
	rows   int
	filled int

	values  *memory.Buffer
	offsets *memory.Buffer // String only
	used    int            // String value bytes written
}

// NewColumnDecoder creates a decoder for rows rows in total.
//
// Parameters:
//   - typ: Column type
//   - engine: File byte order
//   - rows: Total rows of every payload that will be appended
//   - rawHint: Total decompressed payload bytes; sizes the String value buffer
//   - mem: Allocator owning the result buffers
func NewColumnDecoder(typ format.ColumnType, engine endian.EndianEngine, rows int, rawHint int, mem memory.Allocator) (*ColumnDecoder, error) {
	d := &ColumnDecoder{
		typ:    typ,
		engine: engine,
		native: endian.CompareNativeEndian(engine),
		rows:   rows,
	}

	switch typ {
	case format.TypeInt64, format.TypeFloat64:
		d.values = memory.NewResizableBuffer(mem)
		d.values.Resize(rows * 8)
	case format.TypeBool:
		d.values = memory.NewResizableBuffer(mem)
		d.values.Resize(int(bitutil.BytesForBits(int64(rows))))
		clear(d.values.Bytes())
	case format.TypeString:
		d.offsets = memory.NewResizableBuffer(mem)
		d.offsets.Resize(arrow.Int32Traits.BytesRequired(rows + 1))
		arrow.Int32Traits.CastFromBytes(d.offsets.Bytes())[0] = 0
		d.values = memory.NewResizableBuffer(mem)
		d.values.Reserve(rawHint)
	default:
		return nil, fmt.Errorf("%w: 0x%02x", errs.ErrInvalidColumnType, uint8(typ))
	}

	return d, nil
}

// Append decodes the payload of one row group holding rows rows.
func (d *ColumnDecoder) Append(raw []byte, rows int) error {
	if d.values == nil {
		panic("decoder already finished or released")
	}
	if d.filled+rows > d.rows {
		return fmt.Errorf("%w: %d rows appended beyond %d", errs.ErrTruncatedPayload, d.filled+rows, d.rows)
	}

	var err error
	switch d.typ {
	case format.TypeInt64, format.TypeFloat64:
		err = d.appendFixed(raw, rows)
	case format.TypeBool:
		err = d.appendBool(raw, rows)
	case format.TypeString:
		err = d.appendString(raw, rows)
	}
	if err != nil {
		return err
	}
	d.filled += rows

	return nil
}

func (d *ColumnDecoder) appendFixed(raw []byte, rows int) error {
	if len(raw) != rows*8 {
		return fmt.Errorf("%w: %s column has %d bytes for %d rows", errs.ErrTruncatedPayload, d.typ, len(raw), rows)
	}

	dst := d.values.Bytes()[d.filled*8 : (d.filled+rows)*8]
	if d.native {
		copy(dst, raw)
		return nil
	}

	values := arrow.Uint64Traits.CastFromBytes(dst)
	for i := range values {
		values[i] = d.engine.Uint64(raw[i*8:])
	}

	return nil
}

func (d *ColumnDecoder) appendBool(raw []byte, rows int) error {
	if want := int(bitutil.BytesForBits(int64(rows))); len(raw) != want {
		return fmt.Errorf("%w: bool column has %d bytes for %d rows", errs.ErrTruncatedPayload, len(raw), rows)
	}
	if rows > 0 {
		bitutil.CopyBitmap(raw, 0, rows, d.values.Bytes(), d.filled)
	}

	return nil
}

// appendString validates the whole payload before writing any of it.
func (d *ColumnDecoder) appendString(raw []byte, rows int) error {
	total, pos := 0, 0
	for i := range rows {
		n, k := binary.Uvarint(raw[pos:])
		if k <= 0 || n > uint64(len(raw)-pos-k) {
			return fmt.Errorf("%w: string row %d of %d", errs.ErrTruncatedPayload, i, rows)
		}
		pos += k + int(n)
		total += int(n)
	}
	if pos != len(raw) {
		return fmt.Errorf("%w: %d trailing bytes after %d strings", errs.ErrTruncatedPayload, len(raw)-pos, rows)
	}
	if d.used+total > math.MaxInt32 {
		return fmt.Errorf("%w: %d string bytes exceed int32 offsets", errs.ErrUnsupportedDataType, d.used+total)
	}

	d.values.Reserve(d.used + total)
	values := d.values.Buf()
	offsets := arrow.Int32Traits.CastFromBytes(d.offsets.Bytes())

	pos = 0
	for i := range rows {
		n, k := binary.Uvarint(raw[pos:])
		pos += k
		d.used += copy(values[d.used:], raw[pos:pos+int(n)])
		pos += int(n)
		offsets[d.filled+i+1] = int32(d.used) //nolint: gosec
	}

	return nil
}

// Finish builds the array. It fails unless exactly the announced row count was appended.
// The decoder is released afterwards.
func (d *ColumnDecoder) Finish() (arrow.Array, error) {
	if d.values == nil {
		panic("decoder already finished or released")
	}
	if d.filled != d.rows {
		return nil, fmt.Errorf("%w: decoded %d of %d rows", errs.ErrTruncatedPayload, d.filled, d.rows)
	}

	var buffers []*memory.Buffer
	if d.typ == format.TypeString {
		d.values.ResizeNoShrink(d.used)
		buffers = []*memory.Buffer{nil, d.offsets, d.values}
	} else {
		buffers = []*memory.Buffer{nil, d.values}
	}

	data := array.NewData(d.typ.ArrowType(), d.rows, buffers, nil, 0, 0)
	defer data.Release()
	d.Release()

	return array.MakeFromData(data), nil
}

// Release drops the decoder buffers. It is a no-op after Finish.
func (d *ColumnDecoder) Release() {
	if d.values != nil {
		d.values.Release()
		d.values = nil
	}
	if d.offsets != nil {
		d.offsets.Release()
		d.offsets = nil
	}
}
