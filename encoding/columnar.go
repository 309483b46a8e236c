package encoding

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/arloliu/colchunk/endian"
	"github.com/arloliu/colchunk/errs"
	"github.com/arloliu/colchunk/format"
)

// ColumnEncoder accumulates the encoded payload of one column chunk.
type ColumnEncoder interface {
	// Append encodes every row of arr.
	Append(arr arrow.Array) error

	// Bytes returns the encoded payload.
	// The returned slice is valid until the next Append or Finish.
	Bytes() []byte

	// Len returns the number of encoded rows.
	Len() int

	// Size returns the encoded payload size in bytes.
	Size() int

	// Reset drops the accumulated rows but keeps the buffer for the next row group.
	Reset()

	// Finish returns the buffer to the pool. The encoder is unusable afterwards.
	Finish()
}

// NewEncoder creates the encoder for a column type.
func NewEncoder(typ format.ColumnType, engine endian.EndianEngine) (ColumnEncoder, error) {
	switch typ {
	case format.TypeInt64, format.TypeFloat64:
		return NewFixedEncoder(typ, engine), nil
	case format.TypeString:
		return NewVarStringEncoder(), nil
	case format.TypeBool:
		return NewBoolEncoder(), nil
	default:
		return nil, fmt.Errorf("%w: 0x%02x", errs.ErrInvalidColumnType, uint8(typ))
	}
}

// Decode decodes the payload of one column chunk into an arrow array of rows rows.
//
// Parameters:
//   - typ: Column type from the file schema
//   - engine: Byte order of the file
//   - raw: Decompressed payload
//   - rows: Row count recorded for the row group
//   - mem: Allocator that owns the returned array buffers
//
// Returns:
//   - arrow.Array: Decoded array; the caller must Release it
//   - error: errs.ErrTruncatedPayload if raw does not hold exactly rows values
func Decode(typ format.ColumnType, engine endian.EndianEngine, raw []byte, rows int, mem memory.Allocator) (arrow.Array, error) {
	d, err := NewColumnDecoder(typ, engine, rows, len(raw), mem)
	if err != nil {
		return nil, err
	}
	defer d.Release()

	if err := d.Append(raw, rows); err != nil {
		return nil, err
	}

	return d.Finish()
}

// DecodedSize estimates the bytes of arrow buffers produced by decoding a column chunk.
//
// The estimate never undercounts: string payloads include their length prefixes.
func DecodedSize(typ format.ColumnType, rows int64, rawSize int64) int64 {
	switch typ {
	case format.TypeInt64, format.TypeFloat64:
		return rows * 8
	case format.TypeString:
		return rawSize + 4*(rows+1)
	case format.TypeBool:
		return (rows + 7) / 8
	default:
		return rawSize
	}
}

func checkNoNulls(arr arrow.Array) error {
	if arr.NullN() > 0 {
		return fmt.Errorf("%w: %d nulls in %s array", errs.ErrNullsNotSupported, arr.NullN(), arr.DataType())
	}

	return nil
}
