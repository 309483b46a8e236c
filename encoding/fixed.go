package encoding

import (
	"fmt"
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/arloliu/colchunk/endian"
	"github.com/arloliu/colchunk/errs"
	"github.com/arloliu/colchunk/format"
	"github.com/arloliu/colchunk/internal/pool"
)

// FixedEncoder encodes Int64 and Float64 columns as 8 bytes per row.
type FixedEncoder struct {
	buf    *pool.ByteBuffer
	engine endian.EndianEngine
	typ    format.ColumnType
	count  int
}

var _ ColumnEncoder = (*FixedEncoder)(nil)

// NewFixedEncoder creates an encoder for an 8-byte column type.
func NewFixedEncoder(typ format.ColumnType, engine endian.EndianEngine) *FixedEncoder {
	return &FixedEncoder{
		buf:    pool.GetChunkBuffer(),
		engine: engine,
		typ:    typ,
	}
}

// Append encodes arr, which must be an *array.Int64 or *array.Float64 matching the encoder type.
func (e *FixedEncoder) Append(arr arrow.Array) error {
	if e.buf == nil {
		panic("encoder already finished - cannot append after Finish()")
	}
	if err := checkNoNulls(arr); err != nil {
		return err
	}

	n := arr.Len()
	switch a := arr.(type) {
	case *array.Int64:
		if e.typ != format.TypeInt64 {
			return fmt.Errorf("%w: %s into %s column", errs.ErrSchemaMismatch, arr.DataType(), e.typ)
		}
		dst := e.buf.ExtendOrGrow(n * 8)
		for i, v := range a.Int64Values() {
			e.engine.PutUint64(dst[i*8:], uint64(v)) //nolint: gosec
		}
	case *array.Float64:
		if e.typ != format.TypeFloat64 {
			return fmt.Errorf("%w: %s into %s column", errs.ErrSchemaMismatch, arr.DataType(), e.typ)
		}
		dst := e.buf.ExtendOrGrow(n * 8)
		for i, v := range a.Float64Values() {
			e.engine.PutUint64(dst[i*8:], math.Float64bits(v))
		}
	default:
		return fmt.Errorf("%w: %s", errs.ErrUnsupportedDataType, arr.DataType())
	}
	e.count += n

	return nil
}

func (e *FixedEncoder) Bytes() []byte { return e.buf.Bytes() }

func (e *FixedEncoder) Len() int { return e.count }

func (e *FixedEncoder) Size() int { return e.buf.Len() }

func (e *FixedEncoder) Reset() {
	e.buf.Reset()
	e.count = 0
}

func (e *FixedEncoder) Finish() {
	if e.buf != nil {
		pool.PutChunkBuffer(e.buf)
		e.buf = nil
	}
}
