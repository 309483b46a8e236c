package encoding

import (
	"encoding/binary"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/arloliu/colchunk/errs"
	"github.com/arloliu/colchunk/internal/pool"
)

// VarStringEncoder encodes String columns.
//
// Each row is encoded as:
//   - uvarint: byte length
//   - N bytes: UTF-8 data
type VarStringEncoder struct {
	buf   *pool.ByteBuffer
	count int
}

var _ ColumnEncoder = (*VarStringEncoder)(nil)

// NewVarStringEncoder creates a String column encoder backed by a pooled buffer.
func NewVarStringEncoder() *VarStringEncoder {
	return &VarStringEncoder{buf: pool.GetChunkBuffer()}
}

// Append encodes arr, which must be an *array.String.
//
// The buffer is grown once for the whole array: value bytes plus the worst case
// uvarint prefix per row.
func (e *VarStringEncoder) Append(arr arrow.Array) error {
	if e.buf == nil {
		panic("encoder already finished - cannot append after Finish()")
	}
	if err := checkNoNulls(arr); err != nil {
		return err
	}

	a, ok := arr.(*array.String)
	if !ok {
		return fmt.Errorf("%w: %s", errs.ErrUnsupportedDataType, arr.DataType())
	}
	if a.Len() == 0 {
		return nil
	}

	offsets := a.ValueOffsets()
	total := int(offsets[len(offsets)-1] - offsets[0])
	e.buf.Grow(total + a.Len()*binary.MaxVarintLen32)

	for i := range a.Len() {
		e.WriteString(a.Value(i))
	}

	return nil
}

// WriteString encodes a single value.
func (e *VarStringEncoder) WriteString(s string) {
	e.buf.B = binary.AppendUvarint(e.buf.B, uint64(len(s)))
	e.buf.B = append(e.buf.B, s...)
	e.count++
}

func (e *VarStringEncoder) Bytes() []byte { return e.buf.Bytes() }

func (e *VarStringEncoder) Len() int { return e.count }

func (e *VarStringEncoder) Size() int { return e.buf.Len() }

func (e *VarStringEncoder) Reset() {
	e.buf.Reset()
	e.count = 0
}

func (e *VarStringEncoder) Finish() {
	if e.buf != nil {
		pool.PutChunkBuffer(e.buf)
		e.buf = nil
	}
}
