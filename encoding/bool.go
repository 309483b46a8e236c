package encoding

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/bitutil"

	"github.com/arloliu/colchunk/errs"
	"github.com/arloliu/colchunk/internal/pool"
)

// BoolEncoder bit-packs Bool columns, least significant bit first.
//
// Rows are packed continuously across Append calls; the payload of a row group
// holds exactly (rows+7)/8 bytes.
type BoolEncoder struct {
	buf   *pool.ByteBuffer
	count int
}

var _ ColumnEncoder = (*BoolEncoder)(nil)

func NewBoolEncoder() *BoolEncoder {
	return &BoolEncoder{buf: pool.GetChunkBuffer()}
}

// Append encodes arr, which must be an *array.Boolean.
func (e *BoolEncoder) Append(arr arrow.Array) error {
	if e.buf == nil {
		panic("encoder already finished - cannot append after Finish()")
	}
	if err := checkNoNulls(arr); err != nil {
		return err
	}

	a, ok := arr.(*array.Boolean)
	if !ok {
		return fmt.Errorf("%w: %s", errs.ErrUnsupportedDataType, arr.DataType())
	}

	need := int(bitutil.BytesForBits(int64(e.count+a.Len()))) - e.buf.Len()
	if need > 0 {
		clear(e.buf.ExtendOrGrow(need))
	}
	bits := e.buf.Bytes()
	for i := range a.Len() {
		if a.Value(i) {
			bitutil.SetBit(bits, e.count+i)
		}
	}
	e.count += a.Len()

	return nil
}

func (e *BoolEncoder) Bytes() []byte { return e.buf.Bytes() }

func (e *BoolEncoder) Len() int { return e.count }

func (e *BoolEncoder) Size() int { return e.buf.Len() }

func (e *BoolEncoder) Reset() {
	e.buf.Reset()
	e.count = 0
}

func (e *BoolEncoder) Finish() {
	if e.buf != nil {
		pool.PutChunkBuffer(e.buf)
		e.buf = nil
	}
}
