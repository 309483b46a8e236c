// Package fixture generates deterministic arrow tables and encodes them as CCT
// or Parquet files. It backs the package tests and the generate command.
package fixture

import (
	"bytes"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/arloliu/colchunk/engine/native"
)

// Spec describes a generated table.
type Spec struct {
	Rows int
	// Columns cycles through int64, float64, string and bool columns named c0, c1, ...
	Columns int
	// RowsPerGroup is the row group size of encoded files.
	RowsPerGroup int
	// BatchRows splits the generated table into record batches of this size; 0 means one batch.
	BatchRows int
	Seed      uint64
}

var cycle = []arrow.DataType{
	arrow.PrimitiveTypes.Int64,
	arrow.PrimitiveTypes.Float64,
	arrow.BinaryTypes.String,
	arrow.FixedWidthTypes.Boolean,
}

// Schema returns the schema of a table with n columns.
func Schema(n int) *arrow.Schema {
	fields := make([]arrow.Field, n)
	for i := range fields {
		fields[i] = arrow.Field{Name: fmt.Sprintf("c%d", i), Type: cycle[i%len(cycle)]}
	}

	return arrow.NewSchema(fields, nil)
}

// Records generates the table as record batches. Values depend only on the
// row number, the column and the seed, so any row range can be regenerated.
func Records(spec Spec, mem memory.Allocator) []arrow.RecordBatch {
	schema := Schema(spec.Columns)
	batch := spec.BatchRows
	if batch <= 0 {
		batch = max(spec.Rows, 1)
	}

	var recs []arrow.RecordBatch
	for start := 0; start < spec.Rows || (spec.Rows == 0 && len(recs) == 0); start += batch {
		n := min(batch, spec.Rows-start)
		recs = append(recs, Range(spec, schema, mem, start, n))
	}

	return recs
}

// Range generates rows [start, start+n) of the table.
func Range(spec Spec, schema *arrow.Schema, mem memory.Allocator, start, n int) arrow.RecordBatch {
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	for c := range schema.NumFields() {
		for row := start; row < start+n; row++ {
			v := Value(spec.Seed, c, row)
			switch fb := b.Field(c).(type) {
			case *array.Int64Builder:
				fb.Append(int64(v))
			case *array.Float64Builder:
				fb.Append(float64(v%100_000) / 8)
			case *array.StringBuilder:
				fb.Append(fmt.Sprintf("r%d-%x", row, v%4096))
			case *array.BooleanBuilder:
				fb.Append(v%3 == 0)
			}
		}
	}

	return b.NewRecordBatch()
}

// Value is the pseudo-random source of cell (row, column). It does not depend on
// the batch layout, so any row range can be regenerated.
func Value(seed uint64, column, row int) uint64 {
	x := seed ^ uint64(column)<<40 ^ uint64(row) //nolint: gosec
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31

	return x
}

// WriteCCT encodes the table as a CCT file into w.
func WriteCCT(w io.Writer, spec Spec, mem memory.Allocator, opts ...native.WriterOption) error {
	if spec.RowsPerGroup > 0 {
		opts = append([]native.WriterOption{native.WithMaxRowsPerRowGroup(spec.RowsPerGroup)}, opts...)
	}
	wr, err := native.NewWriter(w, Schema(spec.Columns), opts...)
	if err != nil {
		return err
	}

	for _, rec := range Records(spec, mem) {
		err := wr.Write(rec)
		rec.Release()
		if err != nil {
			return err
		}
	}

	return wr.Close()
}

// CCT returns the table encoded as a CCT file.
func CCT(spec Spec, mem memory.Allocator, opts ...native.WriterOption) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCCT(&buf, spec, mem, opts...); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// WriteParquet encodes the table as a Parquet file into w with snappy compressed pages.
func WriteParquet(w io.Writer, spec Spec, mem memory.Allocator) error {
	props := []parquet.WriterProperty{
		parquet.WithCompression(compress.Codecs.Snappy),
		parquet.WithAllocator(mem),
	}
	if spec.RowsPerGroup > 0 {
		props = append(props, parquet.WithMaxRowGroupLength(int64(spec.RowsPerGroup)))
	}

	fw, err := pqarrow.NewFileWriter(Schema(spec.Columns), w,
		parquet.NewWriterProperties(props...),
		pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema()))
	if err != nil {
		return err
	}

	for _, rec := range Records(spec, mem) {
		err := fw.Write(rec)
		rec.Release()
		if err != nil {
			_ = fw.Close()
			return err
		}
	}

	return fw.Close()
}

// Parquet returns the table encoded as a Parquet file.
func Parquet(spec Spec, mem memory.Allocator) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteParquet(&buf, spec, mem); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
