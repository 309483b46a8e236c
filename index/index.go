// Package index builds the ordered, read-only row-group index of a reader session.
//
// The index is built once from the metadata of every source and validated as a
// whole; inconsistent metadata fails construction with *errs.CorruptMetadataError
// and no partial index is returned.
package index

import (
	"fmt"
	"iter"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/arloliu/colchunk/errs"
)

// SourceRowGroups is the metadata of one opened source.
type SourceRowGroups struct {
	// Size is the source size in bytes.
	Size int64
	// Schema is the file schema of the source.
	Schema *arrow.Schema
	// RowGroups lists the row groups in file order. Ordinal and Source are
	// assigned by Build.
	RowGroups []RowGroupDescriptor
}

// Index is the ordered row-group sequence across all sources.
type Index struct {
	schema      *arrow.Schema
	rowGroups   []RowGroupDescriptor
	numRows     int64
	encodedSize int64
}

// Build validates and concatenates the row groups of every source, in source order.
//
// Parameters:
//   - sources: Metadata per source; at least one is required
//
// Returns:
//   - *Index: Read-only index
//   - error: errs.ErrNoSources or *errs.CorruptMetadataError
func Build(sources []SourceRowGroups) (*Index, error) {
	if len(sources) == 0 {
		return nil, errs.ErrNoSources
	}

	idx := &Index{schema: sources[0].Schema}
	if idx.schema == nil {
		return nil, errs.NewCorruptMetadata(0, -1, "missing schema", nil)
	}
	numCols := idx.schema.NumFields()

	for s, src := range sources {
		if src.Schema == nil || !src.Schema.Equal(idx.schema) {
			return nil, errs.NewCorruptMetadata(s, -1,
				fmt.Sprintf("schema %v differs from source 0 schema %v", src.Schema, idx.schema), errs.ErrSchemaMismatch)
		}
		idx.encodedSize += src.Size

		for local, rg := range src.RowGroups {
			if err := validate(rg, src.Size, numCols); err != nil {
				return nil, errs.NewCorruptMetadata(s, local, err.Error(), nil)
			}

			rg.Ordinal = len(idx.rowGroups)
			rg.Source = s
			rg.Local = local
			idx.rowGroups = append(idx.rowGroups, rg)
			idx.numRows += rg.NumRows
		}
	}

	return idx, nil
}

func validate(rg RowGroupDescriptor, size int64, numCols int) error {
	switch {
	case rg.NumRows < 0:
		return fmt.Errorf("negative row count %d", rg.NumRows)
	case rg.Offset < 0 || rg.Length < 0:
		return fmt.Errorf("negative byte range [%d, +%d)", rg.Offset, rg.Length)
	case rg.Offset > size || rg.Length > size-rg.Offset:
		return fmt.Errorf("byte range [%d, +%d) exceeds source size %d", rg.Offset, rg.Length, size)
	case len(rg.ColumnDecodedSizes) != numCols:
		return fmt.Errorf("%d decoded sizes for %d columns", len(rg.ColumnDecodedSizes), numCols)
	case rg.ColumnCompressedSizes != nil && len(rg.ColumnCompressedSizes) != numCols:
		return fmt.Errorf("%d compressed sizes for %d columns", len(rg.ColumnCompressedSizes), numCols)
	case rg.ColumnRowCounts != nil && len(rg.ColumnRowCounts) != numCols:
		return fmt.Errorf("%d column row counts for %d columns", len(rg.ColumnRowCounts), numCols)
	}

	for c, n := range rg.ColumnRowCounts {
		if n != UnknownRows && n != rg.NumRows {
			return fmt.Errorf("column %d has %d rows, row group has %d", c, n, rg.NumRows)
		}
	}
	for c, n := range rg.ColumnDecodedSizes {
		if n < 0 {
			return fmt.Errorf("column %d has negative decoded size %d", c, n)
		}
	}

	return nil
}

// Schema returns the common schema of every source.
func (x *Index) Schema() *arrow.Schema { return x.schema }

// Len returns the number of row groups.
func (x *Index) Len() int { return len(x.rowGroups) }

// At returns the i-th row group in read order.
func (x *Index) At(i int) RowGroupDescriptor { return x.rowGroups[i] }

// All iterates the row groups in read order.
func (x *Index) All() iter.Seq2[int, RowGroupDescriptor] {
	return func(yield func(int, RowGroupDescriptor) bool) {
		for i, rg := range x.rowGroups {
			if !yield(i, rg) {
				return
			}
		}
	}
}

// NumRows returns the total row count.
func (x *Index) NumRows() int64 { return x.numRows }

// EncodedSize returns the summed size of every source.
func (x *Index) EncodedSize() int64 { return x.encodedSize }

// EstimatedDecodedSize sums the decoded size estimate of every row group for the given columns.
func (x *Index) EstimatedDecodedSize(columns []int) int64 {
	var total int64
	for _, rg := range x.rowGroups {
		total += rg.EstimatedDecodedSize(columns)
	}

	return total
}

// ColumnIndices resolves column names to schema positions, preserving the given order.
// A nil names slice returns nil, meaning every column.
func (x *Index) ColumnIndices(names []string) ([]int, error) {
	if names == nil {
		return nil, nil
	}

	out := make([]int, 0, len(names))
	for _, name := range names {
		found := x.schema.FieldIndices(name)
		if len(found) == 0 {
			return nil, fmt.Errorf("%w: %q", errs.ErrUnknownColumn, name)
		}
		out = append(out, found[0])
	}

	return out, nil
}

// ProjectSchema returns the schema restricted to columns, or the full schema for nil.
func (x *Index) ProjectSchema(columns []int) *arrow.Schema {
	if columns == nil {
		return x.schema
	}

	fields := make([]arrow.Field, len(columns))
	for i, c := range columns {
		fields[i] = x.schema.Field(c)
	}
	md := x.schema.Metadata()

	return arrow.NewSchema(fields, &md)
}
