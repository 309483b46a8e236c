package index

import (
	"errors"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/colchunk/errs"
)

var testSchema = arrow.NewSchema([]arrow.Field{
	{Name: "id", Type: arrow.PrimitiveTypes.Int64},
	{Name: "name", Type: arrow.BinaryTypes.String},
}, nil)

func rowGroup(offset, length, rows int64) RowGroupDescriptor {
	return RowGroupDescriptor{
		NumRows:               rows,
		Offset:                offset,
		Length:                length,
		ColumnDecodedSizes:    []int64{rows * 8, rows * 10},
		ColumnCompressedSizes: []int64{length / 2, length - length/2},
		ColumnRowCounts:       []int64{rows, UnknownRows},
	}
}

func TestBuild_MultiSource(t *testing.T) {
	idx, err := Build([]SourceRowGroups{
		{Size: 1000, Schema: testSchema, RowGroups: []RowGroupDescriptor{rowGroup(8, 100, 10), rowGroup(108, 200, 20)}},
		{Size: 500, Schema: testSchema, RowGroups: []RowGroupDescriptor{rowGroup(8, 300, 30)}},
	})
	require.NoError(t, err)

	require.Equal(t, 3, idx.Len())
	require.Equal(t, int64(60), idx.NumRows())
	require.Equal(t, int64(1500), idx.EncodedSize())
	require.True(t, idx.Schema().Equal(testSchema))

	want := []struct{ ordinal, source, local int }{{0, 0, 0}, {1, 0, 1}, {2, 1, 0}}
	for i, rg := range idx.All() {
		require.Equal(t, want[i].ordinal, rg.Ordinal)
		require.Equal(t, want[i].source, rg.Source)
		require.Equal(t, want[i].local, rg.Local)
	}
	require.Equal(t, int64(300), idx.At(2).EncodedSize())
	require.Equal(t, int64(308), idx.At(2).End())
}

func TestBuild_EmptySource(t *testing.T) {
	idx, err := Build([]SourceRowGroups{{Size: 32, Schema: testSchema}})
	require.NoError(t, err)
	require.Zero(t, idx.Len())
	require.Zero(t, idx.NumRows())
}

func TestBuild_Errors(t *testing.T) {
	other := arrow.NewSchema([]arrow.Field{{Name: "x", Type: arrow.PrimitiveTypes.Float64}}, nil)

	tests := []struct {
		name     string
		sources  []SourceRowGroups
		source   int
		rowGroup int
	}{
		{
			name: "column row count mismatch",
			sources: []SourceRowGroups{{Size: 1000, Schema: testSchema, RowGroups: []RowGroupDescriptor{
				func() RowGroupDescriptor { rg := rowGroup(8, 100, 10); rg.ColumnRowCounts = []int64{10, 9}; return rg }(),
			}}},
			rowGroup: 0,
		},
		{
			name: "range past end",
			sources: []SourceRowGroups{{Size: 100, Schema: testSchema, RowGroups: []RowGroupDescriptor{
				rowGroup(8, 50, 5), rowGroup(58, 50, 5),
			}}},
			rowGroup: 1,
		},
		{
			name: "range wraps past int64",
			sources: []SourceRowGroups{{Size: 100, Schema: testSchema, RowGroups: []RowGroupDescriptor{
				rowGroup(1<<62, 1<<62, 5),
			}}},
		},
		{
			name: "negative offset",
			sources: []SourceRowGroups{{Size: 100, Schema: testSchema, RowGroups: []RowGroupDescriptor{
				rowGroup(-1, 10, 1),
			}}},
		},
		{
			name: "negative rows",
			sources: []SourceRowGroups{{Size: 100, Schema: testSchema, RowGroups: []RowGroupDescriptor{
				func() RowGroupDescriptor { rg := rowGroup(8, 10, 1); rg.NumRows = -1; rg.ColumnRowCounts = nil; return rg }(),
			}}},
		},
		{
			name: "size arity",
			sources: []SourceRowGroups{{Size: 100, Schema: testSchema, RowGroups: []RowGroupDescriptor{
				func() RowGroupDescriptor { rg := rowGroup(8, 10, 1); rg.ColumnDecodedSizes = []int64{8}; return rg }(),
			}}},
		},
		{
			name: "schema mismatch",
			sources: []SourceRowGroups{
				{Size: 100, Schema: testSchema},
				{Size: 100, Schema: other},
			},
			source:   1,
			rowGroup: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, err := Build(tt.sources)
			require.Nil(t, idx)
			require.ErrorIs(t, err, errs.ErrCorruptMetadata)

			var cme *errs.CorruptMetadataError
			require.True(t, errors.As(err, &cme))
			require.Equal(t, tt.source, cme.Source)
			require.Equal(t, tt.rowGroup, cme.RowGroup)
		})
	}

	_, err := Build(nil)
	require.ErrorIs(t, err, errs.ErrNoSources)
}

func TestEstimatedDecodedSize(t *testing.T) {
	rg := rowGroup(8, 100, 10)
	require.Equal(t, int64(180), rg.EstimatedDecodedSize(nil))
	require.Equal(t, int64(80), rg.EstimatedDecodedSize([]int{0}))
	require.Equal(t, int64(100), rg.EstimatedDecodedSize([]int{1}))

	idx, err := Build([]SourceRowGroups{{Size: 1000, Schema: testSchema, RowGroups: []RowGroupDescriptor{rg, rowGroup(108, 10, 1)}}})
	require.NoError(t, err)
	require.Equal(t, int64(198), idx.EstimatedDecodedSize(nil))
}

func TestColumnIndices(t *testing.T) {
	idx, err := Build([]SourceRowGroups{{Size: 10, Schema: testSchema}})
	require.NoError(t, err)

	cols, err := idx.ColumnIndices([]string{"name", "id"})
	require.NoError(t, err)
	require.Equal(t, []int{1, 0}, cols)

	cols, err = idx.ColumnIndices(nil)
	require.NoError(t, err)
	require.Nil(t, cols)

	_, err = idx.ColumnIndices([]string{"missing"})
	require.ErrorIs(t, err, errs.ErrUnknownColumn)

	projected := idx.ProjectSchema([]int{1})
	require.Equal(t, 1, projected.NumFields())
	require.Equal(t, "name", projected.Field(0).Name)
	require.Same(t, testSchema, idx.ProjectSchema(nil))
}

func TestSameExtent(t *testing.T) {
	rg := rowGroup(8, 100, 10)
	rg.Local = 3
	require.True(t, rg.SameExtent(rowGroup(8, 100, 10)))
	require.False(t, rg.SameExtent(rowGroup(9, 100, 10)))
	require.False(t, rg.SameExtent(rowGroup(8, 99, 10)))
	require.False(t, rg.SameExtent(rowGroup(8, 100, 11)))
}
