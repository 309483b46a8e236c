package index

// UnknownRows marks a column row count the file metadata does not record.
const UnknownRows = -1

// RowGroupDescriptor is the immutable metadata of one row group.
//
// Offset and Length are absolute within the owning source and cover every column
// chunk of the row group, so a single ranged read stages it.
type RowGroupDescriptor struct {
	// Ordinal is the position in the read order across all sources.
	Ordinal int
	// Source is the ordinal of the source holding the row group.
	Source int
	// Local is the position of the row group inside its source.
	Local int

	NumRows int64
	Offset  int64
	Length  int64

	// ColumnDecodedSizes estimates the decoded arrow bytes per schema column.
	ColumnDecodedSizes []int64
	// ColumnCompressedSizes is the stored size per schema column.
	ColumnCompressedSizes []int64
	// ColumnRowCounts is the row count per schema column, UnknownRows when absent.
	ColumnRowCounts []int64
}

// EstimatedDecodedSize sums the decoded size estimates of the given columns.
// A nil columns slice selects every column.
func (d RowGroupDescriptor) EstimatedDecodedSize(columns []int) int64 {
	var total int64
	if columns == nil {
		for _, s := range d.ColumnDecodedSizes {
			total += s
		}

		return total
	}

	for _, c := range columns {
		total += d.ColumnDecodedSizes[c]
	}

	return total
}

// EncodedSize returns the bytes staged for this row group.
func (d RowGroupDescriptor) EncodedSize() int64 {
	return d.Length
}

// End returns the offset one past the last encoded byte.
func (d RowGroupDescriptor) End() int64 {
	return d.Offset + d.Length
}

// SameExtent reports whether d and o describe the same rows at the same bytes.
func (d RowGroupDescriptor) SameExtent(o RowGroupDescriptor) bool {
	return d.Offset == o.Offset && d.Length == o.Length && d.NumRows == o.NumRows
}
