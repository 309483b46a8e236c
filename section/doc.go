// Package section defines the binary layout of columnar chunk table (CCT) files.
//
// A CCT file stores a table as a sequence of row groups. Each row group holds one
// compressed payload per column; the footer at the end of the file carries the
// schema and the directory of row groups and column chunks:
//
//	+---------------------+  offset 0
//	| Header (8 bytes)    |  magic, version, byte order, default compression, column count
//	+---------------------+
//	| Row group 0         |  column 0 payload | column 1 payload | ...
//	| Row group 1         |
//	| ...                 |
//	+---------------------+
//	| Footer              |  schema, RowGroupEntry + ColumnChunkEntry per column, per row group
//	+---------------------+
//	| Trailer (24 bytes)  |  footer offset, length, xxhash64, "CCT1"
//	+---------------------+
//
// Header and trailer are always little-endian so a reader can locate the footer
// before it knows the byte order. The footer and payloads use the byte order
// recorded in bit 0 of the header flag options.
//
// Row group payloads are contiguous, so a single ranged read of
// [RowGroupEntry.Offset, RowGroupEntry.End()) fetches everything needed to
// decode the row group.
package section
