// Package native implements the CCT (columnar chunk table) file format: a Writer
// producing files from arrow record batches and an engine.Engine decoding them.
//
// # File Layout
//
//	+--------------------------------------------------+
//	| Header (8 bytes, little-endian)                  |
//	+--------------------------------------------------+
//	| Row group 0: column 0 payload, column 1 payload  |
//	| Row group 1: ...                                 |
//	+--------------------------------------------------+
//	| Footer: schema, row group and column chunk index |
//	+--------------------------------------------------+
//	| Trailer (24 bytes): footer offset, length,       |
//	| xxHash64 of the footer, magic "CCT1"             |
//	+--------------------------------------------------+
//
// The payloads of a row group are contiguous, so a row group is staged with one
// ranged read. Each column chunk is encoded by the encoding package, compressed
// with the column's codec and optionally checksummed with xxHash64.
//
// # Usage
//
//	w, err := native.NewWriter(f, schema, native.WithMaxRowsPerRowGroup(4096))
//	if err != nil {
//	    return err
//	}
//	for _, rec := range records {
//	    if err := w.Write(rec); err != nil {
//	        return err
//	    }
//	}
//	return w.Close()
package native
