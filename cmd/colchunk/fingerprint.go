package main

import (
	"encoding/binary"
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/arloliu/colchunk/internal/hash"
)

// fingerprint hashes record values row by row, so the digest of a table does
// not depend on how it was split into chunks.
type fingerprint struct {
	d   hash.Digest
	buf []byte
}

func newFingerprint() *fingerprint {
	return &fingerprint{d: hash.NewDigest(), buf: make([]byte, 0, 64)}
}

func (f *fingerprint) add(rec arrow.RecordBatch) {
	cols := rec.Columns()
	for row := range int(rec.NumRows()) {
		for _, col := range cols {
			f.buf = appendValue(f.buf[:0], col, row)
			f.d.Write(f.buf)
		}
	}
}

func (f *fingerprint) sum() uint64 {
	return f.d.Sum64()
}

func appendValue(b []byte, col arrow.Array, row int) []byte {
	if col.IsNull(row) {
		return append(b, 0xff)
	}

	switch a := col.(type) {
	case *array.Int64:
		return binary.LittleEndian.AppendUint64(b, uint64(a.Value(row))) //nolint: gosec
	case *array.Float64:
		return binary.LittleEndian.AppendUint64(b, math.Float64bits(a.Value(row)))
	case *array.Boolean:
		if a.Value(row) {
			return append(b, 1)
		}
		return append(b, 0)
	case *array.String:
		s := a.Value(row)
		b = binary.AppendUvarint(b, uint64(len(s)))
		return append(b, s...)
	default:
		s := col.ValueStr(row)
		b = binary.AppendUvarint(b, uint64(len(s)))
		return append(b, s...)
	}
}
