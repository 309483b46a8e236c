package pq

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/metadata"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/arloliu/colchunk/engine"
	"github.com/arloliu/colchunk/errs"
	"github.com/arloliu/colchunk/index"
)

// File is an opened Parquet file.
type File struct {
	meta      *metadata.FileMetaData
	schema    *arrow.Schema
	leaves    [][]int
	size      int64
	rowGroups []index.RowGroupDescriptor

	host     memory.Allocator
	parallel bool
}

var _ engine.File = (*File)(nil)

func (f *File) describe() error {
	pad := needsPadding(f.meta)
	f.rowGroups = make([]index.RowGroupDescriptor, f.meta.NumRowGroups())

	for i := range f.rowGroups {
		rg := f.meta.RowGroup(i)
		desc := index.RowGroupDescriptor{
			NumRows:               rg.NumRows(),
			Offset:                -1,
			ColumnDecodedSizes:    make([]int64, len(f.leaves)),
			ColumnCompressedSizes: make([]int64, len(f.leaves)),
			ColumnRowCounts:       make([]int64, len(f.leaves)),
		}

		var end int64
		for field, leaves := range f.leaves {
			var uncompressed int64
			desc.ColumnRowCounts[field] = index.UnknownRows

			for _, leaf := range leaves {
				cc, err := rg.ColumnChunk(leaf)
				if err != nil {
					return errs.NewCorruptMetadata(-1, i, fmt.Sprintf("column chunk %d", leaf), err)
				}

				start := cc.DataPageOffset()
				if cc.HasDictionaryPage() && cc.DictionaryPageOffset() > 0 && cc.DictionaryPageOffset() < start {
					start = cc.DictionaryPageOffset()
				}
				length := cc.TotalCompressedSize()
				if start < 0 || length < 0 || start > f.size || length > f.size-start {
					return errs.NewCorruptMetadata(-1, i,
						fmt.Sprintf("column chunk %d has byte range [%d, +%d)", leaf, start, length), nil)
				}
				if pad {
					length += min(maxDictHeaderSize, max(f.size-(start+length), 0))
				}

				if desc.Offset < 0 || start < desc.Offset {
					desc.Offset = start
				}
				end = max(end, start+length)

				uncompressed += cc.TotalUncompressedSize()
				desc.ColumnCompressedSizes[field] += cc.TotalCompressedSize()
				if len(leaves) == 1 && f.meta.Schema.Column(leaf).MaxRepetitionLevel() == 0 {
					desc.ColumnRowCounts[field] = cc.NumValues()
				}
			}

			desc.ColumnDecodedSizes[field] = decodedSize(f.schema.Field(field).Type, rg.NumRows(), uncompressed)
		}

		if desc.Offset < 0 {
			desc.Offset = 0
		}
		desc.Length = end - desc.Offset
		desc.Local = i
		f.rowGroups[i] = desc
	}

	return nil
}

// decodedSize estimates the arrow bytes of rows values of dt. Variable-width and
// nested types fall back to the uncompressed parquet size.
func decodedSize(dt arrow.DataType, rows, uncompressed int64) int64 {
	validity := (rows + 7) / 8

	switch t := dt.(type) {
	case *arrow.BooleanType:
		return 2 * validity
	case arrow.FixedWidthDataType:
		return rows*int64(t.BitWidth())/8 + validity
	case arrow.BinaryDataType:
		offsets := int64(4)
		if arrow.IsLargeBinaryLike(dt.ID()) {
			offsets = 8
		}

		return uncompressed + offsets*(rows+1) + validity
	default:
		return uncompressed + validity
	}
}

func (f *File) Schema() *arrow.Schema { return f.schema }

// RowGroups returns a copy of the row group descriptors.
func (f *File) RowGroups() []index.RowGroupDescriptor {
	return append([]index.RowGroupDescriptor(nil), f.rowGroups...)
}

// Decode reads the selected columns of the staged row groups with pqarrow.
// Arrays are allocated from mem, page buffers from the host allocator.
func (f *File) Decode(ctx context.Context, batch []engine.Staged, columns []int, mem memory.Allocator) ([]arrow.Array, error) {
	if len(batch) == 0 {
		return nil, errs.ErrEmptyStagedBatch
	}
	if columns == nil {
		columns = make([]int, len(f.leaves))
		for i := range columns {
			columns[i] = i
		}
	}

	var leaves []int
	for _, c := range columns {
		if c < 0 || c >= len(f.leaves) {
			return nil, fmt.Errorf("%w: column %d", errs.ErrUnknownColumn, c)
		}
		leaves = append(leaves, f.leaves[c]...)
	}

	rowGroups := make([]int, len(batch))
	for i, s := range batch {
		if s.Desc.Local < 0 || s.Desc.Local >= len(f.rowGroups) {
			return nil, fmt.Errorf("%w: row group %d not in file", errs.ErrInvalidIndexEntry, s.Desc.Local)
		}
		if want := f.rowGroups[s.Desc.Local]; !s.Desc.SameExtent(want) {
			return nil, fmt.Errorf("%w: row group %d staged as [%d, +%d) with %d rows, file has [%d, +%d) with %d rows",
				errs.ErrInvalidIndexEntry, s.Desc.Local, s.Desc.Offset, s.Desc.Length, s.Desc.NumRows,
				want.Offset, want.Length, want.NumRows)
		}
		if int64(len(s.Data)) != s.Desc.Length {
			return nil, fmt.Errorf("%w: row group %d staged %d of %d bytes",
				errs.ErrTruncatedPayload, s.Desc.Local, len(s.Data), s.Desc.Length)
		}
		rowGroups[i] = s.Desc.Local
	}

	staged := &stagedReader{batch: batch, size: f.size}
	pf, err := file.NewParquetReader(staged,
		file.WithReadProps(parquet.NewReaderProperties(f.host)),
		file.WithMetadata(f.meta))
	if err != nil {
		return nil, err
	}
	defer pf.Close()

	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{Parallel: f.parallel}, mem)
	if err != nil {
		return nil, err
	}

	tbl, err := fr.ReadRowGroups(ctx, leaves, rowGroups)
	if err != nil {
		if staged.miss != nil {
			return nil, staged.miss
		}

		return nil, err
	}
	defer tbl.Release()

	if int(tbl.NumCols()) != len(columns) {
		return nil, fmt.Errorf("%w: read %d columns, want %d", errs.ErrSchemaMismatch, tbl.NumCols(), len(columns))
	}

	out := make([]arrow.Array, len(columns))
	for i := range out {
		arr, err := flatten(tbl.Column(i).Data(), mem)
		if err != nil {
			engine.ReleaseAll(out)
			return nil, err
		}
		out[i] = arr
	}

	return out, nil
}

// flatten returns a chunked column as one array, retaining it when there is a single chunk.
func flatten(chunked *arrow.Chunked, mem memory.Allocator) (arrow.Array, error) {
	chunks := chunked.Chunks()
	switch len(chunks) {
	case 0:
		return array.MakeArrayOfNull(mem, chunked.DataType(), 0), nil
	case 1:
		chunks[0].Retain()
		return chunks[0], nil
	default:
		return array.Concatenate(chunks, mem)
	}
}

// Close is a no-op; the parsed footer is released with the File.
func (f *File) Close() error { return nil }

// stagedReader serves reads from staged row groups. Reads outside them fail.
type stagedReader struct {
	batch []engine.Staged
	size  int64
	pos   int64

	mu   sync.Mutex
	miss error
}

func (r *stagedReader) ReadAt(p []byte, off int64) (int, error) {
	end := off + int64(len(p))
	for _, s := range r.batch {
		if off >= s.Desc.Offset && end <= s.Desc.End() {
			return copy(p, s.Data[off-s.Desc.Offset:]), nil
		}
	}

	err := fmt.Errorf("%w [%d, %d)", errNotStaged, off, end)
	r.mu.Lock()
	if r.miss == nil {
		r.miss = err
	}
	r.mu.Unlock()

	return 0, err
}

func (r *stagedReader) Read(p []byte) (int, error) {
	n, err := r.ReadAt(p, r.pos)
	r.pos += int64(n)

	return n, err
}

func (r *stagedReader) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset += r.pos
	case io.SeekEnd:
		offset += r.size
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if offset < 0 {
		return 0, fmt.Errorf("negative position %d", offset)
	}
	r.pos = offset

	return offset, nil
}
