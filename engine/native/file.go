package native

import (
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"golang.org/x/sync/errgroup"

	"github.com/arloliu/colchunk/compress"
	"github.com/arloliu/colchunk/encoding"
	"github.com/arloliu/colchunk/endian"
	"github.com/arloliu/colchunk/engine"
	"github.com/arloliu/colchunk/errs"
	"github.com/arloliu/colchunk/format"
	"github.com/arloliu/colchunk/index"
	"github.com/arloliu/colchunk/internal/hash"
	"github.com/arloliu/colchunk/section"
)

// File is an opened CCT file.
type File struct {
	schema    *arrow.Schema
	footer    section.Footer
	order     endian.EndianEngine
	checksums bool
	codecs    []compress.Codec
	rowGroups []index.RowGroupDescriptor

	host        memory.Allocator
	concurrency int
	verify      bool
}

var _ engine.File = (*File)(nil)

func newFile(header section.Header, footer section.Footer, footerOffset int64, host memory.Allocator, e *Engine) (*File, error) {
	f := &File{
		schema:      schemaOf(footer),
		footer:      footer,
		order:       header.Flag.Engine(),
		checksums:   header.Flag.HasChecksums(),
		codecs:      make([]compress.Codec, len(footer.Columns)),
		rowGroups:   make([]index.RowGroupDescriptor, len(footer.RowGroups)),
		host:        host,
		concurrency: e.concurrency,
		verify:      e.verify,
	}

	for c, col := range footer.Columns {
		codec, err := compress.GetCodec(col.Compression)
		if err != nil {
			return nil, errs.NewCorruptMetadata(-1, -1, fmt.Sprintf("column %q", col.Name), err)
		}
		f.codecs[c] = codec
	}

	next := int64(section.HeaderSize)
	for i, rg := range footer.RowGroups {
		desc, err := describe(rg, footer.Columns)
		if err != nil {
			return nil, errs.NewCorruptMetadata(-1, i, err.Error(), nil)
		}
		if desc.Offset < next || desc.Offset > footerOffset || desc.Length > footerOffset-desc.Offset {
			return nil, errs.NewCorruptMetadata(-1, i,
				fmt.Sprintf("byte range [%d, +%d) overlaps the previous row group or the footer", desc.Offset, desc.Length), nil)
		}
		next = desc.End()
		desc.Local = i
		f.rowGroups[i] = desc
	}

	return f, nil
}

// describe converts a footer row group into a descriptor and checks that every
// column chunk lies inside the row group range.
func describe(rg section.RowGroupMeta, columns []section.ColumnSpec) (index.RowGroupDescriptor, error) {
	desc := index.RowGroupDescriptor{
		NumRows:               int64(rg.Entry.Rows),   //nolint: gosec
		Offset:                int64(rg.Entry.Offset), //nolint: gosec
		Length:                int64(rg.Entry.Length), //nolint: gosec
		ColumnDecodedSizes:    make([]int64, len(columns)),
		ColumnCompressedSizes: make([]int64, len(columns)),
		ColumnRowCounts:       make([]int64, len(columns)),
	}
	if desc.NumRows < 0 || desc.Offset < 0 || desc.Length < 0 {
		return desc, fmt.Errorf("row group entry out of range: %+v", rg.Entry)
	}

	for c, chunk := range rg.Chunks {
		if chunk.Offset < rg.Entry.Offset || chunk.Offset > rg.Entry.End() ||
			uint64(chunk.CompressedSize) > rg.Entry.End()-chunk.Offset {
			return desc, fmt.Errorf("column %q chunk [%d, +%d) outside row group [%d, +%d)",
				columns[c].Name, chunk.Offset, chunk.CompressedSize, rg.Entry.Offset, rg.Entry.Length)
		}
		if columns[c].Compression == format.CompressionNone && chunk.CompressedSize != chunk.RawSize {
			return desc, fmt.Errorf("uncompressed column %q stores %d bytes, raw size %d",
				columns[c].Name, chunk.CompressedSize, chunk.RawSize)
		}

		desc.ColumnRowCounts[c] = int64(chunk.Rows)
		desc.ColumnCompressedSizes[c] = int64(chunk.CompressedSize)
		desc.ColumnDecodedSizes[c] = encoding.DecodedSize(columns[c].Type, int64(chunk.Rows), int64(chunk.RawSize))
	}

	return desc, nil
}

func (f *File) Schema() *arrow.Schema { return f.schema }

// RowGroups returns a copy of the row group descriptors.
func (f *File) RowGroups() []index.RowGroupDescriptor {
	return append([]index.RowGroupDescriptor(nil), f.rowGroups...)
}

// Decode decodes the selected columns of a batch of consecutive row groups.
//
// Columns are decoded in parallel, each into one buffer sized for the whole
// batch. Compressed payloads are inflated into host scratch memory that is freed
// before Decode returns.
func (f *File) Decode(ctx context.Context, batch []engine.Staged, columns []int, mem memory.Allocator) ([]arrow.Array, error) {
	if len(batch) == 0 {
		return nil, errs.ErrEmptyStagedBatch
	}
	if columns == nil {
		columns = make([]int, len(f.footer.Columns))
		for i := range columns {
			columns[i] = i
		}
	}

	var totalRows int64
	for _, s := range batch {
		if s.Desc.Local < 0 || s.Desc.Local >= len(f.footer.RowGroups) {
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
		totalRows += s.Desc.NumRows
	}
	for _, c := range columns {
		if c < 0 || c >= len(f.footer.Columns) {
			return nil, fmt.Errorf("%w: column %d", errs.ErrUnknownColumn, c)
		}
	}

	results := make([]arrow.Array, len(columns))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for i, c := range columns {
		g.Go(func() error {
			arr, err := f.decodeColumn(gctx, batch, c, int(totalRows), mem)
			if err != nil {
				return fmt.Errorf("column %q: %w", f.footer.Columns[c].Name, err)
			}
			results[i] = arr

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		engine.ReleaseAll(results)
		return nil, err
	}

	return results, nil
}

func (f *File) decodeColumn(ctx context.Context, batch []engine.Staged, c int, rows int, mem memory.Allocator) (arrow.Array, error) {
	spec := f.footer.Columns[c]

	var totalRaw, maxRaw int
	for _, s := range batch {
		raw := int(f.footer.RowGroups[s.Desc.Local].Chunks[c].RawSize)
		totalRaw += raw
		maxRaw = max(maxRaw, raw)
	}

	dec, err := encoding.NewColumnDecoder(spec.Type, f.order, rows, totalRaw, mem)
	if err != nil {
		return nil, err
	}
	defer dec.Release()

	var scratch []byte
	if spec.Compression != format.CompressionNone && maxRaw > 0 {
		scratch = f.host.Allocate(maxRaw)
		defer f.host.Free(scratch)
	}

	for _, s := range batch {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		chunk := f.footer.RowGroups[s.Desc.Local].Chunks[c]
		rel := chunk.Offset - uint64(s.Desc.Offset) //nolint: gosec
		payload := s.Data[rel : rel+uint64(chunk.CompressedSize)]

		if f.verify && f.checksums && !hash.Verify(payload, chunk.Checksum) {
			return nil, fmt.Errorf("%w: row group %d", errs.ErrChecksumMismatch, s.Desc.Local)
		}

		raw := payload
		if spec.Compression != format.CompressionNone {
			raw, err = f.codecs[c].DecompressInto(scratch[:chunk.RawSize], payload)
			if err != nil {
				return nil, fmt.Errorf("row group %d: %w", s.Desc.Local, err)
			}
		}

		if err := dec.Append(raw, int(chunk.Rows)); err != nil {
			return nil, fmt.Errorf("row group %d: %w", s.Desc.Local, err)
		}
	}

	return dec.Finish()
}

// Close is a no-op; the file holds no resources beyond its parsed footer.
func (f *File) Close() error { return nil }
