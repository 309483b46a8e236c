package native

import (
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/arloliu/colchunk/compress"
	"github.com/arloliu/colchunk/encoding"
	"github.com/arloliu/colchunk/endian"
	"github.com/arloliu/colchunk/errs"
	"github.com/arloliu/colchunk/format"
	"github.com/arloliu/colchunk/internal/hash"
	"github.com/arloliu/colchunk/internal/options"
	"github.com/arloliu/colchunk/internal/pool"
	"github.com/arloliu/colchunk/section"
)

// DefaultMaxRowsPerRowGroup is the row group size used when WithMaxRowsPerRowGroup is not given.
const DefaultMaxRowsPerRowGroup = 64 * 1024

// WriterOption configures a Writer.
type WriterOption = options.Option[*Writer]

// WithCompression sets the default compression of every column.
func WithCompression(c format.CompressionType) WriterOption {
	return options.New(func(w *Writer) error {
		if !c.Valid() {
			return fmt.Errorf("%w: %s", errs.ErrInvalidCompression, c)
		}
		w.header.Flag.Compression = uint8(c)

		return nil
	})
}

// WithColumnCompression overrides the compression of one column.
func WithColumnCompression(name string, c format.CompressionType) WriterOption {
	return options.New(func(w *Writer) error {
		if !c.Valid() {
			return fmt.Errorf("%w: %s", errs.ErrInvalidCompression, c)
		}
		w.columnCompression[name] = c

		return nil
	})
}

// WithMaxRowsPerRowGroup sets the number of rows after which a row group is closed.
func WithMaxRowsPerRowGroup(n int) WriterOption {
	return options.New(func(w *Writer) error {
		if n <= 0 {
			return fmt.Errorf("max rows per row group must be positive, got %d", n)
		}
		w.maxRows = n

		return nil
	})
}

// WithBigEndian writes the footer and payloads big-endian.
func WithBigEndian() WriterOption {
	return options.NoError(func(w *Writer) {
		w.header.Flag.WithBigEndian()
	})
}

// WithoutChecksums omits column chunk checksums.
func WithoutChecksums() WriterOption {
	return options.NoError(func(w *Writer) {
		w.header.Flag.SetChecksums(false)
	})
}

// Writer produces CCT files from arrow record batches.
//
// Rows are buffered per column until a row group is full, then every column is
// compressed and written. Close must be called to write the footer and trailer.
// A Writer is not safe for concurrent use.
type Writer struct {
	w       io.Writer
	schema  *arrow.Schema
	header  section.Header
	engine  endian.EndianEngine
	maxRows int

	columnCompression map[string]format.CompressionType
	encoders          []encoding.ColumnEncoder
	codecs            []compress.Codec
	stats             []compress.CompressionStats

	footer  section.Footer
	pending int
	offset  uint64
	err     error
	closed  bool
}

// NewWriter writes the header to w and returns a Writer for schema.
//
// Parameters:
//   - w: Destination
//   - schema: Table schema; every field must be Int64, Float64, String or Boolean
//   - opts: Writer options
//
// Returns:
//   - *Writer: Writer ready for Write
//   - error: errs.ErrUnsupportedDataType, option or write errors
func NewWriter(w io.Writer, schema *arrow.Schema, opts ...WriterOption) (*Writer, error) {
	if schema.NumFields() > section.MaxColumns {
		return nil, fmt.Errorf("%w: %d columns exceed %d", errs.ErrUnsupportedDataType, schema.NumFields(), section.MaxColumns)
	}

	wr := &Writer{
		w:                 w,
		schema:            schema,
		header:            section.NewHeader(schema.NumFields()),
		maxRows:           DefaultMaxRowsPerRowGroup,
		columnCompression: make(map[string]format.CompressionType),
	}
	if err := options.Apply(wr, opts...); err != nil {
		return nil, err
	}
	wr.engine = wr.header.Flag.Engine()

	seen := make(map[uint64]string, schema.NumFields())
	for _, f := range schema.Fields() {
		id := hash.ColumnID(f.Name)
		if _, dup := seen[id]; dup {
			wr.finishEncoders()
			return nil, fmt.Errorf("%w: duplicate column %q", errs.ErrSchemaMismatch, f.Name)
		}
		seen[id] = f.Name

		typ, ok := format.ColumnTypeOf(f.Type)
		if !ok {
			wr.finishEncoders()
			return nil, fmt.Errorf("%w: column %q has type %s", errs.ErrUnsupportedDataType, f.Name, f.Type)
		}
		comp := wr.header.Flag.DefaultCompression()
		if c, ok := wr.columnCompression[f.Name]; ok {
			comp = c
		}
		codec, err := compress.CreateCodec(comp, f.Name)
		if err != nil {
			wr.finishEncoders()
			return nil, err
		}
		enc, err := encoding.NewEncoder(typ, wr.engine)
		if err != nil {
			wr.finishEncoders()
			return nil, err
		}

		wr.footer.Columns = append(wr.footer.Columns, section.ColumnSpec{Name: f.Name, Type: typ, Compression: comp})
		wr.codecs = append(wr.codecs, codec)
		wr.stats = append(wr.stats, compress.CompressionStats{Algorithm: comp})
		wr.encoders = append(wr.encoders, enc)
	}

	if err := wr.write(wr.header.Bytes()); err != nil {
		wr.finishEncoders()
		return nil, err
	}

	return wr, nil
}

// Write appends the rows of rec, closing row groups as they fill up.
func (w *Writer) Write(rec arrow.RecordBatch) error {
	if w.closed {
		return errs.ErrWriterClosed
	}
	if w.err != nil {
		return w.err
	}
	if !rec.Schema().Equal(w.schema) {
		return fmt.Errorf("%w: got %s", errs.ErrSchemaMismatch, rec.Schema())
	}

	total := rec.NumRows()
	for start := int64(0); start < total; {
		n := min(int64(w.maxRows-w.pending), total-start)
		part, sliced := rec, start != 0 || n != total
		if sliced {
			part = rec.NewSlice(start, start+n)
		}
		for c, enc := range w.encoders {
			if err := enc.Append(part.Column(c)); err != nil {
				if sliced {
					part.Release()
				}
				w.err = fmt.Errorf("column %q: %w", w.footer.Columns[c].Name, err)

				return w.err
			}
		}
		if sliced {
			part.Release()
		}
		w.pending += int(n)
		start += n

		if w.pending == w.maxRows {
			if err := w.Flush(); err != nil {
				return err
			}
		}
	}

	return nil
}

// Flush closes the current row group if it holds any rows.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	if w.pending == 0 {
		return nil
	}

	rg := section.RowGroupMeta{
		Entry:  section.RowGroupEntry{Offset: w.offset, Rows: uint64(w.pending)}, //nolint: gosec
		Chunks: make([]section.ColumnChunkEntry, len(w.encoders)),
	}
	for c, enc := range w.encoders {
		raw := enc.Bytes()
		payload, err := w.codecs[c].Compress(raw)
		if err != nil {
			w.err = fmt.Errorf("compress column %q: %w", w.footer.Columns[c].Name, err)
			return w.err
		}

		chunk := section.ColumnChunkEntry{
			Offset:         w.offset,
			CompressedSize: uint32(len(payload)), //nolint: gosec
			RawSize:        uint32(len(raw)),     //nolint: gosec
			Rows:           uint32(w.pending),    //nolint: gosec
		}
		if w.header.Flag.HasChecksums() {
			chunk.Checksum = hash.Checksum(payload)
		}
		if err := w.write(payload); err != nil {
			return err
		}
		rg.Chunks[c] = chunk
		w.stats[c].OriginalSize += int64(len(raw))
		w.stats[c].CompressedSize += int64(len(payload))
		enc.Reset()
	}
	rg.Entry.Length = w.offset - rg.Entry.Offset

	w.footer.RowGroups = append(w.footer.RowGroups, rg)
	w.pending = 0

	return nil
}

// Close flushes pending rows and writes the footer and trailer.
// It does not close the underlying io.Writer.
func (w *Writer) Close() error {
	if w.closed {
		return errs.ErrWriterClosed
	}
	defer func() {
		w.closed = true
		w.finishEncoders()
	}()

	if err := w.Flush(); err != nil {
		return err
	}

	footer := w.footer.Bytes(w.engine)
	trailer := section.Trailer{
		FooterOffset:   w.offset,
		FooterLength:   uint32(len(footer)), //nolint: gosec
		FooterChecksum: hash.Checksum(footer),
	}

	tail := pool.GetFileBuffer()
	defer pool.PutFileBuffer(tail)
	tail.MustWrite(footer)
	tail.MustWrite(trailer.Bytes())

	n, err := tail.WriteTo(w.w)
	w.offset += uint64(n) //nolint: gosec
	if err != nil {
		w.err = fmt.Errorf("write footer: %w", err)
		return w.err
	}

	return nil
}

// RowGroups returns the number of row groups written so far.
func (w *Writer) RowGroups() int {
	return len(w.footer.RowGroups)
}

// CompressionStats returns the raw and stored payload bytes of every column so far.
func (w *Writer) CompressionStats() []compress.CompressionStats {
	return append([]compress.CompressionStats(nil), w.stats...)
}

// Size returns the number of bytes written so far.
func (w *Writer) Size() int64 {
	return int64(w.offset) //nolint: gosec
}

func (w *Writer) write(p []byte) error {
	n, err := w.w.Write(p)
	w.offset += uint64(n) //nolint: gosec
	if err != nil {
		w.err = fmt.Errorf("write: %w", err)
		return w.err
	}

	return nil
}

func (w *Writer) finishEncoders() {
	for _, enc := range w.encoders {
		enc.Finish()
	}
	w.encoders = nil
}
