package pq

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/metadata"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/arloliu/colchunk/engine"
	"github.com/arloliu/colchunk/errs"
	"github.com/arloliu/colchunk/internal/options"
	"github.com/arloliu/colchunk/source"
)

// Name is the engine name of the Parquet format.
const Name = "parquet"

// maxDictHeaderSize pads column chunks of files written by parquet-mr before
// 1.2.9, whose total compressed size omits the dictionary page header.
const maxDictHeaderSize = 100

// Option configures an Engine.
type Option = options.Option[*Engine]

// WithParallelColumns decodes the selected columns of a batch concurrently.
func WithParallelColumns(enabled bool) Option {
	return options.NoError(func(e *Engine) {
		e.parallel = enabled
	})
}

// Engine decodes Parquet files.
type Engine struct {
	parallel bool
}

var _ engine.Engine = (*Engine)(nil)

// NewEngine creates a Parquet engine.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{}
	if err := options.Apply(e, opts...); err != nil {
		return nil, err
	}

	return e, nil
}

func (e *Engine) Name() string { return Name }

// Open parses the footer of src. Page buffers of later decodes are taken from host.
func (e *Engine) Open(ctx context.Context, src source.Source, host memory.Allocator) (engine.File, error) {
	rdr := &trackingReader{SectionReader: source.ReaderAt(ctx, src)}

	pf, err := file.NewParquetReader(rdr, file.WithReadProps(parquet.NewReaderProperties(host)))
	if err != nil {
		if rdr.err != nil {
			return nil, rdr.err
		}

		return nil, errs.NewCorruptMetadata(-1, -1, "invalid parquet footer", err)
	}

	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, host)
	if err != nil {
		return nil, errs.NewCorruptMetadata(-1, -1, "unsupported parquet schema", err)
	}
	schema, err := fr.Schema()
	if err != nil {
		return nil, errs.NewCorruptMetadata(-1, -1, "unsupported parquet schema", err)
	}

	f := &File{
		meta:     pf.MetaData(),
		schema:   arrow.NewSchema(schema.Fields(), nil),
		leaves:   fieldLeaves(fr.Manifest),
		size:     src.Size(),
		host:     host,
		parallel: e.parallel,
	}
	if err := f.describe(); err != nil {
		return nil, err
	}

	return f, nil
}

// fieldLeaves maps each top-level field to the parquet leaf columns it is built from.
func fieldLeaves(manifest *pqarrow.SchemaManifest) [][]int {
	leaves := make([][]int, len(manifest.Fields))
	for i := range manifest.Fields {
		leaves[i] = collectLeaves(&manifest.Fields[i], nil)
	}

	return leaves
}

func collectLeaves(f *pqarrow.SchemaField, out []int) []int {
	if f.IsLeaf() {
		return append(out, f.ColIndex)
	}
	for i := range f.Children {
		out = collectLeaves(&f.Children[i], out)
	}

	return out
}

// needsPadding reports whether column chunk lengths must be padded for old writers.
func needsPadding(meta *metadata.FileMetaData) bool {
	return meta.WriterVersion().LessThan(metadata.Parquet816FixedVersion)
}

// trackingReader records the first I/O failure of the source, so a failed
// footer parse can be told apart from a corrupt footer.
type trackingReader struct {
	*source.SectionReader
	err *errs.SourceReadError
}

func (r *trackingReader) ReadAt(p []byte, off int64) (int, error) {
	n, err := r.SectionReader.ReadAt(p, off)
	if err != nil && r.err == nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		r.err = &errs.SourceReadError{Source: -1, Offset: off, Length: int64(len(p)), Err: err}
	}

	return n, err
}

var errNotStaged = fmt.Errorf("%w: read outside the staged row groups", errs.ErrTruncatedPayload)
