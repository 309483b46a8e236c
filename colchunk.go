// Package colchunk reads columnar table files in memory-bounded chunks.
//
// A reader session decodes a table as a finite sequence of arrow record batches
// while enforcing two independent budgets:
//
//   - the output limit bounds the estimated decoded size of one chunk
//   - the input limit bounds the encoded bytes staged ahead of decode
//
// Row groups are never split, so a single row group larger than a budget is
// still read (and reported as a budget overrun). Rows come out in file order.
//
// # Basic Usage
//
// Reading a Parquet or CCT file chunk by chunk:
//
//	import "github.com/arloliu/colchunk"
//
//	r, _ := colchunk.OpenFiles(ctx, []string{"events.parquet"},
//	    reader.WithBudget(64<<20, 256<<20))
//	defer r.Close()
//
//	for r.HasNext() {
//	    chunk, err := r.ReadChunk(ctx)
//	    if err != nil {
//	        return err
//	    }
//	    process(chunk.Record)
//	    chunk.Release()
//	}
//
// Reading a whole table in one call:
//
//	tbl, _ := colchunk.ReadTable(ctx, []source.Info{{Kind: source.KindHostBuffer, Data: data}})
//	defer tbl.Release()
//
// # Package Structure
//
// This package wraps the reader package with engine detection and source
// ownership. For custom engines, allocators or sources use reader.New directly.
package colchunk

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/arloliu/colchunk/engine"
	"github.com/arloliu/colchunk/engine/native"
	"github.com/arloliu/colchunk/engine/pq"
	"github.com/arloliu/colchunk/errs"
	"github.com/arloliu/colchunk/reader"
	"github.com/arloliu/colchunk/section"
	"github.com/arloliu/colchunk/source"
)

const parquetMagic uint32 = 0x31524150 // "PAR1" little-endian

// ErrUnknownFormat is returned when a source is neither a CCT nor a Parquet file.
var ErrUnknownFormat = errors.New("unknown file format")

// Reader is a chunked reader that owns its sources.
type Reader struct {
	*reader.Reader
	sources []source.Source
}

// Close closes the reader and every source.
func (r *Reader) Close() error {
	return errors.Join(r.Reader.Close(), source.CloseAll(r.sources))
}

// DetectEngine picks the engine for src from its trailing magic bytes.
func DetectEngine(ctx context.Context, src source.Source) (engine.Engine, error) {
	if src.Size() < 4 {
		return nil, fmt.Errorf("%w: %d byte source", ErrUnknownFormat, src.Size())
	}

	var tail [4]byte
	if _, err := src.ReadAt(ctx, tail[:], src.Size()-4); err != nil {
		return nil, &errs.SourceReadError{Source: 0, Offset: src.Size() - 4, Length: 4, Err: err}
	}

	switch binary.LittleEndian.Uint32(tail[:]) {
	case section.TrailerMagic:
		return native.NewEngine()
	case parquetMagic:
		return pq.NewEngine()
	default:
		return nil, fmt.Errorf("%w: trailing bytes %q", ErrUnknownFormat, tail[:])
	}
}

// Open opens every source described by infos and starts a reader session over them.
// The engine is detected from the first source.
func Open(ctx context.Context, infos []source.Info, opts ...reader.Option) (*Reader, error) {
	if len(infos) == 0 {
		return nil, errs.ErrNoSources
	}

	srcs, err := source.OpenAll(ctx, infos)
	if err != nil {
		return nil, err
	}

	eng, err := DetectEngine(ctx, srcs[0])
	if err != nil {
		_ = source.CloseAll(srcs)
		return nil, err
	}

	r, err := reader.New(ctx, eng, srcs, opts...)
	if err != nil {
		_ = source.CloseAll(srcs)
		return nil, err
	}

	return &Reader{Reader: r, sources: srcs}, nil
}

// OpenFiles is Open over local file paths.
func OpenFiles(ctx context.Context, paths []string, opts ...reader.Option) (*Reader, error) {
	infos := make([]source.Info, len(paths))
	for i, p := range paths {
		infos[i] = source.Info{Kind: source.KindFilePath, Path: p}
	}

	return Open(ctx, infos, opts...)
}

// ReadTable reads every row of infos into one table with unbounded budgets.
// Options are applied after the unbounded budget, so a budget option still
// turns the read into several chunks.
func ReadTable(ctx context.Context, infos []source.Info, opts ...reader.Option) (arrow.Table, error) {
	r, err := Open(ctx, infos, append([]reader.Option{reader.WithBudget(0, 0)}, opts...)...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	return r.ReadAll(ctx)
}
