package native

import (
	"context"
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/arloliu/colchunk/engine"
	"github.com/arloliu/colchunk/errs"
	"github.com/arloliu/colchunk/internal/hash"
	"github.com/arloliu/colchunk/internal/options"
	"github.com/arloliu/colchunk/section"
	"github.com/arloliu/colchunk/source"
)

// Name is the engine name of the CCT format.
const Name = "cct"

// Option configures an Engine.
type Option = options.Option[*Engine]

// WithDecodeConcurrency bounds the number of columns decoded in parallel.
// Values below 1 mean one column at a time.
func WithDecodeConcurrency(n int) Option {
	return options.NoError(func(e *Engine) {
		e.concurrency = max(n, 1)
	})
}

// WithChecksumVerification enables or disables column chunk checksum checks.
// Verification is on by default and only applies to files written with checksums.
func WithChecksumVerification(enabled bool) Option {
	return options.NoError(func(e *Engine) {
		e.verify = enabled
	})
}

// Engine decodes CCT files.
type Engine struct {
	concurrency int
	verify      bool
}

var _ engine.Engine = (*Engine)(nil)

// NewEngine creates a CCT engine.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{concurrency: 4, verify: true}
	if err := options.Apply(e, opts...); err != nil {
		return nil, err
	}

	return e, nil
}

func (e *Engine) Name() string { return Name }

// Open reads the header, trailer and footer of src.
//
// Metadata problems are returned as *errs.CorruptMetadataError and I/O failures
// as *errs.SourceReadError, both with Source set to -1 since the engine does not
// know the source ordinal.
func (e *Engine) Open(ctx context.Context, src source.Source, host memory.Allocator) (engine.File, error) {
	size := src.Size()
	if size < section.MinFileSize {
		return nil, errs.NewCorruptMetadata(-1, -1, fmt.Sprintf("file of %d bytes is too small", size), errs.ErrInvalidFooter)
	}

	var header section.Header
	err := readSection(ctx, src, host, 0, section.HeaderSize, func(data []byte) error {
		return header.Parse(data)
	})
	if err != nil {
		return nil, asMetadataError(err, "header")
	}

	var trailer section.Trailer
	err = readSection(ctx, src, host, size-section.TrailerSize, section.TrailerSize, func(data []byte) error {
		return trailer.Parse(data)
	})
	if err != nil {
		return nil, asMetadataError(err, "trailer")
	}
	if trailer.FooterOffset < section.HeaderSize || trailer.FooterEnd() != uint64(size-section.TrailerSize) { //nolint: gosec
		return nil, errs.NewCorruptMetadata(-1, -1,
			fmt.Sprintf("footer [%d, +%d) does not end at the trailer of a %d byte file",
				trailer.FooterOffset, trailer.FooterLength, size), errs.ErrInvalidFooter)
	}

	var footer section.Footer
	err = readSection(ctx, src, host, int64(trailer.FooterOffset), int(trailer.FooterLength), func(data []byte) error { //nolint: gosec
		if !hash.Verify(data, trailer.FooterChecksum) {
			return fmt.Errorf("%w: footer", errs.ErrChecksumMismatch)
		}
		parsed, perr := section.ParseFooter(data, header.Flag.Engine(), int(header.ColumnCount))
		footer = parsed

		return perr
	})
	if err != nil {
		return nil, asMetadataError(err, "footer")
	}

	f, err := newFile(header, footer, int64(trailer.FooterOffset), host, e) //nolint: gosec
	if err != nil {
		return nil, err
	}

	return f, nil
}

// readSection reads [off, off+n) of src into a host buffer, hands it to parse
// and frees the buffer.
func readSection(ctx context.Context, src source.Source, host memory.Allocator, off int64, n int, parse func([]byte) error) error {
	buf := host.Allocate(n)
	defer host.Free(buf)

	if _, err := src.ReadAt(ctx, buf[:n], off); err != nil {
		return &errs.SourceReadError{Source: -1, Offset: off, Length: int64(n), Err: err}
	}

	return parse(buf[:n])
}

func asMetadataError(err error, what string) error {
	var readErr *errs.SourceReadError
	if errors.As(err, &readErr) {
		return err
	}

	return errs.NewCorruptMetadata(-1, -1, "invalid "+what, err)
}

func schemaOf(footer section.Footer) *arrow.Schema {
	fields := make([]arrow.Field, len(footer.Columns))
	for i, c := range footer.Columns {
		fields[i] = arrow.Field{Name: c.Name, Type: c.Type.ArrowType()}
	}

	return arrow.NewSchema(fields, nil)
}
