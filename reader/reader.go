package reader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/arloliu/colchunk/engine"
	"github.com/arloliu/colchunk/errs"
	"github.com/arloliu/colchunk/index"
	"github.com/arloliu/colchunk/internal/options"
	"github.com/arloliu/colchunk/memres"
	"github.com/arloliu/colchunk/source"
)

// Chunk is one decoded table fragment. The caller owns it and must call Release.
type Chunk struct {
	Record arrow.RecordBatch
	// NumRows is the number of rows of Record.
	NumRows int64
	// RowGroups is the number of row groups decoded for the chunk.
	RowGroups int
	// FirstRowGroup is the global ordinal of the first decoded row group.
	FirstRowGroup int
	// EstimatedBytes is the planned decoded size of the selected columns.
	EstimatedBytes int64
	// DecodedBytes is the device memory actually allocated while decoding.
	DecodedBytes int64
}

// Release releases the record.
func (c *Chunk) Release() {
	if c.Record != nil {
		c.Record.Release()
		c.Record = nil
	}
}

// ReaderStats is the telemetry of a reader session.
type ReaderStats struct {
	ChunksEmitted    int
	RowsEmitted      int64
	RowGroupsEmitted int
	// PeakDeviceBytes is the peak device memory allocated through the reader.
	PeakDeviceBytes int64
	// PeakHostBytes is the peak host memory of staging and decode scratch.
	PeakHostBytes int64
	// PeakStagedBytes is the largest amount of encoded bytes staged at once.
	PeakStagedBytes int64
	// EncodedSize is the summed size of every source.
	EncodedSize int64
	// BudgetOverruns counts row groups read although they exceed a budget alone.
	BudgetOverruns int
}

// Reader is a chunked reader over one or more encoded sources sharing one schema.
type Reader struct {
	files   []engine.File
	idx     *index.Index
	schema  *arrow.Schema
	columns []int

	budget  Budget
	planner Planner
	host    *memres.Tracker
	device  *memres.Tracker
	logger  *slog.Logger
	tel     *telemetry

	plan   *readPlan
	stager *stager
	state  State
	err    error
	closed bool
	stats  ReaderStats
}

// New opens every source with eng, builds the row-group index and plans the read.
//
// The sources stay owned by the caller and must outlive the Reader.
//
// Parameters:
//   - ctx: Context for metadata reads
//   - eng: Format engine
//   - sources: Sources read in order as one logical table
//   - opts: Reader options
//
// Returns:
//   - *Reader: Reader positioned before the first chunk
//   - error: *errs.CorruptMetadataError, *errs.SourceReadError, errs.ErrNoSources,
//     errs.ErrUnknownColumn or option errors
func New(ctx context.Context, eng engine.Engine, sources []source.Source, opts ...Option) (*Reader, error) {
	s := defaultSettings()
	if err := options.Apply(s, opts...); err != nil {
		return nil, err
	}
	if err := s.budget.validate(); err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, errs.ErrNoSources
	}

	if s.host == nil {
		s.host = memres.HostAllocator()
	}
	if s.device == nil {
		s.device = memres.DeviceAllocator()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	tel, err := newTelemetry(s.meter, eng.Name())
	if err != nil {
		return nil, err
	}

	r := &Reader{
		budget:  s.budget,
		planner: s.planner,
		host:    memres.NewTracker(s.host),
		device:  memres.NewTracker(s.device),
		logger:  s.logger.With(slog.String("engine", eng.Name())),
		tel:     tel,
	}

	metas := make([]index.SourceRowGroups, len(sources))
	for i, src := range sources {
		f, err := eng.Open(ctx, src, r.host)
		if err != nil {
			_ = r.closeFiles()
			return nil, withSource(err, i)
		}
		r.files = append(r.files, f)
		metas[i] = index.SourceRowGroups{Size: src.Size(), Schema: f.Schema(), RowGroups: f.RowGroups()}
	}

	if r.idx, err = index.Build(metas); err != nil {
		_ = r.closeFiles()
		return nil, err
	}
	if s.columns != nil {
		if r.columns, err = r.idx.ColumnIndices(s.columns); err != nil {
			_ = r.closeFiles()
			return nil, err
		}
	}
	r.schema = r.idx.ProjectSchema(r.columns)

	r.plan = newReadPlan(r.idx, s.skipRows, s.numRows)
	r.stager = &stager{
		sources: sources,
		host:    r.host,
		limit:   s.budget.InputLimit,
		plan:    r.plan,
		logger:  r.logger,
		onWarn:  r.overrun,
		onStage: tel.stage,
	}
	r.stats.EncodedSize = r.idx.EncodedSize()
	if r.plan.empty() {
		r.state = StateExhausted
	}

	return r, nil
}

// withSource fills in the source ordinal of engine errors, which do not know it.
func withSource(err error, src int) error {
	var cm *errs.CorruptMetadataError
	if errors.As(err, &cm) {
		cm.Source = src
		return err
	}

	var re *errs.SourceReadError
	if errors.As(err, &re) {
		re.Source = src
		return err
	}

	return fmt.Errorf("open source %d: %w", src, err)
}

// Schema returns the schema of emitted chunks, restricted to the selected columns.
func (r *Reader) Schema() *arrow.Schema { return r.schema }

// NumRows returns the number of rows not emitted yet.
func (r *Reader) NumRows() int64 { return r.plan.rows }

// State returns the scheduler state.
func (r *Reader) State() State { return r.state }

// Index returns the row-group index of the session.
func (r *Reader) Index() *index.Index { return r.idx }

// HasNext reports whether ReadChunk has rows to return. It has no side effects.
func (r *Reader) HasNext() bool {
	return !r.closed && r.state != StateExhausted
}

// ReadChunk decodes and returns the next chunk.
//
// A chunk covers one or more whole row groups (sliced to the row range at the
// edges). After any error the reader must be discarded: further calls return
// errs.ErrReaderPoisoned wrapping the first error.
func (r *Reader) ReadChunk(ctx context.Context) (*Chunk, error) {
	switch {
	case r.closed:
		return nil, errs.ErrReaderClosed
	case r.err != nil:
		return nil, fmt.Errorf("%w: %w", errs.ErrReaderPoisoned, r.err)
	case r.state == StateExhausted:
		return nil, &errs.ExhaustedReaderError{RowsEmitted: r.stats.RowsEmitted, ChunksEmitted: r.stats.ChunksEmitted}
	}

	chunk, err := r.emit(ctx)
	if err != nil {
		r.err = err
		r.stager.releaseAll()

		return nil, err
	}

	return chunk, nil
}

// emit plans, stages and decodes one batch, then advances the plan.
func (r *Reader) emit(ctx context.Context) (*Chunk, error) {
	k := r.planNextBatch()

	first := r.plan.descs[0]
	if est := first.EstimatedDecodedSize(r.columns); r.budget.OutputLimit > 0 && est > r.budget.OutputLimit {
		r.logger.Warn("row group exceeds output limit",
			slog.Int("rowGroup", first.Ordinal),
			slog.Int("source", first.Source),
			slog.Int64("estimated", est),
			slog.Int64("limit", r.budget.OutputLimit))
		r.overrun(ctx, &errs.BudgetUnsatisfiableWarning{
			Budget: "output", RowGroup: first.Ordinal, Size: est, Limit: r.budget.OutputLimit,
		})
	}

	staged, err := r.stager.ensureStaged(ctx, k)
	if err != nil {
		return nil, err
	}
	n := min(k, staged)
	batch := r.stager.front(n)

	var estimated int64
	for _, s := range batch {
		estimated += s.Desc.EstimatedDecodedSize(r.columns)
	}

	before := r.device.Current()
	cols, err := r.decode(ctx, batch)
	if err != nil {
		return nil, err
	}
	decoded := r.device.Current() - before

	rec, rows := r.assemble(cols, r.plan.windows[:n])

	r.stager.release(n)
	r.plan.truncate(n)
	r.state = StateEmitted
	if r.plan.empty() {
		r.state = StateExhausted
	}

	r.stats.ChunksEmitted++
	r.stats.RowsEmitted += rows
	r.stats.RowGroupsEmitted += n
	r.stats.PeakStagedBytes = max(r.stats.PeakStagedBytes, r.stager.peak)
	r.tel.chunk(ctx, rows)

	return &Chunk{
		Record:         rec,
		NumRows:        rows,
		RowGroups:      n,
		FirstRowGroup:  batch[0].Desc.Ordinal,
		EstimatedBytes: estimated,
		DecodedBytes:   decoded,
	}, nil
}

// decode decodes a batch, one engine call per run of row groups from the same
// source. Runs are concatenated column by column.
func (r *Reader) decode(ctx context.Context, batch []engine.Staged) ([]arrow.Array, error) {
	var runs [][]arrow.Array
	defer func() {
		for _, run := range runs {
			engine.ReleaseAll(run)
		}
	}()

	for start := 0; start < len(batch); {
		end := start + 1
		for end < len(batch) && batch[end].Desc.Source == batch[start].Desc.Source {
			end++
		}

		src := batch[start].Desc.Source
		cols, err := r.files[src].Decode(ctx, batch[start:end], r.columns, r.device)
		if err != nil {
			return nil, fmt.Errorf("decode row groups %d-%d of source %d: %w",
				batch[start].Desc.Local, batch[end-1].Desc.Local, src, err)
		}
		runs = append(runs, cols)
		start = end
	}

	if len(runs) == 1 {
		cols := runs[0]
		runs = nil

		return cols, nil
	}

	out := make([]arrow.Array, len(runs[0]))
	parts := make([]arrow.Array, len(runs))
	for c := range out {
		for i, run := range runs {
			parts[i] = run[c]
		}
		arr, err := array.Concatenate(parts, r.device)
		if err != nil {
			engine.ReleaseAll(out)
			return nil, fmt.Errorf("concatenate column %d: %w", c, err)
		}
		out[c] = arr
	}

	return out, nil
}

// assemble slices the decoded columns to the row windows and builds the record.
// It takes ownership of cols.
func (r *Reader) assemble(cols []arrow.Array, windows []window) (arrow.RecordBatch, int64) {
	var rows, total int64
	for _, w := range windows {
		rows += w.take
	}
	if len(cols) > 0 {
		total = int64(cols[0].Len())
	}

	if skip := windows[0].skip; skip != 0 || rows != total {
		for i, col := range cols {
			cols[i] = array.NewSlice(col, skip, skip+rows)
			col.Release()
		}
	}

	rec := array.NewRecordBatch(r.schema, cols, rows)
	engine.ReleaseAll(cols)

	return rec, rows
}

func (r *Reader) overrun(ctx context.Context, w *errs.BudgetUnsatisfiableWarning) {
	r.stats.BudgetOverruns++
	r.tel.overrun(ctx, w.Budget)
}

// ReadAll reads every remaining chunk and assembles them into one table.
//
// It is the chunked loop of ReadChunk; with WithBudget(0, 0) the loop runs once.
func (r *Reader) ReadAll(ctx context.Context) (arrow.Table, error) {
	var recs []arrow.RecordBatch
	defer func() {
		for _, rec := range recs {
			rec.Release()
		}
	}()

	for r.HasNext() {
		chunk, err := r.ReadChunk(ctx)
		if err != nil {
			return nil, err
		}
		recs = append(recs, chunk.Record)
	}
	if r.closed {
		return nil, errs.ErrReaderClosed
	}

	return array.NewTableFromRecords(r.schema, recs), nil
}

// Stats returns the session telemetry so far.
func (r *Reader) Stats() ReaderStats {
	st := r.stats
	st.PeakDeviceBytes = r.device.Peak()
	st.PeakHostBytes = r.host.Peak()

	return st
}

// Close releases staged buffers and the engine files. The sources are not closed.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.stager.releaseAll()

	return r.closeFiles()
}

func (r *Reader) closeFiles() error {
	var errList []error
	for _, f := range r.files {
		if err := f.Close(); err != nil {
			errList = append(errList, err)
		}
	}
	r.files = nil

	return errors.Join(errList...)
}
