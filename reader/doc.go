// Package reader implements the bounded-memory chunked reader.
//
// A Reader turns the row groups of one or more encoded sources into a finite
// sequence of arrow record batches ("chunks") while honoring two budgets:
//
//   - the output limit bounds the estimated decoded bytes of one chunk
//   - the input limit bounds the encoded bytes staged ahead of decode
//
// Row groups are never split across chunks and rows are emitted in source
// order. Both limits are soft for a single row group: a row group larger than a
// limit is still read on its own, and a BudgetUnsatisfiable warning is logged.
// A zero limit means unbounded, so WithBudget(0, 0) yields the whole table as
// one chunk.
//
// # Usage
//
//	r, err := reader.New(ctx, eng, sources, reader.WithBudget(64<<20, 640<<20))
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	for r.HasNext() {
//	    chunk, err := r.ReadChunk(ctx)
//	    if err != nil {
//	        return err // the reader must be discarded
//	    }
//	    process(chunk.Record)
//	    chunk.Release()
//	}
//
// # Concurrency
//
// A Reader is not safe for concurrent use; calls must be serialized by the
// caller. Work inside one ReadChunk call may run in parallel (the native engine
// decodes columns concurrently), but no chunk boundary depends on it.
//
// # Allocators
//
// Staged input and decode scratch come from the host allocator, decoded arrays
// from the device allocator. Both are injected with WithHostAllocator and
// WithDeviceAllocator; when omitted, the memres process-wide strategies are read
// once in New. Changing the process-wide strategies afterwards does not affect
// an existing Reader.
package reader
