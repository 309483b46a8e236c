package memres

import (
	"sync/atomic"

	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Tracker wraps an allocator and records current and peak allocated bytes.
//
// Readers wrap the injected host and device strategies with a Tracker to report
// peak memory usage. Tracking is telemetry only and never limits allocations.
type Tracker struct {
	mem         memory.Allocator
	current     atomic.Int64
	peak        atomic.Int64
	allocations atomic.Int64
}

var _ memory.Allocator = (*Tracker)(nil)

// NewTracker wraps mem.
func NewTracker(mem memory.Allocator) *Tracker {
	return &Tracker{mem: mem}
}

func (t *Tracker) Allocate(size int) []byte {
	b := t.mem.Allocate(size)
	t.allocations.Add(1)
	t.grow(int64(len(b)))

	return b
}

func (t *Tracker) Reallocate(size int, b []byte) []byte {
	old := len(b)
	nb := t.mem.Reallocate(size, b)
	t.grow(int64(len(nb) - old))

	return nb
}

func (t *Tracker) Free(b []byte) {
	t.current.Add(-int64(len(b)))
	t.mem.Free(b)
}

// Current returns the bytes currently allocated through the tracker.
func (t *Tracker) Current() int64 {
	return t.current.Load()
}

// Peak returns the highest value Current reached since creation or the last ResetPeak.
func (t *Tracker) Peak() int64 {
	return t.peak.Load()
}

// Allocations returns the number of Allocate calls.
func (t *Tracker) Allocations() int64 {
	return t.allocations.Load()
}

// ResetPeak sets the peak to the current usage.
func (t *Tracker) ResetPeak() {
	t.peak.Store(t.current.Load())
}

// Unwrap returns the wrapped allocator.
func (t *Tracker) Unwrap() memory.Allocator {
	return t.mem
}

func (t *Tracker) grow(delta int64) {
	cur := t.current.Add(delta)
	for {
		peak := t.peak.Load()
		if cur <= peak || t.peak.CompareAndSwap(peak, cur) {
			return
		}
	}
}
