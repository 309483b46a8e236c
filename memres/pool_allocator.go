package memres

import (
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/arloliu/colchunk/internal/pool"
)

// PoolAllocator is a memory.Allocator serving power-of-two size classes from
// sync.Pool backed slabs. Freed buffers are recycled across chunks, which keeps
// steady-state chunked reads from allocating.
type PoolAllocator struct {
	slabs *pool.SlabPool
}

var _ memory.Allocator = (*PoolAllocator)(nil)

// NewPoolAllocator creates an empty pool allocator.
func NewPoolAllocator() *PoolAllocator {
	return &PoolAllocator{slabs: pool.NewSlabPool()}
}

// Allocate returns a zeroed buffer of size bytes.
func (a *PoolAllocator) Allocate(size int) []byte {
	return a.slabs.Get(size)
}

// Reallocate returns a buffer of size bytes holding the contents of b.
// The result reuses b when its size class already fits.
func (a *PoolAllocator) Reallocate(size int, b []byte) []byte {
	if size <= cap(b) {
		old := len(b)
		b = b[:size]
		if size > old {
			clear(b[old:])
		}

		return b
	}

	nb := a.slabs.Get(size)
	copy(nb, b)
	a.slabs.Put(b)

	return nb
}

// Free returns b to its size class.
func (a *PoolAllocator) Free(b []byte) {
	a.slabs.Put(b)
}
