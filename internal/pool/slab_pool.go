package pool

import (
	"math/bits"
	"sync"
)

const (
	minSlabShift = 6  // 64B, the arrow buffer alignment
	maxSlabShift = 26 // 64MiB, larger requests bypass the pool
	slabClasses  = maxSlabShift - minSlabShift + 1
)

// SlabPool hands out zeroed byte slices rounded up to power-of-two size classes.
//
// Each class is backed by its own sync.Pool. Requests above the largest class are
// allocated directly and dropped on Put.
type SlabPool struct {
	classes [slabClasses]sync.Pool
}

// NewSlabPool creates an empty SlabPool.
func NewSlabPool() *SlabPool {
	p := &SlabPool{}
	for i := range p.classes {
		size := 1 << (i + minSlabShift)
		p.classes[i].New = func() any {
			b := make([]byte, size)
			return &b
		}
	}

	return p
}

// ClassSize returns the capacity Get would hand out for a request of size bytes.
func ClassSize(size int) int {
	idx, ok := classIndex(size)
	if !ok {
		return size
	}

	return 1 << (idx + minSlabShift)
}

// Get returns a zeroed slice with len == size and cap == ClassSize(size).
func (p *SlabPool) Get(size int) []byte {
	if size <= 0 {
		return nil
	}

	idx, ok := classIndex(size)
	if !ok {
		return make([]byte, size)
	}

	ptr, _ := p.classes[idx].Get().(*[]byte)
	b := (*ptr)[:cap(*ptr)]
	clear(b)

	return b[:size]
}

// Put returns b to its size class. Slices whose capacity is not a class size are ignored.
func (p *SlabPool) Put(b []byte) {
	c := cap(b)
	if c == 0 || c&(c-1) != 0 {
		return
	}

	idx, ok := classIndex(c)
	if !ok || 1<<(idx+minSlabShift) != c {
		return
	}

	b = b[:c]
	p.classes[idx].Put(&b)
}

func classIndex(size int) (int, bool) {
	if size > 1<<maxSlabShift {
		return 0, false
	}
	if size <= 1<<minSlabShift {
		return 0, true
	}

	shift := bits.Len(uint(size - 1))

	return shift - minSlabShift, true
}
