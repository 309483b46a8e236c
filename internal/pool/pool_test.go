package pool

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// ByteBuffer Tests
// =============================================================================

func TestNewByteBuffer(t *testing.T) {
	bb := NewByteBuffer(1024)

	require.NotNil(t, bb)
	assert.Equal(t, 0, bb.Len(), "new buffer should have zero length")
	assert.Equal(t, 1024, bb.Cap(), "new buffer should have specified capacity")
}

func TestByteBuffer_ExtendOrGrow(t *testing.T) {
	t.Run("within capacity", func(t *testing.T) {
		bb := NewByteBuffer(16)
		region := bb.ExtendOrGrow(8)
		require.Len(t, region, 8)
		require.Equal(t, 8, bb.Len())
		require.Equal(t, 16, bb.Cap())
	})

	t.Run("beyond capacity keeps content", func(t *testing.T) {
		bb := NewByteBuffer(4)
		bb.MustWrite([]byte("abcd"))
		region := bb.ExtendOrGrow(100)
		copy(region, bytes.Repeat([]byte{'x'}, 100))
		require.Equal(t, 104, bb.Len())
		require.Equal(t, []byte("abcd"), bb.Bytes()[:4])
		require.Equal(t, byte('x'), bb.Bytes()[103])
	})
}

func TestByteBuffer_Grow(t *testing.T) {
	bb := NewByteBuffer(0)
	bb.Grow(10)
	require.GreaterOrEqual(t, bb.Cap(), ChunkBufferDefaultSize, "small buffers grow by the default size")

	big := NewByteBuffer(8 * ChunkBufferDefaultSize)
	big.B = big.B[:big.Cap()]
	oldCap := big.Cap()
	big.Grow(1)
	require.Equal(t, oldCap+oldCap/4, big.Cap(), "large buffers grow by 25%")
}

func TestByteBuffer_WriteTo(t *testing.T) {
	bb := NewByteBuffer(8)
	n, err := bb.Write([]byte("payload"))
	require.NoError(t, err)
	require.Equal(t, 7, n)

	var out bytes.Buffer
	written, err := bb.WriteTo(&out)
	require.NoError(t, err)
	require.Equal(t, int64(7), written)
	require.Equal(t, "payload", out.String())
}

func TestByteBufferPool(t *testing.T) {
	t.Run("reset on put", func(t *testing.T) {
		p := NewByteBufferPool(64, 1024)
		bb := p.Get()
		bb.MustWrite([]byte("data"))
		p.Put(bb)

		again := p.Get()
		require.Equal(t, 0, again.Len())
	})

	t.Run("drops oversized buffers", func(t *testing.T) {
		p := NewByteBufferPool(64, 128)
		bb := p.Get()
		bb.Grow(4096)
		p.Put(bb)
		require.NotSame(t, bb, p.Get())
	})

	t.Run("nil put is ignored", func(t *testing.T) {
		require.NotPanics(t, func() { PutChunkBuffer(nil) })
	})

	t.Run("defaults", func(t *testing.T) {
		cb := GetChunkBuffer()
		defer PutChunkBuffer(cb)
		require.GreaterOrEqual(t, cb.Cap(), ChunkBufferDefaultSize)

		fb := GetFileBuffer()
		defer PutFileBuffer(fb)
		require.GreaterOrEqual(t, fb.Cap(), FileBufferDefaultSize)
	})
}

// =============================================================================
// SlabPool Tests
// =============================================================================

func TestClassSize(t *testing.T) {
	tests := []struct {
		size int
		want int
	}{
		{1, 64},
		{64, 64},
		{65, 128},
		{1000, 1024},
		{1 << 20, 1 << 20},
		{1<<20 + 1, 1 << 21},
		{1<<maxSlabShift + 1, 1<<maxSlabShift + 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassSize(tt.size), "size %d", tt.size)
	}
}

func TestSlabPool_GetPut(t *testing.T) {
	p := NewSlabPool()

	b := p.Get(100)
	require.Len(t, b, 100)
	require.Equal(t, 128, cap(b))

	for i := range b {
		b[i] = 0xAB
	}
	p.Put(b)

	again := p.Get(120)
	require.Len(t, again, 120)
	for _, v := range again[:cap(again)] {
		require.Zero(t, v, "reused slabs must be zeroed")
	}

	require.Nil(t, p.Get(0))
	require.NotPanics(t, func() { p.Put(make([]byte, 3, 100)) })
}

func TestSlabPool_Oversized(t *testing.T) {
	p := NewSlabPool()
	size := 1<<maxSlabShift + 10
	b := p.Get(size)
	require.Len(t, b, size)
	require.Equal(t, size, cap(b))
	require.NotPanics(t, func() { p.Put(b) })
}

func TestSlabPool_Concurrent(t *testing.T) {
	p := NewSlabPool()
	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func(seed int) {
			defer wg.Done()
			for i := range 200 {
				b := p.Get(64 + (seed*131+i*17)%5000)
				b[0] = 1
				p.Put(b)
			}
		}(g)
	}
	wg.Wait()
}
