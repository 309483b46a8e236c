package source

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/arloliu/colchunk/errs"
)

// HostBuffer is a Source over bytes already in host memory.
type HostBuffer struct {
	data []byte
}

var _ Source = (*HostBuffer)(nil)

// NewHostBuffer wraps data. The caller must not modify data while the source is in use.
func NewHostBuffer(data []byte) *HostBuffer {
	return &HostBuffer{data: data}
}

func (s *HostBuffer) Kind() Kind { return KindHostBuffer }

func (s *HostBuffer) Size() int64 { return int64(len(s.data)) }

func (s *HostBuffer) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := checkRange(int64(len(s.data)), p, off); err != nil {
		return 0, err
	}

	return copy(p, s.data[off:]), nil
}

func (s *HostBuffer) Close() error { return nil }

// DeviceBuffer is a Source over an arrow buffer owned by the device allocator.
//
// The source holds a reference on the buffer and drops it on Close.
type DeviceBuffer struct {
	buf  *memory.Buffer
	size int64
}

var _ Source = (*DeviceBuffer)(nil)

// NewDeviceBuffer wraps buf and retains it.
func NewDeviceBuffer(buf *memory.Buffer) *DeviceBuffer {
	buf.Retain()

	return &DeviceBuffer{buf: buf, size: int64(buf.Len())}
}

// CopyToDevice copies data into a buffer allocated from mem and wraps it.
func CopyToDevice(data []byte, mem memory.Allocator) *DeviceBuffer {
	buf := memory.NewResizableBuffer(mem)
	buf.Resize(len(data))
	copy(buf.Bytes(), data)

	return &DeviceBuffer{buf: buf, size: int64(len(data))}
}

func (s *DeviceBuffer) Kind() Kind { return KindDeviceBuffer }

func (s *DeviceBuffer) Size() int64 { return s.size }

func (s *DeviceBuffer) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s.buf == nil {
		return 0, errs.ErrSourceClosed
	}
	data := s.buf.Bytes()
	if err := checkRange(int64(len(data)), p, off); err != nil {
		return 0, err
	}

	return copy(p, data[off:]), nil
}

func (s *DeviceBuffer) Close() error {
	if s.buf != nil {
		s.buf.Release()
		s.buf = nil
	}

	return nil
}
