package memres

import (
	"sync"

	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Provider holds the current host and device allocator strategies.
//
// Provider is safe for concurrent use. The zero value is not usable; call NewProvider.
type Provider struct {
	mu     sync.RWMutex
	host   memory.Allocator
	device memory.Allocator
}

// NewProvider creates a Provider with the given strategies. A nil argument selects
// the default: the Go heap for host and a PoolAllocator for device.
func NewProvider(host, device memory.Allocator) *Provider {
	if host == nil {
		host = memory.NewGoAllocator()
	}
	if device == nil {
		device = NewPoolAllocator()
	}

	return &Provider{host: host, device: device}
}

// Host returns the current host strategy.
func (p *Provider) Host() memory.Allocator {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.host
}

// SetHost installs a as host strategy and returns the previous one.
// A nil a restores the Go heap allocator.
func (p *Provider) SetHost(a memory.Allocator) memory.Allocator {
	if a == nil {
		a = memory.NewGoAllocator()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	prev := p.host
	p.host = a

	return prev
}

// Device returns the current device strategy.
func (p *Provider) Device() memory.Allocator {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.device
}

// SetDevice installs a as device strategy and returns the previous one.
// A nil a restores a fresh PoolAllocator.
func (p *Provider) SetDevice(a memory.Allocator) memory.Allocator {
	if a == nil {
		a = NewPoolAllocator()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	prev := p.device
	p.device = a

	return prev
}

var defaultProvider = NewProvider(nil, nil)

// Default returns the package-level provider.
func Default() *Provider {
	return defaultProvider
}

// HostAllocator returns the default host strategy.
func HostAllocator() memory.Allocator {
	return defaultProvider.Host()
}

// SetHostAllocator replaces the default host strategy and returns the previous one.
func SetHostAllocator(a memory.Allocator) memory.Allocator {
	return defaultProvider.SetHost(a)
}

// DeviceAllocator returns the default device strategy.
func DeviceAllocator() memory.Allocator {
	return defaultProvider.Device()
}

// SetDeviceAllocator replaces the default device strategy and returns the previous one.
func SetDeviceAllocator(a memory.Allocator) memory.Allocator {
	return defaultProvider.SetDevice(a)
}

// WithHostAllocator runs fn with a as default host strategy and restores the
// previous strategy when fn returns or panics.
func WithHostAllocator(a memory.Allocator, fn func()) {
	prev := SetHostAllocator(a)
	defer SetHostAllocator(prev)

	fn()
}

// WithDeviceAllocator runs fn with a as default device strategy and restores the
// previous strategy when fn returns or panics.
func WithDeviceAllocator(a memory.Allocator, fn func()) {
	prev := SetDeviceAllocator(a)
	defer SetDeviceAllocator(prev)

	fn()
}
