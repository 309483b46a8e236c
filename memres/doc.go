// Package memres holds the allocator strategies used by chunked reads.
//
// Two strategies are tracked independently:
//   - Host: staging buffers for encoded row groups and decompression scratch
//   - Device: buffers of the decoded arrow arrays handed out in chunks
//
// Both are arrow memory.Allocator values. A Provider holds one of each; the
// package-level default Provider backs HostAllocator, SetHostAllocator,
// DeviceAllocator and SetDeviceAllocator.
//
// Readers receive their allocators by injection and fall back to the package
// defaults only once, at construction. Replacing a default while a reader is open
// does not affect that reader. Swap defaults between sessions, for example with
// the scoped helpers:
//
//	memres.WithHostAllocator(pinned, func() {
//	    r, _ := reader.New(ctx, eng, srcs)
//	    defer r.Close()
//	    tbl, _ := r.ReadAll(ctx)
//	    defer tbl.Release()
//	})
package memres
