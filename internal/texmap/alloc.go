package texmap

import (
	"fmt"

	"github.com/MeKo-Tech/quadwarp/internal/mempool"
)

// Ownership records who is responsible for a destination buffer once Blit
// returns. The zero value means the allocator did not say, which is rejected.
type Ownership int

const (
	OwnershipUnset Ownership = iota
	// OwnershipEngine means the buffer was freshly allocated for this call
	// and now belongs to the Result. Release is a no-op.
	OwnershipEngine
	// OwnershipCaller means the buffer is borrowed from the allocator and
	// must be handed back with Result.Release.
	OwnershipCaller
)

func (o Ownership) String() string {
	switch o {
	case OwnershipUnset:
		return "unset"
	case OwnershipEngine:
		return "engine"
	case OwnershipCaller:
		return "caller"
	default:
		return fmt.Sprintf("Ownership(%d)", int(o))
	}
}

// Allocation is a destination buffer plus its ownership.
type Allocation struct {
	Bytes     []byte
	Ownership Ownership
}

// Allocator provides destination buffers of pixelCount*bytesPerPixel bytes.
// Pixels rejected by the Skip policy keep whatever the buffer held, so
// allocators should return zeroed memory unless a background is intended.
type Allocator interface {
	Allocate(pixelCount, bytesPerPixel int) (Allocation, error)
}

// Releaser is implemented by allocators that take caller-owned buffers back.
type Releaser interface {
	Release(buf []byte)
}

// AllocatorFunc adapts a function to the Allocator interface.
type AllocatorFunc func(pixelCount, bytesPerPixel int) (Allocation, error)

// Allocate implements Allocator.
func (f AllocatorFunc) Allocate(pixelCount, bytesPerPixel int) (Allocation, error) {
	return f(pixelCount, bytesPerPixel)
}

// DefaultAllocator returns fresh zero-initialized buffers owned by the engine.
var DefaultAllocator Allocator = AllocatorFunc(func(pixelCount, bytesPerPixel int) (Allocation, error) {
	return Allocation{Bytes: make([]byte, pixelCount*bytesPerPixel), Ownership: OwnershipEngine}, nil
})

// PoolAllocator hands out zeroed buffers from the shared byte pool. Results
// are caller-owned and go back to the pool on Release.
type PoolAllocator struct{}

// Allocate implements Allocator.
func (PoolAllocator) Allocate(pixelCount, bytesPerPixel int) (Allocation, error) {
	return Allocation{Bytes: mempool.GetBytes(pixelCount * bytesPerPixel), Ownership: OwnershipCaller}, nil
}

// Release implements Releaser.
func (PoolAllocator) Release(buf []byte) {
	mempool.PutBytes(buf)
}

// BufferAllocator renders into buf as-is. Skipped pixels keep their existing
// content, which lets a caller composite over a background.
func BufferAllocator(buf []byte) Allocator {
	return AllocatorFunc(func(pixelCount, bytesPerPixel int) (Allocation, error) {
		return Allocation{Bytes: buf, Ownership: OwnershipCaller}, nil
	})
}
