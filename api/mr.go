package api

// MemoryResource interface for device memory management. Resources
// compose, a pool resource carves small allocations out of large
// blocks obtained from an upstream MemoryResource.
type MemoryResource interface {
	// Alloc allocate `n` bytes of device memory for use on `stream`.
	// Allocated memory is always 256-byte aligned. Allocating zero
	// bytes return the null Pointer. Can fail with ErrorOutofMemory
	// or ErrorSizeExceeded.
	Alloc(n int64, stream Stream) (Pointer, error)

	// Free device memory allocated with Alloc. `n` shall be the
	// original allocation size. Never fails at this interface.
	Free(ptr Pointer, n int64, stream Stream)

	// SupportsStreams whether this resource honours stream ordered
	// allocation semantics.
	SupportsStreams() bool

	// SupportsMemInfo whether MemInfo is implemented.
	SupportsMemInfo() bool

	// MemInfo return free and total device memory, in bytes, as seen
	// by this resource. Resources that do not track device memory
	// return zeros.
	MemInfo(stream Stream) (free, total int64)

	// IsEqual memory allocated with this resource can be freed with
	// `other` and vice versa. Pool resources compare by identity.
	IsEqual(other MemoryResource) bool
}
