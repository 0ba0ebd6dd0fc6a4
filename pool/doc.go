// Package pool supplies a stream-ordered suballocator for device
// memory. A pool obtains large blocks from an upstream memory resource
// and carves them into small allocations, with a limited scope:
//
//   - Allocations are served per device stream. Memory freed on one
//     stream migrates to another stream only after the claiming stream
//     is made to wait on the freeing stream's availability event, so
//     applications never synchronize explicitly.
//   - Adjacent free blocks coalesce on insert, but never across the
//     boundary of two upstream allocations.
//   - The pool grows geometrically on demand, under an optional hard
//     ceiling, backing off exponentially when upstream refuses.
//   - Upstream memory is given back only when the pool is Released.
//
// Pools can be created with following parameters:
//
//	initialsize  : size of the initial upstream allocation.
//	maximumsize  : ceiling on the sum of upstream allocations.
//	maxallocsize : largest single allocation served by the pool.
//
// Alloc and Free are thread safe, a single mutex serializes all
// book-keeping. Allocated pointers are always 256-byte aligned.
package pool
