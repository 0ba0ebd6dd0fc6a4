package api

// Pointer is a raw device memory address. Device pointers are opaque to
// the host, they shall never be dereferenced by go code. A zero Pointer
// is the null pointer, returned for zero sized allocations.
type Pointer uintptr

// Stream is an opaque handle to an ordered queue of asynchronous device
// operations. Operations within one stream are serialized, operations
// across streams are concurrent unless synchronized through events.
// Streams are comparable and ordered so that they can key maps and be
// iterated in a deterministic order.
type Stream uint64
