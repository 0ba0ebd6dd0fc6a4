// Package sim implement a simulated accelerator, an api.Runtime and an
// api.MemoryResource without any device attached, with a limited
// scope:
//
//   - Device memory is allocated sequentially at monotonically
//     increasing addresses until the configured capacity is exceeded,
//     frees are counted but the address space is never recycled.
//   - Events capture per-stream submission counts instead of real
//     device work, and every stream-wait edge is remembered, so tests
//     can verify the cross-stream reuse protocol.
//
// Nothing in this package talks to real hardware, it exists for tests
// and tools exercising pool resources.
package sim
