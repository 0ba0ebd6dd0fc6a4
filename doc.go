// Package godevmem implement memory management for accelerator (GPU)
// device memory. Device memory is carved out of large upstream
// allocations and recycled through per-stream free lists, so that
// memory freed on one command stream can be re-used on another stream
// without explicit synchronization by the application.
//
// Sub-packages:
//
//	api   interfaces and types shared by resources and runtimes.
//	lib   utility functions and statistics.
//	pool  stream-ordered coalescing pool resource.
//	sim   simulated runtime and device resource for testing.
package godevmem
