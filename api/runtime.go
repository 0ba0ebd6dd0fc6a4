package api

// Runtime interface to the accelerator driver. Memory resources use it
// to create synchronization events and to query device memory when the
// upstream resource cannot.
type Runtime interface {
	// NewEvent create a fresh synchronization event on the device.
	NewEvent() (Event, error)

	// MemInfo return free and total memory on the device, in bytes.
	MemInfo() (free, total int64, err error)
}

// Event is a marker that can be recorded on a stream. Another stream
// waiting on the event establishes a happens-before edge with all work
// submitted to the recording stream before the record.
type Event interface {
	// Record capture, asynchronously, the work submitted to `stream`
	// so far. Re-recording moves the marker forward.
	Record(stream Stream) error

	// WaitBy make `stream` wait until the recorded work completes.
	// Waiting on an event that was never recorded is a no-op.
	WaitBy(stream Stream) error

	// Synchronize block the host until the recorded work completes.
	Synchronize() error

	// Destroy release the event resource.
	Destroy() error
}
