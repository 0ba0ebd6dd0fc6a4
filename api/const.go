package api

import "errors"

// Alignment all device allocations are rounded up to 256 byte
// boundaries, sizes less than Alignment are rounded up to Alignment.
const Alignment = int64(256)

// LegacyStream the default stream of the device. Work submitted to the
// legacy stream is implicitly ordered with every other blocking stream.
const LegacyStream = Stream(0)

// ErrorInvalidArg supplied argument is invalid, like a nil upstream
// resource or a pool size that is not a multiple of Alignment.
var ErrorInvalidArg = errors.New("invalidarg")

// ErrorOutofMemory device memory exhausted, either the upstream
// resource refused even the minimum request or the pool is not allowed
// to grow beyond its configured maximum.
var ErrorOutofMemory = errors.New("outofmemory")

// ErrorSizeExceeded allocation request exceeds the maximum allocation
// size configured for the resource.
var ErrorSizeExceeded = errors.New("sizeexceeded")

// ErrorClosed operation attempted on an event that was destroyed.
var ErrorClosed = errors.New("closed")
