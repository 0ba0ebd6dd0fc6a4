package pool

import s "github.com/bnclabs/gosettings"

// Defaultsettings for pool resource, applications shall Mixin their
// overrides on top of this map.
//
// "initialsize" (int64, default: -1)
//		Size, in bytes, of the initial upstream allocation, shall be
//		a multiple of 256. -1 sizes the pool to half of currently
//		free device memory, which is different from 0, an initially
//		empty pool.
//
// "maximumsize" (int64, default: -1)
//		Hard ceiling, in bytes, on the sum of upstream allocations,
//		shall be a multiple of 256. -1 lets the pool grow without
//		bound.
//
// "maxallocsize" (int64, default: -1)
//		Largest single allocation served by the pool, after
//		alignment. -1 means no limit.
func Defaultsettings() s.Settings {
	return s.Settings{
		"initialsize":  int64(-1),
		"maximumsize":  int64(-1),
		"maxallocsize": int64(-1),
	}
}
