package sim

import s "github.com/bnclabs/gosettings"

// Defaultsettings for the simulated device.
//
// "capacity" (int64, default: -1)
//		Size of the simulated device memory in bytes. -1 sizes the
//		device to half of free host memory. For NewResource, -1
//		takes the capacity of its runtime.
//
// "meminfo" (bool, default: true)
//		Whether the resource advertises SupportsMemInfo. Disable to
//		exercise a pool's runtime fallback path.
func Defaultsettings() s.Settings {
	return s.Settings{
		"capacity": int64(-1),
		"meminfo":  true,
	}
}
