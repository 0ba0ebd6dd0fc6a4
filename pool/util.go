package pool

import "fmt"

// alignup round size up to the next multiple of align.
func alignup(size, align int64) int64 {
	return ((size + align - 1) / align) * align
}

// aligndown round size down to the previous multiple of align.
func aligndown(size, align int64) int64 {
	return (size / align) * align
}

func maxint64(x, y int64) int64 {
	if x > y {
		return x
	}
	return y
}

func panicerr(fmsg string, args ...interface{}) {
	panic(fmt.Errorf(fmsg, args...))
}
