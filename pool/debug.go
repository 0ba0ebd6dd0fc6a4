//go:build debug
// +build debug

package pool

import "github.com/bnclabs/godevmem/api"

// tracker remember every allocation handed out, debug builds assert
// that frees carry the pointer and aligned size of a live allocation.
type tracker struct {
	allocated map[api.Pointer]int64
}

func (tr *tracker) trackalloc(blk block) {
	if tr.allocated == nil {
		tr.allocated = make(map[api.Pointer]int64)
	}
	if size, ok := tr.allocated[blk.ptr]; ok {
		panicerr("tracker: %v already allocated as %v bytes", blk, size)
	}
	tr.allocated[blk.ptr] = blk.size
}

func (tr *tracker) trackfree(ptr api.Pointer, size int64) {
	allocated, ok := tr.allocated[ptr]
	if ok == false {
		panicerr("tracker: free of unallocated pointer %x", uintptr(ptr))
	} else if allocated != size {
		panicerr("tracker: free size %v, allocated %v", size, allocated)
	}
	delete(tr.allocated, ptr)
}

func (tr *tracker) releasetracked() {
	tr.allocated = nil
}

// audit every free list after a mutation. Caller shall hold so.mu.
func (so *streamordered) audit() {
	for _, sf := range so.streams {
		sf.blocks.audit()
	}
}
