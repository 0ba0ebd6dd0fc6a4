package sim

import "sync"

import "github.com/bnclabs/godevmem/api"
import s "github.com/bnclabs/gosettings"

// simbase first address handed out by a simulated resource, non-zero
// so that the null pointer stays distinguishable.
const simbase = api.Pointer(0x100)

// Resource simulated device memory implementing api.MemoryResource.
// A monotone bump allocator over the runtime's capacity, frees are
// counted but never recycled, which makes double accounting by a pool
// under test immediately visible.
type Resource struct {
	mu    sync.Mutex
	rt    *Runtime
	next  api.Pointer
	end   api.Pointer
	total int64

	meminfo  bool
	n_allocs int64
	n_frees  int64
}

// NewResource create a simulated memory resource over the runtime's
// device memory.
func (rt *Runtime) NewResource(setts s.Settings) *Resource {
	setts = make(s.Settings).Mixin(Defaultsettings(), setts)
	capacity := setts.Int64("capacity")
	if capacity < 0 {
		capacity = rt.capacity
	}
	return &Resource{
		rt:      rt,
		next:    simbase,
		end:     simbase + api.Pointer(capacity),
		total:   capacity,
		meminfo: setts.Bool("meminfo"),
	}
}

// Alloc implement api.MemoryResource{} interface.
func (mr *Resource) Alloc(n int64, stream api.Stream) (api.Pointer, error) {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	if n <= 0 {
		return 0, nil
	}
	size := ((n + api.Alignment - 1) / api.Alignment) * api.Alignment
	if mr.next+api.Pointer(size) > mr.end {
		return 0, api.ErrorOutofMemory
	}
	ptr := mr.next
	mr.next += api.Pointer(size)
	mr.n_allocs++
	return ptr, nil
}

// Free implement api.MemoryResource{} interface.
func (mr *Resource) Free(ptr api.Pointer, n int64, stream api.Stream) {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	if ptr == 0 {
		return
	}
	mr.n_frees++
}

// SupportsStreams implement api.MemoryResource{} interface.
func (mr *Resource) SupportsStreams() bool {
	return false
}

// SupportsMemInfo implement api.MemoryResource{} interface.
func (mr *Resource) SupportsMemInfo() bool {
	return mr.meminfo
}

// MemInfo implement api.MemoryResource{} interface. Free memory is the
// address space not yet bumped away.
func (mr *Resource) MemInfo(stream api.Stream) (free, total int64) {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	if mr.meminfo == false {
		return 0, 0
	}
	return int64(mr.end - mr.next), mr.total
}

// IsEqual implement api.MemoryResource{} interface.
func (mr *Resource) IsEqual(other api.MemoryResource) bool {
	oth, ok := other.(*Resource)
	return ok && oth == mr
}

// Counts return the number of Alloc and Free calls served, pool tests
// balance these across Release.
func (mr *Resource) Counts() (allocs, frees int64) {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	return mr.n_allocs, mr.n_frees
}
