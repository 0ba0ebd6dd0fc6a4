package pool

import "fmt"
import "math"

import "github.com/bnclabs/godevmem/api"
import s "github.com/bnclabs/gosettings"
import humanize "github.com/dustin/go-humanize"
import "github.com/tidwall/btree"

// Pool a coalescing suballocator of device memory. The pool obtains
// large blocks from an upstream resource, carves them into aligned
// allocations and recycles freed blocks through per-stream free
// lists. Pool implements api.MemoryResource and can itself be the
// upstream of another resource.
type Pool struct {
	streamordered // per-stream free lists and cross-stream protocol
	tracker       // allocation tracking, armed in debug builds

	name     string
	upstream api.MemoryResource
	upblocks *btree.BTreeG[block] // head blocks obtained from upstream

	currentpoolsize int64

	// settings
	initialsize int64 // -1 to size from free device memory
	maximumsize int64 // -1 when the pool can grow without bound
	maxallocsz  int64
	setts       s.Settings
	logprefix   string
}

// NewPool create a pool bound to upstream and an accelerator runtime.
// The initial upstream allocation is made here and enters the legacy
// stream's free list, so that any stream can claim it later. Fails
// with ErrorInvalidArg on a nil collaborator or a size that is not a
// multiple of api.Alignment, and with ErrorOutofMemory when upstream
// cannot supply even the initial size.
func NewPool(
	name string, upstream api.MemoryResource, rt api.Runtime,
	setts s.Settings) (*Pool, error) {

	if upstream == nil || rt == nil {
		return nil, api.ErrorInvalidArg
	}

	opts := btree.Options{NoLocks: true}
	pool := &Pool{
		name:      name,
		upstream:  upstream,
		upblocks:  btree.NewBTreeGOptions[block](byaddress, opts),
		logprefix: fmt.Sprintf("POOL [%v]", name),
	}
	setts = make(s.Settings).Mixin(Defaultsettings(), setts)
	pool.readsettings(setts)
	pool.setts = setts
	if pool.initialsize >= 0 && (pool.initialsize%api.Alignment) != 0 {
		return nil, api.ErrorInvalidArg
	} else if pool.maximumsize >= 0 && (pool.maximumsize%api.Alignment) != 0 {
		return nil, api.ErrorInvalidArg
	}
	pool.streamordered.init(rt, pool)

	if err := pool.initializepool(); err != nil {
		return nil, err
	}
	infof("%v started with %v ...\n",
		pool.logprefix, humanize.IBytes(uint64(pool.currentpoolsize)))
	return pool, nil
}

func (pool *Pool) readsettings(setts s.Settings) {
	pool.initialsize = setts.Int64("initialsize")
	pool.maximumsize = setts.Int64("maximumsize")
	pool.maxallocsz = setts.Int64("maxallocsize")
	if pool.maxallocsz < 0 {
		pool.maxallocsz = math.MaxInt64
	}
}

// initializepool make the initial upstream allocation. Without an
// explicit initialsize aim for half of currently free device memory,
// asking upstream when it can tell, else the runtime.
func (pool *Pool) initializepool() error {
	trysize := pool.initialsize
	if trysize < 0 {
		var free int64
		if pool.upstream.SupportsMemInfo() {
			free, _ = pool.upstream.MemInfo(api.LegacyStream)
		} else {
			var err error
			if free, _, err = pool.rt.MemInfo(); err != nil {
				errorf("%v meminfo: %v\n", pool.logprefix, err)
				return err
			}
		}
		trysize = aligndown(free/2, api.Alignment)
	}
	if pool.maximumsize >= 0 && trysize > pool.maximumsize {
		errorf("%v initial size %v exceeds maximum %v\n",
			pool.logprefix, trysize, pool.maximumsize)
		return api.ErrorInvalidArg
	}
	if trysize > 0 {
		blk, err := pool.trytoexpand(trysize, trysize, api.LegacyStream)
		if err != nil {
			return err
		}
		pool.stream(api.LegacyStream).blocks.insert(blk)
	}
	return nil
}

//---- api.MemoryResource{} interface.

// Alloc implement api.MemoryResource{} interface. Allocate n bytes of
// device memory for use on stream, rounded up to api.Alignment with a
// floor of one alignment unit. Zero bytes return the null pointer.
func (pool *Pool) Alloc(n int64, stream api.Stream) (api.Pointer, error) {
	return pool.alloc(n, stream)
}

// Free implement api.MemoryResource{} interface. n shall equal the
// original allocation size. Never fails, device failures panic.
func (pool *Pool) Free(ptr api.Pointer, n int64, stream api.Stream) {
	pool.free(ptr, n, stream)
}

// SupportsStreams implement api.MemoryResource{} interface.
func (pool *Pool) SupportsStreams() bool {
	return true
}

// SupportsMemInfo implement api.MemoryResource{} interface.
func (pool *Pool) SupportsMemInfo() bool {
	return false
}

// MemInfo implement api.MemoryResource{} interface. Pools do not track
// device memory, return zeros.
func (pool *Pool) MemInfo(stream api.Stream) (free, total int64) {
	return 0, 0
}

// IsEqual implement api.MemoryResource{} interface. Two pools are
// equal only when they are the same object.
func (pool *Pool) IsEqual(other api.MemoryResource) bool {
	oth, ok := other.(*Pool)
	return ok && oth == pool
}

// Poolsize current sum of upstream allocation sizes held by the pool,
// free as well as allocated.
func (pool *Pool) Poolsize() int64 {
	pool.mu.Lock()
	defer pool.mu.Unlock()
	return pool.currentpoolsize
}

// Release return every upstream block to the upstream resource and
// destroy per-stream events. Releasing an empty pool is a no-op, the
// pool shall not be used after Release.
func (pool *Pool) Release() {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	for {
		blk, ok := pool.upblocks.PopMin()
		if ok == false {
			break
		}
		pool.upstream.Free(blk.ptr, blk.size, api.LegacyStream)
	}
	pool.currentpoolsize = 0
	pool.releasestreams()
	pool.releasetracked()
	infof("%v released\n", pool.logprefix)
}

//---- policy{} interface.

// maxallocsize implement policy{} interface.
func (pool *Pool) maxallocsize() int64 {
	return pool.maxallocsz
}

// expandpool implement policy{} interface. Grow geometrically, by half
// the room left under maximumsize when one is configured, else by
// doubling the pool, and back off exponentially on upstream failure.
func (pool *Pool) expandpool(
	size int64, blocks *freelist, stream api.Stream) (block, error) {

	return pool.trytoexpand(pool.sizetogrow(size), size, stream)
}

// sizetogrow compute the size to try growing the pool by for a request
// of size bytes, zero when maximumsize cannot accommodate the request.
func (pool *Pool) sizetogrow(size int64) int64 {
	if pool.maximumsize >= 0 {
		remaining := alignup(pool.maximumsize-pool.currentpoolsize, api.Alignment)
		size = alignup(size, api.Alignment)
		if size > remaining {
			return 0
		}
		return maxint64(size, remaining/2)
	}
	return maxint64(size, pool.currentpoolsize)
}

// trytoexpand request trysize bytes from upstream, halving on failure,
// never below minsize. Only total failure surfaces as ErrorOutofMemory.
func (pool *Pool) trytoexpand(
	trysize, minsize int64, stream api.Stream) (block, error) {

	for trysize >= minsize {
		if blk, ok := pool.fromupstream(trysize, stream); ok {
			pool.currentpoolsize += blk.size
			debugf("%v grown by %v to %v\n",
				pool.logprefix, blk.size, pool.currentpoolsize)
			return blk, nil
		}
		if trysize == minsize {
			break // the minimum is tried only once
		}
		trysize = maxint64(minsize, trysize/2)
	}
	errorf("%v upstream refused %v bytes on stream %v\n",
		pool.logprefix, minsize, stream)
	return block{}, api.ErrorOutofMemory
}

// fromupstream allocate one pool block from the upstream resource and
// enter it into the ledger as a head block.
func (pool *Pool) fromupstream(size int64, stream api.Stream) (block, bool) {
	if size == 0 {
		return block{}, false
	}
	ptr, err := pool.upstream.Alloc(size, stream)
	if err != nil || ptr == 0 {
		return block{}, false
	}
	blk := block{ptr: ptr, size: size, head: true}
	pool.upblocks.Set(blk)
	return blk, true
}

// allocfromblock implement policy{} interface.
func (pool *Pool) allocfromblock(blk block, size int64) (alloc, rest block) {
	alloc, rest = blk.split(size)
	pool.trackalloc(alloc)
	return alloc, rest
}

// freeblock implement policy{} interface. The rebuilt block heads an
// upstream allocation iff ptr is in the ledger.
func (pool *Pool) freeblock(ptr api.Pointer, size int64) block {
	pool.trackfree(ptr, size)
	_, head := pool.upblocks.Get(block{ptr: ptr})
	return block{ptr: ptr, size: size, head: head}
}

// Validate walk the ledger and every free list verifying pool
// invariants, panics on violation.
func (pool *Pool) Validate() {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	total := int64(0)
	pool.upblocks.Scan(func(blk block) bool {
		total += blk.size
		return true
	})
	if total != pool.currentpoolsize {
		panicerr("validate: ledger %v != poolsize %v", total, pool.currentpoolsize)
	}
	if pool.maximumsize >= 0 && pool.currentpoolsize > pool.maximumsize {
		panicerr("validate: poolsize %v exceeds maximum %v",
			pool.currentpoolsize, pool.maximumsize)
	}
	for _, sf := range pool.streams {
		sf.blocks.audit()
	}
}
