package pool

import "sort"
import "sync"

import "github.com/bnclabs/godevmem/api"
import "github.com/bnclabs/godevmem/lib"

// policy hooks implemented by resources built on the stream ordered
// base. The base owns the per-stream free lists and the cross stream
// reuse protocol, the policy owns the upstream memory.
type policy interface {
	// maxallocsize largest single allocation served by the resource.
	maxallocsize() int64

	// expandpool obtain a block of at least size bytes from upstream
	// for use on stream. blocks is the caller's free list, policies
	// may consult it to choose a grow size.
	expandpool(size int64, blocks *freelist, stream api.Stream) (block, error)

	// allocfromblock carve size bytes from the front of blk.
	allocfromblock(blk block, size int64) (alloc, rest block)

	// freeblock rebuild the block that was handed out for (ptr, size).
	freeblock(ptr api.Pointer, size int64) block
}

// streamfree per stream state, created lazily when a stream first
// allocates or frees through the resource, lives until Release.
type streamfree struct {
	blocks *freelist
	event  api.Event // recorded after the most recent free on the stream
}

// streamordered base for suballocators serving several device streams
// out of shared free memory. A pointer freed on stream A may still be
// read by in-flight work on A, so the base makes stream B wait on A's
// availability event before any of A's free blocks migrate to B.
type streamordered struct {
	mu      sync.Mutex
	rt      api.Runtime
	pol     policy
	streams map[api.Stream]*streamfree

	// statistics
	n_allocs   int64
	n_frees    int64
	n_splits   int64
	n_reclaims int64
	n_expands  int64
	h_allocs   *lib.HistogramInt64
}

func (so *streamordered) init(rt api.Runtime, pol policy) {
	so.rt, so.pol = rt, pol
	so.streams = make(map[api.Stream]*streamfree)
	so.h_allocs = lib.NewhistorgramInt64(api.Alignment, 1024*1024, 64*1024)
}

// stream return per stream state, creating it on first use. Caller
// shall hold so.mu.
func (so *streamordered) stream(stream api.Stream) *streamfree {
	sf, ok := so.streams[stream]
	if ok == false {
		event, err := so.rt.NewEvent()
		if err != nil {
			panicerr("streamordered: event create: %v", err)
		}
		sf = &streamfree{blocks: newfreelist(), event: event}
		so.streams[stream] = sf
	}
	return sf
}

// streamids ascending list of streams known to the resource, reclaim
// scans pick their victims in this deterministic order.
func (so *streamordered) streamids() []api.Stream {
	ids := make([]api.Stream, 0, len(so.streams))
	for id := range so.streams {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// alloc device memory of size bytes for use on stream. Zero and
// negative sizes return the null pointer. The size is rounded up to
// the allocation alignment before it is served.
func (so *streamordered) alloc(size int64, stream api.Stream) (api.Pointer, error) {
	if size <= 0 {
		return 0, nil
	}

	so.mu.Lock()
	defer so.mu.Unlock()

	size = alignup(size, api.Alignment)
	if size > so.pol.maxallocsize() {
		return 0, api.ErrorSizeExceeded
	}
	blk, err := so.getblock(size, stream)
	if err != nil {
		return 0, err
	}
	alloc, rest := so.pol.allocfromblock(blk, size)
	if rest.isvalid() {
		so.n_splits++
		so.streams[stream].blocks.insert(rest)
	}
	so.n_allocs++
	so.h_allocs.Add(size)
	so.audit()
	return alloc.ptr, nil
}

// getblock find a block of at least size bytes for stream: the
// caller's free list first, then other streams' lists after inserting
// the required event-wait edge, finally the expandpool policy hook.
func (so *streamordered) getblock(size int64, stream api.Stream) (block, error) {
	sf := so.stream(stream)
	if blk, ok := sf.blocks.firstfit(size); ok {
		return blk, nil
	}

	for _, id := range so.streamids() {
		if id == stream {
			continue
		}
		other := so.streams[id]
		if other.blocks.canfit(size) == false {
			continue
		}
		// claiming stream waits for all work submitted to the victim
		// stream before its last free, then takes the whole list.
		if err := other.event.WaitBy(stream); err != nil {
			panicerr("streamordered: wait by %v on %v: %v", stream, id, err)
		}
		sf.blocks.merge(other.blocks)
		so.n_reclaims++
		debugf("stream %v reclaimed free list of stream %v\n", stream, id)
		if blk, ok := sf.blocks.firstfit(size); ok {
			return blk, nil
		}
	}

	blk, err := so.pol.expandpool(size, sf.blocks, stream)
	if err != nil {
		return block{}, err
	}
	so.n_expands++
	sf.blocks.insert(blk)
	blk, ok := sf.blocks.firstfit(size)
	if ok == false {
		panicerr("streamordered: expanded block lost for size %v", size)
	}
	return blk, nil
}

// free device memory allocated with alloc. size shall be the original
// allocation size, it is re-aligned here. Freeing the null pointer is
// a no-op. Records the stream's availability event before the block
// becomes claimable by other streams.
func (so *streamordered) free(ptr api.Pointer, size int64, stream api.Stream) {
	if ptr == 0 {
		return
	}

	so.mu.Lock()
	defer so.mu.Unlock()

	size = alignup(size, api.Alignment)
	blk := so.pol.freeblock(ptr, size)
	sf := so.stream(stream)
	if err := sf.event.Record(stream); err != nil {
		panicerr("streamordered: event record on %v: %v", stream, err)
	}
	sf.blocks.insert(blk)
	so.n_frees++
	so.audit()
}

// releasestreams destroy per stream events and drop every free list.
// Caller shall hold so.mu.
func (so *streamordered) releasestreams() {
	for _, sf := range so.streams {
		if err := sf.event.Destroy(); err != nil {
			panicerr("streamordered: event destroy: %v", err)
		}
	}
	so.streams = make(map[api.Stream]*streamfree)
}

// freesummary aggregate summary() across every stream's free list.
// Caller shall hold so.mu.
func (so *streamordered) freesummary() (largest, total int64, nblocks int) {
	for _, sf := range so.streams {
		big, tot := sf.blocks.summary()
		if big > largest {
			largest = big
		}
		total += tot
		nblocks += sf.blocks.len()
	}
	return largest, total, nblocks
}
