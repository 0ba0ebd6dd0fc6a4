package pool

import humanize "github.com/dustin/go-humanize"

// Stats return a map of pool counters and free list summaries:
//
//	n_allocs, n_frees     number of Alloc and Free calls served.
//	n_splits              allocations that split a larger free block.
//	n_reclaims            free lists claimed across streams.
//	n_expands             upstream expansions after initialization.
//	n_streams             streams with per-stream state.
//	n_upblocks            blocks held from upstream.
//	n_freeblocks          blocks across all free lists.
//	poolsize, maximumsize pool counters, maximumsize -1 if unbounded.
//	freelargest, freetotal free list summary across streams.
//	h_allocs              histogram of aligned allocation sizes.
func (pool *Pool) Stats() map[string]interface{} {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	largest, total, nblocks := pool.freesummary()
	return map[string]interface{}{
		"n_allocs":     pool.n_allocs,
		"n_frees":      pool.n_frees,
		"n_splits":     pool.n_splits,
		"n_reclaims":   pool.n_reclaims,
		"n_expands":    pool.n_expands,
		"n_streams":    int64(len(pool.streams)),
		"n_upblocks":   int64(pool.upblocks.Len()),
		"n_freeblocks": int64(nblocks),
		"poolsize":     pool.currentpoolsize,
		"maximumsize":  pool.maximumsize,
		"freelargest":  largest,
		"freetotal":    total,
		"h_allocs":     pool.h_allocs.Fullstats(),
	}
}

// Log vital pool statistics.
func (pool *Pool) Log() {
	stats := pool.Stats()
	poolsize := humanize.IBytes(uint64(stats["poolsize"].(int64)))
	freetotal := humanize.IBytes(uint64(stats["freetotal"].(int64)))
	freelargest := humanize.IBytes(uint64(stats["freelargest"].(int64)))
	infof("%v poolsize %v in %v upstream blocks\n",
		pool.logprefix, poolsize, stats["n_upblocks"])
	infof("%v free %v across %v blocks, largest %v\n",
		pool.logprefix, freetotal, stats["n_freeblocks"], freelargest)
	infof("%v h_allocs %v\n", pool.logprefix, pool.h_allocs.Logstring())
}
