package main

import "flag"
import "fmt"
import "math/rand"
import "os"
import "sync"

import "github.com/bnclabs/godevmem/api"
import "github.com/bnclabs/godevmem/pool"
import "github.com/bnclabs/godevmem/sim"
import "github.com/bnclabs/golog"
import s "github.com/bnclabs/gosettings"
import humanize "github.com/dustin/go-humanize"

var options struct {
	capacity int64
	initial  int64
	maximum  int64
	maxsize  int64
	streams  int
	n        int
	seed     int
	log      string
}

func argParse() {
	flag.Int64Var(&options.capacity, "capacity", 1024*1024*1024,
		"size of the simulated device memory")
	flag.Int64Var(&options.initial, "initial", -1,
		"initial pool size, -1 for half of free device memory")
	flag.Int64Var(&options.maximum, "maximum", -1,
		"maximum pool size, -1 for unbounded")
	flag.Int64Var(&options.maxsize, "maxsize", 1024*1024,
		"largest single allocation in the workload")
	flag.IntVar(&options.streams, "streams", 4,
		"number of concurrent streams, one routine per stream")
	flag.IntVar(&options.n, "n", 100000,
		"number of alloc or free operations per stream")
	flag.IntVar(&options.seed, "seed", 42,
		"seed for the random workload")
	flag.StringVar(&options.log, "log", "info", "log level")
	flag.Parse()
}

func main() {
	argParse()

	setts := map[string]interface{}{"log.level": options.log, "log.file": ""}
	log.SetLogger(nil, setts)
	pool.LogComponents("self")

	rt := sim.NewRuntime(s.Settings{"capacity": options.capacity})
	upstream := rt.NewResource(nil)
	poolsetts := s.Settings{
		"initialsize": options.initial,
		"maximumsize": options.maximum,
	}
	mpool, err := pool.NewPool("devmem", upstream, rt, poolsetts)
	if err != nil {
		fmt.Printf("NewPool: %v\n", err)
		os.Exit(1)
	}

	var wg sync.WaitGroup
	wg.Add(options.streams)
	for i := 0; i < options.streams; i++ {
		go worker(mpool, rt, api.Stream(i+1), int64(options.seed+i), &wg)
	}
	wg.Wait()

	report(mpool, upstream, rt)
	mpool.Release()
}

func worker(
	mpool *pool.Pool, rt *sim.Runtime, stream api.Stream, seed int64,
	wg *sync.WaitGroup) {

	defer wg.Done()

	rnd := rand.New(rand.NewSource(seed))
	type allocation struct {
		ptr  api.Pointer
		size int64
	}
	live := []allocation{}
	for i := 0; i < options.n; i++ {
		if len(live) > 0 && rnd.Intn(3) == 0 {
			idx := rnd.Intn(len(live))
			msg := live[idx]
			live[idx] = live[len(live)-1]
			live = live[:len(live)-1]
			mpool.Free(msg.ptr, msg.size, stream)
			continue
		}
		size := rnd.Int63n(options.maxsize) + 1
		ptr, err := mpool.Alloc(size, stream)
		if err != nil {
			fmt.Printf("stream %v Alloc %v: %v\n", stream, size, err)
			os.Exit(2)
		}
		rt.Submit(stream)
		live = append(live, allocation{ptr: ptr, size: size})
	}
	for _, msg := range live {
		mpool.Free(msg.ptr, msg.size, stream)
	}
}

func report(mpool *pool.Pool, upstream *sim.Resource, rt *sim.Runtime) {
	stats := mpool.Stats()
	fmt.Printf("pool size       : %v in %v upstream blocks\n",
		humanize.IBytes(uint64(stats["poolsize"].(int64))),
		stats["n_upblocks"])
	fmt.Printf("allocations     : %v allocs, %v frees, %v splits\n",
		stats["n_allocs"], stats["n_frees"], stats["n_splits"])
	fmt.Printf("stream traffic  : %v reclaims across %v streams, %v waits\n",
		stats["n_reclaims"], stats["n_streams"], len(rt.Waits()))
	fmt.Printf("upstream growth : %v expansions\n", stats["n_expands"])
	fmt.Printf("free memory     : %v across %v blocks, largest %v\n",
		humanize.IBytes(uint64(stats["freetotal"].(int64))),
		stats["n_freeblocks"],
		humanize.IBytes(uint64(stats["freelargest"].(int64))))
	allocs, frees := upstream.Counts()
	fmt.Printf("upstream calls  : %v allocs, %v frees\n", allocs, frees)
	mpool.Log()
}
