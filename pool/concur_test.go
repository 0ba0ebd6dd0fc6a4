package pool

import "math/rand"
import "sync"
import "testing"

import "github.com/bnclabs/godevmem/api"
import "github.com/bnclabs/godevmem/sim"
import s "github.com/bnclabs/gosettings"

type testalloc struct {
	ptr  api.Pointer
	size int64
}

func TestConcur(t *testing.T) {
	rt := sim.NewRuntime(s.Settings{"capacity": 16 * tMiB})
	upstream := rt.NewResource(nil)
	setts := s.Settings{"initialsize": 1 * tMiB}
	pool, err := NewPool("concur", upstream, rt, setts)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}

	sA, sB := api.Stream(1), api.Stream(2)
	repeat := 100
	ch := make(chan testalloc, repeat)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { // allocate on sA, hand pointers over
		defer wg.Done()
		defer close(ch)
		for i := 0; i < repeat; i++ {
			size := int64(rand.Intn(int(32*tKiB))) + 1
			ptr, err := pool.Alloc(size, sA)
			if err != nil {
				t.Errorf("Alloc %v: %v", size, err)
				return
			}
			rt.Submit(sA)
			ch <- testalloc{ptr: ptr, size: size}
		}
	}()
	go func() { // free on sB
		defer wg.Done()
		for msg := range ch {
			pool.Free(msg.ptr, msg.size, sB)
		}
	}()
	wg.Wait()

	pool.Validate()
	pool.Release()
	allocs, frees := upstream.Counts()
	if allocs != frees {
		t.Errorf("expected %v frees, got %v", allocs, frees)
	}
}

func TestConcurStreams(t *testing.T) {
	rt := sim.NewRuntime(s.Settings{"capacity": 64 * tMiB})
	upstream := rt.NewResource(nil)
	setts := s.Settings{"initialsize": 4 * tMiB}
	pool, err := NewPool("concurstreams", upstream, rt, setts)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}

	nroutines, repeat := 8, 500
	var wg sync.WaitGroup
	wg.Add(nroutines)
	for n := 0; n < nroutines; n++ {
		go func(stream api.Stream) {
			defer wg.Done()
			live := []testalloc{}
			for i := 0; i < repeat; i++ {
				if len(live) > 0 && rand.Intn(3) == 0 {
					msg := live[len(live)-1]
					live = live[:len(live)-1]
					pool.Free(msg.ptr, msg.size, stream)
					continue
				}
				size := int64(rand.Intn(int(8*tKiB))) + 1
				ptr, err := pool.Alloc(size, stream)
				if err != nil {
					t.Errorf("Alloc %v: %v", size, err)
					return
				}
				live = append(live, testalloc{ptr: ptr, size: size})
			}
			for _, msg := range live {
				pool.Free(msg.ptr, msg.size, stream)
			}
		}(api.Stream(n + 1))
	}
	wg.Wait()

	pool.Validate()
	pool.Release()
	allocs, frees := upstream.Counts()
	if allocs != frees {
		t.Errorf("expected %v frees, got %v", allocs, frees)
	}
}
