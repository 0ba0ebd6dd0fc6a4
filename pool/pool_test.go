package pool

import "math/rand"
import "testing"

import "github.com/bnclabs/godevmem/api"
import "github.com/bnclabs/godevmem/sim"
import s "github.com/bnclabs/gosettings"

const tKiB = int64(1024)
const tMiB = int64(1024 * 1024)

func makepool(
	t *testing.T, capacity int64, setts s.Settings,
) (*Pool, *sim.Runtime, *sim.Resource) {

	rt := sim.NewRuntime(s.Settings{"capacity": capacity})
	upstream := rt.NewResource(nil)
	pool, err := NewPool("testpool", upstream, rt, setts)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	return pool, rt, upstream
}

func TestNewPoolValidation(t *testing.T) {
	rt := sim.NewRuntime(s.Settings{"capacity": 4 * tMiB})
	upstream := rt.NewResource(nil)

	if _, err := NewPool("p", nil, rt, nil); err != api.ErrorInvalidArg {
		t.Errorf("expected %v, got %v", api.ErrorInvalidArg, err)
	}
	if _, err := NewPool("p", upstream, nil, nil); err != api.ErrorInvalidArg {
		t.Errorf("expected %v, got %v", api.ErrorInvalidArg, err)
	}
	setts := s.Settings{"initialsize": int64(1000)}
	if _, err := NewPool("p", upstream, rt, setts); err != api.ErrorInvalidArg {
		t.Errorf("expected %v, got %v", api.ErrorInvalidArg, err)
	}
	setts = s.Settings{"maximumsize": int64(1000)}
	if _, err := NewPool("p", upstream, rt, setts); err != api.ErrorInvalidArg {
		t.Errorf("expected %v, got %v", api.ErrorInvalidArg, err)
	}
	setts = s.Settings{"initialsize": 2 * tMiB, "maximumsize": 1 * tMiB}
	if _, err := NewPool("p", upstream, rt, setts); err != api.ErrorInvalidArg {
		t.Errorf("expected %v, got %v", api.ErrorInvalidArg, err)
	}
	// upstream refuses even the minimum.
	setts = s.Settings{"initialsize": 8 * tMiB}
	if _, err := NewPool("p", upstream, rt, setts); err != api.ErrorOutofMemory {
		t.Errorf("expected %v, got %v", api.ErrorOutofMemory, err)
	}
}

func TestNewPoolDefaultsize(t *testing.T) {
	// half of free device memory, via upstream mem-info.
	pool, _, _ := makepool(t, 4*tMiB, nil)
	if x := pool.Poolsize(); x != 2*tMiB {
		t.Errorf("expected %v, got %v", 2*tMiB, x)
	}
	pool.Release()

	// upstream without mem-info falls back to the runtime query.
	rt := sim.NewRuntime(s.Settings{"capacity": 4 * tMiB})
	upstream := rt.NewResource(s.Settings{"meminfo": false})
	pool, err := NewPool("testpool", upstream, rt, nil)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	if x := pool.Poolsize(); x != 2*tMiB {
		t.Errorf("expected %v, got %v", 2*tMiB, x)
	}
	pool.Release()
}

func TestPoolSuballocate(t *testing.T) {
	setts := s.Settings{"initialsize": 1 * tMiB, "maximumsize": 2 * tMiB}
	pool, _, upstream := makepool(t, 4*tMiB, setts)
	s0 := api.LegacyStream

	a, err := pool.Alloc(512*tKiB, s0)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	b, err := pool.Alloc(512*tKiB, s0)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if a == b {
		t.Errorf("duplicate pointer %x", uintptr(a))
	} else if b != a+api.Pointer(512*tKiB) {
		t.Errorf("expected %x, got %x", uintptr(a+api.Pointer(512*tKiB)), uintptr(b))
	} else if x := pool.Poolsize(); x != 1*tMiB {
		t.Errorf("expected %v, got %v", 1*tMiB, x)
	}
	pool.Validate()

	// grows by the request, which takes all the room under the maximum.
	c, err := pool.Alloc(1*tMiB, s0)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if c == 0 {
		t.Errorf("unexpected null pointer")
	} else if x := pool.Poolsize(); x != 2*tMiB {
		t.Errorf("expected %v, got %v", 2*tMiB, x)
	}
	pool.Validate()

	// pool is full now, even one byte cannot be served.
	if _, err := pool.Alloc(1, s0); err != api.ErrorOutofMemory {
		t.Errorf("expected %v, got %v", api.ErrorOutofMemory, err)
	}

	pool.Release()
	allocs, frees := upstream.Counts()
	if allocs != frees {
		t.Errorf("expected %v frees, got %v", allocs, frees)
	}
}

func TestPoolReuse(t *testing.T) {
	setts := s.Settings{"initialsize": 1 * tMiB}
	pool, _, _ := makepool(t, 16*tMiB, setts)
	s0 := api.LegacyStream

	first, err := pool.Alloc(4*tKiB, s0)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	pool.Free(first, 4*tKiB, s0)
	for i := 0; i < 100; i++ {
		ptr, err := pool.Alloc(4*tKiB, s0)
		if err != nil {
			t.Fatalf("Alloc: %v", err)
		} else if ptr != first {
			t.Errorf("expected %x, got %x", uintptr(first), uintptr(ptr))
		}
		pool.Free(ptr, 4*tKiB, s0)
	}
	if x := pool.Poolsize(); x != 1*tMiB {
		t.Errorf("expected %v, got %v", 1*tMiB, x)
	}
	pool.Validate()
	pool.Release()
}

func TestPoolCrossStream(t *testing.T) {
	setts := s.Settings{"initialsize": 1 * tMiB}
	pool, rt, _ := makepool(t, 16*tMiB, setts)
	sA, sB := api.Stream(1), api.Stream(2)

	p, err := pool.Alloc(1*tMiB, sA)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	rt.Submit(sA) // in-flight work reading p
	pool.Free(p, 1*tMiB, sA)

	q, err := pool.Alloc(1*tMiB, sB)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if q != p {
		t.Errorf("expected %x, got %x", uintptr(p), uintptr(q))
	}
	// before q was returned, sB shall have waited on sA's event.
	waited := false
	for _, wait := range rt.Waits() {
		if wait.From == sB && wait.On == sA && wait.Seq == 1 {
			waited = true
		}
	}
	if waited == false {
		t.Errorf("missing wait edge %v on %v: %v", sB, sA, rt.Waits())
	}
	pool.Validate()
	pool.Release()
}

func TestPoolBoundaries(t *testing.T) {
	setts := s.Settings{"initialsize": 1 * tMiB, "maxallocsize": 64 * tKiB}
	pool, _, upstream := makepool(t, 16*tMiB, setts)
	s0 := api.LegacyStream

	// zero size allocation returns the null pointer, no block recorded.
	nallocs := pool.Stats()["n_allocs"].(int64)
	ptr, err := pool.Alloc(0, s0)
	if err != nil || ptr != 0 {
		t.Errorf("unexpected %x, %v", uintptr(ptr), err)
	}
	if x := pool.Stats()["n_allocs"].(int64); x != nallocs {
		t.Errorf("expected %v, got %v", nallocs, x)
	}
	pool.Free(0, 0, s0) // no-op

	// sizes are aligned up before the maxallocsize check.
	if _, err := pool.Alloc(64*tKiB+1, s0); err != api.ErrorSizeExceeded {
		t.Errorf("expected %v, got %v", api.ErrorSizeExceeded, err)
	}
	if ptr, err := pool.Alloc(64*tKiB, s0); err != nil || ptr == 0 {
		t.Errorf("unexpected %x, %v", uintptr(ptr), err)
	}

	// a one byte allocation occupies one alignment unit.
	one, err := pool.Alloc(1, s0)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	next, err := pool.Alloc(1, s0)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if next != one+api.Pointer(api.Alignment) {
		t.Errorf("expected %x, got %x",
			uintptr(one+api.Pointer(api.Alignment)), uintptr(next))
	}

	pool.Release()
	allocs, frees := upstream.Counts()
	if allocs != frees {
		t.Errorf("expected %v frees, got %v", allocs, frees)
	}
}

func TestPoolGrowth(t *testing.T) {
	// no maximum, growth doubles the pool.
	setts := s.Settings{"initialsize": 256 * tKiB}
	pool, _, _ := makepool(t, 64*tMiB, setts)
	s0 := api.LegacyStream

	ptrs := []api.Pointer{}
	for i := 0; i < 16; i++ {
		ptr, err := pool.Alloc(256*tKiB, s0)
		if err != nil {
			t.Fatalf("Alloc %v: %v", i, err)
		}
		ptrs = append(ptrs, ptr)
	}
	if x := pool.Poolsize(); x < 16*256*tKiB {
		t.Errorf("expected at least %v, got %v", 16*256*tKiB, x)
	}
	pool.Validate()
	for _, ptr := range ptrs {
		pool.Free(ptr, 256*tKiB, s0)
	}
	pool.Validate()
	pool.Release()
}

func TestPoolBackoff(t *testing.T) {
	// geometric growth overshoots the simulated capacity, the pool
	// shall back off to the minimum instead of failing.
	setts := s.Settings{"initialsize": 1 * tMiB}
	pool, _, _ := makepool(t, 2*tMiB+512*tKiB, setts)
	s0 := api.LegacyStream

	for _, size := range []int64{1 * tMiB, 512 * tKiB, 512 * tKiB} {
		if _, err := pool.Alloc(size, s0); err != nil {
			t.Fatalf("Alloc %v: %v", size, err)
		}
	}
	if x := pool.Poolsize(); x != 2*tMiB {
		t.Errorf("expected %v, got %v", 2*tMiB, x)
	}
	// doubling asks upstream for another 2MiB, more than it has left,
	// the pool backs off halving until the 512KiB minimum succeeds.
	if _, err := pool.Alloc(512*tKiB, s0); err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if x := pool.Poolsize(); x != 2*tMiB+512*tKiB {
		t.Errorf("expected %v, got %v", 2*tMiB+512*tKiB, x)
	}
	pool.Validate()
	pool.Release()
}

func TestPoolRelease(t *testing.T) {
	setts := s.Settings{"initialsize": 1 * tMiB}
	pool, rt, upstream := makepool(t, 16*tMiB, setts)
	s0 := api.LegacyStream

	ptr, err := pool.Alloc(4*tKiB, s0)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	pool.Free(ptr, 4*tKiB, s0)

	pool.Release()
	allocs, frees := upstream.Counts()
	if allocs != 1 || frees != 1 {
		t.Errorf("expected 1/1, got %v/%v", allocs, frees)
	}
	if x := pool.Poolsize(); x != 0 {
		t.Errorf("expected %v, got %v", 0, x)
	}
	if x := rt.Events(); x != 0 {
		t.Errorf("expected no live events, got %v", x)
	}

	// releasing an already empty pool is a no-op.
	pool.Release()
	allocs, frees = upstream.Counts()
	if allocs != 1 || frees != 1 {
		t.Errorf("expected 1/1, got %v/%v", allocs, frees)
	}
}

func TestPoolInterface(t *testing.T) {
	setts := s.Settings{"initialsize": 1 * tMiB}
	pool, _, upstream := makepool(t, 16*tMiB, setts)
	other, _, _ := makepool(t, 16*tMiB, setts)

	var mr api.MemoryResource = pool
	if mr.SupportsStreams() == false {
		t.Errorf("expected streams support")
	} else if mr.SupportsMemInfo() {
		t.Errorf("unexpected mem-info support")
	}
	if free, total := mr.MemInfo(api.LegacyStream); free != 0 || total != 0 {
		t.Errorf("expected zeros, got %v, %v", free, total)
	}
	if mr.IsEqual(pool) == false {
		t.Errorf("expected pool equal to itself")
	} else if mr.IsEqual(other) {
		t.Errorf("unexpected equality with another pool")
	} else if mr.IsEqual(upstream) {
		t.Errorf("unexpected equality with upstream")
	}
	other.Release()
	pool.Release()
}

func TestPoolStacked(t *testing.T) {
	// a pool can itself be the upstream of another pool.
	rt := sim.NewRuntime(s.Settings{"capacity": 16 * tMiB})
	upstream := rt.NewResource(nil)
	outer, err := NewPool("outer", upstream, rt, s.Settings{"initialsize": 4 * tMiB})
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	inner, err := NewPool("inner", outer, rt, s.Settings{"initialsize": 1 * tMiB})
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	if x := outer.Poolsize(); x != 4*tMiB {
		t.Errorf("expected %v, got %v", 4*tMiB, x)
	} else if x := inner.Poolsize(); x != 1*tMiB {
		t.Errorf("expected %v, got %v", 1*tMiB, x)
	}
	ptr, err := inner.Alloc(4*tKiB, api.LegacyStream)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	inner.Free(ptr, 4*tKiB, api.LegacyStream)
	inner.Validate()
	outer.Validate()
	inner.Release()
	outer.Release()
	allocs, frees := upstream.Counts()
	if allocs != frees {
		t.Errorf("expected %v frees, got %v", allocs, frees)
	}
}

func TestPoolRandom(t *testing.T) {
	setts := s.Settings{"initialsize": 1 * tMiB}
	pool, _, upstream := makepool(t, 64*tMiB, setts)
	s0 := api.LegacyStream

	live := map[api.Pointer]int64{}
	for i := 0; i < 2000; i++ {
		if len(live) > 0 && rand.Intn(2) == 0 {
			for ptr, size := range live {
				pool.Free(ptr, size, s0)
				delete(live, ptr)
				break
			}
			continue
		}
		size := int64(rand.Intn(int(64*tKiB))) + 1
		ptr, err := pool.Alloc(size, s0)
		if err != nil {
			t.Fatalf("Alloc %v: %v", size, err)
		}
		if _, ok := live[ptr]; ok {
			t.Fatalf("duplicate live pointer %x", uintptr(ptr))
		}
		live[ptr] = size
		if i%100 == 0 {
			pool.Validate()
		}
	}
	for ptr, size := range live {
		pool.Free(ptr, size, s0)
	}
	pool.Validate()
	pool.Log()

	pool.Release()
	allocs, frees := upstream.Counts()
	if allocs != frees {
		t.Errorf("expected %v frees, got %v", allocs, frees)
	}
}
