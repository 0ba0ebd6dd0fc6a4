package sim

import "sync"

import "github.com/bnclabs/godevmem/api"
import s "github.com/bnclabs/gosettings"
import "github.com/cloudfoundry/gosigar"

// Wait one stream-wait-event edge inserted through the runtime, From
// was made to wait for work recorded on stream On up to ticket Seq.
type Wait struct {
	From api.Stream
	On   api.Stream
	Seq  uint64
}

// Runtime simulated accelerator driver implementing api.Runtime.
// Streams are plain tickets, Submit counts work on a stream, Record
// captures the count, and every WaitBy edge is remembered for
// inspection.
type Runtime struct {
	mu       sync.Mutex
	capacity int64
	seqnos   map[api.Stream]uint64
	waits    []Wait
	n_events int64
}

// NewRuntime create a simulated device.
func NewRuntime(setts s.Settings) *Runtime {
	setts = make(s.Settings).Mixin(Defaultsettings(), setts)
	capacity := setts.Int64("capacity")
	if capacity < 0 {
		mem := sigar.Mem{}
		mem.Get()
		capacity = int64(mem.Free / 2)
	}
	return &Runtime{
		capacity: capacity,
		seqnos:   make(map[api.Stream]uint64),
	}
}

// Submit count one unit of work, like a kernel launch, on stream and
// return the stream's ticket.
func (rt *Runtime) Submit(stream api.Stream) uint64 {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.seqnos[stream]++
	return rt.seqnos[stream]
}

// NewEvent implement api.Runtime{} interface.
func (rt *Runtime) NewEvent() (api.Event, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.n_events++
	return &Event{rt: rt}, nil
}

// MemInfo implement api.Runtime{} interface. The simulated device
// reports its full capacity as free.
func (rt *Runtime) MemInfo() (free, total int64, err error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.capacity, rt.capacity, nil
}

// Waits return a copy of every stream-wait edge inserted so far.
func (rt *Runtime) Waits() []Wait {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	waits := make([]Wait, len(rt.waits))
	copy(waits, rt.waits)
	return waits
}

// Events number of live events on the device.
func (rt *Runtime) Events() int64 {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.n_events
}

// Event simulated device event implementing api.Event.
type Event struct {
	rt        *Runtime
	recorded  bool
	stream    api.Stream
	seq       uint64
	destroyed bool
}

// Record implement api.Event{} interface.
func (ev *Event) Record(stream api.Stream) error {
	ev.rt.mu.Lock()
	defer ev.rt.mu.Unlock()
	if ev.destroyed {
		return api.ErrorClosed
	}
	ev.recorded, ev.stream, ev.seq = true, stream, ev.rt.seqnos[stream]
	return nil
}

// WaitBy implement api.Event{} interface. Waiting on an event that was
// never recorded is a no-op, as on real devices.
func (ev *Event) WaitBy(stream api.Stream) error {
	ev.rt.mu.Lock()
	defer ev.rt.mu.Unlock()
	if ev.destroyed {
		return api.ErrorClosed
	}
	if ev.recorded {
		ev.rt.waits = append(
			ev.rt.waits, Wait{From: stream, On: ev.stream, Seq: ev.seq})
	}
	return nil
}

// Synchronize implement api.Event{} interface. Simulated work
// completes instantly.
func (ev *Event) Synchronize() error {
	if ev.destroyed {
		return api.ErrorClosed
	}
	return nil
}

// Destroy implement api.Event{} interface.
func (ev *Event) Destroy() error {
	ev.rt.mu.Lock()
	defer ev.rt.mu.Unlock()
	if ev.destroyed {
		return api.ErrorClosed
	}
	ev.destroyed = true
	ev.rt.n_events--
	return nil
}
