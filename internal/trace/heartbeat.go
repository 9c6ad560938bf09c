package trace

import (
	"fmt"
	"slices"
	"sync"
	"time"
)

// Heartbeat wraps a tracer and, while no span is closing, reports every
// interval which span the build is waiting in. Subprocesses have no timeout,
// so a trace that only beats points at a compiler that hangs.
type Heartbeat struct {
	Tracer
	interval time.Duration

	mu    sync.Mutex
	open  []Event // spans begun and not yet ended, innermost last
	since time.Time

	stop chan struct{}
	once sync.Once
	done sync.WaitGroup
}

// WithHeartbeat starts beating on t. Stop it with Close.
func WithHeartbeat(t Tracer, interval time.Duration) *Heartbeat {
	h := &Heartbeat{Tracer: t, interval: interval, since: time.Now(), stop: make(chan struct{})}
	h.done.Add(1)
	go h.run()
	return h
}

func (h *Heartbeat) Emit(ev *Event) {
	h.mu.Lock()
	switch ev.Kind {
	case KindBegin:
		h.open = append(h.open, *ev)
		h.since = ev.Time
	case KindEnd:
		h.open = slices.DeleteFunc(h.open, func(o Event) bool { return o.SpanID == ev.SpanID })
		h.since = ev.Time
	}
	h.mu.Unlock()
	h.Tracer.Emit(ev)
}

func (h *Heartbeat) run() {
	defer h.done.Done()
	tick := time.NewTicker(h.interval)
	defer tick.Stop()
	for {
		select {
		case now := <-tick.C:
			h.Tracer.Emit(h.beat(now))
		case <-h.stop:
			return
		}
	}
}

func (h *Heartbeat) beat(now time.Time) *Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	ev := &Event{Time: now, Seq: nextSeq(), Kind: KindHeartbeat, Scope: ScopeDriver, Name: "waiting"}
	quiet := now.Sub(h.since).Round(time.Millisecond)
	if n := len(h.open); n > 0 {
		w := h.open[n-1]
		ev.Unit, ev.Attempt, ev.ParentID = w.Unit, w.Attempt, w.SpanID
		ev.Detail = fmt.Sprintf("in %s for %s", w.Name, quiet)
	} else {
		ev.Detail = fmt.Sprintf("idle for %s", quiet)
	}
	return ev
}

// Close stops the beat, then closes the wrapped tracer. Safe to call twice.
func (h *Heartbeat) Close() error {
	h.once.Do(func() { close(h.stop) })
	h.done.Wait()
	return h.Tracer.Close()
}
