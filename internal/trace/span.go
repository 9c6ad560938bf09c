package trace

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"
)

var (
	seq     atomic.Uint64
	spanIDs atomic.Uint64
)

func nextSeq() uint64 { return seq.Add(1) }

// Span is an open begin/end pair. A span from a tracer that drops its scope
// is inert but still measures time.
type Span struct {
	tracer  Tracer
	at      where
	id      uint64
	parent  uint64
	scope   Scope
	name    string
	started time.Time
	fields  map[string]string
}

// Start opens a span under the current span of ctx and returns a context in
// which the new span is current.
func Start(ctx context.Context, scope Scope, name string) (context.Context, *Span) {
	t := FromContext(ctx)
	at := whereOf(ctx)
	s := &Span{at: at, parent: at.span, scope: scope, name: name, started: time.Now()}
	if !t.Level().keepsScope(scope) {
		return ctx, s
	}
	s.tracer = t
	s.id = spanIDs.Add(1)
	t.Emit(s.event(KindBegin, s.started))

	at.span = s.id
	return context.WithValue(ctx, whereKey{}, at), s
}

func (s *Span) event(kind Kind, now time.Time) *Event {
	return &Event{
		Time:     now,
		Seq:      nextSeq(),
		Kind:     kind,
		Scope:    s.scope,
		SpanID:   s.id,
		ParentID: s.parent,
		Unit:     s.at.unit,
		Attempt:  s.at.attempt,
		Name:     s.name,
	}
}

// Set records a field reported with the end event.
func (s *Span) Set(key, value string) *Span {
	if s == nil || s.tracer == nil {
		return s
	}
	if s.fields == nil {
		s.fields = make(map[string]string)
	}
	s.fields[key] = value
	return s
}

// SetInt is Set for counters.
func (s *Span) SetInt(key string, n int) *Span {
	if s == nil || s.tracer == nil {
		return s
	}
	return s.Set(key, strconv.Itoa(n))
}

// End closes the span and returns how long it was open.
func (s *Span) End(detail string) time.Duration {
	if s == nil {
		return 0
	}
	now := time.Now()
	elapsed := now.Sub(s.started)
	if s.tracer == nil {
		return elapsed
	}
	ev := s.event(KindEnd, now)
	ev.Detail = detail
	ev.Elapsed = elapsed
	ev.Fields = s.fields
	s.tracer.Emit(ev)
	return elapsed
}

// ID is 0 for an inert span.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}
