package trace

import "context"

type tracerKey struct{}

// where is what the events emitted under a context are about.
type where struct {
	span    uint64
	unit    string
	attempt int
}

type whereKey struct{}

// WithTracer attaches t to ctx. A nil t means Nop.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, tracerKey{}, t)
}

// FromContext returns the tracer of ctx, Nop when there is none.
func FromContext(ctx context.Context) Tracer {
	if ctx == nil {
		return Nop
	}
	if t, ok := ctx.Value(tracerKey{}).(Tracer); ok {
		return t
	}
	return Nop
}

func whereOf(ctx context.Context) where {
	if ctx == nil {
		return where{}
	}
	w, _ := ctx.Value(whereKey{}).(where)
	return w
}

// ForUnit labels every event emitted under the returned context with unit.
// The attempt number is reset.
func ForUnit(ctx context.Context, unit string) context.Context {
	w := whereOf(ctx)
	w.unit, w.attempt = unit, 0
	return context.WithValue(ctx, whereKey{}, w)
}

// ForAttempt labels events with the attempt number n of the current unit.
func ForAttempt(ctx context.Context, n int) context.Context {
	w := whereOf(ctx)
	w.attempt = n
	return context.WithValue(ctx, whereKey{}, w)
}

// CurrentSpan is the innermost span opened with Start, 0 if none.
func CurrentSpan(ctx context.Context) uint64 {
	return whereOf(ctx).span
}
