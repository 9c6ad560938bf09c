package trace

import (
	"errors"
	"io"
	"os"
	"sync"
)

// Stream writes every kept event to w as it arrives. Write errors are dropped:
// a broken trace file must not fail the build.
type Stream struct {
	mu     sync.Mutex
	w      io.Writer
	level  Level
	format Format
}

func NewStream(w io.Writer, level Level, format Format) *Stream {
	if format == FormatAuto {
		format = FormatText
	}
	return &Stream{w: w, level: level, format: format}
}

func (s *Stream) Emit(ev *Event) {
	// at LevelError only the ring records
	if s.level <= LevelError || !s.level.Keeps(ev) {
		return
	}
	line := FormatEvent(ev, s.format)
	s.mu.Lock()
	_, _ = s.w.Write(line)
	s.mu.Unlock()
}

func (s *Stream) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// Close flushes and closes the output unless it is stdout or stderr.
func (s *Stream) Close() error {
	err := s.Flush()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.w == os.Stdout || s.w == os.Stderr {
		return err
	}
	if c, ok := s.w.(io.Closer); ok {
		err = errors.Join(err, c.Close())
	}
	return err
}

func (s *Stream) Level() Level { return s.level }

// Tee hands every event to each of its tracers.
type Tee struct {
	tracers []Tracer
	level   Level
}

func NewTee(level Level, tracers ...Tracer) *Tee {
	return &Tee{tracers: tracers, level: level}
}

func (t *Tee) Emit(ev *Event) {
	for _, sub := range t.tracers {
		cp := *ev
		sub.Emit(&cp)
	}
}

func (t *Tee) Flush() error {
	var errs []error
	for _, sub := range t.tracers {
		errs = append(errs, sub.Flush())
	}
	return errors.Join(errs...)
}

func (t *Tee) Close() error {
	var errs []error
	for _, sub := range t.tracers {
		errs = append(errs, sub.Close())
	}
	return errors.Join(errs...)
}

func (t *Tee) Level() Level { return t.level }
