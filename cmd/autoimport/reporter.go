package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"autoimport/internal/fix"
)

// progressReporter prints the resolution log. Labels are right-aligned the
// way cargo prints its status lines.
type progressReporter struct {
	mu    sync.Mutex
	w     io.Writer
	label *color.Color
}

func newProgressReporter(w io.Writer) *progressReporter {
	return &progressReporter{w: w, label: color.New(color.FgGreen, color.Bold)}
}

func (r *progressReporter) line(label, format string, args ...any) {
	fmt.Fprintf(r.w, "%s %s\n", r.label.Sprintf("%12s", label), fmt.Sprintf(format, args...))
}

func (r *progressReporter) Ambiguity(ident string, between []fix.Candidate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.line("Ambiguity", "for %s", ident)
	r.line("Between", "%d items", len(between))
	for _, c := range between {
		r.line("", "%s", c)
	}
}

func (r *progressReporter) Picked(_ string, winner fix.Candidate, reason fix.Reason) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if reason == fix.ReasonRandom {
		r.line("Don't know", "which is best")
		r.line("Picking", "at random")
		r.line("Ended up with", "%s", winner)
		return
	}
	r.line("Picking", "%s", winner)
}

func (r *progressReporter) Injecting(c fix.Candidate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.line("Injecting", "for %s", c)
}
