package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"

	"autoimport/internal/fix"
)

func TestProgressReporterWording(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	var buf bytes.Buffer
	r := newProgressReporter(&buf)
	r.Ambiguity("foo", []fix.Candidate{"crate_a::foo", "crate_b::foo"})
	r.Picked("foo", "crate_b::foo", fix.ReasonRandom)
	r.Picked("Range", "std::ops::Range", fix.ReasonPreferred)
	r.Injecting("crate_b::foo")

	want := strings.Join([]string{
		"   Ambiguity for foo",
		"     Between 2 items",
		"             crate_a::foo",
		"             crate_b::foo",
		"  Don't know which is best",
		"     Picking at random",
		"Ended up with crate_b::foo",
		"     Picking std::ops::Range",
		"   Injecting for crate_b::foo",
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Fatalf("reporter output:\n%s\nwant:\n%s", got, want)
	}
}
