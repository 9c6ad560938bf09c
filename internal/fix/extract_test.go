package fix

import (
	"slices"
	"testing"

	"autoimport/internal/diag"
)

func strPtr(s string) *string { return &s }

func collect(rec *diag.Record) []Candidate {
	var out []Candidate
	for c := range Extract(rec) {
		out = append(out, c)
	}
	return out
}

func TestExtractMissingMacroManyItems(t *testing.T) {
	rec := &diag.Record{
		Message: "cannot find macro `foo` in this scope",
		Level:   "error",
		Children: []diag.Record{{
			Message: "consider importing one of these items:\ncrate_a::foo\n\ncrate_b::foo\n",
			Level:   "help",
		}},
	}
	got := collect(rec)
	want := []Candidate{"crate_a::foo", "crate_b::foo"}
	if !slices.Equal(got, want) {
		t.Fatalf("Extract = %v, want %v", got, want)
	}
}

func TestExtractMissingMacroSingleItem(t *testing.T) {
	rec := &diag.Record{
		Message:  "cannot find macro `vec_deque` in this scope",
		Children: []diag.Record{{Message: "consider importing this macro:\ncrate::vec_deque"}},
	}
	got := collect(rec)
	if !slices.Equal(got, []Candidate{"crate::vec_deque"}) {
		t.Fatalf("Extract = %v", got)
	}
}

func TestExtractIgnoresClassifiedMacroErrors(t *testing.T) {
	rec := &diag.Record{
		Message:  "cannot find macro `foo` in this scope",
		Code:     &diag.Code{Code: "E9999"},
		Children: []diag.Record{{Message: "consider importing this macro:\ncrate::foo"}},
	}
	if got := collect(rec); len(got) != 0 {
		t.Fatalf("Extract = %v, want nothing", got)
	}
}

func TestExtractSuggestedReplacements(t *testing.T) {
	rec := &diag.Record{
		Message: "cannot find type `HashMap` in this scope",
		Code:    &diag.Code{Code: "E0412"},
		Children: []diag.Record{
			{
				Message: "consider importing one of these items",
				Spans: []diag.Span{
					{FileName: "src/main.rs", SuggestedReplacement: strPtr("use std::collections::HashMap;\n")},
					{FileName: "src/main.rs", SuggestedReplacement: strPtr("use hashbrown::HashMap;\n\n")},
					{FileName: "src/main.rs", SuggestedReplacement: strPtr("HashSet")},
					{FileName: "src/main.rs"},
				},
			},
			{Message: "note: something else"},
		},
	}
	got := collect(rec)
	want := []Candidate{"std::collections::HashMap", "hashbrown::HashMap"}
	if !slices.Equal(got, want) {
		t.Fatalf("Extract = %v, want %v", got, want)
	}
}

func TestExtractBothStrategies(t *testing.T) {
	rec := &diag.Record{
		Message: "cannot find macro `foo` in this scope",
		Children: []diag.Record{{
			Message: "consider importing this macro:\ncrate_a::foo",
			Spans:   []diag.Span{{SuggestedReplacement: strPtr("use crate_a::foo;\n")}},
		}},
	}
	got := collect(rec)
	want := []Candidate{"crate_a::foo", "crate_a::foo"}
	if !slices.Equal(got, want) {
		t.Fatalf("Extract = %v, want %v", got, want)
	}
}

func TestExtractIsIdempotent(t *testing.T) {
	rec := &diag.Record{
		Message: "cannot find macro `foo` in this scope",
		Children: []diag.Record{{
			Message: "consider importing one of these items:\na::foo\nb::foo",
			Spans:   []diag.Span{{SuggestedReplacement: strPtr("use c::foo;")}},
		}},
	}
	first := collect(rec)
	second := collect(rec)
	if !slices.Equal(first, second) {
		t.Fatalf("Extract not idempotent: %v vs %v", first, second)
	}
	if len(first) != 3 {
		t.Fatalf("expected 3 candidates, got %v", first)
	}
}

func TestExtractStopsWhenConsumerStops(t *testing.T) {
	rec := &diag.Record{
		Message:  "cannot find macro `foo` in this scope",
		Children: []diag.Record{{Message: "consider importing one of these items:\na::foo\nb::foo\nc::foo"}},
	}
	var got []Candidate
	for c := range Extract(rec) {
		got = append(got, c)
		break
	}
	if len(got) != 1 || got[0] != "a::foo" {
		t.Fatalf("got %v", got)
	}
}

func TestExtractNilRecord(t *testing.T) {
	if got := collect(nil); got != nil {
		t.Fatalf("Extract(nil) = %v", got)
	}
}

func TestCandidateTerminal(t *testing.T) {
	cases := []struct {
		in   Candidate
		want string
	}{
		{"std::ops::Range", "Range"},
		{"foo", "foo"},
		{"crate::a::b::c", "c"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := tc.in.Terminal(); got != tc.want {
			t.Fatalf("%q.Terminal() = %q, want %q", tc.in, got, tc.want)
		}
	}
}
