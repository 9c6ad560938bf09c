package fix

import (
	"fmt"
	"maps"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingReporter struct {
	lines []string
}

func (r *recordingReporter) Ambiguity(ident string, between []Candidate) {
	r.lines = append(r.lines, fmt.Sprintf("ambiguity %s %v", ident, between))
}

func (r *recordingReporter) Picked(ident string, winner Candidate, reason Reason) {
	r.lines = append(r.lines, fmt.Sprintf("picked %s %s %s", ident, winner, reason))
}

func (r *recordingReporter) Injecting(c Candidate) {
	r.lines = append(r.lines, "injecting "+string(c))
}

// failingSource fails the test when a pick draws randomness.
type failingSource struct{ t *testing.T }

func (s failingSource) Uint64() uint64 {
	s.t.Helper()
	s.t.Fatal("random source used for a deterministic pick")
	return 0
}

func noRandom(t *testing.T) Option {
	return WithRand(rand.New(failingSource{t}))
}

func TestChooseSingleIsSilent(t *testing.T) {
	rep := &recordingReporter{}
	d := NewDisambiguator(WithReporter(rep), noRandom(t))

	dec := d.Choose("foo", []Candidate{"crate_a::foo"})
	require.Equal(t, Candidate("crate_a::foo"), dec.Winner)
	require.Empty(t, dec.Losers)
	require.Equal(t, ReasonSingle, dec.Reason)
	require.True(t, dec.Confident())
	require.Empty(t, rep.lines)
}

func TestChooseStdCollapse(t *testing.T) {
	rep := &recordingReporter{}
	d := NewDisambiguator(WithReporter(rep), noRandom(t))

	dec := d.Choose("Rc", []Candidate{"alloc::rc::Rc", "std::rc::Rc"})
	require.Equal(t, Candidate("std::rc::Rc"), dec.Winner)
	require.Equal(t, []Candidate{"alloc::rc::Rc"}, dec.Losers)
	require.Equal(t, ReasonStdCollapse, dec.Reason)
	require.True(t, dec.Confident())
	require.NotEmpty(t, rep.lines)
}

func TestChooseStdCollapseBothSubsets(t *testing.T) {
	d := NewDisambiguator(noRandom(t))

	dec := d.Choose("Ordering", []Candidate{
		"alloc::cmp::Ordering",
		"core::cmp::Ordering",
		"std::cmp::Ordering",
	})
	require.Equal(t, Candidate("std::cmp::Ordering"), dec.Winner)
	require.ElementsMatch(t, []Candidate{"alloc::cmp::Ordering", "core::cmp::Ordering"}, dec.Losers)
	require.Equal(t, ReasonStdCollapse, dec.Reason)
}

func TestChoosePreferenceTable(t *testing.T) {
	cases := []struct {
		ident string
		cands []Candidate
		want  Candidate
	}{
		{"Range", []Candidate{"std::collections::btree_map::Range", "std::ops::Range"}, "std::ops::Range"},
		{"Result", []Candidate{"std::fmt::Result", "std::io::Result", "std::result::Result"}, "std::result::Result"},
		{"Error", []Candidate{"std::error::Error", "std::io::Error"}, "std::error::Error"},
		{"Sender", []Candidate{"std::sync::mpmc::Sender", "std::sync::mpsc::Sender"}, "std::sync::mpsc::Sender"},
	}
	for _, tc := range cases {
		t.Run(tc.ident, func(t *testing.T) {
			rep := &recordingReporter{}
			d := NewDisambiguator(WithReporter(rep), noRandom(t))
			dec := d.Choose(tc.ident, tc.cands)
			require.Equal(t, tc.want, dec.Winner)
			require.Equal(t, ReasonPreferred, dec.Reason)
			require.Len(t, dec.Losers, len(tc.cands)-1)
			require.NotContains(t, dec.Losers, tc.want)
			require.Len(t, rep.lines, 2)
		})
	}
}

func TestChooseCollapseThenPreference(t *testing.T) {
	d := NewDisambiguator(noRandom(t))
	dec := d.Choose("Range", []Candidate{
		"core::ops::Range",
		"std::collections::btree_set::Range",
		"std::ops::Range",
	})
	require.Equal(t, Candidate("std::ops::Range"), dec.Winner)
	require.Equal(t, ReasonPreferred, dec.Reason)
	require.ElementsMatch(t, []Candidate{"core::ops::Range", "std::collections::btree_set::Range"}, dec.Losers)
}

func TestChooseExtraPreferencesWin(t *testing.T) {
	d := NewDisambiguator(noRandom(t), WithPreferences("my::Range"))
	dec := d.Choose("Range", []Candidate{"my::Range", "std::ops::Range"})
	require.Equal(t, Candidate("my::Range"), dec.Winner)
	require.Equal(t, ReasonPreferred, dec.Reason)
}

func TestChooseRandomIsSeeded(t *testing.T) {
	cands := []Candidate{"crate_a::foo", "crate_b::foo", "crate_c::foo"}

	first := NewDisambiguator(WithSeed(42)).Choose("foo", cands)
	second := NewDisambiguator(WithSeed(42)).Choose("foo", cands)

	require.Equal(t, first.Winner, second.Winner)
	require.Equal(t, ReasonRandom, first.Reason)
	require.False(t, first.Confident())
	require.Contains(t, cands, first.Winner)
	require.Len(t, first.Losers, 2)
	require.NotContains(t, first.Losers, first.Winner)
}

func TestChooseDoesNotMutateInput(t *testing.T) {
	cands := []Candidate{"core::rc::Rc", "std::rc::Rc", "x::Rc"}
	orig := slices.Clone(cands)
	_ = NewDisambiguator(WithSeed(1)).Choose("Rc", cands)
	require.Equal(t, orig, cands)
}

func TestChooseEmptyPanics(t *testing.T) {
	require.Panics(t, func() {
		NewDisambiguator().Choose("foo", nil)
	})
}

func TestGroupByTerminal(t *testing.T) {
	set := NewSet("crate_b::foo", "crate_a::foo", "std::ops::Range", "core::ops::Range", "bar")
	groups := GroupByTerminal(set.All())

	require.Equal(t, []string{"Range", "bar", "foo"}, slices.Sorted(maps.Keys(groups)))
	require.Equal(t, []Candidate{"crate_a::foo", "crate_b::foo"}, groups["foo"])
	require.Equal(t, []Candidate{"core::ops::Range", "std::ops::Range"}, groups["Range"])
	require.Equal(t, []Candidate{"bar"}, groups["bar"])
}

func TestSetIsGrowOnly(t *testing.T) {
	var s Set
	require.True(t, s.Add("a::b"))
	require.False(t, s.Add("a::b"))
	require.True(t, s.Add("a::c"))
	require.Equal(t, 2, s.Len())
	require.True(t, s.Has("a::b"))
	require.False(t, s.Has("a::d"))
	require.Equal(t, []Candidate{"a::b", "a::c"}, s.Sorted())

	var nilSet *Set
	require.False(t, nilSet.Has("a::b"))
	require.Zero(t, nilSet.Len())
	require.Nil(t, nilSet.Sorted())
}
