package fix

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
)

// Reason tells how a Decision was reached.
type Reason uint8

const (
	// ReasonSingle means there was nothing to choose from.
	ReasonSingle Reason = iota
	// ReasonStdCollapse means only the std:: spelling survived after dropping core::/alloc:: twins.
	ReasonStdCollapse
	// ReasonPreferred means a preference table entry won.
	ReasonPreferred
	// ReasonRandom means the winner was drawn at random. Low confidence.
	ReasonRandom
)

func (r Reason) String() string {
	switch r {
	case ReasonSingle:
		return "single"
	case ReasonStdCollapse:
		return "std-collapse"
	case ReasonPreferred:
		return "preferred"
	case ReasonRandom:
		return "random"
	}
	return "unknown"
}

// Decision is the outcome of one disambiguation.
type Decision struct {
	Ident  string
	Winner Candidate
	Losers []Candidate
	Reason Reason
}

// Confident is false only for random picks.
func (d Decision) Confident() bool {
	return d.Reason != ReasonRandom
}

// DefaultPreferences are the conventional choices when a name is ambiguous.
// Earlier entries win over later ones when several match.
var DefaultPreferences = []Candidate{
	"std::ops::Range",          // btree_map::Range, btree_set::Range
	"std::ops::RangeInclusive", // also the collection range variants
	"std::result::Result",      // io::Result, fmt::Result, thread::Result
	"std::error::Error",        // io::Error, fmt::Error
	"std::sync::mpsc::Sender",  // unstable mpmc twin
	"std::sync::mpsc::Receiver",
	"std::sync::mpsc::channel",
}

// stdPrefix is the namespace kept when the same item is also offered through a subset crate.
const stdPrefix = "std::"

var subsetPrefixes = []string{"core::", "alloc::"}

// Option configures a Disambiguator.
type Option func(*Disambiguator)

// WithRand injects the random source used for the last-resort pick.
func WithRand(r *rand.Rand) Option {
	return func(d *Disambiguator) {
		if r != nil {
			d.rng = r
		}
	}
}

// WithSeed is WithRand over a PCG source seeded with seed.
func WithSeed(seed uint64) Option {
	return WithRand(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// WithPreferences puts extra entries in front of DefaultPreferences.
func WithPreferences(extra ...Candidate) Option {
	return func(d *Disambiguator) {
		d.prefs = append(slices.Clone(extra), d.prefs...)
	}
}

// WithReporter routes progress notes to r.
func WithReporter(r Reporter) Option {
	return func(d *Disambiguator) {
		if r != nil {
			d.reporter = r
		}
	}
}

// Disambiguator chooses among candidates sharing a terminal identifier.
// Not safe for concurrent use: the random source is not locked.
type Disambiguator struct {
	prefs    []Candidate
	rng      *rand.Rand
	reporter Reporter
}

// NewDisambiguator builds a Disambiguator. Without WithRand/WithSeed the random source is seeded from the runtime.
func NewDisambiguator(opts ...Option) *Disambiguator {
	d := &Disambiguator{
		prefs:    slices.Clone(DefaultPreferences),
		reporter: NopReporter{},
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.rng == nil {
		d.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return d
}

// Choose picks the winner for ident. Panics when candidates is empty.
func (d *Disambiguator) Choose(ident string, candidates []Candidate) Decision {
	if len(candidates) == 0 {
		panic(fmt.Sprintf("fix: no candidates to choose from for %q", ident))
	}
	remaining := slices.Clone(candidates)
	var losers []Candidate
	collapsed := false

	for len(remaining) > 1 {
		keep, drop, ok := stdTwin(remaining)
		if !ok {
			break
		}
		d.reporter.Ambiguity(ident, []Candidate{remaining[keep], remaining[drop]})
		d.reporter.Picked(ident, remaining[keep], ReasonStdCollapse)
		losers = append(losers, remaining[drop])
		remaining = slices.Delete(remaining, drop, drop+1)
		collapsed = true
	}

	if len(remaining) == 1 {
		reason := ReasonSingle
		if collapsed {
			reason = ReasonStdCollapse
		}
		return Decision{Ident: ident, Winner: remaining[0], Losers: losers, Reason: reason}
	}

	d.reporter.Ambiguity(ident, remaining)

	for _, pref := range d.prefs {
		idx := slices.Index(remaining, pref)
		if idx < 0 {
			continue
		}
		winner := remaining[idx]
		losers = append(losers, slices.Delete(remaining, idx, idx+1)...)
		d.reporter.Picked(ident, winner, ReasonPreferred)
		return Decision{Ident: ident, Winner: winner, Losers: losers, Reason: ReasonPreferred}
	}

	idx := d.rng.IntN(len(remaining))
	winner := remaining[idx]
	losers = append(losers, slices.Delete(remaining, idx, idx+1)...)
	d.reporter.Picked(ident, winner, ReasonRandom)
	return Decision{Ident: ident, Winner: winner, Losers: losers, Reason: ReasonRandom}
}

// stdTwin finds a std::X candidate whose core::X or alloc::X twin is also present.
func stdTwin(cands []Candidate) (keep, drop int, ok bool) {
	for i := 0; i < len(cands)-1; i++ {
		for j := i + 1; j < len(cands); j++ {
			if sameItem(cands[i], cands[j]) {
				return i, j, true
			}
			if sameItem(cands[j], cands[i]) {
				return j, i, true
			}
		}
	}
	return 0, 0, false
}

func sameItem(std, subset Candidate) bool {
	rest, ok := strings.CutPrefix(string(std), stdPrefix)
	if !ok {
		return false
	}
	for _, prefix := range subsetPrefixes {
		if other, ok := strings.CutPrefix(string(subset), prefix); ok && other == rest {
			return true
		}
	}
	return false
}
