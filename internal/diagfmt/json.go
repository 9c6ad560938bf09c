package diagfmt

import (
	"encoding/json"
	"io"

	"autoimport/internal/fix"
)

// DecisionJSON представляет одно разрешение неоднозначности.
type DecisionJSON struct {
	Ident     string   `json:"ident"`
	Winner    string   `json:"winner"`
	Losers    []string `json:"losers,omitempty"`
	Reason    string   `json:"reason"`
	Confident bool     `json:"confident"`
}

// SuggestionJSON is the root of the JSON output.
type SuggestionJSON struct {
	Unit      string         `json:"unit"`
	Records   int            `json:"records"`
	Relevant  int            `json:"relevant"`
	Proposed  []string       `json:"proposed"`
	Decisions []DecisionJSON `json:"decisions,omitempty"`
	Fixes     []string       `json:"fixes"`
	Excluded  []string       `json:"excluded,omitempty"`
	Rendered  string         `json:"rendered"`
}

// BuildSuggestionOutput формирует структуру JSON-вывода без сериализации.
func BuildSuggestionOutput(s Suggestion, opts JSONOpts) SuggestionJSON {
	out := SuggestionJSON{
		Unit:     formatPath(s.Unit, opts.PathMode),
		Records:  s.Records,
		Relevant: s.Relevant,
		Proposed: names(s.Step.Proposed),
		Fixes:    names(s.Step.Fixes),
		Rendered: s.Rendered,
	}
	for _, d := range s.Step.Decisions {
		out.Decisions = append(out.Decisions, DecisionJSON{
			Ident:     d.Ident,
			Winner:    string(d.Winner),
			Losers:    nonEmpty(names(d.Losers)),
			Reason:    d.Reason.String(),
			Confident: d.Confident(),
		})
	}
	if opts.IncludeExcluded {
		out.Excluded = nonEmpty(names(s.Step.Excluded))
	}
	return out
}

// JSON writes s as a single JSON document.
func JSON(w io.Writer, s Suggestion, opts JSONOpts) error {
	enc := json.NewEncoder(w)
	if opts.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(BuildSuggestionOutput(s, opts))
}

// names never returns nil so that empty lists encode as [].
func names(cs []fix.Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = string(c)
	}
	return out
}

func nonEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}
