package fix

import (
	"iter"
	"strings"

	"autoimport/internal/diag"
)

const (
	missingMacroPrefix = "cannot find macro `"
	missingMacroSuffix = "` in this scope"

	importManyPrefix = "consider importing one of these items:"
	importOnePrefix  = "consider importing this macro:\n"

	usePrefix = "use "
	useSuffix = ";"
)

// Extract yields the import candidates suggested by one diagnostic.
//
// Two strategies run in order. For an unclassified "cannot find macro" error
// the first child lists the importable items in its message. Then every
// suggested replacement of the form "use <path>;" on any child span yields
// <path>. The same record may produce a candidate through both; duplicates are
// left for the caller's sets to absorb.
func Extract(rec *diag.Record) iter.Seq[Candidate] {
	return func(yield func(Candidate) bool) {
		if rec == nil {
			return
		}
		for _, c := range missingMacroCandidates(rec) {
			if !yield(c) {
				return
			}
		}
		for i := range rec.Children {
			for _, sp := range rec.Children[i].Spans {
				text := sp.Replacement()
				if text == "" {
					continue
				}
				path, ok := between(usePrefix, strings.TrimSpace(text), useSuffix)
				if !ok {
					continue
				}
				if !yield(Candidate(path)) {
					return
				}
			}
		}
	}
}

func missingMacroCandidates(rec *diag.Record) []Candidate {
	if rec.Classified() {
		return nil
	}
	if _, ok := between(missingMacroPrefix, rec.Message, missingMacroSuffix); !ok {
		return nil
	}
	child, ok := rec.FirstChild()
	if !ok {
		return nil
	}
	if list, ok := between(importManyPrefix, child.Message, ""); ok {
		var out []Candidate
		for _, line := range strings.Split(list, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			out = append(out, Candidate(line))
		}
		return out
	}
	if item, ok := between(importOnePrefix, child.Message, ""); ok {
		item = strings.TrimSpace(item)
		if item == "" {
			return nil
		}
		return []Candidate{Candidate(item)}
	}
	return nil
}

// between returns the part of s enclosed by prefix and suffix.
func between(prefix, s, suffix string) (string, bool) {
	if len(s) < len(prefix)+len(suffix) {
		return "", false
	}
	if !strings.HasPrefix(s, prefix) || !strings.HasSuffix(s, suffix) {
		return "", false
	}
	return s[len(prefix) : len(s)-len(suffix)], true
}
