package project

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gobwas/glob"
)

// skipDirs are never descended into during discovery.
var skipDirs = []string{".git", "target", "node_modules"}

type pattern struct {
	src  string
	glob glob.Glob
	// rootOnly matches files directly under root for "**/" patterns
	rootOnly glob.Glob
}

func compilePatterns(patterns []string) ([]pattern, error) {
	out := make([]pattern, 0, len(patterns))
	for _, src := range patterns {
		g, err := glob.Compile(src, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid unit pattern %q: %w", src, err)
		}
		p := pattern{src: src, glob: g}
		if rest, ok := strings.CutPrefix(src, "**/"); ok {
			if rg, err := glob.Compile(rest, '/'); err == nil {
				p.rootOnly = rg
			}
		}
		out = append(out, p)
	}
	return out, nil
}

func (p pattern) match(rel string) bool {
	if p.glob.Match(rel) {
		return true
	}
	return p.rootOnly != nil && !strings.Contains(rel, "/") && p.rootOnly.Match(rel)
}

// Discover walks root and returns a unit for every file matching one of the
// patterns. Patterns are matched against slash-separated paths relative to
// root. Units come back sorted by path and are resolved against root.
func Discover(root string, patterns []string) ([]Unit, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	compiled, err := compilePatterns(patterns)
	if err != nil {
		return nil, err
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", root, err)
	}

	var units []Unit
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != absRoot && slices.Contains(skipDirs, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		for _, p := range compiled {
			if p.match(rel) {
				u, err := NewUnitIn(absRoot, path)
				if err != nil {
					return err
				}
				units = append(units, u)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to discover units under %q: %w", root, err)
	}
	slices.SortFunc(units, func(a, b Unit) int { return strings.Compare(a.path, b.path) })
	return units, nil
}
