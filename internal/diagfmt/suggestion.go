// Package diagfmt renders the outcome of analysing a captured diagnostic
// stream for one unit.
package diagfmt

import (
	"path/filepath"

	"autoimport/internal/driver"
	"autoimport/internal/project"
)

// Suggestion is what one analysis pass would inject into a unit.
type Suggestion struct {
	Unit project.Unit
	// Records is the number of diagnostics decoded from the stream;
	// Relevant counts those about Unit.
	Records  int
	Relevant int
	Step     driver.Step
	Rendered string
}

func formatPath(u project.Unit, mode PathMode) string {
	switch mode {
	case PathModeAbsolute:
		return u.Path()
	case PathModeBasename:
		return filepath.Base(u.Path())
	default:
		return u.Rel()
	}
}
