package driver

import (
	"errors"
	"fmt"

	"autoimport/internal/fix"
	"autoimport/internal/project"
	"autoimport/internal/relay"
)

// ErrBuildSucceeded is matched by every *BuildSucceeded. A successful
// compile ends the whole build, not just the unit loop that saw it.
var ErrBuildSucceeded = errors.New("build succeeded")

// BuildSucceeded carries the output of the child that compiled cleanly.
type BuildSucceeded struct {
	Unit    project.Unit
	Attempt uint8
	Result  relay.Result
}

func (e *BuildSucceeded) Error() string {
	return fmt.Sprintf("%s: build succeeded on attempt %d", e.Unit, e.Attempt)
}

func (e *BuildSucceeded) Is(target error) bool { return target == ErrBuildSucceeded }

// Step records one attempt of a unit loop.
type Step struct {
	Attempt   uint8
	Proposed  []fix.Candidate
	Decisions []fix.Decision
	Changed   bool
	// Fixes and Excluded are the sets after the step.
	Fixes    []fix.Candidate
	Excluded []fix.Candidate
}

// Resolution is the outcome of one unit loop that did not see a successful build.
type Resolution struct {
	Unit     project.Unit
	Fixes    *fix.Set
	Excluded *fix.Set
	Attempts uint8
	// Converged is false when the loop stopped at the attempt cap.
	Converged bool
	// Rendered is what the unit's marker expands to.
	Rendered string
	History  []Step
}

// Guessed reports whether any accepted fix came from a random pick.
func (r Resolution) Guessed() bool {
	for _, st := range r.History {
		for _, d := range st.Decisions {
			if !d.Confident() {
				return true
			}
		}
	}
	return false
}
