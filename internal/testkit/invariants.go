package testkit

import (
	"fmt"
	"slices"

	"fortio.org/safecast"

	"autoimport/internal/driver"
	"autoimport/internal/fix"
)

// CheckHistory runs the invariants every unit loop must keep:
// 1) attempts are numbered 1..n and n never exceeds driver.MaxAttempts
// 2) Fixes and Excluded only grow from one step to the next
// 3) Fixes and Excluded never share a candidate
// 4) only the last step may be unchanged, and a changed step grew Fixes or Excluded
func CheckHistory(res driver.Resolution) error {
	steps := res.History
	n, err := safecast.Conv[uint8](len(steps))
	if err != nil {
		return fmt.Errorf("history length overflow: %w", err)
	}
	if n > driver.MaxAttempts {
		return fmt.Errorf("history has %d steps, cap is %d", n, driver.MaxAttempts)
	}
	if n > res.Attempts {
		return fmt.Errorf("history has %d steps but only %d attempts", n, res.Attempts)
	}

	var prevFixes, prevExcluded []fix.Candidate
	for i, st := range steps {
		want, err := safecast.Conv[uint8](i + 1)
		if err != nil {
			return err
		}
		if st.Attempt != want {
			return fmt.Errorf("step %d has attempt %d", i, st.Attempt)
		}
		if !superset(st.Fixes, prevFixes) {
			return fmt.Errorf("attempt %d: fixes shrank: %v -> %v", st.Attempt, prevFixes, st.Fixes)
		}
		if !superset(st.Excluded, prevExcluded) {
			return fmt.Errorf("attempt %d: excluded shrank: %v -> %v", st.Attempt, prevExcluded, st.Excluded)
		}
		for _, c := range st.Fixes {
			if slices.Contains(st.Excluded, c) {
				return fmt.Errorf("attempt %d: %s is both accepted and excluded", st.Attempt, c)
			}
		}
		grew := len(st.Fixes) > len(prevFixes) || len(st.Excluded) > len(prevExcluded)
		if st.Changed && !grew {
			return fmt.Errorf("attempt %d: changed without growing", st.Attempt)
		}
		if !st.Changed && i != len(steps)-1 {
			return fmt.Errorf("attempt %d: loop continued after a stable step", st.Attempt)
		}
		prevFixes, prevExcluded = st.Fixes, st.Excluded
	}
	return nil
}

func superset(cur, prev []fix.Candidate) bool {
	for _, c := range prev {
		if !slices.Contains(cur, c) {
			return false
		}
	}
	return true
}
