// Package inject finds the marker invocation in a unit and splices the
// rendered import declarations in its place.
package inject

import (
	"strings"

	"autoimport/internal/fix"
)

// Render turns a fix set into declarations, one "use <path>;" per fix, in
// sorted order and on a single line so that the line numbers of the rest of
// the unit do not move. An empty set renders to "".
func Render(set *fix.Set) string {
	var sb strings.Builder
	for _, c := range set.Sorted() {
		sb.WriteString("use ")
		sb.WriteString(string(c))
		sb.WriteString(";")
	}
	return sb.String()
}
