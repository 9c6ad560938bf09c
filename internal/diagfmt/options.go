package diagfmt

// PathMode specifies how unit paths are displayed.
type PathMode uint8

const (
	// PathModeAuto shows the path relative to the project when possible.
	PathModeAuto PathMode = iota
	// PathModeAbsolute always uses absolute paths.
	PathModeAbsolute
	PathModeBasename
)

// PrettyOpts configures human-readable suggestion output.
type PrettyOpts struct {
	Color      bool
	PathMode   PathMode
	ShowLosers bool // перечислять отброшенных кандидатов
}

// JSONOpts configures JSON output of suggestions.
type JSONOpts struct {
	PathMode        PathMode
	IncludeExcluded bool
	Indent          bool
}
