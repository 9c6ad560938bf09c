package fix

// Reporter receives the human-readable progress of import resolution.
// It is observability only; nothing reads it back.
type Reporter interface {
	// Ambiguity announces that ident has several candidates.
	Ambiguity(ident string, between []Candidate)
	// Picked announces the outcome of an ambiguity.
	Picked(ident string, winner Candidate, reason Reason)
	// Injecting announces that c joins the accepted fixes.
	Injecting(c Candidate)
}

// NopReporter drops everything.
type NopReporter struct{}

func (NopReporter) Ambiguity(string, []Candidate) {}
func (NopReporter) Picked(string, Candidate, Reason) {}
func (NopReporter) Injecting(Candidate) {}

// MultiReporter fans notes out to several reporters.
type MultiReporter []Reporter

func (m MultiReporter) Ambiguity(ident string, between []Candidate) {
	for _, r := range m {
		r.Ambiguity(ident, between)
	}
}

func (m MultiReporter) Picked(ident string, winner Candidate, reason Reason) {
	for _, r := range m {
		r.Picked(ident, winner, reason)
	}
}

func (m MultiReporter) Injecting(c Candidate) {
	for _, r := range m {
		r.Injecting(c)
	}
}
