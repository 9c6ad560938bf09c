package trace

import "time"

// Kind says what happened.
type Kind uint8

const (
	KindBegin     Kind = iota + 1 // span opened
	KindEnd                       // span closed, Elapsed is set
	KindDecision                  // a disambiguation picked a winner
	KindRecord                    // a diagnostic record about the unit was used
	KindSkipped                   // a diagnostic record was ignored
	KindHeartbeat                 // the build is still waiting on something
)

var kindNames = [...]string{
	KindBegin:     "begin",
	KindEnd:       "end",
	KindDecision:  "decision",
	KindRecord:    "record",
	KindSkipped:   "skipped",
	KindHeartbeat: "heartbeat",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}

// Scope is where in a build an event sits. Lower values are coarser.
type Scope uint8

const (
	ScopeDriver  Scope = iota + 1 // a whole build, parent or child role
	ScopeUnit                     // the loop of one unit
	ScopeAttempt                  // one compile of that loop
	ScopeRecord                   // one diagnostic record
)

var scopeNames = [...]string{
	ScopeDriver:  "driver",
	ScopeUnit:    "unit",
	ScopeAttempt: "attempt",
	ScopeRecord:  "record",
}

func (s Scope) String() string {
	if int(s) < len(scopeNames) && scopeNames[s] != "" {
		return scopeNames[s]
	}
	return "unknown"
}

// Event is one trace entry. Unit and Attempt come from the context the event
// was emitted under.
type Event struct {
	Time     time.Time
	Seq      uint64
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64
	Unit     string
	Attempt  int
	Name     string
	Detail   string
	Elapsed  time.Duration
	Fields   map[string]string
}
