package trace

import (
	"fmt"
	"strings"
)

// Level controls how much of a build is traced.
type Level uint8

const (
	LevelOff    Level = iota
	LevelError        // ring only, dumped when the build fails
	LevelPhase        // builds and unit loops
	LevelDetail       // plus attempts and decisions
	LevelDebug        // plus every diagnostic record
)

var levelNames = map[string]Level{
	"off":    LevelOff,
	"error":  LevelError,
	"phase":  LevelPhase,
	"detail": LevelDetail,
	"debug":  LevelDebug,
}

func (l Level) String() string {
	for name, lvl := range levelNames {
		if lvl == l {
			return name
		}
	}
	return "unknown"
}

// ParseLevel reads a --trace-level value. An empty value means off.
func ParseLevel(s string) (Level, error) {
	if s == "" {
		return LevelOff, nil
	}
	if lvl, ok := levelNames[strings.ToLower(s)]; ok {
		return lvl, nil
	}
	return LevelOff, fmt.Errorf("invalid trace level: %q (expected: off|error|phase|detail|debug)", s)
}

// Keeps reports whether ev is recorded at this level. Heartbeats always are.
// LevelError keeps what LevelDetail keeps: the ring is only read after a
// failure, and then the attempts are what explain it.
func (l Level) Keeps(ev *Event) bool {
	if l == LevelOff {
		return false
	}
	if ev.Kind == KindHeartbeat {
		return true
	}
	return l.keepsScope(ev.Scope)
}

func (l Level) keepsScope(scope Scope) bool {
	switch l {
	case LevelPhase:
		return scope <= ScopeUnit
	case LevelError, LevelDetail:
		return scope <= ScopeAttempt
	case LevelDebug:
		return true
	}
	return false
}
