package driver

import (
	"time"

	"autoimport/internal/project"
)

// AttemptStatus reports whether an attempt started or finished.
type AttemptStatus int

const (
	AttemptStart AttemptStatus = iota
	AttemptEnd
)

// AttemptEvent describes one compile of a unit loop.
type AttemptEvent struct {
	Unit    project.Unit
	Attempt uint8
	Max     uint8
	Status  AttemptStatus
	Elapsed time.Duration
	// Proposed and Changed are set on AttemptEnd.
	Proposed int
	Changed  bool
	Success  bool
}

// AttemptObserver receives attempt boundaries emitted by Resolve.
type AttemptObserver func(AttemptEvent)
