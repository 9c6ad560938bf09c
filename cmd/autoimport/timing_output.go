package main

import (
	"fmt"
	"io"
	"time"

	"autoimport/internal/buildpipeline"
	"autoimport/internal/driver"
	"autoimport/internal/observ"
)

// attemptTimer records every finished attempt into t.
func attemptTimer(t *observ.Timer) driver.AttemptObserver {
	return func(ev driver.AttemptEvent) {
		if ev.Status != driver.AttemptEnd {
			return
		}
		note := fmt.Sprintf("%d proposed", ev.Proposed)
		switch {
		case ev.Success:
			note = "build passed"
		case !ev.Changed:
			note += ", stable"
		}
		t.Record(fmt.Sprintf("%s #%d", ev.Unit, ev.Attempt), ev.Elapsed, note)
	}
}

// chainObservers calls every non-nil observer in order.
func chainObservers(observers ...driver.AttemptObserver) driver.AttemptObserver {
	var live []driver.AttemptObserver
	for _, o := range observers {
		if o != nil {
			live = append(live, o)
		}
	}
	switch len(live) {
	case 0:
		return nil
	case 1:
		return live[0]
	}
	return func(ev driver.AttemptEvent) {
		for _, o := range live {
			o(ev)
		}
	}
}

func printStageTimings(out io.Writer, timer *observ.Timer, timings buildpipeline.Timings) {
	if out == nil {
		return
	}
	if timer != nil && timer.Len() > 0 {
		fmt.Fprint(out, timer.Summary())
	}
	if timings.Has(buildpipeline.StageResolve) {
		fmt.Fprintf(out, "resolved %.1f ms\n", toMillis(timings.Duration(buildpipeline.StageResolve)))
	}
	if timings.Has(buildpipeline.StageFinal) {
		fmt.Fprintf(out, "final build %.1f ms\n", toMillis(timings.Duration(buildpipeline.StageFinal)))
	}
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
