package buildpipeline

import (
	"autoimport/internal/driver"
)

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// SinkFunc adapts a function to ProgressSink.
type SinkFunc func(Event)

func (f SinkFunc) OnEvent(evt Event) { f(evt) }

func emit(sink ProgressSink, evt Event) {
	if sink != nil {
		sink.OnEvent(evt)
	}
}

func emitQueued(sink ProgressSink, stage Stage, files []string) {
	for _, file := range files {
		emit(sink, Event{File: file, Stage: stage, Status: StatusQueued})
	}
}

// AttemptProgress turns driver attempt boundaries into progress events.
// Pass it as driver.Options.Observer.
func AttemptProgress(sink ProgressSink) driver.AttemptObserver {
	if sink == nil {
		return nil
	}
	return func(ev driver.AttemptEvent) {
		evt := Event{
			File:    ev.Unit.String(),
			Stage:   StageResolve,
			Status:  StatusWorking,
			Attempt: ev.Attempt,
			Max:     ev.Max,
		}
		if ev.Status == driver.AttemptEnd {
			evt.Elapsed = ev.Elapsed
		}
		sink.OnEvent(evt)
	}
}
