package main

import (
	"context"
	"errors"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"autoimport/internal/buildpipeline"
	"autoimport/internal/ui"
)

type resolveOutcome struct {
	result buildpipeline.ResolveResult
	err    error
}

// runResolveWithUI runs the parent role while the progress view owns
// stderr. events must be the channel behind the sink the driver and req
// report to; it is closed here once the build is over.
func runResolveWithUI(ctx context.Context, title string, units []string, events chan buildpipeline.Event, req *buildpipeline.ResolveRequest) (buildpipeline.ResolveResult, error) {
	if req == nil {
		return buildpipeline.ResolveResult{}, errors.New("missing resolve request")
	}
	outcomeCh := make(chan resolveOutcome, 1)

	go func() {
		res, err := buildpipeline.Resolve(ctx, req)
		outcomeCh <- resolveOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, units, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr), tea.WithInput(nil))
	_, uiErr := program.Run()
	if uiErr != nil {
		// keep draining so the build is never blocked on a full channel
		go func() {
			for range events {
			}
		}()
	}
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, errors.Join(outcome.err, uiErr)
	}
	return outcome.result, outcome.err
}
