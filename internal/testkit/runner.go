package testkit

import (
	"context"
	"sync"

	"autoimport/internal/channel"
	"autoimport/internal/relay"
)

// Fail is a failed compile printing stderr.
func Fail(stderr []byte) relay.Result {
	return relay.Result{ExitCode: 1, Stderr: stderr}
}

// Succeed is a clean compile.
func Succeed() relay.Result {
	return relay.Result{Success: true}
}

// ScriptedRunner is a relay.Runner answering from a script. When a Respond
// func is set it decides (call counts from 1); otherwise Results are handed
// out in order and the last one repeats.
type ScriptedRunner struct {
	Results []relay.Result
	Respond func(call int, req channel.Request) relay.Result

	mu       sync.Mutex
	requests []channel.Request
}

// Run implements relay.Runner.
func (r *ScriptedRunner) Run(ctx context.Context, req channel.Request) (relay.Result, error) {
	if err := ctx.Err(); err != nil {
		return relay.Result{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	if r.Respond != nil {
		return r.Respond(len(r.requests), req), nil
	}
	if len(r.Results) == 0 {
		return Fail(nil), nil
	}
	i := min(len(r.requests)-1, len(r.Results)-1)
	return r.Results[i], nil
}

// Requests returns every request seen so far.
func (r *ScriptedRunner) Requests() []channel.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]channel.Request(nil), r.requests...)
}

// Calls returns the number of runs.
func (r *ScriptedRunner) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}
