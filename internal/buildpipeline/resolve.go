package buildpipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"autoimport/internal/channel"
	"autoimport/internal/driver"
	"autoimport/internal/project"
	"autoimport/internal/relay"
	"autoimport/internal/trace"
)

// ResolveRequest configures the parent role of a build.
type ResolveRequest struct {
	Units  []project.Unit
	Driver *driver.Driver
	// Runner starts the final child. Usually the same runner the Driver uses.
	Runner   relay.Runner
	RunID    uuid.UUID
	Progress ProgressSink
	// Stdout and Stderr receive the relayed output of the deciding child.
	Stdout io.Writer
	Stderr io.Writer
}

// ResolveResult captures what the parent learned.
type ResolveResult struct {
	Resolutions []driver.Resolution
	// Succeeded is set when a loop compile succeeded; no final run happens then.
	Succeeded *driver.BuildSucceeded
	Final     relay.Result
	Timings   Timings
}

// Resolve runs the unit loops in order, then one final compile with every
// unit's fixes.
//
// The returned error is a *driver.BuildSucceeded when a loop compile
// succeeded (its stdout has been relayed), a *relay.ExitError when the final
// compile failed (its output has been relayed), or anything else for
// failures of autoimport itself. A nil error means the final compile passed.
func Resolve(ctx context.Context, req *ResolveRequest) (ResolveResult, error) {
	var result ResolveResult
	if req == nil || req.Driver == nil || req.Runner == nil {
		return result, errors.New("incomplete resolve request")
	}
	if len(req.Units) == 0 {
		return result, errors.New("no units to resolve")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	ctx, span := trace.Start(ctx, trace.ScopeDriver, "build")
	defer span.End("")

	files := make([]string, len(req.Units))
	for i, u := range req.Units {
		files[i] = u.String()
	}
	emitQueued(req.Progress, StageResolve, files)

	settled := make(map[string]string, len(req.Units))
	for _, u := range req.Units {
		start := time.Now()
		res, err := req.Driver.Resolve(ctx, u, settled)
		elapsed := time.Since(start)
		result.Timings.Add(StageResolve, elapsed)

		var ok *driver.BuildSucceeded
		if errors.As(err, &ok) {
			result.Resolutions = append(result.Resolutions, res)
			result.Succeeded = ok
			emit(req.Progress, Event{File: u.String(), Stage: StageResolve, Status: StatusDone, Elapsed: elapsed, Fixes: res.Fixes.Len(), Guessed: res.Guessed()})
			// the child compiled the whole tree, so the remaining units are done as well
			cancel()
			for _, rest := range req.Units[len(result.Resolutions):] {
				emit(req.Progress, Event{File: rest.String(), Stage: StageResolve, Status: StatusDone})
			}
			span.Set("outcome", "success")
			relayOutput(req.Stdout, nil, ok.Result)
			return result, err
		}
		if err != nil {
			emit(req.Progress, Event{File: u.String(), Stage: StageResolve, Status: StatusError, Err: err, Elapsed: elapsed})
			return result, err
		}
		result.Resolutions = append(result.Resolutions, res)
		settled[u.Key()] = res.Rendered
		emit(req.Progress, Event{File: u.String(), Stage: StageResolve, Status: StatusDone, Elapsed: elapsed, Fixes: res.Fixes.Len(), Guessed: res.Guessed()})
	}

	final := channel.Request{RunID: req.RunID, Mode: channel.ModeFinal, Units: settled}
	emit(req.Progress, Event{Stage: StageFinal, Status: StatusWorking})
	out, err := req.Runner.Run(ctx, final)
	result.Timings.Add(StageFinal, out.Elapsed)
	if err != nil {
		emit(req.Progress, Event{Stage: StageFinal, Status: StatusError, Err: err})
		return result, fmt.Errorf("final compile: %w", err)
	}
	result.Final = out
	relayOutput(req.Stdout, req.Stderr, out)
	if !out.Success {
		span.Set("outcome", "failed")
		exitErr := &relay.ExitError{Code: out.ExitCode}
		emit(req.Progress, Event{Stage: StageFinal, Status: StatusError, Err: exitErr, Elapsed: out.Elapsed})
		return result, exitErr
	}
	span.Set("outcome", "final")
	emit(req.Progress, Event{Stage: StageFinal, Status: StatusDone, Elapsed: out.Elapsed})
	return result, nil
}

// relayOutput copies a child's captured output. Write errors are ignored:
// the exit status already tells the story.
func relayOutput(stdout, stderr io.Writer, res relay.Result) {
	if stdout != nil && len(res.Stdout) > 0 {
		_, _ = stdout.Write(res.Stdout)
	}
	if stderr != nil && len(res.Stderr) > 0 {
		_, _ = stderr.Write(res.Stderr)
	}
}
