// Package driver runs the fixpoint loop that grows a unit's import set until
// the compiler stops suggesting new imports.
package driver

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"fortio.org/safecast"
	"github.com/google/uuid"

	"autoimport/internal/channel"
	"autoimport/internal/diag"
	"autoimport/internal/fix"
	"autoimport/internal/inject"
	"autoimport/internal/project"
	"autoimport/internal/relay"
	"autoimport/internal/trace"
)

// MaxAttempts is the hard cap on compiles per unit.
const MaxAttempts uint8 = 10

// Options configures a Driver. Runner and Registry are required.
type Options struct {
	Runner        relay.Runner
	Registry      *Registry
	Disambiguator *fix.Disambiguator
	Decoder       *diag.Decoder
	Reporter      fix.Reporter
	Observer      AttemptObserver
	// MaxAttempts lowers the cap; 0 or anything above MaxAttempts means MaxAttempts.
	MaxAttempts int
	RunID       uuid.UUID
}

// Driver resolves units one at a time. A Driver holds no per-unit state;
// everything a loop accumulates lives on the stack of Resolve.
type Driver struct {
	runner   relay.Runner
	registry *Registry
	chooser  *fix.Disambiguator
	decoder  *diag.Decoder
	reporter fix.Reporter
	observer AttemptObserver
	max      uint8
	runID    uuid.UUID
}

// New validates opts and fills in defaults.
func New(opts Options) (*Driver, error) {
	if opts.Runner == nil {
		return nil, errors.New("driver: runner is required")
	}
	if opts.Registry == nil {
		return nil, errors.New("driver: registry is required")
	}
	limit := MaxAttempts
	if opts.MaxAttempts > 0 {
		n, err := safecast.Conv[uint8](opts.MaxAttempts)
		if err == nil && n < MaxAttempts {
			limit = n
		}
	}
	d := &Driver{
		runner:   opts.Runner,
		registry: opts.Registry,
		chooser:  opts.Disambiguator,
		decoder:  opts.Decoder,
		reporter: opts.Reporter,
		observer: opts.Observer,
		max:      limit,
		runID:    opts.RunID,
	}
	if d.reporter == nil {
		d.reporter = fix.NopReporter{}
	}
	if d.chooser == nil {
		d.chooser = fix.NewDisambiguator(fix.WithReporter(d.reporter))
	}
	if d.decoder == nil {
		dec, err := diag.NewDecoder(diag.DefaultCacheSize)
		if err != nil {
			return nil, err
		}
		d.decoder = dec
	}
	if d.runID == uuid.Nil {
		d.runID = uuid.New()
	}
	return d, nil
}

// Limit returns the effective attempt cap.
func (d *Driver) Limit() uint8 { return d.max }

// Resolve runs the loop for u. settled maps keys of units resolved earlier
// in this build to their rendered declarations; children compile those
// units with their fixes.
//
// A successful compile returns a *BuildSucceeded error (errors.Is
// ErrBuildSucceeded) together with the partial Resolution. Claiming u twice
// returns ErrDuplicateUnit.
func (d *Driver) Resolve(ctx context.Context, u project.Unit, settled map[string]string) (Resolution, error) {
	res := Resolution{Unit: u, Fixes: fix.NewSet(), Excluded: fix.NewSet()}
	if err := d.registry.Claim(u); err != nil {
		return res, err
	}

	ctx, span := trace.Start(trace.ForUnit(ctx, u.String()), trace.ScopeUnit, "resolve")
	span.Set("run", d.runID.String())
	outcome := "capped"
	defer func() {
		span.SetInt("attempts", int(res.Attempts)).SetInt("fixes", res.Fixes.Len()).End(outcome)
	}()

	base := channel.Request{RunID: d.runID, Mode: channel.ModeObserve, Units: maps.Clone(settled)}
	for res.Attempts < d.max {
		if err := ctx.Err(); err != nil {
			outcome = "canceled"
			return res, err
		}
		res.Attempts++
		step, out, err := d.attempt(ctx, u, base, &res)
		if err != nil {
			outcome = "error"
			return res, fmt.Errorf("%s: attempt %d: %w", u, res.Attempts, err)
		}
		if out.Success {
			outcome = "success"
			res.Rendered = inject.Render(res.Fixes)
			return res, &BuildSucceeded{Unit: u, Attempt: res.Attempts, Result: out}
		}
		res.History = append(res.History, step)
		if !step.Changed {
			res.Converged = true
			outcome = "converged"
			break
		}
	}
	res.Rendered = inject.Render(res.Fixes)
	return res, nil
}

func (d *Driver) attempt(ctx context.Context, u project.Unit, base channel.Request, res *Resolution) (Step, relay.Result, error) {
	step := Step{Attempt: res.Attempts}
	d.notify(AttemptEvent{Unit: u, Attempt: step.Attempt, Max: d.max, Status: AttemptStart})

	ctx, span := trace.Start(trace.ForAttempt(ctx, int(step.Attempt)), trace.ScopeAttempt, "attempt")

	req := base.With(u.Key(), inject.Render(res.Fixes))
	out, err := d.runner.Run(ctx, req)
	if err != nil {
		span.End("relay failed")
		return step, out, err
	}
	if out.Success {
		elapsed := span.End("success")
		d.notify(AttemptEvent{Unit: u, Attempt: step.Attempt, Max: d.max, Status: AttemptEnd, Elapsed: elapsed, Success: true})
		return step, out, nil
	}

	d.decide(ctx, u, out.Stderr, &step, res.Fixes, res.Excluded)

	elapsed := span.SetInt("proposed", len(step.Proposed)).End(changedDetail(step.Changed))
	d.notify(AttemptEvent{
		Unit: u, Attempt: step.Attempt, Max: d.max, Status: AttemptEnd,
		Elapsed: elapsed, Proposed: len(step.Proposed), Changed: step.Changed,
	})
	return step, out, nil
}

// Analyze applies one attempt's decisions to fixes and excluded using a
// captured stderr stream instead of a compile. Attempt is left zero.
func (d *Driver) Analyze(ctx context.Context, u project.Unit, stderr []byte, fixes, excluded *fix.Set) Step {
	var step Step
	d.decide(ctx, u, stderr, &step, fixes, excluded)
	return step
}

func (d *Driver) decide(ctx context.Context, u project.Unit, stderr []byte, step *Step, fixes, excluded *fix.Set) {
	step.Proposed = d.propose(ctx, u, stderr, fixes, excluded)
	switch {
	case len(step.Proposed) > 1:
		groups := fix.GroupByTerminal(slices.Values(step.Proposed))
		for _, ident := range slices.Sorted(maps.Keys(groups)) {
			dec := d.chooser.Choose(ident, groups[ident])
			step.Decisions = append(step.Decisions, dec)
			d.accept(dec.Winner, fixes)
			for _, loser := range dec.Losers {
				excluded.Add(loser)
			}
			if dec.Reason != fix.ReasonSingle {
				trace.Decision(ctx, ident, string(dec.Winner), dec.Reason.String(), len(dec.Losers))
			}
		}
		step.Changed = true
	case len(step.Proposed) == 1:
		d.accept(step.Proposed[0], fixes)
		step.Changed = true
	}
	step.Fixes = fixes.Sorted()
	step.Excluded = excluded.Sorted()
}

// propose collects candidates from diagnostics about u that are neither
// accepted nor excluded yet. The result is sorted and free of duplicates.
func (d *Driver) propose(ctx context.Context, u project.Unit, stderr []byte, fixes, excluded *fix.Set) []fix.Candidate {
	seen := fix.NewSet()
	for rec := range d.decoder.Records(stderr) {
		if !rec.ConfinedTo(u.Matches) {
			trace.Skipped(ctx, "other file", rec.Message)
			continue
		}
		trace.Record(ctx, rec.Message)
		for c := range fix.Extract(rec) {
			if fixes.Has(c) || excluded.Has(c) {
				continue
			}
			seen.Add(c)
		}
	}
	return seen.Sorted()
}

func (d *Driver) accept(c fix.Candidate, fixes *fix.Set) {
	if fixes.Add(c) {
		d.reporter.Injecting(c)
	}
}

func (d *Driver) notify(ev AttemptEvent) {
	if d.observer != nil {
		d.observer(ev)
	}
}

func changedDetail(changed bool) string {
	if changed {
		return "changed"
	}
	return "stable"
}
