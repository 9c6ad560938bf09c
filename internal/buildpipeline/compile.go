package buildpipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"autoimport/internal/channel"
	"autoimport/internal/inject"
	"autoimport/internal/project"
	"autoimport/internal/relay"
	"autoimport/internal/trace"
)

// CompileRequest configures the child role: patch every unit, run the
// compiler, put the units back.
type CompileRequest struct {
	Request channel.Request
	Units   []project.Unit
	// Command is the compiler command line.
	Command []string
	Splicer *inject.Splicer
	// Jobs bounds concurrent patch preparation (0 = one per unit).
	Jobs int
	// Env is the base environment (os.Environ() when nil).
	Env []string
	// EnvFile, when set, is a dotenv file merged over Env for the compiler.
	EnvFile string
	// WriteBack keeps the patched content of units the request carries after
	// a successful compile.
	WriteBack bool
	Dir       string
	Stdout    io.Writer
	Stderr    io.Writer
	Progress  ProgressSink
}

// CompileResult captures the compiler outcome and stage timings.
type CompileResult struct {
	Compiler relay.Result
	Patches  []inject.Patch
	Timings  Timings
}

// Compile runs the child role. A failing compiler yields *relay.ExitError.
func Compile(ctx context.Context, req *CompileRequest) (result CompileResult, err error) {
	if req == nil {
		return result, errors.New("missing compile request")
	}
	if len(req.Command) == 0 {
		return result, errors.New("missing compiler command")
	}
	splicer := req.Splicer
	if splicer == nil {
		splicer = inject.NewSplicer("")
	}
	ctx, span := trace.Start(ctx, trace.ScopeDriver, "compile")
	span.Set("run", req.Request.RunID.String()).Set("mode", req.Request.Mode.String())
	defer func() { span.End(errDetail(err)) }()

	patchStart := time.Now()
	patches, err := preparePatches(ctx, req, splicer)
	if err != nil {
		return result, err
	}
	result.Patches = patches

	defer func() {
		if restoreErr := splicer.Restore(); restoreErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to restore units: %w", restoreErr))
		}
	}()
	for _, p := range patches {
		if err := splicer.Apply(p); err != nil {
			emit(req.Progress, Event{File: p.Unit.String(), Stage: StagePatch, Status: StatusError, Err: err})
			return result, err
		}
	}
	result.Timings.Add(StagePatch, time.Since(patchStart))

	env, err := compilerEnv(req.Env, req.EnvFile)
	if err != nil {
		return result, err
	}
	emit(req.Progress, Event{Stage: StageCompile, Status: StatusWorking})
	compiler := &relay.Compiler{Env: env, Dir: req.Dir, Stdout: req.Stdout, Stderr: req.Stderr}
	out, err := compiler.Run(ctx, req.Command)
	result.Compiler = out
	result.Timings.Add(StageCompile, out.Elapsed)
	if err != nil {
		emit(req.Progress, Event{Stage: StageCompile, Status: StatusError, Err: err})
		return result, err
	}
	if !out.Success {
		exitErr := &relay.ExitError{Code: out.ExitCode}
		emit(req.Progress, Event{Stage: StageCompile, Status: StatusError, Err: exitErr, Elapsed: out.Elapsed})
		return result, exitErr
	}
	if req.WriteBack {
		for _, p := range patches {
			if _, carried := req.Request.Rendered(p.Unit.Key()); carried {
				splicer.Keep(p.Unit)
			}
		}
	}
	emit(req.Progress, Event{Stage: StageCompile, Status: StatusDone, Elapsed: out.Elapsed})
	return result, nil
}

// preparePatches reads and patches every unit in memory. Units the request
// says nothing about get an empty rendering, so their marker disappears.
func preparePatches(ctx context.Context, req *CompileRequest, splicer *inject.Splicer) ([]inject.Patch, error) {
	patches := make([]inject.Patch, len(req.Units))
	g, gctx := errgroup.WithContext(ctx)
	jobs := req.Jobs
	if jobs <= 0 {
		jobs = len(req.Units)
	}
	g.SetLimit(max(jobs, 1))
	for i, u := range req.Units {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rendered, _ := req.Request.Rendered(u.Key())
			p, err := splicer.Prepare(u, rendered)
			if err != nil {
				emit(req.Progress, Event{File: u.String(), Stage: StagePatch, Status: StatusError, Err: err})
				return err
			}
			patches[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return patches, nil
}

// compilerEnv strips the channel variable and overlays the dotenv file.
func compilerEnv(base []string, envFile string) ([]string, error) {
	if base == nil {
		base = os.Environ()
	}
	prefix := channel.EnvVar + "="
	env := make([]string, 0, len(base))
	for _, kv := range base {
		if !strings.HasPrefix(kv, prefix) {
			env = append(env, kv)
		}
	}
	if envFile == "" {
		return env, nil
	}
	extra, err := godotenv.Read(envFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read env file %q: %w", envFile, err)
	}
	for _, k := range slices.Sorted(maps.Keys(extra)) {
		env = slices.DeleteFunc(env, func(kv string) bool { return strings.HasPrefix(kv, k+"=") })
		env = append(env, k+"="+extra[k])
	}
	return env, nil
}

func errDetail(err error) string {
	if err == nil {
		return "ok"
	}
	return err.Error()
}
