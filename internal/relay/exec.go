package relay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"autoimport/internal/channel"
	"autoimport/internal/trace"
)

const (
	DefaultFormatFlag       = "--error-format=json"
	DefaultFormatFlagPrefix = "--error-format="

	// DefaultGrace is how long a cancelled child may take to restore its
	// units after the interrupt before it is killed.
	DefaultGrace = 5 * time.Second
)

// ExecRunner re-executes the running binary with its own arguments. The
// channel request travels in the child's environment only.
type ExecRunner struct {
	// Path of the executable; os.Executable() when empty.
	Path string
	// Args after the program name; os.Args[1:] when nil.
	Args []string
	// Env is the base environment; os.Environ() when nil.
	Env []string
	Dir string

	FormatFlag       string
	FormatFlagPrefix string

	// Grace bounds the wait after cancellation; DefaultGrace when zero.
	Grace time.Duration
}

// NewExecRunner returns a runner for the current process.
func NewExecRunner() (*ExecRunner, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to locate own executable: %w", err)
	}
	return &ExecRunner{
		Path:             exe,
		Args:             append([]string(nil), os.Args[1:]...),
		FormatFlag:       DefaultFormatFlag,
		FormatFlagPrefix: DefaultFormatFlagPrefix,
	}, nil
}

// Command returns the argument list a child for req is started with.
func (r *ExecRunner) Command(req channel.Request) []string {
	args := r.Args
	if args == nil {
		args = os.Args[1:]
	}
	if req.Mode == channel.ModeObserve {
		return RewriteFormatFlag(args, r.FormatFlagPrefix, r.FormatFlag)
	}
	return append([]string(nil), args...)
}

// Run starts the child and waits for it. A non-zero exit is reported in
// Result, not as an error; err is set only when the child could not run.
func (r *ExecRunner) Run(ctx context.Context, req channel.Request) (Result, error) {
	path := r.Path
	if path == "" {
		exe, err := os.Executable()
		if err != nil {
			return Result{}, fmt.Errorf("failed to locate own executable: %w", err)
		}
		path = exe
	}
	base := r.Env
	if base == nil {
		base = os.Environ()
	}
	env, err := channel.Environ(base, req)
	if err != nil {
		return Result{}, err
	}

	args := r.Command(req)
	ctx, span := trace.Start(ctx, trace.ScopeAttempt, "relay")
	span.Set("mode", req.Mode.String()).SetInt("units", len(req.Units))

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Env = env
	cmd.Dir = r.Dir
	interruptOnCancel(cmd, r.Grace)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	res, err := wait(ctx, cmd)
	res.Stdout, res.Stderr = stdout.Bytes(), stderr.Bytes()
	span.SetInt("exit", res.ExitCode).End("")
	return res, err
}

// Compiler runs the wrapped compiler in the child role. Output goes straight
// to the given writers.
type Compiler struct {
	Env    []string // full environment; os.Environ() when nil
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
	Grace  time.Duration
}

// Run executes argv and reports how it ended.
func (c *Compiler) Run(ctx context.Context, argv []string) (Result, error) {
	if len(argv) == 0 {
		return Result{}, errors.New("no compiler command given")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if c.Env != nil {
		cmd.Env = c.Env
	}
	cmd.Dir = c.Dir
	interruptOnCancel(cmd, c.Grace)
	cmd.Stdin = os.Stdin
	cmd.Stdout = orDiscard(c.Stdout)
	cmd.Stderr = orDiscard(c.Stderr)
	return wait(ctx, cmd)
}

// interruptOnCancel makes cancellation interrupt the process instead of
// killing it, so a child can put patched units back. The process is killed
// and its pipes closed once grace runs out.
func interruptOnCancel(cmd *exec.Cmd, grace time.Duration) {
	if grace <= 0 {
		grace = DefaultGrace
	}
	cmd.Cancel = func() error {
		if err := cmd.Process.Signal(os.Interrupt); err != nil {
			// no interrupt on this platform
			return cmd.Process.Kill()
		}
		return nil
	}
	cmd.WaitDelay = grace
}

func wait(ctx context.Context, cmd *exec.Cmd) (Result, error) {
	start := time.Now()
	err := cmd.Run()
	res := Result{Elapsed: time.Since(start)}
	if err == nil {
		res.Success = true
		return res, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, ctxErr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		if res.ExitCode < 0 {
			// killed by a signal
			res.ExitCode = 1
		}
		return res, nil
	}
	return res, fmt.Errorf("failed to run %s: %w", cmd.Path, err)
}

func orDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
