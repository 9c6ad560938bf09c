// Package relay runs subprocesses on behalf of the build loop: the
// re-executed autoimport child in the parent role and the wrapped compiler
// in the child role.
package relay

import (
	"context"
	"fmt"
	"time"

	"autoimport/internal/channel"
)

// Result is what a finished subprocess left behind.
type Result struct {
	Success  bool
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	Elapsed  time.Duration
}

// Runner re-executes the current build as a child carrying req.
type Runner interface {
	Run(ctx context.Context, req channel.Request) (Result, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, req channel.Request) (Result, error)

func (f RunnerFunc) Run(ctx context.Context, req channel.Request) (Result, error) {
	return f(ctx, req)
}

// ExitError asks the process to exit with Code without printing anything
// further; the subprocess output has already been relayed.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}
