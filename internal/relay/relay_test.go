package relay

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"autoimport/internal/channel"
)

func TestRewriteFormatFlag(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "appends flag",
			in:   []string{"build", "--", "rustc", "src/main.rs"},
			want: []string{"build", "--", "rustc", "src/main.rs", "--error-format=json"},
		},
		{
			name: "replaces existing flag",
			in:   []string{"build", "--", "rustc", "--error-format=short", "src/main.rs"},
			want: []string{"build", "--", "rustc", "src/main.rs", "--error-format=json"},
		},
		{
			name: "own flags untouched",
			in:   []string{"build", "--error-format=x", "--", "rustc"},
			want: []string{"build", "--error-format=x", "--", "rustc", "--error-format=json"},
		},
		{
			name: "no separator",
			in:   []string{"rustc", "--error-format=human", "a.rs"},
			want: []string{"rustc", "a.rs", "--error-format=json"},
		},
		{
			name: "second separator belongs to compiler",
			in:   []string{"build", "--", "cargo", "rustc", "--", "--error-format=human"},
			want: []string{"build", "--", "cargo", "rustc", "--", "--error-format=json"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := append([]string(nil), tt.in...)
			got := RewriteFormatFlag(tt.in, DefaultFormatFlagPrefix, DefaultFormatFlag)
			require.Equal(t, tt.want, got)
			require.Equal(t, orig, tt.in, "input must not change")
		})
	}
}

func TestSplitCommand(t *testing.T) {
	own, compiler, ok := SplitCommand([]string{"build", "--write", "--", "rustc", "x.rs"})
	require.True(t, ok)
	require.Equal(t, []string{"build", "--write"}, own)
	require.Equal(t, []string{"rustc", "x.rs"}, compiler)

	_, _, ok = SplitCommand([]string{"build"})
	require.False(t, ok)
}

func TestCommandOnlyRewritesInObserveMode(t *testing.T) {
	r := &ExecRunner{
		Args:             []string{"build", "--", "rustc", "--error-format=short"},
		FormatFlag:       DefaultFormatFlag,
		FormatFlagPrefix: DefaultFormatFlagPrefix,
	}
	require.Equal(t,
		[]string{"build", "--", "rustc", "--error-format=json"},
		r.Command(channel.NewRequest(channel.ModeObserve)))
	require.Equal(t,
		[]string{"build", "--", "rustc", "--error-format=short"},
		r.Command(channel.NewRequest(channel.ModeFinal)))
}

func TestExecRunnerPassesChannelInEnvOnly(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	r := &ExecRunner{
		Path: sh,
		Args: []string{"-c", `echo "$` + channel.EnvVar + `"; echo oops >&2; exit 3`},
		Env:  []string{"PATH=" + os.Getenv("PATH")},
	}
	req := channel.NewRequest(channel.ModeFinal).With("k", "use a::b;")
	res, err := r.Run(context.Background(), req)
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, 3, res.ExitCode)
	require.Equal(t, "oops\n", string(res.Stderr))

	got, err := channel.Decode(strings.TrimSpace(string(res.Stdout)))
	require.NoError(t, err)
	require.Equal(t, req.RunID, got.RunID)

	_, inParent := os.LookupEnv(channel.EnvVar)
	require.False(t, inParent)
}

// cancelWhenReady cancels once the child has created the ready file.
func cancelWhenReady(ready string, cancel context.CancelFunc) {
	go func() {
		tick := time.NewTicker(10 * time.Millisecond)
		defer tick.Stop()
		for range tick.C {
			if _, err := os.Stat(ready); err == nil {
				cancel()
				return
			}
		}
	}()
}

func TestExecRunnerCancelLetsChildCleanUp(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	dir := t.TempDir()
	restored := filepath.Join(dir, "restored")
	ready := filepath.Join(dir, "ready")
	script := `trap 'kill $! 2>/dev/null; echo restored > "$1"; exit 130' INT TERM
sleep 30 >/dev/null 2>&1 &
touch "$2"
wait`
	r := &ExecRunner{
		Path:  sh,
		Args:  []string{"-c", script, "sh", restored, ready},
		Env:   []string{"PATH=" + os.Getenv("PATH")},
		Grace: 3 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cancelWhenReady(ready, cancel)

	start := time.Now()
	_, err = r.Run(ctx, channel.NewRequest(channel.ModeObserve))
	require.ErrorIs(t, err, context.Canceled)
	require.Less(t, time.Since(start), 3*time.Second, "child should exit on the interrupt, not the kill")

	got, err := os.ReadFile(restored)
	require.NoError(t, err, "cleanup did not run")
	require.Equal(t, "restored\n", string(got))
}

func TestExecRunnerKillsChildIgnoringInterrupt(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	ready := filepath.Join(t.TempDir(), "ready")
	r := &ExecRunner{
		Path:  sh,
		Args:  []string{"-c", `trap '' INT; touch "$1"; exec sleep 30`, "sh", ready},
		Env:   []string{"PATH=" + os.Getenv("PATH")},
		Grace: 200 * time.Millisecond,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cancelWhenReady(ready, cancel)

	start := time.Now()
	_, err = r.Run(ctx, channel.NewRequest(channel.ModeObserve))
	require.ErrorIs(t, err, context.Canceled)
	require.Less(t, time.Since(start), 10*time.Second)
}

func TestCompilerRun(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("true not available")
	}
	res, err := (&Compiler{}).Run(context.Background(), []string{"true"})
	require.NoError(t, err)
	require.True(t, res.Success)

	_, err = (&Compiler{}).Run(context.Background(), nil)
	require.Error(t, err)
}

func TestExitError(t *testing.T) {
	var err error = &ExitError{Code: 101}
	require.EqualError(t, err, "exit status 101")
}
