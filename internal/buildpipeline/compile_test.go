package buildpipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"autoimport/internal/channel"
	"autoimport/internal/project"
	"autoimport/internal/relay"
)

const mainSrc = "autoimport::magic!();\nfn main() { foo!(); }\n"

func setupUnits(t *testing.T) (string, project.Unit, project.Unit) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.rs"), []byte(mainSrc), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib.rs"), []byte("autoimport::magic!();\npub fn f() {}\n"), 0o644))
	main, err := project.NewUnitIn(dir, "main.rs")
	require.NoError(t, err)
	lib, err := project.NewUnitIn(dir, "lib.rs")
	require.NoError(t, err)
	return dir, main, lib
}

func TestCompileSplicesAndRestores(t *testing.T) {
	dir, main, lib := setupUnits(t)
	req := channel.NewRequest(channel.ModeObserve).With(main.Key(), "use crate_a::foo;")
	var stdout bytes.Buffer

	res, err := Compile(context.Background(), &CompileRequest{
		Request: req,
		Units:   []project.Unit{main, lib},
		Command: []string{"sh", "-c", "cat main.rs lib.rs"},
		Dir:     dir,
		Jobs:    2,
		Stdout:  &stdout,
	})
	require.NoError(t, err)
	require.True(t, res.Compiler.Success)
	require.Equal(t, "use crate_a::foo;\nfn main() { foo!(); }\n\npub fn f() {}\n", stdout.String())

	got, err := os.ReadFile(main.Path())
	require.NoError(t, err)
	require.Equal(t, mainSrc, string(got))
}

func TestCompileLookalikeUnitsGetTheirOwnFixes(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "a"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a", "b.rs"), []byte("autoimport::magic!();\nfn nested() {}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ab.rs"), []byte("autoimport::magic!();\nfn flat() {}\n"), 0o644))
	nested, err := project.NewUnitIn(dir, "a/b.rs")
	require.NoError(t, err)
	flat, err := project.NewUnitIn(dir, "ab.rs")
	require.NoError(t, err)

	req := channel.NewRequest(channel.ModeObserve).
		With(nested.Key(), "use x::X;").
		With(flat.Key(), "use y::Y;")
	var stdout bytes.Buffer
	_, err = Compile(context.Background(), &CompileRequest{
		Request: req,
		Units:   []project.Unit{nested, flat},
		Command: []string{"sh", "-c", "cat a/b.rs ab.rs"},
		Dir:     dir,
		Stdout:  &stdout,
	})
	require.NoError(t, err)
	require.Equal(t, "use x::X;\nfn nested() {}\nuse y::Y;\nfn flat() {}\n", stdout.String())
}

func TestCompileCancelRestoresUnits(t *testing.T) {
	dir, main, _ := setupUnits(t)
	ready := filepath.Join(dir, "ready")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		for {
			if _, err := os.Stat(ready); err == nil {
				cancel()
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}()

	_, err := Compile(ctx, &CompileRequest{
		Request: channel.NewRequest(channel.ModeObserve).With(main.Key(), "use crate_a::foo;"),
		Units:   []project.Unit{main},
		Command: []string{"sh", "-c", "touch ready; exec sleep 30"},
		Dir:     dir,
	})
	require.ErrorIs(t, err, context.Canceled)

	got, err := os.ReadFile(main.Path())
	require.NoError(t, err)
	require.Equal(t, mainSrc, string(got))
}

func TestCompileFailurePropagatesExitCode(t *testing.T) {
	dir, main, _ := setupUnits(t)
	var stderr bytes.Buffer
	_, err := Compile(context.Background(), &CompileRequest{
		Request: channel.NewRequest(channel.ModeFinal),
		Units:   []project.Unit{main},
		Command: []string{"sh", "-c", "echo nope >&2; exit 101"},
		Dir:     dir,
		Stderr:  &stderr,
	})
	var exitErr *relay.ExitError
	require.True(t, errors.As(err, &exitErr))
	require.Equal(t, 101, exitErr.Code)
	require.Equal(t, "nope\n", stderr.String())

	got, err := os.ReadFile(main.Path())
	require.NoError(t, err)
	require.Equal(t, mainSrc, string(got))
}

func TestCompileWriteBackKeepsCarriedUnits(t *testing.T) {
	dir, main, lib := setupUnits(t)
	req := channel.NewRequest(channel.ModeFinal).With(main.Key(), "use crate_a::foo;")
	_, err := Compile(context.Background(), &CompileRequest{
		Request:   req,
		Units:     []project.Unit{main, lib},
		Command:   []string{"true"},
		Dir:       dir,
		WriteBack: true,
	})
	require.NoError(t, err)

	got, err := os.ReadFile(main.Path())
	require.NoError(t, err)
	require.Equal(t, "use crate_a::foo;\nfn main() { foo!(); }\n", string(got))

	got, err = os.ReadFile(lib.Path())
	require.NoError(t, err)
	require.Equal(t, "autoimport::magic!();\npub fn f() {}\n", string(got), "units without fixes are left alone")
}

func TestCompileEnvFile(t *testing.T) {
	dir, main, _ := setupUnits(t)
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("RUSTFLAGS=-Dwarnings\n"), 0o600))

	var stdout bytes.Buffer
	_, err := Compile(context.Background(), &CompileRequest{
		Request: channel.NewRequest(channel.ModeFinal),
		Units:   []project.Unit{main},
		Command: []string{"sh", "-c", `printf '%s|%s' "$RUSTFLAGS" "$` + channel.EnvVar + `"`},
		Dir:     dir,
		Env:     []string{"PATH=" + os.Getenv("PATH"), "RUSTFLAGS=old", channel.EnvVar + "=secret"},
		EnvFile: envFile,
		Stdout:  &stdout,
	})
	require.NoError(t, err)
	require.Equal(t, "-Dwarnings|", stdout.String())
}

func TestCompileMissingMarker(t *testing.T) {
	dir, main, _ := setupUnits(t)
	require.NoError(t, os.WriteFile(main.Path(), []byte("fn main() {}\n"), 0o644))
	_, err := Compile(context.Background(), &CompileRequest{
		Request: channel.NewRequest(channel.ModeObserve),
		Units:   []project.Unit{main},
		Command: []string{"true"},
		Dir:     dir,
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "marker invocation not found")
}
