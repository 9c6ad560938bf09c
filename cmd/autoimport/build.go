package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"autoimport/internal/buildpipeline"
	"autoimport/internal/channel"
	"autoimport/internal/config"
	"autoimport/internal/diag"
	"autoimport/internal/driver"
	"autoimport/internal/fix"
	"autoimport/internal/inject"
	"autoimport/internal/observ"
	"autoimport/internal/project"
	"autoimport/internal/relay"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] -- <compiler> [args...]",
	Short: "Run a compiler, adding the imports it asks for",
	Long: `Run the compiler command given after "--". Every unit holding the marker
is recompiled with the imports the compiler suggests until it stops suggesting
new ones, then the whole command runs once more with all of them in place.
Units are restored afterwards unless --write is given.`,
	Example: `  autoimport build -- cargo build
  autoimport build --unit src/main.rs --write -- rustc src/main.rs`,
	RunE: runBuild,
}

func init() {
	registerBuildFlags(buildCmd)
}

func registerBuildFlags(cmd *cobra.Command) {
	cmd.Flags().StringArray("unit", nil, "unit holding the marker (repeatable; default: units.include)")
	cmd.Flags().Bool("write", false, "keep the injected imports after a successful build")
	cmd.Flags().Int("max-attempts", 0, "compile each unit at most N times (1..10)")
	cmd.Flags().Uint64("seed", 0, "seed for random tie breaks (0 = from the clock)")
	cmd.Flags().Int("jobs", 0, "units patched in parallel (0 = all)")
	cmd.Flags().String("env-file", "", "dotenv file merged into the compiler environment")
	cmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	cmd.Flags().Bool("timings", false, "print per-attempt timings")
}

type buildOptions struct {
	cfg      *config.Loaded
	units    []project.Unit
	compiler []string
	ui       progressView
	timings  bool
}

func runBuild(cmd *cobra.Command, args []string) error {
	compiler, err := compilerCommand(cmd, args)
	if err != nil {
		return err
	}
	loaded, err := config.Load()
	if err != nil {
		return err
	}
	if err := applyBuildFlags(cmd, loaded.Config); err != nil {
		return err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	mode, err := parseProgressView(uiValue)
	if err != nil {
		return err
	}
	timings, err := cmd.Flags().GetBool("timings")
	if err != nil {
		return err
	}
	unitArgs, err := cmd.Flags().GetStringArray("unit")
	if err != nil {
		return err
	}
	units, err := selectUnits(loaded, unitArgs)
	if err != nil {
		return err
	}
	opts := buildOptions{cfg: loaded, units: units, compiler: compiler, ui: mode, timings: timings}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	req, child, err := channel.FromProcess()
	if err != nil {
		return err
	}
	if child {
		return runChild(ctx, req, opts)
	}
	return runParent(ctx, opts)
}

// compilerCommand returns the arguments after "--".
func compilerCommand(cmd *cobra.Command, args []string) ([]string, error) {
	dash := cmd.ArgsLenAtDash()
	if dash < 0 {
		return nil, errors.New("missing compiler command: autoimport build [flags] -- <compiler> [args...]")
	}
	if dash > 0 {
		return nil, fmt.Errorf("unexpected arguments before --: %q", args[:dash])
	}
	if len(args) == 0 {
		return nil, errors.New("empty compiler command after --")
	}
	return args, nil
}

// applyBuildFlags lets explicit flags win over the loaded configuration.
func applyBuildFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error
	if flags.Changed("max-attempts") {
		if cfg.Build.MaxAttempts, err = flags.GetInt("max-attempts"); err != nil {
			return err
		}
	}
	if flags.Changed("seed") {
		if cfg.Disambiguate.Seed, err = flags.GetUint64("seed"); err != nil {
			return err
		}
	}
	if flags.Changed("jobs") {
		if cfg.Build.Jobs, err = flags.GetInt("jobs"); err != nil {
			return err
		}
	}
	if flags.Changed("env-file") {
		if cfg.Build.EnvFile, err = flags.GetString("env-file"); err != nil {
			return err
		}
	}
	if flags.Changed("write") {
		if cfg.Build.WriteBack, err = flags.GetBool("write"); err != nil {
			return err
		}
	}
	return config.Validate(cfg)
}

// selectUnits returns the units named on the command line, or every file
// matching units.include that holds the marker. Named units must hold it.
func selectUnits(loaded *config.Loaded, named []string) ([]project.Unit, error) {
	marker := loaded.Marker.Path
	if len(named) > 0 {
		units := make([]project.Unit, 0, len(named))
		for _, path := range named {
			u, err := project.NewUnit(path)
			if err != nil {
				return nil, err
			}
			if _, err := hasMarker(u, marker); err != nil {
				return nil, err
			}
			units = append(units, u)
		}
		return units, nil
	}

	found, err := project.Discover(loaded.Root, loaded.Units.Include)
	if err != nil {
		return nil, err
	}
	var units []project.Unit
	for _, u := range found {
		ok, err := hasMarker(u, marker)
		if errors.Is(err, inject.ErrMarkerMissing) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if ok {
			units = append(units, u)
		}
	}
	if len(units) == 0 {
		return nil, fmt.Errorf("no file under %s holds %s!() (units.include = %q)", loaded.Root, marker, loaded.Units.Include)
	}
	return units, nil
}

func hasMarker(u project.Unit, marker string) (bool, error) {
	src, err := os.ReadFile(u.Path())
	if err != nil {
		return false, fmt.Errorf("failed to read unit: %w", err)
	}
	if _, err := inject.Locate(u, src, marker); err != nil {
		return false, fmt.Errorf("%s: %w", u, err)
	}
	return true, nil
}

func envFilePath(loaded *config.Loaded) string {
	p := loaded.Build.EnvFile
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(loaded.Root, p)
}

// runChild patches the units as the request says, runs the compiler and puts
// the units back.
func runChild(ctx context.Context, req channel.Request, opts buildOptions) error {
	cfg := opts.cfg
	_, err := buildpipeline.Compile(ctx, &buildpipeline.CompileRequest{
		Request:   req,
		Units:     opts.units,
		Command:   opts.compiler,
		Splicer:   inject.NewSplicer(cfg.Marker.Path),
		Jobs:      cfg.Build.Jobs,
		EnvFile:   envFilePath(cfg),
		WriteBack: cfg.Build.WriteBack,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
	})
	return err
}

// runParent resolves every unit through child builds and relays the
// deciding child's output.
func runParent(ctx context.Context, opts buildOptions) error {
	cfg := opts.cfg
	runner, err := relay.NewExecRunner()
	if err != nil {
		return err
	}
	runner.FormatFlag = cfg.Build.FormatFlag
	runner.FormatFlagPrefix = cfg.Build.FormatFlagPrefix

	decoder, err := diag.NewDecoder(cfg.Diagnostics.CacheSize)
	if err != nil {
		return err
	}

	useTUI := opts.ui.live(os.Stderr)
	var (
		stdout, stderr io.Writer = os.Stdout, os.Stderr
		held           bytes.Buffer
		heldErr        bytes.Buffer
		events         chan buildpipeline.Event
		sink           buildpipeline.ProgressSink
	)
	if useTUI {
		// the view owns the terminal until the build is over
		stdout, stderr = &held, &heldErr
		events = make(chan buildpipeline.Event, 256)
		sink = buildpipeline.ChannelSink{Ch: events}
	}
	reporter := newProgressReporter(stderr)

	var timer *observ.Timer
	var timerObserver driver.AttemptObserver
	if opts.timings {
		timer = observ.NewTimer()
		timerObserver = attemptTimer(timer)
	}

	runID := uuid.New()
	drv, err := driver.New(driver.Options{
		Runner:        runner,
		Registry:      driver.NewRegistry(),
		Disambiguator: fix.NewDisambiguator(chooserOptions(cfg.Config, reporter)...),
		Decoder:       decoder,
		Reporter:      reporter,
		Observer:      chainObservers(buildpipeline.AttemptProgress(sink), timerObserver),
		MaxAttempts:   cfg.Build.MaxAttempts,
		RunID:         runID,
	})
	if err != nil {
		return err
	}

	req := &buildpipeline.ResolveRequest{
		Units:    opts.units,
		Driver:   drv,
		Runner:   runner,
		RunID:    runID,
		Progress: sink,
		Stdout:   stdout,
		Stderr:   stderr,
	}

	var res buildpipeline.ResolveResult
	if useTUI {
		names := make([]string, len(opts.units))
		for i, u := range opts.units {
			names[i] = u.String()
		}
		res, err = runResolveWithUI(ctx, "autoimport", names, events, req)
		_, _ = os.Stderr.Write(heldErr.Bytes())
		_, _ = os.Stdout.Write(held.Bytes())
	} else {
		res, err = buildpipeline.Resolve(ctx, req)
	}
	if opts.timings {
		printStageTimings(os.Stderr, timer, res.Timings)
	}
	return err
}

// chooserOptions configures the disambiguator from the configuration.
func chooserOptions(cfg *config.Config, reporter fix.Reporter) []fix.Option {
	opts := []fix.Option{fix.WithReporter(reporter)}
	if len(cfg.Disambiguate.Prefer) > 0 {
		prefer := make([]fix.Candidate, len(cfg.Disambiguate.Prefer))
		for i, p := range cfg.Disambiguate.Prefer {
			prefer[i] = fix.Candidate(p)
		}
		opts = append(opts, fix.WithPreferences(prefer...))
	}
	if cfg.Disambiguate.Seed != 0 {
		opts = append(opts, fix.WithSeed(cfg.Disambiguate.Seed))
	}
	return opts
}
