package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"autoimport/internal/channel"
	"autoimport/internal/trace"
)

var traceCleanup func(err error)

// traceFlags are the persistent --trace* flags of the root command.
var traceFlags struct {
	output    string
	level     string
	mode      string
	format    string
	ringSize  int
	heartbeat time.Duration
}

func registerTraceFlags(root *cobra.Command) {
	flags := root.PersistentFlags()
	flags.StringVar(&traceFlags.output, "trace", "", "write trace events to a file (\"-\" for stderr)")
	flags.StringVar(&traceFlags.level, "trace-level", "off", "trace level (off|error|phase|detail|debug)")
	flags.StringVar(&traceFlags.mode, "trace-mode", "stream", "trace storage (stream|ring|both)")
	flags.StringVar(&traceFlags.format, "trace-format", "auto", "trace format (auto|text|ndjson)")
	flags.IntVar(&traceFlags.ringSize, "trace-ring-size", 4096, "events kept for the failure dump")
	flags.DurationVar(&traceFlags.heartbeat, "trace-heartbeat", 0, "report what the build waits on at this interval (0 = off)")
}

// traceConfig turns the flags into a tracer config. --trace without a level
// means phase.
func traceConfig() (trace.Config, error) {
	cfg := trace.Config{OutputPath: traceFlags.output, RingSize: traceFlags.ringSize, Heartbeat: traceFlags.heartbeat}
	var err error
	if cfg.Level, err = trace.ParseLevel(traceFlags.level); err != nil {
		return cfg, err
	}
	if cfg.Level == trace.LevelOff && cfg.OutputPath != "" {
		cfg.Level = trace.LevelPhase
	}
	if cfg.Mode, err = trace.ParseMode(traceFlags.mode); err != nil {
		return cfg, err
	}
	cfg.Format, err = trace.ParseFormat(traceFlags.format)
	return cfg, err
}

// setupTracing puts the tracer the flags ask for into the command context.
// Children started by a build never trace: their stderr is read back as
// diagnostics and the trace file belongs to the parent.
func setupTracing(cmd *cobra.Command) error {
	cfg, err := traceConfig()
	if err != nil {
		return err
	}
	if cfg.Level == trace.LevelOff || os.Getenv(channel.EnvVar) != "" {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return nil
	}
	tracer, err := trace.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create tracer: %w", err)
	}
	format := cfg.Format
	root := cmd.Root()

	ctx := trace.WithTracer(cmd.Context(), tracer)
	cmd.SetContext(ctx)
	root.SetContext(ctx)

	traceCleanup = func(runErr error) {
		if exitCode(runErr) != exitOK {
			dumpRing(tracer, format)
		}
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(os.Stderr, "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "trace: close error: %v\n", err)
		}
	}
	return nil
}

func cleanupTracing(err error) {
	if traceCleanup != nil {
		traceCleanup(err)
		traceCleanup = nil
	}
}

// dumpRing prints the events a ring kept, so a failed build leaves its last
// attempts behind.
func dumpRing(tracer trace.Tracer, format trace.Format) {
	ring, ok := trace.RingOf(tracer)
	if !ok {
		return
	}
	fmt.Fprintf(os.Stderr, "--- trace (last events, %s) ---\n", time.Now().Format(time.TimeOnly))
	if err := ring.Dump(os.Stderr, format); err != nil {
		fmt.Fprintf(os.Stderr, "trace: dump error: %v\n", err)
	}
}
