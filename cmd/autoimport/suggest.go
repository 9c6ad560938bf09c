package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"autoimport/internal/channel"
	"autoimport/internal/config"
	"autoimport/internal/diag"
	"autoimport/internal/diagfmt"
	"autoimport/internal/driver"
	"autoimport/internal/fix"
	"autoimport/internal/inject"
	"autoimport/internal/project"
	"autoimport/internal/relay"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest --unit FILE [flags] [DIAGNOSTICS|-]",
	Short: "Show what a build would import, from captured diagnostics",
	Long: `Read JSON diagnostics captured from a compiler run (a file, or stdin when
omitted or "-") and print the imports one attempt would add to the unit.
Nothing is compiled and no file is changed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSuggest,
}

func init() {
	suggestCmd.Flags().String("unit", "", "unit the diagnostics are filtered for (required)")
	suggestCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	suggestCmd.Flags().Uint64("seed", 0, "seed for random tie breaks (0 = from the clock)")
	suggestCmd.Flags().Bool("with-losers", false, "list the candidates that lost each choice")
	suggestCmd.Flags().Bool("fullpath", false, "emit absolute unit paths")
	_ = suggestCmd.MarkFlagRequired("unit")
}

var errSuggestOffline = errors.New("suggest never compiles")

func runSuggest(cmd *cobra.Command, args []string) error {
	unitPath, err := cmd.Flags().GetString("unit")
	if err != nil {
		return fmt.Errorf("failed to get unit flag: %w", err)
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format = strings.ToLower(format)
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}
	withLosers, err := cmd.Flags().GetBool("with-losers")
	if err != nil {
		return fmt.Errorf("failed to get with-losers flag: %w", err)
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
	}

	loaded, err := config.Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("seed") {
		if loaded.Disambiguate.Seed, err = cmd.Flags().GetUint64("seed"); err != nil {
			return err
		}
	}

	u, err := project.NewUnit(unitPath)
	if err != nil {
		return err
	}
	stream, err := readDiagnostics(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	s, err := suggest(cmd.Context(), loaded.Config, u, stream)
	if err != nil {
		return err
	}

	pathMode := diagfmt.PathModeAuto
	if fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}
	out := cmd.OutOrStdout()
	if format == "json" {
		return diagfmt.JSON(out, s, diagfmt.JSONOpts{PathMode: pathMode, IncludeExcluded: withLosers, Indent: true})
	}
	useColor := colorEnabled(out)
	return diagfmt.Pretty(out, s, diagfmt.PrettyOpts{Color: useColor, PathMode: pathMode, ShowLosers: withLosers})
}

// suggest runs one attempt's worth of analysis over stream.
func suggest(ctx context.Context, cfg *config.Config, u project.Unit, stream []byte) (diagfmt.Suggestion, error) {
	decoder, err := diag.NewDecoder(cfg.Diagnostics.CacheSize)
	if err != nil {
		return diagfmt.Suggestion{}, err
	}
	drv, err := driver.New(driver.Options{
		Runner: relay.RunnerFunc(func(context.Context, channel.Request) (relay.Result, error) {
			return relay.Result{}, errSuggestOffline
		}),
		Registry:      driver.NewRegistry(),
		Disambiguator: fix.NewDisambiguator(chooserOptions(cfg, nil)...),
		Decoder:       decoder,
	})
	if err != nil {
		return diagfmt.Suggestion{}, err
	}

	s := diagfmt.Suggestion{Unit: u}
	for rec := range decoder.Records(stream) {
		s.Records++
		if rec.ConfinedTo(u.Matches) {
			s.Relevant++
		}
	}
	fixes := fix.NewSet()
	s.Step = drv.Analyze(ctx, u, stream, fixes, fix.NewSet())
	s.Rendered = inject.Render(fixes)
	return s, nil
}

func readDiagnostics(stdin io.Reader, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read diagnostics from stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read diagnostics: %w", err)
	}
	return data, nil
}

func colorEnabled(w io.Writer) bool {
	switch colorMode {
	case "on":
		return true
	case "off":
		return false
	}
	f, ok := w.(*os.File)
	return ok && isTerminal(f)
}
