// Package main implements the autoimport CLI.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"fortio.org/safecast"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"autoimport/internal/channel"
	"autoimport/internal/config"
	"autoimport/internal/driver"
	"autoimport/internal/inject"
	"autoimport/internal/relay"
	"autoimport/internal/version"
)

// Exit statuses of autoimport itself. A failing compiler exits with its own status.
const (
	exitOK    = 0
	exitError = 1
	exitFatal = 2
)

var rootCmd = &cobra.Command{
	Use:   "autoimport",
	Short: "Fix missing imports by letting the compiler tell you what they are",
	Long: `autoimport wraps a compiler invocation. It recompiles the units holding the
autoimport::magic!() marker, reads the compiler's import suggestions and keeps
splicing them in until the build passes or nothing new is suggested.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupRoot,
}

func main() {
	// Устанавливаем версию для автоматического флага --version
	rootCmd.Version = version.Version

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	registerTraceFlags(rootCmd)

	err := rootCmd.Execute()
	cleanupTracing(err)
	os.Exit(reportExit(os.Stderr, err))
}

func setupRoot(cmd *cobra.Command, _ []string) error {
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	colorMode = colorFlag
	switch colorFlag {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	case "auto":
		color.NoColor = !isTerminal(os.Stderr)
	default:
		return fmt.Errorf("invalid --color value %q (expected auto|on|off)", colorFlag)
	}
	return setupTracing(cmd)
}

// colorMode is the --color value once the root command has parsed it.
var colorMode = "auto"

// exitCode maps the outcome of a command to the process exit status.
func exitCode(err error) int {
	if err == nil || errors.Is(err, driver.ErrBuildSucceeded) {
		return exitOK
	}
	var exitErr *relay.ExitError
	if errors.As(err, &exitErr) {
		code, convErr := safecast.Conv[uint8](exitErr.Code)
		if convErr != nil || code == 0 {
			return exitError
		}
		return int(code)
	}
	if isFatal(err) {
		return exitFatal
	}
	return exitError
}

// isFatal reports errors that abort the build before anything is compiled
// the way the user asked.
func isFatal(err error) bool {
	return errors.Is(err, driver.ErrDuplicateUnit) ||
		errors.Is(err, inject.ErrMarkerMissing) ||
		errors.Is(err, inject.ErrMarkerRepeated) ||
		errors.Is(err, inject.ErrMarkerArguments) ||
		errors.Is(err, channel.ErrSchema) ||
		errors.Is(err, config.ErrInvalidAttempts)
}

// reportExit prints err unless the compiler already said everything, and
// returns the exit status.
func reportExit(w io.Writer, err error) int {
	code := exitCode(err)
	if code == exitOK {
		return code
	}
	var exitErr *relay.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintf(w, "%s %v\n", color.New(color.FgRed, color.Bold).Sprint("error:"), err)
	}
	return code
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
