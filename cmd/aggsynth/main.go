package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"aggsynth/internal/version"
)

// errDiagnostics reports a run whose diagnostics were already rendered
// but contain errors.
var errDiagnostics = errors.New("errors reported")

var rootCmd = &cobra.Command{
	Use:           "aggsynth",
	Short:         "Value-aggregate member synthesis",
	Long:          `aggsynth synthesizes the equality, hashing, formatting, cloning and deconstruction members of value aggregates declared in YAML documents.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(synthCmd)
	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (none|normal|debug), overrides [log].level")
	rootCmd.PersistentFlags().String("trace", "", "trace output file (- for stderr, .ndjson for NDJSON)")
	rootCmd.PersistentFlags().String("trace-level", "", "trace level (off|phase|detail|debug), overrides [trace].level")
	rootCmd.PersistentFlags().String("trace-mode", "stream", "trace storage mode (stream|ring|both)")
	rootCmd.PersistentFlags().Int("trace-ring-size", 4096, "ring buffer size for --trace-mode ring|both")
	rootCmd.PersistentFlags().String("cpuprofile", "", "write a CPU profile to file")
	rootCmd.PersistentFlags().String("memprofile", "", "write a heap profile to file on exit")
	rootCmd.PersistentFlags().String("runtime-trace", "", "write a Go runtime trace to file")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errDiagnostics) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}

// useColor resolves --color for output written to f.
func useColor(cmd *cobra.Command, f *os.File) (bool, error) {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, err
	}
	switch mode {
	case "auto":
		return isTerminal(f), nil
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	return false, fmt.Errorf("unsupported --color value %q (must be auto, on or off)", mode)
}
