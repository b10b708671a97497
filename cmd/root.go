package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "imgpress",
	Short: "Adaptive image re-encoding toolkit",
	Long: `imgpress — compresses and converts images through a bounded multi-pass
search over resolution and quality, so even huge hardware-compressed
phone photos come out smaller instead of bloating.

Transforms: in-place compression, WebP/AVIF conversion, SVG wrapping,
and data-URI embedding/decoding. Results get content-addressed
filenames next to a JSON run report.`,
	Version: version,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"imgpress %s (%s/%s, %s)\n",
		version, runtime.GOOS, runtime.GOARCH, runtime.Version(),
	))
}

// logVerbose prints a message only when --verbose is set.
func logVerbose(format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[imgpress] "+format+"\n", args...)
	}
}

// newLogger builds the structured logger handed to library components.
// The CLI's own human-facing report stays on plain stdout prints.
func newLogger() zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}
