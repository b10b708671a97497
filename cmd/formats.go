package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/imgpress/internal/encoder"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "Show encoder availability and the raster default",
	Long: `Probes the encoder registry the way every transform does at startup.
Formats missing here are silently substituted by the raster default
during rendering, which the optimizer detects and routes around.`,
	Args: cobra.NoArgs,
	RunE: runFormats,
}

func init() {
	rootCmd.AddCommand(formatsCmd)
}

func runFormats(_ *cobra.Command, _ []string) error {
	reg := encoder.NewRegistry()

	fmt.Println()
	fmt.Printf("  %s\n", reg.String())
	fmt.Printf("  Raster default: %s\n", reg.DefaultFormat())

	missing := false
	for _, f := range []string{"avif", "webp"} {
		if !reg.Has(f) {
			fmt.Printf("  ⚠ %s encoder unavailable — conversions degrade per policy\n", f)
			missing = true
		}
	}
	if !missing {
		fmt.Println("  All next-gen targets are honored natively.")
	}
	fmt.Println()
	return nil
}
