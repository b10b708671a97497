package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/imgpress/internal/optimizer"
)

var convertTo string

var convertCmd = &cobra.Command{
	Use:   "convert --to webp|avif <file_or_dir>...",
	Short: "Convert images to a next-gen format",
	Long: `Converts images to WebP or AVIF through the escalation search. An
AVIF request degrades to WebP when no AVIF encoder is available, and a
missing WebP encoder falls back to a single moderate-quality JPEG; the
silently substituted raster default is never returned.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVar(&convertTo, "to", "webp", "target format: webp or avif")
	addRunFlags(convertCmd)
	rootCmd.AddCommand(convertCmd)
}

func runConvert(_ *cobra.Command, args []string) error {
	switch convertTo {
	case "webp":
		return runTransform(optimizer.TransformWebP, args)
	case "avif":
		return runTransform(optimizer.TransformAVIF, args)
	}
	return fmt.Errorf("unsupported target format %q (want webp or avif)", convertTo)
}
