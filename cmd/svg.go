package cmd

import (
	"github.com/spf13/cobra"

	"github.com/AnyUserName/imgpress/internal/optimizer"
)

var svgCmd = &cobra.Command{
	Use:   "svg <file_or_dir>...",
	Short: "Wrap images in standalone SVG documents",
	Long: `Compresses each raster image and embeds the result as a base64 data
URI inside an SVG sized to the source's native pixel dimensions, so the
document keeps its layout box even when the embedded raster was
downscaled. SVG inputs pass through unchanged.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSVG,
}

func init() {
	addRunFlags(svgCmd)
	rootCmd.AddCommand(svgCmd)
}

func runSVG(_ *cobra.Command, args []string) error {
	return runTransform(optimizer.TransformSVG, args)
}
