package cmd

import (
	"github.com/spf13/cobra"

	"github.com/AnyUserName/imgpress/internal/optimizer"
)

var compressCmd = &cobra.Command{
	Use:   "compress <file_or_dir>...",
	Short: "Re-encode images in their own format, never growing them",
	Long: `Runs the escalation search with each source's own format as the
target. When no pass can undercut the original file, the attempts are
discarded and the original is kept byte for byte. Animated GIFs pass
through untouched.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompress,
}

func init() {
	addRunFlags(compressCmd)
	rootCmd.AddCommand(compressCmd)
}

func runCompress(_ *cobra.Command, args []string) error {
	return runTransform(optimizer.TransformCompress, args)
}
