package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/imgpress/internal/dataurl"
	"github.com/AnyUserName/imgpress/internal/mediatype"
)

var embedOut string

var embedCmd = &cobra.Command{
	Use:   "embed <file>",
	Short: "Encode an image as a base64 data URI",
	Long: `Prints one image file as a data: URI for inline embedding in HTML or
CSS. The payload is embedded as-is; run compress first when size
matters.`,
	Args: cobra.ExactArgs(1),
	RunE: runEmbed,
}

func init() {
	embedCmd.Flags().StringVarP(&embedOut, "out", "o", "", "write the URI to a file instead of stdout")
	rootCmd.AddCommand(embedCmd)
}

func runEmbed(_ *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	t := mediatype.Sniff(data)
	if t == mediatype.Unknown {
		return fmt.Errorf("unsupported payload in %s", args[0])
	}

	uri := dataurl.Encode(data, string(t))
	if embedOut != "" {
		return os.WriteFile(embedOut, []byte(uri), 0o644)
	}
	fmt.Println(uri)
	return nil
}
