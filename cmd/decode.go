package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/imgpress/internal/dataurl"
	"github.com/AnyUserName/imgpress/internal/mediatype"
)

var decodeOut string

var decodeCmd = &cobra.Command{
	Use:   "decode <uri_file>",
	Short: "Decode a base64 data URI back into an image file",
	Long: `Reads a data: URI from a file ("-" for stdin) and writes the decoded
payload. The default output name's extension follows the URI's MIME
type.`,
	Args: cobra.ExactArgs(1),
	RunE: runDecode,
}

func init() {
	decodeCmd.Flags().StringVarP(&decodeOut, "out", "o", "", "output file (default decoded.<ext>)")
	rootCmd.AddCommand(decodeCmd)
}

func runDecode(_ *cobra.Command, args []string) error {
	var raw []byte
	var err error
	if args[0] == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(args[0])
	}
	if err != nil {
		return err
	}

	payload, mime, err := dataurl.Decode(strings.TrimSpace(string(raw)))
	if err != nil {
		return err
	}

	out := decodeOut
	if out == "" {
		ext := mediatype.Extension(mediatype.Type(mime))
		if ext == "" {
			ext = "bin"
		}
		out = "decoded." + ext
	}
	if err := os.WriteFile(out, payload, 0o644); err != nil {
		return err
	}

	fmt.Printf("  %s  %s  %s\n", out, mime, formatBytes(int64(len(payload))))
	return nil
}
