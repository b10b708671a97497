package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/imgpress/internal/batch"
	"github.com/AnyUserName/imgpress/internal/mediatype"
	"github.com/AnyUserName/imgpress/internal/optimizer"
)

var validateCmd = &cobra.Command{
	Use:   "validate <report_path>",
	Short: "Validate a run report and check result files exist",
	Long: `Checks a run report for internal consistency: record completeness,
stats matching the records, result files present with the recorded
sizes, and the compression contract (a request in the source's own
format never returns a larger file).`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(_ *cobra.Command, args []string) error {
	reportPath := args[0]

	r, err := batch.ReadJSON(reportPath)
	if err != nil {
		return err
	}

	baseDir := filepath.Dir(reportPath)
	errs := validateReport(r, baseDir)

	if len(errs) == 0 {
		fmt.Println("  ✓ Report is valid")
		fmt.Printf("  ✓ %d records — all result files present\n", len(r.Records))
		return nil
	}

	fmt.Printf("  ✗ Report has %d error(s):\n", len(errs))
	for _, e := range errs {
		fmt.Printf("    • %s\n", e)
	}
	return fmt.Errorf("validation failed with %d errors", len(errs))
}

func validateReport(r *batch.Report, baseDir string) []string {
	var errs []string

	if r.Version != batch.SupportedReportVersion {
		errs = append(errs, fmt.Sprintf("unsupported report version: %d", r.Version))
	}
	if r.Transform == "" {
		errs = append(errs, "missing transform")
	}

	seenPaths := map[string]bool{}
	var done, failed, unchanged int
	var inBytes, outBytes int64

	// Conversion runs request one fixed type; compress follows each
	// source's own type.
	requested := transformTarget(r.Transform)

	for i, rec := range r.Records {
		if rec.File == "" {
			errs = append(errs, fmt.Sprintf("record[%d]: missing file name", i))
		}

		switch rec.Status {
		case batch.StatusDone:
			done++
			inBytes += rec.Source.Size

			if rec.Output == nil {
				errs = append(errs, fmt.Sprintf("record[%d] %q: done without output", i, rec.File))
				continue
			}
			out := rec.Output
			outBytes += out.Size
			if out.Original {
				unchanged++
			}

			if out.Type == "" {
				errs = append(errs, fmt.Sprintf("record[%d] %q: empty output type", i, rec.File))
			}
			if out.Hash == "" {
				errs = append(errs, fmt.Sprintf("record[%d] %q: missing output hash", i, rec.File))
			}
			if out.Path == "" {
				errs = append(errs, fmt.Sprintf("record[%d] %q: missing output path", i, rec.File))
				continue
			}

			if seenPaths[out.Path] {
				errs = append(errs, fmt.Sprintf("record[%d] %q: duplicate output path %q", i, rec.File, out.Path))
			}
			seenPaths[out.Path] = true

			// The compression contract: a request in the source's own
			// format must never grow the file. It binds only when the
			// output actually stayed in that format; a run that fell
			// back to another codec carries no size guarantee.
			sameFormat := requested == "" || requested == rec.Source.Type
			if sameFormat && out.Type == rec.Source.Type && out.Size > rec.Source.Size {
				errs = append(errs, fmt.Sprintf("record[%d] %q: same-format output larger than source: %d > %d",
					i, rec.File, out.Size, rec.Source.Size))
			}

			fullPath := filepath.Join(baseDir, filepath.FromSlash(out.Path))
			info, err := os.Stat(fullPath)
			if err != nil {
				errs = append(errs, fmt.Sprintf("record[%d] %q: file not found: %s", i, rec.File, out.Path))
			} else if out.Size > 0 && info.Size() != out.Size {
				errs = append(errs, fmt.Sprintf("record[%d] %q: size mismatch: report=%d, disk=%d",
					i, rec.File, out.Size, info.Size()))
			}

		case batch.StatusError:
			failed++
			if rec.Error == "" {
				errs = append(errs, fmt.Sprintf("record[%d] %q: error status without a message", i, rec.File))
			}

		case batch.StatusPending, batch.StatusProcessing:
			errs = append(errs, fmt.Sprintf("record[%d] %q: run ended in state %q", i, rec.File, rec.Status))

		default:
			errs = append(errs, fmt.Sprintf("record[%d] %q: unknown status %q", i, rec.File, rec.Status))
		}
	}

	// Verify stats consistency.
	s := r.Stats
	if s.Processed != done {
		errs = append(errs, fmt.Sprintf("stats.processed mismatch: %d != %d", s.Processed, done))
	}
	if s.Failed != failed {
		errs = append(errs, fmt.Sprintf("stats.failed mismatch: %d != %d", s.Failed, failed))
	}
	if s.Unchanged != unchanged {
		errs = append(errs, fmt.Sprintf("stats.unchanged mismatch: %d != %d", s.Unchanged, unchanged))
	}
	if s.TotalInputBytes != inBytes {
		errs = append(errs, fmt.Sprintf("stats.total_input_bytes mismatch: %d != %d", s.TotalInputBytes, inBytes))
	}
	if s.TotalOutputBytes != outBytes {
		errs = append(errs, fmt.Sprintf("stats.total_output_bytes mismatch: %d != %d", s.TotalOutputBytes, outBytes))
	}

	return errs
}

// transformTarget returns the MIME type a transform requests, or ""
// for compress, which follows each source's own type.
func transformTarget(transform string) string {
	switch optimizer.Transform(transform) {
	case optimizer.TransformWebP:
		return string(mediatype.WebP)
	case optimizer.TransformAVIF:
		return string(mediatype.AVIF)
	case optimizer.TransformSVG:
		return string(mediatype.SVG)
	}
	return ""
}
