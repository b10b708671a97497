package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/imgpress/internal/batch"
)

var reportCmd = &cobra.Command{
	Use:   "report <out_dir_or_report>",
	Short: "Display statistics for a finished run",
	Args:  cobra.ExactArgs(1),
	RunE:  runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(_ *cobra.Command, args []string) error {
	path := args[0]

	// If path is a directory, look for the report inside.
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		path = filepath.Join(path, batch.ReportFileName)
	}

	r, err := batch.ReadJSON(path)
	if err != nil {
		return err
	}

	printReportStats(r)
	return nil
}

func printReportStats(r *batch.Report) {
	fmt.Println()
	fmt.Printf("  Report version:   %d\n", r.Version)
	fmt.Printf("  Generated:        %s\n", r.GeneratedAt)
	fmt.Printf("  Transform:        %s\n", r.Transform)
	fmt.Println()

	s := r.Stats
	fmt.Printf("  Images processed: %d\n", s.Processed)
	if s.Failed > 0 {
		fmt.Printf("  Failed:           %d\n", s.Failed)
	}
	if s.Unchanged > 0 {
		fmt.Printf("  Unchanged:        %d\n", s.Unchanged)
	}
	fmt.Printf("  Input size:       %s\n", formatBytes(s.TotalInputBytes))
	fmt.Printf("  Output size:      %s\n", formatBytes(s.TotalOutputBytes))
	if s.TotalInputBytes > 0 {
		ratio := float64(s.TotalOutputBytes) / float64(s.TotalInputBytes) * 100
		fmt.Printf("  Compression:      %.1f%% of original\n", ratio)
	}
	fmt.Println()

	// Resolved-type breakdown.
	typeStats := map[string]struct {
		count int
		bytes int64
	}{}
	for _, rec := range r.Records {
		if rec.Output == nil {
			continue
		}
		ts := typeStats[rec.Output.Type]
		ts.count++
		ts.bytes += rec.Output.Size
		typeStats[rec.Output.Type] = ts
	}
	if len(typeStats) > 0 {
		fmt.Println("  Format breakdown:")
		for _, t := range []string{
			"image/avif", "image/webp", "image/jpeg",
			"image/png", "image/gif", "image/svg+xml",
		} {
			if ts, ok := typeStats[t]; ok {
				fmt.Printf("    %-14s %4d files  %s\n", t, ts.count, formatBytes(ts.bytes))
			}
		}
		fmt.Println()
	}

	// Escalation depth: how hard the search had to work per image.
	passStats := map[int]int{}
	for _, rec := range r.Records {
		if rec.Status == batch.StatusDone {
			passStats[rec.Passes]++
		}
	}
	if len(passStats) > 0 {
		fmt.Println("  Escalation depth:")
		labels := map[int]string{
			0: "passthrough",
			1: "1 pass",
			2: "2 passes",
			3: "3 passes",
		}
		for p := 0; p <= 3; p++ {
			if n := passStats[p]; n > 0 {
				fmt.Printf("    %-12s %4d images\n", labels[p], n)
			}
		}
		fmt.Println()
	}

	captioned := 0
	for _, rec := range r.Records {
		if rec.Caption != nil {
			captioned++
		}
	}
	fmt.Printf("  Caption coverage: %d / %d records\n", captioned, len(r.Records))

	// Warnings.
	var warnings []string
	for _, rec := range r.Records {
		if rec.Status == batch.StatusError {
			warnings = append(warnings, fmt.Sprintf("%s: %s", rec.File, rec.Error))
		}
	}
	if len(warnings) > 0 {
		fmt.Println()
		fmt.Printf("  Warnings (%d):\n", len(warnings))
		for _, w := range warnings {
			fmt.Printf("    ⚠ %s\n", w)
		}
	}
	fmt.Println()
}
