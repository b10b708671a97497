package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/imgpress/internal/batch"
	"github.com/AnyUserName/imgpress/internal/caption"
	"github.com/AnyUserName/imgpress/internal/config"
	"github.com/AnyUserName/imgpress/internal/encoder"
	"github.com/AnyUserName/imgpress/internal/optimizer"
	"github.com/AnyUserName/imgpress/internal/policy"
	"github.com/AnyUserName/imgpress/internal/raster"
)

var (
	runOutDir     string
	runPolicyFile string
	runTargetKB   int
)

// addRunFlags registers the flags shared by every transform command.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&runOutDir, "out", "o", "./imgpress_out", "output directory")
	cmd.Flags().StringVar(&runPolicyFile, "policy", "", "YAML file overriding the built-in policy table")
	cmd.Flags().IntVar(&runTargetKB, "target-kb", 0, "absolute output ceiling in KB (0 = relative savings goal only)")
}

// loadPolicy resolves the effective policy table from the run flags.
func loadPolicy() (policy.Table, error) {
	table := policy.Default()
	if runPolicyFile != "" {
		var err error
		table, err = policy.Load(runPolicyFile)
		if err != nil {
			return table, err
		}
	}
	if runTargetKB > 0 {
		table.TargetBytes = int64(runTargetKB) * 1024
	}
	return table, nil
}

// newRunner wires a batch runner for the given transform.
func newRunner(transform optimizer.Transform, outDir string) (*batch.Runner, error) {
	table, err := loadPolicy()
	if err != nil {
		return nil, err
	}

	reg := encoder.NewRegistry()
	logVerbose("%s", reg.String())

	logger := newLogger()
	opt := optimizer.New(raster.NewEngine(reg), table)
	captions := caption.NewClient(config.Load(), logger)

	return batch.NewRunner(opt, captions, logger, batch.Config{
		Transform: transform,
		OutputDir: outDir,
	}), nil
}

// collectSources expands command-line arguments into the intake list:
// directories are scanned recursively, files must be on the extension
// allow-list.
func collectSources(args []string) ([]batch.Source, error) {
	var sources []batch.Source
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", arg, err)
		}

		if info.IsDir() {
			abs, err := filepath.Abs(arg)
			if err != nil {
				return nil, err
			}
			found, err := batch.Scan(abs)
			if err != nil {
				return nil, fmt.Errorf("scan %s: %w", arg, err)
			}
			sources = append(sources, found...)
			continue
		}

		src, err := batch.FromFile(arg)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}

// runTransform executes one adapter over the files and directories in
// args, then writes the outputs and the run report.
func runTransform(transform optimizer.Transform, args []string) error {
	start := time.Now()

	absOut, err := filepath.Abs(runOutDir)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}

	sources, err := collectSources(args)
	if err != nil {
		return err
	}
	logVerbose("found %d images", len(sources))

	runner, err := newRunner(transform, absOut)
	if err != nil {
		return err
	}

	report, runErr := runner.Run(context.Background(), sources)

	// Partial results are still worth a report.
	if len(report.Records) > 0 {
		reportPath := filepath.Join(absOut, batch.ReportFileName)
		if err := batch.WriteJSON(report, reportPath); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	if runErr != nil {
		return runErr
	}

	printRunReport(report, time.Since(start))
	return nil
}

func printRunReport(r *batch.Report, elapsed time.Duration) {
	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════════════╗")
	fmt.Println("║             imgpress run complete                ║")
	fmt.Println("╚══════════════════════════════════════════════════╝")
	fmt.Println()

	s := r.Stats
	ratio := float64(0)
	if s.TotalInputBytes > 0 {
		ratio = float64(s.TotalOutputBytes) / float64(s.TotalInputBytes) * 100
	}

	fmt.Printf("  Transform:   %s\n", r.Transform)
	fmt.Printf("  Images:      %d\n", s.Processed)
	if s.Failed > 0 {
		fmt.Printf("  Failed:      %d\n", s.Failed)
	}
	if s.Unchanged > 0 {
		fmt.Printf("  Unchanged:   %d (no re-encode beat the original)\n", s.Unchanged)
	}
	fmt.Printf("  Input size:  %s\n", formatBytes(s.TotalInputBytes))
	fmt.Printf("  Output size: %s\n", formatBytes(s.TotalOutputBytes))
	fmt.Printf("  Ratio:       %.1f%% of original\n", ratio)
	fmt.Printf("  Time:        %s\n", elapsed.Round(time.Millisecond))
	fmt.Println()

	// Top 10 heaviest sources and what became of them.
	done := make([]batch.Record, 0, len(r.Records))
	for _, rec := range r.Records {
		if rec.Status == batch.StatusDone && rec.Output != nil {
			done = append(done, rec)
		}
	}
	sort.Slice(done, func(i, j int) bool {
		return done[i].Source.Size > done[j].Source.Size
	})
	if n := len(done); n > 0 {
		if n > 10 {
			n = 10
		}
		fmt.Printf("  Top %d heaviest (original → optimized):\n", n)
		for _, rec := range done[:n] {
			saved := float64(0)
			if rec.Source.Size > 0 {
				saved = (1 - float64(rec.Output.Size)/float64(rec.Source.Size)) * 100
			}
			fmt.Printf("    %-40s %8s → %8s  (−%.0f%%)\n",
				truncName(rec.File, 40),
				formatBytes(rec.Source.Size),
				formatBytes(rec.Output.Size),
				saved,
			)
		}
		fmt.Println()
	}

	if fmts := outputTypes(r); len(fmts) > 0 {
		fmt.Printf("  Formats:     %s\n", strings.Join(fmts, ", "))
		fmt.Println()
	}

	fmt.Printf("  Report:      %s\n", batch.ReportFileName)
	fmt.Println()
}

// outputTypes lists the resolved MIME types present in the report, in
// a fixed display order.
func outputTypes(r *batch.Report) []string {
	set := map[string]bool{}
	for _, rec := range r.Records {
		if rec.Output != nil {
			set[rec.Output.Type] = true
		}
	}
	var out []string
	for _, t := range []string{
		"image/avif", "image/webp", "image/jpeg",
		"image/png", "image/gif", "image/svg+xml",
	} {
		if set[t] {
			out = append(out, t)
		}
	}
	return out
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

func truncName(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max+3:]
}
