package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/imgpress/internal/batch"
	"github.com/AnyUserName/imgpress/internal/optimizer"
)

var watchTransform string

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Watch a folder and process images as they arrive",
	Long: `Monitors an intake directory and runs the chosen transform on every
image file created or modified there, once it has stopped changing for
half a second. Runs until interrupted; the run report is written on
shutdown.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchTransform, "transform", "t", "compress",
		"transform to apply: compress, webp, avif or svg")
	addRunFlags(watchCmd)
	rootCmd.AddCommand(watchCmd)
}

func runWatch(_ *cobra.Command, args []string) error {
	transform := optimizer.Transform(watchTransform)
	known := false
	for _, t := range optimizer.Transforms() {
		if t == transform {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unsupported transform %q", watchTransform)
	}

	absOut, err := filepath.Abs(runOutDir)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}
	if err := os.MkdirAll(absOut, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	runner, err := newRunner(transform, absOut)
	if err != nil {
		return err
	}

	w, err := batch.NewWatcher(args[0], newLogger())
	if err != nil {
		return err
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "[imgpress] watching %s (%s) — interrupt to stop\n", args[0], transform)

	start := time.Now()
	report := batch.NewReport(string(transform))

	for {
		select {
		case <-ctx.Done():
			if len(report.Records) == 0 {
				fmt.Fprintln(os.Stderr, "[imgpress] nothing processed")
				return nil
			}
			reportPath := filepath.Join(absOut, batch.ReportFileName)
			if err := batch.WriteJSON(report, reportPath); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			printRunReport(report, time.Since(start))
			return nil

		case src := <-w.Events():
			// When the intake dir doubles as the output dir, our own
			// results would come right back around.
			if filepath.Dir(src.Path) == absOut {
				continue
			}

			rec := runner.Process(ctx, src)
			report.Records = append(report.Records, rec)

			switch rec.Status {
			case batch.StatusDone:
				fmt.Printf("  %-40s %8s → %8s  %s\n",
					truncName(rec.File, 40),
					formatBytes(rec.Source.Size),
					formatBytes(rec.Output.Size),
					rec.Output.Type,
				)
			case batch.StatusError:
				fmt.Printf("  %-40s error: %s\n", truncName(rec.File, 40), rec.Error)
			}
		}
	}
}
