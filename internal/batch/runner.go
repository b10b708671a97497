// Package batch discovers input images, feeds them one at a time
// through an optimizer transform, and collects the per-image records
// into a run report.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/AnyUserName/imgpress/internal/caption"
	"github.com/AnyUserName/imgpress/internal/hasher"
	"github.com/AnyUserName/imgpress/internal/mediatype"
	"github.com/AnyUserName/imgpress/internal/optimizer"
	"github.com/AnyUserName/imgpress/internal/raster"
)

// Config holds the parameters of a batch run.
type Config struct {
	// Transform is the adapter applied to every image.
	Transform optimizer.Transform
	// OutputDir receives the encoded results.
	OutputDir string
}

// Runner applies one transform to a set of images, strictly one image
// at a time. The optimizer's passes are already sequential, and the
// runner keeps at most one source payload alive between them, so peak
// memory stays bounded no matter how large the batch is.
type Runner struct {
	cfg      Config
	opt      *optimizer.Optimizer
	captions *caption.Client
	logger   zerolog.Logger
}

// NewRunner wires a runner. captions may be nil to skip metadata
// generation entirely.
func NewRunner(opt *optimizer.Optimizer, captions *caption.Client, logger zerolog.Logger, cfg Config) *Runner {
	return &Runner{
		cfg:      cfg,
		opt:      opt,
		captions: captions,
		logger:   logger,
	}
}

// Run processes sources in order and returns the report. Individual
// failures become error records and never abort the run; the returned
// error is non-nil only when nothing could be processed at all or the
// context was cancelled between images.
func (r *Runner) Run(ctx context.Context, sources []Source) (*Report, error) {
	report := NewReport(string(r.cfg.Transform))

	if len(sources) == 0 {
		return report, fmt.Errorf("no images to process")
	}
	if err := os.MkdirAll(r.cfg.OutputDir, 0o755); err != nil {
		return report, fmt.Errorf("create output dir: %w", err)
	}

	failed := 0
	for _, src := range sources {
		// A running image is never interrupted; cancellation takes
		// effect at the next image boundary.
		if err := ctx.Err(); err != nil {
			report.ComputeStats()
			return report, err
		}

		rec := r.Process(ctx, src)
		if rec.Status == StatusError {
			failed++
		}
		report.Records = append(report.Records, rec)
	}

	report.ComputeStats()

	if failed == len(sources) {
		return report, fmt.Errorf("all %d images failed to process", failed)
	}
	if failed > 0 {
		r.logger.Warn().Int("failed", failed).Int("total", len(sources)).Msg("run finished with errors")
	}
	return report, nil
}

// Process runs the transform on a single source and returns its
// record. Caption generation happens after the outcome is secured and
// cannot fail the record.
func (r *Runner) Process(ctx context.Context, src Source) Record {
	rec := Record{
		File:   src.RelPath,
		Status: StatusProcessing,
		Source: SourceInfo{Type: string(src.Type), Size: src.Size},
	}

	data, err := os.ReadFile(src.Path)
	if err != nil {
		return r.fail(rec, fmt.Errorf("read source: %w", err))
	}
	rec.Source.Size = int64(len(data))

	// Extensions lie; the payload decides.
	sniffed := mediatype.Sniff(data)
	if sniffed == mediatype.Unknown {
		return r.fail(rec, fmt.Errorf("unsupported payload in %s", src.Name))
	}
	rec.Source.Type = string(sniffed)
	rec.Source.Width, rec.Source.Height = raster.Probe(data)

	out, err := r.opt.Apply(r.cfg.Transform, data)
	if err != nil {
		return r.fail(rec, err)
	}

	outType := resolvedType(out, sniffed)

	relPath, err := r.write(src, out)
	if err != nil {
		return r.fail(rec, err)
	}

	rec.Output = &OutputInfo{
		Path:     relPath,
		Type:     string(outType),
		Width:    out.Width,
		Height:   out.Height,
		Size:     int64(len(out.Data)),
		Hash:     hasher.Sum(out.Data),
		Original: out.Original,
	}
	rec.Passes = out.Passes
	rec.Status = StatusDone

	if r.captions != nil {
		meta := r.captions.Generate(ctx, src.Name, string(outType))
		rec.Caption = &meta
	}

	r.logger.Info().
		Str("file", src.RelPath).
		Str("resolved", out.ResolvedFormat).
		Int64("in", rec.Source.Size).
		Int64("out", rec.Output.Size).
		Int("passes", out.Passes).
		Bool("original", out.Original).
		Msg("processed")

	return rec
}

func (r *Runner) fail(rec Record, err error) Record {
	rec.Status = StatusError
	rec.Error = err.Error()
	r.logger.Error().Err(err).Str("file", rec.File).Msg("processing failed")
	return rec
}

// write stores the outcome under a content-addressed name, mirroring
// the source's directory layout below the output root. It returns the
// forward-slash path relative to the output root.
func (r *Runner) write(src Source, out optimizer.Outcome) (string, error) {
	name := outputName(src.Name, out)

	rel := name
	if dir := filepath.Dir(src.RelPath); dir != "." {
		if err := os.MkdirAll(filepath.Join(r.cfg.OutputDir, dir), 0o755); err != nil {
			return "", fmt.Errorf("create output dir: %w", err)
		}
		rel = filepath.ToSlash(filepath.Join(dir, name))
	}

	outPath := filepath.Join(r.cfg.OutputDir, filepath.FromSlash(rel))
	if err := os.WriteFile(outPath, out.Data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", rel, err)
	}
	return rel, nil
}

// outputName builds <stem>.<w>x<h>.<hash8>.<ext>. Unknown dimensions
// drop the size segment. The extension follows the resolved format and
// falls back to the source's own extension when the format has no
// mapping.
func outputName(srcName string, out optimizer.Outcome) string {
	stem := strings.TrimSuffix(srcName, filepath.Ext(srcName))

	ext := mediatype.Extension(mediatype.FromFormat(out.ResolvedFormat))
	if ext == "" {
		ext = strings.TrimPrefix(strings.ToLower(filepath.Ext(srcName)), ".")
	}

	short := hasher.Short(out.Data)
	if out.Width > 0 && out.Height > 0 {
		return fmt.Sprintf("%s.%dx%d.%s.%s", stem, out.Width, out.Height, short, ext)
	}
	return fmt.Sprintf("%s.%s.%s", stem, short, ext)
}

// resolvedType maps the outcome's format name to a MIME type, keeping
// the sniffed source type for anything unmapped.
func resolvedType(out optimizer.Outcome, src mediatype.Type) mediatype.Type {
	if t := mediatype.FromFormat(out.ResolvedFormat); t != mediatype.Unknown {
		return t
	}
	return src
}
