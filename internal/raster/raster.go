// Package raster decodes image payloads, applies the longest-side
// dimension cap, and encodes through the capability registry. It is
// the only package that holds decoded pixel buffers.
package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/AnyUserName/imgpress/internal/encoder"
)

// Error kinds, matchable with errors.Is. Capability substitution is
// not an error; it surfaces as a ResolvedFormat mismatch instead.
var (
	ErrDecode  = errors.New("image decode failed")
	ErrSurface = errors.New("raster surface unavailable")
	ErrEncode  = errors.New("image encode failed")
)

// Probe returns the pixel dimensions of an encoded image without a
// full decode, reading only the header. It never fails: payloads whose
// header cannot be parsed report (0, 0) and callers treat the
// dimensions as unknown.
func Probe(data []byte) (width, height int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

// EncodeRequest describes one rendering attempt. A fresh value is
// built for every pass.
type EncodeRequest struct {
	// Format is the requested registry format name ("jpeg", "webp", ...).
	Format string
	// Quality is the encoder quality, 1-100.
	Quality int
	// MaxDimension caps the longest side in pixels. Zero keeps the
	// native size. The cap never upscales.
	MaxDimension int
}

// EncodeResult is the outcome of one rendering attempt. ResolvedFormat
// differing from the requested format means the registry substituted
// its raster default; every caller must compare the two.
type EncodeResult struct {
	Data           []byte
	ResolvedFormat string
	Width, Height  int
}

// Engine renders encode requests against a fixed encoder registry.
type Engine struct {
	registry *encoder.Registry
}

// NewEngine creates an engine over the given registry.
func NewEngine(reg *encoder.Registry) *Engine {
	return &Engine{registry: reg}
}

// DefaultFormat names the registry's raster default. A result that
// resolves to this format after requesting a different one went
// through capability substitution.
func (e *Engine) DefaultFormat() string {
	return e.registry.DefaultFormat()
}

// Supports reports whether the engine can honor the format natively.
func (e *Engine) Supports(format string) bool {
	return e.registry.Has(format)
}

// Render decodes src, downscales it to the request's dimension cap,
// and encodes it in the requested format. When the requested encoder
// is missing it encodes with the registry's raster default and reports
// the substitution through ResolvedFormat. There are no retries here;
// retry policy belongs to the optimizer.
func (e *Engine) Render(src []byte, req EncodeRequest) (EncodeResult, error) {
	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return EncodeResult{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return EncodeResult{}, fmt.Errorf("%w: decoded to %dx%d", ErrSurface, bounds.Dx(), bounds.Dy())
	}

	if req.MaxDimension > 0 && (bounds.Dx() > req.MaxDimension || bounds.Dy() > req.MaxDimension) {
		img = imaging.Fit(img, req.MaxDimension, req.MaxDimension, imaging.Lanczos)
		bounds = img.Bounds()
		if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
			return EncodeResult{}, fmt.Errorf("%w: downscale to cap %d collapsed surface", ErrSurface, req.MaxDimension)
		}
	}

	enc := e.registry.Get(req.Format)
	resolved := req.Format
	if enc == nil {
		enc = e.registry.Default()
		if enc == nil {
			return EncodeResult{}, fmt.Errorf("%w: no encoder for %q and no raster default", ErrEncode, req.Format)
		}
		resolved = enc.Format()
	}

	data, err := enc.Encode(img, req.Quality)
	if err != nil {
		return EncodeResult{}, fmt.Errorf("%w: %s: %v", ErrEncode, resolved, err)
	}
	if len(data) == 0 {
		return EncodeResult{}, fmt.Errorf("%w: %s produced empty output", ErrEncode, resolved)
	}

	return EncodeResult{
		Data:           data,
		ResolvedFormat: resolved,
		Width:          bounds.Dx(),
		Height:         bounds.Dy(),
	}, nil
}
