package optimizer

import (
	"fmt"

	"github.com/AnyUserName/imgpress/internal/mediatype"
	"github.com/AnyUserName/imgpress/internal/raster"
	"github.com/AnyUserName/imgpress/internal/svgwrap"
)

// Transform names one of the fixed-target adapter entry points.
type Transform string

const (
	TransformCompress Transform = "compress"
	TransformWebP     Transform = "webp"
	TransformAVIF     Transform = "avif"
	TransformSVG      Transform = "svg"
)

// Transforms lists the adapters in the order the CLI presents them.
func Transforms() []Transform {
	return []Transform{TransformCompress, TransformWebP, TransformAVIF, TransformSVG}
}

// Apply dispatches src to the adapter named by t.
func (o *Optimizer) Apply(t Transform, src []byte) (Outcome, error) {
	switch t {
	case TransformCompress:
		return o.Compress(src)
	case TransformWebP:
		return o.ToWebP(src)
	case TransformAVIF:
		return o.ToAVIF(src)
	case TransformSVG:
		return o.WrapSVG(src)
	}
	return Outcome{}, fmt.Errorf("unknown transform %q", t)
}

// Compress re-encodes src in its own format. The escalation search
// guarantees the result is never larger than the source.
func (o *Optimizer) Compress(src []byte) (Outcome, error) {
	t, err := rasterType(src, "compress")
	if err != nil {
		return Outcome{}, err
	}

	// Re-encoding an animated GIF keeps only its first frame; the
	// animation is worth more than the bytes, so it passes through.
	if t == mediatype.GIF && mediatype.IsAnimatedGIF(src) {
		w, h := raster.Probe(src)
		return Outcome{Data: src, ResolvedFormat: "gif", Width: w, Height: h, Original: true}, nil
	}

	name := mediatype.FormatName(t)
	return o.run(src, name, name)
}

// ToWebP converts src to WebP through the escalation search.
func (o *Optimizer) ToWebP(src []byte) (Outcome, error) {
	t, err := rasterType(src, "convert to webp")
	if err != nil {
		return Outcome{}, err
	}
	return o.run(src, mediatype.FormatName(t), "webp")
}

// ToAVIF converts src to AVIF. When the run cannot produce AVIF, the
// whole result is discarded and the conversion reruns as ToWebP, which
// carries its own emergency JPEG path.
func (o *Optimizer) ToAVIF(src []byte) (Outcome, error) {
	t, err := rasterType(src, "convert to avif")
	if err != nil {
		return Outcome{}, err
	}

	out, rerr := o.run(src, mediatype.FormatName(t), "avif")
	if rerr == nil && out.ResolvedFormat == "avif" {
		return out, nil
	}
	return o.ToWebP(src)
}

// WrapSVG produces a standalone SVG document embedding the compressed
// raster as a data URI. The wrapper declares the source's native pixel
// size even when the embedded raster was downscaled. Vector sources
// pass through untouched.
func (o *Optimizer) WrapSVG(src []byte) (Outcome, error) {
	t := mediatype.Sniff(src)
	if t == mediatype.SVG {
		return Outcome{Data: src, ResolvedFormat: "svg", Original: true}, nil
	}
	if !mediatype.IsRaster(t) {
		return Outcome{}, fmt.Errorf("svg wrap: unsupported payload type %q", sniffLabel(t))
	}

	w, h := raster.Probe(src)

	out, err := o.Compress(src)
	if err != nil {
		return Outcome{}, err
	}
	if w == 0 || h == 0 {
		w, h = out.Width, out.Height
	}

	mime := string(mediatype.FromFormat(out.ResolvedFormat))
	doc := svgwrap.Wrap(out.Data, mime, w, h)
	return Outcome{
		Data:           doc,
		ResolvedFormat: "svg",
		Width:          w,
		Height:         h,
		Passes:         out.Passes,
	}, nil
}

// rasterType sniffs src and rejects anything the raster engine cannot
// decode.
func rasterType(src []byte, op string) (mediatype.Type, error) {
	t := mediatype.Sniff(src)
	if !mediatype.IsRaster(t) {
		return mediatype.Unknown, fmt.Errorf("%s: unsupported payload type %q", op, sniffLabel(t))
	}
	return t, nil
}

func sniffLabel(t mediatype.Type) string {
	if t == mediatype.Unknown {
		return "unknown"
	}
	return string(t)
}
