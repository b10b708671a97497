// Package optimizer implements the adaptive re-encoding search: up to
// three passes per image, each with a tighter dimension cap and lower
// quality than the last, keeping the smallest result seen. A request
// in the source's own format never comes back larger than the
// source; when no pass beats it, the original comes back verbatim.
package optimizer

import (
	"fmt"

	"github.com/AnyUserName/imgpress/internal/policy"
	"github.com/AnyUserName/imgpress/internal/raster"
)

// Outcome is the final result of one optimization call.
type Outcome struct {
	// Data is the chosen payload. For the same-format no-improvement
	// case it is the untouched source.
	Data []byte

	// ResolvedFormat is the registry format name actually produced,
	// or "svg" for wrapped vector output. It differs from the adapter's
	// target when capability substitution forced a different codec.
	ResolvedFormat string

	// Width and Height are the pixel dimensions of the payload. For
	// verbatim outcomes they come from the header probe and may be
	// zero when the probe failed.
	Width, Height int

	// Passes counts the escalation passes executed, 1 to 3. Verbatim
	// passthroughs that never reach the encoder report zero.
	Passes int

	// Original marks outcomes whose Data is the source, byte for byte.
	Original bool
}

// Optimizer runs the escalation search over a render engine with a
// fixed policy table. Passes execute strictly in sequence; each
// escalation decision depends on the size of the previous result, so
// at most one decoded surface is alive at a time.
type Optimizer struct {
	engine *raster.Engine
	table  policy.Table
}

// New creates an optimizer. The table is copied and never mutated.
func New(engine *raster.Engine, table policy.Table) *Optimizer {
	return &Optimizer{engine: engine, table: table}
}

// run executes the escalation state machine for one source payload.
// srcFormat and target are registry format names.
func (o *Optimizer) run(src []byte, srcFormat, target string) (Outcome, error) {
	srcLen := len(src)

	// Classify. A very high-resolution source with a surprisingly
	// small byte size was already compressed by a hardware encoder;
	// re-encoding it at full size would bloat, so it starts from
	// tighter parameters. A failed probe reports 0x0 and the source
	// stays unclassified.
	w, h := raster.Probe(src)
	mobile := max(w, h) > o.table.MobileMinDimension && int64(srcLen) < o.table.MobileMaxBytes

	maxDim, quality := o.table.Pass1Params(mobile, target)

	best, err := o.engine.Render(src, raster.EncodeRequest{
		Format:       target,
		Quality:      quality,
		MaxDimension: maxDim,
	})
	if err != nil {
		// Passes 2 and 3 would re-run the same decode; a pass-1 failure
		// is terminal for the whole run.
		return Outcome{}, err
	}
	passes := 1

	// Capability-fallback guard: the registry substituted its raster
	// default for the requested format. One emergency JPEG re-encode at
	// the same cap becomes the pass-1 result and the requested format
	// is abandoned for this image.
	effective := target
	if best.ResolvedFormat != target {
		quality = o.table.EmergencyJPEGQuality
		emergency, eerr := o.engine.Render(src, raster.EncodeRequest{
			Format:       "jpeg",
			Quality:      quality,
			MaxDimension: maxDim,
		})
		if eerr != nil {
			return Outcome{}, fmt.Errorf("emergency re-encode after %s substitution: %w", best.ResolvedFormat, eerr)
		}
		if emergency.ResolvedFormat != "jpeg" {
			return Outcome{}, fmt.Errorf("%w: no encoder honors %q and the jpeg fallback resolved to %q",
				raster.ErrEncode, target, emergency.ResolvedFormat)
		}
		best = emergency
		effective = "jpeg"
	}

	sameFormat := target == srcFormat

	if o.escalateAfterPass1(len(best.Data), srcLen, sameFormat) {
		maxDim, quality = o.table.Pass2Params(quality)
		res, rerr := o.engine.Render(src, raster.EncodeRequest{
			Format:       effective,
			Quality:      quality,
			MaxDimension: maxDim,
		})
		if rerr == nil && len(res.Data) < len(best.Data) {
			best = res
		}
		passes = 2

		if o.escalateAfterPass2(len(best.Data), srcLen) {
			maxDim, quality = o.table.Pass3Params(quality, effective)
			res, rerr := o.engine.Render(src, raster.EncodeRequest{
				Format:       effective,
				Quality:      quality,
				MaxDimension: maxDim,
			})
			if rerr == nil && len(res.Data) < len(best.Data) {
				best = res
			}
			passes = 3
		}
	}

	// Finalize. A request in the source's own format must not come back
	// larger than the source, even when capability substitution moved
	// the run to JPEG; when every pass failed to beat it, the original
	// wins. Explicit conversions are returned even when larger: they
	// honor the format choice over the size guarantee.
	if sameFormat && len(best.Data) >= srcLen {
		return Outcome{
			Data:           src,
			ResolvedFormat: srcFormat,
			Width:          w,
			Height:         h,
			Passes:         passes,
			Original:       true,
		}, nil
	}

	return Outcome{
		Data:           best.Data,
		ResolvedFormat: best.ResolvedFormat,
		Width:          best.Width,
		Height:         best.Height,
		Passes:         passes,
	}, nil
}

// escalateAfterPass1 decides whether the pass-1 result is good enough
// to stop. Same-format requests must clear the relative savings bar,
// not merely shrink: saving less than the policy's minimum counts as
// failure.
func (o *Optimizer) escalateAfterPass1(got, src int, sameFormat bool) bool {
	if got >= src {
		return true
	}
	if sameFormat && float64(got) > o.table.MinSavingsRatio*float64(src) {
		return true
	}
	return o.aboveTarget(got)
}

// escalateAfterPass2 keeps going only while the best result still fails
// a hard goal: not smaller than the source, or above the optional
// absolute ceiling.
func (o *Optimizer) escalateAfterPass2(got, src int) bool {
	return got >= src || o.aboveTarget(got)
}

func (o *Optimizer) aboveTarget(got int) bool {
	return o.table.TargetBytes > 0 && int64(got) > o.table.TargetBytes
}
