//go:build !noavif

package encoder

import (
	"bytes"
	"image"

	"github.com/gen2brain/avif"
)

// AVIFEncoder encodes AVIF through gen2brain's wazero-compiled libavif.
// Importing the codec also registers AVIF decoding with image.Decode.
// Build with -tags noavif to compile it out.
type AVIFEncoder struct{}

func (e *AVIFEncoder) Format() string    { return "avif" }
func (e *AVIFEncoder) Extension() string { return "avif" }
func (e *AVIFEncoder) Available() bool   { return true }

func (e *AVIFEncoder) Encode(img image.Image, quality int) ([]byte, error) {
	if quality <= 0 || quality > 100 {
		quality = 82
	}

	opts := avif.Options{
		Quality:           quality,
		QualityAlpha:      quality,
		Speed:             6, // 0-10, higher is faster but lower quality
		ChromaSubsampling: image.YCbCrSubsampleRatio420,
	}

	var buf bytes.Buffer
	buf.Grow(256 * 1024)

	if err := avif.Encode(&buf, img, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
