//go:build !nowebp

package encoder

import (
	"bytes"
	"image"

	"github.com/chai2010/webp"
)

// WebPEncoder encodes lossy WebP through the chai2010 libwebp bindings.
// Build with -tags nowebp to compile it out on targets without cgo.
type WebPEncoder struct{}

func (e *WebPEncoder) Format() string    { return "webp" }
func (e *WebPEncoder) Extension() string { return "webp" }
func (e *WebPEncoder) Available() bool   { return true }

func (e *WebPEncoder) Encode(img image.Image, quality int) ([]byte, error) {
	if quality <= 0 || quality > 100 {
		quality = 82
	}

	var buf bytes.Buffer
	buf.Grow(256 * 1024)

	err := webp.Encode(&buf, img, &webp.Options{Lossless: false, Quality: float32(quality)})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
