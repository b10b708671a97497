package encoder

import (
	"bytes"
	"image"
	"image/gif"
)

// GIFEncoder encodes single-frame GIF output using Go's standard
// library. Quality is ignored; GIF quantizes to a 256-color palette.
// Animated sources are passed through upstream and never reach this
// encoder.
type GIFEncoder struct{}

func (e *GIFEncoder) Format() string    { return "gif" }
func (e *GIFEncoder) Extension() string { return "gif" }
func (e *GIFEncoder) Available() bool   { return true }

func (e *GIFEncoder) Encode(img image.Image, _ int) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(128 * 1024)

	err := gif.Encode(&buf, img, &gif.Options{NumColors: 256})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
