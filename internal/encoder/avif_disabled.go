//go:build noavif

package encoder

import (
	"errors"
	"image"
)

// AVIFEncoder stub for builds with the noavif tag. Without the codec
// import, AVIF sources are also no longer decodable.
type AVIFEncoder struct{}

func (e *AVIFEncoder) Format() string    { return "avif" }
func (e *AVIFEncoder) Extension() string { return "avif" }
func (e *AVIFEncoder) Available() bool   { return false }

func (e *AVIFEncoder) Encode(image.Image, int) ([]byte, error) {
	return nil, errors.New("avif encoder disabled by build tag")
}
