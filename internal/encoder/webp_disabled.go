//go:build nowebp

package encoder

import (
	"errors"
	"image"
)

// WebPEncoder stub for builds with the nowebp tag. It reports itself
// unavailable so the registry never selects it.
type WebPEncoder struct{}

func (e *WebPEncoder) Format() string    { return "webp" }
func (e *WebPEncoder) Extension() string { return "webp" }
func (e *WebPEncoder) Available() bool   { return false }

func (e *WebPEncoder) Encode(image.Image, int) ([]byte, error) {
	return nil, errors.New("webp encoder disabled by build tag")
}
