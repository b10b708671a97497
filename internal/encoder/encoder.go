package encoder

import (
	"image"
)

// Encoder encodes a decoded raster to a specific output format.
type Encoder interface {
	// Format returns the output format name (e.g. "jpeg", "webp", "avif", "png").
	Format() string

	// Encode converts the image to bytes at the given quality (1-100).
	// Encoders for lossless formats ignore the quality.
	Encode(img image.Image, quality int) ([]byte, error)

	// Available returns true if the encoder is ready to use.
	// Next-gen codecs can be compiled out with build tags.
	Available() bool

	// Extension returns the file extension without dot.
	Extension() string
}
