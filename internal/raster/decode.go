package raster

// Decoder registration for the raster types the intake allow-list
// accepts. AVIF registers through the encoder package's codec import,
// so noavif builds lose AVIF decoding along with encoding.
import (
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)
