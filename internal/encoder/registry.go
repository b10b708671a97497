package encoder

import (
	"fmt"
	"strings"
)

// Registry holds the available encoders and designates one of them as
// the raster default: the format silently substituted when a requested
// encoder is missing. Callers must never hardcode that default; they
// ask the registry instead.
type Registry struct {
	encoders map[string]Encoder
	fallback string
}

// NewRegistry creates a registry with all built-in encoders, probing
// each for availability. PNG is the raster default because the
// standard library always provides it.
func NewRegistry() *Registry {
	return NewRegistryWith("png",
		&AVIFEncoder{},
		&WebPEncoder{},
		&JPEGEncoder{},
		&PNGEncoder{},
		&GIFEncoder{},
	)
}

// NewRegistryWith builds a registry from an explicit encoder set.
// Unavailable encoders are dropped. fallback names the raster default;
// it may itself be unavailable, in which case Default returns nil.
func NewRegistryWith(fallback string, encs ...Encoder) *Registry {
	r := &Registry{
		encoders: make(map[string]Encoder, len(encs)),
		fallback: strings.ToLower(fallback),
	}
	for _, enc := range encs {
		if enc.Available() {
			r.encoders[enc.Format()] = enc
		}
	}
	return r
}

// Get returns an encoder for the given format, or nil if unavailable.
func (r *Registry) Get(format string) Encoder {
	return r.encoders[strings.ToLower(format)]
}

// Has reports whether an encoder for the format is available.
func (r *Registry) Has(format string) bool {
	return r.Get(format) != nil
}

// Default returns the raster-default encoder, or nil when even the
// fallback is unavailable.
func (r *Registry) Default() Encoder {
	return r.encoders[r.fallback]
}

// DefaultFormat returns the name of the raster default. Output that
// resolves to this format after requesting another one went through
// capability substitution.
func (r *Registry) DefaultFormat() string {
	return r.fallback
}

// Available returns all available format names in priority order.
func (r *Registry) Available() []string {
	var result []string
	for _, f := range []string{"avif", "webp", "jpeg", "png", "gif"} {
		if _, ok := r.encoders[f]; ok {
			result = append(result, f)
		}
	}
	return result
}

// String returns a summary of available encoders.
func (r *Registry) String() string {
	avail := r.Available()
	if len(avail) == 0 {
		return "no encoders available"
	}
	return fmt.Sprintf("encoders: %s", strings.Join(avail, ", "))
}
