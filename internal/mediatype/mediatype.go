// Package mediatype identifies image payloads and maps between MIME
// types, encoder format names, and file extensions.
package mediatype

import (
	"bytes"
	"image/gif"
	"net/http"
	"path/filepath"
	"strings"
)

// Type is a MIME type string for a supported image kind.
type Type string

const (
	JPEG Type = "image/jpeg"
	PNG  Type = "image/png"
	WebP Type = "image/webp"
	GIF  Type = "image/gif"
	AVIF Type = "image/avif"
	SVG  Type = "image/svg+xml"

	// Unknown marks payloads outside the supported set.
	Unknown Type = ""
)

// allowed is the intake allow-list. SVG is accepted only for the
// wrap transform; the raster engine never decodes it.
var allowed = map[Type]bool{
	JPEG: true,
	PNG:  true,
	WebP: true,
	GIF:  true,
	AVIF: true,
	SVG:  true,
}

// Allowed reports whether t may enter the pipeline.
func Allowed(t Type) bool { return allowed[t] }

// IsRaster reports whether t is decodable pixel data.
func IsRaster(t Type) bool { return allowed[t] && t != SVG }

// Sniff determines the payload type from magic bytes, falling back to
// http.DetectContentType for anything the fast paths miss.
func Sniff(data []byte) Type {
	switch {
	case isJPEG(data):
		return JPEG
	case isPNG(data):
		return PNG
	case isGIF(data):
		return GIF
	case isWebP(data):
		return WebP
	case isAVIF(data):
		return AVIF
	case isSVG(data):
		return SVG
	}

	if t := Type(http.DetectContentType(data)); allowed[t] {
		return t
	}
	return Unknown
}

func isJPEG(buf []byte) bool {
	return len(buf) > 2 &&
		buf[0] == 0xFF &&
		buf[1] == 0xD8 &&
		buf[2] == 0xFF
}

func isPNG(buf []byte) bool {
	return len(buf) > 3 &&
		buf[0] == 0x89 && buf[1] == 0x50 &&
		buf[2] == 0x4E && buf[3] == 0x47
}

func isGIF(buf []byte) bool {
	return len(buf) > 2 &&
		buf[0] == 0x47 && buf[1] == 0x49 && buf[2] == 0x46
}

func isWebP(buf []byte) bool {
	return len(buf) > 11 &&
		buf[8] == 0x57 && buf[9] == 0x45 &&
		buf[10] == 0x42 && buf[11] == 0x50
}

// isAVIF checks for an ISO BMFF ftyp box with an avif or avis brand.
func isAVIF(buf []byte) bool {
	if len(buf) < 12 || !bytes.Equal(buf[4:8], []byte("ftyp")) {
		return false
	}
	brand := string(buf[8:12])
	return brand == "avif" || brand == "avis"
}

// isSVG looks for an svg root element near the start of the payload,
// after optional BOM, XML declaration and comments.
func isSVG(buf []byte) bool {
	head := buf
	if len(head) > 512 {
		head = head[:512]
	}
	head = bytes.TrimLeft(head, "\xef\xbb\xbf \t\r\n")
	if len(head) == 0 || head[0] != '<' {
		return false
	}
	return bytes.Contains(head, []byte("<svg"))
}

// IsAnimatedGIF reports whether data is a GIF with more than one frame.
// A full frame decode is the only reliable way to count them.
func IsAnimatedGIF(data []byte) bool {
	if !isGIF(data) {
		return false
	}
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return false
	}
	return len(g.Image) > 1
}

// formatNames maps types to the short names the encoder registry keys on.
var formatNames = map[Type]string{
	JPEG: "jpeg",
	PNG:  "png",
	WebP: "webp",
	GIF:  "gif",
	AVIF: "avif",
	SVG:  "svg",
}

// FormatName returns the registry format name for t, or "".
func FormatName(t Type) string { return formatNames[t] }

// FromFormat maps a registry format name back to its MIME type.
func FromFormat(name string) Type {
	switch strings.ToLower(name) {
	case "jpeg", "jpg":
		return JPEG
	case "png":
		return PNG
	case "webp":
		return WebP
	case "gif":
		return GIF
	case "avif":
		return AVIF
	case "svg":
		return SVG
	}
	return Unknown
}

// FromPath guesses the type from a file extension.
func FromPath(path string) Type {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return JPEG
	case ".png":
		return PNG
	case ".webp":
		return WebP
	case ".gif":
		return GIF
	case ".avif":
		return AVIF
	case ".svg":
		return SVG
	}
	return Unknown
}

// Extension returns the output file extension (without dot) for t.
func Extension(t Type) string {
	if t == SVG {
		return "svg"
	}
	return formatNames[t]
}

// ScanExtensions lists the file extensions the directory scanner picks up.
func ScanExtensions() map[string]bool {
	return map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
		".webp": true,
		".gif":  true,
		".avif": true,
		".svg":  true,
	}
}
