// Package svgwrap embeds an encoded raster inside a standalone SVG
// document. The wrapper declares the source's native canvas size, so
// the document keeps its original layout box even when the embedded
// payload was downscaled.
package svgwrap

import (
	"fmt"

	"github.com/AnyUserName/imgpress/internal/dataurl"
)

const template = `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d"><image width="%d" height="%d" href="%s"/></svg>`

// Wrap returns an SVG document embedding payload as a base64 data URI.
// width and height are the native dimensions of the original source,
// not the payload's.
func Wrap(payload []byte, mime string, width, height int) []byte {
	uri := dataurl.Encode(payload, mime)
	return []byte(fmt.Sprintf(template, width, height, width, height, width, height, uri))
}
