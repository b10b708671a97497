package svgwrap

import (
	"bytes"
	"strings"
	"testing"

	"github.com/AnyUserName/imgpress/internal/dataurl"
)

func TestWrap(t *testing.T) {
	payload := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A}
	doc := string(Wrap(payload, "image/png", 1000, 800))

	for _, want := range []string{
		`xmlns="http://www.w3.org/2000/svg"`,
		`width="1000" height="800"`,
		`viewBox="0 0 1000 800"`,
		`<image width="1000" height="800"`,
		`href="data:image/png;base64,`,
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("missing %q in wrapper:\n%s", want, doc)
		}
	}
	if !strings.HasPrefix(doc, "<svg ") || !strings.HasSuffix(doc, "</svg>") {
		t.Error("wrapper is not a complete svg element")
	}
}

func TestWrapPayloadRoundTrips(t *testing.T) {
	payload := []byte("raw image bytes")
	doc := string(Wrap(payload, "image/jpeg", 12, 34))

	start := strings.Index(doc, `href="`) + len(`href="`)
	end := strings.Index(doc[start:], `"`)
	uri := doc[start : start+end]

	got, mime, err := dataurl.Decode(uri)
	if err != nil {
		t.Fatalf("decode embedded uri: %v", err)
	}
	if mime != "image/jpeg" {
		t.Errorf("mime: got %q", mime)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("payload mismatch")
	}
}
