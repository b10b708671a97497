package optimizer

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math/rand"
	"strings"
	"testing"

	"github.com/AnyUserName/imgpress/internal/dataurl"
	"github.com/AnyUserName/imgpress/internal/encoder"
	"github.com/AnyUserName/imgpress/internal/policy"
	"github.com/AnyUserName/imgpress/internal/raster"
)

// fakeEncoder records every call and returns payloads of scripted
// sizes, so escalation decisions can be pinned exactly.
type fakeEncoder struct {
	format string
	sizes  []int // consumed per call; the last value repeats
	calls  []fakeCall
}

type fakeCall struct {
	width, height, quality int
}

func (f *fakeEncoder) Format() string    { return f.format }
func (f *fakeEncoder) Extension() string { return f.format }
func (f *fakeEncoder) Available() bool   { return true }

func (f *fakeEncoder) Encode(img image.Image, quality int) ([]byte, error) {
	b := img.Bounds()
	f.calls = append(f.calls, fakeCall{b.Dx(), b.Dy(), quality})
	i := len(f.calls) - 1
	if i >= len(f.sizes) {
		i = len(f.sizes) - 1
	}
	return make([]byte, f.sizes[i]), nil
}

func stubOptimizer(table policy.Table, encs ...encoder.Encoder) *Optimizer {
	reg := encoder.NewRegistryWith("png", encs...)
	return New(raster.NewEngine(reg), table)
}

func realOptimizer() *Optimizer {
	return New(raster.NewEngine(encoder.NewRegistry()), policy.Default())
}

func gradientImg(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := img.PixOffset(x, y)
			img.Pix[off] = uint8(x * 255 / w)
			img.Pix[off+1] = uint8(y * 255 / h)
			img.Pix[off+2] = 128
			img.Pix[off+3] = 255
		}
	}
	return img
}

func solidImg(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = 40
		img.Pix[i+1] = 90
		img.Pix[i+2] = 160
		img.Pix[i+3] = 255
	}
	return img
}

func noiseImg(w, h int) *image.NRGBA {
	rng := rand.New(rand.NewSource(7))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(rng.Intn(256))
		img.Pix[i+1] = uint8(rng.Intn(256))
		img.Pix[i+2] = uint8(rng.Intn(256))
		img.Pix[i+3] = 255
	}
	return img
}

func asPNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc := &png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func asJPEG(t *testing.T, img image.Image, quality int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func asGIF(t *testing.T, frames int) []byte {
	t.Helper()
	g := &gif.GIF{}
	pal := color.Palette{color.Black, color.White}
	for i := 0; i < frames; i++ {
		frame := image.NewPaletted(image.Rect(0, 0, 64, 48), pal)
		for p := range frame.Pix {
			frame.Pix[p] = uint8((p + i) % 2)
		}
		g.Image = append(g.Image, frame)
		g.Delay = append(g.Delay, 10)
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, g); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// extractHref pulls the data URI out of a generated wrapper document.
func extractHref(t *testing.T, doc string) string {
	t.Helper()
	start := strings.Index(doc, `href="`)
	if start < 0 {
		t.Fatal("no href attribute in wrapper")
	}
	start += len(`href="`)
	end := strings.Index(doc[start:], `"`)
	if end < 0 {
		t.Fatal("unterminated href attribute")
	}
	return doc[start : start+end]
}

// padTo appends trailing zeros after the image stream so the payload
// reaches an exact byte length. Decoders stop at the end-of-image
// marker and never see the padding.
func padTo(t *testing.T, data []byte, n int) []byte {
	t.Helper()
	if len(data) > n {
		t.Fatalf("fixture is %d bytes, cannot pad down to %d", len(data), n)
	}
	return append(data, make([]byte, n-len(data))...)
}

func TestCompressStopsAfterGoodPass1(t *testing.T) {
	stub := &fakeEncoder{format: "png", sizes: []int{80_000}}
	o := stubOptimizer(policy.Default(), stub)
	src := padTo(t, asPNG(t, solidImg(1200, 900)), 100_000)

	out, err := o.Compress(src)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if out.Passes != 1 {
		t.Errorf("passes: got %d, want 1", out.Passes)
	}
	if out.Original {
		t.Error("unexpected original passthrough")
	}
	if len(out.Data) != 80_000 {
		t.Errorf("size: got %d, want 80000", len(out.Data))
	}
	if len(stub.calls) != 1 {
		t.Fatalf("encoder calls: got %d, want 1", len(stub.calls))
	}
	// 1200x900 is under every cap, so pass 1 keeps the native size.
	if c := stub.calls[0]; c.width != 1200 || c.quality != 65 {
		t.Errorf("pass1 call: got %+v, want width 1200 quality 65", c)
	}
}

func TestCompressEscalatesOnWeakSavings(t *testing.T) {
	// 95% of the source is under the wire but above the 0.9 savings
	// bar, so a same-format request keeps escalating.
	stub := &fakeEncoder{format: "png", sizes: []int{95_000, 60_000}}
	o := stubOptimizer(policy.Default(), stub)
	src := padTo(t, asPNG(t, solidImg(1200, 900)), 100_000)

	out, err := o.Compress(src)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if out.Passes != 2 {
		t.Errorf("passes: got %d, want 2", out.Passes)
	}
	if len(out.Data) != 60_000 {
		t.Errorf("size: got %d, want 60000", len(out.Data))
	}
	if len(stub.calls) != 2 {
		t.Fatalf("encoder calls: got %d, want 2", len(stub.calls))
	}
	if c := stub.calls[0]; c.quality != 65 {
		t.Errorf("pass1 quality: got %d, want 65", c.quality)
	}
	if c := stub.calls[1]; c.width != 1024 || c.quality != 50 {
		t.Errorf("pass2 call: got %+v, want width 1024 quality 50", c)
	}
}

func TestEscalationKeepsBestResult(t *testing.T) {
	cases := []struct {
		name         string
		sizes        []int
		wantLen      int
		wantPasses   int
		wantOriginal bool
	}{
		// Pass 2 beats pass 1 and the source; stop there.
		{"pass2 wins", []int{150_000, 90_000, 999}, 90_000, 2, false},
		// Every pass shrinks but only pass 3 beats the source.
		{"pass3 wins", []int{150_000, 140_000, 30_000}, 30_000, 3, false},
		// Later passes regress; no candidate larger than the current
		// best is ever adopted, and the original wins the tie.
		{"passes regress", []int{150_000, 160_000, 170_000}, 100_000, 3, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &fakeEncoder{format: "png", sizes: tc.sizes}
			o := stubOptimizer(policy.Default(), stub)
			src := padTo(t, asPNG(t, solidImg(1960, 1470)), 100_000)

			out, err := o.Compress(src)
			if err != nil {
				t.Fatalf("compress: %v", err)
			}
			if len(out.Data) != tc.wantLen {
				t.Errorf("size: got %d, want %d", len(out.Data), tc.wantLen)
			}
			if out.Passes != tc.wantPasses {
				t.Errorf("passes: got %d, want %d", out.Passes, tc.wantPasses)
			}
			if out.Original != tc.wantOriginal {
				t.Errorf("original: got %v, want %v", out.Original, tc.wantOriginal)
			}
			if tc.wantOriginal && !bytes.Equal(out.Data, src) {
				t.Error("original outcome is not the source payload")
			}
		})
	}
}

func TestEscalationTightensParameters(t *testing.T) {
	// 1960x1470 stays under the mobile threshold but above every pass
	// cap, so all three resize steps are visible.
	stub := &fakeEncoder{format: "png", sizes: []int{150_000, 140_000, 130_000}}
	o := stubOptimizer(policy.Default(), stub)
	src := padTo(t, asPNG(t, solidImg(1960, 1470)), 100_000)

	if _, err := o.Compress(src); err != nil {
		t.Fatalf("compress: %v", err)
	}
	if len(stub.calls) != 3 {
		t.Fatalf("encoder calls: got %d, want 3", len(stub.calls))
	}
	wantWidths := []int{1920, 1024, 800}
	wantQualities := []int{65, 50, 30}
	for i, c := range stub.calls {
		if c.width != wantWidths[i] {
			t.Errorf("pass%d width: got %d, want %d", i+1, c.width, wantWidths[i])
		}
		if c.quality != wantQualities[i] {
			t.Errorf("pass%d quality: got %d, want %d", i+1, c.quality, wantQualities[i])
		}
	}
}

func TestMobilePhotoStartsAggressive(t *testing.T) {
	stub := &fakeEncoder{format: "webp", sizes: []int{5_000}}
	o := stubOptimizer(policy.Default(), stub)
	// Longest side above 2000 px at a small byte size: classified as a
	// hardware-compressed photo.
	src := asJPEG(t, gradientImg(2200, 330), 85)

	out, err := o.ToWebP(src)
	if err != nil {
		t.Fatalf("to webp: %v", err)
	}
	if out.ResolvedFormat != "webp" {
		t.Errorf("resolved: got %q, want webp", out.ResolvedFormat)
	}
	if len(stub.calls) != 1 {
		t.Fatalf("encoder calls: got %d, want 1", len(stub.calls))
	}
	if c := stub.calls[0]; c.width != 1280 || c.quality != 60 {
		t.Errorf("pass1 call: got %+v, want width 1280 quality 60", c)
	}
}

func TestLargeFileIsNotMobilePhoto(t *testing.T) {
	stub := &fakeEncoder{format: "webp", sizes: []int{5_000}}
	o := stubOptimizer(policy.Default(), stub)
	// Same resolution, but padded over the byte threshold: a large
	// high-resolution file re-encodes fine at standard parameters.
	src := padTo(t, asJPEG(t, gradientImg(2200, 330), 85), 2_700_000)

	if _, err := o.ToWebP(src); err != nil {
		t.Fatalf("to webp: %v", err)
	}
	if len(stub.calls) != 1 {
		t.Fatalf("encoder calls: got %d, want 1", len(stub.calls))
	}
	if c := stub.calls[0]; c.width != 1920 || c.quality != 65 {
		t.Errorf("pass1 call: got %+v, want width 1920 quality 65", c)
	}
}

func TestCapabilityFallbackUsesEmergencyJPEG(t *testing.T) {
	pngStub := &fakeEncoder{format: "png", sizes: []int{999}}
	jpegStub := &fakeEncoder{format: "jpeg", sizes: []int{150_000, 90_000}}
	o := stubOptimizer(policy.Default(), pngStub, jpegStub)
	src := padTo(t, asPNG(t, solidImg(1200, 900)), 100_000)

	out, err := o.ToWebP(src)
	if err != nil {
		t.Fatalf("to webp: %v", err)
	}
	if out.ResolvedFormat != "jpeg" {
		t.Errorf("resolved: got %q, want jpeg", out.ResolvedFormat)
	}
	if out.Passes != 2 {
		t.Errorf("passes: got %d, want 2", out.Passes)
	}
	if len(out.Data) != 90_000 {
		t.Errorf("size: got %d, want 90000", len(out.Data))
	}

	// The substituted pass-1 attempt hits the raster default once.
	if len(pngStub.calls) != 1 {
		t.Fatalf("png calls: got %d, want 1", len(pngStub.calls))
	}
	// Emergency re-encode at quality 70 and the same cap, then pass 2
	// derived from the emergency quality.
	if len(jpegStub.calls) != 2 {
		t.Fatalf("jpeg calls: got %d, want 2", len(jpegStub.calls))
	}
	if c := jpegStub.calls[0]; c.width != 1200 || c.quality != 70 {
		t.Errorf("emergency call: got %+v, want width 1200 quality 70", c)
	}
	if c := jpegStub.calls[1]; c.width != 1024 || c.quality != 55 {
		t.Errorf("pass2 call: got %+v, want width 1024 quality 55", c)
	}
}

func TestSameFormatEmergencyFallbackKeepsOriginal(t *testing.T) {
	// A same-format request that falls onto the emergency JPEG path
	// keeps the size guarantee: when the substitute never beats the
	// source, the source comes back verbatim in its own format.
	pngStub := &fakeEncoder{format: "png", sizes: []int{999}}
	jpegStub := &fakeEncoder{format: "jpeg", sizes: []int{150_000}}
	o := stubOptimizer(policy.Default(), pngStub, jpegStub)
	src := padTo(t, asGIF(t, 1), 100_000)

	out, err := o.Compress(src)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if !out.Original {
		t.Fatal("expected the untouched source back")
	}
	if !bytes.Equal(out.Data, src) {
		t.Error("outcome payload differs from source")
	}
	if out.ResolvedFormat != "gif" {
		t.Errorf("resolved: got %q, want gif", out.ResolvedFormat)
	}
	if out.Passes != 3 {
		t.Errorf("passes: got %d, want 3", out.Passes)
	}

	// Emergency re-encode at quality 70, then passes 2 and 3 derived
	// from it; none of the oversized attempts is ever adopted.
	want := []int{70, 55, 45}
	if len(jpegStub.calls) != len(want) {
		t.Fatalf("jpeg calls: got %d, want %d", len(jpegStub.calls), len(want))
	}
	for i, q := range want {
		if jpegStub.calls[i].quality != q {
			t.Errorf("call %d quality: got %d, want %d", i, jpegStub.calls[i].quality, q)
		}
	}
}

func TestToAVIFDegradesToWebP(t *testing.T) {
	pngStub := &fakeEncoder{format: "png", sizes: []int{999}}
	jpegStub := &fakeEncoder{format: "jpeg", sizes: []int{10_000}}
	webpStub := &fakeEncoder{format: "webp", sizes: []int{8_000}}
	o := stubOptimizer(policy.Default(), pngStub, jpegStub, webpStub)
	src := padTo(t, asPNG(t, solidImg(1200, 900)), 100_000)

	out, err := o.ToAVIF(src)
	if err != nil {
		t.Fatalf("to avif: %v", err)
	}
	if out.ResolvedFormat != "webp" {
		t.Errorf("resolved: got %q, want webp", out.ResolvedFormat)
	}
	if len(out.Data) != 8_000 {
		t.Errorf("size: got %d, want 8000", len(out.Data))
	}
}

func TestToAVIFNeverReturnsRasterDefault(t *testing.T) {
	// Neither AVIF nor WebP available: the conversion must end on the
	// emergency JPEG path, never on the silently substituted default.
	pngStub := &fakeEncoder{format: "png", sizes: []int{999}}
	jpegStub := &fakeEncoder{format: "jpeg", sizes: []int{10_000}}
	o := stubOptimizer(policy.Default(), pngStub, jpegStub)
	src := padTo(t, asPNG(t, solidImg(1200, 900)), 100_000)

	out, err := o.ToAVIF(src)
	if err != nil {
		t.Fatalf("to avif: %v", err)
	}
	if out.ResolvedFormat != "jpeg" {
		t.Errorf("resolved: got %q, want jpeg", out.ResolvedFormat)
	}
}

func TestNoUsableEncoderFails(t *testing.T) {
	pngStub := &fakeEncoder{format: "png", sizes: []int{999}}
	o := stubOptimizer(policy.Default(), pngStub)
	src := asPNG(t, solidImg(100, 80))

	_, err := o.ToWebP(src)
	if !errors.Is(err, raster.ErrEncode) {
		t.Errorf("got %v, want ErrEncode", err)
	}
}

func TestTargetBytesKeepsEscalating(t *testing.T) {
	table := policy.Default()
	table.TargetBytes = 50_000

	stub := &fakeEncoder{format: "png", sizes: []int{80_000, 60_000, 40_000}}
	o := stubOptimizer(table, stub)
	src := padTo(t, asPNG(t, solidImg(1200, 900)), 100_000)

	out, err := o.Compress(src)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if out.Passes != 3 {
		t.Errorf("passes: got %d, want 3", out.Passes)
	}
	if len(out.Data) != 40_000 {
		t.Errorf("size: got %d, want 40000", len(out.Data))
	}
}

func TestCompressReturnsOriginalForTinyFile(t *testing.T) {
	o := realOptimizer()
	// An already max-compressed small PNG cannot be beaten by a
	// same-format re-encode; the outcome is the source, byte for byte.
	src := asPNG(t, solidImg(400, 300))

	out, err := o.Compress(src)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if !out.Original {
		t.Fatal("expected original passthrough")
	}
	if !bytes.Equal(out.Data, src) {
		t.Error("outcome differs from source")
	}
	if out.ResolvedFormat != "png" {
		t.Errorf("resolved: got %q, want png", out.ResolvedFormat)
	}
	if out.Width != 400 || out.Height != 300 {
		t.Errorf("dims: got %dx%d, want 400x300", out.Width, out.Height)
	}
}

func TestCompressNeverLargerThanSource(t *testing.T) {
	o := realOptimizer()
	fixtures := map[string][]byte{
		"solid png":  asPNG(t, solidImg(640, 480)),
		"noisy jpeg": asJPEG(t, noiseImg(800, 600), 90),
		"still gif":  asGIF(t, 1),
	}

	for name, src := range fixtures {
		out, err := o.Compress(src)
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if len(out.Data) > len(src) {
			t.Errorf("%s: outcome %d bytes exceeds source %d", name, len(out.Data), len(src))
		}
		if len(out.Data) == len(src) && !out.Original {
			t.Errorf("%s: size unchanged but payload is not the original", name)
		}
	}
}

func TestCompressIdempotent(t *testing.T) {
	o := realOptimizer()
	src := asJPEG(t, noiseImg(2400, 1800), 88)

	first, err := o.Compress(src)
	if err != nil {
		t.Fatalf("first compress: %v", err)
	}
	if len(first.Data) >= len(src) {
		t.Fatalf("first run did not shrink: %d -> %d", len(src), len(first.Data))
	}

	second, err := o.Compress(first.Data)
	if err != nil {
		t.Fatalf("second compress: %v", err)
	}
	if len(second.Data) > len(first.Data) {
		t.Errorf("second run grew output: %d -> %d", len(first.Data), len(second.Data))
	}
}

func TestCompressAnimatedGIFPassesThrough(t *testing.T) {
	o := realOptimizer()
	src := asGIF(t, 3)

	out, err := o.Compress(src)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if !out.Original {
		t.Fatal("animated gif was re-encoded")
	}
	if !bytes.Equal(out.Data, src) {
		t.Error("payload differs from source")
	}
	if out.ResolvedFormat != "gif" {
		t.Errorf("resolved: got %q, want gif", out.ResolvedFormat)
	}
}

func TestToWebPMobilePhoto(t *testing.T) {
	o := realOptimizer()
	src := asJPEG(t, gradientImg(3200, 2400), 88)

	out, err := o.ToWebP(src)
	if err != nil {
		t.Fatalf("to webp: %v", err)
	}
	if out.ResolvedFormat != "webp" {
		t.Fatalf("resolved: got %q, want webp", out.ResolvedFormat)
	}
	if len(out.Data) >= len(src) {
		t.Errorf("conversion did not shrink: %d -> %d", len(src), len(out.Data))
	}
	// Classified mobile: the first pass caps the longest side at 1280.
	if out.Width != 1280 || out.Height != 960 {
		t.Errorf("dims: got %dx%d, want 1280x960", out.Width, out.Height)
	}
	if out.Passes != 1 {
		t.Errorf("passes: got %d, want 1", out.Passes)
	}
	if w, h := raster.Probe(out.Data); w != 1280 || h != 960 {
		t.Errorf("payload dims: got %dx%d, want 1280x960", w, h)
	}
}

func TestWrapSVGPassthrough(t *testing.T) {
	o := realOptimizer()
	src := []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10"></svg>`)

	out, err := o.WrapSVG(src)
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	if !out.Original {
		t.Error("vector source was re-wrapped")
	}
	if !bytes.Equal(out.Data, src) {
		t.Error("payload differs from source")
	}
	if out.ResolvedFormat != "svg" {
		t.Errorf("resolved: got %q, want svg", out.ResolvedFormat)
	}
}

func TestWrapSVGDeclaresNativeSize(t *testing.T) {
	o := realOptimizer()
	src := asJPEG(t, gradientImg(1000, 800), 85)

	out, err := o.WrapSVG(src)
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	doc := string(out.Data)
	if !bytes.HasPrefix(out.Data, []byte("<svg ")) {
		t.Fatalf("not an svg document: %.40s", doc)
	}
	for _, want := range []string{`width="1000"`, `height="800"`, `viewBox="0 0 1000 800"`} {
		if !bytes.Contains(out.Data, []byte(want)) {
			t.Errorf("missing %q in wrapper", want)
		}
	}
	if out.ResolvedFormat != "svg" {
		t.Errorf("resolved: got %q, want svg", out.ResolvedFormat)
	}

	// The embedded payload must decode back to the same pixel size:
	// 1000x800 sits under every pass cap, so no downscale happened.
	uri := extractHref(t, doc)
	payload, _, err := dataurl.Decode(uri)
	if err != nil {
		t.Fatalf("decode embedded payload: %v", err)
	}
	if w, h := raster.Probe(payload); w != 1000 || h != 800 {
		t.Errorf("embedded dims: got %dx%d, want 1000x800", w, h)
	}
}

func TestAdaptersRejectUnknownPayloads(t *testing.T) {
	o := realOptimizer()
	garbage := []byte("not an image, not even close")

	if _, err := o.Compress(garbage); err == nil {
		t.Error("compress accepted garbage")
	}
	if _, err := o.ToWebP(garbage); err == nil {
		t.Error("to webp accepted garbage")
	}
	if _, err := o.ToAVIF(garbage); err == nil {
		t.Error("to avif accepted garbage")
	}
	if _, err := o.WrapSVG(garbage); err == nil {
		t.Error("svg wrap accepted garbage")
	}
	if _, err := o.Apply(Transform("rotate"), asPNG(t, solidImg(8, 8))); err == nil {
		t.Error("unknown transform accepted")
	}
}

func TestApplyDispatches(t *testing.T) {
	o := realOptimizer()
	src := asPNG(t, solidImg(64, 48))

	out, err := o.Apply(TransformSVG, src)
	if err != nil {
		t.Fatalf("apply svg: %v", err)
	}
	if out.ResolvedFormat != "svg" {
		t.Errorf("resolved: got %q, want svg", out.ResolvedFormat)
	}
}
