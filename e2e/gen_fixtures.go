//go:build ignore

// gen_fixtures creates test images covering the optimizer's main
// scenarios, for smoke-testing the CLI end to end.
// Usage: go run gen_fixtures.go <output_dir>
package main

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: gen_fixtures <output_dir>")
		os.Exit(1)
	}
	dir := os.Args[1]
	os.MkdirAll(filepath.Join(dir, "cards"), 0o755)

	// High-resolution photo-like JPEG: triggers the mobile-photo
	// classification and the aggressive first pass.
	writeJPEG(filepath.Join(dir, "photo.jpg"), texture(4000, 3000), 85)

	// Tiny already-tight PNG: compress must return it verbatim.
	writePNG(filepath.Join(dir, "tiny.png"), solid(400, 300, 40))

	// Mid-size banner for the SVG-wrap scenario.
	writeJPEG(filepath.Join(dir, "banner.jpg"), gradient(1000, 800), 85)

	// Cards (PNG, 200x150 each).
	for i := 1; i <= 3; i++ {
		name := fmt.Sprintf("card-%d.png", i)
		writePNG(filepath.Join(dir, "cards", name), solid(200, 150, uint8(i*60)))
	}

	// Small alpha image.
	writePNG(filepath.Join(dir, "logo.png"), alphaGradient(100, 100))

	// Animated GIF: compress must pass it through untouched.
	writeGIF(filepath.Join(dir, "spinner.gif"), 4)

	// Vector input for the SVG passthrough path.
	writeSVG(filepath.Join(dir, "badge.svg"))

	fmt.Fprintf(os.Stderr, "[gen_fixtures] created 9 fixtures in %s\n", dir)
}

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / w),
				G: uint8(y * 255 / h),
				B: 128,
				A: 255,
			})
		}
	}
	return img
}

// texture mixes a gradient with noise so the JPEG neither collapses to
// nothing nor stays incompressible, like a real photograph.
func texture(w, h int) *image.NRGBA {
	rng := rand.New(rand.NewSource(42))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			n := uint8(rng.Intn(64))
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x*191/w) + n/2,
				G: uint8(y*191/h) + n/2,
				B: 96 + n,
				A: 255,
			})
		}
	}
	return img
}

func solid(w, h int, base uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: base, G: base + 40, B: base + 80, A: 255})
		}
	}
	return img
}

func alphaGradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: 220, G: 60, B: 30,
				A: uint8(x * 255 / w),
			})
		}
	}
	return img
}

func writePNG(path string, img *image.NRGBA) {
	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer f.Close()
	enc := &png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(f, img); err != nil {
		panic(err)
	}
}

func writeJPEG(path string, img *image.NRGBA, quality int) {
	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: quality}); err != nil {
		panic(err)
	}
}

func writeGIF(path string, frames int) {
	g := &gif.GIF{}
	pal := color.Palette{
		color.NRGBA{R: 0, G: 0, B: 0, A: 255},
		color.NRGBA{R: 255, G: 255, B: 255, A: 255},
		color.NRGBA{R: 200, G: 60, B: 30, A: 255},
	}
	for i := 0; i < frames; i++ {
		frame := image.NewPaletted(image.Rect(0, 0, 120, 120), pal)
		for p := range frame.Pix {
			frame.Pix[p] = uint8((p + i) % len(pal))
		}
		g.Image = append(g.Image, frame)
		g.Delay = append(g.Delay, 12)
	}

	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer f.Close()
	if err := gif.EncodeAll(f, g); err != nil {
		panic(err)
	}
}

func writeSVG(path string) {
	doc := `<svg xmlns="http://www.w3.org/2000/svg" width="64" height="64" viewBox="0 0 64 64"><circle cx="32" cy="32" r="28" fill="#c83c1e"/></svg>`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		panic(err)
	}
}
