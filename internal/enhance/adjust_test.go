package enhance

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"enhancer/internal/domain"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(30 * x), G: uint8(30 * y), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test png: %v", err)
	}
	return buf.Bytes()
}

func meanLuma(t *testing.T, data []byte) float64 {
	t.Helper()
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	bounds := img.Bounds()
	var sum float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			sum += 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
		}
	}
	return sum / float64(bounds.Dx()*bounds.Dy())
}

func TestApplyAdjustmentsIdentityKeepsDimensions(t *testing.T) {
	src := testPNG(t, 8, 6)
	out, mime, err := ApplyAdjustments(src, Adjustments{})
	if err != nil {
		t.Fatalf("identity adjustments: %v", err)
	}
	if mime != "image/png" {
		t.Fatalf("expected png output for png input, got %s", mime)
	}
	img, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 6 {
		t.Fatalf("dimensions changed: %v", img.Bounds())
	}
}

func TestApplyAdjustmentsBrightness(t *testing.T) {
	src := testPNG(t, 8, 8)
	brighter, _, err := ApplyAdjustments(src, Adjustments{Brightness: 0.5})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if meanLuma(t, brighter) <= meanLuma(t, src) {
		t.Fatal("positive brightness should raise mean luminance")
	}

	darker, _, err := ApplyAdjustments(src, Adjustments{Brightness: -0.5})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if meanLuma(t, darker) >= meanLuma(t, src) {
		t.Fatal("negative brightness should lower mean luminance")
	}
}

func TestApplyAdjustmentsKeepsJPEGFormat(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode test jpeg: %v", err)
	}
	_, mime, err := ApplyAdjustments(buf.Bytes(), DefaultAdjustments)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if mime != "image/jpeg" {
		t.Fatalf("expected jpeg output for jpeg input, got %s", mime)
	}
}

func TestApplyAdjustmentsRejectsMalformedInput(t *testing.T) {
	_, _, err := ApplyAdjustments([]byte("not an image"), DefaultAdjustments)
	if !errors.Is(err, domain.ErrInvalidSource) {
		t.Fatalf("expected ErrInvalidSource, got %v", err)
	}
}
