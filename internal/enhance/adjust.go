package enhance

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"math"

	"enhancer/internal/domain"
)

// Adjustments is the numeric vector applied by the deterministic stage. The
// zero value is the identity transform; each field ranges over [-1, 1].
type Adjustments struct {
	Brightness     float64 `json:"brightness"`
	Contrast       float64 `json:"contrast"`
	Saturation     float64 `json:"saturation"`
	Warmth         float64 `json:"warmth"`
	Sharpness      float64 `json:"sharpness"`
	HighlightGamma float64 `json:"highlight_gamma"`
	ShadowGamma    float64 `json:"shadow_gamma"`
}

// DefaultAdjustments is the baseline enhancement applied when the caller
// supplies no explicit vector: a gentle lift that reads well on food photos.
var DefaultAdjustments = Adjustments{
	Brightness: 0.08,
	Contrast:   0.12,
	Saturation: 0.15,
	Warmth:     0.06,
	Sharpness:  0.25,
}

// ApplyAdjustments decodes src, applies the tonal vector, and re-encodes in
// the source format. The transform is local and content-preserving: same
// dimensions, same subject, only tonal changes. It fails only on malformed
// input.
func ApplyAdjustments(src []byte, adj Adjustments) ([]byte, string, error) {
	img, format, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, "", fmt.Errorf("%w: decode: %v", domain.ErrInvalidSource, err)
	}

	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			fr, fg, fb := adjustPixel(float64(r>>8), float64(g>>8), float64(b>>8), adj)
			i := out.PixOffset(x, y)
			out.Pix[i+0] = clampByte(fr)
			out.Pix[i+1] = clampByte(fg)
			out.Pix[i+2] = clampByte(fb)
			out.Pix[i+3] = uint8(a >> 8)
		}
	}

	result := out
	if adj.Sharpness != 0 {
		result = sharpen(out, adj.Sharpness)
	}

	var buf bytes.Buffer
	mime := "image/png"
	switch format {
	case "jpeg":
		mime = "image/jpeg"
		err = jpeg.Encode(&buf, result, &jpeg.Options{Quality: 92})
	default:
		err = png.Encode(&buf, result)
	}
	if err != nil {
		return nil, "", fmt.Errorf("%w: encode: %v", domain.ErrInvalidSource, err)
	}
	return buf.Bytes(), mime, nil
}

func adjustPixel(r, g, b float64, adj Adjustments) (float64, float64, float64) {
	r += adj.Brightness * 64
	g += adj.Brightness * 64
	b += adj.Brightness * 64

	scale := 1 + adj.Contrast
	r = (r-128)*scale + 128
	g = (g-128)*scale + 128
	b = (b-128)*scale + 128

	luma := 0.299*r + 0.587*g + 0.114*b
	sat := 1 + adj.Saturation
	r = luma + (r-luma)*sat
	g = luma + (g-luma)*sat
	b = luma + (b-luma)*sat

	r += adj.Warmth * 32
	b -= adj.Warmth * 32

	if adj.HighlightGamma != 0 || adj.ShadowGamma != 0 {
		r = applyGamma(r, adj.HighlightGamma, adj.ShadowGamma)
		g = applyGamma(g, adj.HighlightGamma, adj.ShadowGamma)
		b = applyGamma(b, adj.HighlightGamma, adj.ShadowGamma)
	}
	return r, g, b
}

// applyGamma bends highlights and shadows independently around the midpoint.
func applyGamma(v, highlight, shadow float64) float64 {
	t := math.Min(math.Max(v/255, 0), 1)
	if t >= 0.5 {
		exp := 1 / math.Max(1+highlight, 0.1)
		t = 0.5 + 0.5*math.Pow((t-0.5)*2, exp)
	} else {
		exp := 1 / math.Max(1+shadow, 0.1)
		t = 0.5 * math.Pow(t*2, exp)
	}
	return t * 255
}

// sharpen blends each pixel away from its neighbourhood mean (unsharp mask).
func sharpen(img *image.RGBA, amount float64) *image.RGBA {
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	copy(out.Pix, img.Pix)
	for y := bounds.Min.Y + 1; y < bounds.Max.Y-1; y++ {
		for x := bounds.Min.X + 1; x < bounds.Max.X-1; x++ {
			for c := 0; c < 3; c++ {
				var sum float64
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						sum += float64(img.Pix[img.PixOffset(x+dx, y+dy)+c])
					}
				}
				mean := sum / 9
				v := float64(img.Pix[img.PixOffset(x, y)+c])
				out.Pix[out.PixOffset(x, y)+c] = clampByte(v + amount*(v-mean))
			}
		}
	}
	return out
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
