package imaging

import (
	"image"
	"image/draw"
	"math"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
	"github.com/anthonynsimon/bild/transform"
)

// Config holds the preprocessing constants. The zero value is not useful;
// start from DefaultConfig.
type Config struct {
	// Threshold is the binarization cut level applied after equalization.
	// Pixels at or above it become white (255), the rest black (0).
	Threshold uint8

	// Upscale is the uniform resize factor applied as the final step.
	// It must be positive; the pipeline runs it unconditionally.
	Upscale float64
}

// DefaultConfig returns the pipeline tuning used in production: threshold at
// mid-gray and a 1.5x upscale so small or distant codes keep enough pixels
// per module to decode.
func DefaultConfig() Config {
	return Config{Threshold: 128, Upscale: 1.5}
}

// Preprocess prepares an image for QR decoding and returns the processed
// grayscale image together with the scale factors that map processed
// coordinates back to the original image (original size / processed size).
//
// The pipeline is fixed, in order:
//
//  1. grayscale conversion
//  2. histogram equalization, expanding contrast to compensate for uneven
//     lighting in camera captures
//  3. binary threshold, sharpening the quiet-zone and module edges the
//     decoder relies on
//  4. uniform bilinear upscale, recovering codes below the decoder's
//     minimum module pixel size
//
// There is no adaptive skipping: already-high-contrast or already-large
// images pass through the same steps.
func Preprocess(img image.Image, cfg Config) (*image.Gray, float64, float64) {
	origW := img.Bounds().Dx()
	origH := img.Bounds().Dy()

	gray := toGray(effect.Grayscale(img))
	equalized := equalizeHistogram(gray)
	binary := segment.Threshold(equalized, cfg.Threshold)

	newW := int(math.Round(float64(binary.Bounds().Dx()) * cfg.Upscale))
	newH := int(math.Round(float64(binary.Bounds().Dy()) * cfg.Upscale))
	processed := toGray(transform.Resize(binary, newW, newH, transform.Linear))

	scaleX := float64(origW) / float64(processed.Bounds().Dx())
	scaleY := float64(origH) / float64(processed.Bounds().Dy())
	return processed, scaleX, scaleY
}

// equalizeHistogram remaps gray levels so their cumulative distribution is
// approximately uniform. A flat (single-level) image is returned unchanged.
func equalizeHistogram(g *image.Gray) *image.Gray {
	bounds := g.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	total := w * h
	if total == 0 {
		return g
	}

	var hist [256]int
	for y := 0; y < h; y++ {
		row := g.Pix[y*g.Stride : y*g.Stride+w]
		for _, v := range row {
			hist[v]++
		}
	}

	var cdf [256]int
	sum := 0
	for i, n := range hist {
		sum += n
		cdf[i] = sum
	}

	cdfMin := 0
	for _, v := range cdf {
		if v > 0 {
			cdfMin = v
			break
		}
	}
	if total == cdfMin {
		// Single gray level; equalization has nothing to spread.
		return g
	}

	var lut [256]uint8
	denom := float64(total - cdfMin)
	for i := range lut {
		if cdf[i] <= cdfMin {
			lut[i] = 0
			continue
		}
		lut[i] = uint8(math.Round(float64(cdf[i]-cdfMin) / denom * 255))
	}

	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		src := g.Pix[y*g.Stride : y*g.Stride+w]
		dst := out.Pix[y*out.Stride : y*out.Stride+w]
		for x, v := range src {
			dst[x] = lut[v]
		}
	}
	return out
}

// toGray converts any image to *image.Gray, normalizing bounds to a zero
// origin.
func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Bounds().Min == image.Pt(0, 0) {
		return g
	}
	bounds := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(out, out.Bounds(), img, bounds.Min, draw.Src)
	return out
}
