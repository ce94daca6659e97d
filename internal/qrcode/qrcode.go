package qrcode

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/makiuchi-d/gozxing"
	zxmulti "github.com/makiuchi-d/gozxing/multi/qrcode"
	zxqr "github.com/makiuchi-d/gozxing/qrcode"

	"github.com/visionutils/qr-detect/internal/detect"
)

// darkThreshold separates module pixels from quiet-zone pixels when growing
// a finder rectangle to the full symbol extent.
const darkThreshold = 128

// Reader decodes QR codes from images. It holds no state between calls and
// is safe for concurrent use.
type Reader struct{}

// NewReader returns a Reader ready for use as a detect.Decoder.
func NewReader() *Reader {
	return &Reader{}
}

// Decode scans img for QR codes and returns one raw hit per symbol found,
// each carrying the payload bytes and the symbol's bounding rectangle in
// img's own coordinate space. An image without codes yields zero hits and a
// nil error.
func (r *Reader) Decode(img image.Image) ([]detect.RawHit, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("failed to build binary bitmap: %w", err)
	}

	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	results, err := zxmulti.NewQRCodeMultiReader().DecodeMultiple(bmp, hints)
	if err != nil {
		if _, ok := err.(gozxing.NotFoundException); ok {
			return nil, nil
		}
		return nil, fmt.Errorf("qr decode failed: %w", err)
	}

	hits := make([]detect.RawHit, 0, len(results))
	for _, res := range results {
		rect, ok := symbolRect(img, res.GetResultPoints())
		if !ok {
			return nil, fmt.Errorf("decoded symbol %q reported no usable location", res.GetText())
		}
		hits = append(hits, detect.RawHit{
			Payload: []byte(res.GetText()),
			Rect:    rect,
		})
	}
	return hits, nil
}

// symbolRect derives the full symbol extent from the decoder's result
// points. The points mark finder-pattern centers, which sit inside the
// symbol; the rectangle spanning them is grown outward until every adjacent
// row and column is free of dark pixels, i.e. until it reaches the quiet
// zone. Growth is clamped to the image bounds.
func symbolRect(img image.Image, points []gozxing.ResultPoint) (image.Rectangle, bool) {
	if len(points) == 0 {
		return image.Rectangle{}, false
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range points {
		minX = math.Min(minX, p.GetX())
		minY = math.Min(minY, p.GetY())
		maxX = math.Max(maxX, p.GetX())
		maxY = math.Max(maxY, p.GetY())
	}

	bounds := img.Bounds()
	rect := image.Rect(
		int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Ceil(maxX))+1, int(math.Ceil(maxY))+1,
	).Intersect(bounds)
	if rect.Empty() {
		return image.Rectangle{}, false
	}

	for {
		grown := false
		if rect.Min.X > bounds.Min.X && columnHasDark(img, rect.Min.X-1, rect.Min.Y, rect.Max.Y) {
			rect.Min.X--
			grown = true
		}
		if rect.Max.X < bounds.Max.X && columnHasDark(img, rect.Max.X, rect.Min.Y, rect.Max.Y) {
			rect.Max.X++
			grown = true
		}
		if rect.Min.Y > bounds.Min.Y && rowHasDark(img, rect.Min.Y-1, rect.Min.X, rect.Max.X) {
			rect.Min.Y--
			grown = true
		}
		if rect.Max.Y < bounds.Max.Y && rowHasDark(img, rect.Max.Y, rect.Min.X, rect.Max.X) {
			rect.Max.Y++
			grown = true
		}
		if !grown {
			return rect, true
		}
	}
}

func rowHasDark(img image.Image, y, x0, x1 int) bool {
	for x := x0; x < x1; x++ {
		if isDark(img, x, y) {
			return true
		}
	}
	return false
}

func columnHasDark(img image.Image, x, y0, y1 int) bool {
	for y := y0; y < y1; y++ {
		if isDark(img, x, y) {
			return true
		}
	}
	return false
}

func isDark(img image.Image, x, y int) bool {
	r, g, b, _ := img.At(x, y).RGBA()
	// 16-bit channels, ITU-R BT.601 luma.
	luma := (299*r + 587*g + 114*b) / 1000
	return uint8(luma>>8) < darkThreshold
}

// Encode renders payload as a QR symbol roughly size pixels square and crops
// the result to the dark module extent, so the returned tile carries no
// quiet-zone margin of its own. Callers lay the tile onto a light background
// that supplies the quiet zone.
func Encode(payload string, size int) (image.Image, error) {
	hints := map[gozxing.EncodeHintType]interface{}{
		gozxing.EncodeHintType_MARGIN: 0,
	}
	matrix, err := zxqr.NewQRCodeWriter().Encode(
		payload, gozxing.BarcodeFormat_QR_CODE, size, size, hints)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %q: %w", payload, err)
	}

	left, top := matrix.GetWidth(), matrix.GetHeight()
	right, bottom := -1, -1
	for y := 0; y < matrix.GetHeight(); y++ {
		for x := 0; x < matrix.GetWidth(); x++ {
			if !matrix.Get(x, y) {
				continue
			}
			if x < left {
				left = x
			}
			if x > right {
				right = x
			}
			if y < top {
				top = y
			}
			if y > bottom {
				bottom = y
			}
		}
	}
	if right < left || bottom < top {
		return nil, fmt.Errorf("encoded matrix for %q has no dark modules", payload)
	}

	out := image.NewGray(image.Rect(0, 0, right-left+1, bottom-top+1))
	for y := top; y <= bottom; y++ {
		for x := left; x <= right; x++ {
			v := uint8(255)
			if matrix.Get(x, y) {
				v = 0
			}
			out.SetGray(x-left, y-top, color.Gray{Y: v})
		}
	}
	return out, nil
}
