// Package scene builds synthetic QR layouts with exact ground truth for
// self-contained testing and demos.
package scene

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"github.com/visionutils/qr-detect/internal/geometry"
	"github.com/visionutils/qr-detect/internal/match"
	"github.com/visionutils/qr-detect/internal/qrcode"
)

// spacing is the fixed margin, in pixels, around and between grid cells. It
// doubles as the quiet zone for every code.
const spacing = 20

// tileRenderSize is the size codes are rendered at before being resized to
// the grid cell.
const tileRenderSize = 128

// Generate lays out n QR codes on a white width x height canvas and returns
// the canvas together with the ground truth for every code.
//
// Codes are placed on a ceil(sqrt(n)) column grid, row-major, left to right
// and top to bottom; cells beyond n stay empty. Each code encodes an
// index-derived payload ("QR_00", "QR_01", ...). Ground-truth boxes are the
// exact paste rectangles; they are definitional, no detection is involved.
func Generate(n, width, height int) (image.Image, []match.GroundTruth, error) {
	if n < 1 {
		return nil, nil, fmt.Errorf("scene needs at least one code, got %d", n)
	}

	cols := int(math.Ceil(math.Sqrt(float64(n))))
	rows := int(math.Ceil(float64(n) / float64(cols)))

	cellW := (width - spacing*(cols+1)) / cols
	cellH := (height - spacing*(rows+1)) / rows
	size := min(cellW, cellH)
	if size <= 0 {
		return nil, nil, fmt.Errorf("canvas %dx%d too small for %d codes", width, height, n)
	}

	canvas := imaging.New(width, height, color.White)
	truth := make([]match.GroundTruth, 0, n)

	for idx := 0; idx < n; idx++ {
		row := idx / cols
		col := idx % cols

		payload := fmt.Sprintf("QR_%02d", idx)
		tile, err := qrcode.Encode(payload, tileRenderSize)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to render code %d: %w", idx, err)
		}

		// Nearest neighbor keeps the tile bimodal. Smoothing filters leave
		// anti-aliased near-white halos that histogram equalization drags
		// below the binarization threshold, destroying module structure.
		resized := imaging.Resize(tile, size, size, imaging.NearestNeighbor)
		x := spacing + col*(size+spacing)
		y := spacing + row*(size+spacing)
		canvas = imaging.Paste(canvas, resized, image.Pt(x, y))

		truth = append(truth, match.GroundTruth{
			Payload: payload,
			Box:     geometry.Box{XMin: x, YMin: y, XMax: x + size, YMax: y + size},
		})
	}

	return canvas, truth, nil
}
