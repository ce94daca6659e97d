// Package geometry provides the axis-aligned box type shared by detection
// and matching, plus the Intersection-over-Union metric used to score
// detected boxes against ground truth.
package geometry

// Box is an axis-aligned rectangle in pixel coordinates. The origin is the
// image's top-left corner, X increases rightward and Y increases downward.
// A valid box has XMax > XMin and YMax > YMin.
type Box struct {
	XMin int `json:"x_min"`
	YMin int `json:"y_min"`
	XMax int `json:"x_max"`
	YMax int `json:"y_max"`
}

// Width returns the horizontal extent in pixels.
func (b Box) Width() int { return b.XMax - b.XMin }

// Height returns the vertical extent in pixels.
func (b Box) Height() int { return b.YMax - b.YMin }

// Area returns the box area in square pixels.
func (b Box) Area() int { return b.Width() * b.Height() }

// IoU computes the Intersection over Union of two boxes: overlap area
// divided by combined area, in [0, 1].
//
// Disjoint or merely touching boxes yield 0.0; identical boxes yield 1.0.
// Degenerate input (zero-area boxes, zero union) resolves to 0.0 rather
// than an error. The function is pure and commutative in its arguments.
func IoU(a, b Box) float64 {
	interXMin := max(a.XMin, b.XMin)
	interYMin := max(a.YMin, b.YMin)
	interXMax := min(a.XMax, b.XMax)
	interYMax := min(a.YMax, b.YMax)

	if interXMax <= interXMin || interYMax <= interYMin {
		return 0.0
	}

	intersection := (interXMax - interXMin) * (interYMax - interYMin)
	union := a.Area() + b.Area() - intersection
	if union <= 0 {
		return 0.0
	}

	return float64(intersection) / float64(union)
}
