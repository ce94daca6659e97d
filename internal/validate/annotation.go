package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/visionutils/qr-detect/internal/geometry"
	"github.com/visionutils/qr-detect/internal/match"
)

// DefaultMinIoU is the overlap threshold applied when an annotation omits
// min_iou.
const DefaultMinIoU = 0.5

// ErrMissingField reports an annotation file without a required field.
var ErrMissingField = errors.New("annotation is missing a required field")

// Expected is one ground-truth code in an annotation file.
type Expected struct {
	Data string       `json:"data"`
	BBox geometry.Box `json:"bbox"`
}

// Annotation describes a validation case: an image plus the detections it
// should yield.
type Annotation struct {
	Description        string     `json:"description"`
	Image              string     `json:"image"`
	ExpectedDetections []Expected `json:"expected_detections"`
	MinIoU             float64    `json:"min_iou"`
}

// LoadAnnotation reads and validates an annotation JSON file. The image and
// expected_detections fields are required; min_iou defaults to
// DefaultMinIoU when absent.
func LoadAnnotation(path string) (*Annotation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read annotation: %w", err)
	}

	var raw struct {
		Description        string     `json:"description"`
		Image              string     `json:"image"`
		ExpectedDetections []Expected `json:"expected_detections"`
		MinIoU             *float64   `json:"min_iou"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse annotation %s: %w", path, err)
	}

	if raw.Image == "" {
		return nil, fmt.Errorf("%s: %w: image", path, ErrMissingField)
	}
	if raw.ExpectedDetections == nil {
		return nil, fmt.Errorf("%s: %w: expected_detections", path, ErrMissingField)
	}

	ann := &Annotation{
		Description:        raw.Description,
		Image:              raw.Image,
		ExpectedDetections: raw.ExpectedDetections,
		MinIoU:             DefaultMinIoU,
	}
	if raw.MinIoU != nil {
		ann.MinIoU = *raw.MinIoU
	}
	return ann, nil
}

// GroundTruth converts the annotation's expected detections into matcher
// input.
func (a *Annotation) GroundTruth() []match.GroundTruth {
	truth := make([]match.GroundTruth, len(a.ExpectedDetections))
	for i, exp := range a.ExpectedDetections {
		truth[i] = match.GroundTruth{Payload: exp.Data, Box: exp.BBox}
	}
	return truth
}
