// Package validate runs annotation-driven end-to-end checks: load an image,
// detect codes in it, and compare the detections against declared ground
// truth.
package validate

import (
	"fmt"
	"path/filepath"

	"github.com/visionutils/qr-detect/internal/detect"
	"github.com/visionutils/qr-detect/internal/imaging"
	"github.com/visionutils/qr-detect/internal/match"
)

// PairReport is one matched expected/detected pair.
type PairReport struct {
	Data     string  `json:"data"`
	Expected [4]int  `json:"expected"`
	Detected [4]int  `json:"detected"`
	IoU      float64 `json:"iou"`
}

// Report summarizes one validation case.
type Report struct {
	Description         string              `json:"description,omitempty"`
	Pass                bool                `json:"pass"`
	ExpectedCount       int                 `json:"expected_count"`
	DetectedCount       int                 `json:"detected_count"`
	Matched             []PairReport        `json:"matched"`
	UnmatchedExpected   []match.GroundTruth `json:"unmatched_expected"`
	UnmatchedDetections []detect.Detection  `json:"unmatched_detections"`
	AverageIoU          float64             `json:"average_iou"`
}

// Run loads the annotation at path, resolves and loads its image, runs
// detection, and evaluates the result. Relative image paths are resolved
// against the annotation file's directory.
func Run(det *detect.Detector, cache *imaging.ImageCache, path string) (*Report, error) {
	ann, err := LoadAnnotation(path)
	if err != nil {
		return nil, err
	}

	imgPath := ann.Image
	if !filepath.IsAbs(imgPath) {
		imgPath = filepath.Join(filepath.Dir(path), imgPath)
	}
	img, err := cache.Load(imgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load annotated image: %w", err)
	}

	detections, err := det.Detect(img)
	if err != nil {
		return nil, fmt.Errorf("detection failed for %s: %w", imgPath, err)
	}

	return Evaluate(ann, detections), nil
}

// Evaluate matches detections against the annotation's ground truth and
// builds the report. The case passes when every expected code was detected
// and nothing extra was found.
func Evaluate(ann *Annotation, detections []detect.Detection) *Report {
	truth := ann.GroundTruth()
	res := match.Match(detections, truth, ann.MinIoU)

	report := &Report{
		Description:         ann.Description,
		ExpectedCount:       len(truth),
		DetectedCount:       len(detections),
		Matched:             make([]PairReport, 0, len(res.Matched)),
		UnmatchedExpected:   res.UnmatchedGroundTruth,
		UnmatchedDetections: res.UnmatchedDetections,
	}

	var iouSum float64
	for _, pair := range res.Matched {
		gt, dt := pair.GroundTruth.Box, pair.Detection.Box
		report.Matched = append(report.Matched, PairReport{
			Data:     pair.GroundTruth.Payload,
			Expected: [4]int{gt.XMin, gt.YMin, gt.XMax, gt.YMax},
			Detected: [4]int{dt.XMin, dt.YMin, dt.XMax, dt.YMax},
			IoU:      pair.IoU,
		})
		iouSum += pair.IoU
	}
	if len(res.Matched) > 0 {
		report.AverageIoU = iouSum / float64(len(res.Matched))
	}

	report.Pass = report.ExpectedCount == report.DetectedCount &&
		len(res.Matched) == report.ExpectedCount &&
		len(res.UnmatchedGroundTruth) == 0 &&
		len(res.UnmatchedDetections) == 0

	return report
}
