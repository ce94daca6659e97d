// Package match scores detector output against ground truth.
package match

import (
	"github.com/visionutils/qr-detect/internal/detect"
	"github.com/visionutils/qr-detect/internal/geometry"
)

// GroundTruth is one expected detection: the payload a code encodes and the
// box it occupies. Entries come from annotations or the synthetic scene
// generator and are definitional, not measured.
type GroundTruth struct {
	Payload string       `json:"payload"`
	Box     geometry.Box `json:"box"`
}

// Pair couples a ground-truth entry with the detection that matched it.
type Pair struct {
	GroundTruth GroundTruth      `json:"ground_truth"`
	Detection   detect.Detection `json:"detection"`
	IoU         float64          `json:"iou"`
}

// Result is the outcome of matching one detection pass against ground truth.
// It is computed fresh per Match call and never mutated afterwards.
type Result struct {
	Matched              []Pair             `json:"matched"`
	UnmatchedGroundTruth []GroundTruth      `json:"unmatched_ground_truth"`
	UnmatchedDetections  []detect.Detection `json:"unmatched_detections"`
}

// Match pairs detections with ground-truth entries.
//
// Matching is greedy and payload-gated: for each ground-truth entry, in
// input order, only pool detections whose payload equals the entry's payload
// are candidates. Codes are distinguished primarily by decoded content, not
// position, which keeps two nearby codes with different payloads from
// matching on spatial overlap alone. Payloads need not be unique across
// detections, so candidates are drawn from a pool rather than a map.
//
// The candidate with the greatest IoU wins; on equal IoU the first one
// encountered is kept, so given stable input order the result is fully
// deterministic. The winner is consumed from the pool only when its IoU
// reaches iouThreshold (exact equality matches); otherwise the ground-truth
// entry goes unmatched even though a same-payload candidate existed.
// Detections left in the pool afterwards are reported unmatched.
//
// This is a greedy policy, not an optimal assignment: duplicate payloads
// with ambiguous geometry can pair sub-optimally.
func Match(detections []detect.Detection, truth []GroundTruth, iouThreshold float64) Result {
	pool := make([]detect.Detection, len(detections))
	copy(pool, detections)

	result := Result{
		Matched:              make([]Pair, 0, len(truth)),
		UnmatchedGroundTruth: make([]GroundTruth, 0),
	}

	for _, gt := range truth {
		bestIdx := -1
		bestIoU := 0.0

		for i, det := range pool {
			if det.Payload != gt.Payload {
				continue
			}
			if iou := geometry.IoU(gt.Box, det.Box); iou > bestIoU {
				bestIoU = iou
				bestIdx = i
			}
		}

		if bestIdx >= 0 && bestIoU >= iouThreshold {
			result.Matched = append(result.Matched, Pair{
				GroundTruth: gt,
				Detection:   pool[bestIdx],
				IoU:         bestIoU,
			})
			pool = append(pool[:bestIdx], pool[bestIdx+1:]...)
		} else {
			result.UnmatchedGroundTruth = append(result.UnmatchedGroundTruth, gt)
		}
	}

	result.UnmatchedDetections = pool
	return result
}
