package match

import (
	"fmt"
	"testing"

	"github.com/visionutils/qr-detect/internal/detect"
	"github.com/visionutils/qr-detect/internal/geometry"
)

func det(payload string, box geometry.Box) detect.Detection {
	return detect.Detection{Payload: payload, Box: box, Confidence: 1.0}
}

func TestMatch_Complete(t *testing.T) {
	// N detections with matching payloads and identical boxes: everything
	// pairs, nothing remains on either side.
	var truth []GroundTruth
	var detections []detect.Detection
	for i := 0; i < 5; i++ {
		payload := fmt.Sprintf("QR_%02d", i)
		box := geometry.Box{XMin: i * 100, YMin: 0, XMax: i*100 + 50, YMax: 50}
		truth = append(truth, GroundTruth{Payload: payload, Box: box})
		detections = append(detections, det(payload, box))
	}

	result := Match(detections, truth, 0.5)

	if len(result.Matched) != 5 {
		t.Errorf("matched: got %d, want 5", len(result.Matched))
	}
	if len(result.UnmatchedGroundTruth) != 0 {
		t.Errorf("unmatched ground truth: got %d, want 0", len(result.UnmatchedGroundTruth))
	}
	if len(result.UnmatchedDetections) != 0 {
		t.Errorf("unmatched detections: got %d, want 0", len(result.UnmatchedDetections))
	}
	for _, pair := range result.Matched {
		if pair.IoU != 1.0 {
			t.Errorf("pair %q: IoU got %f, want 1.0", pair.GroundTruth.Payload, pair.IoU)
		}
		if pair.GroundTruth.Payload != pair.Detection.Payload {
			t.Errorf("payload mismatch in pair: %q vs %q",
				pair.GroundTruth.Payload, pair.Detection.Payload)
		}
	}
}

func TestMatch_PayloadGating(t *testing.T) {
	// Perfect spatial overlap must not match across different payloads.
	box := geometry.Box{XMin: 0, YMin: 0, XMax: 100, YMax: 100}
	truth := []GroundTruth{{Payload: "QR_00", Box: box}}
	detections := []detect.Detection{det("QR_99", box)}

	result := Match(detections, truth, 0.5)

	if len(result.Matched) != 0 {
		t.Errorf("matched: got %d, want 0", len(result.Matched))
	}
	if len(result.UnmatchedGroundTruth) != 1 {
		t.Errorf("unmatched ground truth: got %d, want 1", len(result.UnmatchedGroundTruth))
	}
	if len(result.UnmatchedDetections) != 1 {
		t.Errorf("unmatched detections: got %d, want 1", len(result.UnmatchedDetections))
	}
}

func TestMatch_ThresholdBoundary(t *testing.T) {
	gtBox := geometry.Box{XMin: 0, YMin: 0, XMax: 10, YMax: 10}

	tests := []struct {
		name      string
		detBox    geometry.Box
		wantMatch bool
	}{
		// IoU exactly 0.5: intersection 50, union 100
		{"exactly at threshold", geometry.Box{XMin: 0, YMin: 0, XMax: 10, YMax: 5}, true},
		// IoU 0.4: intersection 40, union 100
		{"strictly below threshold", geometry.Box{XMin: 0, YMin: 0, XMax: 10, YMax: 4}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			truth := []GroundTruth{{Payload: "QR_00", Box: gtBox}}
			detections := []detect.Detection{det("QR_00", tt.detBox)}

			result := Match(detections, truth, 0.5)

			if got := len(result.Matched) == 1; got != tt.wantMatch {
				t.Errorf("matched=%v, want %v", got, tt.wantMatch)
			}
			if !tt.wantMatch {
				if len(result.UnmatchedGroundTruth) != 1 || len(result.UnmatchedDetections) != 1 {
					t.Errorf("below-threshold candidate must stay in both unmatched sets: gt=%d det=%d",
						len(result.UnmatchedGroundTruth), len(result.UnmatchedDetections))
				}
			}
		})
	}
}

func TestMatch_BestCandidateWins(t *testing.T) {
	gtBox := geometry.Box{XMin: 0, YMin: 0, XMax: 100, YMax: 100}
	truth := []GroundTruth{{Payload: "QR_00", Box: gtBox}}

	offset := det("QR_00", geometry.Box{XMin: 40, YMin: 0, XMax: 140, YMax: 100})
	exact := det("QR_00", gtBox)
	detections := []detect.Detection{offset, exact}

	result := Match(detections, truth, 0.5)

	if len(result.Matched) != 1 {
		t.Fatalf("matched: got %d, want 1", len(result.Matched))
	}
	if result.Matched[0].Detection.Box != exact.Box {
		t.Errorf("matched the weaker candidate: %+v", result.Matched[0].Detection.Box)
	}
	if len(result.UnmatchedDetections) != 1 || result.UnmatchedDetections[0].Box != offset.Box {
		t.Errorf("offset candidate should remain unmatched: %+v", result.UnmatchedDetections)
	}
}

func TestMatch_DuplicatePayloads(t *testing.T) {
	// Two identical codes at different positions: each ground-truth entry
	// must consume a distinct detection from the pool.
	boxA := geometry.Box{XMin: 0, YMin: 0, XMax: 50, YMax: 50}
	boxB := geometry.Box{XMin: 200, YMin: 0, XMax: 250, YMax: 50}

	truth := []GroundTruth{
		{Payload: "QR_00", Box: boxA},
		{Payload: "QR_00", Box: boxB},
	}
	detections := []detect.Detection{det("QR_00", boxB), det("QR_00", boxA)}

	result := Match(detections, truth, 0.5)

	if len(result.Matched) != 2 {
		t.Fatalf("matched: got %d, want 2", len(result.Matched))
	}
	if result.Matched[0].Detection.Box != boxA || result.Matched[1].Detection.Box != boxB {
		t.Errorf("pool assignment wrong: %+v", result.Matched)
	}
	if len(result.UnmatchedDetections) != 0 {
		t.Errorf("unmatched detections: got %d, want 0", len(result.UnmatchedDetections))
	}
}

func TestMatch_ZeroIoUCandidateNeverMatches(t *testing.T) {
	// Even with a zero threshold, a disjoint same-payload candidate is not a
	// match: selection requires strictly positive overlap.
	truth := []GroundTruth{{Payload: "QR_00", Box: geometry.Box{XMin: 0, YMin: 0, XMax: 10, YMax: 10}}}
	detections := []detect.Detection{det("QR_00", geometry.Box{XMin: 500, YMin: 500, XMax: 510, YMax: 510})}

	result := Match(detections, truth, 0.0)

	if len(result.Matched) != 0 {
		t.Errorf("matched: got %d, want 0", len(result.Matched))
	}
}

func TestMatch_EmptyInputs(t *testing.T) {
	box := geometry.Box{XMin: 0, YMin: 0, XMax: 10, YMax: 10}

	t.Run("no detections", func(t *testing.T) {
		result := Match(nil, []GroundTruth{{Payload: "QR_00", Box: box}}, 0.5)
		if len(result.UnmatchedGroundTruth) != 1 || len(result.Matched) != 0 {
			t.Errorf("unexpected result: %+v", result)
		}
	})

	t.Run("no ground truth", func(t *testing.T) {
		result := Match([]detect.Detection{det("QR_00", box)}, nil, 0.5)
		if len(result.UnmatchedDetections) != 1 || len(result.Matched) != 0 {
			t.Errorf("unexpected result: %+v", result)
		}
	})

	t.Run("both empty", func(t *testing.T) {
		result := Match(nil, nil, 0.5)
		if len(result.Matched) != 0 || len(result.UnmatchedGroundTruth) != 0 || len(result.UnmatchedDetections) != 0 {
			t.Errorf("unexpected result: %+v", result)
		}
	})
}
