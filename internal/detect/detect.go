// Package detect turns raw images into decoded QR detections with bounding
// boxes in original-image coordinates.
//
// The actual symbol decoding is delegated to a Decoder, the external decode
// capability: given a prepared pixel array it returns zero or more raw hits
// in that array's own coordinate space. The Detector wraps a Decoder with
// the preprocessing pipeline and the coordinate rescaling that maps hits
// back onto the original image.
package detect

import (
	"errors"
	"fmt"
	"image"
	"math"
	"unicode/utf8"

	"github.com/visionutils/qr-detect/internal/geometry"
	"github.com/visionutils/qr-detect/internal/imaging"
)

// ErrPayloadNotText reports a decoded payload whose bytes are not valid
// UTF-8. A malformed payload indicates a real problem worth surfacing, so
// detection fails instead of silently dropping the hit.
var ErrPayloadNotText = errors.New("payload is not valid UTF-8 text")

// Detection is one decoded QR code located in the original image.
//
// Confidence is always 1.0: the decoder is exact, a code is either found or
// it is not. Detections are created fresh per call and never mutated.
type Detection struct {
	Payload    string       `json:"payload"`
	Box        geometry.Box `json:"box"`
	Confidence float64      `json:"confidence"`
}

// RawHit is a single decoder result: payload bytes plus the symbol rectangle
// in the coordinate space of the image the decoder was given.
type RawHit struct {
	Payload []byte
	Rect    image.Rectangle
}

// Decoder is the external decode capability. Implementations scan an image
// and return zero or more raw hits in the image's own coordinates; zero hits
// is a valid result, not an error. Implementations must be side-effect-free;
// they should also be safe for concurrent use, since the Detector adds no
// synchronization.
type Decoder interface {
	Decode(img image.Image) ([]RawHit, error)
}

// Detector runs the preprocessing pipeline, invokes the decode capability on
// the result and rescales every hit back into original-image coordinates.
//
// A Detector is stateless between calls and safe for concurrent use provided
// its Decoder is.
type Detector struct {
	dec Decoder
	cfg imaging.Config
}

// New returns a Detector using dec as the decode capability and cfg as the
// preprocessing configuration.
func New(dec Decoder, cfg imaging.Config) *Detector {
	return &Detector{dec: dec, cfg: cfg}
}

// Detect locates QR codes in img. Returned boxes are in img's coordinate
// space. The result order is whatever order the decoder yields; callers must
// not assume spatial ordering. An image without codes yields an empty slice
// and a nil error.
func (d *Detector) Detect(img image.Image) ([]Detection, error) {
	processed, scaleX, scaleY := imaging.Preprocess(img, d.cfg)

	hits, err := d.dec.Decode(processed)
	if err != nil {
		return nil, fmt.Errorf("decode failed: %w", err)
	}

	detections := make([]Detection, 0, len(hits))
	for i, hit := range hits {
		if !utf8.Valid(hit.Payload) {
			return nil, fmt.Errorf("hit %d: %w", i, ErrPayloadNotText)
		}

		// Nearest-integer rounding of x, y, w, h independently; the box
		// corner sums after rounding. Keep this policy stable, IoU test
		// tolerances depend on it.
		x := int(math.Round(float64(hit.Rect.Min.X) * scaleX))
		y := int(math.Round(float64(hit.Rect.Min.Y) * scaleY))
		w := int(math.Round(float64(hit.Rect.Dx()) * scaleX))
		h := int(math.Round(float64(hit.Rect.Dy()) * scaleY))

		detections = append(detections, Detection{
			Payload:    string(hit.Payload),
			Box:        geometry.Box{XMin: x, YMin: y, XMax: x + w, YMax: y + h},
			Confidence: 1.0,
		})
	}
	return detections, nil
}
