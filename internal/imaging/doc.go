// Package imaging provides image loading and the preprocessing pipeline that
// prepares camera captures for QR decoding.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with the origin at the top-left corner;
// X increases rightward and Y increases downward.
//
// # Preprocessing
//
// Preprocess applies a fixed transform sequence (grayscale, histogram
// equalization, binary threshold, uniform upscale) and returns the scale
// factors needed to map coordinates in the processed image back to the
// original. The sequence is unconditional: high-contrast or large inputs run
// through the same steps, so output is deterministic for a given input.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. Preprocess is stateless and can be
// called concurrently.
package imaging
