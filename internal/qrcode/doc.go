// Package qrcode binds the decode capability to a concrete QR engine, the
// gozxing port of ZXing.
//
// Reader implements detect.Decoder. ZXing reports a symbol's finder-pattern
// positions rather than its full extent, so Reader derives the symbol
// rectangle by growing the finder bounding box outward until it reaches the
// quiet zone (a fully light row or column).
//
// The package also renders QR symbols (Encode) for the synthetic scene
// generator.
package qrcode
