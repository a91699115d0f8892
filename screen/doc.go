// Package screen loads and prepares screenshots for the detection stage.
//
// Detectors work on a copy of the screenshot resized so that its longest side
// is DetectionSide pixels. ResizeLongestSide returns the scale factor so that
// boxes found on the resized copy can be mapped back with model.BBox.Scale.
//
// Decode understands PNG, JPEG, GIF, WebP, BMP and TIFF.
package screen
