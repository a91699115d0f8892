//go:build !ocr

// Package ocr runs Tesseract over screenshots and returns word boxes in the
// shape the detection merger consumes.
//
// Without the "ocr" build tag every function returns ErrOCRNotEnabled.
// Rebuild with:
//
//	go build -tags ocr
//
// Tesseract must then be installed (brew install tesseract, or
// apt-get install tesseract-ocr).
package ocr

import "github.com/tsawler/uilayout/detection"

// Client is a stub OCR client that returns errors for all operations.
type Client struct{}

// New returns ErrOCRNotEnabled
func New() (*Client, error) {
	return nil, ErrOCRNotEnabled
}

// Close is a no-op and safe on a nil client
func (c *Client) Close() error {
	return nil
}

// DetectText returns ErrOCRNotEnabled
func (c *Client) DetectText(imageData []byte) ([]detection.TextDetection, error) {
	return nil, ErrOCRNotEnabled
}

// SetLanguage returns ErrOCRNotEnabled
func (c *Client) SetLanguage(langs ...string) error {
	return ErrOCRNotEnabled
}

// SetMode returns ErrOCRNotEnabled
func (c *Client) SetMode(mode Mode) error {
	return ErrOCRNotEnabled
}

// SetMinConfidence returns ErrOCRNotEnabled
func (c *Client) SetMinConfidence(min float64) error {
	return ErrOCRNotEnabled
}
