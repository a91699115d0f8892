//go:build ocr

// Package ocr runs Tesseract over screenshots and returns word boxes in the
// shape the detection merger consumes.
//
// This package wraps the Tesseract OCR engine via gosseract. It requires
// Tesseract to be installed on the system. On macOS, install via:
//
//	brew install tesseract
//
// On Ubuntu/Debian:
//
//	apt-get install tesseract-ocr
package ocr

import (
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/tsawler/uilayout/detection"
	"github.com/tsawler/uilayout/model"
)

// Client wraps Tesseract for word detection on screenshots
type Client struct {
	client        *gosseract.Client
	minConfidence float64
}

// New creates a client in sparse mode.
// The client should be closed when no longer needed to release resources.
func New() (*Client, error) {
	client := gosseract.NewClient()
	if err := client.SetPageSegMode(gosseract.PSM_SPARSE_TEXT); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set segmentation mode: %w", err)
	}
	return &Client{client: client, minConfidence: DefaultMinConfidence}, nil
}

// Close releases OCR resources.
func (c *Client) Close() error {
	if c != nil && c.client != nil {
		return c.client.Close()
	}
	return nil
}

// DetectText returns one detection per recognized word, in image pixel
// coordinates. Words are left unmerged; the merger joins them into lines.
func (c *Client) DetectText(imageData []byte) ([]detection.TextDetection, error) {
	if err := c.client.SetImageFromBytes(imageData); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := c.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	words := make([]detection.TextDetection, 0, len(boxes))
	for _, b := range boxes {
		word := strings.TrimSpace(b.Word)
		confidence := b.Confidence / 100.0
		if word == "" || confidence < c.minConfidence {
			continue
		}
		left, top := float64(b.Box.Min.X), float64(b.Box.Min.Y)
		words = append(words, detection.TextDetection{
			BBox:       model.NewBBox(left, top, left+float64(b.Box.Dx()), top+float64(b.Box.Dy())),
			Text:       word,
			Confidence: confidence,
		})
	}
	return words, nil
}

// SetLanguage sets the recognition languages, e.g. "eng", "fra".
// Default is "eng".
func (c *Client) SetLanguage(langs ...string) error {
	return c.client.SetLanguage(langs...)
}

// SetMode changes how the screenshot is segmented
func (c *Client) SetMode(mode Mode) error {
	switch mode {
	case ModeSparse:
		return c.client.SetPageSegMode(gosseract.PSM_SPARSE_TEXT)
	case ModeAuto:
		return c.client.SetPageSegMode(gosseract.PSM_AUTO)
	case ModeBlock:
		return c.client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK)
	case ModeLine:
		return c.client.SetPageSegMode(gosseract.PSM_SINGLE_LINE)
	default:
		return fmt.Errorf("unknown OCR mode %d", mode)
	}
}

// SetMinConfidence sets the confidence in [0, 1] below which words are
// dropped
func (c *Client) SetMinConfidence(min float64) error {
	if min < 0 || min > 1 {
		return fmt.Errorf("confidence %v out of range [0, 1]", min)
	}
	c.minConfidence = min
	return nil
}
