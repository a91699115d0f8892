package detection

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tsawler/uilayout/model"
)

// ErrNoShape is returned when a detection file carries no usable img_shape
var ErrNoShape = errors.New("detection: img_shape must list height and width")

type uiedFile struct {
	ImgShape []float64   `json:"img_shape"`
	Compos   []uiedCompo `json:"compos"`
}

type uiedCompo struct {
	ID          json.RawMessage `json:"id,omitempty"`
	Class       string          `json:"class"`
	CompoClass  string          `json:"compo_class,omitempty"`
	Position    uiedPosition    `json:"position"`
	TextContent string          `json:"text_content,omitempty"`
	Confidence  float64         `json:"confidence,omitempty"`
	Clickable   bool            `json:"clickable,omitempty"`
}

type uiedPosition struct {
	ColumnMin float64 `json:"column_min"`
	RowMin    float64 `json:"row_min"`
	ColumnMax float64 `json:"column_max"`
	RowMax    float64 `json:"row_max"`
}

// DecodeUIED reads a detection result in the element-detector JSON format:
//
//	{"img_shape": [h, w, c], "compos": [{"class": "Text", "position": {...}, "text_content": "..."}]}
//
// Entries of class "Text" become OCR detections; every other entry becomes a
// non-text proposal labelled with its compo_class when present, else its class.
// Boxes are not validated here; the merger drops degenerate ones.
func DecodeUIED(r io.Reader) (Input, error) {
	return DecodeUIEDWithScreen(r, model.Screen{})
}

// DecodeUIEDWithScreen is DecodeUIED for files that may lack img_shape. The
// fallback screen is used when the file carries none; ErrNoShape is returned
// only when neither is known.
func DecodeUIEDWithScreen(r io.Reader, fallback model.Screen) (Input, error) {
	var f uiedFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return Input{}, fmt.Errorf("detection: decode: %w", err)
	}

	in := Input{Screen: fallback}
	switch {
	case len(f.ImgShape) >= 2:
		in.Screen = model.Screen{Height: f.ImgShape[0], Width: f.ImgShape[1]}
	case !fallback.Known():
		return Input{}, ErrNoShape
	}

	for _, c := range f.Compos {
		bbox := model.BBox{
			Left:   c.Position.ColumnMin,
			Top:    c.Position.RowMin,
			Right:  c.Position.ColumnMax,
			Bottom: c.Position.RowMax,
		}
		cls, err := model.ParseClass(c.Class)
		if err == nil && cls == model.ClassText {
			in.Texts = append(in.Texts, TextDetection{BBox: bbox, Text: c.TextContent, Confidence: c.Confidence})
			continue
		}
		label := c.CompoClass
		if label == "" {
			label = c.Class
		}
		in.Compos = append(in.Compos, CompoDetection{
			BBox:       bbox,
			Label:      label,
			Confidence: c.Confidence,
			Clickable:  c.Clickable,
		})
	}
	return in, nil
}

// LoadFile reads a detection result from path
func LoadFile(path string) (Input, error) {
	return LoadFileWithScreen(path, model.Screen{})
}

// LoadFileWithScreen reads a detection file, using fallback as the screen
// size when the file carries none
func LoadFileWithScreen(path string, fallback model.Screen) (Input, error) {
	f, err := os.Open(path)
	if err != nil {
		return Input{}, err
	}
	defer f.Close()

	in, err := DecodeUIEDWithScreen(f, fallback)
	if err != nil {
		return Input{}, fmt.Errorf("%s: %w", path, err)
	}
	return in, nil
}

// ValidateBBox returns model.ErrInvalidBoundingBox for a degenerate box
func ValidateBBox(b model.BBox) error {
	return b.Validate()
}
