package screen

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/tsawler/uilayout/model"
)

// DetectionSide is the longest side, in pixels, of the image detectors see.
const DetectionSide = 800

// ErrEmptyImage is returned for images with no pixels.
var ErrEmptyImage = errors.New("image has no pixels")

// Decode reads a screenshot and returns it with its format name.
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode screenshot: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, format, ErrEmptyImage
	}
	return img, format, nil
}

// DecodeFile reads a screenshot from disk.
func DecodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open screenshot: %w", err)
	}
	defer f.Close()

	img, _, err := Decode(f)
	return img, err
}

// Size returns the screen size of img.
func Size(img image.Image) model.Screen {
	b := img.Bounds()
	return model.Screen{Width: float64(b.Dx()), Height: float64(b.Dy())}
}

// ResizeLongestSide scales img so that its longest side equals side. It
// returns the resized image and the factor that maps its coordinates back to
// img (original = resized * factor). Images already at that size are
// returned unchanged with a factor of 1.
func ResizeLongestSide(img image.Image, side int) (image.Image, float64) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	longest := max(w, h)
	if side <= 0 || longest == 0 || longest == side {
		return img, 1
	}

	scale := float64(side) / float64(longest)
	nw := max(1, int(float64(w)*scale+0.5))
	nh := max(1, int(float64(h)*scale+0.5))

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst, float64(longest) / float64(side)
}

// Clip copies the region of img covered by box, for handing a single element
// to a classifier. The box is in img coordinates relative to its origin and
// is clipped to the image. A box outside the image yields ErrEmptyImage.
func Clip(img image.Image, box model.BBox) (image.Image, error) {
	b := img.Bounds()
	r := image.Rect(
		b.Min.X+int(box.Left), b.Min.Y+int(box.Top),
		b.Min.X+int(box.Right+0.5), b.Min.Y+int(box.Bottom+0.5),
	).Intersect(b)
	if r.Empty() {
		return nil, ErrEmptyImage
	}

	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), img, r.Min, draw.Src)
	return dst, nil
}

// EncodePNG returns img as PNG bytes, the format the OCR engine is fed.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}
