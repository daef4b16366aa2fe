// Package rasterx holds rendered page images and crops regions out of them.
package rasterx

import (
	"bytes"
	"image"
	"math"
	"net/http"

	"github.com/Abraxas-365/pagelift/pkg/errx"
	"github.com/Abraxas-365/pagelift/pkg/slide"
	"github.com/disintegration/imaging"

	_ "golang.org/x/image/webp"
)

var errorRegistry = errx.NewRegistry("RASTER")

var (
	ErrDecode      = errorRegistry.Register("DECODE_FAILED", errx.TypeValidation, http.StatusUnprocessableEntity, "Failed to decode raster image")
	ErrEncode      = errorRegistry.Register("ENCODE_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Failed to encode raster image")
	ErrEmptyRegion = errorRegistry.Register("EMPTY_REGION", errx.TypeValidation, http.StatusBadRequest, "Region covers no pixels")
)

// Raster is a rendered page: the decoded image and the bytes it was decoded
// from, which are what OCR backends receive.
type Raster struct {
	Image    image.Image
	Encoded  []byte
	MIMEType string
}

// Width returns the raster width in pixels
func (r *Raster) Width() int {
	if r == nil || r.Image == nil {
		return 0
	}
	return r.Image.Bounds().Dx()
}

// Height returns the raster height in pixels
func (r *Raster) Height() int {
	if r == nil || r.Image == nil {
		return 0
	}
	return r.Image.Bounds().Dy()
}

// Decode parses PNG, JPEG, GIF or WEBP bytes into a Raster
func Decode(data []byte) (*Raster, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, errorRegistry.NewWithCause(ErrDecode, err)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errorRegistry.NewWithCause(ErrDecode, err).WithDetail("format", format)
	}

	return &Raster{
		Image:    img,
		Encoded:  data,
		MIMEType: "image/" + format,
	}, nil
}

// FromImage wraps an in-memory image, encoding it as PNG
func FromImage(img image.Image) (*Raster, error) {
	data, err := EncodePNG(img)
	if err != nil {
		return nil, err
	}
	return &Raster{Image: img, Encoded: data, MIMEType: "image/png"}, nil
}

// EncodePNG encodes img as PNG
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, errorRegistry.NewWithCause(ErrEncode, err)
	}
	return buf.Bytes(), nil
}

// PixelRect maps a percentage box onto the raster, rounding outwards and
// clipping to the image bounds.
func (r *Raster) PixelRect(box slide.Box) image.Rectangle {
	b := r.Image.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())

	rect := image.Rect(
		b.Min.X+int(math.Floor(box.X/100*w)),
		b.Min.Y+int(math.Floor(box.Y/100*h)),
		b.Min.X+int(math.Ceil(box.Right()/100*w)),
		b.Min.Y+int(math.Ceil(box.Bottom()/100*h)),
	)
	return rect.Intersect(b)
}

// Crop cuts box out of the raster and returns it as a PNG image element
func (r *Raster) Crop(box slide.Box, source slide.ImageSource) (slide.ImageElement, error) {
	if r == nil || r.Image == nil {
		return slide.ImageElement{}, errorRegistry.New(ErrEmptyRegion).WithDetail("reason", "no raster")
	}

	rect := r.PixelRect(box)
	if rect.Empty() {
		return slide.ImageElement{}, errorRegistry.New(ErrEmptyRegion).
			WithDetail("box", box)
	}

	cropped := imaging.Crop(r.Image, rect)
	data, err := EncodePNG(cropped)
	if err != nil {
		return slide.ImageElement{}, err
	}

	return slide.ImageElement{
		ID:          slide.NewElementID(),
		Box:         box,
		Data:        data,
		MIMEType:    "image/png",
		PixelWidth:  rect.Dx(),
		PixelHeight: rect.Dy(),
		Source:      source,
	}, nil
}
