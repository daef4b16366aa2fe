package slide

import "github.com/google/uuid"

type FontWeight string

const (
	FontWeightNormal FontWeight = "normal"
	FontWeightBold   FontWeight = "bold"
)

type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// DefaultFontColor is used when a source carries no color signal
const DefaultFontColor = "#000000"

// TextElement is one editable text block on a page. FontSize is a percentage
// of the page height.
type TextElement struct {
	ID string `json:"id"`
	Box
	Text       string     `json:"text"`
	FontSize   float64    `json:"fontSize"`
	FontWeight FontWeight `json:"fontWeight,omitempty"`
	FontColor  string     `json:"fontColor,omitempty"`
	Align      Align      `json:"align,omitempty"`

	// Edited is set by editors downstream; extraction never sets it.
	Edited bool `json:"edited,omitempty"`
}

type ImageSource string

const (
	// ImageSourceNative marks images placed by the document itself
	ImageSourceNative ImageSource = "native"
	// ImageSourceOCR marks regions reported by an OCR backend and cropped
	// from the page raster
	ImageSourceOCR ImageSource = "ocr"
)

// ImageElement is an image region with its payload. PixelWidth and
// PixelHeight are the dimensions the payload was cropped at.
type ImageElement struct {
	ID string `json:"id"`
	Box
	Data        []byte      `json:"data"`
	MIMEType    string      `json:"mimeType"`
	PixelWidth  int         `json:"pixelWidth"`
	PixelHeight int         `json:"pixelHeight"`
	Source      ImageSource `json:"source"`
}

// RawTextRun is a positioned fragment from a native text layer, in the
// document's own units with a bottom-up vertical origin.
type RawTextRun struct {
	Text     string
	X        float64
	Y        float64
	Width    float64
	Height   float64
	FontSize float64
}

// OcrResult is what every OCR backend is normalized into.
type OcrResult struct {
	TextElements []TextElement `json:"textElements"`
	ImageRegions []Box         `json:"imageRegions"`
	Engine       string        `json:"engine,omitempty"`
}

// PageResult is the finalized element set of one page.
type PageResult struct {
	TextElements  []TextElement  `json:"textElements"`
	ImageElements []ImageElement `json:"imageElements"`
}

// IsEmpty reports whether the page produced neither text nor images
func (p PageResult) IsEmpty() bool {
	return len(p.TextElements) == 0 && len(p.ImageElements) == 0
}

// NewElementID returns an opaque unique element id
func NewElementID() string {
	return uuid.NewString()
}
