// Package native defines read access to the pages of an input document:
// rasterization, embedded image placements and the text layer.
package native

import (
	"context"

	"github.com/Abraxas-365/pagelift/pkg/rasterx"
	"github.com/Abraxas-365/pagelift/pkg/slide"
)

// Format is a supported input format
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatWEBP Format = "webp"
)

// Page gives access to one page. Implementations cache the raster so that
// Render, Images and the OCR stage decode the page once.
type Page interface {
	// Index is 0-based
	Index() int

	// Size returns the page size in the document's native units
	Size() (width, height float64)

	Render(ctx context.Context) (*rasterx.Raster, error)

	// Images returns embedded images with their placement boxes
	Images(ctx context.Context) ([]slide.ImageElement, error)

	// TextRuns returns the raw text layer. hasLayer is false when the page
	// carries no extractable text at all.
	TextRuns(ctx context.Context) (runs []slide.RawTextRun, hasLayer bool, err error)
}

// Document is an opened input document
type Document interface {
	Format() Format
	NumPages() int
	Page(ctx context.Context, index int) (Page, error)
	Close() error
}

// Opener opens one format
type Opener interface {
	Open(ctx context.Context, data []byte) (Document, error)
}

// OpenerFunc adapts a function to Opener
type OpenerFunc func(ctx context.Context, data []byte) (Document, error)

func (f OpenerFunc) Open(ctx context.Context, data []byte) (Document, error) {
	return f(ctx, data)
}
