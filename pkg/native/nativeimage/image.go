// Package nativeimage opens a single raster image as a one-page document.
package nativeimage

import (
	"context"

	"github.com/Abraxas-365/pagelift/pkg/native"
	"github.com/Abraxas-365/pagelift/pkg/rasterx"
	"github.com/Abraxas-365/pagelift/pkg/slide"
)

// Opener implements native.Opener for PNG, JPEG and WEBP
type Opener struct{}

func New() *Opener { return &Opener{} }

func (o *Opener) Open(_ context.Context, data []byte) (native.Document, error) {
	raster, err := rasterx.Decode(data)
	if err != nil {
		return nil, native.LoadFailure(err)
	}
	return &document{page: &page{raster: raster}}, nil
}

type document struct {
	page *page
}

func (d *document) Format() native.Format {
	switch d.page.raster.MIMEType {
	case "image/jpeg":
		return native.FormatJPEG
	case "image/webp":
		return native.FormatWEBP
	default:
		return native.FormatPNG
	}
}

func (d *document) NumPages() int { return 1 }

func (d *document) Page(_ context.Context, index int) (native.Page, error) {
	if index != 0 {
		return nil, native.DecodeFailure(nil).WithDetail("page", index)
	}
	return d.page, nil
}

func (d *document) Close() error { return nil }

// page has no text layer and no embedded images; everything comes from OCR
type page struct {
	raster *rasterx.Raster
}

func (p *page) Index() int { return 0 }

func (p *page) Size() (float64, float64) {
	return float64(p.raster.Width()), float64(p.raster.Height())
}

func (p *page) Render(context.Context) (*rasterx.Raster, error) { return p.raster, nil }

func (p *page) Images(context.Context) ([]slide.ImageElement, error) { return nil, nil }

func (p *page) TextRuns(context.Context) ([]slide.RawTextRun, bool, error) {
	return nil, false, nil
}
