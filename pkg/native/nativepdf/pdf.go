// Package nativepdf reads PDF pages: text runs and image placements come
// from the PDF itself, rasters come from a Renderer.
package nativepdf

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Abraxas-365/pagelift/pkg/logx"
	"github.com/Abraxas-365/pagelift/pkg/native"
	"github.com/Abraxas-365/pagelift/pkg/rasterx"
	"github.com/Abraxas-365/pagelift/pkg/slide"
	"github.com/ledongthuc/pdf"
)

// Opener implements native.Opener for PDF
type Opener struct {
	renderer Renderer
}

func New(renderer Renderer) *Opener {
	return &Opener{renderer: renderer}
}

func (o *Opener) Open(_ context.Context, data []byte) (native.Document, error) {
	reader, err := openReader(data)
	if err != nil {
		return nil, native.LoadFailure(err)
	}

	n := reader.NumPage()
	if n == 0 {
		return nil, native.LoadFailure(fmt.Errorf("pdf has no pages"))
	}

	dir, err := os.MkdirTemp("", "pagelift-pdf-*")
	if err != nil {
		return nil, native.LoadFailure(err)
	}
	path := filepath.Join(dir, "input.pdf")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		os.RemoveAll(dir)
		return nil, native.LoadFailure(err)
	}

	return &document{
		reader:   reader,
		pages:    n,
		dir:      dir,
		path:     path,
		renderer: o.renderer,
	}, nil
}

func openReader(data []byte) (r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdf reader: %v", rec)
		}
	}()
	return pdf.NewReader(bytes.NewReader(data), int64(len(data)))
}

type document struct {
	// mu serializes access to the reader, which is not safe for
	// concurrent use
	mu       sync.Mutex
	reader   *pdf.Reader
	pages    int
	dir      string
	path     string
	renderer Renderer
}

func (d *document) Format() native.Format { return native.FormatPDF }

func (d *document) NumPages() int { return d.pages }

func (d *document) Page(_ context.Context, index int) (native.Page, error) {
	if index < 0 || index >= d.pages {
		return nil, native.DecodeFailure(fmt.Errorf("page %d out of range", index)).WithDetail("page", index)
	}

	p, err := d.readPage(index)
	if err != nil {
		return nil, native.DecodeFailure(err).WithDetail("page", index)
	}

	return &page{
		doc:      d,
		index:    index,
		pdfPage:  p,
		geometry: mediaBox(p.V),
	}, nil
}

func (d *document) readPage(index int) (p pdf.Page, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("read page: %v", rec)
		}
	}()

	p = d.reader.Page(index + 1)
	if p.V.IsNull() {
		return p, fmt.Errorf("page %d missing", index)
	}
	return p, nil
}

func (d *document) Close() error {
	return os.RemoveAll(d.dir)
}

type page struct {
	doc      *document
	index    int
	pdfPage  pdf.Page
	geometry pageGeometry

	renderOnce sync.Once
	raster     *rasterx.Raster
	renderErr  error
}

func (p *page) Index() int { return p.index }

func (p *page) Size() (float64, float64) {
	return p.geometry.width, p.geometry.height
}

// Render rasterizes the page once and caches the result
func (p *page) Render(ctx context.Context) (*rasterx.Raster, error) {
	p.renderOnce.Do(func() {
		if p.doc.renderer == nil {
			p.renderErr = native.DecodeFailure(fmt.Errorf("no renderer configured"))
			return
		}
		data, err := p.doc.renderer.RenderPage(ctx, p.doc.path, p.index+1)
		if err != nil {
			p.renderErr = native.DecodeFailure(err).WithDetail("page", p.index)
			return
		}
		raster, err := rasterx.Decode(data)
		if err != nil {
			p.renderErr = native.DecodeFailure(err).WithDetail("page", p.index)
			return
		}
		p.raster = raster
	})
	return p.raster, p.renderErr
}

// Images crops every placed image XObject out of the page raster. The
// embedded streams are not decoded; what is returned is what the page shows.
func (p *page) Images(ctx context.Context) ([]slide.ImageElement, error) {
	p.doc.mu.Lock()
	placements, err := imagePlacements(p.pdfPage)
	p.doc.mu.Unlock()
	if err != nil {
		return nil, native.DecodeFailure(err).WithDetail("page", p.index)
	}
	if len(placements) == 0 {
		return nil, nil
	}

	raster, err := p.Render(ctx)
	if err != nil {
		return nil, err
	}

	log := logx.WithContext(ctx).WithField("page", p.index)
	images := make([]slide.ImageElement, 0, len(placements))
	for _, pl := range placements {
		box := p.geometry.toBox(pl.minX, pl.minY, pl.maxX, pl.maxY)
		img, err := raster.Crop(box, slide.ImageSourceNative)
		if err != nil {
			log.WithError(err).WithField("xobject", pl.name).Debug("nativepdf: image placement skipped")
			continue
		}
		images = append(images, img)
	}
	return images, nil
}

// TextRuns returns word runs relative to the media box origin
func (p *page) TextRuns(_ context.Context) ([]slide.RawTextRun, bool, error) {
	texts, err := p.content()
	if err != nil {
		return nil, false, native.DecodeFailure(err).WithDetail("page", p.index)
	}

	grouped := glyphRuns(texts)
	if len(grouped) == 0 {
		return nil, false, nil
	}

	runs := make([]slide.RawTextRun, 0, len(grouped))
	for _, r := range grouped {
		runs = append(runs, slide.RawTextRun{
			Text:     r.text,
			X:        r.x - p.geometry.x0,
			Y:        r.y - p.geometry.y0,
			Width:    r.w,
			Height:   r.fontSize,
			FontSize: r.fontSize,
		})
	}
	return runs, true, nil
}

func (p *page) content() (texts []pdf.Text, err error) {
	p.doc.mu.Lock()
	defer p.doc.mu.Unlock()
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("page content: %v", rec)
		}
	}()
	return p.pdfPage.Content().Text, nil
}
