// Package extraction runs the per-page stages: render, native images, OCR
// and the text-layer fallback.
package extraction

import (
	"context"
	"fmt"

	"github.com/Abraxas-365/pagelift/pkg/geometry"
	"github.com/Abraxas-365/pagelift/pkg/logx"
	"github.com/Abraxas-365/pagelift/pkg/native"
	"github.com/Abraxas-365/pagelift/pkg/ocr"
	"github.com/Abraxas-365/pagelift/pkg/rasterx"
	"github.com/Abraxas-365/pagelift/pkg/slide"
	"github.com/Abraxas-365/pagelift/pkg/textmerge"
)

// Recognizer is satisfied by *ocr.Orchestrator
type Recognizer interface {
	Recognize(ctx context.Context, breaker *ocr.Breaker, req ocr.Request) (*slide.OcrResult, error)
}

// Controller turns one native page into a slide.Page
type Controller struct {
	ocr Recognizer
}

func NewController(recognizer Recognizer) *Controller {
	return &Controller{ocr: recognizer}
}

// Extract runs the page stages in order and never fails: every error below
// the page is absorbed into an empty contribution, a log entry and possibly
// a warning. report is called when a stage starts and may be nil.
func (c *Controller) Extract(ctx context.Context, breaker *ocr.Breaker, page native.Page, report func(slide.Stage)) (slide.Page, []slide.Warning) {
	if report == nil {
		report = func(slide.Stage) {}
	}

	index := page.Index()
	log := logx.WithContext(ctx).WithField("page", index)
	var warnings []slide.Warning

	result := slide.Page{
		Index: index,
		PageResult: slide.PageResult{
			TextElements:  []slide.TextElement{},
			ImageElements: []slide.ImageElement{},
		},
	}

	report(slide.StageRenderingPages)
	raster, err := page.Render(ctx)
	if err != nil {
		log.WithError(err).Warn("extraction: page render failed, using text layer only")
		raster = nil
	} else {
		result.Width, result.Height = raster.Width(), raster.Height()
	}

	report(slide.StageExtractingImages)
	if raster != nil {
		images, err := page.Images(ctx)
		if err != nil {
			log.WithError(err).Warn("extraction: native images unavailable")
		} else {
			result.ImageElements = append(result.ImageElements, images...)
		}
	}

	report(slide.StageOCRProcessing)
	ocrOK := false
	if raster != nil {
		ocrResult, err := c.ocr.Recognize(ctx, breaker, ocr.Request{
			Image:    raster.Encoded,
			MIMEType: raster.MIMEType,
			Page:     index,
		})
		if err != nil {
			log.WithError(err).Warn("extraction: ocr failed, falling back to text layer")
		} else {
			ocrOK = true
			result.TextElements = append(result.TextElements, ocrResult.TextElements...)
			result.ImageElements = append(result.ImageElements, c.cropRegions(ctx, raster, ocrResult, result.ImageElements)...)
			log.WithFields(logx.Fields{
				"engine":        ocrResult.Engine,
				"text_elements": len(ocrResult.TextElements),
				"image_regions": len(ocrResult.ImageRegions),
			}).Debug("extraction: ocr done")
		}
	}

	if !ocrOK {
		text, warning := c.textFallback(ctx, page)
		result.TextElements = append(result.TextElements, text...)
		if warning != nil {
			warnings = append(warnings, *warning)
		}
	}

	if index == 0 && result.IsEmpty() {
		warnings = append(warnings, slide.Warning{
			Page:    index,
			Code:    slide.WarningFirstPageEmpty,
			Message: "No text or images could be extracted from the first page",
		})
	}

	return result, warnings
}

// cropRegions crops OCR image regions out of the raster and drops those
// that duplicate a native image.
func (c *Controller) cropRegions(ctx context.Context, raster *rasterx.Raster, res *slide.OcrResult, nativeImages []slide.ImageElement) []slide.ImageElement {
	if len(res.ImageRegions) == 0 {
		return nil
	}

	log := logx.WithContext(ctx)
	cropped := make([]slide.ImageElement, 0, len(res.ImageRegions))
	for _, box := range res.ImageRegions {
		img, err := raster.Crop(box, slide.ImageSourceOCR)
		if err != nil {
			log.WithError(err).Debug("extraction: image region skipped")
			continue
		}
		cropped = append(cropped, img)
	}
	return geometry.DeduplicateImages(nativeImages, cropped)
}

// textFallback merges the native text layer. Without one it returns a
// warning instead.
func (c *Controller) textFallback(ctx context.Context, page native.Page) ([]slide.TextElement, *slide.Warning) {
	index := page.Index()
	noLayer := &slide.Warning{
		Page:    index,
		Code:    slide.WarningOCRNoTextLayer,
		Message: fmt.Sprintf("Text recognition failed on page %d and the page has no text layer", index+1),
	}

	runs, hasLayer, err := page.TextRuns(ctx)
	if err != nil {
		logx.WithContext(ctx).WithError(err).WithField("page", index).Warn("extraction: text layer unreadable")
		return nil, noLayer
	}
	if !hasLayer {
		return nil, noLayer
	}

	width, height := page.Size()
	return textmerge.Merge(runs, width, height), nil
}
