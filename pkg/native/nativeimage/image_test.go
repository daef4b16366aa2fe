package nativeimage_test

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/Abraxas-365/pagelift/pkg/errx"
	"github.com/Abraxas-365/pagelift/pkg/native"
	"github.com/Abraxas-365/pagelift/pkg/native/nativeimage"
	"github.com/Abraxas-365/pagelift/pkg/rasterx"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.NRGBA{R: 255, A: 255})
	}
	data, err := rasterx.EncodePNG(img)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return data
}

func TestImageIsOnePageWithoutTextLayer(t *testing.T) {
	ctx := context.Background()
	doc, err := nativeimage.New().Open(ctx, pngBytes(t, 64, 48))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer doc.Close()

	if doc.NumPages() != 1 || doc.Format() != native.FormatPNG {
		t.Fatalf("unexpected document %d %s", doc.NumPages(), doc.Format())
	}
	page, err := doc.Page(ctx, 0)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if w, h := page.Size(); w != 64 || h != 48 {
		t.Fatalf("unexpected size %vx%v", w, h)
	}
	if _, hasLayer, _ := page.TextRuns(ctx); hasLayer {
		t.Fatalf("images have no text layer")
	}
	raster, err := page.Render(ctx)
	if err != nil || raster.Width() != 64 {
		t.Fatalf("render: %v", err)
	}
	if _, err := doc.Page(ctx, 1); err == nil {
		t.Fatalf("only page 0 exists")
	}
}

func TestGarbageIsLoadFailure(t *testing.T) {
	_, err := nativeimage.New().Open(context.Background(), []byte("nope"))
	if !errx.HasCode(err, native.ErrDocumentLoadFailure) {
		t.Fatalf("expected DOCUMENT_LOAD_FAILURE, got %v", err)
	}
}
