package pipeline_test

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"

	"github.com/Abraxas-365/pagelift/pkg/errx"
	"github.com/Abraxas-365/pagelift/pkg/extraction"
	"github.com/Abraxas-365/pagelift/pkg/kernel"
	"github.com/Abraxas-365/pagelift/pkg/native"
	"github.com/Abraxas-365/pagelift/pkg/ocr"
	"github.com/Abraxas-365/pagelift/pkg/pipeline"
	"github.com/Abraxas-365/pagelift/pkg/rasterx"
	"github.com/Abraxas-365/pagelift/pkg/slide"
)

// --- fakes ---

type fakePage struct {
	index  int
	raster *rasterx.Raster
	runs   []slide.RawTextRun
}

func (p *fakePage) Index() int               { return p.index }
func (p *fakePage) Size() (float64, float64) { return 1000, 1000 }
func (p *fakePage) Render(context.Context) (*rasterx.Raster, error) {
	return p.raster, nil
}
func (p *fakePage) Images(context.Context) ([]slide.ImageElement, error) { return nil, nil }
func (p *fakePage) TextRuns(context.Context) ([]slide.RawTextRun, bool, error) {
	return p.runs, len(p.runs) > 0, nil
}

type fakeDocument struct {
	pages   int
	raster  *rasterx.Raster
	badPage int
	closed  bool

	// text layers by page index
	layers map[int][]slide.RawTextRun
}

func (d *fakeDocument) Format() native.Format { return native.FormatPDF }
func (d *fakeDocument) NumPages() int         { return d.pages }
func (d *fakeDocument) Page(_ context.Context, i int) (native.Page, error) {
	if i == d.badPage {
		return nil, native.DecodeFailure(errors.New("broken page tree"))
	}
	return &fakePage{index: i, raster: d.raster, runs: d.layers[i]}, nil
}
func (d *fakeDocument) Close() error {
	d.closed = true
	return nil
}

type fakeLoader struct {
	doc *fakeDocument
	err error
}

func (l *fakeLoader) Load(context.Context, string, []byte) (native.Document, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.doc, nil
}

type scriptedBackend struct {
	name string
	fn   func(call int, req ocr.Request) ocr.Outcome

	mu    sync.Mutex
	calls int
}

func (b *scriptedBackend) Name() string { return b.name }

func (b *scriptedBackend) Recognize(_ context.Context, req ocr.Request) ocr.Outcome {
	b.mu.Lock()
	b.calls++
	call := b.calls
	b.mu.Unlock()
	return b.fn(call, req)
}

func (b *scriptedBackend) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func textOutcome(text string) ocr.Outcome {
	return ocr.Success(&slide.OcrResult{TextElements: []slide.TextElement{{ID: "id", Text: text}}})
}

type recorder struct {
	mu     sync.Mutex
	events []slide.Progress
}

func (r *recorder) OnProgress(_ string, p slide.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, p)
}

func newDocument(t *testing.T, pages int) *fakeDocument {
	t.Helper()
	r, err := rasterx.FromImage(image.NewGray(image.Rect(0, 0, 32, 18)))
	if err != nil {
		t.Fatalf("raster: %v", err)
	}
	return &fakeDocument{pages: pages, raster: r, badPage: -1}
}

func newPipeline(doc *fakeDocument, opts pipeline.Options, backends []ocr.Backend, observers ...pipeline.Observer) *pipeline.Pipeline {
	controller := extraction.NewController(ocr.New(backends))
	return pipeline.New(&fakeLoader{doc: doc}, controller, opts, observers...)
}

func countCode(ws []slide.Warning, code string) int {
	n := 0
	for _, w := range ws {
		if w.Code == code {
			n++
		}
	}
	return n
}

// --- tests ---

func TestRateLimitedBackendIsSkippedForTheRestOfTheDocument(t *testing.T) {
	doc := newDocument(t, 5)
	local := &scriptedBackend{name: "local", fn: func(int, ocr.Request) ocr.Outcome { return ocr.Skip(nil) }}
	managed := &scriptedBackend{name: "vertex", fn: func(int, ocr.Request) ocr.Outcome {
		return ocr.RateLimited(errors.New("429"))
	}}
	public := &scriptedBackend{name: "gemini", fn: func(_ int, req ocr.Request) ocr.Outcome {
		return textOutcome("slide")
	}}

	got, err := newPipeline(doc, pipeline.Options{}, []ocr.Backend{local, managed, public}).
		Process(context.Background(), pipeline.Request{Filename: "deck.pdf", Language: "en"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if managed.Calls() != 1 {
		t.Fatalf("managed backend should be called once, got %d", managed.Calls())
	}
	if local.Calls() != 5 || public.Calls() != 5 {
		t.Fatalf("unexpected calls local=%d public=%d", local.Calls(), public.Calls())
	}
	if len(got.Pages) != 5 {
		t.Fatalf("expected 5 pages, got %d", len(got.Pages))
	}
	for i, p := range got.Pages {
		if p.Index != i || len(p.TextElements) != 1 {
			t.Fatalf("page %d: unexpected result %+v", i, p)
		}
	}
	if n := countCode(got.Warnings, slide.WarningOCRRateLimited); n != 1 {
		t.Fatalf("expected one rate limit warning, got %d: %+v", n, got.Warnings)
	}
	if !doc.closed {
		t.Fatalf("document should be closed")
	}
}

func TestLastBackendRateLimitedFallsBackToTextLayer(t *testing.T) {
	doc := newDocument(t, 5)
	doc.layers = map[int][]slide.RawTextRun{
		2: {{Text: "Agenda", X: 100, Y: 800, Width: 200, Height: 40, FontSize: 40}},
		4: {{Text: "Thanks", X: 100, Y: 800, Width: 200, Height: 40, FontSize: 40}},
	}
	local := &scriptedBackend{name: "local", fn: func(int, ocr.Request) ocr.Outcome { return ocr.Skip(nil) }}
	public := &scriptedBackend{name: "gemini", fn: func(call int, _ ocr.Request) ocr.Outcome {
		if call == 2 {
			return ocr.RateLimited(errors.New("429"))
		}
		return textOutcome("ocr")
	}}

	got, err := newPipeline(doc, pipeline.Options{}, []ocr.Backend{local, public}).
		Process(context.Background(), pipeline.Request{Filename: "deck.pdf"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if public.Calls() != 2 {
		t.Fatalf("public backend must not be called after it trips, got %d calls", public.Calls())
	}
	if len(got.Pages[0].TextElements) != 1 || got.Pages[0].TextElements[0].Text != "ocr" {
		t.Fatalf("page 1 should keep its OCR result: %+v", got.Pages[0].TextElements)
	}
	for _, i := range []int{1, 3} {
		if len(got.Pages[i].TextElements) != 0 {
			t.Fatalf("page %d has no text layer and should be empty", i+1)
		}
	}
	for i, want := range map[int]string{2: "Agenda", 4: "Thanks"} {
		els := got.Pages[i].TextElements
		if len(els) != 1 || els[0].Text != want {
			t.Fatalf("page %d should fall back to its text layer, got %+v", i+1, els)
		}
	}

	if n := countCode(got.Warnings, slide.WarningOCRRateLimited); n != 1 {
		t.Fatalf("expected one rate limit warning, got %d", n)
	}
	for _, w := range got.Warnings {
		if w.Code == slide.WarningOCRRateLimited && w.Page != 1 {
			t.Fatalf("rate limit warning should point at page index 1, got %d", w.Page)
		}
	}
	if n := countCode(got.Warnings, slide.WarningOCRNoTextLayer); n != 2 {
		t.Fatalf("expected two no-text-layer warnings, got %d: %+v", n, got.Warnings)
	}
}

func TestBreakerDoesNotCarryOverBetweenDocuments(t *testing.T) {
	managed := &scriptedBackend{name: "vertex", fn: func(call int, _ ocr.Request) ocr.Outcome {
		if call == 1 {
			return ocr.RateLimited(errors.New("429"))
		}
		return textOutcome("managed")
	}}
	public := &scriptedBackend{name: "gemini", fn: func(int, ocr.Request) ocr.Outcome { return textOutcome("public") }}
	p := newPipeline(newDocument(t, 2), pipeline.Options{}, []ocr.Backend{managed, public})

	if _, err := p.Process(context.Background(), pipeline.Request{Filename: "a.pdf"}); err != nil {
		t.Fatalf("first document: %v", err)
	}
	if managed.Calls() != 1 {
		t.Fatalf("managed backend tripped on the first document, got %d calls", managed.Calls())
	}

	second, err := p.Process(context.Background(), pipeline.Request{Filename: "b.pdf"})
	if err != nil {
		t.Fatalf("second document: %v", err)
	}
	if managed.Calls() != 3 {
		t.Fatalf("a new document must retry the managed backend, got %d calls", managed.Calls())
	}
	if second.Pages[0].TextElements[0].Text != "managed" {
		t.Fatalf("second document should be served by the managed backend")
	}
	if countCode(second.Warnings, slide.WarningOCRRateLimited) != 0 {
		t.Fatalf("rate limit warnings belong to the first document only")
	}
}

func TestLoadFailureIsFatal(t *testing.T) {
	loader := &fakeLoader{err: errors.New("not a pdf")}
	p := pipeline.New(loader, extraction.NewController(ocr.New(nil)), pipeline.Options{})

	_, err := p.Process(context.Background(), pipeline.Request{Filename: "x.pdf"})
	if !errx.HasCode(err, native.ErrDocumentLoadFailure) {
		t.Fatalf("expected DOCUMENT_LOAD_FAILURE, got %v", err)
	}
}

func TestPageFailureIsContained(t *testing.T) {
	doc := newDocument(t, 3)
	doc.badPage = 1
	public := &scriptedBackend{name: "gemini", fn: func(int, ocr.Request) ocr.Outcome { return textOutcome("ok") }}

	got, err := newPipeline(doc, pipeline.Options{}, []ocr.Backend{public}).
		Process(context.Background(), pipeline.Request{Filename: "deck.pdf"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Pages) != 3 || !got.Pages[1].IsEmpty() || got.Pages[2].IsEmpty() {
		t.Fatalf("bad page should be empty and the rest processed: %+v", got.Pages)
	}
	if len(got.Warnings) != 1 || got.Warnings[0].Code != slide.WarningPageFailed || got.Warnings[0].Page != 1 {
		t.Fatalf("unexpected warnings %+v", got.Warnings)
	}
}

func TestCancellationStopsScheduling(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	public := &scriptedBackend{name: "gemini", fn: func(call int, _ ocr.Request) ocr.Outcome {
		if call == 2 {
			cancel()
		}
		return textOutcome("ok")
	}}

	_, err := newPipeline(newDocument(t, 5), pipeline.Options{}, []ocr.Backend{public}).
		Process(ctx, pipeline.Request{Filename: "deck.pdf"})
	if !errx.HasCode(err, pipeline.ErrCancelled) {
		t.Fatalf("expected PIPELINE_CANCELLED, got %v", err)
	}
	if public.Calls() != 2 {
		t.Fatalf("no page should start after cancellation, got %d calls", public.Calls())
	}
}

func TestProgressIsOrderedAndComplete(t *testing.T) {
	rec := &recorder{}
	public := &scriptedBackend{name: "gemini", fn: func(int, ocr.Request) ocr.Outcome { return textOutcome("ok") }}

	_, err := newPipeline(newDocument(t, 2), pipeline.Options{}, []ocr.Backend{public}, rec).
		Process(context.Background(), pipeline.Request{Filename: "deck.pdf"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first, last := rec.events[0], rec.events[len(rec.events)-1]
	if first.Stage != slide.StageLoading {
		t.Fatalf("first event should be loading, got %s", first.Stage)
	}
	if last.Stage != slide.StageComplete || last.Current != 2 || last.Total != 2 {
		t.Fatalf("unexpected last event %+v", last)
	}
	// loading + 3 stages per page + complete
	if len(rec.events) != 1+3*2+1 {
		t.Fatalf("unexpected event count %d", len(rec.events))
	}
	for i := 1; i < len(rec.events); i++ {
		if rec.events[i].Current < rec.events[i-1].Current {
			t.Fatalf("page counter went backwards at %d: %+v", i, rec.events)
		}
	}
}

func TestParallelKeepsPageOrder(t *testing.T) {
	public := &scriptedBackend{name: "gemini", fn: func(_ int, req ocr.Request) ocr.Outcome {
		return textOutcome(string(rune('A' + req.Page)))
	}}
	rec := &recorder{}

	got, err := newPipeline(newDocument(t, 8), pipeline.Options{Parallelism: 4}, []ocr.Backend{public}, rec).
		Process(context.Background(), pipeline.Request{Filename: "deck.pdf"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, p := range got.Pages {
		if p.Index != i || p.TextElements[0].Text != string(rune('A'+i)) {
			t.Fatalf("page %d out of order: %+v", i, p)
		}
	}
	if last := rec.events[len(rec.events)-1]; last.Stage != slide.StageComplete || last.Current != 8 {
		t.Fatalf("unexpected final progress %+v", last)
	}
}

func TestMaxPagesTruncates(t *testing.T) {
	public := &scriptedBackend{name: "gemini", fn: func(int, ocr.Request) ocr.Outcome { return textOutcome("ok") }}

	got, err := newPipeline(newDocument(t, 5), pipeline.Options{MaxPages: 2}, []ocr.Backend{public}).
		Process(context.Background(), pipeline.Request{Filename: "deck.pdf"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Pages) != 2 || public.Calls() != 2 {
		t.Fatalf("expected 2 pages, got %d", len(got.Pages))
	}
	if len(got.Warnings) != 1 || got.Warnings[0].Code != slide.WarningPageLimitTruncated || got.Warnings[0].Page != -1 {
		t.Fatalf("unexpected warnings %+v", got.Warnings)
	}
}

func TestDocumentCarriesRequestMetadata(t *testing.T) {
	public := &scriptedBackend{name: "gemini", fn: func(int, ocr.Request) ocr.Outcome { return textOutcome("ok") }}
	id := kernel.NewDocumentID()

	got, err := newPipeline(newDocument(t, 1), pipeline.Options{}, []ocr.Backend{public}).
		Process(context.Background(), pipeline.Request{
			DocumentID: id,
			Filename:   "plan.docx",
			Language:   "es",
			OutputKind: slide.OutputDOCX,
		})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != id.String() || got.Filename != "plan.docx" || got.Language != "es" || got.OutputKind != slide.OutputDOCX {
		t.Fatalf("unexpected metadata %+v", got)
	}

	_, err = newPipeline(newDocument(t, 1), pipeline.Options{}, nil).
		Process(context.Background(), pipeline.Request{OutputKind: "xlsx"})
	if !errx.HasCode(err, pipeline.ErrInvalidRequest) {
		t.Fatalf("expected INVALID_REQUEST, got %v", err)
	}
}

func TestAllBackendsDownWarnsOnFirstPage(t *testing.T) {
	down := &scriptedBackend{name: "local", fn: func(int, ocr.Request) ocr.Outcome { return ocr.Skip(nil) }}

	got, err := newPipeline(newDocument(t, 2), pipeline.Options{}, []ocr.Backend{down}).
		Process(context.Background(), pipeline.Request{Filename: "scan.pdf"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if countCode(got.Warnings, slide.WarningFirstPageEmpty) != 1 {
		t.Fatalf("expected FIRST_PAGE_EMPTY once, got %+v", got.Warnings)
	}
	if countCode(got.Warnings, slide.WarningOCRNoTextLayer) != 2 {
		t.Fatalf("expected a no-text-layer warning per page, got %+v", got.Warnings)
	}
}
