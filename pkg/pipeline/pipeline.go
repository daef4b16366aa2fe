// Package pipeline processes a whole document: it opens it, runs every page
// through the extraction controller and assembles the result.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/Abraxas-365/pagelift/pkg/asyncx"
	"github.com/Abraxas-365/pagelift/pkg/errx"
	"github.com/Abraxas-365/pagelift/pkg/kernel"
	"github.com/Abraxas-365/pagelift/pkg/logx"
	"github.com/Abraxas-365/pagelift/pkg/native"
	"github.com/Abraxas-365/pagelift/pkg/ocr"
	"github.com/Abraxas-365/pagelift/pkg/slide"
)

// Loader is satisfied by *native.Loader
type Loader interface {
	Load(ctx context.Context, filename string, data []byte) (native.Document, error)
}

// PageExtractor is satisfied by *extraction.Controller
type PageExtractor interface {
	Extract(ctx context.Context, breaker *ocr.Breaker, page native.Page, report func(slide.Stage)) (slide.Page, []slide.Warning)
}

type Options struct {
	// Parallelism > 1 processes that many pages at once
	Parallelism int
	// MaxPages truncates longer documents; 0 means no limit
	MaxPages int
}

// Request is one document to process
type Request struct {
	DocumentID kernel.DocumentID
	Filename   string
	Data       []byte
	Language   string
	OutputKind slide.OutputKind
}

type Pipeline struct {
	loader    Loader
	extractor PageExtractor
	opts      Options
	observers []Observer
	now       func() time.Time
}

func New(loader Loader, extractor PageExtractor, opts Options, observers ...Observer) *Pipeline {
	return &Pipeline{
		loader:    loader,
		extractor: extractor,
		opts:      opts,
		observers: observers,
		now:       time.Now,
	}
}

// Process extracts every page of req. Only a document that cannot be opened
// or a cancelled context fail the call; page failures become warnings.
func (p *Pipeline) Process(ctx context.Context, req Request) (*slide.Document, error) {
	if req.DocumentID.IsEmpty() {
		req.DocumentID = kernel.NewDocumentID()
	}
	outputKind, ok := slide.ParseOutputKind(string(req.OutputKind))
	if !ok {
		return nil, errorRegistry.New(ErrInvalidRequest).WithDetail("output_kind", req.OutputKind)
	}

	docID := req.DocumentID.String()
	ctx = kernel.WithDocumentID(ctx, req.DocumentID)
	log := logx.WithContext(ctx).WithField("filename", req.Filename)

	// One breaker per document load: rate limits never carry over.
	breaker := ocr.NewBreaker()
	progress := newTracker(docID, p.observers)

	start := p.now()
	progress.emit(slide.Progress{Stage: slide.StageLoading})

	doc, err := p.loader.Load(ctx, req.Filename, req.Data)
	if err != nil {
		log.WithError(err).Error("pipeline: document could not be loaded")
		if !native.IsDocumentLoadFailure(err) {
			err = native.LoadFailure(err)
		}
		return nil, err
	}
	defer doc.Close()

	var warnings []slide.Warning
	total := doc.NumPages()
	if p.opts.MaxPages > 0 && total > p.opts.MaxPages {
		warnings = append(warnings, slide.Warning{
			Page:    -1,
			Code:    slide.WarningPageLimitTruncated,
			Message: fmt.Sprintf("Only the first %d of %d pages were processed", p.opts.MaxPages, total),
		})
		total = p.opts.MaxPages
	}

	var pages []slide.Page
	var pageWarnings [][]slide.Warning
	if p.opts.Parallelism > 1 && total > 1 {
		pages, pageWarnings, err = p.processParallel(ctx, breaker, doc, total, progress)
	} else {
		pages, pageWarnings, err = p.processSequential(ctx, breaker, doc, total, progress)
	}
	if err != nil {
		log.WithError(err).Warn("pipeline: processing stopped")
		return nil, err
	}

	for _, ws := range pageWarnings {
		warnings = append(warnings, ws...)
	}
	for _, trip := range breaker.Trips() {
		warnings = append(warnings, slide.Warning{
			Page:    trip.Page,
			Code:    slide.WarningOCRRateLimited,
			Message: fmt.Sprintf("OCR backend %q is rate limited and was skipped for the rest of the document", trip.Backend),
		})
	}
	sort.SliceStable(warnings, func(i, j int) bool { return warnings[i].Page < warnings[j].Page })
	if warnings == nil {
		warnings = []slide.Warning{}
	}

	progress.emit(slide.Progress{Stage: slide.StageComplete, Current: total, Total: total})

	log.WithFields(logx.Fields{
		"pages":    total,
		"warnings": len(warnings),
		"elapsed":  p.now().Sub(start).String(),
	}).Info("pipeline: document processed")

	return &slide.Document{
		ID:         docID,
		Filename:   req.Filename,
		Language:   req.Language,
		OutputKind: outputKind,
		Pages:      pages,
		Warnings:   warnings,
		CreatedAt:  p.now().UTC(),
	}, nil
}

func (p *Pipeline) processSequential(ctx context.Context, breaker *ocr.Breaker, doc native.Document, total int, progress *tracker) ([]slide.Page, [][]slide.Warning, error) {
	pages := make([]slide.Page, total)
	warnings := make([][]slide.Warning, total)

	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, errorRegistry.NewWithCause(ErrCancelled, err).WithDetail("page", i)
		}

		current := i + 1
		report := func(stage slide.Stage) {
			progress.emit(slide.Progress{Stage: stage, Current: current, Total: total})
		}
		pages[i], warnings[i] = p.processPage(ctx, breaker, doc, i, report)
	}
	return pages, warnings, nil
}

// processParallel writes results by index. Current counts completed pages.
func (p *Pipeline) processParallel(ctx context.Context, breaker *ocr.Breaker, doc native.Document, total int, progress *tracker) ([]slide.Page, [][]slide.Warning, error) {
	type pageOut struct {
		page     slide.Page
		warnings []slide.Warning
	}

	indexes := make([]int, total)
	for i := range indexes {
		indexes[i] = i
	}

	var completed atomic.Int64
	outs, err := asyncx.Pool(ctx, p.opts.Parallelism, indexes, func(ctx context.Context, i int) (pageOut, error) {
		if err := ctx.Err(); err != nil {
			return pageOut{}, err
		}
		report := func(stage slide.Stage) {
			progress.emit(slide.Progress{Stage: stage, Current: int(completed.Load()), Total: total})
		}
		page, ws := p.processPage(ctx, breaker, doc, i, report)
		done := completed.Add(1)
		progress.emit(slide.Progress{Stage: progress.snapshot().Stage, Current: int(done), Total: total})
		return pageOut{page: page, warnings: ws}, nil
	})
	if err != nil {
		return nil, nil, errorRegistry.NewWithCause(ErrCancelled, err)
	}

	pages := make([]slide.Page, total)
	warnings := make([][]slide.Warning, total)
	for i, out := range outs {
		pages[i], warnings[i] = out.page, out.warnings
	}
	return pages, warnings, nil
}

// processPage contains every failure of one page, panics included
func (p *Pipeline) processPage(ctx context.Context, breaker *ocr.Breaker, doc native.Document, index int, report func(slide.Stage)) (page slide.Page, warnings []slide.Warning) {
	log := logx.WithContext(ctx).WithField("page", index)

	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", fmt.Sprint(r)).Error("pipeline: page panicked")
			page, warnings = failedPage(index, fmt.Errorf("panic: %v", r))
		}
	}()

	np, err := doc.Page(ctx, index)
	if err != nil {
		log.WithError(err).Warn("pipeline: page could not be opened")
		return failedPage(index, err)
	}

	return p.extractor.Extract(ctx, breaker, np, report)
}

func failedPage(index int, err error) (slide.Page, []slide.Warning) {
	code := errx.CodeOf(err)
	if code == "" {
		code = "UNKNOWN"
	}

	page := slide.Page{
		Index: index,
		PageResult: slide.PageResult{
			TextElements:  []slide.TextElement{},
			ImageElements: []slide.ImageElement{},
		},
	}
	warning := slide.Warning{
		Page:    index,
		Code:    slide.WarningPageFailed,
		Message: fmt.Sprintf("Page %d could not be processed (%s)", index+1, code),
	}
	return page, []slide.Warning{warning}
}
