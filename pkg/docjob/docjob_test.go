package docjob_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/Abraxas-365/pagelift/pkg/docjob"
	"github.com/Abraxas-365/pagelift/pkg/docstore"
	"github.com/Abraxas-365/pagelift/pkg/docstore/docstorememory"
	"github.com/Abraxas-365/pagelift/pkg/errx"
	"github.com/Abraxas-365/pagelift/pkg/fsx/fsxlocal"
	"github.com/Abraxas-365/pagelift/pkg/jobx"
	"github.com/Abraxas-365/pagelift/pkg/kernel"
	"github.com/Abraxas-365/pagelift/pkg/native"
	"github.com/Abraxas-365/pagelift/pkg/pipeline"
	"github.com/Abraxas-365/pagelift/pkg/pipeline/pipelineredis"
	"github.com/Abraxas-365/pagelift/pkg/slide"
)

var pdfBytes = []byte("%PDF-1.7\n%fake\n")

type fakeEnqueuer struct {
	mu   sync.Mutex
	jobs []jobx.Job
	err  error
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, job jobx.Job) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.jobs = append(f.jobs, job)
	return "job-1", nil
}

type fakeProcessor struct {
	doc  *slide.Document
	err  error
	seen pipeline.Request
}

func (f *fakeProcessor) Process(_ context.Context, req pipeline.Request) (*slide.Document, error) {
	f.seen = req
	if f.err != nil {
		return nil, f.err
	}
	doc := *f.doc
	doc.ID = req.DocumentID.String()
	return &doc, nil
}

type fakeProgress struct {
	snap *pipelineredis.Snapshot
}

func (f *fakeProgress) Latest(context.Context, string) (*pipelineredis.Snapshot, error) {
	return f.snap, nil
}

type harness struct {
	repo     *docstorememory.MemoryRepository
	files    *fsxlocal.LocalFileSystem
	jobs     *fakeEnqueuer
	progress *fakeProgress
	svc      *docjob.Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	files, err := fsxlocal.NewLocalFileSystem(t.TempDir())
	if err != nil {
		t.Fatalf("fs: %v", err)
	}
	h := &harness{
		repo:     docstorememory.NewMemoryRepository(),
		files:    files,
		jobs:     &fakeEnqueuer{},
		progress: &fakeProgress{},
	}
	h.svc = docjob.NewService(h.repo, h.files, h.jobs, h.progress, "documents")
	return h
}

// jobFor turns the last enqueued job into the JobInfo a worker receives
func (h *harness) jobFor(t *testing.T) *jobx.JobInfo {
	t.Helper()
	if len(h.jobs.jobs) == 0 {
		t.Fatalf("nothing was enqueued")
	}
	job := h.jobs.jobs[len(h.jobs.jobs)-1]
	return &jobx.JobInfo{ID: "job-1", Type: job.Type, Queue: job.Queue, Payload: job.Payload, Attempts: 1}
}

func twoPageDocument() *slide.Document {
	return &slide.Document{
		Pages: []slide.Page{{Index: 0}, {Index: 1}},
		Warnings: []slide.Warning{
			{Page: 1, Code: slide.WarningOCRRateLimited, Message: "rate limited"},
		},
	}
}

func TestSubmitStoresAndEnqueues(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	doc, err := h.svc.Submit(ctx, docjob.SubmitRequest{
		Filename:   "../decks/Q3 plan.pdf",
		Data:       pdfBytes,
		Language:   "en",
		OutputKind: "docx",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if doc.Status != docstore.StatusQueued || doc.JobID != "job-1" || doc.OutputKind != slide.OutputDOCX {
		t.Fatalf("unexpected record %+v", doc)
	}
	if doc.Filename != "Q3 plan.pdf" || doc.ContentType != "application/pdf" {
		t.Fatalf("filename and content type should be cleaned up: %+v", doc)
	}
	stored, err := h.files.ReadFile(ctx, doc.UploadPath)
	if err != nil || string(stored) != string(pdfBytes) {
		t.Fatalf("upload not stored at %s: %v", doc.UploadPath, err)
	}

	job := h.jobs.jobs[0]
	if job.Type != docjob.JobType || job.Queue != "documents" {
		t.Fatalf("unexpected job %+v", job)
	}
	var payload map[string]string
	_ = json.Unmarshal(job.Payload, &payload)
	if payload["document_id"] != doc.ID.String() {
		t.Fatalf("payload should carry the document id: %s", job.Payload)
	}
}

func TestSubmitValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.svc.Submit(ctx, docjob.SubmitRequest{Filename: "a.pdf"}); !errx.HasCode(err, docjob.ErrMissingFile) {
		t.Fatalf("expected MISSING_FILE, got %v", err)
	}
	_, err := h.svc.Submit(ctx, docjob.SubmitRequest{Filename: "a.pdf", Data: pdfBytes, OutputKind: "xlsx"})
	if !errx.HasCode(err, docjob.ErrInvalidRequest) {
		t.Fatalf("expected INVALID_REQUEST, got %v", err)
	}
}

func TestSubmitEnqueueFailureMarksRecordFailed(t *testing.T) {
	h := newHarness(t)
	h.jobs.err = errors.New("redis down")

	_, err := h.svc.Submit(context.Background(), docjob.SubmitRequest{Filename: "a.pdf", Data: pdfBytes})
	if !errx.HasCode(err, docjob.ErrEnqueue) {
		t.Fatalf("expected ENQUEUE, got %v", err)
	}

	page, _ := h.repo.List(context.Background(), kernel.PaginationOptions{})
	if len(page.Items) != 1 || page.Items[0].Status != docstore.StatusFailed {
		t.Fatalf("record should be failed: %+v", page.Items)
	}
}

func TestWorkerCompletesDocument(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	doc, err := h.svc.Submit(ctx, docjob.SubmitRequest{Filename: "deck.pdf", Data: pdfBytes, Language: "fr"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	proc := &fakeProcessor{doc: twoPageDocument()}
	worker := docjob.NewWorker(h.repo, h.files, proc)

	raw, err := worker.Handle(ctx, h.jobFor(t))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if proc.seen.DocumentID != doc.ID || proc.seen.Language != "fr" || string(proc.seen.Data) != string(pdfBytes) {
		t.Fatalf("pipeline got the wrong request %+v", proc.seen)
	}

	var result map[string]any
	_ = json.Unmarshal(raw, &result)
	if result["status"] != "complete" || result["pages"].(float64) != 2 {
		t.Fatalf("unexpected job result %s", raw)
	}

	status, err := h.svc.Get(ctx, doc.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if status.Status != docstore.StatusComplete || status.PageCount != 2 || status.Warnings[0] != slide.WarningOCRRateLimited {
		t.Fatalf("unexpected record %+v", status.Document)
	}

	body, err := h.svc.Result(ctx, doc.ID)
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	var out slide.Document
	if err := json.Unmarshal(body, &out); err != nil || len(out.Pages) != 2 || out.ID != doc.ID.String() {
		t.Fatalf("stored result is not the document: %v %s", err, body)
	}
}

func TestWorkerRejectsUnloadableDocumentsWithoutRetry(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	doc, _ := h.svc.Submit(ctx, docjob.SubmitRequest{Filename: "deck.pdf", Data: pdfBytes})

	proc := &fakeProcessor{err: native.LoadFailure(errors.New("xref table broken"))}
	worker := docjob.NewWorker(h.repo, h.files, proc)

	raw, err := worker.Handle(ctx, h.jobFor(t))
	if err != nil {
		t.Fatalf("load failures should not be retried, got %v", err)
	}
	if len(raw) == 0 {
		t.Fatalf("expected a job result")
	}

	record, _ := h.repo.Get(ctx, doc.ID)
	if record.Status != docstore.StatusFailed || record.Error != native.ErrDocumentLoadFailure.Code {
		t.Fatalf("unexpected record %+v", record)
	}
	if _, err := h.svc.Result(ctx, doc.ID); !errx.HasCode(err, docjob.ErrResultNotReady) {
		t.Fatalf("expected RESULT_NOT_READY, got %v", err)
	}
}

func TestWorkerReturnsTransientErrorsForRetry(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	doc, _ := h.svc.Submit(ctx, docjob.SubmitRequest{Filename: "deck.pdf", Data: pdfBytes})

	proc := &fakeProcessor{err: errors.New("context deadline exceeded")}
	worker := docjob.NewWorker(h.repo, h.files, proc)

	if _, err := worker.Handle(ctx, h.jobFor(t)); err == nil {
		t.Fatalf("transient errors should be returned")
	}
	record, _ := h.repo.Get(ctx, doc.ID)
	if record.Status != docstore.StatusFailed {
		t.Fatalf("record should show the failure until the retry, got %s", record.Status)
	}

	proc.err, proc.doc = nil, twoPageDocument()
	if _, err := worker.Handle(ctx, h.jobFor(t)); err != nil {
		t.Fatalf("retry: %v", err)
	}
	record, _ = h.repo.Get(ctx, doc.ID)
	if record.Status != docstore.StatusComplete || record.Error != "" {
		t.Fatalf("retry should complete the record: %+v", record)
	}
}

func TestGetIncludesProgressWhileProcessing(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	doc, _ := h.svc.Submit(ctx, docjob.SubmitRequest{Filename: "deck.pdf", Data: pdfBytes})
	h.progress.snap = &pipelineredis.Snapshot{Stage: slide.StageOCRProcessing, Current: 2, Total: 4, Percent: 50}

	status, err := h.svc.Get(ctx, doc.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if status.Progress == nil || status.Progress.Percent != 50 {
		t.Fatalf("expected progress, got %+v", status.Progress)
	}
}
