package docjob

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Abraxas-365/pagelift/pkg/asyncx"
	"github.com/Abraxas-365/pagelift/pkg/docstore"
	"github.com/Abraxas-365/pagelift/pkg/errx"
	"github.com/Abraxas-365/pagelift/pkg/fsx"
	"github.com/Abraxas-365/pagelift/pkg/jobx"
	"github.com/Abraxas-365/pagelift/pkg/kernel"
	"github.com/Abraxas-365/pagelift/pkg/logx"
	"github.com/Abraxas-365/pagelift/pkg/native"
	"github.com/Abraxas-365/pagelift/pkg/pipeline"
	"github.com/Abraxas-365/pagelift/pkg/slide"
)

// Processor is satisfied by *pipeline.Pipeline
type Processor interface {
	Process(ctx context.Context, req pipeline.Request) (*slide.Document, error)
}

const (
	writeAttempts = 3
	writeBackoff  = 500 * time.Millisecond
)

type Worker struct {
	repo      docstore.Repository
	files     fsx.FileSystem
	processor Processor
	now       func() time.Time
}

func NewWorker(repo docstore.Repository, files fsx.FileSystem, processor Processor) *Worker {
	return &Worker{repo: repo, files: files, processor: processor, now: time.Now}
}

// Register binds the worker to the extraction job type
func (w *Worker) Register(client *jobx.Client) {
	client.Register(JobType, w.Handle)
}

type jobResult struct {
	DocumentID string   `json:"document_id"`
	Status     string   `json:"status"`
	Pages      int      `json:"pages,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// Handle processes one extraction job. Documents that cannot be opened
// fail without a retry; any other error is returned so jobx retries it.
func (w *Worker) Handle(ctx context.Context, job *jobx.JobInfo) (json.RawMessage, error) {
	var payload extractPayload
	if err := job.Decode(&payload); err != nil {
		return nil, err
	}
	id, err := kernel.ParseDocumentID(payload.DocumentID)
	if err != nil {
		return nil, docjobErrors.NewWithCause(ErrInvalidPayload, err).WithDetail("job_id", job.ID)
	}

	ctx = kernel.WithDocumentID(ctx, id)
	log := logx.WithContext(ctx)

	record, err := w.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.Status == docstore.StatusComplete {
		log.Info("docjob: document already complete")
		return json.Marshal(jobResult{DocumentID: id.String(), Status: string(record.Status), Pages: record.PageCount})
	}
	if err := record.MarkProcessing(w.now().UTC()); err != nil {
		return nil, err
	}
	if err := w.repo.Update(ctx, record); err != nil {
		return nil, err
	}

	data, err := w.files.ReadFile(ctx, record.UploadPath)
	if err != nil {
		return nil, w.fail(ctx, record, err)
	}

	doc, err := w.processor.Process(ctx, pipeline.Request{
		DocumentID: id,
		Filename:   record.Filename,
		Data:       data,
		Language:   record.Language,
		OutputKind: record.OutputKind,
	})
	if err != nil {
		if permanent(err) {
			log.WithError(err).Warn("docjob: document rejected")
			if ferr := w.fail(ctx, record, err); ferr != err {
				return nil, ferr
			}
			return json.Marshal(jobResult{DocumentID: id.String(), Status: string(docstore.StatusFailed), Error: errx.CodeOf(err)})
		}
		return nil, w.fail(ctx, record, err)
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return nil, w.fail(ctx, record, err)
	}
	out := resultPath(id)
	_, err = asyncx.RetryWithBackoff(ctx, writeAttempts, writeBackoff, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, w.files.WriteFile(ctx, out, body)
	})
	if err != nil {
		return nil, w.fail(ctx, record, err)
	}

	if err := record.MarkComplete(doc, out, w.now().UTC()); err != nil {
		return nil, err
	}
	if err := w.repo.Update(ctx, record); err != nil {
		return nil, err
	}

	log.WithFields(logx.Fields{
		"pages":    record.PageCount,
		"warnings": len(record.Warnings),
	}).Info("docjob: document complete")

	return json.Marshal(jobResult{
		DocumentID: id.String(),
		Status:     string(record.Status),
		Pages:      record.PageCount,
		Warnings:   record.Warnings,
	})
}

// fail records the failure and returns cause, or the update error when the
// record could not be saved
func (w *Worker) fail(ctx context.Context, record *docstore.Document, cause error) error {
	reason := errx.CodeOf(cause)
	if reason == "" {
		reason = cause.Error()
	}
	if err := record.MarkFailed(reason, w.now().UTC()); err != nil {
		return err
	}
	if err := w.repo.Update(ctx, record); err != nil {
		logx.WithContext(ctx).WithError(err).Error("docjob: failed record not saved")
		return err
	}
	return cause
}

func permanent(err error) bool {
	return native.IsDocumentLoadFailure(err) || errx.HasCode(err, pipeline.ErrInvalidRequest)
}
