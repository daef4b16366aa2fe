// Package docjob runs document extraction as background jobs: uploads are
// stored and queued by Service, processed by Worker and served over HTTP by
// Handlers.
package docjob

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/Abraxas-365/pagelift/pkg/docstore"
	"github.com/Abraxas-365/pagelift/pkg/fsx"
	"github.com/Abraxas-365/pagelift/pkg/jobx"
	"github.com/Abraxas-365/pagelift/pkg/kernel"
	"github.com/Abraxas-365/pagelift/pkg/logx"
	"github.com/Abraxas-365/pagelift/pkg/pipeline/pipelineredis"
	"github.com/Abraxas-365/pagelift/pkg/slide"
	"github.com/gabriel-vasile/mimetype"
)

// JobType is the jobx type of an extraction
const JobType = "document.extract"

type Enqueuer interface {
	Enqueue(ctx context.Context, job jobx.Job) (string, error)
}

// ProgressReader is satisfied by *pipelineredis.Publisher
type ProgressReader interface {
	Latest(ctx context.Context, docID string) (*pipelineredis.Snapshot, error)
}

type extractPayload struct {
	DocumentID string `json:"document_id"`
}

func uploadPath(id kernel.DocumentID, filename string) string {
	return path.Join("uploads", id.String(), sanitizeFilename(filename))
}

func resultPath(id kernel.DocumentID) string {
	return path.Join("documents", id.String(), "document.json")
}

// sanitizeFilename keeps the base name and replaces separators
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	if name == "." || name == "/" || name == ".." {
		return "upload"
	}
	return name
}

type Service struct {
	repo     docstore.Repository
	files    fsx.FileSystem
	jobs     Enqueuer
	progress ProgressReader
	queue    string
	now      func() time.Time
}

// NewService wires the service. progress may be nil when no progress
// store is configured.
func NewService(repo docstore.Repository, files fsx.FileSystem, jobs Enqueuer, progress ProgressReader, queue string) *Service {
	if queue == "" {
		queue = jobx.DefaultQueue
	}
	return &Service{
		repo:     repo,
		files:    files,
		jobs:     jobs,
		progress: progress,
		queue:    queue,
		now:      time.Now,
	}
}

type SubmitRequest struct {
	Filename   string
	Data       []byte
	Language   string
	OutputKind string
}

// Submit stores the upload, records it as queued and schedules extraction.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*docstore.Document, error) {
	if len(req.Data) == 0 {
		return nil, docjobErrors.New(ErrMissingFile)
	}
	if strings.TrimSpace(req.Filename) == "" {
		return nil, docjobErrors.New(ErrInvalidRequest).WithDetail("field", "filename")
	}
	outputKind, ok := slide.ParseOutputKind(req.OutputKind)
	if !ok {
		return nil, docjobErrors.New(ErrInvalidRequest).WithDetail("output_kind", req.OutputKind)
	}

	now := s.now().UTC()
	id := kernel.NewDocumentID()
	ctx = kernel.WithDocumentID(ctx, id)
	log := logx.WithContext(ctx).WithField("filename", req.Filename)

	doc := &docstore.Document{
		ID:          id,
		Filename:    sanitizeFilename(req.Filename),
		ContentType: mimetype.Detect(req.Data).String(),
		SizeBytes:   int64(len(req.Data)),
		Language:    req.Language,
		OutputKind:  outputKind,
		Status:      docstore.StatusQueued,
		UploadPath:  uploadPath(id, req.Filename),
		Warnings:    []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.files.WriteFile(ctx, doc.UploadPath, req.Data); err != nil {
		log.WithError(err).Error("docjob: upload could not be stored")
		return nil, err
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, err
	}

	job, err := jobx.NewJob(JobType, extractPayload{DocumentID: id.String()})
	if err != nil {
		return nil, err
	}
	job.Queue = s.queue

	jobID, err := s.jobs.Enqueue(ctx, job)
	if err != nil {
		log.WithError(err).Error("docjob: extraction could not be enqueued")
		_ = doc.MarkFailed("extraction could not be scheduled", s.now().UTC())
		if uerr := s.repo.Update(ctx, doc); uerr != nil {
			log.WithError(uerr).Warn("docjob: failed record not saved")
		}
		return nil, docjobErrors.NewWithCause(ErrEnqueue, err).WithDetail("document_id", id.String())
	}

	doc.JobID = jobID
	doc.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, doc); err != nil {
		return nil, err
	}

	log.WithFields(logx.Fields{"job_id": jobID, "size": doc.SizeBytes}).Info("docjob: document queued")
	return doc, nil
}

// Status is a document record with its latest progress snapshot, when one
// is known
type Status struct {
	*docstore.Document
	Progress *pipelineredis.Snapshot `json:"progress,omitempty"`
}

func (s *Service) Get(ctx context.Context, id kernel.DocumentID) (*Status, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	status := &Status{Document: doc}
	if s.progress != nil && !doc.IsFinished() {
		snap, err := s.progress.Latest(ctx, id.String())
		if err != nil {
			logx.WithContext(kernel.WithDocumentID(ctx, id)).WithError(err).Warn("docjob: progress unavailable")
		}
		status.Progress = snap
	}
	return status, nil
}

func (s *Service) List(ctx context.Context, opts kernel.PaginationOptions) (kernel.Paginated[docstore.Document], error) {
	return s.repo.List(ctx, opts)
}

// Result returns the stored document JSON of a completed extraction
func (s *Service) Result(ctx context.Context, id kernel.DocumentID) ([]byte, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Status != docstore.StatusComplete {
		return nil, docjobErrors.New(ErrResultNotReady).
			WithDetail("document_id", id.String()).
			WithDetail("status", doc.Status)
	}
	return s.files.ReadFile(ctx, doc.ResultPath)
}
