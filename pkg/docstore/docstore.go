// Package docstore keeps the processing record of every uploaded document.
package docstore

import (
	"context"
	"time"

	"github.com/Abraxas-365/pagelift/pkg/kernel"
	"github.com/Abraxas-365/pagelift/pkg/slide"
)

type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusComplete   Status = "complete"
	StatusFailed     Status = "failed"
)

// Document is the record of one upload and its extraction
type Document struct {
	ID          kernel.DocumentID `json:"id"`
	Filename    string            `json:"filename"`
	ContentType string            `json:"contentType"`
	SizeBytes   int64             `json:"sizeBytes"`
	Language    string            `json:"language"`
	OutputKind  slide.OutputKind  `json:"outputKind"`
	Status      Status            `json:"status"`
	JobID       string            `json:"jobId,omitempty"`
	UploadPath  string            `json:"-"`
	ResultPath  string            `json:"-"`
	PageCount   int               `json:"pageCount"`
	Warnings    []string          `json:"warnings"`
	Error       string            `json:"error,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

func (d *Document) IsFinished() bool {
	return d.Status == StatusComplete || d.Status == StatusFailed
}

// MarkProcessing is allowed from queued and, for retried jobs, from
// processing or failed
func (d *Document) MarkProcessing(now time.Time) error {
	if d.Status == StatusComplete {
		return d.invalid(StatusProcessing)
	}
	d.Status = StatusProcessing
	d.Error = ""
	d.UpdatedAt = now
	return nil
}

func (d *Document) MarkComplete(doc *slide.Document, resultPath string, now time.Time) error {
	if d.Status != StatusProcessing {
		return d.invalid(StatusComplete)
	}
	codes := make([]string, 0, len(doc.Warnings))
	for _, w := range doc.Warnings {
		codes = append(codes, w.Code)
	}
	d.Status = StatusComplete
	d.PageCount = len(doc.Pages)
	d.Warnings = codes
	d.ResultPath = resultPath
	d.UpdatedAt = now
	return nil
}

func (d *Document) MarkFailed(reason string, now time.Time) error {
	if d.Status == StatusComplete {
		return d.invalid(StatusFailed)
	}
	d.Status = StatusFailed
	d.Error = reason
	d.UpdatedAt = now
	return nil
}

func (d *Document) invalid(to Status) error {
	return docstoreErrors.New(ErrInvalidTransition).
		WithDetail("document_id", d.ID.String()).
		WithDetail("from", d.Status).
		WithDetail("to", to)
}

// Repository persists document records. List returns newest first.
type Repository interface {
	Create(ctx context.Context, doc *Document) error
	Get(ctx context.Context, id kernel.DocumentID) (*Document, error)
	Update(ctx context.Context, doc *Document) error
	List(ctx context.Context, opts kernel.PaginationOptions) (kernel.Paginated[Document], error)
}

// MaxPageSize caps List page sizes
const MaxPageSize = 100
