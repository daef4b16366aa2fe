package docstorepg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Abraxas-365/pagelift/pkg/docstore"
	"github.com/Abraxas-365/pagelift/pkg/kernel"
	"github.com/Abraxas-365/pagelift/pkg/slide"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Schema creates the documents table. EnsureSchema applies it.
const Schema = `
CREATE TABLE IF NOT EXISTS documents (
	id            TEXT PRIMARY KEY,
	filename      TEXT NOT NULL,
	content_type  TEXT NOT NULL DEFAULT '',
	size_bytes    BIGINT NOT NULL DEFAULT 0,
	language      TEXT NOT NULL DEFAULT '',
	output_kind   TEXT NOT NULL,
	status        TEXT NOT NULL,
	job_id        TEXT NOT NULL DEFAULT '',
	upload_path   TEXT NOT NULL DEFAULT '',
	result_path   TEXT NOT NULL DEFAULT '',
	page_count    INTEGER NOT NULL DEFAULT 0,
	warnings      TEXT[] NOT NULL DEFAULT '{}',
	error         TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS documents_created_at_idx ON documents (created_at DESC);
`

// PostgresDocumentRepository implements docstore.Repository on PostgreSQL
type PostgresDocumentRepository struct {
	db *sqlx.DB
}

func NewPostgresDocumentRepository(db *sqlx.DB) *PostgresDocumentRepository {
	return &PostgresDocumentRepository{db: db}
}

func (r *PostgresDocumentRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, Schema); err != nil {
		return docstore.QueryFailure("ensure_schema", err)
	}
	return nil
}

func (r *PostgresDocumentRepository) Create(ctx context.Context, doc *docstore.Document) error {
	query := `
		INSERT INTO documents (
			id, filename, content_type, size_bytes, language, output_kind, status,
			job_id, upload_path, result_path, page_count, warnings, error,
			created_at, updated_at
		) VALUES (
			:id, :filename, :content_type, :size_bytes, :language, :output_kind, :status,
			:job_id, :upload_path, :result_path, :page_count, :warnings, :error,
			:created_at, :updated_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, toPersistence(doc))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			return docstore.AlreadyExists(doc.ID.String())
		}
		return docstore.QueryFailure("create", err).WithDetail("document_id", doc.ID.String())
	}
	return nil
}

func (r *PostgresDocumentRepository) Get(ctx context.Context, id kernel.DocumentID) (*docstore.Document, error) {
	var row documentRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM documents WHERE id = $1`, id.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, docstore.NotFound(id.String())
		}
		return nil, docstore.QueryFailure("get", err).WithDetail("document_id", id.String())
	}
	doc := toDomain(row)
	return &doc, nil
}

func (r *PostgresDocumentRepository) Update(ctx context.Context, doc *docstore.Document) error {
	query := `
		UPDATE documents SET
			status = :status,
			job_id = :job_id,
			result_path = :result_path,
			page_count = :page_count,
			warnings = :warnings,
			error = :error,
			updated_at = :updated_at
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, toPersistence(doc))
	if err != nil {
		return docstore.QueryFailure("update", err).WithDetail("document_id", doc.ID.String())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return docstore.QueryFailure("update", err)
	}
	if rowsAffected == 0 {
		return docstore.NotFound(doc.ID.String())
	}
	return nil
}

func (r *PostgresDocumentRepository) List(ctx context.Context, opts kernel.PaginationOptions) (kernel.Paginated[docstore.Document], error) {
	opts = opts.Normalize(docstore.MaxPageSize)

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM documents`); err != nil {
		return kernel.Paginated[docstore.Document]{}, docstore.QueryFailure("count", err)
	}

	var rows []documentRow
	query := `SELECT * FROM documents ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`
	if err := r.db.SelectContext(ctx, &rows, query, opts.PageSize, opts.Offset()); err != nil {
		return kernel.Paginated[docstore.Document]{}, docstore.QueryFailure("list", err)
	}

	docs := make([]docstore.Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, toDomain(row))
	}
	return kernel.NewPaginated(docs, opts.Page, opts.PageSize, total), nil
}

// documentRow is the persistence shape, with the warning codes as a
// postgres text array
type documentRow struct {
	ID          string         `db:"id"`
	Filename    string         `db:"filename"`
	ContentType string         `db:"content_type"`
	SizeBytes   int64          `db:"size_bytes"`
	Language    string         `db:"language"`
	OutputKind  string         `db:"output_kind"`
	Status      string         `db:"status"`
	JobID       string         `db:"job_id"`
	UploadPath  string         `db:"upload_path"`
	ResultPath  string         `db:"result_path"`
	PageCount   int            `db:"page_count"`
	Warnings    pq.StringArray `db:"warnings"`
	Error       string         `db:"error"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func toPersistence(d *docstore.Document) documentRow {
	warnings := pq.StringArray(d.Warnings)
	if warnings == nil {
		warnings = pq.StringArray{}
	}
	return documentRow{
		ID:          d.ID.String(),
		Filename:    d.Filename,
		ContentType: d.ContentType,
		SizeBytes:   d.SizeBytes,
		Language:    d.Language,
		OutputKind:  string(d.OutputKind),
		Status:      string(d.Status),
		JobID:       d.JobID,
		UploadPath:  d.UploadPath,
		ResultPath:  d.ResultPath,
		PageCount:   d.PageCount,
		Warnings:    warnings,
		Error:       d.Error,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

func toDomain(r documentRow) docstore.Document {
	warnings := []string(r.Warnings)
	if warnings == nil {
		warnings = []string{}
	}
	return docstore.Document{
		ID:          kernel.DocumentID(r.ID),
		Filename:    r.Filename,
		ContentType: r.ContentType,
		SizeBytes:   r.SizeBytes,
		Language:    r.Language,
		OutputKind:  slide.OutputKind(r.OutputKind),
		Status:      docstore.Status(r.Status),
		JobID:       r.JobID,
		UploadPath:  r.UploadPath,
		ResultPath:  r.ResultPath,
		PageCount:   r.PageCount,
		Warnings:    warnings,
		Error:       r.Error,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
