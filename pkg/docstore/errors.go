package docstore

import "github.com/Abraxas-365/pagelift/pkg/errx"

var docstoreErrors = errx.NewRegistry("DOCSTORE")

var (
	ErrNotFound          = docstoreErrors.Register("NOT_FOUND", errx.TypeNotFound, 404, "Document not found")
	ErrAlreadyExists     = docstoreErrors.Register("ALREADY_EXISTS", errx.TypeConflict, 409, "Document already exists")
	ErrInvalidTransition = docstoreErrors.Register("INVALID_TRANSITION", errx.TypeConflict, 409, "Document status change not allowed")
	ErrQuery             = docstoreErrors.Register("QUERY", errx.TypeInternal, 500, "Document store query failed")
)

func NotFound(id string) *errx.Error {
	return docstoreErrors.New(ErrNotFound).WithDetail("document_id", id)
}

func AlreadyExists(id string) *errx.Error {
	return docstoreErrors.New(ErrAlreadyExists).WithDetail("document_id", id)
}

func QueryFailure(op string, cause error) *errx.Error {
	return docstoreErrors.NewWithCause(ErrQuery, cause).WithDetail("op", op)
}
