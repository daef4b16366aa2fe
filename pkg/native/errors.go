package native

import (
	"net/http"

	"github.com/Abraxas-365/pagelift/pkg/errx"
)

var errorRegistry = errx.NewRegistry("NATIVE")

var (
	// ErrDocumentLoadFailure aborts the whole document
	ErrDocumentLoadFailure = errorRegistry.Register(
		"DOCUMENT_LOAD_FAILURE",
		errx.TypeValidation,
		http.StatusUnprocessableEntity,
		"Document could not be opened",
	)

	// ErrContainerDecodeFailure is a failure to read one part of a page. It
	// is absorbed as an empty contribution.
	ErrContainerDecodeFailure = errorRegistry.Register(
		"CONTAINER_DECODE_FAILURE",
		errx.TypeInternal,
		http.StatusInternalServerError,
		"Page content could not be decoded",
	)

	ErrUnsupportedFormat = errorRegistry.Register(
		"UNSUPPORTED_FORMAT",
		errx.TypeValidation,
		http.StatusUnsupportedMediaType,
		"Unsupported document format",
	)
)

// LoadFailure wraps cause as ErrDocumentLoadFailure
func LoadFailure(cause error) *errx.Error {
	return errorRegistry.NewWithCause(ErrDocumentLoadFailure, cause)
}

// DecodeFailure wraps cause as ErrContainerDecodeFailure
func DecodeFailure(cause error) *errx.Error {
	return errorRegistry.NewWithCause(ErrContainerDecodeFailure, cause)
}

// IsDocumentLoadFailure reports whether err must abort the document
func IsDocumentLoadFailure(err error) bool {
	return errx.HasCode(err, ErrDocumentLoadFailure) || errx.HasCode(err, ErrUnsupportedFormat)
}
