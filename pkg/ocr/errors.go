package ocr

import (
	"net/http"

	"github.com/Abraxas-365/pagelift/pkg/errx"
)

var errorRegistry = errx.NewRegistry("OCR")

var (
	// ErrEngineUnavailable means no backend produced a result and none of
	// them reported a more specific failure.
	ErrEngineUnavailable = errorRegistry.Register(
		"ENGINE_UNAVAILABLE",
		errx.TypeExternal,
		http.StatusServiceUnavailable,
		"No OCR backend is available",
	)

	// ErrEngineRateLimited means a backend signalled overload. Its breaker is
	// open for the rest of the document.
	ErrEngineRateLimited = errorRegistry.Register(
		"ENGINE_RATE_LIMITED",
		errx.TypeExternal,
		http.StatusTooManyRequests,
		"OCR backend is rate limited",
	)

	ErrMalformedResponse = errorRegistry.Register(
		"MALFORMED_RESPONSE",
		errx.TypeExternal,
		http.StatusBadGateway,
		"OCR backend returned an unparseable response",
	)

	ErrConfigurationMissing = errorRegistry.Register(
		"CONFIGURATION_MISSING",
		errx.TypeInternal,
		http.StatusInternalServerError,
		"OCR backend is not configured",
	)

	ErrBackendFailed = errorRegistry.Register(
		"BACKEND_FAILED",
		errx.TypeExternal,
		http.StatusBadGateway,
		"OCR backend call failed",
	)
)

// NewError creates an error with one of this package's codes. Providers use
// it so that every backend reports the same taxonomy.
func NewError(code *errx.ErrorCode, cause error) *errx.Error {
	if cause == nil {
		return errorRegistry.New(code)
	}
	return errorRegistry.NewWithCause(code, cause)
}
