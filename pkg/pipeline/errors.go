package pipeline

import (
	"net/http"

	"github.com/Abraxas-365/pagelift/pkg/errx"
)

var errorRegistry = errx.NewRegistry("PIPELINE")

var (
	ErrCancelled = errorRegistry.Register(
		"CANCELLED",
		errx.TypeInternal,
		http.StatusRequestTimeout,
		"Document processing was cancelled",
	)

	ErrInvalidRequest = errorRegistry.Register(
		"INVALID_REQUEST",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Invalid processing request",
	)
)
