package ocrgemini

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Abraxas-365/pagelift/pkg/errx"
	"github.com/Abraxas-365/pagelift/pkg/ocr"
	"google.golang.org/genai"
)

// isRateLimit reports whether err is Gemini signalling overload, either as
// a typed API error or through the message text older paths return. Other
// quota failures are ordinary call failures and fall through.
func isRateLimit(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr.Code == http.StatusTooManyRequests {
		return true
	}

	errLower := strings.ToLower(err.Error())
	return strings.Contains(errLower, "rate limit") ||
		strings.Contains(errLower, "resource exhausted") ||
		strings.Contains(errLower, "resource_exhausted")
}

// classifyError maps a GenerateContent error onto a chain outcome
func classifyError(name string, err error) ocr.Outcome {
	var customErr *errx.Error
	if errx.As(err, &customErr) {
		return ocr.Skip(customErr)
	}

	if isRateLimit(err) {
		return ocr.RateLimited(ocr.NewError(ocr.ErrEngineRateLimited, err).WithDetail("backend", name))
	}

	failure := ocr.NewError(ocr.ErrBackendFailed, err).WithDetail("backend", name)
	if errors.Is(err, context.DeadlineExceeded) {
		failure.WithDetail("reason", "timeout")
	}
	return ocr.Skip(failure)
}
