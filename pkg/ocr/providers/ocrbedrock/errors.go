package ocrbedrock

import (
	"errors"
	"strings"

	"github.com/Abraxas-365/pagelift/pkg/errx"
	"github.com/Abraxas-365/pagelift/pkg/ocr"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

func isThrottled(err error) bool {
	var throttled *types.ThrottlingException
	if errors.As(err, &throttled) {
		return true
	}
	var quota *types.ServiceQuotaExceededException
	if errors.As(err, &quota) {
		return true
	}

	errLower := strings.ToLower(err.Error())
	return strings.Contains(errLower, "throttl") ||
		strings.Contains(errLower, "too many requests") ||
		strings.Contains(errLower, "rate exceeded")
}

// classifyError maps a Converse error onto a chain outcome
func classifyError(err error) ocr.Outcome {
	var customErr *errx.Error
	if errx.As(err, &customErr) {
		return ocr.Skip(customErr)
	}

	if isThrottled(err) {
		return ocr.RateLimited(ocr.NewError(ocr.ErrEngineRateLimited, err).WithDetail("backend", Name))
	}

	failure := ocr.NewError(ocr.ErrBackendFailed, err).WithDetail("backend", Name)

	errLower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errLower, "accessdenied") || strings.Contains(errLower, "access denied"):
		failure.WithDetail("reason", "access_denied")
	case strings.Contains(errLower, "validation"):
		failure.WithDetail("reason", "validation")
	}
	return ocr.Skip(failure)
}
