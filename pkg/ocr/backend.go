package ocr

import (
	"context"

	"github.com/Abraxas-365/pagelift/pkg/slide"
)

// Request is one rendered page sent to a backend.
type Request struct {
	Image    []byte
	MIMEType string
	// Page is the 0-based page index, used for logging only.
	Page int
}

// Backend is one OCR service in the fallback chain.
type Backend interface {
	Name() string
	Recognize(ctx context.Context, req Request) Outcome
}

// OutcomeKind tags what a backend did with a request.
type OutcomeKind int

const (
	// OutcomeSuccess carries a result; the chain stops.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeSkip advances to the next backend. A nil Err means the backend
	// is simply not installed or not configured and nothing is logged.
	OutcomeSkip
	// OutcomeRateLimited opens the breaker for the backend and advances.
	OutcomeRateLimited
	// OutcomeFatal is a hard failure. It ends the chain only when the backend
	// is the last one; otherwise it is logged and the chain advances.
	OutcomeFatal
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeSkip:
		return "skip"
	case OutcomeRateLimited:
		return "rate_limited"
	case OutcomeFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Outcome is the tagged result of Backend.Recognize.
type Outcome struct {
	Kind   OutcomeKind
	Result *slide.OcrResult
	Err    error
}

func Success(result *slide.OcrResult) Outcome {
	if result == nil {
		result = &slide.OcrResult{}
	}
	return Outcome{Kind: OutcomeSuccess, Result: result}
}

func Skip(err error) Outcome        { return Outcome{Kind: OutcomeSkip, Err: err} }
func RateLimited(err error) Outcome { return Outcome{Kind: OutcomeRateLimited, Err: err} }
func Fatal(err error) Outcome       { return Outcome{Kind: OutcomeFatal, Err: err} }
