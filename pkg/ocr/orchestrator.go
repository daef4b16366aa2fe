package ocr

import (
	"context"

	"github.com/Abraxas-365/pagelift/pkg/logx"
	"github.com/Abraxas-365/pagelift/pkg/slide"
	"golang.org/x/sync/semaphore"
)

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithMaxConcurrent caps the number of pages inside Recognize at once,
// across every document sharing the orchestrator. n <= 0 means no cap.
func WithMaxConcurrent(n int64) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.sem = semaphore.NewWeighted(n)
		}
	}
}

// Orchestrator tries its backends in order and returns the first success.
type Orchestrator struct {
	backends []Backend
	sem      *semaphore.Weighted
}

// New creates an orchestrator over backends in priority order
func New(backends []Backend, opts ...Option) *Orchestrator {
	o := &Orchestrator{backends: backends}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Backends returns the backend names in priority order
func (o *Orchestrator) Backends() []string {
	names := make([]string, len(o.backends))
	for i, b := range o.backends {
		names[i] = b.Name()
	}
	return names
}

// Recognize runs req through the chain. Backends whose breaker is open are
// not called. When no backend succeeds the returned error is, in order of
// precedence: the fatal error of the last backend, ErrEngineRateLimited if a
// breaker was involved, the last logged failure, or ErrEngineUnavailable.
func (o *Orchestrator) Recognize(ctx context.Context, breaker *Breaker, req Request) (*slide.OcrResult, error) {
	if len(o.backends) == 0 {
		return nil, errorRegistry.New(ErrEngineUnavailable).WithDetail("reason", "no backends configured")
	}

	if o.sem != nil {
		if err := o.sem.Acquire(ctx, 1); err != nil {
			return nil, errorRegistry.NewWithCause(ErrEngineUnavailable, err)
		}
		defer o.sem.Release(1)
	}

	var rateLimited, failure error
	last := len(o.backends) - 1

	for i, backend := range o.backends {
		name := backend.Name()
		log := logx.WithContext(ctx).WithFields(logx.Fields{"backend": name, "page": req.Page})

		if breaker.IsOpen(name) {
			log.Debug("ocr: breaker open, backend skipped")
			rateLimited = errorRegistry.New(ErrEngineRateLimited).WithDetail("backend", name)
			continue
		}

		if err := ctx.Err(); err != nil {
			return nil, errorRegistry.NewWithCause(ErrEngineUnavailable, err)
		}

		outcome := backend.Recognize(ctx, req)

		switch outcome.Kind {
		case OutcomeSuccess:
			result := outcome.Result
			if result == nil {
				result = &slide.OcrResult{}
			}
			if result.TextElements == nil {
				result.TextElements = []slide.TextElement{}
			}
			if result.ImageRegions == nil {
				result.ImageRegions = []slide.Box{}
			}
			result.Engine = name
			log.WithFields(logx.Fields{
				"text_elements": len(result.TextElements),
				"image_regions": len(result.ImageRegions),
			}).Debug("ocr: backend succeeded")
			return result, nil

		case OutcomeSkip:
			if outcome.Err == nil {
				log.Debug("ocr: backend not available")
				continue
			}
			log.WithError(outcome.Err).Warn("ocr: backend failed, trying next")
			failure = outcome.Err

		case OutcomeRateLimited:
			opened := breaker.Trip(name, req.Page)
			rateLimited = errorRegistry.NewWithCause(ErrEngineRateLimited, outcome.Err).
				WithDetail("backend", name)
			if opened {
				log.WithError(outcome.Err).Warn("ocr: backend rate limited, skipped for the rest of the document")
			}

		case OutcomeFatal:
			if i == last {
				log.WithError(outcome.Err).Error("ocr: last backend failed")
				return nil, outcome.Err
			}
			log.WithError(outcome.Err).Warn("ocr: backend unusable, trying next")
			failure = outcome.Err
		}
	}

	switch {
	case rateLimited != nil:
		return nil, rateLimited
	case failure != nil:
		return nil, failure
	default:
		return nil, errorRegistry.New(ErrEngineUnavailable)
	}
}
