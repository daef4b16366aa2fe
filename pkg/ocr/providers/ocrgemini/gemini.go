package ocrgemini

import (
	"context"
	"sync"
	"time"

	"github.com/Abraxas-365/pagelift/pkg/logx"
	"github.com/Abraxas-365/pagelift/pkg/ocr"
	"github.com/Abraxas-365/pagelift/pkg/slide"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

const (
	NameVertex = "vertex"
	NameAPIKey = "gemini"

	DefaultModel    = "gemini-2.0-flash"
	DefaultLocation = "us-central1"
	DefaultTimeout  = 30 * time.Second
	AuthTimeout     = 10 * time.Second

	// authRetryAfter is how long a failed credential lookup is remembered
	authRetryAfter = time.Minute
)

// Generator is the part of genai.Models the backend uses
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Option configures a Backend
type Option func(*Backend)

func WithModel(model string) Option {
	return func(b *Backend) {
		if model != "" {
			b.model = model
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(b *Backend) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithRateLimit paces calls to at most rps per second. rps <= 0 disables it.
func WithRateLimit(rps float64) Option {
	return func(b *Backend) {
		if rps > 0 {
			b.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithGenerator bypasses client construction
func WithGenerator(g Generator) Option {
	return func(b *Backend) {
		b.generator = g
	}
}

// Backend sends page images to Gemini, either through Vertex AI with cloud
// credentials or through the public API with a key.
type Backend struct {
	name    string
	model   string
	timeout time.Duration
	limiter *rate.Limiter

	// connect builds the generator on first use. ok=false with a nil outcome
	// error means the backend is not configured.
	connect func(ctx context.Context) (Generator, ocr.Outcome, bool)

	// malformedAsEmpty turns an unparseable body into an empty success
	malformedAsEmpty bool

	mu          sync.Mutex
	generator   Generator
	failedUntil time.Time
}

func newBackend(name string, opts []Option) *Backend {
	b := &Backend{
		name:    name,
		model:   DefaultModel,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) Name() string { return b.name }

// Recognize implements ocr.Backend
func (b *Backend) Recognize(ctx context.Context, req ocr.Request) ocr.Outcome {
	gen, outcome, ok := b.client(ctx)
	if !ok {
		return outcome
	}

	log := logx.WithContext(ctx).WithFields(logx.Fields{"backend": b.name, "page": req.Page})

	// pacing shares the call deadline
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return ocr.Skip(ocr.NewError(ocr.ErrBackendFailed, err).
				WithDetail("backend", b.name).
				WithDetail("reason", "rate limiter wait exceeded the call deadline"))
		}
	}

	mimeType := req.MIMEType
	if mimeType == "" {
		mimeType = "image/png"
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				genai.NewPartFromBytes(req.Image, mimeType),
				genai.NewPartFromText(ocr.ExtractionInstruction),
			},
		},
	}

	temperature := float32(0)
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      &temperature,
	}

	resp, err := gen.GenerateContent(ctx, b.model, contents, config)
	if err != nil {
		return classifyError(b.name, err)
	}

	result, err := ocr.Normalize([]byte(resp.Text()))
	if err != nil {
		if b.malformedAsEmpty {
			log.WithError(err).Warn("ocrgemini: unparseable response, using an empty result")
			return ocr.Success(&slide.OcrResult{})
		}
		return ocr.Skip(err)
	}
	return ocr.Success(result)
}

// client returns the cached generator or builds one
func (b *Backend) client(ctx context.Context) (Generator, ocr.Outcome, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.generator != nil {
		return b.generator, ocr.Outcome{}, true
	}
	if b.connect == nil {
		return nil, ocr.Skip(nil), false
	}
	if time.Now().Before(b.failedUntil) {
		return nil, ocr.Skip(nil), false
	}

	gen, outcome, ok := b.connect(ctx)
	if !ok {
		if outcome.Kind == ocr.OutcomeSkip && outcome.Err == nil {
			b.failedUntil = time.Now().Add(authRetryAfter)
		}
		return nil, outcome, false
	}
	b.generator = gen
	return gen, ocr.Outcome{}, true
}
