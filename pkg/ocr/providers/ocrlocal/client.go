package ocrlocal

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Abraxas-365/pagelift/pkg/errx"
	"github.com/Abraxas-365/pagelift/pkg/logx"
	"github.com/Abraxas-365/pagelift/pkg/ocr"
)

const (
	Name = "local"

	DefaultHealthTimeout = 2 * time.Second
	DefaultOCRTimeout    = 30 * time.Second

	maxResponseBytes = 32 << 20
)

// Option configures a Backend
type Option func(*Backend)

// WithHTTPClient replaces the default http.Client. Timeouts are still applied
// per call through the request context.
func WithHTTPClient(c *http.Client) Option {
	return func(b *Backend) {
		if c != nil {
			b.httpClient = c
		}
	}
}

func WithTimeouts(health, call time.Duration) Option {
	return func(b *Backend) {
		if health > 0 {
			b.healthTimeout = health
		}
		if call > 0 {
			b.callTimeout = call
		}
	}
}

// Backend talks to a self-hosted OCR service exposing GET /health and
// POST /ocr. It probes /health before every page; a dead service is skipped
// without logging.
type Backend struct {
	baseURL       string
	httpClient    *http.Client
	healthTimeout time.Duration
	callTimeout   time.Duration
}

// New creates the local backend. An empty baseURL disables it.
func New(baseURL string, opts ...Option) *Backend {
	b := &Backend{
		baseURL:       strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient:    &http.Client{},
		healthTimeout: DefaultHealthTimeout,
		callTimeout:   DefaultOCRTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) Name() string { return Name }

type ocrRequest struct {
	Image    string `json:"image"`
	MIMEType string `json:"mimeType"`
}

// Recognize implements ocr.Backend
func (b *Backend) Recognize(ctx context.Context, req ocr.Request) ocr.Outcome {
	if b.baseURL == "" {
		return ocr.Skip(nil)
	}
	if !b.healthy(ctx) {
		return ocr.Skip(nil)
	}

	payload, err := json.Marshal(ocrRequest{
		Image:    base64.StdEncoding.EncodeToString(req.Image),
		MIMEType: req.MIMEType,
	})
	if err != nil {
		return ocr.Skip(ocr.NewError(ocr.ErrBackendFailed, err).WithDetail("backend", Name))
	}

	body, status, err := b.do(ctx, http.MethodPost, "/ocr", payload, b.callTimeout)
	if err != nil {
		return ocr.Skip(ocr.NewError(ocr.ErrBackendFailed, err).WithDetail("backend", Name))
	}

	switch {
	case status == http.StatusTooManyRequests:
		return ocr.RateLimited(ocr.NewError(ocr.ErrEngineRateLimited, nil).
			WithDetail("backend", Name).
			WithDetail("status_code", status))
	case status < 200 || status >= 300:
		return ocr.Skip(ocr.NewError(ocr.ErrBackendFailed, fmt.Errorf("status %d: %s", status, snippet(body))).
			WithDetail("backend", Name).
			WithDetail("status_code", status))
	}

	result, err := ocr.Normalize(body)
	if err != nil {
		var e *errx.Error
		if errx.As(err, &e) {
			e.WithDetail("backend", Name)
		}
		return ocr.Skip(err)
	}
	return ocr.Success(result)
}

// healthy reports whether GET /health answers 2xx within the health timeout
func (b *Backend) healthy(ctx context.Context) bool {
	_, status, err := b.do(ctx, http.MethodGet, "/health", nil, b.healthTimeout)
	if err != nil {
		logx.WithContext(ctx).WithError(err).Debug("ocrlocal: health probe failed")
		return false
	}
	return status >= 200 && status < 300
}

func (b *Backend) do(ctx context.Context, method, endpoint string, payload []byte, timeout time.Duration) ([]byte, int, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+endpoint, body)
	if err != nil {
		return nil, 0, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", "pagelift-ocr/1.0")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return respBody, resp.StatusCode, nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		return s[:200]
	}
	return s
}
