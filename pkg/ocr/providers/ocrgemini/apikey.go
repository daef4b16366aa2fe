package ocrgemini

import (
	"context"

	"github.com/Abraxas-365/pagelift/pkg/ocr"
	"google.golang.org/genai"
)

// NewAPIKey creates the public Gemini API backend. It is meant to be last in
// the chain: without a key every call fails with ErrConfigurationMissing.
func NewAPIKey(apiKey string, opts ...Option) *Backend {
	b := newBackend(NameAPIKey, opts)
	b.malformedAsEmpty = true
	b.connect = func(ctx context.Context) (Generator, ocr.Outcome, bool) {
		if apiKey == "" {
			return nil, ocr.Fatal(ocr.NewError(ocr.ErrConfigurationMissing, nil).
				WithDetail("backend", NameAPIKey).
				WithDetail("setting", "GEMINI_API_KEY")), false
		}

		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, ocr.Fatal(ocr.NewError(ocr.ErrConfigurationMissing, err).
				WithDetail("backend", NameAPIKey)), false
		}
		return client.Models, ocr.Outcome{}, true
	}
	return b
}
