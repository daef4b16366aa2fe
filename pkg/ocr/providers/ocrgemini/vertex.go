package ocrgemini

import (
	"context"
	"strings"

	"cloud.google.com/go/auth/credentials"
	"github.com/Abraxas-365/pagelift/pkg/logx"
	"github.com/Abraxas-365/pagelift/pkg/ocr"
	"google.golang.org/genai"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// VertexConfig selects the project and credentials for Vertex AI.
// Credentials may be inline JSON or a file path; when both are empty the
// application default credentials are used.
type VertexConfig struct {
	Project         string
	Location        string
	CredentialsJSON string
	CredentialsFile string
}

// NewVertex creates the managed-cloud backend. A missing project or
// credentials that cannot produce a token make it skip silently.
func NewVertex(cfg VertexConfig, opts ...Option) *Backend {
	b := newBackend(NameVertex, opts)
	if cfg.Location == "" {
		cfg.Location = DefaultLocation
	}

	b.connect = func(ctx context.Context) (Generator, ocr.Outcome, bool) {
		if strings.TrimSpace(cfg.Project) == "" {
			return nil, ocr.Skip(nil), false
		}

		log := logx.WithContext(ctx).WithField("backend", NameVertex)

		authCtx, cancel := context.WithTimeout(ctx, AuthTimeout)
		defer cancel()

		detect := &credentials.DetectOptions{Scopes: []string{cloudPlatformScope}}
		switch {
		case cfg.CredentialsJSON != "":
			detect.CredentialsJSON = []byte(cfg.CredentialsJSON)
		case cfg.CredentialsFile != "":
			detect.CredentialsFile = cfg.CredentialsFile
		}

		creds, err := credentials.DetectDefault(detect)
		if err != nil {
			log.WithError(err).Debug("ocrgemini: no vertex credentials")
			return nil, ocr.Skip(nil), false
		}
		if _, err := creds.Token(authCtx); err != nil {
			log.WithError(err).Debug("ocrgemini: vertex credentials cannot produce a token")
			return nil, ocr.Skip(nil), false
		}

		client, err := genai.NewClient(authCtx, &genai.ClientConfig{
			Backend:     genai.BackendVertexAI,
			Project:     cfg.Project,
			Location:    cfg.Location,
			Credentials: creds,
		})
		if err != nil {
			log.WithError(err).Debug("ocrgemini: vertex client unavailable")
			return nil, ocr.Skip(nil), false
		}
		return client.Models, ocr.Outcome{}, true
	}
	return b
}
