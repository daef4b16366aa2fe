package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Abraxas-365/pagelift/pkg/config"
	"github.com/Abraxas-365/pagelift/pkg/errx"
)

func TestDefaults(t *testing.T) {
	t.Setenv(config.FileEnv, "")
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Render.DPI != 150 || cfg.OCR.LocalProbeTimeout != 2*time.Second || cfg.Render.ConvertTimeout != 120*time.Second {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.OCR.ManagedProvider != config.ManagedVertex || cfg.Storage.Mode != config.StorageLocal {
		t.Fatalf("unexpected provider defaults %+v", cfg.OCR)
	}
	if cfg.Database.Enabled() {
		t.Fatalf("database is opt-in")
	}
}

func TestFileThenEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pagelift.yaml")
	yaml := `
ocr:
  managed_provider: bedrock
  timeout: 45s
  bedrock:
    region: eu-west-1
render:
  dpi: 200
jobx:
  queues: [a, b]
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv(config.FileEnv, path)
	t.Setenv("RENDER_DPI", "300")
	t.Setenv("GEMINI_RPS", "0.5")
	t.Setenv("JOBX_QUEUES", "documents, priority")
	t.Setenv("MAX_PAGES", "not-a-number")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.OCR.ManagedProvider != config.ManagedBedrock || cfg.OCR.Bedrock.Region != "eu-west-1" {
		t.Fatalf("file values not applied: %+v", cfg.OCR)
	}
	if cfg.OCR.Timeout != 45*time.Second {
		t.Fatalf("durations should decode from the file, got %v", cfg.OCR.Timeout)
	}
	if cfg.Render.DPI != 300 {
		t.Fatalf("environment should win over the file, got %d", cfg.Render.DPI)
	}
	if cfg.OCR.GeminiRPS != 0.5 {
		t.Fatalf("unexpected rps %v", cfg.OCR.GeminiRPS)
	}
	if len(cfg.Jobx.Queues) != 2 || cfg.Jobx.Queues[1] != "priority" {
		t.Fatalf("unexpected queues %v", cfg.Jobx.Queues)
	}
	if cfg.Render.MaxPages != 200 {
		t.Fatalf("unparsable values fall back, got %d", cfg.Render.MaxPages)
	}
	if cfg.OCR.Bedrock.Model == "" {
		t.Fatalf("unset nested values keep their defaults")
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*config.Config){
		"dpi":      func(c *config.Config) { c.Render.DPI = 0 },
		"provider": func(c *config.Config) { c.OCR.ManagedProvider = "azure" },
		"storage":  func(c *config.Config) { c.Storage.Mode = "ftp" },
		"bucket":   func(c *config.Config) { c.Storage.Mode = config.StorageS3 },
		"workers":  func(c *config.Config) { c.Jobx.Concurrency = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			mutate(cfg)
			if err := cfg.Validate(); !errx.HasCode(err, config.ErrInvalid) {
				t.Fatalf("expected INVALID, got %v", err)
			}
		})
	}

	if err := config.Default().Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestMissingFile(t *testing.T) {
	t.Setenv(config.FileEnv, filepath.Join(t.TempDir(), "nope.yaml"))
	if _, err := config.Load(); !errx.HasCode(err, config.ErrReadFile) {
		t.Fatalf("expected READ_FILE, got %v", err)
	}
}
