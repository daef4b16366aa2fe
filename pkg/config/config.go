// Package config loads the service configuration: defaults, then the YAML
// file named by PAGELIFT_CONFIG, then environment variables.
package config

import (
	"os"
	"strings"

	"github.com/Abraxas-365/pagelift/pkg/errx"
	"gopkg.in/yaml.v3"
)

var configErrors = errx.NewRegistry("CONFIG")

var (
	ErrReadFile = configErrors.Register("READ_FILE", errx.TypeInternal, 500, "Configuration file could not be read")
	ErrInvalid  = configErrors.Register("INVALID", errx.TypeValidation, 500, "Invalid configuration")
)

// FileEnv names the optional YAML configuration file
const FileEnv = "PAGELIFT_CONFIG"

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Storage  StorageConfig  `yaml:"storage"`
	OCR      OCRConfig      `yaml:"ocr"`
	Render   RenderConfig   `yaml:"render"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Jobx     JobxConfig     `yaml:"jobx"`
}

func Default() *Config {
	return &Config{
		Server:   defaultServerConfig(),
		Database: defaultDatabaseConfig(),
		Redis:    defaultRedisConfig(),
		Storage:  defaultStorageConfig(),
		OCR:      defaultOCRConfig(),
		Render:   defaultRenderConfig(),
		Pipeline: PipelineConfig{Parallelism: 1},
		Jobx:     defaultJobxConfig(),
	}
}

// Load builds and validates the configuration
func Load() (*Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv(FileEnv)); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, configErrors.NewWithCause(ErrReadFile, err).WithDetail("path", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, configErrors.NewWithCause(ErrReadFile, err).WithDetail("path", path)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.applyEnv()
	c.Database.applyEnv()
	c.Redis.applyEnv()
	c.Storage.applyEnv()
	c.OCR.applyEnv()
	c.Render.applyEnv()
	c.Pipeline.applyEnv()
	c.Jobx.applyEnv()
}

// Validate rejects values the services cannot run with
func (c *Config) Validate() error {
	invalid := func(field string, value any) error {
		return configErrors.New(ErrInvalid).WithDetail("field", field).WithDetail("value", value)
	}

	switch {
	case c.Render.DPI <= 0:
		return invalid("render.dpi", c.Render.DPI)
	case c.Render.MaxPages < 0:
		return invalid("render.max_pages", c.Render.MaxPages)
	case c.Render.Timeout <= 0:
		return invalid("render.timeout", c.Render.Timeout)
	case c.Render.ConvertTimeout <= 0:
		return invalid("render.convert_timeout", c.Render.ConvertTimeout)
	case c.OCR.Timeout <= 0:
		return invalid("ocr.timeout", c.OCR.Timeout)
	case c.OCR.LocalProbeTimeout <= 0:
		return invalid("ocr.local_probe_timeout", c.OCR.LocalProbeTimeout)
	case c.OCR.MaxConcurrent < 0:
		return invalid("ocr.max_concurrent", c.OCR.MaxConcurrent)
	case c.OCR.GeminiRPS < 0:
		return invalid("ocr.gemini_rps", c.OCR.GeminiRPS)
	case c.Pipeline.Parallelism < 0:
		return invalid("pipeline.parallelism", c.Pipeline.Parallelism)
	case c.Jobx.Concurrency <= 0:
		return invalid("jobx.concurrency", c.Jobx.Concurrency)
	case c.Server.BodyLimitMB <= 0:
		return invalid("server.body_limit_mb", c.Server.BodyLimitMB)
	}

	switch c.OCR.ManagedProvider {
	case ManagedVertex, ManagedBedrock, ManagedNone:
	default:
		return invalid("ocr.managed_provider", c.OCR.ManagedProvider)
	}

	switch c.Storage.Mode {
	case StorageLocal:
	case StorageS3:
		if c.Storage.AWSBucket == "" {
			return invalid("storage.aws_bucket", "")
		}
	default:
		return invalid("storage.mode", c.Storage.Mode)
	}
	return nil
}
