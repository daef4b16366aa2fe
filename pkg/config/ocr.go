package config

import "time"

// Managed cloud providers for the middle slot of the OCR chain
const (
	ManagedVertex  = "vertex"
	ManagedBedrock = "bedrock"
	ManagedNone    = "none"
)

// OCRConfig configures the backend chain: local service, managed cloud,
// public API, in that order.
type OCRConfig struct {
	LocalURL          string        `yaml:"local_url"`
	LocalProbeTimeout time.Duration `yaml:"local_probe_timeout"`
	LocalTimeout      time.Duration `yaml:"local_timeout"`

	ManagedProvider string        `yaml:"managed_provider"`
	Vertex          VertexConfig  `yaml:"vertex"`
	Bedrock         BedrockConfig `yaml:"bedrock"`

	GeminiAPIKey string  `yaml:"gemini_api_key"`
	GeminiModel  string  `yaml:"gemini_model"`
	GeminiRPS    float64 `yaml:"gemini_rps"`

	Timeout       time.Duration `yaml:"timeout"`
	MaxConcurrent int           `yaml:"max_concurrent"`
}

type VertexConfig struct {
	Project         string `yaml:"project"`
	Location        string `yaml:"location"`
	CredentialsJSON string `yaml:"credentials_json"`
	CredentialsFile string `yaml:"credentials_file"`
	Model           string `yaml:"model"`
}

type BedrockConfig struct {
	Region string `yaml:"region"`
	Model  string `yaml:"model"`
}

// RenderConfig configures page rasterization and DOCX conversion
type RenderConfig struct {
	DPI            int           `yaml:"dpi"`
	PdftoppmPath   string        `yaml:"pdftoppm_path"`
	Timeout        time.Duration `yaml:"timeout"`
	SofficePath    string        `yaml:"soffice_path"`
	ConvertTimeout time.Duration `yaml:"convert_timeout"`
	MaxPages       int           `yaml:"max_pages"`
}

type PipelineConfig struct {
	Parallelism int `yaml:"parallelism"`
}

func defaultOCRConfig() OCRConfig {
	return OCRConfig{
		LocalProbeTimeout: 2 * time.Second,
		LocalTimeout:      30 * time.Second,
		ManagedProvider:   ManagedVertex,
		Vertex: VertexConfig{
			Location: "us-central1",
			Model:    "gemini-2.0-flash",
		},
		Bedrock: BedrockConfig{
			Region: "us-east-1",
			Model:  "anthropic.claude-3-5-sonnet-20241022-v2:0",
		},
		GeminiModel:   "gemini-2.0-flash",
		GeminiRPS:     1,
		Timeout:       30 * time.Second,
		MaxConcurrent: 4,
	}
}

func defaultRenderConfig() RenderConfig {
	return RenderConfig{
		DPI:            150,
		PdftoppmPath:   "pdftoppm",
		Timeout:        60 * time.Second,
		SofficePath:    "soffice",
		ConvertTimeout: 120 * time.Second,
		MaxPages:       200,
	}
}

func (c *OCRConfig) applyEnv() {
	c.LocalURL = getEnv("LOCAL_OCR_URL", c.LocalURL)
	c.LocalProbeTimeout = getEnvDuration("LOCAL_OCR_PROBE_TIMEOUT", c.LocalProbeTimeout)
	c.LocalTimeout = getEnvDuration("LOCAL_OCR_TIMEOUT", c.LocalTimeout)

	c.ManagedProvider = getEnv("OCR_MANAGED_PROVIDER", c.ManagedProvider)
	c.Vertex.Project = getEnv("VERTEX_PROJECT", c.Vertex.Project)
	c.Vertex.Location = getEnv("VERTEX_LOCATION", c.Vertex.Location)
	c.Vertex.CredentialsJSON = getEnv("VERTEX_CREDENTIALS_JSON", c.Vertex.CredentialsJSON)
	c.Vertex.CredentialsFile = getEnv("VERTEX_CREDENTIALS_FILE", c.Vertex.CredentialsFile)
	c.Vertex.Model = getEnv("VERTEX_MODEL", c.Vertex.Model)
	c.Bedrock.Region = getEnv("BEDROCK_REGION", c.Bedrock.Region)
	c.Bedrock.Model = getEnv("BEDROCK_MODEL", c.Bedrock.Model)

	c.GeminiAPIKey = getEnv("GEMINI_API_KEY", c.GeminiAPIKey)
	c.GeminiModel = getEnv("GEMINI_MODEL", c.GeminiModel)
	c.GeminiRPS = getEnvFloat("GEMINI_RPS", c.GeminiRPS)

	c.Timeout = getEnvDuration("OCR_TIMEOUT", c.Timeout)
	c.MaxConcurrent = getEnvInt("OCR_MAX_CONCURRENT", c.MaxConcurrent)
}

func (c *RenderConfig) applyEnv() {
	c.DPI = getEnvInt("RENDER_DPI", c.DPI)
	c.PdftoppmPath = getEnv("PDFTOPPM_PATH", c.PdftoppmPath)
	c.Timeout = getEnvDuration("RENDER_TIMEOUT", c.Timeout)
	c.SofficePath = getEnv("SOFFICE_PATH", c.SofficePath)
	c.ConvertTimeout = getEnvDuration("CONVERT_TIMEOUT", c.ConvertTimeout)
	c.MaxPages = getEnvInt("MAX_PAGES", c.MaxPages)
}

func (c *PipelineConfig) applyEnv() {
	c.Parallelism = getEnvInt("PIPELINE_PARALLELISM", c.Parallelism)
}
