package ocrbedrock

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Abraxas-365/pagelift/pkg/logx"
	"github.com/Abraxas-365/pagelift/pkg/ocr"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

const (
	Name = "bedrock"

	DefaultModel   = "anthropic.claude-3-5-sonnet-20241022-v2:0"
	DefaultTimeout = 30 * time.Second
	AuthTimeout    = 10 * time.Second

	authRetryAfter = time.Minute
)

// Converser is the part of the Bedrock runtime client the backend uses
type Converser interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
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

func WithRegion(region string) Option {
	return func(b *Backend) {
		b.region = region
	}
}

func WithTimeout(d time.Duration) Option {
	return func(b *Backend) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithConverser bypasses AWS config loading
func WithConverser(c Converser) Option {
	return func(b *Backend) {
		b.client = c
	}
}

// Backend sends page images to a vision model through the Bedrock Converse
// API. Missing AWS credentials make it skip silently.
type Backend struct {
	model   string
	region  string
	timeout time.Duration

	mu          sync.Mutex
	client      Converser
	failedUntil time.Time
}

func New(opts ...Option) *Backend {
	b := &Backend{
		model:   DefaultModel,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) Name() string { return Name }

// Recognize implements ocr.Backend
func (b *Backend) Recognize(ctx context.Context, req ocr.Request) ocr.Outcome {
	client, ok := b.connect(ctx)
	if !ok {
		return ocr.Skip(nil)
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(b.model),
		Messages: []types.Message{
			{
				Role: types.ConversationRoleUser,
				Content: []types.ContentBlock{
					&types.ContentBlockMemberImage{
						Value: types.ImageBlock{
							Format: imageFormat(req.MIMEType),
							Source: &types.ImageSourceMemberBytes{Value: req.Image},
						},
					},
					&types.ContentBlockMemberText{Value: ocr.ExtractionInstruction},
				},
			},
		},
		InferenceConfig: &types.InferenceConfiguration{
			Temperature: aws.Float32(0),
			MaxTokens:   aws.Int32(8192),
		},
	}

	output, err := client.Converse(ctx, input)
	if err != nil {
		return classifyError(err)
	}

	text, err := responseText(output)
	if err != nil {
		return ocr.Skip(err)
	}

	result, err := ocr.Normalize([]byte(text))
	if err != nil {
		return ocr.Skip(err)
	}
	return ocr.Success(result)
}

// connect loads the AWS config once and checks that credentials resolve
func (b *Backend) connect(ctx context.Context) (Converser, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.client != nil {
		return b.client, true
	}
	if time.Now().Before(b.failedUntil) {
		return nil, false
	}

	log := logx.WithContext(ctx).WithField("backend", Name)

	authCtx, cancel := context.WithTimeout(ctx, AuthTimeout)
	defer cancel()

	var loadOpts []func(*awsConfig.LoadOptions) error
	if b.region != "" {
		loadOpts = append(loadOpts, awsConfig.WithRegion(b.region))
	}

	cfg, err := awsConfig.LoadDefaultConfig(authCtx, loadOpts...)
	if err != nil {
		log.WithError(err).Debug("ocrbedrock: aws config unavailable")
		b.failedUntil = time.Now().Add(authRetryAfter)
		return nil, false
	}
	if _, err := cfg.Credentials.Retrieve(authCtx); err != nil {
		log.WithError(err).Debug("ocrbedrock: aws credentials unavailable")
		b.failedUntil = time.Now().Add(authRetryAfter)
		return nil, false
	}

	b.client = bedrockruntime.NewFromConfig(cfg)
	return b.client, true
}

func responseText(output *bedrockruntime.ConverseOutput) (string, error) {
	msg, ok := output.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return "", ocr.NewError(ocr.ErrMalformedResponse, nil).
			WithDetail("backend", Name).
			WithDetail("error", "unexpected output type")
	}

	var sb strings.Builder
	for _, block := range msg.Value.Content {
		if text, ok := block.(*types.ContentBlockMemberText); ok {
			sb.WriteString(text.Value)
		}
	}
	return sb.String(), nil
}

func imageFormat(mimeType string) types.ImageFormat {
	switch mimeType {
	case "image/jpeg", "image/jpg":
		return types.ImageFormatJpeg
	case "image/webp":
		return types.ImageFormatWebp
	case "image/gif":
		return types.ImageFormatGif
	default:
		return types.ImageFormatPng
	}
}
