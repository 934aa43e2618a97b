package providers

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/h2non/filetype"
	openai "github.com/openai/openai-go/v3"
)

const (
	OpenAIImageName         = "openai-image"
	openAIImageDefaultModel = "gpt-image-1"
)

// OpenAIImageConfig holds configuration for the OpenAI Images client.
type OpenAIImageConfig struct {
	APIKey     string
	Model      string
	Quality    string // "low", "medium", "high"
	MaxRetries int
	Timeout    time.Duration
	BaseURL    string       // Optional (tests)
	HTTPClient *http.Client // Optional (tests)
}

// OpenAIImageClient implements ImageProvider using the OpenAI Images API.
type OpenAIImageClient struct {
	model   string
	quality string
	client  openai.Client
}

// NewOpenAIImageClient creates a new OpenAI image client.
func NewOpenAIImageClient(cfg OpenAIImageConfig) *OpenAIImageClient {
	if cfg.Model == "" {
		cfg.Model = openAIImageDefaultModel
	}
	if cfg.Quality == "" {
		cfg.Quality = "medium"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 300 * time.Second
	}
	return &OpenAIImageClient{
		model:   cfg.Model,
		quality: cfg.Quality,
		client:  newOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.HTTPClient, cfg.Timeout, cfg.MaxRetries),
	}
}

// Name returns the provider identifier.
func (c *OpenAIImageClient) Name() string {
	return OpenAIImageName
}

// GenerateImage renders one image for the prompt at the requested aspect.
func (c *OpenAIImageClient) GenerateImage(ctx context.Context, req *ImageRequest) (*ImageResult, error) {
	start := time.Now()

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		err := fmt.Errorf("prompt is required")
		return &ImageResult{ErrorMessage: err.Error(), ExecutionTime: time.Since(start)}, err
	}

	params := openai.ImageGenerateParams{
		Prompt:  prompt,
		Model:   openai.ImageModel(firstNonEmpty(req.Model, c.model)),
		Size:    imageSize(req.Aspect),
		Quality: openai.ImageGenerateParamsQuality(c.quality),
		N:       openai.Int(1),
	}

	resp, err := c.client.Images.Generate(ctx, params)
	if err != nil {
		err = mapOpenAIError("OpenAI Images", err)
		return &ImageResult{ErrorMessage: err.Error(), ExecutionTime: time.Since(start)}, err
	}
	if resp == nil || len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		err := fmt.Errorf("image response contained no data")
		return &ImageResult{ErrorMessage: err.Error(), ExecutionTime: time.Since(start)}, err
	}

	img, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		err = fmt.Errorf("failed to decode image payload: %w", err)
		return &ImageResult{ErrorMessage: err.Error(), ExecutionTime: time.Since(start)}, err
	}

	mime := "image/png"
	if kind, err := filetype.Match(img); err == nil && kind != filetype.Unknown {
		mime = kind.MIME.Value
	}

	return &ImageResult{
		Success:       true,
		Image:         img,
		MIME:          mime,
		ExecutionTime: time.Since(start),
	}, nil
}

// imageSize maps the abstract aspect to a supported canvas: wide is 3:2, the
// closest landscape size the API offers to 16:9.
func imageSize(aspect string) openai.ImageGenerateParamsSize {
	if aspect == AspectWide {
		return openai.ImageGenerateParamsSize("1536x1024")
	}
	return openai.ImageGenerateParamsSize("1024x1024")
}

var _ ImageProvider = (*OpenAIImageClient)(nil)
