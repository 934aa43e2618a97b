package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
)

const (
	OpenRouterName    = "openrouter"
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"
)

// OpenRouterConfig holds configuration for the OpenRouter client.
type OpenRouterConfig struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	Timeout      time.Duration
	// Rate limiting
	RPM        int           // Requests per minute (default: 120)
	MaxRetries int           // Max HTTP attempts (default: 3)
	RetryDelay time.Duration // Base delay between retries (default: 1s)
}

// OpenRouterClient implements LLMClient using the OpenRouter API.
type OpenRouterClient struct {
	apiKey       string
	baseURL      string
	defaultModel string
	client       *http.Client
	limiter      *RateLimiter
	rpm          int
	maxRetries   int
	retryDelay   time.Duration
}

// NewOpenRouterClient creates a new OpenRouter client.
func NewOpenRouterClient(cfg OpenRouterConfig) *OpenRouterClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = OpenRouterBaseURL
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "google/gemini-2.5-flash"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 300 * time.Second
	}
	if cfg.RPM == 0 {
		cfg.RPM = 120
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}

	return &OpenRouterClient{
		apiKey:       cfg.APIKey,
		baseURL:      cfg.BaseURL,
		defaultModel: cfg.DefaultModel,
		client:       &http.Client{Timeout: cfg.Timeout},
		limiter:      NewRateLimiter(cfg.RPM),
		rpm:          cfg.RPM,
		maxRetries:   cfg.MaxRetries,
		retryDelay:   cfg.RetryDelay,
	}
}

// Name returns the client identifier.
func (c *OpenRouterClient) Name() string {
	return OpenRouterName
}

// Chat sends a chat completion request. When a ResponseFormat is set the
// reply is parsed and validated locally; invalid replies are sent back to the
// model for repair up to maxStructuredRepairAttempts times before a
// StructuredOutputError is returned.
func (c *OpenRouterClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}

	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	result := &ChatResult{
		RequestID: requestID,
		Provider:  OpenRouterName,
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	wireFormat, err := adaptedResponseFormat(model, req.ResponseFormat)
	if err != nil {
		return result, err
	}

	orReq := openRouterRequest{
		Model:          model,
		Messages:       make([]openRouterMessage, 0, len(req.Messages)+1),
		Temperature:    req.Temperature,
		MaxTokens:      req.MaxTokens,
		ResponseFormat: wireFormat,
		Usage:          &openRouterUsageRequest{Include: true},
	}
	if req.WebSearch {
		orReq.Plugins = []openRouterPlugin{{ID: "web"}}
	}
	if req.ResponseFormat != nil && wireFormat == nil {
		orReq.Messages = append(orReq.Messages, openRouterMessage{
			Role:    "system",
			Content: schemaInstruction(req.ResponseFormat.JSONSchema),
		})
	}
	for _, m := range req.Messages {
		orReq.Messages = append(orReq.Messages, toOpenRouterMessage(m))
	}

	for attempt := 0; ; attempt++ {
		result.Attempts = attempt + 1

		orResp, httpErr := c.doRequest(ctx, "/chat/completions", &orReq)
		if httpErr != nil {
			result.Success = false
			result.ErrorType = "http_error"
			result.ErrorMessage = httpErr.Error()
			result.TotalTime = time.Since(start)
			return result, httpErr
		}
		if orResp.Error != nil {
			err := fmt.Errorf("OpenRouter model error: %s", orResp.Error.Message)
			result.ErrorType = "model_error"
			result.ErrorMessage = err.Error()
			result.TotalTime = time.Since(start)
			return result, err
		}
		if len(orResp.Choices) == 0 {
			result.ErrorType = "empty_response"
			result.ErrorMessage = "no choices in response"
			result.TotalTime = time.Since(start)
			return result, fmt.Errorf("no choices in response")
		}

		content := messageText(orResp.Choices[0].Message.Content)
		result.Content = content
		result.ModelUsed = orResp.Model
		result.PromptTokens += orResp.Usage.PromptTokens
		result.CompletionTokens += orResp.Usage.CompletionTokens
		result.TotalTokens += orResp.Usage.TotalTokens
		result.CostUSD += orResp.Usage.Cost
		result.ExecutionTime = time.Since(start)
		result.TotalTime = result.ExecutionTime

		if req.ResponseFormat == nil {
			result.Success = true
			return result, nil
		}

		parsed, issue := ParseStructuredJSON(content)
		if issue == nil {
			issue = ValidateStructuredJSON(req.ResponseFormat.JSONSchema, parsed)
		}
		if issue == nil {
			result.Success = true
			result.ParsedJSON = parsed
			return result, nil
		}

		if attempt >= maxStructuredRepairAttempts {
			result.Success = false
			result.ErrorType = "structured_output"
			result.ErrorMessage = issue.Error()
			return result, &StructuredOutputError{Content: content, Err: issue}
		}

		orReq.Messages = append(orReq.Messages,
			openRouterMessage{Role: "assistant", Content: content},
			openRouterMessage{Role: "user", Content: structuredRepairPrompt(req.ResponseFormat.JSONSchema, content, issue)},
		)
	}
}

func toOpenRouterMessage(m Message) openRouterMessage {
	if len(m.Images) == 0 && len(m.Attachments) == 0 {
		return openRouterMessage{Role: m.Role, Content: m.Content}
	}

	parts := []openRouterContent{{Type: "text", Text: m.Content}}
	for _, img := range m.Images {
		parts = append(parts, imagePart(img, ""))
	}
	for _, att := range m.Attachments {
		mime := att.MIME
		if mime == "" {
			mime = sniffMIME(att.Data)
		}
		if mime == "application/pdf" {
			name := att.Name
			if name == "" {
				name = "document.pdf"
			}
			parts = append(parts, openRouterContent{
				Type: "file",
				File: &openRouterFile{
					Filename: name,
					FileData: dataURL(mime, att.Data),
				},
			})
			continue
		}
		parts = append(parts, imagePart(att.Data, mime))
	}
	return openRouterMessage{Role: m.Role, Content: parts}
}

func imagePart(data []byte, mime string) openRouterContent {
	if mime == "" {
		mime = sniffMIME(data)
	}
	return openRouterContent{
		Type:     "image_url",
		ImageURL: &openRouterImageURL{URL: dataURL(mime, data)},
	}
}

// sniffMIME detects the attachment type from magic bytes, defaulting to JPEG.
func sniffMIME(data []byte) string {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return "image/jpeg"
	}
	return kind.MIME.Value
}

func dataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func messageText(content any) string {
	switch v := content.(type) {
	case nil:
		return ""
	case string:
		return v
	case []any:
		// Some backends return content as parts.
		var buf bytes.Buffer
		for _, p := range v {
			if m, ok := p.(map[string]any); ok {
				if s, ok := m["text"].(string); ok {
					buf.WriteString(s)
				}
			}
		}
		return buf.String()
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}

// doRequest makes an HTTP request to OpenRouter with retry logic.
func (c *OpenRouterClient) doRequest(ctx context.Context, path string, orReq *openRouterRequest) (*openRouterResponse, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		// Inject nonce for retries on 413/422 (makes request "different")
		if attempt > 0 && lastErr != nil {
			c.injectNonce(orReq, attempt)
		}

		bodyBytes, err := json.Marshal(orReq)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(bodyBytes))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("HTTP-Referer", "https://github.com/RafaArmero1993/MentorIA")
		req.Header.Set("X-Title", "MentorIA")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			c.sleepWithJitter(ctx, attempt)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			c.sleepWithJitter(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
			c.limiter.Record429(retryAfter)
			lastErr = &RateLimitError{
				Message:    fmt.Sprintf("OpenRouter rate limited: %s", string(respBody)),
				RetryAfter: retryAfter,
				StatusCode: resp.StatusCode,
			}
			c.sleepWithJitter(ctx, attempt)
			continue
		}
		if c.shouldRetry(resp.StatusCode) {
			lastErr = &StatusError{Provider: "OpenRouter", StatusCode: resp.StatusCode, Body: string(respBody)}
			c.sleepWithJitter(ctx, attempt)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, &StatusError{Provider: "OpenRouter", StatusCode: resp.StatusCode, Body: string(respBody)}
		}

		var orResp openRouterResponse
		if err := json.Unmarshal(respBody, &orResp); err != nil {
			return nil, fmt.Errorf("failed to unmarshal response: %w", err)
		}
		return &orResp, nil
	}

	return nil, fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, lastErr)
}

// shouldRetry returns true for status codes that should be retried.
func (c *OpenRouterClient) shouldRetry(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestEntityTooLarge, http.StatusUnprocessableEntity, http.StatusTooManyRequests:
		return true
	default:
		return statusCode >= 500
	}
}

// injectNonce adds a unique comment to the last user message so a retried
// request is not served from a poisoned cache.
func (c *OpenRouterClient) injectNonce(req *openRouterRequest, attempt int) {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role != "user" {
			continue
		}
		comment := fmt.Sprintf("\n<!-- retry_%d_id: %s -->", attempt, uuid.New().String()[:16])
		switch content := req.Messages[i].Content.(type) {
		case string:
			req.Messages[i].Content = content + comment
		case []openRouterContent:
			if len(content) > 0 && content[0].Type == "text" {
				content[0].Text += comment
			}
		}
		return
	}
}

// sleepWithJitter sleeps with exponential backoff plus jitter, respecting ctx.
func (c *OpenRouterClient) sleepWithJitter(ctx context.Context, attempt int) {
	baseDelay := c.retryDelay * time.Duration(1<<attempt)
	if baseDelay > 10*time.Second {
		baseDelay = 10 * time.Second
	}
	jittered := time.Duration(float64(baseDelay) * (0.8 + 0.5*rand.Float64()))

	select {
	case <-ctx.Done():
	case <-time.After(jittered):
	}
}

var _ LLMClient = (*OpenRouterClient)(nil)
