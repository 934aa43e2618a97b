package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const MockClientName = "mock"

// MockClient is an LLMClient for testing. Responses are served in order; the
// last one repeats once the script is exhausted.
type MockClient struct {
	Latency    time.Duration
	ShouldFail bool
	FailAfter  int // Fail after N requests (0 = never)
	Responses  []string

	mu       sync.Mutex
	requests []*ChatRequest
	count    atomic.Int64
}

// NewMockClient creates a mock client that answers with the given contents.
func NewMockClient(responses ...string) *MockClient {
	if len(responses) == 0 {
		responses = []string{"mock response"}
	}
	return &MockClient{Responses: responses}
}

// Name returns the client identifier.
func (c *MockClient) Name() string {
	return MockClientName
}

// Chat serves the next scripted response. Structured requests get their
// reply parsed and validated like a real client would.
func (c *MockClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()
	n := int(c.count.Add(1))

	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()

	result := &ChatResult{
		RequestID: fmt.Sprintf("mock-%d", n),
		Provider:  MockClientName,
		ModelUsed: req.Model,
		Attempts:  1,
	}

	if c.ShouldFail || (c.FailAfter > 0 && n > c.FailAfter) {
		result.ErrorType = "mock_failure"
		result.ErrorMessage = "mock client configured to fail"
		return result, fmt.Errorf("mock client configured to fail")
	}

	if c.Latency > 0 {
		select {
		case <-time.After(c.Latency):
		case <-ctx.Done():
			result.ErrorType = "context_cancelled"
			result.ErrorMessage = ctx.Err().Error()
			return result, ctx.Err()
		}
	}

	idx := n - 1
	if idx >= len(c.Responses) {
		idx = len(c.Responses) - 1
	}
	content := c.Responses[idx]
	result.Content = content
	result.ExecutionTime = time.Since(start)
	result.TotalTime = result.ExecutionTime

	if req.ResponseFormat != nil {
		parsed, err := ParseStructuredJSON(content)
		if err == nil {
			err = ValidateStructuredJSON(req.ResponseFormat.JSONSchema, parsed)
		}
		if err != nil {
			result.ErrorType = "structured_output"
			result.ErrorMessage = err.Error()
			return result, &StructuredOutputError{Content: content, Err: err}
		}
		result.ParsedJSON = json.RawMessage(parsed)
	}

	result.Success = true
	return result, nil
}

// Requests returns a copy of every request received.
func (c *MockClient) Requests() []*ChatRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*ChatRequest(nil), c.requests...)
}

// RequestCount returns the number of requests made.
func (c *MockClient) RequestCount() int64 {
	return c.count.Load()
}

var _ LLMClient = (*MockClient)(nil)

// MockTTSProvider returns fixed audio bytes and records requests.
type MockTTSProvider struct {
	Audio      []byte
	ShouldFail bool

	mu       sync.Mutex
	requests []TTSRequest
}

// NewMockTTSProvider creates a mock TTS provider.
func NewMockTTSProvider() *MockTTSProvider {
	return &MockTTSProvider{Audio: []byte("ID3mock-audio")}
}

// Name returns the provider identifier.
func (p *MockTTSProvider) Name() string {
	return "mock-tts"
}

// Generate returns the configured audio.
func (p *MockTTSProvider) Generate(_ context.Context, req *TTSRequest) (*TTSResult, error) {
	p.mu.Lock()
	p.requests = append(p.requests, *req)
	p.mu.Unlock()

	if p.ShouldFail {
		return &TTSResult{ErrorMessage: "mock tts failure"}, fmt.Errorf("mock tts failure")
	}
	return &TTSResult{
		Success:   true,
		Audio:     p.Audio,
		Format:    "mp3",
		CharCount: len(req.Text),
	}, nil
}

// Requests returns a copy of every request received.
func (p *MockTTSProvider) Requests() []TTSRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]TTSRequest(nil), p.requests...)
}

var _ TTSProvider = (*MockTTSProvider)(nil)

// MockImageProvider returns a fixed image and records requests.
type MockImageProvider struct {
	Image      []byte
	ShouldFail bool

	mu       sync.Mutex
	requests []ImageRequest
}

// NewMockImageProvider creates a mock image provider returning a PNG header.
func NewMockImageProvider() *MockImageProvider {
	return &MockImageProvider{Image: []byte("\x89PNG\r\n\x1a\nmock")}
}

// Name returns the provider identifier.
func (p *MockImageProvider) Name() string {
	return "mock-image"
}

// GenerateImage returns the configured image.
func (p *MockImageProvider) GenerateImage(_ context.Context, req *ImageRequest) (*ImageResult, error) {
	p.mu.Lock()
	p.requests = append(p.requests, *req)
	p.mu.Unlock()

	if p.ShouldFail {
		return &ImageResult{ErrorMessage: "mock image failure"}, fmt.Errorf("mock image failure")
	}
	return &ImageResult{Success: true, Image: p.Image, MIME: "image/png"}, nil
}

// Requests returns a copy of every request received.
func (p *MockImageProvider) Requests() []ImageRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ImageRequest(nil), p.requests...)
}

var _ ImageProvider = (*MockImageProvider)(nil)
