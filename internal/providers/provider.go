package providers

import (
	"context"
	"encoding/json"
	"time"
)

// LLMClient is the interface for chat/completion requests.
type LLMClient interface {
	// Chat sends a chat completion request.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error)

	// Name returns the client identifier (e.g., "openrouter").
	Name() string
}

// TTSProvider converts text into audio.
type TTSProvider interface {
	Name() string
	Generate(ctx context.Context, req *TTSRequest) (*TTSResult, error)
}

// ImageProvider produces raster illustrations from a text prompt.
type ImageProvider interface {
	Name() string
	GenerateImage(ctx context.Context, req *ImageRequest) (*ImageResult, error)
}

// VoicesLister is implemented by TTS providers that can enumerate voices.
type VoicesLister interface {
	ListVoices(ctx context.Context) ([]Voice, error)
}

// Message represents a chat message.
type Message struct {
	Role        string       `json:"role"` // "system", "user", "assistant"
	Content     string       `json:"content"`
	Images      [][]byte     `json:"-"` // For vision models (base64 encoded in request)
	Attachments []Attachment `json:"-"`
}

// Attachment is a grounding document sent alongside a user message.
// MIME decides how it is encoded on the wire (image_url vs file part).
type Attachment struct {
	Name string
	MIME string
	Data []byte
}

// ResponseFormat specifies structured output format.
type ResponseFormat struct {
	Type       string          `json:"type"` // "json_schema"
	JSONSchema json.RawMessage `json:"json_schema,omitempty"`
}

// ChatRequest is a request to an LLM.
type ChatRequest struct {
	// Required
	Messages []Message `json:"messages"`

	// Model selection (uses client default if empty)
	Model string `json:"model,omitempty"`

	// Generation parameters
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Timeout     time.Duration

	// Structured output
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`

	// WebSearch enables search-augmented generation where the provider supports it.
	WebSearch bool `json:"-"`

	// Request tracking
	RequestID string `json:"-"`
}

// ChatResult is the complete response from an LLM call.
type ChatResult struct {
	// Response content
	Content    string          `json:"content"`
	ParsedJSON json.RawMessage `json:"parsed_json,omitempty"` // Parsed if ResponseFormat was set

	// Token counts
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`

	// Cost and timing
	CostUSD       float64       `json:"cost_usd"`
	ExecutionTime time.Duration `json:"execution_time"`
	TotalTime     time.Duration `json:"total_time"`

	// Provider info
	Provider  string `json:"provider"`
	ModelUsed string `json:"model_used"`

	// Request tracking
	RequestID string `json:"request_id"`
	Attempts  int    `json:"attempts"`

	// Success/error
	Success      bool   `json:"success"`
	ErrorType    string `json:"error_type,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// TTSRequest is a speech synthesis request. Empty fields fall back to the
// provider defaults.
type TTSRequest struct {
	Text         string
	Voice        string
	Model        string
	Format       string
	Language     string // ISO 639-1 code, e.g. "es"
	Instructions string
}

// TTSResult is the response from a TTS provider.
type TTSResult struct {
	Success       bool          `json:"success"`
	Audio         []byte        `json:"-"`
	DurationMS    int           `json:"duration_ms"`
	Format        string        `json:"format"`
	SampleRate    int           `json:"sample_rate,omitempty"`
	CostUSD       float64       `json:"cost_usd"`
	CharCount     int           `json:"char_count"`
	ExecutionTime time.Duration `json:"execution_time"`
	RequestID     string        `json:"request_id,omitempty"`
	ErrorMessage  string        `json:"error_message,omitempty"`
}

// Voice describes a selectable TTS voice.
type Voice struct {
	VoiceID     string `json:"voice_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ImageRequest asks for one illustration. Aspect is "wide" or "square".
type ImageRequest struct {
	Prompt string
	Aspect string
	Model  string
}

// ImageResult carries the decoded image bytes.
type ImageResult struct {
	Success       bool          `json:"success"`
	Image         []byte        `json:"-"`
	MIME          string        `json:"mime"`
	ExecutionTime time.Duration `json:"execution_time"`
	ErrorMessage  string        `json:"error_message,omitempty"`
}

const (
	AspectWide   = "wide"
	AspectSquare = "square"
)
