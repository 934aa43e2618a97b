// Package llmcall provides LLM call recording and querying for traceability.
// Every content-generation call is recorded with its prompt key, response, and metrics.
package llmcall

import (
	"time"

	"github.com/google/uuid"

	"github.com/RafaArmero1993/MentorIA/internal/providers"
)

// Call represents a recorded LLM API call.
type Call struct {
	// Unique identifier
	ID string `json:"id" yaml:"id"`

	// Timing
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	LatencyMs int       `json:"latency_ms" yaml:"latency_ms"`

	// Context references
	RunID string `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Page  int    `json:"page,omitempty" yaml:"page,omitempty"`

	// Prompt traceability
	PromptKey string `json:"prompt_key" yaml:"prompt_key"`

	// Model info
	Provider string `json:"provider" yaml:"provider"`
	Model    string `json:"model" yaml:"model"`

	// Token usage
	InputTokens  int     `json:"input_tokens" yaml:"input_tokens"`
	OutputTokens int     `json:"output_tokens" yaml:"output_tokens"`
	CostUSD      float64 `json:"cost_usd" yaml:"cost_usd"`

	// Response
	Response string `json:"response" yaml:"response"`
	Attempts int    `json:"attempts" yaml:"attempts"`

	// Status
	Success bool   `json:"success" yaml:"success"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// RecordOptions provides context for recording an LLM call.
type RecordOptions struct {
	// Context references (all optional)
	RunID string
	Page  int

	// Prompt identification (required for traceability)
	PromptKey string

	// Err is the error returned alongside the result, if any.
	Err error
}

// FromChatResult creates a Call from a ChatResult.
// Returns nil if result is nil.
func FromChatResult(result *providers.ChatResult, opts RecordOptions) *Call {
	if result == nil {
		return nil
	}

	call := &Call{
		ID:           uuid.New().String(),
		Timestamp:    time.Now(),
		LatencyMs:    int(result.ExecutionTime.Milliseconds()),
		RunID:        opts.RunID,
		Page:         opts.Page,
		PromptKey:    opts.PromptKey,
		Provider:     result.Provider,
		Model:        result.ModelUsed,
		InputTokens:  result.PromptTokens,
		OutputTokens: result.CompletionTokens,
		CostUSD:      result.CostUSD,
		Response:     result.Content,
		Attempts:     result.Attempts,
		Success:      result.Success && opts.Err == nil,
	}

	switch {
	case opts.Err != nil:
		call.Error = opts.Err.Error()
	case !result.Success:
		call.Error = result.ErrorMessage
	}

	return call
}
