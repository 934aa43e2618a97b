package capability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/RafaArmero1993/MentorIA/internal/llmcall"
	"github.com/RafaArmero1993/MentorIA/internal/providers"
)

// LLMConfig configures an LLMGenerator.
type LLMConfig struct {
	Client providers.LLMClient

	// Model is the default model; empty uses the client's default.
	Model       string
	Temperature float64
	// Timeout bounds each call; 0 means no deadline beyond ctx.
	Timeout time.Duration

	Recorder *llmcall.Recorder
	Logger   *slog.Logger
}

// LLMGenerator implements Generator on top of a chat client with structured output.
type LLMGenerator struct {
	client      providers.LLMClient
	model       string
	temperature float64
	timeout     time.Duration
	recorder    *llmcall.Recorder
	logger      *slog.Logger
}

// NewLLMGenerator creates a generator backed by cfg.Client.
func NewLLMGenerator(cfg LLMConfig) *LLMGenerator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMGenerator{
		client:      cfg.Client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		recorder:    cfg.Recorder,
		logger:      logger,
	}
}

// Generate sends the request and checks the reply against req.Shape.
func (g *LLMGenerator) Generate(ctx context.Context, req Request) (Value, error) {
	if g.client == nil {
		return nil, &Error{Kind: ErrUnavailable, Key: req.Key, Err: errors.New("no LLM client configured")}
	}

	model := req.Model
	if model == "" {
		model = g.model
	}

	var messages []providers.Message
	if req.System != "" {
		messages = append(messages, providers.Message{Role: "system", Content: req.System})
	}
	messages = append(messages, providers.Message{
		Role:        "user",
		Content:     req.Prompt,
		Attachments: req.Attachments,
	})

	chatReq := &providers.ChatRequest{
		Messages:       messages,
		Model:          model,
		Temperature:    g.temperature,
		Timeout:        g.timeout,
		ResponseFormat: req.Shape.ResponseFormat(),
		WebSearch:      req.WebSearch,
	}

	g.logger.Debug("capability call", "key", req.Key, "model", model, "page", req.Page,
		"attachments", len(req.Attachments), "web_search", req.WebSearch)

	result, err := g.client.Chat(ctx, chatReq)
	g.recorder.Record(result, llmcall.RecordOptions{
		RunID:     RunID(ctx),
		Page:      req.Page,
		PromptKey: req.Key,
		Err:       err,
	})
	if err != nil {
		return nil, g.classify(ctx, req, err)
	}

	if len(req.Shape.Fields) == 0 {
		return Value{"content": result.Content}, nil
	}

	raw := result.ParsedJSON
	if len(raw) == 0 {
		if raw, err = providers.ParseStructuredJSON(result.Content); err != nil {
			return nil, &Error{Kind: ErrMalformed, Key: req.Key, Err: err}
		}
	}
	v, err := req.Shape.Check(raw)
	if err != nil {
		return nil, withKey(err, req.Key)
	}
	return v, nil
}

// classify maps a client error onto the capability failure kinds.
func (g *LLMGenerator) classify(ctx context.Context, req Request, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", req.Key, ctxErr)
	}

	var soErr *providers.StructuredOutputError
	if errors.As(err, &soErr) {
		// The provider only knows the reply failed its schema. A reply that
		// parses but names a value outside an enum is a constraint breach.
		if raw, perr := providers.ParseStructuredJSON(soErr.Content); perr == nil {
			if _, cerr := req.Shape.Check(raw); errors.Is(cerr, ErrConstraint) {
				return withKey(cerr, req.Key)
			}
		}
		return &Error{Kind: ErrMalformed, Key: req.Key, Err: err}
	}

	return &Error{Kind: ErrUnavailable, Key: req.Key, Err: err}
}

func withKey(err error, key string) error {
	var capErr *Error
	if errors.As(err, &capErr) {
		return &Error{Kind: capErr.Kind, Key: key, Err: capErr.Err}
	}
	return err
}

var _ Generator = (*LLMGenerator)(nil)
