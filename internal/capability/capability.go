// Package capability defines the generative capabilities the document
// pipeline depends on: structured content generation, illustration and
// speech synthesis. Concrete backends live in internal/providers; this
// package adapts them and classifies their failures.
package capability

import (
	"context"
	"errors"
	"fmt"

	"github.com/RafaArmero1993/MentorIA/internal/providers"
)

// Failure kinds. Every error returned by a capability matches exactly one of
// these with errors.Is, except context cancellation which is returned as is.
var (
	// ErrMalformed means the reply could not be parsed into the requested shape.
	ErrMalformed = errors.New("malformed capability response")

	// ErrUnavailable means the backend could not be reached or refused the call.
	ErrUnavailable = errors.New("capability unavailable")

	// ErrConstraint means the reply parsed but broke a declared constraint,
	// such as an enum value outside its candidate set.
	ErrConstraint = errors.New("capability response violates constraint")
)

// Error carries the failure kind alongside the underlying cause, so callers
// can match both the kind and provider errors such as *providers.RateLimitError.
type Error struct {
	Kind error
	Key  string
	Err  error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v: %v", e.Key, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// Request is one content-generation call.
type Request struct {
	// Key identifies the prompt for logs and call records (e.g. "drafter.page").
	Key string

	System string
	Prompt string
	Shape  Shape

	// Attachments ground the request in binary documents or images.
	Attachments []providers.Attachment

	// WebSearch enables search-augmented generation.
	WebSearch bool

	// Model overrides the generator's default model.
	Model string

	// Page is the 1-based page the call works on, 0 when not page scoped.
	Page int
}

// Generator produces a structured value conforming to the request's shape.
type Generator interface {
	Generate(ctx context.Context, req Request) (Value, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, req Request) (Value, error)

// Generate calls f(ctx, req).
func (f GeneratorFunc) Generate(ctx context.Context, req Request) (Value, error) {
	return f(ctx, req)
}

type runIDKey struct{}

// WithRunID tags ctx with the generation run it belongs to.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunID returns the run id stored in ctx, or "".
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}
