package providers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RateLimitError is returned when a provider answers 429.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
	StatusCode int
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// IsRateLimitError unwraps err looking for a RateLimitError.
func IsRateLimitError(err error) (*RateLimitError, bool) {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return rl, true
	}
	return nil, false
}

// parseRetryAfter accepts both delta-seconds and HTTP-date forms.
func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// StatusError is a non-retryable HTTP failure from a provider.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return e.Provider + " error (status " + strconv.Itoa(e.StatusCode) + "): " + e.Body
}

// StructuredOutputError is returned when the model reply cannot be parsed or
// does not validate against the requested schema after repair attempts.
type StructuredOutputError struct {
	Content string
	Err     error
}

func (e *StructuredOutputError) Error() string {
	return "structured output: " + e.Err.Error()
}

func (e *StructuredOutputError) Unwrap() error {
	return e.Err
}

// IsStructuredOutputError reports whether err is a StructuredOutputError.
func IsStructuredOutputError(err error) bool {
	var so *StructuredOutputError
	return errors.As(err, &so)
}
