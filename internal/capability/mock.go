package capability

import (
	"context"
	"fmt"
	"sync"
)

// MockGenerator is a Generator for tests. Handler answers each request; the
// default handler fills every shape field with a placeholder.
type MockGenerator struct {
	Handler func(req Request) (Value, error)

	mu       sync.Mutex
	requests []Request
}

// Generate records req and delegates to Handler.
func (m *MockGenerator) Generate(ctx context.Context, req Request) (Value, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	n := len(m.requests)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Handler != nil {
		return m.Handler(req)
	}

	v := make(Value, len(req.Shape.Fields))
	for _, f := range req.Shape.Fields {
		switch f.Kind {
		case KindInteger:
			v[f.Name] = 1
		case KindEnum:
			v[f.Name] = f.Values[0]
		default:
			v[f.Name] = fmt.Sprintf("%s %d", f.Name, n)
		}
	}
	return v, nil
}

// Requests returns every request received, in order.
func (m *MockGenerator) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

// RequestsFor returns the requests made with the given key.
func (m *MockGenerator) RequestsFor(key string) []Request {
	var out []Request
	for _, r := range m.Requests() {
		if r.Key == key {
			out = append(out, r)
		}
	}
	return out
}

// MockIllustrator returns a fixed PNG and records prompts.
type MockIllustrator struct {
	Err error

	mu    sync.Mutex
	calls []IllustrateCall
}

// IllustrateCall is one recorded Illustrate invocation.
type IllustrateCall struct {
	Prompt string
	Aspect string
}

// Illustrate records the call and returns a tiny PNG payload.
func (m *MockIllustrator) Illustrate(_ context.Context, prompt, aspect string) (Image, error) {
	m.mu.Lock()
	m.calls = append(m.calls, IllustrateCall{Prompt: prompt, Aspect: aspect})
	m.mu.Unlock()
	if m.Err != nil {
		return Image{}, m.Err
	}
	return Image{Data: []byte("\x89PNG\r\n\x1a\nmock"), MIME: "image/png"}, nil
}

// Calls returns the recorded calls.
func (m *MockIllustrator) Calls() []IllustrateCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]IllustrateCall(nil), m.calls...)
}

// MockSpeaker returns fixed audio and records requests.
type MockSpeaker struct {
	Err error

	mu       sync.Mutex
	requests []SpeechRequest
}

// Synthesize records req and returns fake mp3 bytes.
func (m *MockSpeaker) Synthesize(_ context.Context, req SpeechRequest) (Audio, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.Err != nil {
		return Audio{}, m.Err
	}
	return Audio{Data: []byte("ID3" + req.Text), Format: "mp3"}, nil
}

// Requests returns the recorded requests.
func (m *MockSpeaker) Requests() []SpeechRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SpeechRequest(nil), m.requests...)
}
