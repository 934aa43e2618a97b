package llmcall

import (
	"sort"
	"sync"
	"time"

	"github.com/RafaArmero1993/MentorIA/internal/providers"
)

// DefaultCapacity bounds how many calls a Recorder keeps.
const DefaultCapacity = 1000

// QueryFilter specifies filters for listing LLM calls.
type QueryFilter struct {
	RunID     string
	PromptKey string
	Provider  string
	Model     string
	After     *time.Time
	Before    *time.Time
	Success   *bool
	Limit     int
	Offset    int
}

// Recorder keeps the most recent LLM calls in memory. Oldest calls are
// evicted once capacity is reached. A nil *Recorder discards everything.
type Recorder struct {
	mu       sync.RWMutex
	calls    []Call
	capacity int
}

// NewRecorder creates a new LLM call recorder.
func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Recorder{capacity: capacity}
}

// Record captures an LLM call.
func (r *Recorder) Record(result *providers.ChatResult, opts RecordOptions) {
	r.RecordCall(FromChatResult(result, opts))
}

// RecordCall captures an already-constructed Call.
func (r *Recorder) RecordCall(call *Call) {
	if r == nil || call == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, *call)
	if over := len(r.calls) - r.capacity; over > 0 {
		r.calls = append([]Call(nil), r.calls[over:]...)
	}
}

// Get retrieves a single LLM call by ID. Returns nil if not found.
func (r *Recorder) Get(id string) *Call {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.calls {
		if r.calls[i].ID == id {
			c := r.calls[i]
			return &c
		}
	}
	return nil
}

// List retrieves LLM calls matching the filter, newest first.
func (r *Recorder) List(filter QueryFilter) []Call {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	matched := make([]Call, 0, len(r.calls))
	for _, c := range r.calls {
		if filter.matches(c) {
			matched = append(matched, c)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []Call{}
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched
}

// CountByPromptKey returns call counts grouped by prompt key for a run.
// An empty runID counts every recorded call.
func (r *Recorder) CountByPromptKey(runID string) map[string]int {
	counts := make(map[string]int)
	for _, c := range r.List(QueryFilter{RunID: runID}) {
		counts[c.PromptKey]++
	}
	return counts
}

func (f QueryFilter) matches(c Call) bool {
	if f.RunID != "" && c.RunID != f.RunID {
		return false
	}
	if f.PromptKey != "" && c.PromptKey != f.PromptKey {
		return false
	}
	if f.Provider != "" && c.Provider != f.Provider {
		return false
	}
	if f.Model != "" && c.Model != f.Model {
		return false
	}
	if f.Success != nil && c.Success != *f.Success {
		return false
	}
	if f.After != nil && !c.Timestamp.After(*f.After) {
		return false
	}
	if f.Before != nil && !c.Timestamp.Before(*f.Before) {
		return false
	}
	return true
}
