package llmcall

import (
	"errors"
	"testing"
	"time"

	"github.com/RafaArmero1993/MentorIA/internal/providers"
)

func TestFromChatResult(t *testing.T) {
	if FromChatResult(nil, RecordOptions{}) != nil {
		t.Fatal("nil result should produce nil call")
	}

	result := &providers.ChatResult{
		Content:          `{"extension": 3}`,
		PromptTokens:     120,
		CompletionTokens: 8,
		ExecutionTime:    1500 * time.Millisecond,
		Provider:         "openrouter",
		ModelUsed:        "google/gemini-2.5-flash",
		Attempts:         2,
		Success:          true,
	}
	call := FromChatResult(result, RecordOptions{RunID: "run-1", Page: 4, PromptKey: "estimator.extension"})

	if call.ID == "" {
		t.Error("expected generated id")
	}
	if call.LatencyMs != 1500 || call.InputTokens != 120 || call.OutputTokens != 8 {
		t.Errorf("metrics not copied: %+v", call)
	}
	if call.RunID != "run-1" || call.Page != 4 || call.PromptKey != "estimator.extension" {
		t.Errorf("context not copied: %+v", call)
	}
	if !call.Success || call.Error != "" {
		t.Errorf("expected successful call, got %+v", call)
	}

	failed := FromChatResult(result, RecordOptions{Err: errors.New("schema mismatch")})
	if failed.Success || failed.Error != "schema mismatch" {
		t.Errorf("error not reflected: %+v", failed)
	}
}

func TestRecorder_ListAndFilter(t *testing.T) {
	r := NewRecorder(10)
	base := time.Now()
	ok, bad := true, false

	r.RecordCall(&Call{ID: "a", Timestamp: base, RunID: "r1", PromptKey: "drafter.page", Success: true})
	r.RecordCall(&Call{ID: "b", Timestamp: base.Add(time.Second), RunID: "r1", PromptKey: "drafter.page", Success: false})
	r.RecordCall(&Call{ID: "c", Timestamp: base.Add(2 * time.Second), RunID: "r2", PromptKey: "selector.choose", Success: true})

	tests := []struct {
		name   string
		filter QueryFilter
		want   []string
	}{
		{"all newest first", QueryFilter{}, []string{"c", "b", "a"}},
		{"by run", QueryFilter{RunID: "r1"}, []string{"b", "a"}},
		{"by prompt", QueryFilter{PromptKey: "selector.choose"}, []string{"c"}},
		{"successful", QueryFilter{Success: &ok}, []string{"c", "a"}},
		{"failed", QueryFilter{Success: &bad}, []string{"b"}},
		{"limit", QueryFilter{Limit: 1}, []string{"c"}},
		{"offset", QueryFilter{Offset: 2}, []string{"a"}},
		{"offset past end", QueryFilter{Offset: 5}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.List(tt.filter)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d calls, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("call %d = %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}

	counts := r.CountByPromptKey("r1")
	if counts["drafter.page"] != 2 || len(counts) != 1 {
		t.Errorf("CountByPromptKey = %v", counts)
	}
	if r.Get("b") == nil || r.Get("missing") != nil {
		t.Error("Get lookup mismatch")
	}
}

func TestRecorder_Eviction(t *testing.T) {
	r := NewRecorder(2)
	for _, id := range []string{"1", "2", "3"} {
		r.RecordCall(&Call{ID: id, Timestamp: time.Now()})
	}
	if r.Get("1") != nil {
		t.Error("oldest call should be evicted")
	}
	if len(r.List(QueryFilter{})) != 2 {
		t.Error("recorder should hold capacity calls")
	}
}

func TestRecorder_Nil(t *testing.T) {
	var r *Recorder
	r.Record(&providers.ChatResult{}, RecordOptions{})
	if r.List(QueryFilter{}) != nil {
		t.Error("nil recorder should list nothing")
	}
}
