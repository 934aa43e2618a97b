package drafter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/RafaArmero1993/MentorIA/internal/capability"
	"github.com/RafaArmero1993/MentorIA/internal/outline"
	"github.com/RafaArmero1993/MentorIA/internal/pagination"
)

func testPlan(t *testing.T) (*outline.Outline, []pagination.Page) {
	t.Helper()
	o := &outline.Outline{Leaves: []outline.Leaf{
		outline.Leaf{Unit: "A", Chapter: "1", Section: "1", Topic: "first"}.WithPages(2),
		outline.Leaf{Unit: "A", Chapter: "1", Section: "2", Topic: "second"}.WithPages(1),
		outline.Leaf{Unit: "A", Chapter: "2", Section: "1", Topic: "third"}.WithPages(1),
	}}
	pages, err := pagination.Plan(o)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	return o, pages
}

func TestTranscript_CompressesUnchangedLabels(t *testing.T) {
	_, pages := testPlan(t)

	var acc Transcript
	for i, p := range pages {
		acc = acc.Append(p, fmt.Sprintf("text %d", i+1))
	}

	want := strings.Join([]string{
		"Unit: A\nChapter: 1\nSection: 1\nPage 1:\ntext 1",
		"Page 2:\ntext 2",
		"Section: 2\nPage 1:\ntext 3",
		"Chapter: 2\nSection: 1\nPage 1:\ntext 4",
	}, "\n\n")
	if got := acc.String(); got != want {
		t.Errorf("transcript mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
	if acc.Pages() != 4 {
		t.Errorf("Pages() = %d", acc.Pages())
	}
}

func TestTranscript_AppendIsPure(t *testing.T) {
	_, pages := testPlan(t)

	base := Transcript{}.Append(pages[0], "one")
	a := base.Append(pages[1], "two")
	b := base.Append(pages[1], "other")

	if base.Pages() != 1 || strings.Contains(base.String(), "two") {
		t.Error("Append modified its receiver")
	}
	if a.String() == b.String() {
		t.Error("branches should differ")
	}
}

func TestDraft_SendsContinuityContext(t *testing.T) {
	o, pages := testPlan(t)
	gen := &capability.MockGenerator{Handler: func(req capability.Request) (capability.Value, error) {
		return capability.Value{"content": fmt.Sprintf("  prose for page %d  ", req.Page)}, nil
	}}
	d := New(Config{Generator: gen, Level: "1º Bachillerato", Language: "Spanish", MinWords: 1000, MaxWords: 2000, WebSearch: true})

	drafted, err := d.DraftOutline(context.Background(), o, pages)
	if err != nil {
		t.Fatalf("Draft() error = %v", err)
	}
	if len(drafted) != len(pages) {
		t.Fatalf("drafted %d pages, want %d", len(drafted), len(pages))
	}
	if drafted[0].Content != "prose for page 1" {
		t.Errorf("content not trimmed: %q", drafted[0].Content)
	}

	reqs := gen.Requests()
	for i, req := range reqs {
		if !req.WebSearch {
			t.Errorf("request %d should be search augmented", i)
		}
		if !strings.Contains(req.Prompt, o.Topics()) {
			t.Errorf("request %d missing the document topics", i)
		}
		if !strings.Contains(req.Prompt, "between 1000 and 2000 words") {
			t.Errorf("request %d missing the word band", i)
		}
	}
	if strings.Contains(reqs[0].Prompt, "prose for page") {
		t.Error("first page must not see any transcript")
	}
	if !strings.Contains(reqs[1].Prompt, "this is page 2 of it") {
		t.Error("second page should know its position in the section")
	}
	last := reqs[3].Prompt
	for _, want := range []string{"prose for page 1", "prose for page 2", "prose for page 3"} {
		if !strings.Contains(last, want) {
			t.Errorf("last request transcript missing %q", want)
		}
	}
}

func TestDraft_RetriesMalformedUntilWellFormed(t *testing.T) {
	_, pages := testPlan(t)
	var calls atomic.Int32
	gen := &capability.MockGenerator{Handler: func(req capability.Request) (capability.Value, error) {
		n := calls.Add(1)
		switch n {
		case 1:
			return nil, &capability.Error{Kind: capability.ErrMalformed, Key: req.Key, Err: errors.New("not json")}
		case 2:
			return capability.Value{"content": "   "}, nil
		}
		return capability.Value{"content": "ok"}, nil
	}}
	d := New(Config{Generator: gen})

	dp, acc, err := d.DraftPage(context.Background(), "topics", Transcript{}, pages[0])
	if err != nil {
		t.Fatalf("DraftPage() error = %v", err)
	}
	if dp.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", dp.Attempts)
	}
	if acc.Pages() != 1 {
		t.Error("transcript should hold the drafted page")
	}
}

func TestDraft_UnavailableFailsRun(t *testing.T) {
	_, pages := testPlan(t)
	gen := &capability.MockGenerator{Handler: func(req capability.Request) (capability.Value, error) {
		return nil, &capability.Error{Kind: capability.ErrUnavailable, Key: req.Key, Err: errors.New("503")}
	}}
	d := New(Config{Generator: gen})

	_, err := d.Draft(context.Background(), "topics", pages)
	if !errors.Is(err, capability.ErrUnavailable) {
		t.Fatalf("error = %v, want unavailable", err)
	}
	if n := len(gen.Requests()); n != 1 {
		t.Errorf("expected a single call, got %d", n)
	}
}

func TestDraft_BoundedPolicy(t *testing.T) {
	_, pages := testPlan(t)
	gen := &capability.MockGenerator{Handler: func(req capability.Request) (capability.Value, error) {
		return nil, &capability.Error{Kind: capability.ErrMalformed, Key: req.Key, Err: errors.New("bad")}
	}}
	d := New(Config{Generator: gen, Policy: capability.RetryPolicy{MaxAttempts: 4}})

	_, err := d.Draft(context.Background(), "topics", pages)
	if !errors.Is(err, capability.ErrMalformed) {
		t.Fatalf("error = %v", err)
	}
	if n := len(gen.Requests()); n != 4 {
		t.Errorf("calls = %d, want 4", n)
	}
}

func TestDraft_Cancelled(t *testing.T) {
	_, pages := testPlan(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Config{Generator: &capability.MockGenerator{}}).Draft(ctx, "topics", pages)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
