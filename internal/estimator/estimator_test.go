package estimator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/RafaArmero1993/MentorIA/internal/capability"
	"github.com/RafaArmero1993/MentorIA/internal/outline"
)

func testOutline() *outline.Outline {
	return &outline.Outline{Leaves: []outline.Leaf{
		{Unit: "Cells", Chapter: "Structure", Section: "Membrane", Topic: "bilayer"},
		outline.Leaf{Unit: "Cells", Chapter: "Structure", Section: "Nucleus", Topic: "DNA"}.WithPages(5),
		{Unit: "Cells", Chapter: "Function", Section: "Metabolism", Topic: "pathways"},
	}}
}

func TestEstimate_FillsMissingWithPadding(t *testing.T) {
	gen := &capability.MockGenerator{Handler: func(req capability.Request) (capability.Value, error) {
		return capability.Value{"extension": 2}, nil
	}}
	est := New(Config{Generator: gen, Padding: 1, Level: "4º ESO"})

	in := testOutline()
	out, err := est.Estimate(context.Background(), in)
	if err != nil {
		t.Fatalf("Estimate() error = %v", err)
	}

	want := []int{3, 5, 3}
	for i, l := range out.Leaves {
		if l.PageCount() != want[i] {
			t.Errorf("leaf %d pages = %d, want %d", i+1, l.PageCount(), want[i])
		}
	}
	if in.Leaves[0].HasPages() {
		t.Error("input outline must not be modified")
	}
	if n := len(gen.Requests()); n != 2 {
		t.Errorf("expected 2 capability calls, got %d", n)
	}
}

func TestEstimate_ContextOnlyIncludesPriorLeaves(t *testing.T) {
	gen := &capability.MockGenerator{Handler: func(req capability.Request) (capability.Value, error) {
		return capability.Value{"extension": 4}, nil
	}}
	est := New(Config{Generator: gen, Padding: 0})

	if _, err := est.Estimate(context.Background(), testOutline()); err != nil {
		t.Fatalf("Estimate() error = %v", err)
	}

	reqs := gen.Requests()
	first, second := reqs[0].Prompt, reqs[1].Prompt
	if !strings.Contains(first, "No section has been sized yet") {
		t.Errorf("first request should have no prior context:\n%s", first)
	}
	if strings.Contains(first, "Nucleus") || strings.Contains(first, "Metabolism") {
		t.Error("first request leaked later leaves")
	}
	// The second estimate sees both earlier leaves with their extensions.
	for _, want := range []string{"Section: Membrane", "Extension (pages): 4", "Section: Nucleus", "Extension (pages): 5", "Section: Metabolism"} {
		if !strings.Contains(second, want) {
			t.Errorf("second request missing %q", want)
		}
	}
	if reqs[1].Shape.Fields[0].Kind != capability.KindInteger {
		t.Error("estimate must request an integer")
	}
}

func TestEstimate_FailureAbortsRun(t *testing.T) {
	tests := []struct {
		name    string
		value   capability.Value
		err     error
		wantErr error
	}{
		{"malformed reply", nil, &capability.Error{Kind: capability.ErrMalformed, Err: errors.New("nan")}, capability.ErrMalformed},
		{"service down", nil, &capability.Error{Kind: capability.ErrUnavailable, Err: errors.New("503")}, capability.ErrUnavailable},
		{"non positive estimate", capability.Value{"extension": 0}, nil, capability.ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &capability.MockGenerator{Handler: func(capability.Request) (capability.Value, error) {
				return tt.value, tt.err
			}}
			out, err := New(Config{Generator: gen}).Estimate(context.Background(), testOutline())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if out != nil {
				t.Error("no partial outline on failure")
			}
			if len(gen.Requests()) != 1 {
				t.Error("estimation should stop at the first failure")
			}
		})
	}
}

func TestEstimate_InvalidOutline(t *testing.T) {
	gen := &capability.MockGenerator{}
	_, err := New(Config{Generator: gen}).Estimate(context.Background(), &outline.Outline{})
	if !errors.Is(err, outline.ErrInvalidOutline) {
		t.Errorf("error = %v", err)
	}
}
