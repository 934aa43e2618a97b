package endpoints

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/RafaArmero1993/MentorIA/internal/assets"
	"github.com/RafaArmero1993/MentorIA/internal/capability"
	"github.com/RafaArmero1993/MentorIA/internal/generator"
	"github.com/RafaArmero1993/MentorIA/internal/outline"
	"github.com/RafaArmero1993/MentorIA/internal/svcctx"
)

func TestGenerationStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid request", fmt.Errorf("%w: missing subject", generator.ErrInvalidRequest), http.StatusBadRequest},
		{"invalid outline", fmt.Errorf("%w: no leaves", outline.ErrInvalidOutline), http.StatusBadRequest},
		{"unavailable", &capability.Error{Kind: capability.ErrUnavailable, Key: "drafter.user", Err: errors.New("503")}, http.StatusServiceUnavailable},
		{"cancelled", fmt.Errorf("drafting: %w", context.Canceled), http.StatusServiceUnavailable},
		{"malformed", &capability.Error{Kind: capability.ErrMalformed, Key: "selector.user", Err: errors.New("bad json")}, http.StatusBadGateway},
		{"constraint", &capability.Error{Kind: capability.ErrConstraint, Key: "selector.user", Err: errors.New("unknown template")}, http.StatusBadGateway},
		{"other", errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := generationStatus(tt.err); got != tt.want {
				t.Errorf("generationStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestServeAsset(t *testing.T) {
	store := assets.NewMemoryStore()
	ctx := svcctx.WithServices(context.Background(), &svcctx.Services{Store: store})
	if err := store.Save(ctx, assets.KindAudio, "7_1", []byte("ID3")); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		id   string
		want int
	}{
		{"found", "7_1", http.StatusOK},
		{"missing", "7_2", http.StatusNotFound},
		{"empty", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/audios/"+tt.id, nil).WithContext(ctx)
			serveAsset(rec, req, assets.KindAudio, tt.id, "audio/mpeg")
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusOK && rec.Body.String() != "ID3" {
				t.Errorf("body = %q", rec.Body.String())
			}
		})
	}
}

func TestPipelineFrom_NoFactory(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/documents", nil)
	if _, ok := pipelineFrom(rec, req); ok {
		t.Fatal("pipelineFrom() succeeded without services")
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}
