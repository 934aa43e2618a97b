package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/RafaArmero1993/MentorIA/internal/api"
	"github.com/RafaArmero1993/MentorIA/internal/svcctx"
)

// HealthResponse is the response for health check endpoints.
type HealthResponse struct {
	Status string `json:"status"`
	Index  string `json:"index,omitempty"`
}

// HealthEndpoint handles GET /health.
type HealthEndpoint struct{}

func (e *HealthEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/health", e.handler
}

// handler godoc
//
//	@Summary		Health check
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Router			/health [get]
func (e *HealthEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (e *HealthEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp HealthResponse
			if err := client.Get(cmd.Context(), "/health", &resp); err != nil {
				return err
			}
			fmt.Printf("Status: %s\n", resp.Status)
			return nil
		},
	}
}

// ReadyEndpoint handles GET /ready.
type ReadyEndpoint struct{}

func (e *ReadyEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/ready", e.handler
}

// handler godoc
//
//	@Summary		Readiness check
//	@Description	Reports ready once the document index answers queries
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Failure		503	{object}	HealthResponse
//	@Router			/ready [get]
func (e *ReadyEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	index := svcctx.IndexFrom(r.Context())
	if index == nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "degraded", Index: "not_initialized"})
		return
	}
	if _, err := index.Counts(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "degraded", Index: "unhealthy"})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Index: "ok"})
}

func (e *ReadyEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "ready",
		Short: "Check server readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp HealthResponse
			if err := client.Get(cmd.Context(), "/ready", &resp); err != nil {
				return err
			}
			fmt.Printf("Status: %s\n", resp.Status)
			if resp.Index != "" {
				fmt.Printf("Index:  %s\n", resp.Index)
			}
			return nil
		},
	}
}

// StatusResponse is the detailed status response.
type StatusResponse struct {
	Server    string          `json:"server"`
	Providers ProvidersStatus `json:"providers"`
	Defaults  DefaultsStatus  `json:"defaults"`
	Documents map[string]int  `json:"documents"`
	Templates []string        `json:"template_roles,omitempty"`
}

// ProvidersStatus shows the registered providers per capability.
type ProvidersStatus struct {
	LLM   []string `json:"llm"`
	TTS   []string `json:"tts"`
	Image []string `json:"image"`
}

// DefaultsStatus shows which provider serves each capability.
type DefaultsStatus struct {
	LLM   string `json:"llm"`
	TTS   string `json:"tts"`
	Image string `json:"image"`
}

// StatusEndpoint handles GET /status.
type StatusEndpoint struct{}

func (e *StatusEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/status", e.handler
}

// handler godoc
//
//	@Summary		Server status
//	@Description	Registered providers, configured defaults and stored document counts
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	StatusResponse
//	@Router			/status [get]
func (e *StatusEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := StatusResponse{Server: "running", Documents: map[string]int{}}

	if registry := svcctx.RegistryFrom(ctx); registry != nil {
		resp.Providers.LLM = registry.ListLLM()
		resp.Providers.TTS = registry.ListTTS()
		resp.Providers.Image = registry.ListImage()
	}
	if cm := svcctx.ConfigFrom(ctx); cm != nil {
		d := cm.Get().Defaults
		resp.Defaults = DefaultsStatus{LLM: d.LLMProvider, TTS: d.TTSProvider, Image: d.ImageProvider}
	}
	if index := svcctx.IndexFrom(ctx); index != nil {
		counts, err := index.Counts(ctx)
		if err != nil {
			svcctx.LoggerFrom(ctx).Warn("failed to count documents", "error", err)
		} else {
			resp.Documents = counts
		}
	}
	if catalog := svcctx.CatalogFrom(ctx); catalog != nil {
		for _, role := range catalog.Roles() {
			resp.Templates = append(resp.Templates, string(role))
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *StatusEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Get detailed server status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp StatusResponse
			if err := client.Get(cmd.Context(), "/status", &resp); err != nil {
				return err
			}
			fmt.Printf("Server: %s\n", resp.Server)
			fmt.Printf("Providers:\n")
			fmt.Printf("  LLM:   %v (default %s)\n", resp.Providers.LLM, resp.Defaults.LLM)
			fmt.Printf("  TTS:   %v (default %s)\n", resp.Providers.TTS, resp.Defaults.TTS)
			fmt.Printf("  Image: %v (default %s)\n", resp.Providers.Image, resp.Defaults.Image)
			fmt.Printf("Documents:\n")
			for kind, n := range resp.Documents {
				fmt.Printf("  %s: %d\n", kind, n)
			}
			return nil
		},
	}
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
