package endpoints

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/RafaArmero1993/MentorIA/internal/api"
	"github.com/RafaArmero1993/MentorIA/internal/assets"
	"github.com/RafaArmero1993/MentorIA/internal/capability"
	"github.com/RafaArmero1993/MentorIA/internal/docindex"
	"github.com/RafaArmero1993/MentorIA/internal/generator"
	"github.com/RafaArmero1993/MentorIA/internal/outline"
	"github.com/RafaArmero1993/MentorIA/internal/pagination"
	"github.com/RafaArmero1993/MentorIA/internal/svcctx"
)

// maxRequestBody bounds JSON request bodies.
const maxRequestBody = 10 << 20

// GenerateDocumentEndpoint handles POST /documents.
type GenerateDocumentEndpoint struct{}

var _ api.Endpoint = (*GenerateDocumentEndpoint)(nil)

func (e *GenerateDocumentEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/documents", e.handler
}

// handler godoc
//
//	@Summary		Generate a content document
//	@Description	Estimates, paginates, drafts and assembles a document from an outline. Runs synchronously.
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			request	body		generator.ContentRequest	true	"Subject, level and outline"
//	@Success		201		{object}	generator.Result
//	@Failure		400		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/documents [post]
func (e *GenerateDocumentEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req generator.ContentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p, ok := pipelineFrom(w, r)
	if !ok {
		return
	}
	res, err := p.Generate(r.Context(), req)
	if err != nil {
		writeGenerationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (e *GenerateDocumentEndpoint) Command(getServerURL func() string) *cobra.Command {
	var outlinePath, subject, level string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a document from an outline file (yaml, json or csv)",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := contentRequest(outlinePath, subject, level)
			if err != nil {
				return err
			}
			client := api.NewClient(getServerURL())
			var res generator.Result
			if err := client.Post(cmd.Context(), "/documents", req, &res); err != nil {
				return err
			}
			return api.Output(res)
		},
	}
	contentFlags(cmd, &outlinePath, &subject, &level)
	return cmd
}

// PlanResponse is the pagination plan of an outline.
type PlanResponse struct {
	Outline *outline.Outline  `json:"outline"`
	Pages   []pagination.Page `json:"pages"`
	Roles   map[string]int    `json:"roles"`
}

// NewPlanResponse summarizes a plan.
func NewPlanResponse(o *outline.Outline, pages []pagination.Page) PlanResponse {
	roles := make(map[string]int)
	for role, n := range pagination.Summary(pages) {
		roles[string(role)] = n
	}
	return PlanResponse{Outline: o, Pages: pages, Roles: roles}
}

// PlanDocumentEndpoint handles POST /documents/plan.
type PlanDocumentEndpoint struct{}

func (e *PlanDocumentEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/documents/plan", e.handler
}

// handler godoc
//
//	@Summary		Plan a document
//	@Description	Estimates missing extensions and returns the page sequence without drafting
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			request	body		generator.ContentRequest	true	"Subject, level and outline"
//	@Success		200		{object}	PlanResponse
//	@Failure		400		{object}	ErrorResponse
//	@Router			/documents/plan [post]
func (e *PlanDocumentEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req generator.ContentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p, ok := pipelineFrom(w, r)
	if !ok {
		return
	}
	o, pages, err := p.Plan(r.Context(), req)
	if err != nil {
		writeGenerationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewPlanResponse(o, pages))
}

func (e *PlanDocumentEndpoint) Command(getServerURL func() string) *cobra.Command {
	var outlinePath, subject, level string
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the page plan of an outline file",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := contentRequest(outlinePath, subject, level)
			if err != nil {
				return err
			}
			client := api.NewClient(getServerURL())
			var resp PlanResponse
			if err := client.Post(cmd.Context(), "/documents/plan", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	contentFlags(cmd, &outlinePath, &subject, &level)
	return cmd
}

// DocumentsResponse lists indexed documents.
type DocumentsResponse struct {
	Documents []docindex.Record `json:"documents"`
	Total     int               `json:"total"`
}

// ListDocumentsEndpoint handles GET /documents.
type ListDocumentsEndpoint struct{}

func (e *ListDocumentsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/documents", e.handler
}

// handler godoc
//
//	@Summary		List documents
//	@Tags			documents
//	@Produce		json
//	@Param			kind	query		string	false	"document, exercise or work"
//	@Param			limit	query		int		false	"Max results (default 50)"
//	@Success		200		{object}	DocumentsResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/documents [get]
func (e *ListDocumentsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	index := svcctx.IndexFrom(r.Context())
	if index == nil {
		writeError(w, http.StatusServiceUnavailable, "document index not available")
		return
	}

	q := r.URL.Query()
	filter := docindex.Filter{Kind: q.Get("kind"), Limit: 50}
	switch assets.Kind(filter.Kind) {
	case "", assets.KindDocument, assets.KindExercise, assets.KindWork:
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid kind: %q", filter.Kind))
		return
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit: %q must be a positive integer", v))
			return
		}
		filter.Limit = limit
	}

	recs, err := index.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if recs == nil {
		recs = []docindex.Record{}
	}
	writeJSON(w, http.StatusOK, DocumentsResponse{Documents: recs, Total: len(recs)})
}

func (e *ListDocumentsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var kind string
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List generated documents and exercise sheets",
		RunE: func(cmd *cobra.Command, args []string) error {
			params := url.Values{}
			if kind != "" {
				params.Set("kind", kind)
			}
			if limit > 0 {
				params.Set("limit", strconv.Itoa(limit))
			}
			path := "/documents"
			if len(params) > 0 {
				path += "?" + params.Encode()
			}
			client := api.NewClient(getServerURL())
			var resp DocumentsResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "Filter by kind (document or exercise)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Max results")
	return cmd
}

// GetDocumentEndpoint handles GET /documents/{id}.
type GetDocumentEndpoint struct{}

func (e *GetDocumentEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/documents/{id}", e.handler
}

// handler godoc
//
//	@Summary		Download a document
//	@Tags			documents
//	@Produce		html
//	@Param			id	path		string	true	"Document ID"
//	@Success		200	{string}	string	"HTML document"
//	@Failure		404	{object}	ErrorResponse
//	@Router			/documents/{id} [get]
func (e *GetDocumentEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	serveAsset(w, r, assets.KindDocument, chi.URLParam(r, "id"), "text/html; charset=utf-8")
}

func (e *GetDocumentEndpoint) Command(getServerURL func() string) *cobra.Command {
	return downloadCommand(getServerURL, "get <id>", "Download a generated document", "/documents/")
}

// contentRequest loads an outline file into a request.
func contentRequest(path, subject, level string) (generator.ContentRequest, error) {
	o, err := outline.Load(path)
	if err != nil {
		return generator.ContentRequest{}, err
	}
	return generator.ContentRequest{Subject: subject, Level: level, Outline: o}, nil
}

func contentFlags(cmd *cobra.Command, outlinePath, subject, level *string) {
	cmd.Flags().StringVar(outlinePath, "outline", "", "Outline file (yaml, json or csv)")
	cmd.Flags().StringVar(subject, "subject", "", "Subject name")
	cmd.Flags().StringVar(level, "level", "", "Academic level")
	cmd.MarkFlagRequired("outline")
	cmd.MarkFlagRequired("subject")
	cmd.MarkFlagRequired("level")
}

// downloadCommand builds a command that fetches a stored asset to a file
// or stdout.
func downloadCommand(getServerURL func() string, use, short, prefix string) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			data, err := client.GetRaw(cmd.Context(), prefix+url.PathEscape(args[0]))
			if err != nil {
				return err
			}
			if out == "" {
				_, err = os.Stdout.Write(data)
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			fmt.Printf("Saved %s (%d bytes)\n", out, len(data))
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Write to file instead of stdout")
	return cmd
}

func serveAsset(w http.ResponseWriter, r *http.Request, kind assets.Kind, id, contentType string) {
	if id == "" {
		writeError(w, http.StatusBadRequest, "id required")
		return
	}
	store := svcctx.StoreFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "asset store not available")
		return
	}
	data, err := store.Load(r.Context(), kind, id)
	if errors.Is(err, assets.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("%s %s not found", kind, id))
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

func pipelineFrom(w http.ResponseWriter, r *http.Request) (*generator.Pipeline, bool) {
	factory := svcctx.PipelinesFrom(r.Context())
	if factory == nil {
		writeError(w, http.StatusServiceUnavailable, "generation not available")
		return nil, false
	}
	p, err := factory.Pipeline()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return nil, false
	}
	return p, true
}

// generationStatus maps a pipeline error onto an HTTP status.
func generationStatus(err error) int {
	switch {
	case errors.Is(err, generator.ErrInvalidRequest), errors.Is(err, outline.ErrInvalidOutline):
		return http.StatusBadRequest
	case errors.Is(err, capability.ErrUnavailable),
		errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case errors.Is(err, capability.ErrMalformed), errors.Is(err, capability.ErrConstraint):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeGenerationError(w http.ResponseWriter, r *http.Request, err error) {
	status := generationStatus(err)
	if status >= 500 {
		svcctx.LoggerFrom(r.Context()).Error("generation failed", "path", r.URL.Path, "status", status, "error", err)
	}
	writeError(w, status, err.Error())
}
