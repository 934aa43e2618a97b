package endpoints

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/RafaArmero1993/MentorIA/internal/api"
	"github.com/RafaArmero1993/MentorIA/internal/assets"
	"github.com/RafaArmero1993/MentorIA/internal/generator"
)

// GenerateWorkEndpoint handles POST /works with a multipart upload.
type GenerateWorkEndpoint struct{}

var _ api.Endpoint = (*GenerateWorkEndpoint)(nil)

func (e *GenerateWorkEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/works", e.handler
}

// handler godoc
//
//	@Summary		Generate a monograph assignment
//	@Description	Writes a month-long assignment grounded in the uploaded material and tied to the degree the student plans to study
//	@Tags			works
//	@Accept			mpfd
//	@Produce		json
//	@Param			pdf				formData	file	true	"Source material"
//	@Param			degree_pdf		formData	file	true	"Description of the intended degree"
//	@Param			asignatura		formData	string	true	"Subject"
//	@Param			nivel_academico	formData	string	true	"Academic level"
//	@Param			unidad			formData	string	true	"Unit"
//	@Param			intereses		formData	string	false	"Student interests"
//	@Success		201				{object}	generator.Result
//	@Failure		400				{object}	ErrorResponse
//	@Failure		502				{object}	ErrorResponse
//	@Failure		503				{object}	ErrorResponse
//	@Router			/works [post]
func (e *GenerateWorkEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse form: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	req := generator.WorkRequest{
		Subject:   r.FormValue("asignatura"),
		Level:     r.FormValue("nivel_academico"),
		Unit:      r.FormValue("unidad"),
		Interests: r.FormValue("intereses"),
	}
	var ok bool
	if req.PDF, req.PDFName, ok = formPDF(w, r, "pdf"); !ok {
		return
	}
	if req.DegreePDF, req.DegreeName, ok = formPDF(w, r, "degree_pdf"); !ok {
		return
	}

	p, ok := pipelineFrom(w, r)
	if !ok {
		return
	}
	res, err := p.Monograph(r.Context(), req)
	if err != nil {
		writeGenerationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (e *GenerateWorkEndpoint) Command(getServerURL func() string) *cobra.Command {
	var pdfPath, degreePath, subject, level, unit, interests string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a monograph assignment from the material and a degree description",
		RunE: func(cmd *cobra.Command, args []string) error {
			var files []api.File
			for _, f := range []struct{ field, path string }{{"pdf", pdfPath}, {"degree_pdf", degreePath}} {
				data, err := os.ReadFile(f.path)
				if err != nil {
					return err
				}
				files = append(files, api.File{Field: f.field, Name: filepath.Base(f.path), Data: data})
			}
			fields := map[string]string{
				"asignatura":      subject,
				"nivel_academico": level,
				"unidad":          unit,
				"intereses":       interests,
			}

			client := api.NewClient(getServerURL())
			var res generator.Result
			if err := client.PostMultipart(cmd.Context(), "/works", fields, files, &res); err != nil {
				return err
			}
			return api.Output(res)
		},
	}
	WorkFlags(cmd, &pdfPath, &degreePath, &subject, &level, &unit, &interests)
	return cmd
}

// WorkFlags registers the flags describing a monograph assignment.
func WorkFlags(cmd *cobra.Command, pdfPath, degreePath, subject, level, unit, interests *string) {
	cmd.Flags().StringVar(pdfPath, "pdf", "", "Source material PDF")
	cmd.Flags().StringVar(degreePath, "degree-pdf", "", "PDF describing the degree the student plans to study")
	cmd.Flags().StringVar(subject, "subject", "", "Subject name")
	cmd.Flags().StringVar(level, "level", "", "Academic level")
	cmd.Flags().StringVar(unit, "unit", "", "Unit the assignment covers")
	cmd.Flags().StringVar(interests, "interests", "", "Student interests to theme the assignment")
	cmd.MarkFlagRequired("pdf")
	cmd.MarkFlagRequired("degree-pdf")
	cmd.MarkFlagRequired("subject")
	cmd.MarkFlagRequired("level")
	cmd.MarkFlagRequired("unit")
}

// GetWorkEndpoint handles GET /works/{id}.
type GetWorkEndpoint struct{}

func (e *GetWorkEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/works/{id}", e.handler
}

// handler godoc
//
//	@Summary		Download a monograph assignment
//	@Tags			works
//	@Produce		html
//	@Param			id	path		string	true	"Assignment ID"
//	@Success		200	{string}	string	"HTML document"
//	@Failure		404	{object}	ErrorResponse
//	@Router			/works/{id} [get]
func (e *GetWorkEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	serveAsset(w, r, assets.KindWork, chi.URLParam(r, "id"), "text/html; charset=utf-8")
}

func (e *GetWorkEndpoint) Command(getServerURL func() string) *cobra.Command {
	return downloadCommand(getServerURL, "get <id>", "Download a generated monograph assignment", "/works/")
}
