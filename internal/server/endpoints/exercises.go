package endpoints

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/RafaArmero1993/MentorIA/internal/api"
	"github.com/RafaArmero1993/MentorIA/internal/assets"
	"github.com/RafaArmero1993/MentorIA/internal/generator"
)

// maxUpload bounds the multipart form kept in memory.
const maxUpload = 64 << 20

// formPDF reads the uploaded PDF of a multipart field, writing a 400 and
// returning false when it is missing or not a PDF.
func formPDF(w http.ResponseWriter, r *http.Request, field string) ([]byte, string, bool) {
	file, header, err := r.FormFile(field)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("missing %s file", field))
		return nil, "", false
	}
	defer file.Close()
	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("file %s is not a PDF", header.Filename))
		return nil, "", false
	}
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to read upload: %v", err))
		return nil, "", false
	}
	return data, header.Filename, true
}

// GenerateExercisesEndpoint handles POST /exercises with a multipart upload.
type GenerateExercisesEndpoint struct{}

var _ api.Endpoint = (*GenerateExercisesEndpoint)(nil)

func (e *GenerateExercisesEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/exercises", e.handler
}

// handler godoc
//
//	@Summary		Generate an exercise sheet
//	@Description	Writes exercises grounded in the uploaded PDF, each with a QR code linking to a spoken hint
//	@Tags			exercises
//	@Accept			mpfd
//	@Produce		json
//	@Param			pdf					formData	file	true	"Source material"
//	@Param			asignatura			formData	string	true	"Subject"
//	@Param			nivel_academico		formData	string	true	"Academic level"
//	@Param			unidad				formData	string	true	"Unit"
//	@Param			intereses			formData	string	false	"Student interests"
//	@Param			numero_ejercicios	formData	int		true	"Number of exercises (1-20)"
//	@Success		201					{object}	generator.Result
//	@Failure		400					{object}	ErrorResponse
//	@Failure		502					{object}	ErrorResponse
//	@Failure		503					{object}	ErrorResponse
//	@Router			/exercises [post]
func (e *GenerateExercisesEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse form: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	req := generator.ExerciseRequest{
		Subject:   r.FormValue("asignatura"),
		Level:     r.FormValue("nivel_academico"),
		Unit:      r.FormValue("unidad"),
		Interests: r.FormValue("intereses"),
	}
	count, err := strconv.Atoi(strings.TrimSpace(r.FormValue("numero_ejercicios")))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid numero_ejercicios: %q must be an integer", r.FormValue("numero_ejercicios")))
		return
	}
	req.Count = count

	var ok bool
	if req.PDF, req.PDFName, ok = formPDF(w, r, "pdf"); !ok {
		return
	}

	p, ok := pipelineFrom(w, r)
	if !ok {
		return
	}
	res, err := p.Exercises(r.Context(), req)
	if err != nil {
		writeGenerationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (e *GenerateExercisesEndpoint) Command(getServerURL func() string) *cobra.Command {
	var pdfPath, subject, level, unit, interests string
	var count int
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an exercise sheet from a PDF",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(pdfPath)
			if err != nil {
				return err
			}
			fields := map[string]string{
				"asignatura":        subject,
				"nivel_academico":   level,
				"unidad":            unit,
				"intereses":         interests,
				"numero_ejercicios": strconv.Itoa(count),
			}
			files := []api.File{{Field: "pdf", Name: filepath.Base(pdfPath), Data: data}}

			client := api.NewClient(getServerURL())
			var res generator.Result
			if err := client.PostMultipart(cmd.Context(), "/exercises", fields, files, &res); err != nil {
				return err
			}
			return api.Output(res)
		},
	}
	ExerciseFlags(cmd, &pdfPath, &subject, &level, &unit, &interests, &count)
	return cmd
}

// ExerciseFlags registers the flags describing an exercise sheet.
func ExerciseFlags(cmd *cobra.Command, pdfPath, subject, level, unit, interests *string, count *int) {
	cmd.Flags().StringVar(pdfPath, "pdf", "", "Source material PDF")
	cmd.Flags().StringVar(subject, "subject", "", "Subject name")
	cmd.Flags().StringVar(level, "level", "", "Academic level")
	cmd.Flags().StringVar(unit, "unit", "", "Unit the exercises cover")
	cmd.Flags().StringVar(interests, "interests", "", "Student interests to theme the exercises")
	cmd.Flags().IntVar(count, "count", 5, fmt.Sprintf("Number of exercises (1-%d)", generator.MaxExercises))
	cmd.MarkFlagRequired("pdf")
	cmd.MarkFlagRequired("subject")
	cmd.MarkFlagRequired("level")
	cmd.MarkFlagRequired("unit")
}

// GetExercisesEndpoint handles GET /exercises/{id}.
type GetExercisesEndpoint struct{}

func (e *GetExercisesEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/exercises/{id}", e.handler
}

// handler godoc
//
//	@Summary		Download an exercise sheet
//	@Tags			exercises
//	@Produce		html
//	@Param			id	path		string	true	"Exercise sheet ID"
//	@Success		200	{string}	string	"HTML document"
//	@Failure		404	{object}	ErrorResponse
//	@Router			/exercises/{id} [get]
func (e *GetExercisesEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	serveAsset(w, r, assets.KindExercise, chi.URLParam(r, "id"), "text/html; charset=utf-8")
}

func (e *GetExercisesEndpoint) Command(getServerURL func() string) *cobra.Command {
	return downloadCommand(getServerURL, "get <id>", "Download a generated exercise sheet", "/exercises/")
}

// GetAudioEndpoint handles GET /audios/{id}. The QR codes on generated pages
// point here.
type GetAudioEndpoint struct{}

func (e *GetAudioEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/audios/{id}", e.handler
}

// handler godoc
//
//	@Summary		Stream a narration
//	@Tags			audios
//	@Produce		audio/mpeg
//	@Param			id	path		string	true	"Audio ID ({document}_{n})"
//	@Success		200	{file}		binary
//	@Failure		404	{object}	ErrorResponse
//	@Router			/audios/{id} [get]
func (e *GetAudioEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(chi.URLParam(r, "id"), ".mp3")
	serveAsset(w, r, assets.KindAudio, id, "audio/mpeg")
}

func (e *GetAudioEndpoint) Command(getServerURL func() string) *cobra.Command {
	return downloadCommand(getServerURL, "get <id>", "Download a narration", "/audios/")
}
