package generator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/RafaArmero1993/MentorIA/internal/assets"
	"github.com/RafaArmero1993/MentorIA/internal/capability"
	"github.com/RafaArmero1993/MentorIA/internal/config"
	"github.com/RafaArmero1993/MentorIA/internal/docindex"
	"github.com/RafaArmero1993/MentorIA/internal/outline"
	"github.com/RafaArmero1993/MentorIA/internal/pagination"
	"github.com/RafaArmero1993/MentorIA/internal/prompts/components"
	"github.com/RafaArmero1993/MentorIA/internal/prompts/draft"
	"github.com/RafaArmero1993/MentorIA/internal/prompts/exercises"
	"github.com/RafaArmero1993/MentorIA/internal/prompts/extension"
	"github.com/RafaArmero1993/MentorIA/internal/prompts/selection"
	"github.com/RafaArmero1993/MentorIA/internal/prompts/works"
	"github.com/RafaArmero1993/MentorIA/internal/templates"
)

// answer replies to every prompt the pipeline sends with well formed content.
func answer(req capability.Request) (capability.Value, error) {
	switch req.Key {
	case extension.UserPromptKey:
		return capability.Value{"extension": 1}, nil
	case draft.UserPromptKey:
		return capability.Value{"content": fmt.Sprintf("Texto continuo de la página %d.", req.Page)}, nil
	case selection.UserPromptKey:
		return capability.Value{"template": req.Shape.Fields[0].Values[0]}, nil
	case components.FragmentsPromptKey:
		v := capability.Value{}
		for _, f := range req.Shape.Fields {
			v[f.Name] = fmt.Sprintf("<p>%s de la página %d</p>", f.Name, req.Page)
		}
		return v, nil
	case components.ExamplePromptKey:
		return capability.Value{"content": "<p>Un ejemplo</p>"}, nil
	case components.ExplanationPromptKey:
		return capability.Value{"content": "Explicación hablada."}, nil
	case exercises.ExercisePromptKey:
		return capability.Value{"content": fmt.Sprintf("<p>Ejercicio sobre el tema %d</p>", req.Page)}, nil
	case exercises.HintPromptKey:
		return capability.Value{"content": fmt.Sprintf("Pista %d", req.Page)}, nil
	case works.WorkPromptKey:
		return capability.Value{"trabajo": "<h2>Objetivo</h2><p>Estudiar la <b>célula</b> en el <script>x</script>deporte.</p><ol><li>Leer</li></ol>"}, nil
	}
	return nil, fmt.Errorf("unexpected prompt %s", req.Key)
}

type fixture struct {
	gen      *capability.MockGenerator
	speaker  *capability.MockSpeaker
	store    *assets.MemoryStore
	index    *docindex.Index
	pipeline *Pipeline
}

func newFixture(t *testing.T, handler func(capability.Request) (capability.Value, error)) *fixture {
	t.Helper()
	catalog, err := templates.Default()
	if err != nil {
		t.Fatal(err)
	}
	index, err := docindex.Open(filepath.Join(t.TempDir(), "documents.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { index.Close() })

	gen := config.DefaultConfig().Generation
	gen.DraftRetryDelaySeconds = 0

	f := &fixture{
		gen:     &capability.MockGenerator{Handler: handler},
		speaker: &capability.MockSpeaker{},
		store:   assets.NewMemoryStore(),
		index:   index,
	}
	f.pipeline = New(Config{
		Generator:     f.gen,
		Illustrator:   &capability.MockIllustrator{},
		Speaker:       f.speaker,
		Store:         f.store,
		Catalog:       catalog,
		Index:         index,
		Generation:    gen,
		PublicBaseURL: "http://localhost:8080",
	})
	return f
}

func testOutline() *outline.Outline {
	return &outline.Outline{Leaves: []outline.Leaf{
		{Unit: "Unidad 1", Chapter: "Materia", Section: "Estados", Topic: "Sólido, líquido y gaseoso"},
		{Unit: "Unidad 1", Chapter: "Materia", Section: "Cambios", Topic: "Fusión y evaporación"},
	}}
}

func contentRequest() ContentRequest {
	return ContentRequest{Subject: "Física y Química", Level: "2º ESO", Outline: testOutline()}
}

func TestGenerate(t *testing.T) {
	f := newFixture(t, answer)
	ctx := context.Background()

	res, err := f.pipeline.Generate(ctx, contentRequest())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	n, err := strconv.Atoi(res.ID)
	if err != nil || n < 1 || n > MaxDocumentID {
		t.Errorf("document id %q out of range", res.ID)
	}
	if res.Kind != assets.KindDocument || res.RunID == "" {
		t.Errorf("unexpected result %+v", res)
	}
	if !strings.HasPrefix(res.Name, "fisica-y-quimica-2") {
		t.Errorf("Name = %q", res.Name)
	}
	// Two leaves estimated at 1 page plus 1 page of padding each; both
	// sections close with a QR code.
	if res.Pages != 4 || res.Audios != 2 {
		t.Errorf("Pages = %d, Audios = %d, want 4 and 2", res.Pages, res.Audios)
	}

	doc, err := f.store.Load(ctx, assets.KindDocument, res.ID)
	if err != nil {
		t.Fatalf("document not stored: %v", err)
	}
	html := string(doc)
	for _, want := range []string{"<!doctype html>", `<html lang="es">`, "Unidad 1", "Estados", "Cambios"} {
		if !strings.Contains(html, want) {
			t.Errorf("document missing %q", want)
		}
	}
	if strings.Contains(html, "#content#") || strings.Contains(html, "#qr_image#") {
		t.Error("document has unsubstituted placeholders")
	}

	audios := f.store.IDs(assets.KindAudio)
	if len(audios) != res.Audios {
		t.Errorf("stored %d audios, result says %d", len(audios), res.Audios)
	}
	for i := 1; i <= res.Audios; i++ {
		id := fmt.Sprintf("%s_%d", res.ID, i)
		if ok, _ := f.store.Exists(ctx, assets.KindAudio, id); !ok {
			t.Errorf("audio %s missing", id)
		}
	}

	rec, err := f.index.Get(ctx, string(res.Kind), res.ID)
	if err != nil {
		t.Fatalf("document not indexed: %v", err)
	}
	if rec.Kind != "document" || rec.Pages != 4 || rec.RunID != res.RunID {
		t.Errorf("unexpected index record %+v", rec)
	}

	for _, req := range f.gen.Requests() {
		if req.Key == draft.UserPromptKey && !req.WebSearch {
			t.Error("drafting should be search augmented by default")
		}
	}
}

func TestGenerate_FailureLeavesNothing(t *testing.T) {
	var explanations atomic.Int32
	f := newFixture(t, func(req capability.Request) (capability.Value, error) {
		if req.Key == components.ExplanationPromptKey && explanations.Add(1) > 1 {
			return nil, &capability.Error{Kind: capability.ErrUnavailable, Key: req.Key, Err: errors.New("503")}
		}
		return answer(req)
	})

	// Each three page section closes with a QR code, so the second
	// explanation fails after one audio has already been stored.
	out := testOutline()
	out.Leaves[0] = out.Leaves[0].WithPages(3)
	out.Leaves[1] = out.Leaves[1].WithPages(3)
	req := contentRequest()
	req.Outline = out

	_, err := f.pipeline.Generate(context.Background(), req)
	if !errors.Is(err, capability.ErrUnavailable) {
		t.Fatalf("Generate() error = %v, want ErrUnavailable", err)
	}
	if got := len(f.speaker.Requests()); got != 1 {
		t.Errorf("%d audios synthesized before the failure, want 1", got)
	}
	if ids := f.store.IDs(assets.KindAudio); len(ids) != 0 {
		t.Errorf("audio left behind: %v", ids)
	}
	if ids := f.store.IDs(assets.KindDocument); len(ids) != 0 {
		t.Errorf("document left behind: %v", ids)
	}
	if recs, _ := f.index.List(context.Background(), docindex.Filter{}); len(recs) != 0 {
		t.Errorf("index entries left behind: %v", recs)
	}
}

func TestGenerate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := newFixture(t, func(req capability.Request) (capability.Value, error) {
		if req.Key == draft.UserPromptKey && req.Page == 2 {
			cancel()
			return nil, context.Canceled
		}
		return answer(req)
	})

	_, err := f.pipeline.Generate(ctx, contentRequest())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Generate() error = %v, want context.Canceled", err)
	}
	if got := len(f.gen.RequestsFor(selection.UserPromptKey)); got != 0 {
		t.Errorf("selection ran %d times after cancellation", got)
	}
	if ids := f.store.IDs(assets.KindDocument); len(ids) != 0 {
		t.Errorf("document left behind: %v", ids)
	}
}

func TestGenerate_InvalidRequest(t *testing.T) {
	tests := []struct {
		name string
		req  ContentRequest
		want error
	}{
		{"missing subject", ContentRequest{Level: "1º ESO", Outline: testOutline()}, ErrInvalidRequest},
		{"missing outline", ContentRequest{Subject: "Historia", Level: "1º ESO"}, ErrInvalidRequest},
		{"empty outline", ContentRequest{Subject: "Historia", Level: "1º ESO", Outline: &outline.Outline{}}, outline.ErrInvalidOutline},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, answer)
			if _, err := f.pipeline.Generate(context.Background(), tt.req); !errors.Is(err, tt.want) {
				t.Errorf("Generate() error = %v, want %v", err, tt.want)
			}
			if n := len(f.gen.Requests()); n != 0 {
				t.Errorf("%d capability calls for an invalid request", n)
			}
		})
	}
}

func TestPlan(t *testing.T) {
	f := newFixture(t, answer)

	o, pages, err := f.pipeline.Plan(context.Background(), contentRequest())
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if o.TotalPages() != 4 || len(pages) != 4 {
		t.Fatalf("planned %d pages (outline says %d), want 4", len(pages), o.TotalPages())
	}
	want := []pagination.Role{
		pagination.RoleUnitStart,
		pagination.RoleSectionEnd,
		pagination.RoleSectionStart,
		pagination.RoleSectionEnd,
	}
	for i, p := range pages {
		if p.Role != want[i] {
			t.Errorf("page %d role = %s, want %s", i+1, p.Role, want[i])
		}
	}
	if n := len(f.gen.RequestsFor(draft.UserPromptKey)); n != 0 {
		t.Errorf("Plan drafted %d pages", n)
	}
}

// minimalPDF builds a valid PDF with blank pages.
func minimalPDF(pages int) []byte {
	var (
		b       bytes.Buffer
		offsets []int
	)
	obj := func(body string) {
		offsets = append(offsets, b.Len())
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	b.WriteString("%PDF-1.4\n")
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	kids := make([]string, pages)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pages))
	for range pages {
		obj("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] /Resources << >> >>")
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return b.Bytes()
}

func exerciseRequest() ExerciseRequest {
	return ExerciseRequest{
		Subject:   "Biología",
		Level:     "4º ESO",
		Unit:      "La célula",
		Interests: "fútbol y videojuegos",
		Count:     3,
		PDF:       minimalPDF(2),
		PDFName:   "celula.pdf",
	}
}

func TestExercises(t *testing.T) {
	f := newFixture(t, answer)
	ctx := context.Background()

	res, err := f.pipeline.Exercises(ctx, exerciseRequest())
	if err != nil {
		t.Fatalf("Exercises() error = %v", err)
	}
	if res.Kind != assets.KindExercise || res.Audios != 3 || res.Pages != 1 {
		t.Errorf("unexpected result %+v", res)
	}

	reqs := f.gen.RequestsFor(exercises.ExercisePromptKey)
	if len(reqs) != 3 {
		t.Fatalf("%d exercise requests, want 3", len(reqs))
	}
	if strings.Contains(reqs[0].Prompt, "Exercise #1") {
		t.Error("first exercise should not list previous exercises")
	}
	for _, want := range []string{"Exercise #1: Ejercicio sobre el tema 1", "Exercise #2: Ejercicio sobre el tema 2", "fútbol y videojuegos"} {
		if !strings.Contains(reqs[2].Prompt, want) {
			t.Errorf("third exercise prompt missing %q", want)
		}
	}
	for _, r := range append(reqs, f.gen.RequestsFor(exercises.HintPromptKey)...) {
		if len(r.Attachments) != 1 || r.Attachments[0].MIME != "application/pdf" {
			t.Errorf("%s request not grounded in the PDF", r.Key)
		}
	}

	speech := f.speaker.Requests()
	if len(speech) != 3 || speech[2].Text != "Pista 3" {
		t.Errorf("unexpected speech requests %+v", speech)
	}

	doc, err := f.store.Load(ctx, assets.KindExercise, res.ID)
	if err != nil {
		t.Fatalf("sheet not stored: %v", err)
	}
	html := string(doc)
	for _, want := range []string{"La célula", ExercisesChapter, "Ejercicio 1:", "Ejercicio 3:", "Ejercicio sobre el tema 2"} {
		if !strings.Contains(html, want) {
			t.Errorf("sheet missing %q", want)
		}
	}
	if got := strings.Count(html, "data:image/png;base64,"); got < 3 {
		t.Errorf("sheet has %d embedded images, want at least 3 QR codes", got)
	}
}

func TestExercises_InvalidRequest(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ExerciseRequest)
	}{
		{"zero exercises", func(r *ExerciseRequest) { r.Count = 0 }},
		{"too many exercises", func(r *ExerciseRequest) { r.Count = MaxExercises + 1 }},
		{"missing unit", func(r *ExerciseRequest) { r.Unit = " " }},
		{"missing pdf", func(r *ExerciseRequest) { r.PDF = nil }},
		{"not a pdf", func(r *ExerciseRequest) { r.PDF = []byte("hello") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, answer)
			req := exerciseRequest()
			tt.mutate(&req)
			if _, err := f.pipeline.Exercises(context.Background(), req); !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("Exercises() error = %v, want ErrInvalidRequest", err)
			}
			if n := len(f.gen.Requests()); n != 0 {
				t.Errorf("%d capability calls for an invalid request", n)
			}
		})
	}
}

func TestExercises_HintFailureCleansUp(t *testing.T) {
	f := newFixture(t, func(req capability.Request) (capability.Value, error) {
		if req.Key == exercises.HintPromptKey && req.Page == 2 {
			return nil, &capability.Error{Kind: capability.ErrUnavailable, Key: req.Key, Err: errors.New("timeout")}
		}
		return answer(req)
	})

	if _, err := f.pipeline.Exercises(context.Background(), exerciseRequest()); !errors.Is(err, capability.ErrUnavailable) {
		t.Fatalf("Exercises() error = %v, want ErrUnavailable", err)
	}
	if n := len(f.speaker.Requests()); n != 1 {
		t.Errorf("%d hints synthesized before the failure, want 1", n)
	}
	if ids := f.store.IDs(assets.KindAudio); len(ids) != 0 {
		t.Errorf("audio left behind: %v", ids)
	}
	if ids := f.store.IDs(assets.KindExercise); len(ids) != 0 {
		t.Errorf("sheet left behind: %v", ids)
	}
}

func TestExercises_RetriesMalformedExercise(t *testing.T) {
	var calls atomic.Int32
	f := newFixture(t, func(req capability.Request) (capability.Value, error) {
		if req.Key == exercises.ExercisePromptKey && req.Page == 1 && calls.Add(1) == 1 {
			return capability.Value{"content": "<p>  </p>"}, nil
		}
		return answer(req)
	})
	req := exerciseRequest()
	req.Count = 1

	if _, err := f.pipeline.Exercises(context.Background(), req); err != nil {
		t.Fatalf("Exercises() error = %v", err)
	}
	if got := len(f.gen.RequestsFor(exercises.ExercisePromptKey)); got != 2 {
		t.Errorf("%d exercise requests, want 2", got)
	}
}

func workRequest() WorkRequest {
	return WorkRequest{
		Subject:    "Biología",
		Level:      "1º Bachillerato",
		Unit:       "La célula",
		Interests:  "deporte",
		PDF:        minimalPDF(2),
		PDFName:    "celula.pdf",
		DegreePDF:  minimalPDF(1),
		DegreeName: "medicina.pdf",
	}
}

func TestMonograph(t *testing.T) {
	f := newFixture(t, answer)
	ctx := context.Background()

	res, err := f.pipeline.Monograph(ctx, workRequest())
	if err != nil {
		t.Fatalf("Monograph() error = %v", err)
	}
	if res.Kind != assets.KindWork || res.Pages != 1 || res.Audios != 0 {
		t.Errorf("unexpected result %+v", res)
	}

	reqs := f.gen.RequestsFor(works.WorkPromptKey)
	if len(reqs) != 1 {
		t.Fatalf("%d monograph requests, want 1", len(reqs))
	}
	att := reqs[0].Attachments
	if len(att) != 2 || att[0].Name != "celula.pdf" || att[1].Name != "medicina.pdf" {
		t.Errorf("attachments = %+v", att)
	}
	if !strings.Contains(reqs[0].Prompt, "deporte") {
		t.Error("prompt missing the student's interests")
	}
	if len(f.speaker.Requests()) != 0 {
		t.Error("a monograph has no audio")
	}

	doc, err := f.store.Load(ctx, assets.KindWork, res.ID)
	if err != nil {
		t.Fatalf("assignment not stored: %v", err)
	}
	html := string(doc)
	for _, want := range []string{"La célula", MonographChapter, `class="trabajo"`, "<b>célula</b>", "<ol><li>Leer</li></ol>"} {
		if !strings.Contains(html, want) {
			t.Errorf("assignment missing %q", want)
		}
	}
	for _, banned := range []string{"<script>", "<h2>"} {
		if strings.Contains(html, banned) {
			t.Errorf("assignment kept %q", banned)
		}
	}

	rec, err := f.index.Get(ctx, string(assets.KindWork), res.ID)
	if err != nil || rec.Subject != "Biología" {
		t.Errorf("index record = %+v, %v", rec, err)
	}
}

func TestMonograph_InvalidRequest(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*WorkRequest)
	}{
		{"missing subject", func(r *WorkRequest) { r.Subject = "" }},
		{"missing level", func(r *WorkRequest) { r.Level = " " }},
		{"missing pdf", func(r *WorkRequest) { r.PDF = nil }},
		{"missing degree pdf", func(r *WorkRequest) { r.DegreePDF = nil }},
		{"degree not a pdf", func(r *WorkRequest) { r.DegreePDF = []byte("grado") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, answer)
			req := workRequest()
			tt.mutate(&req)
			if _, err := f.pipeline.Monograph(context.Background(), req); !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("Monograph() error = %v, want ErrInvalidRequest", err)
			}
			if n := len(f.gen.Requests()); n != 0 {
				t.Errorf("%d capability calls for an invalid request", n)
			}
		})
	}
}

func TestMonograph_RetriesEmptyAssignment(t *testing.T) {
	var calls atomic.Int32
	f := newFixture(t, func(req capability.Request) (capability.Value, error) {
		if req.Key == works.WorkPromptKey && calls.Add(1) == 1 {
			return capability.Value{"trabajo": "<script>alert(1)</script>"}, nil
		}
		return answer(req)
	})

	if _, err := f.pipeline.Monograph(context.Background(), workRequest()); err != nil {
		t.Fatalf("Monograph() error = %v", err)
	}
	if got := len(f.gen.RequestsFor(works.WorkPromptKey)); got != 2 {
		t.Errorf("%d monograph requests, want 2", got)
	}
}

func TestMonograph_FailureLeavesNothing(t *testing.T) {
	f := newFixture(t, func(req capability.Request) (capability.Value, error) {
		return nil, &capability.Error{Kind: capability.ErrUnavailable, Key: req.Key, Err: errors.New("timeout")}
	})

	if _, err := f.pipeline.Monograph(context.Background(), workRequest()); !errors.Is(err, capability.ErrUnavailable) {
		t.Fatalf("Monograph() error = %v, want ErrUnavailable", err)
	}
	if ids := f.store.IDs(assets.KindWork); len(ids) != 0 {
		t.Errorf("assignment left behind: %v", ids)
	}
}
