package assembler

import (
	"strings"
	"testing"

	"github.com/RafaArmero1993/MentorIA/internal/resolver"
	"github.com/RafaArmero1993/MentorIA/internal/templates"
)

func component(typ templates.Type, htmlFrag string) templates.Component {
	return templates.Component{Name: string(typ), Type: typ, HTML: htmlFrag}
}

func TestFragment(t *testing.T) {
	doc := Document{Subject: "Física & Química", Level: "4º ESO"}
	tests := []struct {
		name string
		in   resolver.Resolved
		want string
	}{
		{
			"header",
			resolver.Resolved{Component: component(templates.TypeHeader, `<header>#asignatura#|#nivel_academico#</header>`)},
			"<header>Física &amp; Química|4º ESO</header>",
		},
		{
			"text",
			resolver.Resolved{Component: component(templates.TypeText, `<div>#content#</div>`), Content: "<p>a</p>"},
			"<div><p>a</p></div>",
		},
		{
			"paired",
			resolver.Resolved{Component: component(templates.TypeTextImage, `<div>#content#<img src="data:image/png;base64,#base64_image#"></div>`), Content: "<p>a</p>", Image: "QUJD"},
			`<div><p>a</p><img src="data:image/png;base64,QUJD"></div>`,
		},
		{
			"qr",
			resolver.Resolved{Component: component(templates.TypeQR, `<img src="data:image/png;base64,#qr_image#">`), QR: "UVI="},
			`<img src="data:image/png;base64,UVI=">`,
		},
		{
			"no placeholder",
			resolver.Resolved{Component: component(templates.TypeText, `<hr>`), Content: "ignored"},
			"<hr>",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := doc.Fragment(tt.in); got != tt.want {
				t.Errorf("Fragment() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAssemble_Deterministic(t *testing.T) {
	catalog, err := templates.Default()
	if err != nil {
		t.Fatal(err)
	}
	doc := Document{Subject: "Biología", Level: "1º Bachillerato", CSS: catalog.CSS()}
	pages := [][]resolver.Resolved{
		{
			{Component: catalog.Canonical(templates.TypeHeader)},
			resolver.Label(catalog.Canonical(templates.TypeUnit), "La célula"),
			{Component: catalog.Canonical(templates.TypeText), Content: "<p>uno</p>"},
		},
		{
			{Component: catalog.Canonical(templates.TypeImage), Image: "SU1H"},
			{Component: catalog.Canonical(templates.TypeQR), QR: "UVI=", AudioID: "1_1"},
		},
	}

	first := doc.Assemble(pages)
	if second := doc.Assemble(pages); first != second {
		t.Error("assembly must be deterministic")
	}

	if !strings.HasPrefix(first, `<!doctype html><html lang="es"><head><meta charset="utf-8"><style>`) {
		t.Errorf("unexpected shell start: %.80s", first)
	}
	if !strings.HasSuffix(first, `</div></body></html>`) {
		t.Error("unexpected shell end")
	}
	for _, want := range []string{"Biología", "La célula", "<p>uno</p>", "base64,SU1H", "base64,UVI=", ".dina4"} {
		if !strings.Contains(first, want) {
			t.Errorf("document missing %q", want)
		}
	}
	for _, ph := range []string{"#content#", "#base64_image#", "#qr_image#", "#asignatura#", "#nivel_academico#"} {
		if strings.Contains(first, ph) {
			t.Errorf("placeholder %s left unsubstituted", ph)
		}
	}
	if strings.Index(first, "La célula") > strings.Index(first, "base64,SU1H") {
		t.Error("pages out of order")
	}
}
