package markup

import "testing"

func TestPlainText(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"paragraphs", "<p>La célula</p><p>es la unidad <b>básica</b>.</p>", "La célula\nes la unidad básica."},
		{"list", "<ul><li>uno</li><li>dos</li></ul>", "uno\ndos"},
		{"whitespace", "<p>  mucho \n\t espacio  </p>", "mucho espacio"},
		{"script dropped", "<p>a</p><script>alert(1)</script>", "a"},
		{"entities", "<p>5 &lt; 7 &amp; 3</p>", "5 < 7 & 3"},
		{"plain input", "sin marcado", "sin marcado"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PlainText(tt.in); got != tt.want {
				t.Errorf("PlainText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		allowed []string
		want    string
	}{
		{"allowed kept", "<p>Hola <b>mundo</b></p>", FragmentTags, "<p>Hola <b>mundo</b></p>"},
		{"attributes stripped", `<p class="x" style="color:red">a</p>`, FragmentTags, "<p>a</p>"},
		{"aliases", "<p><strong>a</strong> <em>b</em></p>", FragmentTags, "<p><b>a</b> <i>b</i></p>"},
		{"headings unwrapped", "<h2>Título</h2><p>texto</p>", FragmentTags, "<p>Título</p><p>texto</p>"},
		{"div unwrapped", "<div><p>a</p></div>", FragmentTags, "<p>a</p>"},
		{"loose text wrapped", "texto <b>suelto</b>", FragmentTags, "<p>texto <b>suelto</b></p>"},
		{"script removed", "<p>a</p><script>x()</script>", FragmentTags, "<p>a</p>"},
		{"underline only for exercises", "<p><u>a</u></p>", FragmentTags, "<p>a</p>"},
		{"underline kept", "<p><u>a</u></p>", ExerciseTags, "<p><u>a</u></p>"},
		{"list", "<ol><li>a</li><li>b</li></ol>", FragmentTags, "<ol><li>a</li><li>b</li></ol>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Sanitize(tt.in, tt.allowed)
			if err != nil {
				t.Fatalf("Sanitize() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"html passthrough", "<p>a</p>", "<p>a</p>"},
		{"fenced html", "```html\n<p>a</p>\n```", "<p>a</p>"},
		{"markdown", "Un **ejemplo** claro\n\n- uno\n- dos", "<p>Un <b>ejemplo</b> claro</p><ul>\n<li>uno</li>\n<li>dos</li>\n</ul>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in, FragmentTags)
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
