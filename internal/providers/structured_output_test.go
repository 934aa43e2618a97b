package providers

import (
	"encoding/json"
	"testing"
)

func TestParseStructuredJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		wantErr bool
	}{
		{name: "plain object", content: `{"extension": 3}`, want: `{"extension":3}`},
		{name: "code fence", content: "```json\n{\"ok\":true}\n```", want: `{"ok":true}`},
		{name: "surrounding prose", content: "Sure! Here it is: {\"plantilla\":\"A\"} hope it helps", want: `{"plantilla":"A"}`},
		{name: "empty", content: "   ", wantErr: true},
		{name: "no json", content: "three pages", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStructuredJSON(tt.content)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %s", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseStructuredJSON() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestValidateStructuredJSON_Enum(t *testing.T) {
	schema := json.RawMessage(`{
		"name":"template_choice",
		"strict":true,
		"schema":{
			"type":"object",
			"properties":{"template":{"type":"string","enum":["A","B","C"]}},
			"required":["template"],
			"additionalProperties":false
		}
	}`)

	if err := ValidateStructuredJSON(schema, json.RawMessage(`{"template":"B"}`)); err != nil {
		t.Fatalf("valid choice rejected: %v", err)
	}
	if err := ValidateStructuredJSON(schema, json.RawMessage(`{"template":"D"}`)); err == nil {
		t.Fatal("choice outside enum accepted")
	}
}

func TestValidateStructuredJSON_IntegerType(t *testing.T) {
	schema := json.RawMessage(`{"type":"object","properties":{"extension":{"type":"integer"}},"required":["extension"]}`)

	if err := ValidateStructuredJSON(schema, json.RawMessage(`{"extension":4}`)); err != nil {
		t.Fatalf("integer rejected: %v", err)
	}
	if err := ValidateStructuredJSON(schema, json.RawMessage(`{"extension":"four"}`)); err == nil {
		t.Fatal("string accepted for integer field")
	}
}

func TestAdaptedResponseFormat_Anthropic(t *testing.T) {
	rf := &ResponseFormat{Type: "json_schema", JSONSchema: json.RawMessage(`{"schema":{}}`)}

	got, err := adaptedResponseFormat("anthropic/claude-sonnet-4", rf)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("expected prompt-only structure for anthropic models, got %+v", got)
	}

	got, err = adaptedResponseFormat("google/gemini-2.5-flash", rf)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Type != "json_schema" {
		t.Errorf("expected native response format, got %+v", got)
	}
}
