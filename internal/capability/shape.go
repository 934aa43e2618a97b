package capability

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/RafaArmero1993/MentorIA/internal/providers"
)

// FieldKind is the JSON type a response field must have.
type FieldKind string

const (
	KindText    FieldKind = "string"
	KindInteger FieldKind = "integer"
	KindEnum    FieldKind = "enum"
)

// Field is one named value in a response shape.
type Field struct {
	Name        string
	Kind        FieldKind
	Description string
	// Values lists the allowed values of an enum field.
	Values []string
}

// Shape constrains a reply to a flat object of named fields.
type Shape struct {
	Name   string
	Fields []Field
}

// TextShape is a shape with a single free text field.
func TextShape(name, field, description string) Shape {
	return Shape{Name: name, Fields: []Field{{Name: field, Kind: KindText, Description: description}}}
}

// IntegerShape is a shape with a single integer field.
func IntegerShape(name, field, description string) Shape {
	return Shape{Name: name, Fields: []Field{{Name: field, Kind: KindInteger, Description: description}}}
}

// EnumShape is a shape with a single field constrained to values.
func EnumShape(name, field, description string, values []string) Shape {
	return Shape{Name: name, Fields: []Field{{Name: field, Kind: KindEnum, Description: description, Values: values}}}
}

// Schema renders the shape as an OpenAI-style json_schema envelope.
func (s Shape) Schema() json.RawMessage {
	properties := make(map[string]any, len(s.Fields))
	required := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		prop := map[string]any{"description": f.Description}
		switch f.Kind {
		case KindInteger:
			prop["type"] = "integer"
		case KindEnum:
			prop["type"] = "string"
			prop["enum"] = f.Values
		default:
			prop["type"] = "string"
		}
		properties[f.Name] = prop
		required = append(required, f.Name)
	}

	envelope := map[string]any{
		"name":   s.Name,
		"strict": true,
		"schema": map[string]any{
			"type":                 "object",
			"properties":           properties,
			"required":             required,
			"additionalProperties": false,
		},
	}
	data, _ := json.Marshal(envelope)
	return data
}

// ResponseFormat returns the provider response format for the shape, or nil
// for an empty shape.
func (s Shape) ResponseFormat() *providers.ResponseFormat {
	if len(s.Fields) == 0 {
		return nil
	}
	return &providers.ResponseFormat{Type: "json_schema", JSONSchema: s.Schema()}
}

// Check decodes raw into a Value, enforcing field presence, types and enum
// membership. Enum violations wrap ErrConstraint; everything else ErrMalformed.
func (s Shape) Check(raw json.RawMessage) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, &Error{Kind: ErrMalformed, Key: s.Name, Err: err}
	}

	out := make(Value, len(s.Fields))
	for _, f := range s.Fields {
		v, ok := obj[f.Name]
		if !ok || v == nil {
			return nil, &Error{Kind: ErrMalformed, Key: s.Name, Err: fmt.Errorf("missing field %q", f.Name)}
		}

		switch f.Kind {
		case KindInteger:
			n, ok := v.(json.Number)
			if !ok {
				return nil, &Error{Kind: ErrMalformed, Key: s.Name, Err: fmt.Errorf("field %q is %T, want integer", f.Name, v)}
			}
			i, err := n.Int64()
			if err != nil {
				return nil, &Error{Kind: ErrMalformed, Key: s.Name, Err: fmt.Errorf("field %q: %w", f.Name, err)}
			}
			out[f.Name] = int(i)
		case KindEnum:
			str, ok := v.(string)
			if !ok {
				return nil, &Error{Kind: ErrMalformed, Key: s.Name, Err: fmt.Errorf("field %q is %T, want string", f.Name, v)}
			}
			if !slices.Contains(f.Values, str) {
				return nil, &Error{Kind: ErrConstraint, Key: s.Name,
					Err: fmt.Errorf("field %q = %q, want one of [%s]", f.Name, str, strings.Join(f.Values, ", "))}
			}
			out[f.Name] = str
		default:
			str, ok := v.(string)
			if !ok {
				return nil, &Error{Kind: ErrMalformed, Key: s.Name, Err: fmt.Errorf("field %q is %T, want string", f.Name, v)}
			}
			out[f.Name] = str
		}
	}
	return out, nil
}

// Value is a checked reply. Integer fields hold int, text and enum fields string.
type Value map[string]any

// Text returns a text or enum field, or "" if absent.
func (v Value) Text(name string) string {
	s, _ := v[name].(string)
	return s
}

// Int returns an integer field, or 0 if absent.
func (v Value) Int(name string) int {
	i, _ := v[name].(int)
	return i
}
