package templates

import "github.com/RafaArmero1993/MentorIA/internal/capability"

// Type is a component type. The set is closed.
type Type string

const (
	TypeHeader       Type = "header"
	TypeUnit         Type = "unit"
	TypeChapter      Type = "chapter"
	TypeSection      Type = "section"
	TypeText         Type = "text"
	TypeExample      Type = "example"
	TypeImage        Type = "image"
	TypeTextImage    Type = "text_image"
	TypeImageText    Type = "image_text"
	TypeExampleImage Type = "example_image"
	TypeImageExample Type = "image_example"
	TypeQR           Type = "qr"
	TypeExercise     Type = "exercise"
	TypeWork         Type = "work"
)

// Types returns every component type.
func Types() []Type {
	return []Type{
		TypeHeader, TypeUnit, TypeChapter, TypeSection,
		TypeText, TypeExample, TypeImage,
		TypeTextImage, TypeImageText, TypeExampleImage, TypeImageExample,
		TypeQR, TypeExercise, TypeWork,
	}
}

// Valid reports whether t belongs to the closed set.
func (t Type) Valid() bool {
	for _, known := range Types() {
		if t == known {
			return true
		}
	}
	return false
}

// HasText reports whether the component consumes a text fragment.
func (t Type) HasText() bool {
	return t == TypeText || t == TypeTextImage || t == TypeImageText
}

// HasExample reports whether the component carries a generated example.
func (t Type) HasExample() bool {
	return t == TypeExample || t == TypeExampleImage || t == TypeImageExample
}

// HasImage reports whether the component carries an illustration.
func (t Type) HasImage() bool {
	return t == TypeImage || t.Paired()
}

// Paired reports whether the image shares the component with text or an example.
func (t Type) Paired() bool {
	return t == TypeTextImage || t == TypeImageText || t == TypeExampleImage || t == TypeImageExample
}

// SheetOnly reports whether the component belongs to the fixed exercise and
// monograph layouts and has no place in a page template.
func (t Type) SheetOnly() bool {
	return t == TypeExercise || t == TypeWork
}

// Label reports whether the component shows a hierarchy label.
func (t Type) Label() bool {
	return t == TypeUnit || t == TypeChapter || t == TypeSection
}

// Aspect returns the illustration aspect: wide when standalone, square when paired.
func (t Type) Aspect() string {
	if t.Paired() {
		return capability.AspectSquare
	}
	return capability.AspectWide
}

// Placeholders substituted into component HTML.
const (
	PlaceholderContent = "#content#"
	PlaceholderImage   = "#base64_image#"
	PlaceholderQR      = "#qr_image#"
	PlaceholderSubject = "#asignatura#"
	PlaceholderLevel   = "#nivel_academico#"
)

// Placeholders returns the placeholders a component of type t must contain.
func (t Type) Placeholders() []string {
	switch {
	case t == TypeHeader:
		return []string{PlaceholderSubject, PlaceholderLevel}
	case t == TypeQR:
		return []string{PlaceholderQR}
	case t == TypeImage:
		return []string{PlaceholderImage}
	case t.Paired():
		return []string{PlaceholderContent, PlaceholderImage}
	}
	return []string{PlaceholderContent}
}

// Component is one catalog entry: a typed slot with its HTML fragment.
type Component struct {
	Name       string `json:"name" yaml:"name"`
	Type       Type   `json:"type" yaml:"type"`
	TextLength int    `json:"text_length,omitempty" yaml:"text_length,omitempty"`
	HTML       string `json:"html" yaml:"html"`
}
