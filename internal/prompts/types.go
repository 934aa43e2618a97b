// Package prompts provides prompt management with embedded defaults and
// file-based overrides.
//
// Each pipeline stage ships its prompts as embedded .tmpl files (Go
// text/template) in a subpackage and registers them with a Resolver.
//
// Resolution order for a key:
//  1. Override loaded from the prompts directory ({dir}/{key}.tmpl), if any
//  2. Embedded default (from .tmpl files in code)
//
// Every resolved prompt carries a content hash so call records can be tied
// to the exact prompt text that produced them.
package prompts

// EmbeddedPrompt represents a prompt loaded from an embedded .tmpl file.
type EmbeddedPrompt struct {
	Key         string   // Hierarchical key: drafter.user
	Text        string   // The prompt text (Go template)
	Description string   // Human-readable description
	Variables   []string // Extracted template variables
	Hash        string   // SHA256 hash of the text for change detection
}

// ResolvedPrompt is the result of resolving a prompt key.
type ResolvedPrompt struct {
	Key        string   `json:"key" yaml:"key"`
	Text       string   `json:"text" yaml:"text"`
	Variables  []string `json:"variables,omitempty" yaml:"variables,omitempty"`
	IsOverride bool     `json:"is_override" yaml:"is_override"`
	Hash       string   `json:"hash" yaml:"hash"`
}
