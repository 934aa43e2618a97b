package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/RafaArmero1993/MentorIA/internal/capability"
	"github.com/RafaArmero1993/MentorIA/internal/markup"
	"github.com/RafaArmero1993/MentorIA/internal/pagination"
	"github.com/RafaArmero1993/MentorIA/internal/prompts/components"
	"github.com/RafaArmero1993/MentorIA/internal/templates"
)

const contentField = "content"

var (
	exampleShape     = capability.TextShape("example", contentField, "Worked example in HTML.")
	explanationShape = capability.TextShape("explanation", contentField, "Spoken explanation in plain text.")
)

// Page is one page ready for resolution.
type Page struct {
	pagination.Page `yaml:",inline"`
	Draft           string                `json:"draft" yaml:"draft"`
	Template        string                `json:"template" yaml:"template"`
	Components      []templates.Component `json:"components" yaml:"components"`
}

// ResolveAll resolves every page in order, starting from an empty State.
func (r *Resolver) ResolveAll(ctx context.Context, pages []Page) ([][]Resolved, State, error) {
	var st State
	out := make([][]Resolved, 0, len(pages))
	for _, p := range pages {
		resolved, next, err := r.ResolvePage(ctx, st, p)
		if err != nil {
			return nil, st, err
		}
		out = append(out, resolved)
		st = next
	}
	r.logger.Info("component resolution complete", "pages", len(out), "audios", st.Audios)
	return out, st, nil
}

// ResolvePage resolves the components of one page and returns the state for
// the next page. Text, examples and QR codes are resolved left to right;
// illustrations follow once their neighbours are known. On error the input
// state is returned unchanged and audio stored for this page is deleted.
func (r *Resolver) ResolvePage(ctx context.Context, st State, p Page) ([]Resolved, State, error) {
	start := st
	var audioIDs []string
	fail := func(err error) ([]Resolved, State, error) {
		r.discard(ctx, audioIDs)
		return nil, start, err
	}

	frags, err := r.fragments(ctx, p)
	if err != nil {
		return fail(err)
	}

	out := make([]Resolved, len(p.Components))
	var (
		textBuf  []string
		nextText int
	)
	for i, comp := range p.Components {
		switch t := comp.Type; {
		case t == templates.TypeHeader:
			out[i] = Resolved{Component: comp}
		case t == templates.TypeUnit:
			out[i] = Label(comp, p.Unit)
		case t == templates.TypeChapter:
			out[i] = Label(comp, p.Chapter)
		case t == templates.TypeSection:
			out[i] = Label(comp, p.Section)
		case t.HasText():
			frag := frags[nextText]
			nextText++
			plain := markup.PlainText(frag)
			textBuf = append(textBuf, plain)
			st = st.withSpeech(plain)
			out[i] = Resolved{Component: comp, Content: frag}
		case t.HasExample():
			grounding := strings.Join(textBuf, "\n\n")
			if grounding == "" {
				grounding = p.Draft
			}
			example, err := r.example(ctx, p.Index, grounding)
			if err != nil {
				return fail(err)
			}
			textBuf = nil
			st = st.withSpeech(markup.PlainText(example))
			out[i] = Resolved{Component: comp, Content: example}
		case t == templates.TypeImage:
			out[i] = Resolved{Component: comp}
		case t == templates.TypeQR:
			grounding := st.Speech
			if grounding == "" {
				grounding = p.Draft
			}
			script, err := r.explanation(ctx, p.Index, grounding)
			if err != nil {
				return fail(err)
			}
			res, next, err := r.LinkAudio(ctx, st, comp, script)
			if err != nil {
				return fail(pageErr(p.Index, "qr", err))
			}
			audioIDs = append(audioIDs, res.AudioID)
			out[i], st = res, next
		default:
			return fail(pageErr(p.Index, string(t), errors.New("component is not resolvable on content pages")))
		}
	}

	for i := range out {
		if !out[i].Type.HasImage() {
			continue
		}
		img, err := r.illustrate(ctx, p.Index, imageGrounding(out, i, p.Draft), out[i].Type.Aspect())
		if err != nil {
			return fail(err)
		}
		data, err := templates.PNG(img.Data)
		if err != nil {
			return fail(pageErr(p.Index, "image", &capability.Error{Kind: capability.ErrMalformed, Key: components.ImagePromptKey, Err: err}))
		}
		out[i].Image = encode(data)
	}

	r.logger.Info("resolved page", "page", p.Index, "role", p.Role, "template", p.Template, "components", len(out))
	return out, st, nil
}

// fragments splits the page draft into one HTML fragment per text slot, in a
// single request sized by each slot's text length.
func (r *Resolver) fragments(ctx context.Context, p Page) ([]string, error) {
	var blocks []components.Block
	for _, comp := range p.Components {
		if comp.Type.HasText() {
			n := len(blocks) + 1
			blocks = append(blocks, components.Block{Number: n, Field: fmt.Sprintf("text%d", n), Length: comp.TextLength})
		}
	}
	if len(blocks) == 0 {
		return nil, nil
	}

	shape := capability.Shape{Name: "page_fragments"}
	for _, b := range blocks {
		shape.Fields = append(shape.Fields, capability.Field{
			Name:        b.Field,
			Kind:        capability.KindText,
			Description: fmt.Sprintf("Text block %d in HTML, about %d characters.", b.Number, b.Length),
		})
	}

	v, err := r.generate(ctx, p.Index, components.FragmentsPromptKey, components.FragmentsData{Content: p.Draft, Blocks: blocks}, shape)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(blocks))
	for i, b := range blocks {
		frag, err := r.normalize(v.Text(b.Field), components.FragmentsPromptKey, markup.FragmentTags)
		if err != nil {
			return nil, pageErr(p.Index, b.Field, err)
		}
		out[i] = frag
	}
	return out, nil
}

func (r *Resolver) example(ctx context.Context, page int, grounding string) (string, error) {
	v, err := r.generate(ctx, page, components.ExamplePromptKey, components.GroundedData{Level: r.cfg.Level, Grounding: grounding}, exampleShape)
	if err != nil {
		return "", err
	}
	example, err := r.normalize(v.Text(contentField), components.ExamplePromptKey, markup.FragmentTags)
	if err != nil {
		return "", pageErr(page, "example", err)
	}
	return example, nil
}

func (r *Resolver) explanation(ctx context.Context, page int, grounding string) (string, error) {
	v, err := r.generate(ctx, page, components.ExplanationPromptKey, components.GroundedData{
		Level:     r.cfg.Level,
		Narrator:  r.cfg.Narrator,
		Grounding: grounding,
	}, explanationShape)
	if err != nil {
		return "", err
	}
	return markup.PlainText(v.Text(contentField)), nil
}

func (r *Resolver) illustrate(ctx context.Context, page int, grounding, aspect string) (capability.Image, error) {
	prompt, err := r.prompts.Render(components.ImagePromptKey, components.GroundedData{
		Level:     r.cfg.Level,
		Style:     r.cfg.ImageStyle,
		Grounding: grounding,
	})
	if err != nil {
		return capability.Image{}, err
	}
	img, err := r.cfg.Illustrator.Illustrate(ctx, prompt, aspect)
	if err != nil {
		return capability.Image{}, pageErr(page, "image", err)
	}
	return img, nil
}

func (r *Resolver) generate(ctx context.Context, page int, key string, data any, shape capability.Shape) (capability.Value, error) {
	system, err := r.systemPrompt()
	if err != nil {
		return nil, err
	}
	prompt, err := r.prompts.Render(key, data)
	if err != nil {
		return nil, err
	}
	v, err := r.cfg.Generator.Generate(ctx, capability.Request{
		Key:    key,
		System: system,
		Prompt: prompt,
		Shape:  shape,
		Model:  r.cfg.Model,
		Page:   page,
	})
	if err != nil {
		return nil, pageErr(page, key, err)
	}
	return v, nil
}

func (r *Resolver) normalize(reply, key string, allowed []string) (string, error) {
	out, err := markup.Normalize(reply, allowed)
	if err != nil {
		return "", &capability.Error{Kind: capability.ErrMalformed, Key: key, Err: err}
	}
	if markup.PlainText(out) == "" {
		return "", &capability.Error{Kind: capability.ErrMalformed, Key: key, Err: errors.New("empty content")}
	}
	return out, nil
}

// imageGrounding picks the text an illustration depicts. A paired image
// depicts its own text or example. A standalone image depicts the nearest
// preceding content, else the nearest following one, else the page draft.
func imageGrounding(out []Resolved, i int, draft string) string {
	if out[i].Type.Paired() {
		return markup.PlainText(out[i].Content)
	}
	bearing := func(r Resolved) bool {
		return (r.Type.HasText() || r.Type.HasExample()) && r.Content != ""
	}
	for j := i - 1; j >= 0; j-- {
		if bearing(out[j]) {
			return markup.PlainText(out[j].Content)
		}
	}
	for j := i + 1; j < len(out); j++ {
		if bearing(out[j]) {
			return markup.PlainText(out[j].Content)
		}
	}
	return draft
}
