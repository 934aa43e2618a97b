package capability

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/RafaArmero1993/MentorIA/internal/providers"
)

// Aspect ratios accepted by an Illustrator.
const (
	AspectWide   = providers.AspectWide
	AspectSquare = providers.AspectSquare
)

// Image is a generated raster illustration.
type Image struct {
	Data []byte
	MIME string
}

// Illustrator produces illustrations from a text prompt.
type Illustrator interface {
	Illustrate(ctx context.Context, prompt, aspect string) (Image, error)
}

// SpeechRequest is one synthesis call. Empty fields use the Speaker defaults.
type SpeechRequest struct {
	Text     string
	Voice    string
	Model    string
	Format   string
	Language string
}

// Audio is synthesized speech.
type Audio struct {
	Data   []byte
	Format string
}

// Speaker synthesizes speech.
type Speaker interface {
	Synthesize(ctx context.Context, req SpeechRequest) (Audio, error)
}

// ProviderIllustrator adapts a providers.ImageProvider.
type ProviderIllustrator struct {
	Provider providers.ImageProvider
	Model    string
}

// Illustrate generates one image with the given aspect.
func (p *ProviderIllustrator) Illustrate(ctx context.Context, prompt, aspect string) (Image, error) {
	if strings.TrimSpace(prompt) == "" {
		return Image{}, &Error{Kind: ErrMalformed, Key: "illustrate", Err: errors.New("empty prompt")}
	}
	res, err := p.Provider.GenerateImage(ctx, &providers.ImageRequest{Prompt: prompt, Aspect: aspect, Model: p.Model})
	if err != nil {
		if ctx.Err() != nil {
			return Image{}, ctx.Err()
		}
		return Image{}, &Error{Kind: ErrUnavailable, Key: "illustrate", Err: err}
	}
	if len(res.Image) == 0 {
		return Image{}, &Error{Kind: ErrMalformed, Key: "illustrate", Err: errors.New("provider returned no image")}
	}
	mime := res.MIME
	if mime == "" {
		mime = "image/png"
	}
	return Image{Data: res.Image, MIME: mime}, nil
}

// ProviderSpeaker adapts a providers.TTSProvider, filling empty request
// fields from its defaults.
type ProviderSpeaker struct {
	Provider providers.TTSProvider
	Voice    string
	Model    string
	Format   string
	Language string
}

// Synthesize converts req.Text to audio.
func (p *ProviderSpeaker) Synthesize(ctx context.Context, req SpeechRequest) (Audio, error) {
	if strings.TrimSpace(req.Text) == "" {
		return Audio{}, &Error{Kind: ErrMalformed, Key: "synthesize", Err: errors.New("empty text")}
	}
	ttsReq := &providers.TTSRequest{
		Text:     req.Text,
		Voice:    orDefault(req.Voice, p.Voice),
		Model:    orDefault(req.Model, p.Model),
		Format:   orDefault(req.Format, p.Format),
		Language: orDefault(req.Language, p.Language),
	}
	res, err := p.Provider.Generate(ctx, ttsReq)
	if err != nil {
		if ctx.Err() != nil {
			return Audio{}, ctx.Err()
		}
		return Audio{}, &Error{Kind: ErrUnavailable, Key: "synthesize", Err: err}
	}
	if len(res.Audio) == 0 {
		return Audio{}, &Error{Kind: ErrMalformed, Key: "synthesize", Err: fmt.Errorf("%s returned no audio", p.Provider.Name())}
	}
	format := res.Format
	if format == "" {
		format = "mp3"
	}
	return Audio{Data: res.Audio, Format: format}, nil
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

var (
	_ Illustrator = (*ProviderIllustrator)(nil)
	_ Speaker     = (*ProviderSpeaker)(nil)
)
