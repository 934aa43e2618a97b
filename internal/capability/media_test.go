package capability

import (
	"context"
	"errors"
	"testing"

	"github.com/RafaArmero1993/MentorIA/internal/providers"
)

func TestProviderSpeaker_Defaults(t *testing.T) {
	tts := providers.NewMockTTSProvider()
	s := &ProviderSpeaker{Provider: tts, Voice: "v1", Model: "m1", Format: "mp3_44100_128", Language: "es"}

	audio, err := s.Synthesize(context.Background(), SpeechRequest{Text: "Hola", Voice: "override"})
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if len(audio.Data) == 0 || audio.Format != "mp3" {
		t.Errorf("unexpected audio: %+v", audio)
	}
	got := tts.Requests()[0]
	if got.Voice != "override" || got.Model != "m1" || got.Language != "es" || got.Format != "mp3_44100_128" {
		t.Errorf("defaults not applied: %+v", got)
	}
}

func TestProviderSpeaker_Errors(t *testing.T) {
	tts := providers.NewMockTTSProvider()
	s := &ProviderSpeaker{Provider: tts}

	if _, err := s.Synthesize(context.Background(), SpeechRequest{Text: "  "}); !errors.Is(err, ErrMalformed) {
		t.Errorf("empty text error = %v", err)
	}
	tts.ShouldFail = true
	if _, err := s.Synthesize(context.Background(), SpeechRequest{Text: "x"}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("provider failure error = %v", err)
	}
}

func TestProviderIllustrator(t *testing.T) {
	img := providers.NewMockImageProvider()
	il := &ProviderIllustrator{Provider: img, Model: "gpt-image-1"}

	out, err := il.Illustrate(context.Background(), "a cell", AspectSquare)
	if err != nil {
		t.Fatalf("Illustrate() error = %v", err)
	}
	if out.MIME != "image/png" || len(out.Data) == 0 {
		t.Errorf("unexpected image: %+v", out)
	}
	req := img.Requests()[0]
	if req.Aspect != AspectSquare || req.Model != "gpt-image-1" {
		t.Errorf("unexpected request: %+v", req)
	}

	img.ShouldFail = true
	if _, err := il.Illustrate(context.Background(), "a cell", AspectWide); !errors.Is(err, ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}
