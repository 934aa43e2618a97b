package providers

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestRegistry(t *testing.T) {
	t.Run("register and get", func(t *testing.T) {
		r := NewRegistry()
		llm := NewMockClient()
		tts := NewMockTTSProvider()
		img := NewMockImageProvider()

		r.RegisterLLM("llm", llm)
		r.RegisterTTS("tts", tts)
		r.RegisterImage("img", img)

		if got, err := r.GetLLM("llm"); err != nil || got != llm {
			t.Errorf("GetLLM() = %v, %v", got, err)
		}
		if got, err := r.GetTTS("tts"); err != nil || got != tts {
			t.Errorf("GetTTS() = %v, %v", got, err)
		}
		if got, err := r.GetImage("img"); err != nil || got != img {
			t.Errorf("GetImage() = %v, %v", got, err)
		}
	})

	t.Run("missing providers", func(t *testing.T) {
		r := NewRegistry()
		if _, err := r.GetLLM("nope"); err == nil {
			t.Error("expected error for missing LLM")
		}
		if _, err := r.GetTTS("nope"); err == nil {
			t.Error("expected error for missing TTS")
		}
		if _, err := r.GetImage("nope"); err == nil {
			t.Error("expected error for missing image provider")
		}
	})

	t.Run("concurrent access", func(t *testing.T) {
		r := NewRegistry()
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				r.RegisterLLM("shared", NewMockClient())
			}()
			go func() {
				defer wg.Done()
				_ = r.ListLLM()
			}()
		}
		wg.Wait()
	})
}

func TestRegistryReload(t *testing.T) {
	cfg := RegistryConfig{
		LLMProviders: map[string]LLMProviderConfig{
			"openrouter": {Type: "openrouter", APIKey: "k1", Model: "m", Enabled: true},
			"disabled":   {Type: "openrouter", APIKey: "k", Enabled: false},
		},
		TTSProviders: map[string]TTSProviderConfig{
			"elevenlabs": {Type: "elevenlabs", APIKey: "k", Voice: "v", Enabled: true},
			"nokey":      {Type: "openai", Enabled: true},
		},
		ImageProviders: map[string]ImageProviderConfig{
			"openai": {Type: "openai", APIKey: "k", Enabled: true},
		},
	}

	r := NewRegistryFromConfig(cfg)
	if got := r.ListLLM(); len(got) != 1 || got[0] != "openrouter" {
		t.Fatalf("ListLLM() = %v", got)
	}
	if got := r.ListTTS(); len(got) != 1 || got[0] != "elevenlabs" {
		t.Fatalf("ListTTS() = %v", got)
	}
	if got := r.ListImage(); len(got) != 1 {
		t.Fatalf("ListImage() = %v", got)
	}

	before, _ := r.GetLLM("openrouter")
	r.Reload(cfg)
	same, _ := r.GetLLM("openrouter")
	if before != same {
		t.Error("unchanged config should keep the existing client")
	}

	cfg.LLMProviders["openrouter"] = LLMProviderConfig{Type: "openrouter", APIKey: "k2", Model: "m", Enabled: true}
	r.Reload(cfg)
	changed, _ := r.GetLLM("openrouter")
	if changed == before {
		t.Error("changed config should recreate the client")
	}

	manual := NewMockClient()
	r.RegisterLLM("manual", manual)
	delete(cfg.TTSProviders, "elevenlabs")
	r.Reload(cfg)
	if len(r.ListTTS()) != 0 {
		t.Errorf("removed TTS provider still registered: %v", r.ListTTS())
	}
	if _, err := r.GetLLM("manual"); err != nil {
		t.Error("manually registered client should survive reload")
	}
}

func TestRateLimiterBlocksAfter429(t *testing.T) {
	rl := NewRateLimiter(6000)
	if err := rl.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	rl.Record429(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := rl.Wait(ctx); err == nil {
		t.Fatal("expected Wait to block until context deadline")
	}
	if st := rl.Status(); st.TotalConsumed != 1 {
		t.Errorf("TotalConsumed = %d, want 1", st.TotalConsumed)
	}
}
