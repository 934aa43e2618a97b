package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/RafaArmero1993/MentorIA/internal/assets"
	"github.com/RafaArmero1993/MentorIA/internal/capability"
	"github.com/RafaArmero1993/MentorIA/internal/templates"
)

// LinkAudio synthesizes script, stores the audio under the next audio id and
// returns comp resolved to a QR code linking to it. The speech buffer is
// cleared. On failure nothing is left in the store.
func (r *Resolver) LinkAudio(ctx context.Context, st State, comp templates.Component, script string) (Resolved, State, error) {
	script = strings.TrimSpace(script)
	if script == "" {
		return Resolved{}, st, &capability.Error{Kind: capability.ErrMalformed, Key: "speech", Err: errors.New("empty script")}
	}

	audio, err := r.cfg.Speaker.Synthesize(ctx, capability.SpeechRequest{Text: script})
	if err != nil {
		return Resolved{}, st, fmt.Errorf("synthesizing speech: %w", err)
	}

	id := fmt.Sprintf("%s_%d", r.cfg.DocumentID, st.Audios+1)
	if err := r.cfg.Store.Save(ctx, assets.KindAudio, id, audio.Data); err != nil {
		return Resolved{}, st, fmt.Errorf("saving audio %s: %w", id, err)
	}

	qr, err := assets.EncodeQR(assets.AudioURL(r.cfg.PublicBaseURL, id), r.cfg.QRSize)
	if err != nil {
		r.discard(ctx, []string{id})
		return Resolved{}, st, err
	}

	r.logger.Debug("linked audio", "audio_id", id, "bytes", len(audio.Data))
	st.Audios++
	st.Speech = ""
	return Resolved{Component: comp, QR: encode(qr), AudioID: id}, st, nil
}

// discard deletes audio written for a page that failed. It runs even when
// ctx is cancelled.
func (r *Resolver) discard(ctx context.Context, ids []string) {
	ctx = context.WithoutCancel(ctx)
	for _, id := range ids {
		if err := r.cfg.Store.Delete(ctx, assets.KindAudio, id); err != nil {
			r.logger.Warn("failed to discard audio", "audio_id", id, "error", err)
		}
	}
}
