// Package affect implements the affective analyzer (spec component C3):
// it produces a structured Affect for each non-separator Message by
// delegating raw scoring to a pluggable backend and owning all
// post-processing (clamping, vocabulary mapping, intensity, per-speaker
// split, fallback-on-unavailable).
package affect

import (
	"context"
	"math"

	"go.uber.org/zap"

	"continuum/internal/domain"
	"continuum/internal/llmclient"
)

const fallbackConfidenceCap = 0.3

// Analyzer wraps a primary backend with a deterministic rules-based
// fallback, so the pipeline always makes forward progress even when the
// primary is down.
type Analyzer struct {
	primary  llmclient.Backend
	fallback llmclient.Backend
	logger   *zap.Logger
}

func New(primary, fallback llmclient.Backend, logger *zap.Logger) *Analyzer {
	return &Analyzer{primary: primary, fallback: fallback, logger: logger}
}

// Analyze produces the Affect for target, given the preceding messages in
// its session as context. Per-speaker affect is computed by re-scoring
// each coalesced speaker window found in window (target included).
func (a *Analyzer) Analyze(ctx context.Context, target domain.Message, window []domain.Message) (domain.Affect, error) {
	raw, usedFallback, err := a.score(ctx, window)
	if err != nil {
		return domain.Affect{}, err
	}
	if outOfRange(raw) {
		a.logger.Warn("affect: backend returned NaN or out-of-range values, clamping", zap.String("primary_tag", raw.PrimaryTag))
		raw.Confidence = 0
	}

	affect := fromRaw(raw)
	if usedFallback && affect.Confidence > fallbackConfidenceCap {
		affect.Confidence = fallbackConfidenceCap
	}

	perSpeaker := make(map[domain.Speaker]domain.SpeakerAffect)
	for _, sw := range CoalesceSpeakerWindows(window) {
		swRaw, swFallback, err := a.score(ctx, sw.Messages)
		if err != nil {
			continue
		}
		swAffect := fromRaw(swRaw)
		if swFallback && swAffect.Confidence > fallbackConfidenceCap {
			swAffect.Confidence = fallbackConfidenceCap
		}
		perSpeaker[sw.Speaker] = domain.SpeakerAffect{
			PAD:            swAffect.PAD,
			PrimaryEmotion: swAffect.PrimaryEmotion,
			Intensity:      swAffect.Intensity,
		}
	}
	affect.PerSpeaker = perSpeaker

	return affect.Clamp(), nil
}

// AnalyzeBatch analyzes each target in targets against its own
// accompanying window, preserving order, and stops at the first error.
// Each target still costs its own backend calls.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, targets []domain.Message, windows [][]domain.Message) ([]domain.Affect, error) {
	out := make([]domain.Affect, len(targets))
	for i, t := range targets {
		var w []domain.Message
		if i < len(windows) {
			w = windows[i]
		}
		affect, err := a.Analyze(ctx, t, w)
		if err != nil {
			return nil, err
		}
		out[i] = affect
	}
	return out, nil
}

func (a *Analyzer) score(ctx context.Context, window []domain.Message) (domain.RawAffect, bool, error) {
	raw, err := a.primary.ScoreAffect(ctx, window)
	if err == nil {
		return raw, false, nil
	}
	a.logger.Warn("affect: primary backend unavailable, falling back", zap.String("backend", a.primary.Name()), zap.Error(err))

	raw, err = a.fallback.ScoreAffect(ctx, window)
	if err != nil {
		return domain.RawAffect{}, true, err
	}
	return raw, true, nil
}

func outOfRange(raw domain.RawAffect) bool {
	vals := []float64{raw.Pleasure, raw.Arousal, raw.Dominance, raw.Confidence}
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < -1 || v > 1 {
			return true
		}
	}
	return false
}

func fromRaw(raw domain.RawAffect) domain.Affect {
	pad := domain.PAD{Pleasure: raw.Pleasure, Arousal: raw.Arousal, Dominance: raw.Dominance}.Clamp()
	tag := domain.NormalizeEmotionTag(raw.PrimaryTag)
	secondary := raw.Secondary
	if tag == domain.EmotionOther && raw.PrimaryTag != "" {
		secondary = append([]string{raw.PrimaryTag}, secondary...)
	}
	return domain.Affect{
		PAD:            pad,
		PrimaryEmotion: tag,
		Secondary:      secondary,
		Intensity:      pad.Intensity(),
		Confidence:     raw.Confidence,
	}
}
