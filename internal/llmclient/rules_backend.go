package llmclient

import (
	"context"
	"strconv"
	"strings"

	"continuum/internal/domain"
)

// keywordEmotions maps rough lexical signals to a PAD direction and a
// closed-vocabulary tag, the same rustic on-purpose keyword-veto approach
// the teacher uses for DetectHighTensionFromNarrative: cheap, deterministic,
// good enough to keep the engine usable with no network backend configured.
var keywordEmotions = []struct {
	markers []string
	tag     domain.EmotionTag
	pad     domain.PAD
}{
	{[]string{"love", "grateful", "thank you", "appreciate"}, domain.EmotionGratitude, domain.PAD{Pleasure: 0.7, Arousal: 0.3, Dominance: 0.2}},
	{[]string{"furious", "angry", "pissed", "hate you"}, domain.EmotionAnger, domain.PAD{Pleasure: -0.6, Arousal: 0.7, Dominance: 0.4}},
	{[]string{"scared", "afraid", "terrified", "anxious"}, domain.EmotionAnxiety, domain.PAD{Pleasure: -0.4, Arousal: 0.6, Dominance: -0.5}},
	{[]string{"sad", "crying", "heartbroken", "miss you"}, domain.EmotionSadness, domain.PAD{Pleasure: -0.6, Arousal: -0.2, Dominance: -0.3}},
	{[]string{"proud", "nailed it", "shipped", "finished"}, domain.EmotionPride, domain.PAD{Pleasure: 0.6, Arousal: 0.4, Dominance: 0.5}},
	{[]string{"sorry", "regret", "shouldn't have", "my mistake"}, domain.EmotionRegret, domain.PAD{Pleasure: -0.3, Arousal: 0.1, Dominance: -0.4}},
	{[]string{"excited", "can't wait", "looking forward"}, domain.EmotionAnticipation, domain.PAD{Pleasure: 0.5, Arousal: 0.6, Dominance: 0.3}},
	{[]string{"curious", "wonder", "i wonder", "what if"}, domain.EmotionCuriosity, domain.PAD{Pleasure: 0.2, Arousal: 0.3, Dominance: 0.1}},
}

// RulesBackend is the zero-dependency fallback analyzer: no network, no
// model, just keyword veto. It always reports low confidence so a
// consolidation pass using a stronger backend can override it later.
type RulesBackend struct{}

func NewRulesBackend() *RulesBackend { return &RulesBackend{} }

func (b *RulesBackend) Name() string { return "rules" }

func (b *RulesBackend) ScoreAffect(_ context.Context, window []domain.Message) (domain.RawAffect, error) {
	if len(window) == 0 {
		return domain.RawAffect{PrimaryTag: string(domain.EmotionNeutral), Confidence: 0.3}, nil
	}
	text := strings.ToLower(window[len(window)-1].Content)

	for _, m := range keywordEmotions {
		for _, marker := range m.markers {
			if strings.Contains(text, marker) {
				return domain.RawAffect{
					Pleasure:   m.pad.Pleasure,
					Arousal:    m.pad.Arousal,
					Dominance:  m.pad.Dominance,
					PrimaryTag: string(m.tag),
					Confidence: 0.3,
				}, nil
			}
		}
	}
	return domain.RawAffect{PrimaryTag: string(domain.EmotionNeutral), Confidence: 0.3}, nil
}

// Summarize produces a terse extractive summary: the first sentence of
// the highest-importance entry plus a count of the rest, matching
// spec.md's contract that summarization must always degrade gracefully
// rather than fail the consolidation pass.
func (b *RulesBackend) Summarize(_ context.Context, entries []domain.MemoryEntry) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}
	best := entries[0]
	for _, e := range entries[1:] {
		if e.Importance > best.Importance {
			best = e
		}
	}
	lead := firstSentence(best.Content)
	if len(entries) == 1 {
		return lead, nil
	}
	return lead + " (plus " + strconv.Itoa(len(entries)-1) + " related entries)", nil
}

func firstSentence(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, ".!?\n"); i >= 0 {
		return strings.TrimSpace(s[:i+1])
	}
	if len(s) > 160 {
		return s[:160] + "..."
	}
	return s
}
