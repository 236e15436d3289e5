package llmclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"continuum/internal/domain"
)

func TestRulesBackendScoreAffectDetectsKeyword(t *testing.T) {
	b := NewRulesBackend()
	window := []domain.Message{
		{Speaker: domain.SpeakerUser, Content: "thank you so much for helping me today", Timestamp: time.Now()},
	}
	raw, err := b.ScoreAffect(context.Background(), window)
	require.NoError(t, err)
	require.Equal(t, string(domain.EmotionGratitude), raw.PrimaryTag)
	require.Equal(t, 0.3, raw.Confidence)
}

func TestRulesBackendScoreAffectDefaultsToNeutral(t *testing.T) {
	b := NewRulesBackend()
	window := []domain.Message{
		{Speaker: domain.SpeakerUser, Content: "what time is the meeting", Timestamp: time.Now()},
	}
	raw, err := b.ScoreAffect(context.Background(), window)
	require.NoError(t, err)
	require.Equal(t, string(domain.EmotionNeutral), raw.PrimaryTag)
}

func TestRulesBackendSummarizePicksHighestImportance(t *testing.T) {
	b := NewRulesBackend()
	entries := []domain.MemoryEntry{
		{Content: "talked about lunch plans.", Importance: 0.1},
		{Content: "finally shipped the big release after months of work.", Importance: 0.9},
	}
	summary, err := b.Summarize(context.Background(), entries)
	require.NoError(t, err)
	require.Contains(t, summary, "shipped the big release")
	require.Contains(t, summary, "plus 1 related entries")
}
