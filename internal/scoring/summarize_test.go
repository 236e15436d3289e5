package scoring

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"continuum/internal/domain"
)

type stubBackend struct {
	summary string
	err     error
}

func (b *stubBackend) ScoreAffect(ctx context.Context, window []domain.Message) (domain.RawAffect, error) {
	return domain.RawAffect{}, nil
}

func (b *stubBackend) Summarize(ctx context.Context, entries []domain.MemoryEntry) (string, error) {
	return b.summary, b.err
}

func (b *stubBackend) Name() string { return "stub" }

func TestSummarizeUsesBackendWhenAvailable(t *testing.T) {
	s := NewSummarizer(&stubBackend{summary: "a tidy recap"}, zap.NewNop(), 0)
	text, fellBack := s.Summarize(context.Background(), nil)
	require.Equal(t, "a tidy recap", text)
	require.False(t, fellBack)
}

func TestSummarizeFallsBackOnBackendError(t *testing.T) {
	s := NewSummarizer(&stubBackend{err: errors.New("boom")}, zap.NewNop(), 0)
	entries := []domain.MemoryEntry{{Content: "We talked about the project plan."}}
	text, fellBack := s.Summarize(context.Background(), entries)
	require.NotEmpty(t, text)
	require.True(t, fellBack)
}

func TestSummarizeNilBackendUsesExtractiveHeuristic(t *testing.T) {
	s := NewSummarizer(nil, zap.NewNop(), 0)
	entries := []domain.MemoryEntry{{Content: "Short note."}}
	text, fellBack := s.Summarize(context.Background(), entries)
	require.Equal(t, "Short note.", text)
	require.True(t, fellBack)
}

func TestExtractiveSummaryConcatenatesShortInput(t *testing.T) {
	entries := []domain.MemoryEntry{
		{Content: "One."},
		{Content: "Two."},
	}
	text := extractiveSummary(entries)
	require.Contains(t, text, "One.")
	require.Contains(t, text, "Two.")
}

func TestExtractiveSummaryPicksTopSentencesForLongInput(t *testing.T) {
	entries := []domain.MemoryEntry{{Content: "Alpha beta gamma. Delta epsilon zeta. Alpha beta eta. Theta iota kappa. Alpha beta lambda."}}
	text := extractiveSummary(entries)
	require.NotEmpty(t, text)
	require.Contains(t, text, "Alpha beta")
}
