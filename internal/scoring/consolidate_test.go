package scoring

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"continuum/internal/config"
	"continuum/internal/domain"
	"continuum/internal/memory"
)

func newConsolidator() *Consolidator {
	cfg := config.Default()
	scorer := NewScorer(cfg.Scoring, cfg.Landmarks)
	summarizer := NewSummarizer(nil, zap.NewNop(), 0)
	return NewConsolidator(scorer, summarizer, zap.NewNop())
}

func TestMigrateScaleIsNoopWhenEmpty(t *testing.T) {
	cfg := config.Default()
	hier := memory.NewHierarchy(cfg.Scales)
	c := newConsolidator()

	err := c.MigrateScale(context.Background(), hier, domain.ScaleImmediate, time.Now(), nil)
	require.NoError(t, err)
	require.Empty(t, hier.Store(domain.ScaleShortTerm).Entries)
}

func TestMigrateScaleIsNoopForLifetime(t *testing.T) {
	cfg := config.Default()
	hier := memory.NewHierarchy(cfg.Scales)
	c := newConsolidator()

	err := c.MigrateScale(context.Background(), hier, domain.ScaleLifetime, time.Now(), nil)
	require.NoError(t, err)
}

func TestMigrateScalePromotesTopKAndSummarizesRest(t *testing.T) {
	cfg := config.Default()
	cfg.Scales.Immediate.TopKMigration = 0
	cfg.Scales.ShortTerm.TopKMigration = 1
	hier := memory.NewHierarchy(cfg.Scales)
	scorer := NewScorer(cfg.Scoring, cfg.Landmarks)
	summarizer := NewSummarizer(nil, zap.NewNop(), 0)
	c := NewConsolidator(scorer, summarizer, zap.NewNop())

	old := time.Now().Add(-48 * time.Hour)
	hier.Admit(domain.ScaleImmediate, domain.MemoryEntry{
		ID: "hot", Kind: domain.KindRawMessage, Timestamp: old, Content: "big emotional moment",
		Affect: &domain.Affect{Intensity: 0.95},
	})
	hier.Admit(domain.ScaleImmediate, domain.MemoryEntry{
		ID: "cold", Kind: domain.KindRawMessage, Timestamp: old, Content: "ordinary chatter",
		Affect: &domain.Affect{Intensity: 0.05},
	})

	err := c.MigrateScale(context.Background(), hier, domain.ScaleImmediate, time.Now(), nil)
	require.NoError(t, err)
	require.Empty(t, hier.Store(domain.ScaleImmediate).Entries)

	promoted := hier.Store(domain.ScaleShortTerm).Entries
	require.Len(t, promoted, 2) // top-1 promoted individually + 1 rolling summary

	var foundHot, foundSummary bool
	for _, e := range promoted {
		if e.ID == "hot" {
			foundHot = true
		}
		if e.Kind == domain.KindSummary {
			foundSummary = true
			require.Contains(t, e.Refs, "cold")
		}
	}
	require.True(t, foundHot)
	require.True(t, foundSummary)
}

func TestCopyLandmarkAddsToLifetime(t *testing.T) {
	cfg := config.Default()
	hier := memory.NewHierarchy(cfg.Scales)
	entry := domain.MemoryEntry{ID: "landmark-1", Kind: domain.KindMilestone, Timestamp: time.Now()}

	CopyLandmark(hier, entry)
	require.Len(t, hier.Store(domain.ScaleLifetime).Entries, 1)
	require.Equal(t, "landmark-1", hier.Store(domain.ScaleLifetime).Entries[0].ID)
}
