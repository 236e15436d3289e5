package scoring

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"continuum/internal/domain"
	"continuum/internal/memory"
)

// Consolidator runs the periodic migration pass (spec.md §4.5/§4.6): it
// scores entries eligible to move up a scale, promotes the top-k
// individually, and absorbs the rest into one rolling Summary entry.
type Consolidator struct {
	scorer     *Scorer
	summarizer *Summarizer
	logger     *zap.Logger
}

func NewConsolidator(scorer *Scorer, summarizer *Summarizer, logger *zap.Logger) *Consolidator {
	return &Consolidator{scorer: scorer, summarizer: summarizer, logger: logger}
}

// RelationshipDeltaFunc supplies the relationship_delta scoring term for an
// entry; callers that don't track per-entry relationship deltas may pass
// nil, in which case the term is always 0.
type RelationshipDeltaFunc func(entryID string) float64

// MigrateScale runs one consolidation pass over scale, moving eligible
// entries into the next scale up. It is a no-op for Lifetime (terminal)
// and for an empty scale (spec.md §4.6 edge case).
func (c *Consolidator) MigrateScale(ctx context.Context, hier *memory.Hierarchy, scale domain.Scale, now time.Time, delta RelationshipDeltaFunc) error {
	next, ok := scale.Next()
	if !ok {
		return nil
	}
	if delta == nil {
		delta = func(string) float64 { return 0 }
	}

	store := hier.Store(scale)
	threshold := hier.MigrationThreshold(scale)

	var eligible []domain.MemoryEntry
	for _, e := range store.Entries {
		if now.Sub(e.Timestamp) >= threshold {
			eligible = append(eligible, e)
		}
	}
	if len(eligible) == 0 {
		return nil
	}

	type scoredEntry struct {
		entry domain.MemoryEntry
		score float64
	}
	scored := make([]scoredEntry, len(eligible))
	for i, e := range eligible {
		scored[i] = scoredEntry{entry: e, score: c.scorer.Score(e, now, delta(e.ID))}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		if !scored[i].entry.Timestamp.Equal(scored[j].entry.Timestamp) {
			return scored[i].entry.Timestamp.After(scored[j].entry.Timestamp)
		}
		return scored[i].entry.ID < scored[j].entry.ID
	})

	k := hier.TopKMigration(next)
	if k > len(scored) {
		k = len(scored)
	}

	promoted := make([]domain.MemoryEntry, 0, k)
	for i := 0; i < k; i++ {
		e := scored[i].entry
		e.Importance = scored[i].score
		promoted = append(promoted, e)
	}

	remainder := make([]domain.MemoryEntry, 0, len(scored)-k)
	for i := k; i < len(scored); i++ {
		remainder = append(remainder, scored[i].entry)
	}

	for _, e := range promoted {
		hier.Admit(next, e)
	}

	if len(remainder) > 0 {
		text, fellBack := c.summarizer.Summarize(ctx, remainder)
		summary := BuildSummary(remainder, text, fellBack, now)
		summary.Importance = c.scorer.Score(summary, now, 0)
		hier.Admit(next, summary)
	}

	ids := make([]string, len(eligible))
	for i, e := range eligible {
		ids[i] = e.ID
	}
	hier.Remove(scale, ids...)

	c.logger.Debug("consolidation migrated entries",
		zap.String("from_scale", string(scale)),
		zap.String("to_scale", string(next)),
		zap.Int("promoted", len(promoted)),
		zap.Bool("summarized", len(remainder) > 0))

	return nil
}

// MigrateAll runs MigrateScale over every non-terminal scale, oldest scale
// first so an entry that cascades through two migrations in one pass
// (Immediate -> ShortTerm -> LongTerm) is possible within a single call.
func (c *Consolidator) MigrateAll(ctx context.Context, hier *memory.Hierarchy, now time.Time, delta RelationshipDeltaFunc) error {
	for _, scale := range []domain.Scale{domain.ScaleImmediate, domain.ScaleShortTerm, domain.ScaleLongTerm} {
		if err := c.MigrateScale(ctx, hier, scale, now, delta); err != nil {
			return err
		}
	}
	return nil
}

// CopyLandmark copies entry into Lifetime unmodified, per spec.md §4.5:
// landmark kinds are copied (not moved) on first detection, independent
// of the age-based migration pass. The caller (the landmark detector's
// owner) is responsible for first-occurrence bookkeeping.
func CopyLandmark(hier *memory.Hierarchy, entry domain.MemoryEntry) {
	hier.Admit(domain.ScaleLifetime, entry)
}
