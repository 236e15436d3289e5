package scoring

import (
	"fmt"
	"time"

	"continuum/internal/domain"
)

// BuildSummary constructs the rolling Summary entry that absorbs the
// entries a migration pass does not promote individually, preserving the
// stats spec.md §4.6 requires: approximate date range, source count,
// dominant primary_emotion, mean PAD, and the ids of every absorbed entry
// (including any landmarks among them) via Refs.
func BuildSummary(source []domain.MemoryEntry, text string, fellBack bool, at time.Time) domain.MemoryEntry {
	refs := make([]string, len(source))
	var minTS, maxTS time.Time
	pSum, aSum, dSum, intensitySum := 0.0, 0.0, 0.0, 0.0
	emotionVotes := make(map[domain.EmotionTag]int)
	affectCount := 0

	for i, e := range source {
		refs[i] = e.ID
		if minTS.IsZero() || e.Timestamp.Before(minTS) {
			minTS = e.Timestamp
		}
		if maxTS.IsZero() || e.Timestamp.After(maxTS) {
			maxTS = e.Timestamp
		}
		if e.Affect != nil {
			pSum += e.Affect.PAD.Pleasure
			aSum += e.Affect.PAD.Arousal
			dSum += e.Affect.PAD.Dominance
			intensitySum += e.Affect.Intensity
			emotionVotes[e.Affect.PrimaryEmotion]++
			affectCount++
		}
	}

	dominant := domain.EmotionNeutral
	bestVotes := -1
	for tag, votes := range emotionVotes {
		if votes > bestVotes {
			dominant, bestVotes = tag, votes
		}
	}

	var meanAffect *domain.Affect
	if affectCount > 0 {
		n := float64(affectCount)
		meanAffect = &domain.Affect{
			PAD: domain.PAD{
				Pleasure:  pSum / n,
				Arousal:   aSum / n,
				Dominance: dSum / n,
			}.Clamp(),
			PrimaryEmotion: dominant,
			Intensity:      intensitySum / n,
			Confidence:     confidenceFor(fellBack),
		}
	}

	content := fmt.Sprintf("[%d entries, %s to %s] %s",
		len(source), minTS.Format(time.RFC3339), maxTS.Format(time.RFC3339), text)

	return domain.MemoryEntry{
		ID:        domain.DeriveEntryID(domain.KindSummary, content, at),
		Kind:      domain.KindSummary,
		Content:   content,
		Timestamp: at,
		Affect:    meanAffect,
		Refs:      refs,
	}
}

func confidenceFor(fellBack bool) float64 {
	if fellBack {
		return 0.3
	}
	return 0.8
}
