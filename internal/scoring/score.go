// Package scoring owns the importance scorer and the consolidation pass
// that migrates entries up the temporal memory hierarchy (spec component
// C6). It depends on internal/memory for the scale stores and
// internal/llmclient for the pluggable summarization backend, but memory
// never imports scoring — the consolidation pass reads and writes through
// Hierarchy's exported methods only.
package scoring

import (
	"math"
	"strings"
	"time"

	"continuum/internal/config"
	"continuum/internal/domain"
)

// Scorer computes the importance score from spec.md §4.6:
//
//	importance = w_affect*intensity + w_landmark*landmark_bonus +
//	             w_recency*recency(t) + w_access*log1p(access_count) +
//	             w_keyword*keyword_hits + w_relation*relationship_delta
type Scorer struct {
	weights   config.ScoringConfig
	landmarks config.LandmarksConfig

	// recencyHalfLife controls how fast recency(t) decays; spec.md leaves
	// the exact curve unspecified, so this mirrors the retention-weight
	// exponential decay with a one-day half-life.
	recencyHalfLife float64
}

func NewScorer(weights config.ScoringConfig, landmarks config.LandmarksConfig) *Scorer {
	return &Scorer{weights: weights, landmarks: landmarks, recencyHalfLife: 24 * 3600}
}

// Score computes the importance of entry as of now, given the Euclidean
// relationship-state delta the originating message produced.
func (s *Scorer) Score(entry domain.MemoryEntry, now time.Time, relationshipDelta float64) float64 {
	intensity := 0.0
	if entry.Affect != nil {
		intensity = entry.Affect.Intensity
	}

	landmarkBonus := 0.0
	if entry.Kind.IsLandmark() {
		landmarkBonus = 1.0
	}

	recency := s.recency(entry.Timestamp, now)
	keywordHits := float64(s.keywordHits(entry.Content))

	return s.weights.WeightAffect*intensity +
		s.weights.WeightLandmark*landmarkBonus +
		s.weights.WeightRecency*recency +
		s.weights.WeightAccess*math.Log1p(float64(entry.AccessCount)) +
		s.weights.WeightKeyword*keywordHits +
		s.weights.WeightRelation*relationshipDelta
}

func (s *Scorer) recency(at, now time.Time) float64 {
	age := now.Sub(at).Seconds()
	if age < 0 {
		age = 0
	}
	return math.Exp(-age / s.recencyHalfLife)
}

// keywordHits counts how many configured landmark marker phrases appear in
// content, reusing the same keyword lists the landmark detector watches
// for — the scorer has no separate keyword vocabulary of its own.
func (s *Scorer) keywordHits(content string) int {
	hits := 0
	lower := strings.ToLower(content)
	for _, marker := range allMarkers(s.landmarks) {
		if strings.Contains(lower, strings.ToLower(marker)) {
			hits++
		}
	}
	return hits
}

func allMarkers(cfg config.LandmarksConfig) []string {
	out := make([]string, 0, len(cfg.AccomplishmentMarkers)+len(cfg.RegretMarkers)+len(cfg.MilestonePhrases))
	out = append(out, cfg.AccomplishmentMarkers...)
	out = append(out, cfg.RegretMarkers...)
	out = append(out, cfg.MilestonePhrases...)
	return out
}
