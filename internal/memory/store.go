// Package memory owns the temporal memory hierarchy (spec component C5):
// the four MemoryScale collections, their retention-weight bookkeeping,
// and landmark detection. Migration between scales is driven externally
// by the consolidation pass (internal/scoring, component C6), which
// reads and writes through the Hierarchy's exported methods.
package memory

import (
	"math"
	"sort"
	"time"

	"continuum/internal/config"
	"continuum/internal/domain"
)

// ScaleStore holds one scale's entries, kept sorted by Timestamp
// ascending. Lookups by kind are linear — scales are bounded by
// soft_capacity (hundreds to low thousands of entries), so an index
// would add complexity without a measurable benefit here.
type ScaleStore struct {
	Entries []domain.MemoryEntry
}

func (s *ScaleStore) insertSorted(e domain.MemoryEntry) {
	i := sort.Search(len(s.Entries), func(i int) bool { return s.Entries[i].Timestamp.After(e.Timestamp) })
	s.Entries = append(s.Entries, domain.MemoryEntry{})
	copy(s.Entries[i+1:], s.Entries[i:])
	s.Entries[i] = e
}

func (s *ScaleStore) removeByID(ids map[string]bool) {
	kept := s.Entries[:0]
	for _, e := range s.Entries {
		if !ids[e.ID] {
			kept = append(kept, e)
		}
	}
	s.Entries = kept
}

// Hierarchy owns all four scales and the per-scale tuning from config.
type Hierarchy struct {
	scales map[domain.Scale]*ScaleStore
	cfg    config.ScalesConfig
}

func NewHierarchy(cfg config.ScalesConfig) *Hierarchy {
	h := &Hierarchy{
		scales: map[domain.Scale]*ScaleStore{
			domain.ScaleImmediate: {},
			domain.ScaleShortTerm: {},
			domain.ScaleLongTerm:  {},
			domain.ScaleLifetime:  {},
		},
		cfg: cfg,
	}
	return h
}

// Store exposes a scale's ScaleStore directly for callers (the
// consolidation pass, the checkpoint manager, the projector) that need
// to read or batch-replace entries.
func (h *Hierarchy) Store(scale domain.Scale) *ScaleStore {
	return h.scales[scale]
}

// Admit inserts entry into scale in timestamp order. Every non-separator
// message is admitted to Immediate as a RawMessage per spec.md §4.5.
func (h *Hierarchy) Admit(scale domain.Scale, entry domain.MemoryEntry) {
	h.scales[scale].insertSorted(entry)
}

// Remove deletes entries by id from scale — used when entries are
// migrated upward and replaced by a Summary, or pruned by capacity.
// Never called against Lifetime by any correct caller (spec.md
// invariant: Lifetime entries are never destroyed).
func (h *Hierarchy) Remove(scale domain.Scale, ids ...string) {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	h.scales[scale].removeByID(set)
}

// HalfLife returns the configured half-life for scale, in seconds.
func (h *Hierarchy) HalfLife(scale domain.Scale) float64 {
	switch scale {
	case domain.ScaleImmediate:
		return h.cfg.Immediate.HalfLifeSeconds
	case domain.ScaleShortTerm:
		return h.cfg.ShortTerm.HalfLifeSeconds
	case domain.ScaleLongTerm:
		return h.cfg.LongTerm.HalfLifeSeconds
	default:
		return h.cfg.Lifetime.HalfLifeSeconds
	}
}

// MigrationThreshold is 2x the scale's half-life, per spec.md §4.5: "
// entries older than the scale's migration threshold (2x half_life) are
// eligible to move to S+1."
func (h *Hierarchy) MigrationThreshold(scale domain.Scale) time.Duration {
	return time.Duration(2 * h.HalfLife(scale) * float64(time.Second))
}

// TopKMigration returns how many top-scored entries are retained as
// individual entries (rather than absorbed into a rolling summary) when
// migrating into scale.
func (h *Hierarchy) TopKMigration(scale domain.Scale) int {
	switch scale {
	case domain.ScaleShortTerm:
		return h.cfg.ShortTerm.TopKMigration
	case domain.ScaleLongTerm:
		return h.cfg.LongTerm.TopKMigration
	case domain.ScaleLifetime:
		return h.cfg.Lifetime.TopKMigration
	default:
		return h.cfg.Immediate.TopKMigration
	}
}

// SoftCapacity returns scale's configured soft upper bound of entries.
func (h *Hierarchy) SoftCapacity(scale domain.Scale) int {
	switch scale {
	case domain.ScaleImmediate:
		return h.cfg.Immediate.SoftCapacity
	case domain.ScaleShortTerm:
		return h.cfg.ShortTerm.SoftCapacity
	case domain.ScaleLongTerm:
		return h.cfg.LongTerm.SoftCapacity
	default:
		return 0
	}
}

// RetentionWeight computes w = base_importance * exp(-(t-created_at)/
// half_life) * (1 + log1p(access_count)), per spec.md §4.5.
func RetentionWeight(entry domain.MemoryEntry, halfLifeSeconds float64, now time.Time) float64 {
	if halfLifeSeconds <= 0 {
		return entry.Importance * (1 + math.Log1p(float64(entry.AccessCount)))
	}
	age := now.Sub(entry.Timestamp).Seconds()
	decay := math.Exp(-age / halfLifeSeconds)
	return entry.Importance * decay * (1 + math.Log1p(float64(entry.AccessCount)))
}
