// Package projector owns the State Projector (spec component C8): it
// renders the current memory hierarchy and relationship state into a
// human-readable briefing.md plus small machine-readable state files,
// deterministically modulo a header timestamp and version counter.
package projector

import (
	"time"

	"continuum/internal/domain"
	"continuum/internal/memory"
)

// Input is everything the projector needs to render one snapshot. It
// never mutates the hierarchy it is given.
type Input struct {
	GeneratedAt  time.Time
	Version      uint64
	Relationship domain.RelationshipState
	Hierarchy    *memory.Hierarchy
	LastMessage  *domain.Message
	LastAffect   *domain.Affect
	Session      domain.SessionContext
}
