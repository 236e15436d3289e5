package living

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"continuum/internal/domain"
)

func TestApplyPositiveInteractionBoostsConnectionAndResonance(t *testing.T) {
	start := domain.RelationshipState{Connection: 0.3, Resonance: 0.3, Trust: 0.3}
	next := ApplyEvent(start, EventPositiveInteraction, 1.0)
	require.InDelta(t, 0.4, next.Connection, 1e-9)
	require.InDelta(t, 0.45, next.Resonance, 1e-9)
	require.InDelta(t, math.Pi/6, next.Phase, 1e-9)
}

func TestApplyConflictStrengthensHighTrust(t *testing.T) {
	start := domain.RelationshipState{Trust: 0.8, Resonance: 0.5}
	next := ApplyEvent(start, EventConflict, 1.0)
	require.InDelta(t, 0.82, next.Trust, 1e-9)
	require.InDelta(t, 0.3, next.Resonance, 1e-9)
}

func TestApplyConflictWeakensLowTrust(t *testing.T) {
	start := domain.RelationshipState{Trust: 0.3}
	next := ApplyEvent(start, EventConflict, 1.0)
	require.InDelta(t, 0.2, next.Trust, 1e-9)
}

func TestApplySeparationDecaysStrongConnectionSlower(t *testing.T) {
	strong := domain.RelationshipState{Connection: 0.9, Resonance: 0.5}
	next := ApplyEvent(strong, EventSeparation, 1.0)
	require.InDelta(t, 0.85, next.Connection, 1e-9)

	weak := domain.RelationshipState{Connection: 0.2, Resonance: 0.5}
	next = ApplyEvent(weak, EventSeparation, 1.0)
	require.InDelta(t, 0.05, next.Connection, 1e-9)
}

func TestApplyEventClampsToValidRanges(t *testing.T) {
	start := domain.RelationshipState{Connection: 0.95, Resonance: 0.95}
	next := ApplyEvent(start, EventPositiveInteraction, 10.0)
	require.LessOrEqual(t, next.Connection, 1.0)
	require.LessOrEqual(t, next.Resonance, 1.0)
}
