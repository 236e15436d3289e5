package living

import (
	"math"

	"continuum/internal/domain"
)

// EventKind is a discrete interaction event applied to RelationshipState
// outside the continuous dynamics, ported verbatim from the original
// system's apply_interaction_event delta table.
type EventKind string

const (
	EventPositiveInteraction EventKind = "positive_interaction"
	EventCollaborativeWork   EventKind = "collaborative_work"
	EventConflict            EventKind = "conflict"
	EventSupport             EventKind = "support"
	EventSeparation          EventKind = "separation"
)

// ApplyEvent applies event to state with the given intensity (default
// 1.0 at call sites that don't have a better estimate), clamping each
// component to its domain afterward and nudging phase by the fixed
// shift the original assigns per event type.
func ApplyEvent(state domain.RelationshipState, event EventKind, intensity float64) domain.RelationshipState {
	x := state

	switch event {
	case EventPositiveInteraction:
		x.Connection = math.Min(1, x.Connection+0.1*intensity)
		x.Resonance = math.Min(1, x.Resonance+0.15*intensity)
		x.Phase += math.Pi / 6

	case EventCollaborativeWork:
		x.Growth = math.Min(1, x.Growth+0.1*intensity)
		x.Trust = math.Min(1, x.Trust+0.05*intensity)
		x.Phase += math.Pi / 4

	case EventConflict:
		x.Resonance = math.Max(0, x.Resonance-0.2*intensity)
		if x.Trust > 0.6 {
			x.Trust = math.Min(1, x.Trust+0.02)
		} else {
			x.Trust = math.Max(0, x.Trust-0.1*intensity)
		}
		x.Phase += math.Pi

	case EventSupport:
		x.Connection = math.Min(1, x.Connection+0.05*intensity)
		x.Trust = math.Min(1, x.Trust+0.1*intensity)
		x.Phase += math.Pi / 3

	case EventSeparation:
		if x.Connection > 0.7 {
			x.Connection = math.Max(0.7, x.Connection-0.05*intensity)
		} else {
			x.Connection = math.Max(0, x.Connection-0.15*intensity)
		}
		x.Resonance *= 0.8
	}

	return domain.FromVector(x.Vector())
}
