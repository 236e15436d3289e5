package domain

import "math"

// RelationshipState is the 5-dimensional state of the living equation:
// connection, resonance, growth, trust in [0, 1], phase in [0, 2π).
type RelationshipState struct {
	Connection float64 `json:"connection"`
	Resonance  float64 `json:"resonance"`
	Growth     float64 `json:"growth"`
	Trust      float64 `json:"trust"`
	Phase      float64 `json:"phase"`
}

// DefaultRelationshipState is the state a fresh store starts from.
func DefaultRelationshipState() RelationshipState {
	return RelationshipState{Connection: 0.3, Resonance: 0.3, Growth: 0, Trust: 0.3, Phase: 0}
}

// Vector returns the state as the 5-element vector the integrator operates
// on: [connection, resonance, growth, trust, phase].
func (s RelationshipState) Vector() [5]float64 {
	return [5]float64{s.Connection, s.Resonance, s.Growth, s.Trust, s.Phase}
}

// FromVector reconstructs a RelationshipState from an integrator vector,
// clamping the first four components and reducing phase modulo 2π.
func FromVector(v [5]float64) RelationshipState {
	return RelationshipState{
		Connection: clamp(v[0], 0, 1),
		Resonance:  clamp(v[1], 0, 1),
		Growth:     clamp(v[2], 0, 1),
		Trust:      clamp(v[3], 0, 1),
		Phase:      wrapPhase(v[4]),
	}
}

func wrapPhase(p float64) float64 {
	twoPi := 2 * math.Pi
	p = math.Mod(p, twoPi)
	if p < 0 {
		p += twoPi
	}
	return p
}

// Delta is the Euclidean distance between two states excluding phase, used
// by the importance scorer's relationship_delta term.
func (s RelationshipState) Delta(other RelationshipState) float64 {
	dc := s.Connection - other.Connection
	dr := s.Resonance - other.Resonance
	dg := s.Growth - other.Growth
	dt := s.Trust - other.Trust
	return math.Sqrt(dc*dc + dr*dr + dg*dg + dt*dt)
}
