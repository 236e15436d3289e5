package living

import (
	"time"

	"go.uber.org/zap"

	"continuum/internal/config"
	"continuum/internal/domain"
)

// Evolver owns the current RelationshipState and advances it either
// continuously between events or discretely on an event, per spec.md
// §4.4.
type Evolver struct {
	eq     *Equation
	rtol   float64
	logger *zap.Logger

	state    domain.RelationshipState
	lastStep time.Time
}

func NewEvolver(cfg config.LivingEquationConfig, initial domain.RelationshipState, logger *zap.Logger) *Evolver {
	return &Evolver{
		eq:       NewEquation(cfg),
		rtol:     1e-6,
		logger:   logger,
		state:    initial,
		lastStep: time.Now(),
	}
}

func (e *Evolver) State() domain.RelationshipState { return e.state }

// AdvanceTo integrates the continuous dynamics from the last step time
// to now, holding ctx constant over the interval, per spec.md §4.4's "c
// is held constant between events" rule. On divergence it rolls back to
// the last stable state and logs the anomaly as non-fatal.
func (e *Evolver) AdvanceTo(now time.Time, ctx Context) {
	elapsed := now.Sub(e.lastStep).Seconds()
	if elapsed <= 0 {
		return
	}
	prior := e.state

	deriv := func(x [5]float64) [5]float64 {
		return e.eq.Derivative(x, ctx)
	}

	next, err := Integrate(deriv, e.state.Vector(), elapsed, e.rtol)
	if err != nil {
		e.logger.Warn("living: integrator diverged, rolling back to last stable state", zap.Error(err))
		e.state = prior
		e.lastStep = now
		return
	}

	e.state = domain.FromVector(next)
	e.lastStep = now
}

// ApplyEvent advances continuous time to now (using ctx for the
// intervening interval), then applies the discrete event delta.
func (e *Evolver) ApplyEvent(now time.Time, ctx Context, event EventKind, intensity float64) domain.RelationshipState {
	e.AdvanceTo(now, ctx)
	e.state = ApplyEvent(e.state, event, intensity)
	return e.state
}

// Restore replaces the evolver's state, used when loading a checkpoint.
func (e *Evolver) Restore(state domain.RelationshipState, at time.Time) {
	e.state = state
	e.lastStep = at
}
