// Package living implements the living equation evolver (spec component
// C4): a 5-dimensional nonlinear ODE over relationship state, ported
// from the original system's QuantumPhaseEvolution.living_equation with
// the "quantum" framing dropped per spec.md §9 — the dynamics themselves
// are kept verbatim as a genuine, testable nonlinear system.
package living

import (
	"math"

	"continuum/internal/config"
	"continuum/internal/domain"
)

// Context carries the environmental input the equation reacts to: one
// emotional-correlation scalar derived from the latest Affect's
// per-speaker valence alignment and arousal synchrony. It enters only the
// resonance term; connection is not driven by valence alignment directly.
type Context struct {
	EmotionalCorrelation float64
	HasCorrelation       bool
}

// Equation evaluates dx/dt = f(x,c,t) - λx for the 5-component state
// vector (connection, resonance, growth, trust, phase).
type Equation struct {
	cfg config.LivingEquationConfig
}

func NewEquation(cfg config.LivingEquationConfig) *Equation {
	return &Equation{cfg: cfg}
}

// Derivative computes dx/dt at state x under context c, mirroring
// living_equation from the original source line for line.
func (e *Equation) Derivative(x [5]float64, c Context) [5]float64 {
	connection, resonance, growth, trust, phase := x[0], x[1], x[2], x[3], x[4]

	var f [5]float64

	phaseFactor := (1 + math.Cos(phase)) / 2
	f[0] = resonance * trust * phaseFactor * e.cfg.CouplingStrength

	if c.HasCorrelation {
		corr := c.EmotionalCorrelation
		f[1] = corr*(1-resonance) - (1-corr)*resonance
	} else {
		f[1] = math.Sin(2*phase) * 0.3
	}

	if connection > e.cfg.GrowthThreshold {
		f[2] = (connection - e.cfg.GrowthThreshold) * (1 - math.Abs(growth))
	} else {
		f[2] = -growth * 0.5
	}

	trustGrowth := connection * (1 - trust) * 0.3
	trustDecay := (1 - connection) * trust * 0.1
	f[3] = trustGrowth - trustDecay

	systemEnergy := (connection + resonance + math.Abs(growth) + trust) / 4
	f[4] = e.cfg.PhaseVelocity * (1 + systemEnergy)

	m := e.cfg.InteractionMatrix
	for i := 0; i < 4; i++ {
		var interaction float64
		for j := 0; j < 4; j++ {
			interaction += m[i][j] * x[j]
		}
		f[i] += interaction * 0.1
	}

	var dxdt [5]float64
	for i := 0; i < 5; i++ {
		decay := e.cfg.LambdaDecay * x[i]
		if i == 4 {
			decay = 0
		}
		dxdt[i] = f[i] - decay
	}

	for i := 0; i < 4; i++ {
		if x[i] <= 0 && dxdt[i] < 0 {
			dxdt[i] = 0
		} else if x[i] >= 1 && dxdt[i] > 0 {
			dxdt[i] = 0
		}
	}

	return dxdt
}

// ContextFromAffect derives the Context the living equation reacts to
// from the latest Affect, combining per-speaker valence alignment and
// arousal synchrony into a single emotional-correlation scalar.
func ContextFromAffect(a domain.Affect) Context {
	if len(a.PerSpeaker) < 2 {
		return Context{}
	}
	var pleasures, arousals []float64
	for _, sa := range a.PerSpeaker {
		pleasures = append(pleasures, sa.PAD.Pleasure)
		arousals = append(arousals, sa.PAD.Arousal)
	}
	if len(pleasures) < 2 {
		return Context{}
	}
	valenceAlignment := 1 - math.Abs(pleasures[0]-pleasures[1])/2
	arousalSync := 1 - math.Abs(arousals[0]-arousals[1])/2
	correlation := clamp01((valenceAlignment + arousalSync) / 2)
	return Context{EmotionalCorrelation: correlation, HasCorrelation: true}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
