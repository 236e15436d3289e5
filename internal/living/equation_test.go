package living

import (
	"testing"

	"github.com/stretchr/testify/require"

	"continuum/internal/config"
)

func defaultEq() *Equation {
	return NewEquation(config.Default().LivingEquation)
}

func TestDerivativeZeroAtOrigin(t *testing.T) {
	eq := defaultEq()
	d := eq.Derivative([5]float64{0, 0, 0, 0, 0}, Context{})
	require.Equal(t, 0.0, d[0])
	require.Equal(t, 0.0, d[1])
}

func TestDerivativeClipsAtLowerBoundary(t *testing.T) {
	eq := defaultEq()
	// growth at 0 with negative forcing (connection below threshold) should
	// clip to zero rather than go negative.
	d := eq.Derivative([5]float64{0, 0, 0, 0, 0}, Context{})
	require.GreaterOrEqual(t, d[2], 0.0)
}

func TestDerivativeClipsAtUpperBoundary(t *testing.T) {
	eq := defaultEq()
	d := eq.Derivative([5]float64{1, 1, 1, 1, 0}, Context{})
	require.LessOrEqual(t, d[0], 0.0)
	require.LessOrEqual(t, d[3], 0.0)
}

func TestDerivativePhaseAlwaysAdvancesForward(t *testing.T) {
	eq := defaultEq()
	d := eq.Derivative([5]float64{0.3, 0.3, 0, 0.3, 1.0}, Context{})
	require.Greater(t, d[4], 0.0)
}
