package living

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIntegrateZeroDurationIsNoop(t *testing.T) {
	x0 := [5]float64{0.3, 0.3, 0, 0.3, 0}
	deriv := func(x [5]float64) [5]float64 { return [5]float64{1, 1, 1, 1, 1} }
	out, err := Integrate(deriv, x0, 0, 1e-6)
	require.NoError(t, err)
	require.Equal(t, x0, out)
}

func TestIntegrateSimpleDecay(t *testing.T) {
	// dx/dt = -x has the closed-form solution x(t) = x0 * e^-t.
	x0 := [5]float64{1, 1, 1, 1, 1}
	deriv := func(x [5]float64) [5]float64 {
		var d [5]float64
		for i := range x {
			d[i] = -x[i]
		}
		return d
	}
	out, err := Integrate(deriv, x0, 1.0, 1e-6)
	require.NoError(t, err)
	for _, v := range out {
		require.InDelta(t, 0.3679, v, 1e-3)
	}
}

func TestIntegrateDivergesOnUnboundedGrowth(t *testing.T) {
	x0 := [5]float64{1, 1, 1, 1, 1}
	deriv := func(x [5]float64) [5]float64 {
		var d [5]float64
		for i := range x {
			d[i] = x[i] * x[i] * 1e6
		}
		return d
	}
	_, err := Integrate(deriv, x0, 100.0, 1e-6)
	require.Error(t, err)
}
