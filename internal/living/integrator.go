package living

import "math"

// dormandPrince are the classic RK45 (Dormand-Prince) Butcher tableau
// coefficients, used for adaptive-step integration with local error
// estimation — the Go-native equivalent of scipy's solve_ivp(method=
// "RK45") the original system calls with rtol=1e-6.
var (
	dpC = [7]float64{0, 1.0 / 5, 3.0 / 10, 4.0 / 5, 8.0 / 9, 1, 1}
	dpA = [7][6]float64{
		{},
		{1.0 / 5},
		{3.0 / 40, 9.0 / 40},
		{44.0 / 45, -56.0 / 15, 32.0 / 9},
		{19372.0 / 6561, -25360.0 / 2187, 64448.0 / 6561, -212.0 / 729},
		{9017.0 / 3168, -355.0 / 33, 46732.0 / 5247, 49.0 / 176, -5103.0 / 18656},
		{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84},
	}
	dpB5 = [7]float64{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84, 0}
	dpB4 = [7]float64{5179.0 / 57600, 0, 7571.0 / 16695, 393.0 / 640, -92097.0 / 339200, 187.0 / 2100, 1.0 / 40}
)

const (
	defaultRTol   = 1e-6
	minStep       = 1e-6
	maxStepGrowth = 5.0
	maxSteps      = 100000
)

// Derivative computes dx/dt at x; the living equation holds c constant
// between events and has no explicit time dependence, so the stepper
// does not pass t.
type Derivative func(x [5]float64) [5]float64

// Integrate advances x0 over [0, duration] using adaptive Dormand-Prince
// RK45 with relative tolerance rtol, returning the final state. It
// returns an error, which signals divergence to the caller (spec.md §4.4
// failure semantics), if the step size collapses below minStep while the
// error estimate is still more than 1e3 times the tolerance, or if more
// than maxSteps steps are taken.
func Integrate(deriv Derivative, x0 [5]float64, duration, rtol float64) ([5]float64, error) {
	if rtol <= 0 {
		rtol = defaultRTol
	}
	if duration <= 0 {
		return x0, nil
	}

	x := x0
	t := 0.0
	h := duration / 10
	if h <= 0 {
		h = minStep
	}

	for steps := 0; t < duration; steps++ {
		if steps > maxSteps {
			return x0, errDivergence
		}
		if t+h > duration {
			h = duration - t
		}

		next, errEst := dormandPrinceStep(deriv, x, h)
		scale := rtol * (1 + vecNormInf(x))
		errNorm := vecNormInf(errEst)

		if errNorm <= scale || h <= minStep {
			x = next
			t += h
		}

		if errNorm == 0 {
			h *= maxStepGrowth
			continue
		}
		factor := math.Pow(scale/errNorm, 0.2) * 0.9
		if factor > maxStepGrowth {
			factor = maxStepGrowth
		}
		if factor < 0.1 {
			factor = 0.1
		}
		h *= factor
		if h < minStep {
			if errNorm > scale*1e3 {
				return x0, errDivergence
			}
			h = minStep
		}
	}

	return x, nil
}

var errDivergence = integratorError{"living: step size collapsed, integrator diverged"}

type integratorError struct{ msg string }

func (e integratorError) Error() string { return e.msg }

func dormandPrinceStep(deriv Derivative, x [5]float64, h float64) (next [5]float64, errEst [5]float64) {
	var k [7][5]float64
	k[0] = deriv(x)

	for stage := 1; stage < 7; stage++ {
		var xs [5]float64
		for i := 0; i < 5; i++ {
			sum := x[i]
			for j := 0; j < stage; j++ {
				sum += h * dpA[stage][j] * k[j][i]
			}
			xs[i] = sum
		}
		k[stage] = deriv(xs)
	}

	for i := 0; i < 5; i++ {
		var y5, y4 float64
		for s := 0; s < 7; s++ {
			y5 += dpB5[s] * k[s][i]
			y4 += dpB4[s] * k[s][i]
		}
		next[i] = x[i] + h*y5
		errEst[i] = h * (y5 - y4)
	}
	return next, errEst
}

func vecNormInf(v [5]float64) float64 {
	max := 0.0
	for _, c := range v {
		if math.IsNaN(c) {
			return math.Inf(1)
		}
		a := math.Abs(c)
		if a > max {
			max = a
		}
	}
	return max
}
