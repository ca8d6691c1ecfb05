package fishing

import (
	"math"
	"math/rand/v2"
)

// uniform draws from [lo, hi).
func uniform(lo, hi float64) float64 {
	return lo + rand.Float64()*(hi-lo)
}

// chance rolls a single uniform draw against probability p.
func chance(p float64) bool {
	return rand.Float64() < p
}

// betaVariate draws from Beta(alpha, beta) via two gamma draws
// (Marsaglia-Tsang). Both shapes are >= 1 for every caller here, so the
// boost step for shape < 1 is not needed.
func betaVariate(alpha, beta float64) float64 {
	x := gammaVariate(alpha)
	y := gammaVariate(beta)
	return x / (x + y)
}

func gammaVariate(shape float64) float64 {
	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9.0*d)
	for {
		x := rand.NormFloat64()
		v := 1.0 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := rand.Float64()
		if u < 1.0-0.0331*x*x*x*x {
			return d * v
		}
		if math.Log(u) < 0.5*x*x+d*(1.0-v+math.Log(v)) {
			return d * v
		}
	}
}
