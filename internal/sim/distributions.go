package sim

import (
	"math"
	"math/rand"
)

// samplePoisson draws a Poisson count with the Knuth multiplication method;
// rates in this simulator are well below one per minute so the loop is
// short. Negative or NaN rates clamp to zero.
func samplePoisson(lambda float64, rng *rand.Rand) int {
	if !(lambda > 0) {
		return 0
	}
	l := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		p *= rng.Float64()
		if p <= l {
			return k
		}
		k++
	}
}

// sampleCategorical picks an index proportional to weights. Zero or invalid
// total falls back to uniform.
func sampleCategorical(weights []float64, rng *rand.Rand) int {
	var total float64
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if !(total > 0) {
		return rng.Intn(len(weights))
	}
	u := rng.Float64() * total
	var cum float64
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		cum += w
		if u < cum {
			return i
		}
	}
	return len(weights) - 1
}

// sampleDistinct draws n distinct indices proportional to weights, removing
// each winner before the next draw.
func sampleDistinct(weights []float64, n int, rng *rand.Rand) []int {
	if n > len(weights) {
		n = len(weights)
	}
	w := append([]float64(nil), weights...)
	out := make([]int, 0, n)
	for len(out) < n {
		i := sampleCategorical(w, rng)
		out = append(out, i)
		w[i] = 0
	}
	return out
}

// normalizeWeights scales weights to sum to one, falling back to uniform
// when everything is zero. When a single weight holds the entire mass and
// more than one draw is needed, it is collapsed to 0.99 with the remainder
// spread uniformly so without-replacement sampling stays feasible.
func normalizeWeights(weights []float64, draws int) []float64 {
	n := len(weights)
	out := make([]float64, n)
	var total float64
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if !(total > 0) {
		for i := range out {
			out[i] = 1.0 / float64(n)
		}
		return out
	}
	for i, w := range weights {
		if w > 0 {
			out[i] = w / total
		}
	}
	if draws > 1 && n > 1 {
		for i, w := range out {
			if w == 1.0 {
				out[i] = 0.99
				share := 0.01 / float64(n-1)
				for j := range out {
					if j != i {
						out[j] = share
					}
				}
				break
			}
		}
	}
	return out
}
