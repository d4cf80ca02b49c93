// Package ratings estimates per-player offensive and defensive coefficients
// from lineup-stable match segments, one weighted ridge regression per league
// and per target. The design matrix is the sparse plus/minus lineup
// incidence; it is never materialized, the conjugate gradient solver works
// directly off the per-row index lists.
package ratings

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
)

var ErrEmptyDesignMatrix = errors.New("ratings: empty design matrix")

// SparseRow is one observation: +1 entries at Plus, -1 entries at Minus,
// target Y with weight W.
type SparseRow struct {
	Plus  []int
	Minus []int
	Y     float64
	W     float64
}

// RidgeOptions controls the regression. Alpha is the L2 penalty; there is no
// intercept. Tol and MaxIter bound the conjugate gradient iteration; zero
// values pick defaults (1e-10, 2*dim).
type RidgeOptions struct {
	Alpha   float64
	Tol     float64
	MaxIter int
}

// SolveRidge minimizes sum_i w_i (a_i.x - y_i)^2 + alpha ||x||^2 over the
// sparse rows, via conjugate gradient on the normal equations
// (A'WA + alpha I) x = A'W y.
func SolveRidge(rows []SparseRow, dim int, opt RidgeOptions) ([]float64, error) {
	if len(rows) == 0 || dim == 0 {
		return nil, ErrEmptyDesignMatrix
	}
	tol := opt.Tol
	if tol <= 0 {
		tol = 1e-10
	}
	maxIter := opt.MaxIter
	if maxIter <= 0 {
		maxIter = 2 * dim
	}

	// b = A'W y
	b := make([]float64, dim)
	for _, r := range rows {
		wy := r.W * r.Y
		for _, j := range r.Plus {
			b[j] += wy
		}
		for _, j := range r.Minus {
			b[j] -= wy
		}
	}

	matvec := func(v, out []float64) {
		for j := range out {
			out[j] = opt.Alpha * v[j]
		}
		for _, r := range rows {
			var dot float64
			for _, j := range r.Plus {
				dot += v[j]
			}
			for _, j := range r.Minus {
				dot -= v[j]
			}
			wd := r.W * dot
			for _, j := range r.Plus {
				out[j] += wd
			}
			for _, j := range r.Minus {
				out[j] -= wd
			}
		}
	}

	x := make([]float64, dim)
	res := make([]float64, dim)
	copy(res, b) // x starts at zero, so r0 = b
	p := make([]float64, dim)
	copy(p, res)
	ap := make([]float64, dim)

	rsOld := floats.Dot(res, res)
	if math.Sqrt(rsOld) < tol {
		return x, nil
	}

	for iter := 0; iter < maxIter; iter++ {
		matvec(p, ap)
		denom := floats.Dot(p, ap)
		if denom <= 0 {
			break
		}
		alpha := rsOld / denom
		floats.AddScaled(x, alpha, p)
		floats.AddScaled(res, -alpha, ap)

		rsNew := floats.Dot(res, res)
		if math.Sqrt(rsNew) < tol {
			break
		}
		beta := rsNew / rsOld
		for j := range p {
			p[j] = res[j] + beta*p[j]
		}
		rsOld = rsNew
	}
	return x, nil
}
