// Public domain.

// Package derive computes secondary parameters as deterministic functions
// of fitted parameters, with uncertainty propagated from the parameter
// covariance matrix.
//
// Two propagation paths are available: first-order Jacobian propagation
// and Monte Carlo resampling of correlated parameter draws.  On a linear
// function the two agree to sampling precision.
package derive

import (
	"fmt"
	"math"

	xrand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distmv"
)

// Func is a named deterministic function of the free-parameter vector.
// Grad may be nil, in which case the gradient is evaluated by central
// differences.
type Func struct {
	Name string
	Eval func(x []float64) float64
	Grad func(x []float64) []float64
}

// Value is a computed derived parameter.  Computed once per completed
// fit and never mutated afterward.
type Value struct {
	Name        string
	Value       float64
	Uncertainty float64
}

// Propagate computes f at the fit point x with first-order uncertainty
// sigma^2 = J^T Cov J.
//
// If every parameter the gradient touches has exactly zero variance the
// uncertainty is exactly zero, not a near-zero floating artifact.
func Propagate(f Func, x []float64, cov mat.Symmetric) (Value, error) {
	k := cov.SymmetricDim()
	if len(x) != k {
		return Value{}, fmt.Errorf("derive: %s: %d values for %d-parameter covariance",
			f.Name, len(x), k)
	}
	val := f.Eval(x)
	if !finite(val) {
		return Value{}, fmt.Errorf("derive: %s: non-finite value at fit point", f.Name)
	}
	grad := f.Grad
	var g []float64
	if grad != nil {
		g = grad(x)
	} else {
		g = numGrad(f.Eval, x)
	}
	if len(g) != k {
		return Value{}, fmt.Errorf("derive: %s: gradient length %d, want %d",
			f.Name, len(g), k)
	}

	// Zero-variance inputs contribute exactly nothing.  For a
	// positive-semidefinite matrix a zero diagonal forces the whole row
	// to zero, so checking the diagonal suffices.
	exact := true
	for j, gj := range g {
		if gj != 0 && cov.At(j, j) != 0 {
			exact = false
			break
		}
	}
	if exact {
		return Value{Name: f.Name, Value: val}, nil
	}

	var s2 float64
	for j, gj := range g {
		for l, gl := range g {
			s2 += gj * gl * cov.At(j, l)
		}
	}
	if s2 < 0 {
		s2 = 0 // round-off from a semidefinite matrix
	}
	return Value{Name: f.Name, Value: val, Uncertainty: math.Sqrt(s2)}, nil
}

// MonteCarlo computes f at the fit point and estimates its uncertainty
// from n correlated draws of the parameter vector.  Parameters with
// exactly zero variance are held fixed at their fit values; if all are
// fixed the uncertainty is exactly zero.
func MonteCarlo(f Func, x []float64, cov mat.Symmetric, n int, rnd *xrand.Rand) (Value, error) {
	k := cov.SymmetricDim()
	if len(x) != k {
		return Value{}, fmt.Errorf("derive: %s: %d values for %d-parameter covariance",
			f.Name, len(x), k)
	}
	if n < 2 {
		return Value{}, fmt.Errorf("derive: %s: %d draws, need at least 2", f.Name, n)
	}
	val := f.Eval(x)
	if !finite(val) {
		return Value{}, fmt.Errorf("derive: %s: non-finite value at fit point", f.Name)
	}

	// Sample only the varying subspace; degenerate dimensions stay at
	// the fit point.
	var live []int
	for j := 0; j < k; j++ {
		if cov.At(j, j) != 0 {
			live = append(live, j)
		}
	}
	if len(live) == 0 {
		return Value{Name: f.Name, Value: val}, nil
	}
	mu := make([]float64, len(live))
	sub := mat.NewSymDense(len(live), nil)
	for a, j := range live {
		mu[a] = x[j]
		for b, l := range live {
			if b >= a {
				sub.SetSym(a, b, cov.At(j, l))
			}
		}
	}
	dist, ok := distmv.NewNormal(mu, sub, rnd)
	if !ok {
		return Value{}, fmt.Errorf("derive: %s: covariance submatrix is not positive definite", f.Name)
	}

	draws := make([]float64, n)
	xi := append([]float64{}, x...)
	sample := make([]float64, len(live))
	for i := 0; i < n; i++ {
		dist.Rand(sample)
		for a, j := range live {
			xi[j] = sample[a]
		}
		draws[i] = f.Eval(xi)
	}
	sd := math.Sqrt(stat.Variance(draws, nil))
	return Value{Name: f.Name, Value: val, Uncertainty: sd}, nil
}

// numGrad is a central-difference gradient.
func numGrad(f func([]float64) float64, x []float64) []float64 {
	g := make([]float64, len(x))
	xi := append([]float64{}, x...)
	for j := range x {
		h := 1e-6 * math.Abs(x[j])
		if h == 0 {
			h = 1e-9
		}
		xi[j] = x[j] + h
		fp := f(xi)
		xi[j] = x[j] - h
		fm := f(xi)
		xi[j] = x[j]
		g[j] = (fp - fm) / (2 * h)
	}
	return g
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
