// Public domain.

package fit

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// wlsSolution is one weighted least-squares solve of the linearized
// system.  Step and covariance share the column ordering of the design
// matrix.
type wlsSolution struct {
	step          []float64
	cov           *mat.SymDense
	unconstrained []string
}

// solveWLS solves the whitened normal equations by singular value
// decomposition.  m holds d(residual)/d(parameter); the returned step is
// the increment that drives the linearized residuals toward zero.
//
// Columns are scaled to unit norm before decomposition so entries of very
// different magnitude do not swamp the SVD.  Singular values at or below
// threshold times the largest are excluded from the solve, restricting the
// step and covariance to the non-singular subspace; the excluded linear
// combinations are reported in unconstrained rather than failing the fit.
func solveWLS(m *mat.Dense, r, sigma []float64, names []string, threshold float64) (*wlsSolution, error) {
	n, k := m.Dims()
	if len(r) != n || len(sigma) != n {
		return nil, fmt.Errorf("fit: %d residuals, %d uncertainties for %d observations",
			len(r), len(sigma), n)
	}

	// Whiten rows by observation uncertainty.
	m1 := mat.NewDense(n, k, nil)
	r1 := make([]float64, n)
	for i := 0; i < n; i++ {
		w := 1 / sigma[i]
		r1[i] = r[i] * w
		for j := 0; j < k; j++ {
			m1.Set(i, j, m.At(i, j)*w)
		}
	}

	// Scale columns to unit norm.
	sol := &wlsSolution{}
	norm := make([]float64, k)
	for j := 0; j < k; j++ {
		var ss float64
		for i := 0; i < n; i++ {
			v := m1.At(i, j)
			ss += v * v
		}
		norm[j] = math.Sqrt(ss)
		if norm[j] == 0 {
			sol.unconstrained = append(sol.unconstrained, names[j])
			norm[j] = 1
			continue
		}
		for i := 0; i < n; i++ {
			m1.Set(i, j, m1.At(i, j)/norm[j])
		}
	}

	var svd mat.SVD
	if !svd.Factorize(m1, mat.SVDThin) {
		return nil, fmt.Errorf("fit: singular value decomposition failed")
	}
	s := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	// Exclude degenerate directions instead of crashing on them.
	good := make([]bool, len(s))
	cut := threshold * s[0]
	for i, si := range s {
		good[i] = si > cut
		if !good[i] {
			sol.unconstrained = append(sol.unconstrained, combination(&v, i, names, threshold))
		}
	}

	// utr = U^T r1
	utr := make([]float64, len(s))
	for i := range s {
		if !good[i] {
			continue
		}
		var dot float64
		for row := 0; row < n; row++ {
			dot += u.At(row, i) * r1[row]
		}
		utr[i] = dot / s[i]
	}

	// The design matrix holds residual derivatives, so the step that
	// cancels the linearized residuals carries a minus sign.
	sol.step = make([]float64, k)
	for j := 0; j < k; j++ {
		var acc float64
		for i := range s {
			if good[i] {
				acc += v.At(j, i) * utr[i]
			}
		}
		sol.step[j] = -acc / norm[j]
	}

	// Sigma = V s^-2 V^T, unscaled back to original column units.
	sol.cov = mat.NewSymDense(k, nil)
	for j := 0; j < k; j++ {
		for l := j; l < k; l++ {
			var acc float64
			for i := range s {
				if good[i] {
					acc += v.At(j, i) * v.At(l, i) / (s[i] * s[i])
				}
			}
			sol.cov.SetSym(j, l, acc/(norm[j]*norm[l]))
		}
	}
	return sol, nil
}

// combination renders the near-null linear combination behind a discarded
// singular value, largest coefficients first, e.g. "1.00*F0 - 0.31*F1".
func combination(v *mat.Dense, col int, names []string, threshold float64) string {
	type term struct {
		co   float64
		name string
	}
	var terms []term
	var amax float64
	for j := range names {
		if a := math.Abs(v.At(j, col)); a > amax {
			amax = a
		}
	}
	for j, name := range names {
		co := v.At(j, col) / amax
		if math.Abs(co) > threshold {
			terms = append(terms, term{co: co, name: name})
		}
	}
	sort.Slice(terms, func(a, b int) bool {
		return math.Abs(terms[a].co) > math.Abs(terms[b].co)
	})
	s := ""
	for i, t := range terms {
		switch {
		case i == 0:
			s = fmt.Sprintf("%.2f*%s", t.co, t.name)
		case t.co < 0:
			s += fmt.Sprintf(" - %.2f*%s", -t.co, t.name)
		default:
			s += fmt.Sprintf(" + %.2f*%s", t.co, t.name)
		}
	}
	return s
}
