// Public domain.

package mcmc

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// IACT estimates the integrated autocorrelation time of each dimension of
// the post-burn chain.  The sum over lags stops at the first negative
// autocorrelation.  A value near 1 means nearly independent samples; the
// effective sample size is the chain length divided by this.
func (s *Sampler) IACT(burn int) ([]float64, error) {
	post, err := s.post(burn)
	if err != nil {
		return nil, err
	}
	n := len(post)
	if n < 10 {
		return nil, fmt.Errorf("mcmc: %d post-burn samples, too few for autocorrelation", n)
	}
	tau := make([]float64, s.dim)
	col := make([]float64, n)
	for j := 0; j < s.dim; j++ {
		for i, x := range post {
			col[i] = x[j]
		}
		mean := stat.Mean(col, nil)
		var c0 float64
		for _, v := range col {
			d := v - mean
			c0 += d * d
		}
		c0 /= float64(n)
		t := 1.0
		if c0 > 0 {
			for lag := 1; lag < n/2; lag++ {
				var c float64
				for i := 0; i < n-lag; i++ {
					c += (col[i] - mean) * (col[i+lag] - mean)
				}
				c /= float64(n) * c0
				if c <= 0 {
					break
				}
				t += 2 * c
			}
		}
		tau[j] = t
	}
	return tau, nil
}

// SplitRHat computes the Gelman-Rubin statistic per dimension by
// splitting the post-burn chain into two halves.  Values near 1 indicate
// the halves agree; a common acceptance criterion is R-hat below 1.1.
func (s *Sampler) SplitRHat(burn int) ([]float64, error) {
	post, err := s.post(burn)
	if err != nil {
		return nil, err
	}
	half := len(post) / 2
	if half < 5 {
		return nil, fmt.Errorf("mcmc: %d post-burn samples, too few to split", len(post))
	}
	rhat := make([]float64, s.dim)
	a := make([]float64, half)
	b := make([]float64, half)
	for j := 0; j < s.dim; j++ {
		for i := 0; i < half; i++ {
			a[i] = post[i][j]
			b[i] = post[len(post)-half+i][j]
		}
		ma, va := stat.MeanVariance(a, nil)
		mb, vb := stat.MeanVariance(b, nil)
		w := (va + vb) / 2
		gm := (ma + mb) / 2
		bv := float64(half) * ((ma-gm)*(ma-gm) + (mb-gm)*(mb-gm))
		if w == 0 {
			rhat[j] = 1
			continue
		}
		n := float64(half)
		varhat := (n-1)/n*w + bv/n
		rhat[j] = math.Sqrt(varhat / w)
	}
	return rhat, nil
}

// Converged reports whether every dimension's R-hat is below tol.
func Converged(rhat []float64, tol float64) bool {
	for _, r := range rhat {
		if !(r < tol) {
			return false
		}
	}
	return true
}
