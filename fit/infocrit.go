// Public domain.

package fit

import "math"

// AIC returns the Akaike information criterion 2k - 2lnL for a model with
// k free parameters and final log-likelihood lnL.
func AIC(lnL float64, k int) float64 {
	return 2*float64(k) - 2*lnL
}

// BIC returns the Bayesian information criterion k*ln(n) - 2lnL for a
// model with k free parameters fit to n observations.
func BIC(lnL float64, k, n int) float64 {
	return float64(k)*math.Log(float64(n)) - 2*lnL
}

// GaussianLogLike returns the log-likelihood of independent Gaussian
// residuals with the given uncertainties, normalization included.
func GaussianLogLike(resids, sigma []float64) float64 {
	const ln2pi = 1.8378770664093453
	var lnL float64
	for i, r := range resids {
		z := r / sigma[i]
		lnL -= 0.5*z*z + math.Log(sigma[i]) + 0.5*ln2pi
	}
	return lnL
}

func chisq(resids, sigma []float64) float64 {
	var c float64
	for i, r := range resids {
		z := r / sigma[i]
		c += z * z
	}
	return c
}
