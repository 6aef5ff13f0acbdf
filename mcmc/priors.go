// Public domain.

package mcmc

import "gonum.org/v1/gonum/stat/distuv"

// Prior is a one-dimensional prior density over a free parameter.
type Prior interface {
	LogProb(x float64) float64
}

// NormalPrior returns a Gaussian prior with the given mean and standard
// deviation.
func NormalPrior(mu, sigma float64) Prior {
	return distuv.Normal{Mu: mu, Sigma: sigma}
}

// UniformPrior returns a flat prior on [lo, hi]; points outside have zero
// density.
func UniformPrior(lo, hi float64) Prior {
	return distuv.Uniform{Min: lo, Max: hi}
}
