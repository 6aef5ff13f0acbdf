// Public domain.

// Package mcmc samples the posterior distribution over free timing-model
// parameters with a Gaussian-proposal Metropolis sampler.
//
// The sampler retains its full chain, supports resuming a run with more
// samples, and reports convergence diagnostics (integrated autocorrelation
// time and split R-hat) rather than relying on a fixed iteration count.
package mcmc

import (
	"context"
	"fmt"
	"math"
	"time"

	xrand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// LogPosterior evaluates the unnormalized log posterior density at a
// free-parameter vector.  Invalid points return -Inf.
type LogPosterior func(x []float64) float64

// Sampler is one Metropolis chain.  A sampler owns its chain and current
// state exclusively; independent samplers may run concurrently.
type Sampler struct {
	dim    int
	logp   LogPosterior
	priors []Prior
	scales []float64
	rnd    *xrand.Rand

	cur     []float64
	curLogp float64
	started bool

	chain      [][]float64
	accepted   int
	maxSamples int
}

// Option configures a Sampler.
type Option func(*Sampler)

// WithSeed makes the chain repeatable, in the manner of a repeatable
// Monte Carlo run.
func WithSeed(seed uint64) Option {
	return func(s *Sampler) { s.rnd.Seed(seed) }
}

// WithPriors attaches one prior per free parameter, added to the log
// posterior.
func WithPriors(priors []Prior) Option {
	return func(s *Sampler) { s.priors = priors }
}

// WithMaxSamples bounds the total retained chain length.
func WithMaxSamples(n int) Option {
	return func(s *Sampler) { s.maxSamples = n }
}

// New builds a sampler starting at start with per-dimension proposal
// scales.
func New(logp LogPosterior, start, scales []float64, opts ...Option) (*Sampler, error) {
	if len(start) == 0 {
		return nil, fmt.Errorf("mcmc: empty start vector")
	}
	if len(scales) != len(start) {
		return nil, fmt.Errorf("mcmc: %d proposal scales for %d dimensions",
			len(scales), len(start))
	}
	for j, sc := range scales {
		if !(sc > 0) {
			return nil, fmt.Errorf("mcmc: proposal scale %d is %g, must be positive", j, sc)
		}
	}
	s := &Sampler{
		dim:        len(start),
		logp:       logp,
		scales:     append([]float64{}, scales...),
		rnd:        xrand.New(&xrand.PCGSource{}),
		cur:        append([]float64{}, start...),
		maxSamples: 1 << 22,
	}
	s.rnd.Seed(uint64(time.Now().UnixNano()))
	for _, o := range opts {
		o(s)
	}
	if s.priors != nil && len(s.priors) != s.dim {
		return nil, fmt.Errorf("mcmc: %d priors for %d dimensions", len(s.priors), s.dim)
	}
	return s, nil
}

func (s *Sampler) density(x []float64) float64 {
	lp := s.logp(x)
	if math.IsInf(lp, -1) {
		return lp
	}
	for j, pr := range s.priors {
		lp += pr.LogProb(x[j])
		if math.IsInf(lp, -1) {
			return lp
		}
	}
	return lp
}

// Run draws n more samples, appending to the retained chain.  Calling Run
// again continues the same chain.  Cancellation is honored once per
// iteration and keeps every sample drawn so far.
func (s *Sampler) Run(ctx context.Context, n int) error {
	if !s.started {
		s.curLogp = s.density(s.cur)
		if math.IsInf(s.curLogp, -1) {
			return fmt.Errorf("mcmc: starting point has zero posterior density")
		}
		s.started = true
	}
	prop := make([]float64, s.dim)
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("mcmc: stopped after %d samples: %w", len(s.chain), ctx.Err())
		default:
		}
		if len(s.chain) >= s.maxSamples {
			return fmt.Errorf("mcmc: maximum sample bound %d reached", s.maxSamples)
		}
		for j := 0; j < s.dim; j++ {
			prop[j] = s.cur[j] + s.scales[j]*s.rnd.NormFloat64()
		}
		lp := s.density(prop)
		if lp-s.curLogp >= math.Log(s.rnd.Float64()) {
			copy(s.cur, prop)
			s.curLogp = lp
			s.accepted++
		}
		s.chain = append(s.chain, append([]float64{}, s.cur...))
	}
	return nil
}

// Len returns the retained chain length.
func (s *Sampler) Len() int { return len(s.chain) }

// Chain returns the retained chain.  The caller must not modify it.
func (s *Sampler) Chain() [][]float64 { return s.chain }

// AcceptanceRate returns the fraction of proposals accepted.
func (s *Sampler) AcceptanceRate() float64 {
	if len(s.chain) == 0 {
		return 0
	}
	return float64(s.accepted) / float64(len(s.chain))
}

// Mean returns the per-dimension posterior mean, discarding the first
// burn samples.
func (s *Sampler) Mean(burn int) ([]float64, error) {
	post, err := s.post(burn)
	if err != nil {
		return nil, err
	}
	mean := make([]float64, s.dim)
	col := make([]float64, len(post))
	for j := 0; j < s.dim; j++ {
		for i, x := range post {
			col[i] = x[j]
		}
		mean[j] = stat.Mean(col, nil)
	}
	return mean, nil
}

// Covariance returns the empirical covariance of the post-burn chain.
// Row and column ordering matches the sampled dimensions, which follow
// the free-parameter registry order.
func (s *Sampler) Covariance(burn int) (*mat.SymDense, error) {
	post, err := s.post(burn)
	if err != nil {
		return nil, err
	}
	if len(post) < 2 {
		return nil, fmt.Errorf("mcmc: %d post-burn samples, need at least 2", len(post))
	}
	m := mat.NewDense(len(post), s.dim, nil)
	for i, x := range post {
		m.SetRow(i, x)
	}
	cov := mat.NewSymDense(s.dim, nil)
	stat.CovarianceMatrix(cov, m, nil)
	return cov, nil
}

func (s *Sampler) post(burn int) ([][]float64, error) {
	if burn < 0 || burn >= len(s.chain) {
		return nil, fmt.Errorf("mcmc: burn %d leaves no samples of %d", burn, len(s.chain))
	}
	return s.chain[burn:], nil
}
