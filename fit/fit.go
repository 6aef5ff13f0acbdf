// Public domain.

// Package fit drives iterative weighted least-squares refinement of a
// pulsar timing model and computes model-selection criteria.
//
// A Session owns every piece of fit state: its own copy of the parameter
// registry, the observation set, the design matrix builder, and the
// resulting covariance.  Independent sessions may run concurrently; no
// fit state lives outside a session.
package fit

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/LuluAgazie/PINT/design"
	"github.com/LuluAgazie/PINT/noise"
	"github.com/LuluAgazie/PINT/param"
	"github.com/LuluAgazie/PINT/toa"
)

// Status is the terminal state of a fit.
type Status int

const (
	StatusInit Status = iota
	StatusConverged
	StatusMaxIter
	StatusDiverged
	StatusStopped
)

func (s Status) String() string {
	switch s {
	case StatusConverged:
		return "converged"
	case StatusMaxIter:
		return "maximum iterations reached"
	case StatusDiverged:
		return "diverged"
	case StatusStopped:
		return "stopped"
	}
	return "initialized"
}

// Result is the outcome of a fit.  Values, Uncertainties and the rows of
// Cov follow Names, which is the free-parameter registration order used
// by the design matrix.
type Result struct {
	Names         []string
	Values        []float64
	Uncertainties []float64
	Cov           *mat.SymDense
	Params        []param.Parameter // full post-fit snapshot, frozen included
	Unconstrained []string          // degenerate combinations, by name
	Iterations    int
	Status        Status
	Chi2          float64
	DOF           int
	LogLike       float64
	AIC           float64
	BIC           float64
}

// Session is one least-squares fitting problem.
type Session struct {
	ev      design.Evaluator
	reg     *param.Registry
	set     *toa.Set
	builder *design.Builder
	nm      *noise.Model
	log     *zap.Logger

	maxIter         int
	tol             float64
	divergeLimit    int
	threshold       float64
	maxChi2Increase float64
	minLambda       float64
}

// Option configures a Session.
type Option func(*Session)

// WithNoise applies a white-noise model when weighting observations.
func WithNoise(nm *noise.Model) Option {
	return func(s *Session) { s.nm = nm }
}

// WithLogger sets the logger used for per-iteration tracing.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithMaxIter bounds the number of fitting iterations.
func WithMaxIter(n int) Option {
	return func(s *Session) { s.maxIter = n }
}

// WithTolerance sets the convergence tolerance on the parameter step
// magnitude relative to parameter uncertainty.
func WithTolerance(tol float64) Option {
	return func(s *Session) { s.tol = tol }
}

// WithDivergeLimit sets how many consecutive non-improving iterations are
// tolerated before the fit is declared diverged.
func WithDivergeLimit(n int) Option {
	return func(s *Session) { s.divergeLimit = n }
}

// WithSVDThreshold overrides the relative singular-value cutoff used to
// detect degenerate parameter combinations.
func WithSVDThreshold(t float64) Option {
	return func(s *Session) { s.threshold = t }
}

// WithDesignOptions configures the design matrix builder, for example to
// select the linearized evaluation strategy.
func WithDesignOptions(opts ...design.Option) Option {
	return func(s *Session) { s.builder = design.NewBuilder(s.ev, opts...) }
}

// NewSession builds a fit session.  The registry is cloned, so the fit
// never mutates the caller's parameters; results are delivered through
// the returned Result.
func NewSession(ev design.Evaluator, reg *param.Registry, set *toa.Set, opts ...Option) (*Session, error) {
	if reg.NumFree() == 0 {
		return nil, fmt.Errorf("fit: no free parameters")
	}
	s := &Session{
		ev:              ev,
		reg:             reg.Clone(),
		set:             set,
		log:             zap.NewNop(),
		maxIter:         20,
		tol:             1e-3,
		divergeLimit:    3,
		maxChi2Increase: 1e-2,
		minLambda:       1e-3,
	}
	for _, o := range opts {
		o(s)
	}
	if s.builder == nil {
		s.builder = design.NewBuilder(ev)
	}
	if s.threshold == 0 {
		n := set.Len()
		if k := reg.NumFree(); k > n {
			n = k
		}
		s.threshold = 1e-14 * float64(n)
	}
	return s, nil
}

// Fit runs the least-squares refinement to convergence.
//
// On StatusMaxIter or StatusDiverged the returned error is a
// *ConvergenceError and the Result holds the last stable state rather
// than the final, worse one.  Cancellation through ctx is honored once
// per iteration and likewise returns the best state reached so far.
func (s *Session) Fit(ctx context.Context) (*Result, error) {
	sigma := s.nm.ScaledErrors(s.set)
	reg := s.reg

	resids, err := s.ev.Residuals(reg, s.set)
	if err != nil {
		return nil, fmt.Errorf("fit: initial residuals: %w", err)
	}
	chi2 := chisq(resids, sigma)
	if !isFinite(chi2) {
		return nil, fmt.Errorf("fit: initial chi2 is not finite")
	}

	x := reg.FreeValues()
	bestX := append([]float64{}, x...)
	bestChi2 := chi2
	worse := 0
	iterations := 0
	status := StatusMaxIter
	var sol *wlsSolution
	var names []string
	var ctxErr error

	for iterations < s.maxIter {
		select {
		case <-ctx.Done():
			status = StatusStopped
			ctxErr = ctx.Err()
		default:
		}
		if status == StatusStopped {
			break
		}

		m, ns, err := s.builder.Build(reg, s.set)
		if err != nil {
			return nil, err
		}
		names = ns
		sl, err := solveWLS(m, resids, sigma, names, s.threshold)
		if err != nil {
			return nil, err
		}
		sol = sl
		for _, c := range sol.unconstrained {
			s.log.Warn("parameter degeneracy, combination is unconstrained",
				zap.String("combination", c))
		}

		if relStep(sol) < s.tol {
			status = StatusConverged
			break
		}

		// Damped step: halve until chi2 stops getting worse.
		lambda := 1.0
		accepted := false
		var newChi2 float64
		var newResids []float64
		for lambda >= s.minLambda {
			trial := make([]float64, len(x))
			for j := range x {
				trial[j] = x[j] + lambda*sol.step[j]
			}
			if err := reg.SetFreeValues(trial); err != nil {
				return nil, err
			}
			r, err := s.ev.Residuals(reg, s.set)
			if err == nil {
				c2 := chisq(r, sigma)
				if isFinite(c2) && c2 <= chi2+s.maxChi2Increase {
					x, newResids, newChi2 = trial, r, c2
					accepted = true
					break
				}
			}
			lambda /= 2
		}
		iterations++

		if !accepted {
			// Nothing improved even with tiny steps.  Restore and count
			// it against the divergence budget.
			if err := reg.SetFreeValues(x); err != nil {
				return nil, err
			}
			worse++
			s.log.Debug("no acceptable step",
				zap.Int("iteration", iterations), zap.Float64("chi2", chi2))
		} else {
			resids, chi2 = newResids, newChi2
			s.log.Debug("step accepted",
				zap.Int("iteration", iterations),
				zap.Float64("lambda", lambda),
				zap.Float64("chi2", chi2))
			if chi2 < bestChi2 {
				bestChi2 = chi2
				bestX = append(bestX[:0], x...)
				worse = 0
			} else {
				worse++
			}
		}
		if worse >= s.divergeLimit {
			status = StatusDiverged
			break
		}
	}

	// Land on the last stable state and refresh the covariance there.
	if status != StatusConverged {
		if err := reg.SetFreeValues(bestX); err != nil {
			return nil, err
		}
		resids, err = s.ev.Residuals(reg, s.set)
		if err != nil {
			return nil, fmt.Errorf("fit: residuals at final state: %w", err)
		}
		chi2 = chisq(resids, sigma)
		m, ns, err := s.builder.Build(reg, s.set)
		if err != nil {
			return nil, err
		}
		names = ns
		sol, err = solveWLS(m, resids, sigma, names, s.threshold)
		if err != nil {
			return nil, err
		}
	}

	k := len(names)
	n := s.set.Len()
	uncert := make([]float64, k)
	for j := 0; j < k; j++ {
		uncert[j] = math.Sqrt(sol.cov.At(j, j))
	}
	if err := reg.SetFreeUncertainties(uncert); err != nil {
		return nil, err
	}
	lnL := GaussianLogLike(resids, sigma)

	snapshot := make([]param.Parameter, reg.Len())
	for i, p := range reg.All() {
		snapshot[i] = *p
	}

	res := &Result{
		Names:         names,
		Values:        reg.FreeValues(),
		Uncertainties: uncert,
		Cov:           sol.cov,
		Params:        snapshot,
		Unconstrained: sol.unconstrained,
		Iterations:    iterations,
		Status:        status,
		Chi2:          chi2,
		DOF:           n - k,
		LogLike:       lnL,
		AIC:           AIC(lnL, k),
		BIC:           BIC(lnL, k, n),
	}
	switch status {
	case StatusConverged:
		return res, nil
	case StatusStopped:
		return res, fmt.Errorf("fit: stopped: %w", ctxErr)
	default:
		return res, &ConvergenceError{Status: status, Last: res}
	}
}

// LogLikelihood returns a closure evaluating the Gaussian log-likelihood
// at a free-parameter vector, suitable as an MCMC posterior core.  The
// closure owns a private registry clone, so independent samplers may
// evaluate concurrently.  Invalid or non-finite evaluations return -Inf.
func (s *Session) LogLikelihood() func(x []float64) float64 {
	reg := s.reg.Clone()
	sigma := s.nm.ScaledErrors(s.set)
	return func(x []float64) float64 {
		if err := reg.SetFreeValues(x); err != nil {
			return math.Inf(-1)
		}
		r, err := s.ev.Residuals(reg, s.set)
		if err != nil {
			return math.Inf(-1)
		}
		lnL := GaussianLogLike(r, sigma)
		if !isFinite(lnL) {
			return math.Inf(-1)
		}
		return lnL
	}
}

// relStep is the largest step component measured against its parameter's
// uncertainty.  Degenerate directions have been zeroed by the solver and
// do not contribute.
func relStep(sol *wlsSolution) float64 {
	var r float64
	for j, st := range sol.step {
		if v := sol.cov.At(j, j); v > 0 {
			if q := math.Abs(st) / math.Sqrt(v); q > r {
				r = q
			}
		}
	}
	return r
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
