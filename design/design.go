// Public domain.

// Package design assembles the linearized design matrix of a timing fit.
//
// The matrix has one row per observation and one column per free
// parameter, in registry order.  Entries are partial derivatives of each
// observation's residual with respect to that parameter, evaluated at the
// current parameter values, so the matrix is rebuilt every iteration of a
// nonlinear fit.
package design

import (
	"math"
	"runtime"

	"gonum.org/v1/gonum/mat"

	"github.com/LuluAgazie/PINT/param"
	"github.com/LuluAgazie/PINT/toa"
)

// Evaluator computes residuals and their partial derivatives for the
// current model.  It is supplied by the caller; this package never
// evaluates timing physics itself.
type Evaluator interface {
	// Residuals returns observed minus model-predicted values, in
	// seconds, one per observation.
	Residuals(reg *param.Registry, set *toa.Set) ([]float64, error)

	// Derivative returns d(residual)/d(name) per observation, evaluated
	// at the registry's current values.  An error means the parameter has
	// no defined derivative.
	Derivative(name string, reg *param.Registry, set *toa.Set) ([]float64, error)
}

// Strategy selects how derivative columns are evaluated.
type Strategy int

const (
	// Exact evaluates every column at the current parameter values.
	Exact Strategy = iota

	// Linearized freezes the derivative basis computed on the first
	// build and reuses it on later builds.  The approximation trades
	// exactness for speed on large photon-phase sets; it falls back to
	// Exact when the set is too small for the reuse to pay off.
	Linearized
)

// Below this many observations a reused basis saves nothing worth the
// approximation, so Linearized builds fall back to exact evaluation.
const defaultLinearizeMin = 5000

// Builder assembles design matrices for one fit session.
type Builder struct {
	ev       Evaluator
	strategy Strategy
	minObs   int

	basis      *mat.Dense
	basisNames []string
}

// Option configures a Builder.
type Option func(*Builder)

// WithStrategy selects the evaluation strategy.
func WithStrategy(s Strategy) Option {
	return func(b *Builder) { b.strategy = s }
}

// WithLinearizeMin sets the smallest observation count for which the
// Linearized strategy keeps its frozen basis.
func WithLinearizeMin(n int) Option {
	return func(b *Builder) { b.minObs = n }
}

// NewBuilder returns a Builder using the given evaluator.
func NewBuilder(ev Evaluator, opts ...Option) *Builder {
	b := &Builder{ev: ev, minObs: defaultLinearizeMin}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Build returns the design matrix for the current registry values along
// with the column names, which match reg.FreeNames() exactly.
func (b *Builder) Build(reg *param.Registry, set *toa.Set) (*mat.Dense, []string, error) {
	names := reg.FreeNames()
	if len(names) == 0 {
		return nil, nil, &ConfigError{Msg: "no free parameters"}
	}
	if b.strategy == Linearized && set.Len() >= b.minObs {
		if b.basis != nil && sameNames(b.basisNames, names) {
			return b.basis, b.basisNames, nil
		}
		m, err := b.build(reg, set, names)
		if err != nil {
			return nil, nil, err
		}
		b.basis, b.basisNames = m, names
		return m, names, nil
	}
	m, err := b.build(reg, set, names)
	if err != nil {
		return nil, nil, err
	}
	return m, names, nil
}

// Reset discards any frozen Linearized basis, forcing the next Build to
// re-evaluate.
func (b *Builder) Reset() {
	b.basis = nil
	b.basisNames = nil
}

type colResult struct {
	j   int
	col []float64
	err error
}

// build evaluates derivative columns in parallel.  Each worker owns whole
// columns, so assembly is deterministic regardless of worker count.
func (b *Builder) build(reg *param.Registry, set *toa.Set, names []string) (*mat.Dense, error) {
	n := set.Len()
	k := len(names)
	jobs := make(chan int, k)
	results := make(chan colResult, k)
	workers := runtime.GOMAXPROCS(0)
	if workers > k {
		workers = k
	}
	for w := 0; w < workers; w++ {
		go func() {
			for j := range jobs {
				col, err := b.column(names[j], reg, set, n)
				results <- colResult{j: j, col: col, err: err}
			}
		}()
	}
	for j := 0; j < k; j++ {
		jobs <- j
	}
	close(jobs)

	m := mat.NewDense(n, k, nil)
	var firstErr error
	for r := 0; r < k; r++ {
		res := <-results
		if res.err != nil {
			if firstErr == nil {
				firstErr = res.err
			}
			continue
		}
		m.SetCol(res.j, res.col)
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return m, nil
}

func (b *Builder) column(name string, reg *param.Registry, set *toa.Set, n int) ([]float64, error) {
	col, err := b.ev.Derivative(name, reg, set)
	if err != nil {
		return nil, &ConfigError{Param: name, Msg: "no derivative", Err: err}
	}
	if len(col) != n {
		return nil, &ConfigError{Param: name,
			Msg: "derivative length does not match observation count"}
	}
	for i, v := range col {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &NumericalError{Param: name, Row: i,
				Msg: "non-finite derivative"}
		}
	}
	return col, nil
}

func sameNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
