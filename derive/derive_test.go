// Public domain.

package derive_test

import (
	"math"
	"testing"

	xrand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/LuluAgazie/PINT/derive"
)

func TestPropagateLinear(t *testing.T) {
	f := derive.Func{
		Name: "LIN",
		Eval: func(x []float64) float64 { return 2*x[0] + 3*x[1] },
		Grad: func(x []float64) []float64 { return []float64{2, 3} },
	}
	cov := mat.NewSymDense(2, []float64{
		0.04, 0,
		0, 0.09,
	})
	v, err := derive.Propagate(f, []float64{1, 1}, cov)
	if err != nil {
		t.Fatal(err)
	}
	if v.Value != 5 {
		t.Fatal("value:", v.Value)
	}
	want := math.Sqrt(4*0.04 + 9*0.09)
	if math.Abs(v.Uncertainty-want) > 1e-12 {
		t.Fatal("uncertainty:", v.Uncertainty, "want", want)
	}
}

func TestPropagateExactZero(t *testing.T) {
	// parameters the function touches all have zero variance, so the
	// uncertainty is exactly zero, not a small float
	f := derive.Func{
		Name: "Z",
		Eval: func(x []float64) float64 { return x[0] * x[0] },
		Grad: func(x []float64) []float64 { return []float64{2 * x[0], 0} },
	}
	cov := mat.NewSymDense(2, []float64{
		0, 0,
		0, 0.25,
	})
	v, err := derive.Propagate(f, []float64{3, 1}, cov)
	if err != nil {
		t.Fatal(err)
	}
	if v.Value != 9 {
		t.Fatal("value:", v.Value)
	}
	if v.Uncertainty != 0 {
		t.Fatal("uncertainty should be exactly zero:", v.Uncertainty)
	}
}

func TestPropagateNumericGradient(t *testing.T) {
	// nil Grad falls back to central differences
	f := derive.Func{
		Name: "SQ",
		Eval: func(x []float64) float64 { return x[0] * x[0] },
	}
	cov := mat.NewSymDense(1, []float64{0.01})
	v, err := derive.Propagate(f, []float64{3}, cov)
	if err != nil {
		t.Fatal(err)
	}
	// sigma = |2x| * 0.1
	if math.Abs(v.Uncertainty-0.6) > 1e-6 {
		t.Fatal("uncertainty:", v.Uncertainty)
	}
}

func TestPropagateErrors(t *testing.T) {
	cov := mat.NewSymDense(2, nil)
	f := derive.Func{Name: "X", Eval: func(x []float64) float64 { return x[0] }}
	if _, err := derive.Propagate(f, []float64{1}, cov); err == nil {
		t.Fatal("expected length mismatch error")
	}
	bad := derive.Func{Name: "NAN", Eval: func(x []float64) float64 { return math.NaN() }}
	if _, err := derive.Propagate(bad, []float64{1, 1}, cov); err == nil {
		t.Fatal("expected non-finite value error")
	}
}

func TestMonteCarloAgreesWithJacobian(t *testing.T) {
	f := derive.Func{
		Name: "LIN",
		Eval: func(x []float64) float64 { return 2*x[0] + 3*x[1] },
		Grad: func(x []float64) []float64 { return []float64{2, 3} },
	}
	cov := mat.NewSymDense(2, []float64{
		0.04, 0.01,
		0.01, 0.09,
	})
	x := []float64{1, 1}
	jac, err := derive.Propagate(f, x, cov)
	if err != nil {
		t.Fatal(err)
	}
	rnd := xrand.New(&xrand.PCGSource{})
	rnd.Seed(5)
	mc, err := derive.MonteCarlo(f, x, cov, 200000, rnd)
	if err != nil {
		t.Fatal(err)
	}
	t.Log("jacobian:", jac.Uncertainty, "monte carlo:", mc.Uncertainty)
	// on a linear function the two paths agree to sampling precision
	if rel := math.Abs(mc.Uncertainty-jac.Uncertainty) / jac.Uncertainty; rel > 0.02 {
		t.Fatal("relative disagreement:", rel)
	}
}

func TestMonteCarloDegenerateDims(t *testing.T) {
	f := derive.Func{
		Name: "SUM",
		Eval: func(x []float64) float64 { return x[0] + x[1] },
	}
	cov := mat.NewSymDense(2, []float64{
		0, 0,
		0, 0.01,
	})
	rnd := xrand.New(&xrand.PCGSource{})
	rnd.Seed(5)
	v, err := derive.MonteCarlo(f, []float64{2, 3}, cov, 100000, rnd)
	if err != nil {
		t.Fatal(err)
	}
	// the zero-variance dimension is held fixed; only x[1] scatters
	if math.Abs(v.Uncertainty-0.1) > 0.005 {
		t.Fatal("uncertainty:", v.Uncertainty)
	}

	allZero := mat.NewSymDense(2, nil)
	v, err = derive.MonteCarlo(f, []float64{2, 3}, allZero, 100, rnd)
	if err != nil {
		t.Fatal(err)
	}
	if v.Uncertainty != 0 {
		t.Fatal("all-degenerate uncertainty should be exactly zero:", v.Uncertainty)
	}
}
