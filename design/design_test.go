// Public domain.

package design_test

import (
	"math"
	"testing"

	"github.com/LuluAgazie/PINT/design"
	"github.com/LuluAgazie/PINT/param"
	"github.com/LuluAgazie/PINT/toa"
)

// polyEval has an offset column, a drift column proportional to arrival
// time, and a few deliberately broken parameters.
type polyEval struct{}

func (polyEval) Residuals(reg *param.Registry, set *toa.Set) ([]float64, error) {
	r := make([]float64, set.Len())
	return r, nil
}

func (polyEval) Derivative(name string, reg *param.Registry, set *toa.Set) ([]float64, error) {
	n := set.Len()
	d := make([]float64, n)
	switch name {
	case "OFF":
		for i := range d {
			d[i] = 1
		}
	case "DRIFT":
		for i, mjd := range set.MJDs() {
			d[i] = mjd - 53750
		}
	case "SCALED":
		// entries track the current parameter value, exposing basis reuse
		p, _ := reg.Get("SCALED")
		for i := range d {
			d[i] = p.Value
		}
	case "NANROW":
		d[2] = math.NaN()
	case "SHORT":
		return d[:n-1], nil
	default:
		return nil, &design.ConfigError{Param: name, Msg: "unknown parameter"}
	}
	return d, nil
}

func testSet(t *testing.T, n int) *toa.Set {
	t.Helper()
	obs := make([]toa.TOA, n)
	for i := range obs {
		obs[i] = toa.TOA{MJD: 53750 + float64(i), Err: 1e-5}
	}
	set, err := toa.NewSet(obs)
	if err != nil {
		t.Fatal(err)
	}
	return set
}

func TestColumnOrder(t *testing.T) {
	// freeze a parameter in the middle; columns must follow the free
	// registration order exactly
	reg, err := param.NewRegistry(
		&param.Parameter{Name: "OFF"},
		&param.Parameter{Name: "SCALED", Value: 7, Frozen: true},
		&param.Parameter{Name: "DRIFT"},
	)
	if err != nil {
		t.Fatal(err)
	}
	set := testSet(t, 4)
	m, names, err := design.NewBuilder(polyEval{}).Build(reg, set)
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "OFF" || names[1] != "DRIFT" {
		t.Fatal("column names:", names)
	}
	rows, cols := m.Dims()
	if rows != 4 || cols != 2 {
		t.Fatal("dims:", rows, cols)
	}
	for i := 0; i < 4; i++ {
		if m.At(i, 0) != 1 {
			t.Fatal("OFF column row", i, ":", m.At(i, 0))
		}
		if m.At(i, 1) != float64(i) {
			t.Fatal("DRIFT column row", i, ":", m.At(i, 1))
		}
	}
}

func TestConfigError(t *testing.T) {
	reg, err := param.NewRegistry(&param.Parameter{Name: "GLF0"})
	if err != nil {
		t.Fatal(err)
	}
	_, _, err = design.NewBuilder(polyEval{}).Build(reg, testSet(t, 4))
	ce, ok := err.(*design.ConfigError)
	if !ok {
		t.Fatal("expected ConfigError, got", err)
	}
	if ce.Param != "GLF0" {
		t.Fatal("error names:", ce.Param)
	}

	reg, err = param.NewRegistry(&param.Parameter{Name: "SHORT"})
	if err != nil {
		t.Fatal(err)
	}
	_, _, err = design.NewBuilder(polyEval{}).Build(reg, testSet(t, 4))
	if _, ok := err.(*design.ConfigError); !ok {
		t.Fatal("expected ConfigError for short column, got", err)
	}
}

func TestNumericalError(t *testing.T) {
	reg, err := param.NewRegistry(&param.Parameter{Name: "NANROW"})
	if err != nil {
		t.Fatal(err)
	}
	_, _, err = design.NewBuilder(polyEval{}).Build(reg, testSet(t, 4))
	ne, ok := err.(*design.NumericalError)
	if !ok {
		t.Fatal("expected NumericalError, got", err)
	}
	if ne.Param != "NANROW" || ne.Row != 2 {
		t.Fatal("error location:", ne.Param, ne.Row)
	}
}

func TestLinearizedReuse(t *testing.T) {
	reg, err := param.NewRegistry(&param.Parameter{Name: "SCALED", Value: 3})
	if err != nil {
		t.Fatal(err)
	}
	set := testSet(t, 10)
	b := design.NewBuilder(polyEval{},
		design.WithStrategy(design.Linearized),
		design.WithLinearizeMin(5))
	m1, _, err := b.Build(reg, set)
	if err != nil {
		t.Fatal(err)
	}
	if err := reg.SetFreeValues([]float64{99}); err != nil {
		t.Fatal(err)
	}
	m2, _, err := b.Build(reg, set)
	if err != nil {
		t.Fatal(err)
	}
	if m2.At(0, 0) != 3 {
		t.Fatal("frozen basis not reused:", m2.At(0, 0))
	}
	if m1 != m2 {
		t.Fatal("reuse should return the frozen basis")
	}
	b.Reset()
	m3, _, err := b.Build(reg, set)
	if err != nil {
		t.Fatal(err)
	}
	if m3.At(0, 0) != 99 {
		t.Fatal("Reset should force re-evaluation:", m3.At(0, 0))
	}
}

func TestLinearizedFallback(t *testing.T) {
	// under the observation floor the strategy evaluates exactly every
	// build
	reg, err := param.NewRegistry(&param.Parameter{Name: "SCALED", Value: 3})
	if err != nil {
		t.Fatal(err)
	}
	set := testSet(t, 10)
	b := design.NewBuilder(polyEval{},
		design.WithStrategy(design.Linearized),
		design.WithLinearizeMin(50))
	if _, _, err := b.Build(reg, set); err != nil {
		t.Fatal(err)
	}
	if err := reg.SetFreeValues([]float64{99}); err != nil {
		t.Fatal(err)
	}
	m, _, err := b.Build(reg, set)
	if err != nil {
		t.Fatal(err)
	}
	if m.At(0, 0) != 99 {
		t.Fatal("fallback should re-evaluate:", m.At(0, 0))
	}
}

func TestNoFreeParameters(t *testing.T) {
	reg, err := param.NewRegistry(&param.Parameter{Name: "OFF", Frozen: true})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := design.NewBuilder(polyEval{}).Build(reg, testSet(t, 4)); err == nil {
		t.Fatal("expected error with no free parameters")
	}
}
