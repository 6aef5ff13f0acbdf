// Public domain.

package derive

import (
	"fmt"
	"math"

	"github.com/LuluAgazie/PINT/param"
)

// Physical constants for the canned pulsar quantities.
const (
	// T_sun = G*Msun/c^3, seconds.
	tSun = 4.925490947e-6
	// Conventional neutron star moment of inertia, g cm^2.
	momentOfInertia = 1e45
	secPerYear      = 86400 * 365.25
)

// source resolves a parameter by name to a value getter over the free
// vector (frozen parameters read their registry value) and a free-vector
// slot, -1 when frozen.
type source struct {
	get  func(x []float64) float64
	slot int
}

func resolve(reg *param.Registry, name string) (source, error) {
	p, ok := reg.Get(name)
	if !ok {
		return source{}, fmt.Errorf("derive: parameter %s not in registry", name)
	}
	if j, free := reg.FreeIndex(name); free {
		return source{get: func(x []float64) float64 { return x[j] }, slot: j}, nil
	}
	v := p.Value
	return source{get: func(x []float64) float64 { return v }, slot: -1}, nil
}

// Period returns the spin period P = 1/F0 in seconds.
func Period(reg *param.Registry) (Func, error) {
	f0, err := resolve(reg, "F0")
	if err != nil {
		return Func{}, err
	}
	k := reg.NumFree()
	return Func{
		Name: "P0",
		Eval: func(x []float64) float64 { return 1 / f0.get(x) },
		Grad: func(x []float64) []float64 {
			g := make([]float64, k)
			if f0.slot >= 0 {
				v := f0.get(x)
				g[f0.slot] = -1 / (v * v)
			}
			return g
		},
	}, nil
}

// Pdot returns the spin period derivative -F1/F0^2, dimensionless.
func Pdot(reg *param.Registry) (Func, error) {
	f0, err := resolve(reg, "F0")
	if err != nil {
		return Func{}, err
	}
	f1, err := resolve(reg, "F1")
	if err != nil {
		return Func{}, err
	}
	k := reg.NumFree()
	return Func{
		Name: "P1",
		Eval: func(x []float64) float64 {
			v0 := f0.get(x)
			return -f1.get(x) / (v0 * v0)
		},
		Grad: func(x []float64) []float64 {
			g := make([]float64, k)
			v0, v1 := f0.get(x), f1.get(x)
			if f0.slot >= 0 {
				g[f0.slot] = 2 * v1 / (v0 * v0 * v0)
			}
			if f1.slot >= 0 {
				g[f1.slot] = -1 / (v0 * v0)
			}
			return g
		},
	}, nil
}

// CharacteristicAge returns the spin-down age P/(2*Pdot) in years,
// assuming braking index 3.
func CharacteristicAge(reg *param.Registry) (Func, error) {
	f0, err := resolve(reg, "F0")
	if err != nil {
		return Func{}, err
	}
	f1, err := resolve(reg, "F1")
	if err != nil {
		return Func{}, err
	}
	k := reg.NumFree()
	return Func{
		Name: "AGE",
		Eval: func(x []float64) float64 {
			return -f0.get(x) / (2 * f1.get(x)) / secPerYear
		},
		Grad: func(x []float64) []float64 {
			g := make([]float64, k)
			v0, v1 := f0.get(x), f1.get(x)
			if f0.slot >= 0 {
				g[f0.slot] = -1 / (2 * v1) / secPerYear
			}
			if f1.slot >= 0 {
				g[f1.slot] = v0 / (2 * v1 * v1) / secPerYear
			}
			return g
		},
	}, nil
}

// SurfaceField returns the conventional dipole surface magnetic field
// 3.2e19*sqrt(-F1/F0^3) in gauss.
func SurfaceField(reg *param.Registry) (Func, error) {
	f0, err := resolve(reg, "F0")
	if err != nil {
		return Func{}, err
	}
	f1, err := resolve(reg, "F1")
	if err != nil {
		return Func{}, err
	}
	return Func{
		Name: "BSURF",
		Eval: func(x []float64) float64 {
			v0 := f0.get(x)
			return 3.2e19 * math.Sqrt(-f1.get(x)/(v0*v0*v0))
		},
		// Square-root cusp near F1=0; central differences serve.
	}, nil
}

// SpindownLuminosity returns Edot = -4*pi^2*I*F1*F0 in erg/s with the
// conventional moment of inertia.
func SpindownLuminosity(reg *param.Registry) (Func, error) {
	f0, err := resolve(reg, "F0")
	if err != nil {
		return Func{}, err
	}
	f1, err := resolve(reg, "F1")
	if err != nil {
		return Func{}, err
	}
	k := reg.NumFree()
	c := 4 * math.Pi * math.Pi * momentOfInertia
	return Func{
		Name: "EDOT",
		Eval: func(x []float64) float64 {
			return -c * f1.get(x) * f0.get(x)
		},
		Grad: func(x []float64) []float64 {
			g := make([]float64, k)
			if f0.slot >= 0 {
				g[f0.slot] = -c * f1.get(x)
			}
			if f1.slot >= 0 {
				g[f1.slot] = -c * f0.get(x)
			}
			return g
		},
	}, nil
}

// MassFunction returns the binary mass function
// 4*pi^2*A1^3/(T_sun*PB^2) in solar masses, from the projected semimajor
// axis A1 in light-seconds and the orbital period PB in seconds.
func MassFunction(reg *param.Registry) (Func, error) {
	pb, err := resolve(reg, "PB")
	if err != nil {
		return Func{}, err
	}
	a1, err := resolve(reg, "A1")
	if err != nil {
		return Func{}, err
	}
	k := reg.NumFree()
	c := 4 * math.Pi * math.Pi / tSun
	return Func{
		Name: "FB",
		Eval: func(x []float64) float64 {
			a := a1.get(x)
			p := pb.get(x)
			return c * a * a * a / (p * p)
		},
		Grad: func(x []float64) []float64 {
			g := make([]float64, k)
			a := a1.get(x)
			p := pb.get(x)
			if a1.slot >= 0 {
				g[a1.slot] = 3 * c * a * a / (p * p)
			}
			if pb.slot >= 0 {
				g[pb.slot] = -2 * c * a * a * a / (p * p * p)
			}
			return g
		},
	}, nil
}
