// Public domain.

package ptprog

import (
	"fmt"
	"math"

	xrand "golang.org/x/exp/rand"

	"github.com/LuluAgazie/PINT/param"
	"github.com/LuluAgazie/PINT/toa"
)

const secPerDay = 86400

// spindown is a two-term rotational phase model,
// phase(t) = F0*dt + F1*dt^2/2 with dt seconds from PEPOCH.  Residuals
// are the nearest-integer phase wrap converted to seconds.
type spindown struct {
	pepoch float64 // MJD
}

func (m spindown) values(reg *param.Registry) (f0, f1 float64, err error) {
	p0, ok := reg.Get("F0")
	if !ok {
		return 0, 0, fmt.Errorf("spindown model needs F0")
	}
	p1, ok := reg.Get("F1")
	if !ok {
		return 0, 0, fmt.Errorf("spindown model needs F1")
	}
	return p0.Value, p1.Value, nil
}

func (m spindown) phase(f0, f1, mjd float64) float64 {
	dt := (mjd - m.pepoch) * secPerDay
	return f0*dt + 0.5*f1*dt*dt
}

func (m spindown) Residuals(reg *param.Registry, set *toa.Set) ([]float64, error) {
	f0, f1, err := m.values(reg)
	if err != nil {
		return nil, err
	}
	r := make([]float64, set.Len())
	for i, mjd := range set.MJDs() {
		ph := m.phase(f0, f1, mjd)
		r[i] = (ph - math.Round(ph)) / f0
	}
	return r, nil
}

func (m spindown) Derivative(name string, reg *param.Registry, set *toa.Set) ([]float64, error) {
	f0, _, err := m.values(reg)
	if err != nil {
		return nil, err
	}
	d := make([]float64, set.Len())
	switch name {
	case "F0":
		for i, mjd := range set.MJDs() {
			dt := (mjd - m.pepoch) * secPerDay
			d[i] = dt / f0
		}
	case "F1":
		for i, mjd := range set.MJDs() {
			dt := (mjd - m.pepoch) * secPerDay
			d[i] = 0.5 * dt * dt / f0
		}
	default:
		return nil, fmt.Errorf("spindown model has no derivative for %s", name)
	}
	return d, nil
}

// synthesize generates arrival times whose true phase is integral, then
// scatters them with gaussian noise of sigma seconds.
func synthesize(m spindown, f0, f1 float64, n int, spanDays, sigma float64, rnd *xrand.Rand) ([]toa.TOA, error) {
	toas := make([]toa.TOA, n)
	for i := 0; i < n; i++ {
		grid := m.pepoch + spanDays*float64(i)/float64(n-1)
		ph := m.phase(f0, f1, grid)
		// one Newton step lands on integral phase; the model is nearly
		// linear over a step of under one period
		t := grid + (math.Round(ph)-ph)/(f0*secPerDay)
		t += sigma * rnd.NormFloat64() / secPerDay
		toas[i] = toa.TOA{MJD: t, Err: sigma}
	}
	return toas, nil
}
