// Public domain.

// Package noise converts noise-model parameters between equivalent
// representations and scales observation uncertainties for fitting.
//
// A white-noise term may be written as a dimensionless jitter in pulse
// phase or as an equivalent uncertainty in arrival time.  The two forms
// describe the same physical scatter; conversion divides or multiplies by
// the spin frequency.  Because time-dimensioned values depend on the
// time-scale convention they are expressed in, conversion also applies
// the TCB/TDB rate factor and records which conversion was performed.
package noise

import (
	"fmt"
	"math"

	"github.com/LuluAgazie/PINT/timescale"
	"github.com/LuluAgazie/PINT/toa"
)

// Representation identifies how a white-noise term is parameterized.
type Representation int

const (
	// PhaseJitter is a dimensionless scatter in pulse phase.
	PhaseJitter Representation = iota
	// TimeEquad is an equivalent arrival-time uncertainty in seconds.
	TimeEquad
)

func (r Representation) String() string {
	if r == PhaseJitter {
		return "phase-jitter"
	}
	return "time-equad"
}

// Param is a noise parameter in one representation, tagged with the
// time-scale convention its numeric value assumes.  Provenance records
// the conversions applied to produce the value.
type Param struct {
	Name       string
	Value      float64
	Rep        Representation
	Scale      timescale.Scale
	Provenance string
}

// ProvenanceWarning reports a noise parameter converted without a
// time-scale tag.  The conversion proceeds without any rate correction,
// but the condition is surfaced by name rather than silently defaulted.
type ProvenanceWarning struct {
	Name string
}

func (w *ProvenanceWarning) Error() string {
	return "noise: parameter " + w.Name + " has no time-scale tag; no rate correction applied"
}

// Convert re-expresses p in the target representation and time scale,
// given the spin frequency f0 in Hz.  The physical scatter contributed to
// any residual is unchanged by the representation choice, and converting
// back with the same arguments reproduces the original value to within
// floating-point tolerance.
//
// If p carries no time-scale tag the returned parameter is still usable:
// the representation is converted, the target scale tag is applied, and a
// *ProvenanceWarning naming the parameter is returned alongside it.
func Convert(p Param, target Representation, f0 float64, to timescale.Scale) (Param, error) {
	if !(f0 > 0) || math.IsInf(f0, 0) {
		return Param{}, fmt.Errorf("noise: spin frequency %g not positive and finite", f0)
	}
	out := p
	out.Rep = target
	switch {
	case p.Rep == PhaseJitter && target == TimeEquad:
		out.Value = p.Value / f0
	case p.Rep == TimeEquad && target == PhaseJitter:
		out.Value = p.Value * f0
	}

	if p.Scale == timescale.Unknown {
		out.Scale = to
		out.Provenance = stamp(p, out, "untagged")
		return out, &ProvenanceWarning{Name: p.Name}
	}
	f, err := timescale.Factor(p.Scale, to)
	if err != nil {
		return Param{}, err
	}
	// Only time-dimensioned values pick up the rate factor; a phase
	// jitter is dimensionless on both sides.
	if target == TimeEquad || p.Rep == TimeEquad {
		out.Value *= f
	}
	out.Scale = to
	out.Provenance = stamp(p, out, fmt.Sprintf("%s to %s", p.Scale, to))
	return out, nil
}

func stamp(in, out Param, scaleNote string) string {
	s := fmt.Sprintf("%s to %s (%s)", in.Rep, out.Rep, scaleNote)
	if in.Provenance == "" {
		return s
	}
	return in.Provenance + "; " + s
}

// GroupParams scales the uncertainties of one observation group.
// The scaled uncertainty is sqrt((efac*err)^2 + equad^2).
type GroupParams struct {
	EFAC  float64 // multiplicative factor, 1 if zero-valued
	EQUAD float64 // added in quadrature, seconds
}

// Model holds white-noise parameters per observation group.
type Model struct {
	groups map[string]GroupParams
	def    GroupParams
}

// NewModel builds a noise model from per-group parameters.  Observations
// whose group has no entry use def.
func NewModel(groups map[string]GroupParams, def GroupParams) *Model {
	g := make(map[string]GroupParams, len(groups))
	for k, v := range groups {
		g[k] = v
	}
	return &Model{groups: g, def: def}
}

// ScaledErrors returns the per-observation uncertainties of set with the
// noise model applied.  A nil model returns the raw uncertainties.
func (m *Model) ScaledErrors(set *toa.Set) []float64 {
	errs := set.Errors()
	if m == nil {
		return errs
	}
	for i, g := range set.Groups() {
		gp, ok := m.groups[g]
		if !ok {
			gp = m.def
		}
		efac := gp.EFAC
		if efac == 0 {
			efac = 1
		}
		e := efac * errs[i]
		errs[i] = math.Sqrt(e*e + gp.EQUAD*gp.EQUAD)
	}
	return errs
}
