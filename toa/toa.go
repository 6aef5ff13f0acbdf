// Public domain.

// Package toa holds a validated set of pulse times of arrival.
package toa

import (
	"fmt"
	"math"
)

// TOA is a single observed time of arrival.
type TOA struct {
	MJD   float64 // arrival time, modified Julian date
	Err   float64 // measurement uncertainty, seconds
	Group string  // noise-model group membership, may be empty
}

// DataError reports an observation set that cannot feed a fit.
type DataError struct {
	N   int // offending observation, -1 for set-wide problems
	Msg string
}

func (e *DataError) Error() string {
	if e.N < 0 {
		return "toa: " + e.Msg
	}
	return fmt.Sprintf("toa: observation %d: %s", e.N, e.Msg)
}

// Set is an ordered observation set.  A valid set is non-empty, has
// strictly increasing arrival times, and has finite positive
// uncertainties, so that every observation maps to exactly one evaluable
// residual.
type Set struct {
	toas []TOA
}

// NewSet validates the observations and builds a set.  The slice is
// copied.
func NewSet(toas []TOA) (*Set, error) {
	if len(toas) == 0 {
		return nil, &DataError{N: -1, Msg: "empty observation set"}
	}
	var t0 float64
	t0 = math.Inf(-1)
	for i, o := range toas {
		if math.IsNaN(o.MJD) || math.IsInf(o.MJD, 0) {
			return nil, &DataError{N: i, Msg: "non-finite arrival time"}
		}
		if o.MJD <= t0 {
			return nil, &DataError{N: i, Msg: "arrival times must increase"}
		}
		t0 = o.MJD
		if !(o.Err > 0) || math.IsInf(o.Err, 0) {
			return nil, &DataError{N: i,
				Msg: fmt.Sprintf("uncertainty %g not positive and finite", o.Err)}
		}
	}
	return &Set{toas: append([]TOA{}, toas...)}, nil
}

// Len returns the number of observations.
func (s *Set) Len() int { return len(s.toas) }

// At returns observation i.
func (s *Set) At(i int) TOA { return s.toas[i] }

// MJDs returns the arrival times in order.
func (s *Set) MJDs() []float64 {
	t := make([]float64, len(s.toas))
	for i, o := range s.toas {
		t[i] = o.MJD
	}
	return t
}

// Errors returns the per-observation uncertainties in seconds.
func (s *Set) Errors() []float64 {
	e := make([]float64, len(s.toas))
	for i, o := range s.toas {
		e[i] = o.Err
	}
	return e
}

// Groups returns the noise-group membership of each observation.
func (s *Set) Groups() []string {
	g := make([]string, len(s.toas))
	for i, o := range s.toas {
		g[i] = o.Group
	}
	return g
}

// Span returns the first and last arrival times.
func (s *Set) Span() (first, last float64) {
	return s.toas[0].MJD, s.toas[len(s.toas)-1].MJD
}
