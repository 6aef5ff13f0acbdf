// Public domain.

// Package timescale provides conversions between barycentric time-scale
// conventions and small calendar helpers for reporting epochs.
//
// Quantities carrying a dimension of time have numeric values that depend
// on the time coordinate they are expressed in.  The rate factors here
// relate barycentric coordinate time (TCB) to barycentric dynamical time
// (TDB) using the IAU 2006 defining constant L_B.
package timescale

import (
	"fmt"

	"github.com/soniakeys/meeus/v3/julian"
)

// Scale identifies the time-scale convention a value is expressed in.
type Scale int

const (
	Unknown Scale = iota
	TDB
	TCB
)

func (s Scale) String() string {
	switch s {
	case TDB:
		return "TDB"
	case TCB:
		return "TCB"
	}
	return "Unknown"
}

// L_B relates TCB and TDB rates, d(TDB)/d(TCB) = 1 - L_B.
// IAU 2006 Resolution B3.
const LB = 1.550519768e-8

// LG relates TCG and TT rates.  IAU 2000 Resolution B1.9.
const LG = 6.969290134e-10

// MJD offset from Julian date.
const mjdOffset = 2400000.5

// Factor returns the rate factor that converts an interval expressed in
// scale from to the equivalent interval expressed in scale to.  The two
// directions are reciprocals, so converting forward and then backward
// reproduces the original value to within floating-point rounding.
func Factor(from, to Scale) (float64, error) {
	if from == Unknown || to == Unknown {
		return 0, fmt.Errorf("timescale: no rate factor for %s to %s", from, to)
	}
	if from == to {
		return 1, nil
	}
	if from == TCB { // TCB intervals run longer than TDB intervals
		return 1 - LB, nil
	}
	return 1 / (1 - LB), nil
}

// Calendar converts a modified Julian date to a Gregorian calendar date.
func Calendar(mjd float64) (y, m int, d float64) {
	return julian.JDToCalendar(mjd + mjdOffset)
}

// MJD converts a Gregorian calendar date to a modified Julian date.
func MJD(y, m int, d float64) float64 {
	return julian.CalendarGregorianToJD(y, m, d) - mjdOffset
}
