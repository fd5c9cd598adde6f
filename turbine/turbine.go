// Package turbine models a single turbine-generator unit: its rated
// hydraulic/electrical limits and the power/flow/head relationships the
// dynamic program samples while tabulating each unit's objective function.
package turbine

import (
	"fmt"

	"github.com/orthopteroid/hydrodp/curve"
)

// Units selects the conversion constant relating head*flow to power.
type Units int

const (
	UnitsUndefined Units = iota
	Imperial
	Metric
)

// ConvFactor returns C, the constant converting head*flow to power in the
// selected unit system: 62.4*0.746/550 for imperial (from cfs), or
// 1000*9.81/1000 for metric (from cms).
func (u Units) ConvFactor() float64 {
	switch u {
	case Imperial:
		return 62.4 * 0.746 / 550
	case Metric:
		return 1000.0 * 9.81 / 1000.0
	default:
		return 0
	}
}

// EffTolerance is the efficiency below which a unit is considered off.
const EffTolerance = 1e-3

// Unit is a single turbine-generator. Exactly one of GenEff / GenCurve is
// active at a time; SetGenEff and SetGenCurve enforce the exclusion.
type Unit struct {
	Name string

	CurveID int // turbine hydraulic efficiency curve

	RatedHead  float64 // H_r
	RatedFlow  float64 // Q_max
	RatedPower float64 // P_max

	Weight       float64 // w, non-negative
	HeadLossCoef float64 // k_h

	GenCapFactor float64 // c_g, default 1.0 (fractional over-rating)

	genEff     float64 // eta_g scalar, default 0.95
	genCurveID int
	hasGenCurve bool
}

// NewUnit builds a unit with the spec defaults: generator capacity factor
// 1.0 and scalar generator efficiency 0.95.
func NewUnit(name string, curveID int, ratedHead, ratedFlow, ratedPower float64) *Unit {
	return &Unit{
		Name:         name,
		CurveID:      curveID,
		RatedHead:    ratedHead,
		RatedFlow:    ratedFlow,
		RatedPower:   ratedPower,
		Weight:       1.0,
		GenCapFactor: 1.0,
		genEff:       0.95,
	}
}

// SetGenEff sets a scalar generator efficiency and clears any generator
// curve -- the two are mutually exclusive.
func (u *Unit) SetGenEff(eta float64) {
	u.genEff = eta
	u.hasGenCurve = false
}

// SetGenCurve sets a generator efficiency curve and makes the scalar
// generator efficiency inactive. Power samples the curve at q/Q_max;
// Discharge samples it at p/P_max.
func (u *Unit) SetGenCurve(curveID int) {
	u.genCurveID = curveID
	u.hasGenCurve = true
}

func (u *Unit) genEfficiency(store *curve.Store, qFrac float64) float64 {
	if u.hasGenCurve {
		return store.EffFromFlowFraction(u.genCurveID, qFrac)
	}
	return u.genEff
}

func (u *Unit) String() string {
	return fmt.Sprintf("%s(curve=%d, Hr=%.3f, Qmax=%.3f, Pmax=%.3f, w=%.3f)",
		u.Name, u.CurveID, u.RatedHead, u.RatedFlow, u.RatedPower, u.Weight)
}
