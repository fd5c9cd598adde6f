package turbine

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/orthopteroid/hydrodp/curve"
	"github.com/orthopteroid/hydrodp/internal/numeric"
)

// jimGordonExponent is the exponent e in the Jim-Gordon head-adjustment
// equation; the engine always uses 2.0.
const jimGordonExponent = 2.0

// maxHeadAdjustment caps the magnitude of the Jim-Gordon adjustment at 20%,
// regardless of how far off-rating the head is.
const maxHeadAdjustment = 0.20

// jimGordonPhi computes Phi(h, Hr, e) = 1 +/- 0.5*|h/Hr - 1|^e, the sign
// matching (h - Hr) and the magnitude capped at maxHeadAdjustment.
func jimGordonPhi(h, hRated, exp float64) float64 {
	if hRated == 0 {
		return 1
	}
	adj := 0.5 * numeric.Pow(math.Abs(numeric.Div(h, hRated)-1), exp)
	if adj > maxHeadAdjustment {
		adj = maxHeadAdjustment
	}
	if h < hRated {
		return 1 - adj
	}
	return 1 + adj
}

// MaxPowerAt returns P_max * Phi(h, H_r, 2.0).
func (u *Unit) MaxPowerAt(h float64) float64 {
	return u.RatedPower * jimGordonPhi(h, u.RatedHead, jimGordonExponent)
}

// MaxFlowAt returns Q_max * Phi(h, H_r, 2.0).
func (u *Unit) MaxFlowAt(h float64) float64 {
	return u.RatedFlow * jimGordonPhi(h, u.RatedHead, jimGordonExponent)
}

// Power computes the generator-terminal power delivered at head h and flow
// q: generator efficiency (scalar or curve-sampled at q/Q_max), hydraulic
// head loss k_h*(q/Q_max)^2, net head h_net = h - loss, the Jim-Gordon
// adjustment at h_net, turbine efficiency from the curve at q/Q_max, and
// the plant loss coefficient. Negative/zero q short-circuits to 0; any
// NaN/Inf result is cleaned to 0.
func (u *Unit) Power(store *curve.Store, h, q, lossCoefPlant, convFactor float64) float64 {
	if q <= 0 || h <= 0 {
		return 0
	}
	qFrac := numeric.Div(q, u.RatedFlow)
	genEff := u.genEfficiency(store, qFrac)

	headLoss := u.HeadLossCoef * qFrac * qFrac
	hNet := h - headLoss

	phi := jimGordonPhi(hNet, u.RatedHead, jimGordonExponent)
	turbEff := store.EffFromFlowFraction(u.CurveID, qFrac)

	if turbEff < EffTolerance {
		return 0
	}

	p := phi * turbEff * q * h * convFactor * (1 - lossCoefPlant) * genEff
	p = numeric.Clean(p)
	if p < 0 {
		return 0
	}

	if p > u.RatedPower*u.GenCapFactor*1.001 {
		logrus.WithFields(logrus.Fields{
			"unit": u.Name, "power": p, "rated": u.RatedPower, "gencap": u.GenCapFactor,
		}).Info("unit power exceeds rating")
	}
	return p
}

// Discharge solves the inverse of Power: given head h and requested power
// p, back-solve the relationship using the power axis of the curve.
// Hydraulic head loss is not applied here: the Jim-Gordon adjustment is
// evaluated at the gross head h, so with a non-zero HeadLossCoef Discharge
// is not the exact inverse of Power. Identical numerical cleanup and
// short-circuit-to-zero semantics apply.
func (u *Unit) Discharge(store *curve.Store, h, p, lossCoefPlant, convFactor float64) float64 {
	if p <= 0 || h <= 0 {
		return 0
	}
	pFrac := numeric.Div(p, u.RatedPower)
	turbEff := store.EffFromPowerFraction(u.CurveID, pFrac)
	if turbEff < EffTolerance {
		return 0
	}

	phi := jimGordonPhi(h, u.RatedHead, jimGordonExponent)
	genEff := u.genEfficiency(store, pFrac)

	denom := phi * turbEff * h * convFactor * (1 - lossCoefPlant) * genEff
	q := numeric.Div(p, denom)
	q = numeric.Clean(q)
	if q < 0 {
		return 0
	}

	if q > u.RatedFlow*1.001 {
		logrus.WithFields(logrus.Fields{
			"unit": u.Name, "flow": q, "rated": u.RatedFlow,
		}).Info("unit flow exceeds rating")
	}
	return q
}
