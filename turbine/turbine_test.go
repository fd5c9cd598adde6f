package turbine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orthopteroid/hydrodp/curve"
)

func newTestUnit(t *testing.T, curveName string) (*curve.Store, *Unit) {
	t.Helper()
	store := curve.NewStore()
	id, ok := store.Find(curveName)
	require.True(t, ok)
	u := NewUnit("u0", id, 65, 1000, 1500)
	return store, u
}

func TestMaxPowerAndFlowCapAt20Percent(t *testing.T) {
	_, u := newTestUnit(t, "Kaplan")
	// Far from rated head, the Jim-Gordon adjustment saturates at 20%.
	p := u.MaxPowerAt(1000)
	assert.InDelta(t, u.RatedPower*1.20, p, 1e-9)
	q := u.MaxFlowAt(1000)
	assert.InDelta(t, u.RatedFlow*1.20, q, 1e-9)
}

func TestPowerMonotoneNearRatedHead(t *testing.T) {
	store, u := newTestUnit(t, "Kaplan")
	q := 500.0
	p1 := u.Power(store, 65*0.97, q, 0, Imperial.ConvFactor())
	p2 := u.Power(store, 65*1.00, q, 0, Imperial.ConvFactor())
	p3 := u.Power(store, 65*1.03, q, 0, Imperial.ConvFactor())
	assert.LessOrEqual(t, p1, p2+1e-9)
	assert.LessOrEqual(t, p2, p3+1e-9)
}

func TestDischargeMonotoneInverseNearRatedHead(t *testing.T) {
	store, u := newTestUnit(t, "Kaplan")
	p := 800.0
	q1 := u.Discharge(store, 65*0.97, p, 0, Imperial.ConvFactor())
	q2 := u.Discharge(store, 65*1.00, p, 0, Imperial.ConvFactor())
	q3 := u.Discharge(store, 65*1.03, p, 0, Imperial.ConvFactor())
	assert.GreaterOrEqual(t, q1, q2-1e-9)
	assert.GreaterOrEqual(t, q2, q3-1e-9)
}

func TestZeroOrNegativeShortCircuits(t *testing.T) {
	store, u := newTestUnit(t, "Kaplan")
	assert.Zero(t, u.Power(store, 65, 0, 0, Imperial.ConvFactor()))
	assert.Zero(t, u.Power(store, 65, -10, 0, Imperial.ConvFactor()))
	assert.Zero(t, u.Power(store, 0, 500, 0, Imperial.ConvFactor()))
	assert.Zero(t, u.Discharge(store, 65, 0, 0, Imperial.ConvFactor()))
	assert.Zero(t, u.Discharge(store, 65, -10, 0, Imperial.ConvFactor()))
}

func TestGenEffAndGenCurveAreMutuallyExclusive(t *testing.T) {
	_, u := newTestUnit(t, "Kaplan")
	u.SetGenEff(0.9)
	assert.False(t, u.hasGenCurve)
	u.SetGenCurve(2)
	assert.True(t, u.hasGenCurve)
}

func TestConvFactors(t *testing.T) {
	assert.InDelta(t, 0.0847, Imperial.ConvFactor(), 1e-3)
	assert.InDelta(t, 9.81, Metric.ConvFactor(), 1e-9)
	assert.Zero(t, UnitsUndefined.ConvFactor())
}
