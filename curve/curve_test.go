package curve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStoreSeedsBuiltins(t *testing.T) {
	s := NewStore()
	assert.Equal(t, 6, s.Count())
	for _, name := range []string{"CrossFlow", "FixedPropeller", "Francis", "Kaplan", "Pelton", "Turgo"} {
		id, ok := s.Find(name)
		require.Truef(t, ok, "builtin %s must be registered", name)
		assert.NotNil(t, s.Get(id))
	}
}

func TestRegisterRejectsShortCurve(t *testing.T) {
	s := NewStore()
	_, err := s.Register("tooshort", []float64{0}, []float64{0}, []float64{0})
	assert.Error(t, err)
}

func TestRegisterRejectsFlatCutIn(t *testing.T) {
	s := NewStore()
	_, err := s.Register("flat", []float64{0, 0, 0.5, 1}, []float64{0, 0, 0.5, 1}, []float64{0, 0, 0.8, 0.9})
	assert.Error(t, err)
}

func TestInterpolationBoundsAndContinuity(t *testing.T) {
	s := NewStore()
	id, _ := s.Find("Francis")
	c := s.Get(id)

	lo, hi := c.Eff[0], c.Eff[0]
	for _, e := range c.Eff {
		if e < lo {
			lo = e
		}
		if e > hi {
			hi = e
		}
	}

	const steps = 200
	var prev float64
	for i := 0; i <= steps; i++ {
		x := c.Flow[0] + (c.Flow[len(c.Flow)-1]-c.Flow[0])*float64(i)/steps
		y := s.EffFromFlowFraction(id, x)
		assert.GreaterOrEqualf(t, y, lo-1e-9, "x=%v below curve minimum", x)
		assert.LessOrEqualf(t, y, hi+1e-9, "x=%v above curve maximum", x)
		if i > 0 {
			assert.InDeltaf(t, prev, y, 0.25, "interpolation should be continuous near x=%v", x)
		}
		prev = y
	}
}

func TestBelowCutInReturnsZero(t *testing.T) {
	s := NewStore()
	id, _ := s.Find("Kaplan")
	c := s.Get(id)
	// Kaplan's flow column starts at 0, so push the cut-in up to test the
	// discontinuity explicitly on a curve with a nonzero first sample.
	id2, err := s.Register("CutIn", []float64{0.1, 0.3, 0.6, 1.0}, []float64{0.1, 0.3, 0.6, 1.0}, []float64{0.5, 0.7, 0.85, 0.9})
	require.NoError(t, err)
	assert.Zero(t, s.EffFromFlowFraction(id2, 0.05))
	assert.NotZero(t, s.EffFromFlowFraction(id, 0.1))
}

func TestPeltonOverspeedBendInterpolatesSymmetrically(t *testing.T) {
	s := NewStore()
	id, _ := s.Find("Pelton")
	c := s.Get(id)
	n := len(c.Flow)
	// Last segment bends backward (flow decreases past full gate); a value
	// strictly between the last two samples must land on that segment, not
	// fall through to zero.
	mid := (c.Flow[n-1] + c.Flow[n-2]) / 2
	y := s.EffFromFlowFraction(id, mid)
	assert.InDelta(t, (c.Eff[n-1]+c.Eff[n-2])/2, y, 1e-9)
}

func TestFindLargerPrecedesFirstSample(t *testing.T) {
	a := []float64{0.2, 0.4, 0.6, 1.0}
	assert.Equal(t, 0, findLarger(a, 0.0))
	assert.Equal(t, 1, findLarger(a, 0.2))
	assert.Equal(t, 3, findLarger(a, 0.9))
}
