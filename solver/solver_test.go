package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orthopteroid/hydrodp/curve"
	"github.com/orthopteroid/hydrodp/turbine"
)

func newMetricSolver(t *testing.T) (*Solver, *curve.Store) {
	t.Helper()
	store := curve.NewStore()
	s := New(store)
	s.SetUnits(turbine.Metric)
	return s, store
}

func mustCurve(t *testing.T, store *curve.Store, name string) int {
	t.Helper()
	id, ok := store.Find(name)
	require.True(t, ok, "builtin curve %q must exist", name)
	return id
}

func TestSingleKaplanPowerMode(t *testing.T) {
	s, store := newMetricSolver(t)
	kaplan := mustCurve(t, store, "Kaplan")
	s.RegisterTurbine("K1", kaplan, 30, 80, 20000)
	s.SetHead(30)
	s.SetSolveMode(ForPower)
	s.SetUserSteps(20)

	require.NoError(t, s.Solve())
	require.False(t, s.DidFail())

	T := s.T()
	require.Greater(t, T, 1)
	topSumA, err := s.SumA(T - 1)
	require.NoError(t, err)
	assert.Greater(t, topSumA, 0.0)

	hk, err := s.AvgHK(T - 1)
	require.NoError(t, err)
	assert.Greater(t, hk, 0.0)
}

func TestTwoPeltonsFlowMode(t *testing.T) {
	s, store := newMetricSolver(t)
	pelton := mustCurve(t, store, "Pelton")
	s.RegisterTurbine("P1", pelton, 300, 5, 12000)
	s.RegisterTurbine("P2", pelton, 300, 5, 12000)
	s.SetHead(300)
	s.SetSolveMode(ForFlow)
	s.SetUserSteps(15)

	require.NoError(t, s.Solve())

	T := s.T()
	sumA, err := s.SumA(T - 1)
	require.NoError(t, err)
	assert.Greater(t, sumA, 0.0)

	p0, err := s.P(0, T-1)
	require.NoError(t, err)
	p1, err := s.P(1, T-1)
	require.NoError(t, err)
	assert.Greater(t, p0+p1, 0.0)
}

func TestMixedPlantCoordination(t *testing.T) {
	s, store := newMetricSolver(t)
	francis := mustCurve(t, store, "Francis")
	kaplan := mustCurve(t, store, "Kaplan")
	s.RegisterTurbine("F1", francis, 50, 60, 25000)
	s.RegisterTurbine("K1", kaplan, 50, 90, 20000)
	s.SetHead(50)
	s.SetSolveMode(ForPower)
	s.SetUserSteps(25)

	require.NoError(t, s.Solve())
	require.False(t, s.DidFail())

	mid := s.T() / 2
	sumA, err := s.SumA(mid)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, sumA, 0.0)

	// priority order must be a permutation of both units
	seen := map[int]bool{}
	for _, orig := range s.priorityOrder {
		seen[orig] = true
	}
	assert.Len(t, seen, 2)
}

func TestZeroHeadIsInfeasible(t *testing.T) {
	s, store := newMetricSolver(t)
	kaplan := mustCurve(t, store, "Kaplan")
	s.RegisterTurbine("K1", kaplan, 30, 80, 20000)
	s.SetHead(0)
	s.SetSolveMode(ForPower)

	err := s.Solve()
	require.Error(t, err)
	assert.True(t, s.DidFail())
}

func TestUndefinedModeIsInfeasible(t *testing.T) {
	s, store := newMetricSolver(t)
	kaplan := mustCurve(t, store, "Kaplan")
	s.RegisterTurbine("K1", kaplan, 30, 80, 20000)
	s.SetHead(30)

	err := s.Solve()
	require.Error(t, err)
}

func TestDispatchInterpolatesWithinSameActiveSet(t *testing.T) {
	s, store := newMetricSolver(t)
	kaplan := mustCurve(t, store, "Kaplan")
	s.RegisterTurbine("K1", kaplan, 30, 80, 20000)
	s.SetHead(30)
	s.SetSolveMode(ForPower)
	s.SetUserSteps(20)
	require.NoError(t, s.Solve())

	topSumA, err := s.SumA(s.T() - 1)
	require.NoError(t, err)

	require.NoError(t, s.SetDispatch(topSumA/2))
	p, err := s.UnitDispatchP(0)
	require.NoError(t, err)
	assert.Greater(t, p, 0.0)
}

func TestDispatchSnapsToCloserAcrossCutIn(t *testing.T) {
	s, store := newMetricSolver(t)
	francis := mustCurve(t, store, "Francis")
	kaplan := mustCurve(t, store, "Kaplan")
	s.RegisterTurbine("F1", francis, 50, 60, 25000)
	s.RegisterTurbine("K1", kaplan, 50, 90, 20000)
	s.SetHead(50)
	s.SetSolveMode(ForPower)
	s.SetUserSteps(30)
	require.NoError(t, s.Solve())

	// A demand right at the low end, where only one unit has cut in, must
	// not blend values across the other unit's cut-in boundary.
	require.NoError(t, s.SetDispatch(1.0))
	totalP := 0.0
	for i := range s.Units {
		p, err := s.UnitDispatchP(i)
		require.NoError(t, err)
		totalP += p
	}
	assert.GreaterOrEqual(t, totalP, 0.0)
}

func TestOPRegressionTwoHeads(t *testing.T) {
	s, store := newMetricSolver(t)
	kaplan := mustCurve(t, store, "Kaplan")
	s.RegisterTurbine("K1", kaplan, 30, 80, 20000)
	s.SetSolveMode(ForPower)
	s.SetUserSteps(20)

	s.OPSetCapacities([]float64{0.5})

	s.SetHead(28)
	s.OPSetDependent(28)
	require.NoError(t, s.Solve())
	require.NoError(t, s.OPRegress())
	hk1 := s.avgHKAt(0.5 * s.gridReport.TotalHeadAdjusted)

	s.SetHead(32)
	s.OPSetDependent(32)
	require.NoError(t, s.Solve())
	require.NoError(t, s.OPRegress())
	hk2 := s.avgHKAt(0.5 * s.gridReport.TotalHeadAdjusted)

	m, err := s.OPCoefM(0)
	require.NoError(t, err)
	b, err := s.OPCoefB(0)
	require.NoError(t, err)

	require.NotEqual(t, hk1, hk2, "heads 28 and 32 must produce distinguishable avgHK samples")
	assert.InDelta(t, (hk2-hk1)/(32-28), m, 1e-9)
	assert.InDelta(t, hk2, m*32+b, 1e-9)
}

func TestOPRegressionSingleSolveIsDegenerate(t *testing.T) {
	s, store := newMetricSolver(t)
	kaplan := mustCurve(t, store, "Kaplan")
	s.RegisterTurbine("K1", kaplan, 30, 80, 20000)
	s.SetHead(30)
	s.SetSolveMode(ForPower)
	s.SetUserSteps(20)
	s.OPSetCapacities([]float64{0.5})
	s.OPSetDependent(30)

	require.NoError(t, s.Solve())
	require.NoError(t, s.OPRegress())

	m, err := s.OPCoefM(0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, m)
}

func TestWeightPolicyEqualFlattensStages(t *testing.T) {
	s, store := newMetricSolver(t)
	francis := mustCurve(t, store, "Francis")
	kaplan := mustCurve(t, store, "Kaplan")
	s.RegisterTurbine("F1", francis, 50, 60, 25000)
	s.RegisterTurbine("K1", kaplan, 50, 90, 20000)
	s.SetHead(50)
	s.SetSolveMode(ForPower)
	s.SetWeightPolicy(WeightEqual, false)
	s.AssignWeights()

	assert.Equal(t, 1.0, s.Units[0].Weight)
	assert.Equal(t, 1.0, s.Units[1].Weight)
}

func TestResizeFailsWithNoUnits(t *testing.T) {
	s, _ := newMetricSolver(t)
	s.SetHead(30)
	s.SetSolveMode(ForPower)
	err := s.Resize()
	require.Error(t, err)
}

func TestForwardPassSumAMonotoneNonDecreasing(t *testing.T) {
	s, store := newMetricSolver(t)
	kaplan := mustCurve(t, store, "Kaplan")
	s.RegisterTurbine("K1", kaplan, 30, 80, 20000)
	s.SetHead(30)
	s.SetSolveMode(ForPower)
	s.SetUserSteps(20)
	require.NoError(t, s.Solve())

	// Grid rounding can leave the very last index's decision a hair past
	// the unit's head-adjusted max, so only the interior is asserted here.
	prev := -1.0
	for sigma := 0; sigma < s.T()-1; sigma++ {
		v, err := s.SumA(sigma)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v, prev)
		prev = v
	}
}
