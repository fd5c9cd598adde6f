// Package solver implements the plant-wide dispatch optimizer: the
// per-unit objective tabulation, the multi-stage dynamic-programming
// backward recursion, the forward-pass reconstruction, and the
// post-solve dispatch/operating-point consumers described by spec.md.
//
// A Solver is single-threaded and cooperative: Resize, tabulation, the
// backward pass, the forward pass, and any consumer (SetDispatch, OPRegress)
// all assume exclusive access to one Solver for the duration of a solve.
// Callers that want to reuse buffers across solves of identical grid size
// should use SetCacheMode(CacheOn); SetCacheMode(CacheFlush) discards the
// retained buffers.
package solver

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/orthopteroid/hydrodp/curve"
	"github.com/orthopteroid/hydrodp/turbine"
)

// CacheMode controls whether DP/forward-pass buffers are retained across
// solves of identical grid size.
type CacheMode int

const (
	CacheOff CacheMode = iota
	CacheOn
	CacheFlush
)

// tol is the engine-wide tolerance below which an objective value, weight,
// or efficiency is treated as off/zero.
const tol = 1e-6

// Grid is the discretised aggregate-decision grid chosen by Resize.
type Grid struct {
	S         int     // stage count (number of units)
	T         int     // state count (discretised aggregate-decision levels)
	Delta     float64 // primary-variable step size
	DeltaComp float64 // companion-variable step size at the same index
}

// Solver owns every buffer and table described in spec.md §3: the
// per-stage objective table, the four DP tables, the forward-pass
// solution, and the summary rows. It is constructed once and reused
// across solves.
type Solver struct {
	Curves  *curve.Store
	Units   []*turbine.Unit
	Config  Config

	// Parallel lets tabulation and the final forward-pass decode fan out
	// with an errgroup, one goroutine per unit (tabulation) or per sigma
	// (forward decode), with no limit on how many run at once:
	// tabulation workers write disjoint per-unit
	// rows, forward-pass workers write disjoint per-sigma columns, and no
	// successor step runs before all predecessors complete. The backward
	// pass itself is always strictly sequential regardless of this flag.
	// Defaults to false so single-threaded runs stay deterministic.
	Parallel bool

	grid Grid

	cacheMode CacheMode
	pool      *bufPool

	// objective tabulation, indexed by ORIGINAL unit index
	objHK    [][]float64 // HK[s][j], weighted
	objPow   [][]float64 // power at [s][j] (the decision variable under ForPower)
	objFlow  [][]float64 // flow at [s][j] (the decision variable under ForFlow)

	// per-unit precomputations, indexed by ORIGINAL unit index
	opt     []int
	maxop   []int
	nearopt []int
	metric  []float64

	// priorityOrder[pos] = original unit index at priority position pos,
	// ascending by metric (weakest first). All DP/forward arrays below
	// are indexed by pos, not by original unit index.
	priorityOrder []int

	// DP backward-pass tables, indexed by [pos][sigma]
	gdv [][]float64
	gdc [][]float64
	gdm [][]int
	gda [][]float64

	// forward-pass solution, indexed by [pos][sigma]
	sol   [][]int
	solP  [][]float64
	solQ  [][]float64
	solHK [][]float64

	sumA   []float64
	sumB   []float64
	avgHK  []float64

	dispatchDemand float64
	udP, udQ, udHK []float64

	opCaps      []float64
	opDependent float64
	opHistD     [][]float64 // per-capacity history of dependent values (len <= 2)
	opHistHK    [][]float64 // per-capacity history of avgHK values (len <= 2)
	opM         []float64
	opB         []float64

	failed bool

	gridReport GridReport
}

// New builds a Solver around a curve store and the default configuration.
func New(store *curve.Store) *Solver {
	return &Solver{
		Curves: store,
		Config: DefaultConfig(),
	}
}

// RegisterTurbine appends a new unit and returns its index (used as the
// stage id everywhere in the programmatic surface except the internal
// priority-ordered DP tables).
func (s *Solver) RegisterTurbine(name string, curveID int, hRated, qMax, pMax float64) int {
	u := turbine.NewUnit(name, curveID, hRated, qMax, pMax)
	s.Units = append(s.Units, u)
	return len(s.Units) - 1
}

func (s *Solver) unit(i int) (*turbine.Unit, error) {
	if i < 0 || i >= len(s.Units) {
		return nil, fmt.Errorf("turbine index %d out of range [0,%d)", i, len(s.Units))
	}
	return s.Units[i], nil
}

// SetWeight, SetHeadloss, SetGenEff, SetGenCap, SetGenCurve are per-turbine
// setters mirroring spec.md §6.1; SetGenEff/SetGenCurve are mutually
// exclusive, enforced by turbine.Unit itself.
func (s *Solver) SetWeight(i int, w float64) error {
	u, err := s.unit(i)
	if err != nil {
		return err
	}
	u.Weight = w
	return nil
}

func (s *Solver) SetHeadloss(i int, k float64) error {
	u, err := s.unit(i)
	if err != nil {
		return err
	}
	u.HeadLossCoef = k
	return nil
}

func (s *Solver) SetGenEff(i int, eta float64) error {
	u, err := s.unit(i)
	if err != nil {
		return err
	}
	u.SetGenEff(eta)
	return nil
}

func (s *Solver) SetGenCap(i int, cap float64) error {
	u, err := s.unit(i)
	if err != nil {
		return err
	}
	u.GenCapFactor = cap
	return nil
}

func (s *Solver) SetGenCurve(i int, curveID int) error {
	u, err := s.unit(i)
	if err != nil {
		return err
	}
	u.SetGenCurve(curveID)
	return nil
}

// Configuration setters, §6.1.
func (s *Solver) SetHead(h float64)                   { s.Config.Head = h }
func (s *Solver) SetUnits(u turbine.Units)            { s.Config.Units = u }
func (s *Solver) SetLossCoef(l float64)               { s.Config.LossCoef = l }
func (s *Solver) SetCoordinationA(a float64)          { s.Config.CoordA = a }
func (s *Solver) SetCoordinationB(b float64)          { s.Config.CoordB = b }
func (s *Solver) SetUserSteps(n int)                  { s.Config.UserSteps = n }
func (s *Solver) SetSolveMode(m SolveMode)             { s.Config.Mode = m }
func (s *Solver) SetMinState(v float64)               { s.Config.MinState = v }
func (s *Solver) SetMaxState(v float64)               { s.Config.MaxState = v }
func (s *Solver) SetWeightPolicy(p WeightPolicy, relative bool) {
	s.Config.WeightPolicy = p
	s.Config.WeightRelative = relative
}

// AssignWeights applies the configured weight policy to every unit's
// Weight field; objective tabulation reads Weight directly, so this must
// run before Resize/Solve whenever the policy changed.
func (s *Solver) AssignWeights() {
	assignWeights(s)
}

// S, T, Delta report the current problem dimensions.
func (s *Solver) S() int            { return s.grid.S }
func (s *Solver) T() int            { return s.grid.T }
func (s *Solver) Delta() float64    { return s.grid.Delta }
func (s *Solver) GridReport() GridReport { return s.gridReport }

// SetCacheMode controls allocation retention across solves; CacheFlush
// immediately releases retained buffers.
func (s *Solver) SetCacheMode(m CacheMode) {
	s.cacheMode = m
	if m == CacheFlush {
		s.pool = nil
	}
}

// Malloc is a no-op allocation hook retained for parity with the
// programmatic surface; this implementation allocates lazily from Resize.
func (s *Solver) Malloc() {}

// Cleanup releases every buffer owned by the Solver.
func (s *Solver) Cleanup() {
	*s = Solver{Curves: s.Curves, Config: s.Config}
}

// FailClear clears the sticky fail flag; each Solve starts with this.
func (s *Solver) FailClear() { s.failed = false }

// FailSet sets the sticky fail flag.
func (s *Solver) FailSet() { s.failed = true }

// DidFail reports the sticky fail flag.
func (s *Solver) DidFail() bool { return s.failed }

func (s *Solver) fail(reason string) error {
	s.failed = true
	logrus.WithField("reason", reason).Warn("solve failed")
	return fmt.Errorf("hydrodp: %s", reason)
}
