package solver

import (
	"math"

	"github.com/orthopteroid/hydrodp/internal/numeric"
)

// SetDispatch implements §4.8: it locates demand within the forward
// pass's sumA table and produces per-unit dispatch values. When demand
// falls between two adjacent grid states that dispatch the same set of
// active units, the lower neighbour's per-unit values are scaled up by
// c = demand/sumA[lo] -- the upper neighbour never enters the result,
// since a pattern-preserving move is a proportional scale-up of the
// lower state, not a blend of two states; when the active set differs
// (a unit is about to cut in or out), blending would mix structurally
// different dispatches, so the closer grid state is used verbatim
// instead. Demand beyond the top of the usable span scales that top
// state by c = demand/sumA[top] in the same way.
func (s *Solver) SetDispatch(demand float64) error {
	T := s.grid.T
	if T == 0 {
		return s.fail("dispatch requested before a solve")
	}
	s.dispatchDemand = demand

	lo, hi := s.usableSpan(demand)
	if lo == hi {
		c := 1.0
		if lo > 0 && demand > s.sumA[lo] {
			c = demand / s.sumA[lo]
		}
		s.applyDispatchRow(lo, c)
		return nil
	}
	if s.sameActivePattern(lo, hi) {
		c := 1.0
		if s.sumA[lo] != 0 {
			c = demand / s.sumA[lo]
		}
		s.applyDispatchRow(lo, c)
		return nil
	}

	if math.Abs(demand-s.sumA[lo]) <= math.Abs(demand-s.sumA[hi]) {
		s.applyDispatchRow(lo, 1)
	} else {
		s.applyDispatchRow(hi, 1)
	}
	return nil
}

// usableSpan binary-searches sumA (monotone non-decreasing by
// construction of the forward pass) for the bracket containing demand.
// The usable span ends at the largest state whose sumA is at least 1;
// out-of-range demand clamps to the span's ends.
func (s *Solver) usableSpan(demand float64) (lo, hi int) {
	top := s.grid.T - 1
	for top > 0 && s.sumA[top] < 1 {
		top--
	}
	if demand <= s.sumA[0] {
		return 0, 0
	}
	if demand >= s.sumA[top] {
		return top, top
	}
	lo, hi = 0, top
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if s.sumA[mid] <= demand {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo, hi
}

// sameActivePattern reports whether grid states a and b dispatch the
// same set of units (each either on or off), stage for stage.
func (s *Solver) sameActivePattern(a, b int) bool {
	for pos := 0; pos < s.grid.S; pos++ {
		onA := s.solP[pos][a] > tol || s.solQ[pos][a] > tol
		onB := s.solP[pos][b] > tol || s.solQ[pos][b] > tol
		if onA != onB {
			return false
		}
	}
	return true
}

func lerp(a, b, frac float64) float64 {
	return a + (b-a)*frac
}

// applyDispatchRow scales grid state idx's per-unit P/Q by c, computes
// each unit's H/K as the cleaned ratio of the scaled P and Q, and stores
// the result under each unit's original index.
func (s *Solver) applyDispatchRow(idx int, c float64) {
	for pos := 0; pos < s.grid.S; pos++ {
		u := s.priorityOrder[pos]
		s.udP[u] = c * s.solP[pos][idx]
		s.udQ[u] = c * s.solQ[pos][idx]
		s.udHK[u] = numeric.Div(s.udP[u], s.udQ[u])
	}
}

// Dispatch returns the demand last requested via SetDispatch.
func (s *Solver) Dispatch() float64 { return s.dispatchDemand }

// UnitDispatchP, UnitDispatchQ, UnitDispatchHK return the dispatched
// power, flow, and H/K for original unit index i after SetDispatch.
func (s *Solver) UnitDispatchP(i int) (float64, error) {
	if _, err := s.unit(i); err != nil {
		return 0, err
	}
	return s.udP[i], nil
}

func (s *Solver) UnitDispatchQ(i int) (float64, error) {
	if _, err := s.unit(i); err != nil {
		return 0, err
	}
	return s.udQ[i], nil
}

func (s *Solver) UnitDispatchHK(i int) (float64, error) {
	if _, err := s.unit(i); err != nil {
		return 0, err
	}
	return s.udHK[i], nil
}
