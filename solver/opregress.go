package solver

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// OPSetCapacities configures the capacity fractions (each in [0,1], of
// the head-adjusted total decision-variable capacity Resize computes)
// at which operating-point regression tracks avgHK against the
// dependent variable set by OPSetDependent. Each call resets any
// regression history accumulated so far.
func (s *Solver) OPSetCapacities(caps []float64) {
	s.opCaps = append([]float64(nil), caps...)
	n := len(caps)
	s.opHistD = make([][]float64, n)
	s.opHistHK = make([][]float64, n)
	s.opM = make([]float64, n)
	s.opB = make([]float64, n)
}

// OPSetDependent records the dependent variable (typically head) for the
// solve about to be, or just, regressed.
func (s *Solver) OPSetDependent(d float64) { s.opDependent = d }

// OPRegress implements §4.9: for every configured capacity, it samples
// the current solve's avgHK at that demand level, appends (dependent,
// avgHK) to that capacity's rolling two-point history, and refits the
// line. With a single point the line is flat through it (m=0); with two
// points whose dependent or avgHK values are within tolerance of each
// other, the fit is also flattened rather than amplifying near-zero
// differences into a noisy slope.
func (s *Solver) OPRegress() error {
	if len(s.opCaps) == 0 {
		return s.fail("operating-point regression requested with no capacities configured")
	}
	if s.grid.T == 0 {
		return s.fail("operating-point regression requested before a solve")
	}
	for idx, frac := range s.opCaps {
		demand := frac * s.gridReport.TotalHeadAdjusted
		hk := s.avgHKAt(demand)
		s.opHistD[idx] = appendCapped(s.opHistD[idx], s.opDependent, 2)
		s.opHistHK[idx] = appendCapped(s.opHistHK[idx], hk, 2)
		m, b := regressPair(s.opHistD[idx], s.opHistHK[idx])
		s.opM[idx] = m
		s.opB[idx] = b
	}
	return nil
}

func appendCapped(hist []float64, v float64, max int) []float64 {
	hist = append(hist, v)
	if len(hist) > max {
		hist = hist[len(hist)-max:]
	}
	return hist
}

// avgHKAt linearly interpolates the forward pass's avgHK row at an
// arbitrary demand level, the same way SetDispatch locates sumA.
func (s *Solver) avgHKAt(demand float64) float64 {
	lo, hi := s.usableSpan(demand)
	if lo == hi {
		return s.avgHK[lo]
	}
	frac := 0.0
	if s.sumA[hi] != s.sumA[lo] {
		frac = (demand - s.sumA[lo]) / (s.sumA[hi] - s.sumA[lo])
	}
	return lerp(s.avgHK[lo], s.avgHK[hi], frac)
}

func regressPair(xs, ys []float64) (m, b float64) {
	switch len(xs) {
	case 0:
		return 0, 0
	case 1:
		return 0, ys[0]
	default:
		dx := xs[len(xs)-1] - xs[len(xs)-2]
		dy := ys[len(ys)-1] - ys[len(ys)-2]
		if math.Abs(dx) < tol || math.Abs(dy) < tol {
			return 0, ys[len(ys)-1]
		}
		alpha, beta := stat.LinearRegression(xs, ys, nil, false)
		return beta, alpha
	}
}

// OPCoefM and OPCoefB return the fitted slope and intercept for the
// capacity at index i.
func (s *Solver) OPCoefM(i int) (float64, error) {
	if i < 0 || i >= len(s.opM) {
		return 0, fmt.Errorf("operating-point capacity index %d out of range [0,%d)", i, len(s.opM))
	}
	return s.opM[i], nil
}

func (s *Solver) OPCoefB(i int) (float64, error) {
	if i < 0 || i >= len(s.opB) {
		return 0, fmt.Errorf("operating-point capacity index %d out of range [0,%d)", i, len(s.opB))
	}
	return s.opB[i], nil
}
