package solver

import "fmt"

// Solve runs the full pipeline described by spec.md §4: Resize sizes the
// grid and (re)acquires buffers, tabulate builds each unit's objective
// column, precompute ranks units into priority order, backward runs the
// DP recursion, and forward reconstructs the per-state dispatch and
// summary rows. Any stage failure sets the sticky fail flag and aborts
// the remaining stages.
func (s *Solver) Solve() error {
	s.FailClear()

	if err := s.Resize(); err != nil {
		return err
	}
	if err := s.tabulate(); err != nil {
		return err
	}
	s.precompute()
	if err := s.backward(); err != nil {
		return err
	}
	if err := s.forward(); err != nil {
		return err
	}
	return nil
}

// Sol returns the grid index dispatched to original unit index u at
// aggregate state sigma.
func (s *Solver) Sol(u, sigma int) (int, error) {
	pos, err := s.posOf(u)
	if err != nil {
		return 0, err
	}
	if sigma < 0 || sigma >= s.grid.T {
		return 0, fmt.Errorf("state index %d out of range [0,%d)", sigma, s.grid.T)
	}
	return s.sol[pos][sigma], nil
}

// P, Q, HK return the dispatched power, flow, and H/K for original unit
// index u at aggregate state sigma.
func (s *Solver) P(u, sigma int) (float64, error) {
	pos, err := s.posOf(u)
	if err != nil {
		return 0, err
	}
	return s.solP[pos][sigma], nil
}

func (s *Solver) Q(u, sigma int) (float64, error) {
	pos, err := s.posOf(u)
	if err != nil {
		return 0, err
	}
	return s.solQ[pos][sigma], nil
}

func (s *Solver) HK(u, sigma int) (float64, error) {
	pos, err := s.posOf(u)
	if err != nil {
		return 0, err
	}
	return s.solHK[pos][sigma], nil
}

// SumA, SumB, AvgHK return the plant-wide summary rows at aggregate
// state sigma: SumA is the primary decision variable's total (power in
// power-solve mode, flow in flow-solve mode), SumB the companion
// variable's total, and AvgHK the mean H/K across active units.
func (s *Solver) SumA(sigma int) (float64, error) {
	if sigma < 0 || sigma >= len(s.sumA) {
		return 0, fmt.Errorf("state index %d out of range [0,%d)", sigma, len(s.sumA))
	}
	return s.sumA[sigma], nil
}

func (s *Solver) SumB(sigma int) (float64, error) {
	if sigma < 0 || sigma >= len(s.sumB) {
		return 0, fmt.Errorf("state index %d out of range [0,%d)", sigma, len(s.sumB))
	}
	return s.sumB[sigma], nil
}

func (s *Solver) AvgHK(sigma int) (float64, error) {
	if sigma < 0 || sigma >= len(s.avgHK) {
		return 0, fmt.Errorf("state index %d out of range [0,%d)", sigma, len(s.avgHK))
	}
	return s.avgHK[sigma], nil
}

// posOf maps an original unit index to its priority position, validating
// the unit index along the way.
func (s *Solver) posOf(u int) (int, error) {
	if _, err := s.unit(u); err != nil {
		return 0, err
	}
	for pos, orig := range s.priorityOrder {
		if orig == u {
			return pos, nil
		}
	}
	return 0, fmt.Errorf("unit index %d not present in priority order (solve not yet run?)", u)
}
