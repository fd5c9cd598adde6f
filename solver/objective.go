package solver

import (
	"golang.org/x/sync/errgroup"

	"github.com/orthopteroid/hydrodp/internal/numeric"
)

// tabulate builds the per-stage objective table H/K[s,j] for every unit,
// per spec.md §4.4. Stages whose weight is at or below tol get an
// all-zero column (effectively disabled).
func (s *Solver) tabulate() error {
	conv := s.Config.Units.ConvFactor()
	if conv == 0 {
		return s.fail("unspecified unit system")
	}

	run := func(idx int) {
		u := s.Units[idx]
		row, powRow, flowRow := s.objHK[idx], s.objPow[idx], s.objFlow[idx]
		if u.Weight <= tol {
			return
		}
		max := s.unitMax(u)
		if max <= 0 {
			return
		}
		delta := s.grid.Delta
		n := s.grid.T
		for j := 0; j < n; j++ {
			decision := float64(j) * delta
			if decision > max {
				break
			}
			var power, flow float64
			if s.Config.Mode == ForFlow {
				flow = decision
				power = u.Power(s.Curves, s.Config.Head, flow, s.Config.LossCoef, conv)
			} else {
				power = decision
				flow = u.Discharge(s.Curves, s.Config.Head, power, s.Config.LossCoef, conv)
			}
			hk := numeric.Div(power, flow)
			powRow[j] = power
			flowRow[j] = flow
			row[j] = hk * u.Weight
		}
	}

	if s.Parallel {
		g := new(errgroup.Group)
		for idx := range s.Units {
			idx := idx
			g.Go(func() error {
				run(idx)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for idx := range s.Units {
			run(idx)
		}
	}
	return nil
}
