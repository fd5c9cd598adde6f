package solver

import (
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/orthopteroid/hydrodp/internal/numeric"
)

// forward runs the §4.7 forward-pass reconstruction: for every achievable
// aggregate target sigma, it replays the gdm chain built by backward,
// position by position in priority order, decoding each stage's physical
// power/flow/H-K values and the plant-wide sumA/sumB/avgHK summary row.
//
// The replay is a direct O(S) walk, not a re-search: gdm already encodes
// the optimal split for every (position, remaining-demand) pair, so
// decoding it is just following the chain down to position S-1. Every
// sigma only reads the read-only gdm/objPow/objFlow tables and writes
// its own column of sol/solP/solQ/solHK/sumA/sumB/avgHK, so sigmas are
// safe to run concurrently.
func (s *Solver) forward() error {
	S, T := s.grid.S, s.grid.T

	run := func(sigma int) {
		remaining := sigma
		var sumPower, sumFlow, sumHK float64
		var activeCount float64
		inconsistent := false

		for pos := 0; pos < S; pos++ {
			u := s.priorityOrder[pos]
			localIdx := clampIndex(s.gdm[pos][remaining], T)

			power := s.objPow[u][localIdx]
			flow := s.objFlow[u][localIdx]
			hk := numeric.Div(power, flow)

			s.sol[pos][sigma] = localIdx
			s.solP[pos][sigma] = power
			s.solQ[pos][sigma] = flow
			s.solHK[pos][sigma] = hk

			sumPower += power
			sumFlow += flow
			if power > tol || flow > tol {
				activeCount++
				sumHK += hk
			}

			remaining -= localIdx
			if remaining < 0 {
				remaining = 0
			}
		}

		if remaining != 0 {
			inconsistent = true
		}

		if inconsistent {
			logrus.WithField("sigma", sigma).Warn("forward pass: decision chain left undistributed demand, blanking row")
			for pos := 0; pos < S; pos++ {
				s.sol[pos][sigma] = 0
				s.solP[pos][sigma] = 0
				s.solQ[pos][sigma] = 0
				s.solHK[pos][sigma] = 0
			}
			s.sumA[sigma] = 0
			s.sumB[sigma] = 0
			s.avgHK[sigma] = 0
			return
		}

		var primarySum, companionSum float64
		if s.Config.Mode == ForFlow {
			primarySum, companionSum = sumFlow, sumPower
		} else {
			primarySum, companionSum = sumPower, sumFlow
		}
		s.sumA[sigma] = primarySum
		s.sumB[sigma] = companionSum
		if activeCount > 0 {
			s.avgHK[sigma] = sumHK / activeCount
		} else {
			s.avgHK[sigma] = 0
		}
	}

	if s.Parallel {
		g := new(errgroup.Group)
		for sigma := 0; sigma < T; sigma++ {
			sigma := sigma
			g.Go(func() error {
				run(sigma)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for sigma := 0; sigma < T; sigma++ {
			run(sigma)
		}
	}
	return nil
}
