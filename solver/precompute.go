package solver

import (
	"sort"

	"github.com/sirupsen/logrus"
)

// precompute builds, per spec.md §4.5, for every original unit index:
//   - opt[s]: the index maximising H/K[s,.]
//   - maxop[s]: the largest index with H/K[s,.] > tol
//   - nearopt[s]: the smallest j <= opt[s] with H/K[s,j] >= a * H/K[s,opt[s]]
//   - metric[s]: the integrated column sum(H/K[s,.])
//
// and then derives priorityOrder, a stable sort of unit indices ascending
// by metric (weakest first), which every DP/forward-pass table is indexed
// by from this point on.
func (s *Solver) precompute() {
	S, T := s.grid.S, s.grid.T
	s.opt = make([]int, S)
	s.maxop = make([]int, S)
	s.nearopt = make([]int, S)
	s.metric = make([]float64, S)

	for u := 0; u < S; u++ {
		row := s.objHK[u]
		optIdx, maxVal := 0, row[0]
		maxopIdx := -1
		var sum float64
		for j := 0; j < T; j++ {
			v := row[j]
			sum += v
			if v > maxVal {
				maxVal = v
				optIdx = j
			}
			if v > tol {
				maxopIdx = j
			}
		}
		if maxopIdx < 0 {
			maxopIdx = 0
		}
		s.opt[u] = optIdx
		s.maxop[u] = maxopIdx
		s.metric[u] = sum

		threshold := s.Config.CoordA * maxVal
		nearIdx := optIdx
		for j := 0; j <= optIdx; j++ {
			if row[j] >= threshold {
				nearIdx = j
				break
			}
		}
		s.nearopt[u] = nearIdx

		sanityCheckCurveShape(s, u, optIdx, maxopIdx)
	}

	order := make([]int, S)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return s.metric[order[i]] < s.metric[order[j]]
	})
	s.priorityOrder = order
}

// sanityCheckCurveShape implements the §4.5 diagnostic: if the unit's
// curve bends downward at its last two efficiency samples, opt must
// precede maxop; if flat or increasing, opt must equal maxop. Violations
// are logged but never alter the solve.
func sanityCheckCurveShape(s *Solver, unitIdx, optIdx, maxopIdx int) {
	u := s.Units[unitIdx]
	c := s.Curves.Get(u.CurveID)
	if c == nil || len(c.Eff) < 2 {
		return
	}
	n := len(c.Eff)
	decreasing := c.Eff[n-1] < c.Eff[n-2]

	violated := false
	if decreasing {
		if !(optIdx < maxopIdx) {
			violated = true
		}
	} else {
		if optIdx != maxopIdx {
			violated = true
		}
	}
	if violated {
		logrus.WithFields(logrus.Fields{
			"unit": u.Name, "opt": optIdx, "maxop": maxopIdx, "curveDecreasing": decreasing,
		}).Debug("condition on unit: opt/maxop ordering does not match curve shape")
	}
}
