package solver

import (
	"math"

	"github.com/orthopteroid/hydrodp/turbine"
)

// GridReport records the step-size search's diagnostics: the candidate
// totals/maxima/minima (rounded to 2 significant figures) and whatever
// adjustment the search made to the user's requested step count.
type GridReport struct {
	RequestedSteps int
	ResolvedSteps  int
	Delta          float64
	DeltaComp      float64

	TotalHeadAdjusted float64
	MaxHeadAdjusted   float64
	MinMaxHeadAdjusted float64

	TotalCapScaled float64
	TotalFaceplate float64
}

// round2sig rounds v to 2 significant figures, matching the problem-sizer's
// rounding of its candidate totals/maxima before the step-size search.
func round2sig(v float64) float64 {
	if v == 0 {
		return 0
	}
	neg := v < 0
	if neg {
		v = -v
	}
	mag := math.Pow(10, math.Floor(math.Log10(v))-1)
	r := math.Round(v/mag) * mag
	if neg {
		return -r
	}
	return r
}

func fracPart(v float64) float64 {
	return v - math.Floor(v)
}

// unitMax returns the head-adjusted, capacity-scaled max of the primary
// decision variable for unit u at the current head/mode.
func (s *Solver) unitMax(u *turbine.Unit) float64 {
	if s.Config.Mode == ForFlow {
		return u.MaxFlowAt(s.Config.Head) * u.GenCapFactor
	}
	return u.MaxPowerAt(s.Config.Head) * u.GenCapFactor
}

func (s *Solver) unitMaxCompanion(u *turbine.Unit) float64 {
	if s.Config.Mode == ForFlow {
		return u.MaxPowerAt(s.Config.Head) * u.GenCapFactor
	}
	return u.MaxFlowAt(s.Config.Head) * u.GenCapFactor
}

// sizeProblem implements spec.md §4.3: it picks the state count T and step
// size Delta (and the companion step Delta') from the user's requested
// step count and the current unit set.
func (s *Solver) sizeProblem() (Grid, GridReport, error) {
	if len(s.Units) == 0 {
		return Grid{}, GridReport{}, s.fail("zero stages: no units registered")
	}
	if s.Config.Mode == ModeUndefined {
		return Grid{}, GridReport{}, s.fail("solve mode not specified")
	}
	if s.Config.Head <= 0 {
		return Grid{}, GridReport{}, s.fail("zero or negative head")
	}

	var totalHeadAdj, maxHeadAdj, minMaxHeadAdj float64
	var totalCapScaled, totalFaceplate, totalCompHeadAdj float64
	minMaxHeadAdj = math.Inf(1)

	for _, u := range s.Units {
		m := s.unitMax(u)
		totalHeadAdj += m
		if m > maxHeadAdj {
			maxHeadAdj = m
		}
		if m < minMaxHeadAdj {
			minMaxHeadAdj = m
		}
		totalCompHeadAdj += s.unitMaxCompanion(u)

		if s.Config.Mode == ForFlow {
			totalCapScaled += u.RatedFlow * u.GenCapFactor
			totalFaceplate += u.RatedFlow
		} else {
			totalCapScaled += u.RatedPower * u.GenCapFactor
			totalFaceplate += u.RatedPower
		}
	}
	if math.IsInf(minMaxHeadAdj, 1) {
		minMaxHeadAdj = 0
	}

	total := round2sig(totalHeadAdj)
	max := round2sig(maxHeadAdj)
	minmax := round2sig(minMaxHeadAdj)

	userSteps := s.Config.UserSteps
	if userSteps < 5 {
		userSteps = 5
	}
	if max <= 0 {
		return Grid{}, GridReport{}, s.fail("infeasible problem: zero objective function")
	}

	tNonZero := userSteps - 1
	if tNonZero < 1 {
		tNonZero = 1
	}

	bestDelta := max / float64(tNonZero)
	bestScore := math.Inf(1)

	for tNonZero <= 200 {
		delta := max / float64(tNonZero)
		if delta <= 10 && tNonZero > userSteps-1 {
			break
		}
		fTotal := fracPart(total / delta)
		fMax := fracPart(max / delta)
		fMinMax := fracPart(minmax / delta)
		score := fTotal*fTotal + fMax*fMax + fMinMax*fMinMax
		if score < bestScore {
			bestScore = score
			bestDelta = delta
		}
		if math.Abs(fTotal-fMax) <= 1e-1 {
			break
		}
		tNonZero++
	}

	delta := bestDelta
	T := int(math.Round(total/delta)) + 1
	if T < 1 {
		T = 1
	}

	deltaComp := 0.0
	if T > 1 {
		deltaComp = round2sig(totalCompHeadAdj) / float64(T-1)
	}

	grid := Grid{S: len(s.Units), T: T, Delta: delta, DeltaComp: deltaComp}
	report := GridReport{
		RequestedSteps:     s.Config.UserSteps,
		ResolvedSteps:      T,
		Delta:              delta,
		DeltaComp:          deltaComp,
		TotalHeadAdjusted:  total,
		MaxHeadAdjusted:    max,
		MinMaxHeadAdjusted: minmax,
		TotalCapScaled:     round2sig(totalCapScaled),
		TotalFaceplate:     round2sig(totalFaceplate),
	}
	return grid, report, nil
}

// Resize runs the problem-sizing heuristic and allocates (or reacquires)
// the objective/DP/forward-pass buffers for the resulting grid.
func (s *Solver) Resize() error {
	s.FailClear()
	grid, report, err := s.sizeProblem()
	if err != nil {
		return err
	}
	s.grid = grid
	s.gridReport = report
	s.acquireBuffers(grid.S, grid.T)
	s.sumA = make([]float64, grid.T)
	s.sumB = make([]float64, grid.T)
	s.avgHK = make([]float64, grid.T)
	s.udP = make([]float64, grid.S)
	s.udQ = make([]float64, grid.S)
	s.udHK = make([]float64, grid.S)
	return nil
}
