package solver

import "github.com/orthopteroid/hydrodp/turbine"

// assignWeights applies the configured weight policy to every unit,
// per spec.md §4.4. The resulting weight multiplies the unit's H/K column
// during tabulation; every policy other than DEFAULT replaces the unit's
// configured Weight rather than scaling it. RELATIVE divides the result by the total the policy itself is drawn
// from (power total for MAXPOWER/MINPOWER, flow total for MAXFLOW/
// MINFLOW) -- not by the solve mode's decision variable, which need not
// match the policy's basis. A unit with a zero head-adjusted max always
// gets weight 0, regardless of policy.
func assignWeights(s *Solver) {
	policy := s.Config.WeightPolicy
	relative := s.Config.WeightRelative

	var totalPower, totalFlow float64
	for _, u := range s.Units {
		totalPower += u.RatedPower
		totalFlow += u.RatedFlow
	}

	for _, u := range s.Units {
		w := weightFor(policy, u, totalPower, totalFlow)
		if relative {
			w = numericDiv(w, relativeTotal(policy, totalPower, totalFlow))
		}
		if s.unitMax(u) <= 0 {
			w = 0
		}
		u.Weight = w
	}
}

// relativeTotal returns the divisor RELATIVE normalisation uses for a
// given policy: the power total for power-based policies, the flow
// total for flow-based ones, and the power total otherwise.
func relativeTotal(policy WeightPolicy, totalPower, totalFlow float64) float64 {
	switch policy {
	case WeightMaxFlow, WeightMinFlow:
		return totalFlow
	default:
		return totalPower
	}
}

func weightFor(policy WeightPolicy, u *turbine.Unit, totalPower, totalFlow float64) float64 {
	switch policy {
	case WeightEqual:
		return 1.0
	case WeightMaxPower:
		return u.RatedPower
	case WeightMaxFlow:
		return u.RatedFlow
	case WeightMinPower:
		return totalPower - u.RatedPower
	case WeightMinFlow:
		return totalFlow - u.RatedFlow
	default: // WeightDefault
		return u.Weight
	}
}

func numericDiv(n, d float64) float64 {
	if d == 0 {
		return 0
	}
	return n / d
}
