package curve

import "gonum.org/v1/gonum/floats"

// findLarger scans a from the tail backward for the bracketing upper index:
// the first (from the right) index i where the local segment is ascending
// and a[i] <= x, or descending and a[i] >= x (the symmetric path, which
// handles curves like Pelton that bend backward in their overspeed
// region). It returns i+1, or 0 if no segment qualifies -- meaning x
// precedes the first sample entirely.
func findLarger(a []float64, x float64) int {
	n := len(a)
	for i := n - 2; i >= 0; i-- {
		ascending := a[i+1] >= a[i]
		if ascending {
			if a[i] <= x {
				return i + 1
			}
		} else {
			if a[i] >= x {
				return i + 1
			}
		}
	}
	return 0
}

// interpolate implements the contract from the objective-function model:
// given an axis column a and a value column e, linearly interpolate e at
// x. If x precedes the first sample (no bracketing segment qualifies),
// the result is 0 -- turbines do not deliver below cut-in, so the low end
// is a deliberate discontinuity rather than an extrapolation. Beyond the
// last sample the same bracket (the last segment) is reused, which
// extrapolates linearly along the last segment's slope rather than
// clamping flat.
func interpolate(a, e []float64, x float64) float64 {
	n := len(a)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return e[0]
	}
	i1 := findLarger(a, x)
	if i1 == 0 {
		return 0
	}
	i0 := i1 - 1
	f0, t0 := a[i0], e[i0]
	f1, t1 := a[i1], e[i1]
	if f1 == f0 {
		return t0
	}
	return t0 + (x-f0)*(t1-t0)/(f1-f0)
}

// monotoneNonDecreasing reports whether column is non-decreasing throughout,
// telling an ascending-only column from one that bends back at the tail.
// Curve validation does not call it: validate checks only the first flow
// step.
func monotoneNonDecreasing(column []float64) bool {
	return floats.Min(diffs(column)) >= 0
}

func diffs(column []float64) []float64 {
	if len(column) < 2 {
		return []float64{0}
	}
	out := make([]float64, len(column)-1)
	for i := 1; i < len(column); i++ {
		out[i-1] = column[i] - column[i-1]
	}
	return out
}
