package solver

import "github.com/orthopteroid/hydrodp/turbine"

// SolveMode selects the optimisation objective: both modes maximise H/K,
// differing only in which decision variable (power or flow) is the
// primary axis of the problem grid.
type SolveMode int

const (
	ModeUndefined SolveMode = iota
	ForPower                // maximise H/K per given power
	ForFlow                  // maximise H/K per given flow
)

// WeightPolicy is the post-multiplicative weighting applied to a stage's
// objective column before it feeds the DP.
type WeightPolicy int

const (
	WeightDefault WeightPolicy = iota // keep the configured unit weight
	WeightEqual                       // 1.0
	WeightMaxPower                    // P_max
	WeightMaxFlow                     // Q_max
	WeightMinPower                    // total - P_max
	WeightMinFlow                     // total - Q_max
)

// Config holds the global, process-scoped knobs spec.md assigns to a
// single plant solve: unit system, loss coefficient, coordination
// factors, current head, and optimisation mode.
type Config struct {
	Units turbine.Units

	LossCoef float64 // L_p, plant loss coefficient

	CoordA float64 // a, near-optimum tolerance, default 0.95
	CoordB float64 // b, minimum on-cam fraction, default 0.6

	Head float64 // H, current plant head

	Mode SolveMode

	WeightPolicy   WeightPolicy
	WeightRelative bool

	UserSteps int // T_u, requested state count (>= 5)

	MinState float64
	MaxState float64
}

// DefaultConfig returns the spec's default coordination factors and an
// otherwise empty configuration; callers must still set Units, Head and
// Mode before a solve.
func DefaultConfig() Config {
	return Config{
		CoordA:    0.95,
		CoordB:    0.6,
		UserSteps: 5,
	}
}
