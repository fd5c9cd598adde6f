// cmd/scenario.go
package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/orthopteroid/hydrodp/curve"
	"github.com/orthopteroid/hydrodp/solver"
	"github.com/orthopteroid/hydrodp/turbine"
)

// CurveScenario describes one user-registered efficiency curve.
type CurveScenario struct {
	Name string    `yaml:"name"`
	Flow []float64 `yaml:"flow"`
	Pow  []float64 `yaml:"pow"`
	Eff  []float64 `yaml:"eff"`
}

// UnitScenario describes one turbine-generator registration.
type UnitScenario struct {
	Name         string   `yaml:"name"`
	Curve        string   `yaml:"curve"`
	RatedHead    float64  `yaml:"rated_head"`
	RatedFlow    float64  `yaml:"rated_flow"`
	RatedPower   float64  `yaml:"rated_power"`
	Weight       *float64 `yaml:"weight,omitempty"`
	HeadLossCoef *float64 `yaml:"head_loss_coef,omitempty"`
	GenCapFactor *float64 `yaml:"gen_cap_factor,omitempty"`
	GenEff       *float64 `yaml:"gen_eff,omitempty"`
	GenCurve     string   `yaml:"gen_curve,omitempty"`
}

// Scenario is the top-level YAML document consumed by `hydrodp solve`.
type Scenario struct {
	Units     string  `yaml:"units"` // "imperial" or "metric"
	Head      float64 `yaml:"head"`
	Mode      string  `yaml:"mode"` // "power" or "flow"
	LossCoef  float64 `yaml:"loss_coef"`
	CoordA    float64 `yaml:"coordination_a"`
	CoordB    float64 `yaml:"coordination_b"`
	UserSteps int     `yaml:"user_steps"`

	WeightPolicy   string `yaml:"weight_policy"`
	WeightRelative bool   `yaml:"weight_relative"`

	Curves []CurveScenario `yaml:"curves"`
	Plant  []UnitScenario  `yaml:"units_list"`

	Dispatch *float64 `yaml:"dispatch,omitempty"`
}

// LoadScenario reads and parses a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario %q: %w", path, err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parsing scenario %q: %w", path, err)
	}
	return &sc, nil
}

// Build realizes a Scenario into a curve Store and a configured Solver,
// ready for Solve().
func (sc *Scenario) Build() (*curve.Store, *solver.Solver, error) {
	store := curve.NewStore()
	for _, c := range sc.Curves {
		if _, err := store.Register(c.Name, c.Flow, c.Pow, c.Eff); err != nil {
			return nil, nil, fmt.Errorf("registering curve %q: %w", c.Name, err)
		}
	}

	s := solver.New(store)
	switch sc.Units {
	case "imperial":
		s.SetUnits(turbine.Imperial)
	case "metric":
		s.SetUnits(turbine.Metric)
	default:
		return nil, nil, fmt.Errorf("scenario: unknown unit system %q", sc.Units)
	}
	s.SetHead(sc.Head)
	s.SetLossCoef(sc.LossCoef)
	if sc.CoordA > 0 {
		s.SetCoordinationA(sc.CoordA)
	}
	if sc.CoordB > 0 {
		s.SetCoordinationB(sc.CoordB)
	}
	if sc.UserSteps > 0 {
		s.SetUserSteps(sc.UserSteps)
	}

	switch sc.Mode {
	case "power":
		s.SetSolveMode(solver.ForPower)
	case "flow":
		s.SetSolveMode(solver.ForFlow)
	default:
		return nil, nil, fmt.Errorf("scenario: unknown solve mode %q", sc.Mode)
	}

	for _, u := range sc.Plant {
		curveID, ok := store.Find(u.Curve)
		if !ok {
			return nil, nil, fmt.Errorf("unit %q: unknown curve %q", u.Name, u.Curve)
		}
		idx := s.RegisterTurbine(u.Name, curveID, u.RatedHead, u.RatedFlow, u.RatedPower)
		if u.Weight != nil {
			if err := s.SetWeight(idx, *u.Weight); err != nil {
				return nil, nil, err
			}
		}
		if u.HeadLossCoef != nil {
			if err := s.SetHeadloss(idx, *u.HeadLossCoef); err != nil {
				return nil, nil, err
			}
		}
		if u.GenCapFactor != nil {
			if err := s.SetGenCap(idx, *u.GenCapFactor); err != nil {
				return nil, nil, err
			}
		}
		if u.GenCurve != "" {
			genCurveID, ok := store.Find(u.GenCurve)
			if !ok {
				return nil, nil, fmt.Errorf("unit %q: unknown generator curve %q", u.Name, u.GenCurve)
			}
			if err := s.SetGenCurve(idx, genCurveID); err != nil {
				return nil, nil, err
			}
		} else if u.GenEff != nil {
			if err := s.SetGenEff(idx, *u.GenEff); err != nil {
				return nil, nil, err
			}
		}
	}

	if sc.WeightPolicy != "" {
		var policy solver.WeightPolicy
		switch sc.WeightPolicy {
		case "default":
			policy = solver.WeightDefault
		case "equal":
			policy = solver.WeightEqual
		case "maxpower":
			policy = solver.WeightMaxPower
		case "maxflow":
			policy = solver.WeightMaxFlow
		case "minpower":
			policy = solver.WeightMinPower
		case "minflow":
			policy = solver.WeightMinFlow
		default:
			return nil, nil, fmt.Errorf("scenario: unknown weight policy %q", sc.WeightPolicy)
		}
		s.SetWeightPolicy(policy, sc.WeightRelative)
	}
	s.AssignWeights()

	return store, s, nil
}
