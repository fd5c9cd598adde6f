// Package curve stores turbine (and generator) efficiency curves and
// provides the linear interpolation the turbine model depends on.
//
// A curve is an ordered sequence of (flow fraction, power fraction,
// efficiency fraction) samples. Curves never mutate once registered; the
// Store is the only thing that grows.
package curve

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Curve is an immutable efficiency curve: three parallel columns sampled at
// the same normalized operating points.
type Curve struct {
	Name string
	Flow []float64 // flow fraction, non-decreasing except for an optional backward bend at the tail
	Pow  []float64 // power fraction, non-decreasing except for an optional backward bend at the tail
	Eff  []float64 // efficiency fraction
}

func (c *Curve) validate() error {
	if len(c.Flow) < 2 || len(c.Pow) < 2 || len(c.Eff) < 2 {
		return fmt.Errorf("curve %q: need at least 2 samples, got flow=%d pow=%d eff=%d",
			c.Name, len(c.Flow), len(c.Pow), len(c.Eff))
	}
	if len(c.Flow) != len(c.Pow) || len(c.Flow) != len(c.Eff) {
		return fmt.Errorf("curve %q: column length mismatch flow=%d pow=%d eff=%d",
			c.Name, len(c.Flow), len(c.Pow), len(c.Eff))
	}
	// Flow/power are non-decreasing over nearly their whole range, but a
	// curve like Pelton's is permitted to bend backward at the very high
	// (overspeed) end -- interpolate handles that case symmetrically, so
	// only the ascending prefix used for cut-in detection is enforced here.
	if c.Flow[1] <= c.Flow[0] {
		return fmt.Errorf("curve %q: flow column must be strictly increasing on its ascending prefix", c.Name)
	}
	return nil
}

// Store is a registry of curves keyed by a stable zero-based ID. It is
// instance-owned (not a package-level global) so that multiple solves in
// the same process never share mutable curve state. Callers build their
// own with NewStore.
type Store struct {
	curves []*Curve
	byName map[string]int
}

// NewStore builds a Store pre-seeded with the six builtin turbine curves.
func NewStore() *Store {
	s := &Store{byName: make(map[string]int)}
	registerBuiltins(s)
	return s
}

// Register adds a new curve to the store and returns its ID. flo/pow may
// bend backward at the high end (Pelton overspeed), which
// EffFromFlowFraction and EffFromPowerFraction handle via a slope-aware
// search. Validation requires equal column lengths of at least 2 and a
// strictly increasing first flow step; the rest of the flo/pow columns is
// not checked for monotonicity.
func (s *Store) Register(name string, flo, pow, eff []float64) (int, error) {
	c := &Curve{Name: name, Flow: append([]float64(nil), flo...), Pow: append([]float64(nil), pow...), Eff: append([]float64(nil), eff...)}
	if err := c.validate(); err != nil {
		return 0, err
	}
	id := len(s.curves)
	s.curves = append(s.curves, c)
	s.byName[name] = id
	logrus.WithFields(logrus.Fields{"curve": name, "id": id, "samples": len(flo)}).Debug("curve registered")
	return id, nil
}

// Find returns the ID of the curve with the given name.
func (s *Store) Find(name string) (int, bool) {
	id, ok := s.byName[name]
	return id, ok
}

// Get returns the curve at id. Callers within this module only ever hold
// IDs handed back by Register/Find, so out-of-range access here indicates
// an internal invariant violation, not user error.
func (s *Store) Get(id int) *Curve {
	if id < 0 || id >= len(s.curves) {
		return nil
	}
	return s.curves[id]
}

// Count returns the number of registered curves, builtins included.
func (s *Store) Count() int {
	return len(s.curves)
}

// EffFromFlowFraction returns the interpolated efficiency at flow fraction x.
func (s *Store) EffFromFlowFraction(id int, x float64) float64 {
	c := s.Get(id)
	if c == nil {
		return 0
	}
	return interpolate(c.Flow, c.Eff, x)
}

// EffFromPowerFraction returns the interpolated efficiency at power fraction x.
func (s *Store) EffFromPowerFraction(id int, x float64) float64 {
	c := s.Get(id)
	if c == nil {
		return 0
	}
	return interpolate(c.Pow, c.Eff, x)
}
