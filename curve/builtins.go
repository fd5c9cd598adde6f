package curve

// registerBuiltins seeds the store with the six factory turbine curves.
// Sample shapes are representative small-hydro efficiency curves: a single
// efficiency hump for reaction turbines (Francis, Kaplan, FixedPropeller,
// CrossFlow) and a gentle backward bend in the overspeed tail for the two
// impulse turbines (Pelton, Turgo), which is what exercises the
// slope-aware search in interpolate.
func registerBuiltins(s *Store) {
	must := func(name string, flo, pow, eff []float64) {
		if _, err := s.Register(name, flo, pow, eff); err != nil {
			panic("builtin curve " + name + " is malformed: " + err.Error())
		}
	}

	must("CrossFlow",
		[]float64{0.00, 0.10, 0.25, 0.40, 0.55, 0.70, 0.85, 1.00},
		[]float64{0.00, 0.09, 0.23, 0.39, 0.54, 0.69, 0.85, 1.00},
		[]float64{0.00, 0.55, 0.72, 0.78, 0.80, 0.79, 0.76, 0.70})

	must("FixedPropeller",
		[]float64{0.00, 0.15, 0.30, 0.50, 0.70, 0.85, 1.00},
		[]float64{0.00, 0.14, 0.29, 0.49, 0.70, 0.86, 1.00},
		[]float64{0.00, 0.60, 0.80, 0.90, 0.89, 0.82, 0.70})

	must("Francis",
		[]float64{0.00, 0.20, 0.35, 0.50, 0.65, 0.80, 0.90, 1.00},
		[]float64{0.00, 0.19, 0.34, 0.50, 0.66, 0.82, 0.92, 1.00},
		[]float64{0.00, 0.70, 0.85, 0.92, 0.94, 0.93, 0.90, 0.85})

	must("Kaplan",
		[]float64{0.00, 0.15, 0.30, 0.45, 0.60, 0.75, 0.90, 1.00},
		[]float64{0.00, 0.14, 0.29, 0.44, 0.60, 0.76, 0.91, 1.00},
		[]float64{0.00, 0.65, 0.85, 0.91, 0.93, 0.93, 0.91, 0.88})

	// Pelton and Turgo are impulse turbines whose runaway (overspeed) region
	// bends the flow axis back slightly past full gate -- the curve's last
	// sample sits at a lower flow fraction than its second-to-last, which is
	// what exercises interpolate's descending-leg search.
	must("Pelton",
		[]float64{0.00, 0.10, 0.25, 0.40, 0.55, 0.70, 0.85, 1.00, 0.97},
		[]float64{0.00, 0.11, 0.27, 0.42, 0.57, 0.72, 0.86, 1.00, 0.94},
		[]float64{0.00, 0.60, 0.80, 0.88, 0.91, 0.90, 0.88, 0.85, 0.80})

	must("Turgo",
		[]float64{0.00, 0.10, 0.25, 0.40, 0.55, 0.70, 0.85, 1.00, 0.98},
		[]float64{0.00, 0.11, 0.27, 0.42, 0.56, 0.71, 0.86, 1.00, 0.95},
		[]float64{0.00, 0.58, 0.78, 0.86, 0.89, 0.89, 0.87, 0.83, 0.79})
}
