package solver

// backward runs the §4.6 multi-stage backward recursion over priority
// position, from the strongest unit (pos = S-1) down to the weakest
// (pos = 0). gdv/gdc/gda accumulate, for every reachable aggregate state
// sigma, the best attainable (weighted H/K sum, active-unit count,
// companion-variable sum) across positions [pos, S-1]; gdm records the
// local decision (grid index) the winning split assigns to pos itself.
//
// Ties in the value/count ratio favour the smaller local decision, which
// biases the recursion toward leaving a unit off rather than splitting
// capacity across more units than necessary.
//
// Once every position is decided, gdv/gdc are zeroed wherever gdm is 0, so
// a non-choice carries no residual value or count.
func (s *Solver) backward() error {
	S, T := s.grid.S, s.grid.T
	if S == 0 {
		return s.fail("zero stages: no units registered")
	}

	last := S - 1
	uLast := s.priorityOrder[last]
	for sigma := 0; sigma < T; sigma++ {
		hk := s.objHK[uLast][sigma]
		if hk <= tol {
			hk = 0
		}
		s.gdv[last][sigma] = hk
		s.gdm[last][sigma] = sigma
		if hk > tol {
			s.gdc[last][sigma] = 1
		} else {
			s.gdc[last][sigma] = 0
		}
		s.gda[last][sigma] = s.companionValue(uLast, sigma)
	}

	for pos := S - 2; pos >= 0; pos-- {
		u := s.priorityOrder[pos]
		sMax := s.maxop[u]
		nextPos := pos + 1

		for sigma := 0; sigma < T; sigma++ {
			localDec := localDecisionsFor(sigma, sMax, s.Config.CoordB)

			bestRatio := -1.0
			var bestValue, bestCompanion float64
			var bestCount float64
			bestLocal := 0

			for j := 0; j < len(localDec); j++ {
				localIdx := clampIndex(localDec[j], T)
				globalJ := sigma - localIdx
				if globalJ < 0 || globalJ >= T {
					continue
				}
				fLocal := s.objHK[u][localIdx]
				if fLocal <= tol {
					fLocal = 0
				}
				fGlobal := s.gdv[nextPos][globalJ]
				nGlobal := s.gdc[nextPos][globalJ]

				// Liveness suppression: if too few units downstream are
				// still active to make use of this split, force this
				// position off rather than fragment capacity.
				if nGlobal < float64(S-1-pos) && sigma > sMax {
					localIdx = 0
					globalJ = sigma
					if globalJ >= T {
						continue
					}
					fLocal = 0
					fGlobal = s.gdv[nextPos][globalJ]
					nGlobal = s.gdc[nextPos][globalJ]
				}

				localActive := 0.0
				if fLocal > tol {
					localActive = 1
				}
				value := fLocal + fGlobal
				count := localActive + nGlobal
				ratio := value
				if count > 0 {
					ratio = value / count
				}
				if ratio > bestRatio || (ratio == bestRatio && localIdx < bestLocal) {
					bestRatio = ratio
					bestValue = value
					bestCount = count
					bestLocal = localIdx
					bestCompanion = s.companionValue(u, localIdx) + s.gda[nextPos][globalJ]
				}
			}

			s.gdv[pos][sigma] = bestValue
			s.gdc[pos][sigma] = bestCount
			s.gdm[pos][sigma] = bestLocal
			s.gda[pos][sigma] = bestCompanion
		}

		// If the winning split leaves this position off, its row must
		// read exactly as the suffix starting at the next position: no
		// residual contribution leaks in from a near-tol objective value.
		for sigma := 0; sigma < T; sigma++ {
			if s.gdm[pos][sigma] == 0 && sigma < T {
				s.gdv[pos][sigma] = s.gdv[nextPos][sigma]
				s.gdc[pos][sigma] = s.gdc[nextPos][sigma]
				s.gda[pos][sigma] = s.gda[nextPos][sigma]
			}
		}
	}

	for pos := 0; pos < S; pos++ {
		for sigma := 0; sigma < T; sigma++ {
			if s.gdm[pos][sigma] == 0 {
				s.gdv[pos][sigma] = 0
				s.gdc[pos][sigma] = 0
			}
		}
	}
	return nil
}

// localDecisionsFor builds, for a given aggregate state sigma, the
// candidate local decisions to search over at this position. On-cam
// (sigma within the unit's own max) the search is the trivial 0..sigma
// range; off-cam it wraps modulo the [coordB*sMax, sMax] band so the
// search stays confined to the unit's efficient operating region instead
// of re-trying every low-efficiency point.
func localDecisionsFor(sigma, sMax int, coordB float64) []int {
	out := make([]int, sigma+1)
	if sigma <= sMax {
		for j := range out {
			out[j] = j
		}
		return out
	}
	lo := int(coordB * float64(sMax))
	if lo < 0 {
		lo = 0
	}
	band := sMax - lo + 1
	if band < 1 {
		band = 1
	}
	for j := range out {
		v := lo + (j % band)
		if v > sMax {
			v = sMax
		}
		out[j] = v
	}
	return out
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// companionValue returns the secondary decision variable's tabulated
// value for unit u at grid index j: flow in power-solve mode, power in
// flow-solve mode.
func (s *Solver) companionValue(u, j int) float64 {
	j = clampIndex(j, s.grid.T)
	if s.Config.Mode == ForFlow {
		return s.objPow[u][j]
	}
	return s.objFlow[u][j]
}
