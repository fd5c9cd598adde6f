package solver

// bufPool is the Go analogue of the original engine's hand-rolled slab
// allocator: a set of retained buffers, keyed by the grid size they were
// cut for, zeroed on reacquire. Unlike sync.Pool it never discards a
// buffer behind GC's back and it always zeroes before handing a buffer
// back out -- the zero value is load-bearing throughout this package
// ("no solution" and "zero H/K" are the same bit pattern by design).
type bufPool struct {
	s, t int

	objHK   [][]float64
	objPow  [][]float64
	objFlow [][]float64

	gdv [][]float64
	gdc [][]float64
	gdm [][]int
	gda [][]float64

	sol   [][]int
	solP  [][]float64
	solQ  [][]float64
	solHK [][]float64
}

func newBufPool(s, t int) *bufPool {
	p := &bufPool{s: s, t: t}
	p.objHK = alloc2DFloat(s, t)
	p.objPow = alloc2DFloat(s, t)
	p.objFlow = alloc2DFloat(s, t)
	p.gdv = alloc2DFloat(s, t)
	p.gdc = alloc2DFloat(s, t)
	p.gdm = alloc2DInt(s, t)
	p.gda = alloc2DFloat(s, t)
	p.sol = alloc2DInt(s, t)
	p.solP = alloc2DFloat(s, t)
	p.solQ = alloc2DFloat(s, t)
	p.solHK = alloc2DFloat(s, t)
	return p
}

func (p *bufPool) zero() {
	zero2DFloat(p.objHK)
	zero2DFloat(p.objPow)
	zero2DFloat(p.objFlow)
	zero2DFloat(p.gdv)
	zero2DFloat(p.gdc)
	zero2DInt(p.gdm)
	zero2DFloat(p.gda)
	zero2DInt(p.sol)
	zero2DFloat(p.solP)
	zero2DFloat(p.solQ)
	zero2DFloat(p.solHK)
}

func alloc2DFloat(s, t int) [][]float64 {
	out := make([][]float64, s)
	for i := range out {
		out[i] = make([]float64, t)
	}
	return out
}

func alloc2DInt(s, t int) [][]int {
	out := make([][]int, s)
	for i := range out {
		out[i] = make([]int, t)
	}
	return out
}

func zero2DFloat(m [][]float64) {
	for _, row := range m {
		for i := range row {
			row[i] = 0
		}
	}
}

func zero2DInt(m [][]int) {
	for _, row := range m {
		for i := range row {
			row[i] = 0
		}
	}
}

// acquireBuffers returns a [s x t] buffer set, reusing the retained pool
// when cache mode is on and the grid size matches; otherwise it allocates
// fresh buffers and, in CacheOn mode, retains them for next time.
func (s *Solver) acquireBuffers(S, T int) {
	if s.cacheMode == CacheOn && s.pool != nil && s.pool.s == S && s.pool.t == T {
		s.pool.zero()
	} else {
		s.pool = newBufPool(S, T)
	}
	p := s.pool
	s.objHK, s.objPow, s.objFlow = p.objHK, p.objPow, p.objFlow
	s.gdv, s.gdc, s.gdm, s.gda = p.gdv, p.gdc, p.gdm, p.gda
	s.sol, s.solP, s.solQ, s.solHK = p.sol, p.solP, p.solQ, p.solHK
	if s.cacheMode != CacheOn {
		s.pool = nil
	}
}
