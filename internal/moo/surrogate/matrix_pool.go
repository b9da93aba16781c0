package surrogate

import "gonum.org/v1/gonum/mat"

// matrixPool reuses matrix allocations across surrogate refits. Refits
// happen once per optimization step, with the same shapes dominating,
// so a small free list is enough.
type matrixPool struct {
	sym []*mat.SymDense
	vec []*mat.VecDense
}

func newMatrixPool() *matrixPool {
	return &matrixPool{
		sym: make([]*mat.SymDense, 0, 8),
		vec: make([]*mat.VecDense, 0, 8),
	}
}

func (p *matrixPool) getSym(n int) *mat.SymDense {
	for i := len(p.sym) - 1; i >= 0; i-- {
		if m := p.sym[i]; m.SymmetricDim() == n {
			p.sym = append(p.sym[:i], p.sym[i+1:]...)
			m.Zero()
			return m
		}
	}
	return mat.NewSymDense(n, nil)
}

func (p *matrixPool) putSym(m *mat.SymDense) {
	p.sym = append(p.sym, m)
}

func (p *matrixPool) getVec(n int) *mat.VecDense {
	for i := len(p.vec) - 1; i >= 0; i-- {
		if v := p.vec[i]; v.Len() == n {
			p.vec = append(p.vec[:i], p.vec[i+1:]...)
			v.Zero()
			return v
		}
	}
	return mat.NewVecDense(n, nil)
}

func (p *matrixPool) putVec(v *mat.VecDense) {
	p.vec = append(p.vec, v)
}
