// Project: Bayesian Estimation of VAR Models with Stochastic Volatility
// A Gibbs sampler with Minnesota, SSVS, and Horseshoe shrinkage priors

package main

import (
	"gonum.org/v1/gonum/mat"
)

// Small dense linear-algebra helpers shared by the prior builders, the
// regression sampler and the random-matrix services.

// vectorize stacks the columns of m into one vector (column-major), so the
// coefficients of equation j occupy one contiguous block.
func vectorize(m mat.Matrix) *mat.VecDense {
	r, c := m.Dims()
	v := mat.NewVecDense(r*c, nil)
	for j := 0; j < c; j++ {
		for i := 0; i < r; i++ {
			v.SetVec(j*r+i, m.At(i, j))
		}
	}
	return v
}

// unvectorize is the inverse of vectorize: it reshapes v into a rows x cols
// matrix column by column.
func unvectorize(v *mat.VecDense, rows, cols int) *mat.Dense {
	m := mat.NewDense(rows, cols, nil)
	for j := 0; j < cols; j++ {
		for i := 0; i < rows; i++ {
			m.Set(i, j, v.AtVec(j*rows+i))
		}
	}
	return m
}

// kronecker computes the Kronecker product a (x) b.
func kronecker(a, b mat.Matrix) *mat.Dense {
	ra, ca := a.Dims()
	rb, cb := b.Dims()
	out := mat.NewDense(ra*rb, ca*cb, nil)
	for i := 0; i < ra; i++ {
		for j := 0; j < ca; j++ {
			aij := a.At(i, j)
			if aij == 0 {
				continue
			}
			for k := 0; k < rb; k++ {
				for l := 0; l < cb; l++ {
					out.Set(i*rb+k, j*cb+l, aij*b.At(k, l))
				}
			}
		}
	}
	return out
}

// buildInvLower assembles the unit lower-triangular matrix L that maps
// correlated residuals to orthogonalized ones: eta_t = L eps_t. The loading
// vector a is read row-wise: (a21), (a31, a32), ..., (ak1, ..., ak(k-1)).
func buildInvLower(dim int, a *mat.VecDense) *mat.Dense {
	l := mat.NewDense(dim, dim, nil)
	for i := 0; i < dim; i++ {
		l.Set(i, i, 1)
	}
	idx := 0
	for j := 1; j < dim; j++ {
		for k := 0; k < j; k++ {
			l.Set(j, k, a.AtVec(idx))
			idx++
		}
	}
	return l
}

// solveUpperTri solves u x = b for upper-triangular u by back substitution.
func solveUpperTri(u *mat.TriDense, b *mat.VecDense) *mat.VecDense {
	n := b.Len()
	x := mat.NewVecDense(n, nil)
	for i := n - 1; i >= 0; i-- {
		s := b.AtVec(i)
		for j := i + 1; j < n; j++ {
			s -= u.At(i, j) * x.AtVec(j)
		}
		x.SetVec(i, s/u.At(i, i))
	}
	return x
}

// constVec returns a length-n vector with every entry set to v.
func constVec(n int, v float64) *mat.VecDense {
	out := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		out.SetVec(i, v)
	}
	return out
}

// colVec copies column j of m into a fresh vector.
func colVec(m *mat.Dense, j int) *mat.VecDense {
	r, _ := m.Dims()
	out := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		out.SetVec(i, m.At(i, j))
	}
	return out
}

// rowVec copies row i of m into a fresh vector.
func rowVec(m *mat.Dense, i int) *mat.VecDense {
	_, c := m.Dims()
	out := mat.NewVecDense(c, nil)
	for j := 0; j < c; j++ {
		out.SetVec(j, m.At(i, j))
	}
	return out
}

// setCol writes v into column j of m.
func setCol(m *mat.Dense, j int, v *mat.VecDense) {
	for i := 0; i < v.Len(); i++ {
		m.Set(i, j, v.AtVec(i))
	}
}
