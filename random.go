// Project: Bayesian Estimation of VAR Models with Stochastic Volatility
// A Gibbs sampler with Minnesota, SSVS, and Horseshoe shrinkage priors

package main

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// These are the standalone random-matrix services. They are independent of
// the Gibbs sampler and validate their matrix arguments eagerly: any shape
// inconsistency fails with an error before anything is drawn.

// SimMVNormal samples numSim rows from N(mu, sig) using the symmetric matrix
// square root of sig. Each row of the result is one draw.
func SimMVNormal(numSim int, mu *mat.VecDense, sig *mat.SymDense, rng *rand.Rand) (*mat.Dense, error) {
	dim := sig.SymmetricDim()
	if mu.Len() != dim {
		return nil, fmt.Errorf("invalid 'mu' size: got %d, want %d", mu.Len(), dim)
	}
	if numSim <= 0 {
		return nil, fmt.Errorf("numSim must be > 0")
	}

	// sig = Q diag(v) Q^T, so sqrt(sig) = Q diag(sqrt(v)) Q^T
	var eig mat.EigenSym
	if !eig.Factorize(sig, true) {
		return nil, fmt.Errorf("eigendecomposition of 'sig' failed")
	}
	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	sqrtVals := mat.NewDense(dim, dim, nil)
	for i, v := range vals {
		if v < 0 {
			return nil, fmt.Errorf("'sig' is not positive semi-definite (eigenvalue %g)", v)
		}
		sqrtVals.Set(i, i, math.Sqrt(v))
	}

	var tmp, sigSqrt mat.Dense
	tmp.Mul(&vecs, sqrtVals)
	sigSqrt.Mul(&tmp, vecs.T())

	stdNorm := distuv.Normal{Mu: 0, Sigma: 1, Src: rng}
	z := mat.NewDense(numSim, dim, nil)
	for i := 0; i < numSim; i++ {
		for j := 0; j < dim; j++ {
			z.Set(i, j, stdNorm.Rand())
		}
	}

	// res = Z * sqrt(sig) + mu (row-wise)
	res := mat.NewDense(numSim, dim, nil)
	res.Mul(z, &sigSqrt)
	for i := 0; i < numSim; i++ {
		for j := 0; j < dim; j++ {
			res.Set(i, j, res.At(i, j)+mu.AtVec(j))
		}
	}
	return res, nil
}

// SimMVNormalChol samples numSim rows from N(mu, sig) using the Cholesky
// factor of sig instead of the matrix square root.
func SimMVNormalChol(numSim int, mu *mat.VecDense, sig *mat.SymDense, rng *rand.Rand) (*mat.Dense, error) {
	dim := sig.SymmetricDim()
	if mu.Len() != dim {
		return nil, fmt.Errorf("invalid 'mu' size: got %d, want %d", mu.Len(), dim)
	}
	if numSim <= 0 {
		return nil, fmt.Errorf("numSim must be > 0")
	}

	var chol mat.Cholesky
	if !chol.Factorize(sig) {
		return nil, fmt.Errorf("'sig' is not positive definite")
	}
	// Use the upper factor because the draws are row vectors: Z * U has
	// covariance U^T U = sig per row.
	u := mat.NewTriDense(dim, mat.Upper, nil)
	chol.UTo(u)

	stdNorm := distuv.Normal{Mu: 0, Sigma: 1, Src: rng}
	z := mat.NewDense(numSim, dim, nil)
	for i := 0; i < numSim; i++ {
		for j := 0; j < dim; j++ {
			z.Set(i, j, stdNorm.Rand())
		}
	}

	res := mat.NewDense(numSim, dim, nil)
	res.Mul(z, u)
	for i := 0; i < numSim; i++ {
		for j := 0; j < dim; j++ {
			res.Set(i, j, res.At(i, j)+mu.AtVec(j))
		}
	}
	return res, nil
}

// SimMatNormal draws one matrix from MN(mean, scaleU, scaleV):
// res = mean + P Z L^T with P P^T = scaleU and L L^T = scaleV.
func SimMatNormal(mean *mat.Dense, scaleU, scaleV *mat.SymDense, rng *rand.Rand) (*mat.Dense, error) {
	numRows, numCols := mean.Dims()
	if scaleU.SymmetricDim() != numRows {
		return nil, fmt.Errorf("invalid 'scaleU' dimension: got %d, want %d", scaleU.SymmetricDim(), numRows)
	}
	if scaleV.SymmetricDim() != numCols {
		return nil, fmt.Errorf("invalid 'scaleV' dimension: got %d, want %d", scaleV.SymmetricDim(), numCols)
	}

	var cholU, cholV mat.Cholesky
	if !cholU.Factorize(scaleU) {
		return nil, fmt.Errorf("'scaleU' is not positive definite")
	}
	if !cholV.Factorize(scaleV) {
		return nil, fmt.Errorf("'scaleV' is not positive definite")
	}
	lu := mat.NewTriDense(numRows, mat.Lower, nil)
	lv := mat.NewTriDense(numCols, mat.Lower, nil)
	cholU.LTo(lu)
	cholV.LTo(lv)

	stdNorm := distuv.Normal{Mu: 0, Sigma: 1, Src: rng}
	z := mat.NewDense(numRows, numCols, nil)
	for i := 0; i < numRows; i++ {
		for j := 0; j < numCols; j++ {
			z.Set(i, j, stdNorm.Rand())
		}
	}

	var tmp mat.Dense
	tmp.Mul(lu, z)
	res := mat.NewDense(numRows, numCols, nil)
	res.Mul(&tmp, lv.T())
	res.Add(res, mean)
	return res, nil
}

// simIWChol generates the lower-triangular factor A = L (Q^-1)^T of an
// inverse-Wishart draw via the Bartlett decomposition, so that A A^T follows
// IW(scale, shape). Shared by SimInverseWishart and SimMNIW.
func simIWChol(scale *mat.SymDense, shape float64, rng *rand.Rand) (*mat.Dense, error) {
	dim := scale.SymmetricDim()
	if shape <= float64(dim-1) {
		return nil, fmt.Errorf("wrong 'shape' %g: shape > dim - 1 must be satisfied", shape)
	}

	// Upper-triangular Bartlett factor Q: q_ii^2 ~ chi^2(shape - i),
	// q_ij ~ N(0, 1) above the diagonal.
	stdNorm := distuv.Normal{Mu: 0, Sigma: 1, Src: rng}
	q := mat.NewTriDense(dim, mat.Upper, nil)
	for i := 0; i < dim; i++ {
		chi := distuv.ChiSquared{K: shape - float64(i), Src: rng}
		q.SetTri(i, i, math.Sqrt(chi.Rand()))
		for j := i + 1; j < dim; j++ {
			q.SetTri(i, j, stdNorm.Rand())
		}
	}

	var chol mat.Cholesky
	if !chol.Factorize(scale) {
		return nil, fmt.Errorf("'scale' is not positive definite")
	}
	l := mat.NewTriDense(dim, mat.Lower, nil)
	chol.LTo(l)

	// Invert Q column by column with back substitution, then A = L (Q^-1)^T.
	qInv := mat.NewDense(dim, dim, nil)
	e := mat.NewVecDense(dim, nil)
	for j := 0; j < dim; j++ {
		for i := 0; i < dim; i++ {
			e.SetVec(i, 0)
		}
		e.SetVec(j, 1)
		col := solveUpperTri(q, e)
		for i := 0; i < dim; i++ {
			qInv.Set(i, j, col.AtVec(i))
		}
	}

	res := mat.NewDense(dim, dim, nil)
	res.Mul(l, qInv.T())
	return res, nil
}

// SimInverseWishart draws one matrix from IW(scale, shape).
func SimInverseWishart(scale *mat.SymDense, shape float64, rng *rand.Rand) (*mat.SymDense, error) {
	a, err := simIWChol(scale, shape, rng)
	if err != nil {
		return nil, err
	}
	dim, _ := a.Dims()
	var prod mat.Dense
	prod.Mul(a, a.T())
	res := mat.NewSymDense(dim, nil)
	for i := 0; i < dim; i++ {
		for j := i; j < dim; j++ {
			res.SetSym(i, j, prod.At(i, j))
		}
	}
	return res, nil
}

// SimMNIW draws numSim pairs from the joint matrix-normal/inverse-Wishart:
// Sigma_i ~ IW(scale, shape) and Y_i ~ MN(mean, scaleU, Sigma_i).
func SimMNIW(numSim int, mean *mat.Dense, scaleU, scale *mat.SymDense, shape float64, rng *rand.Rand) ([]*mat.Dense, []*mat.SymDense, error) {
	numRows, numCols := mean.Dims()
	if scaleU.SymmetricDim() != numRows {
		return nil, nil, fmt.Errorf("invalid 'scaleU' dimension: got %d, want %d", scaleU.SymmetricDim(), numRows)
	}
	if scale.SymmetricDim() != numCols {
		return nil, nil, fmt.Errorf("invalid 'scale' dimension: got %d, want %d", scale.SymmetricDim(), numCols)
	}
	if numSim <= 0 {
		return nil, nil, fmt.Errorf("numSim must be > 0")
	}

	mn := make([]*mat.Dense, numSim)
	iw := make([]*mat.SymDense, numSim)
	for i := 0; i < numSim; i++ {
		a, err := simIWChol(scale, shape, rng)
		if err != nil {
			return nil, nil, err
		}
		var prod mat.Dense
		prod.Mul(a, a.T())
		sigma := mat.NewSymDense(numCols, nil)
		for r := 0; r < numCols; r++ {
			for c := r; c < numCols; c++ {
				sigma.SetSym(r, c, prod.At(r, c))
			}
		}
		iw[i] = sigma

		y, err := SimMatNormal(mean, scaleU, sigma, rng)
		if err != nil {
			return nil, nil, err
		}
		mn[i] = y
	}
	return mn, iw, nil
}
