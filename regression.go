// Project: Bayesian Estimation of VAR Models with Stochastic Volatility
// A Gibbs sampler with Minnesota, SSVS, and Horseshoe shrinkage priors

package main

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// regressionDraw samples one vector from the conjugate-normal posterior of a
// stacked regression with per-time-point residual precision blocks:
//
//	posterior precision = priorPrec + sum_t X_t^T B_t X_t
//	posterior mean      = posteriorPrec^-1 (priorPrec priorMean + sum_t X_t^T B_t y_t)
//
// design stacks one dim-row block X_t per time point (time-major), response
// stacks the matching y_t, and precBlocks holds one dim x dim block B_t per
// time point. The draw goes through the Cholesky factorization of the
// posterior precision; the matrix is never inverted explicitly. A failed
// factorization (non-positive-definite posterior precision) is a fatal
// numerical fault reported as an error.
//
// The same routine serves the coefficient step and the correlation-loading
// step of the Gibbs sweep.
func regressionDraw(design *mat.Dense, response, priorMean *mat.VecDense, priorPrec *mat.Dense, precBlocks []*mat.SymDense, rng *rand.Rand) (*mat.VecDense, error) {
	rows, m := design.Dims()
	if len(precBlocks) == 0 {
		return nil, fmt.Errorf("no residual precision blocks supplied")
	}
	dim := precBlocks[0].SymmetricDim()
	if rows != len(precBlocks)*dim {
		return nil, fmt.Errorf("design has %d rows, want %d (%d blocks of %d)", rows, len(precBlocks)*dim, len(precBlocks), dim)
	}
	if response.Len() != rows {
		return nil, fmt.Errorf("response has length %d, want %d", response.Len(), rows)
	}
	if priorMean.Len() != m {
		return nil, fmt.Errorf("prior mean has length %d, want %d", priorMean.Len(), m)
	}
	pr, pc := priorPrec.Dims()
	if pr != m || pc != m {
		return nil, fmt.Errorf("prior precision is %d x %d, want %d x %d", pr, pc, m, m)
	}

	// Accumulate the Gram matrix and the weighted cross product block by
	// block; each block is one time point.
	gram := mat.NewDense(m, m, nil)
	rhs := mat.NewVecDense(m, nil)
	rhs.MulVec(priorPrec, priorMean)
	for t := range precBlocks {
		xt := design.Slice(t*dim, (t+1)*dim, 0, m)
		yt := response.SliceVec(t*dim, (t+1)*dim)

		var bx mat.Dense
		bx.Mul(precBlocks[t], xt)
		var xtbx mat.Dense
		xtbx.Mul(xt.T(), &bx)
		gram.Add(gram, &xtbx)

		var by mat.VecDense
		by.MulVec(precBlocks[t], yt)
		var xby mat.VecDense
		xby.MulVec(xt.T(), &by)
		rhs.AddVec(rhs, &xby)
	}
	gram.Add(gram, priorPrec)

	// Symmetrize before factorizing; the accumulation is symmetric up to
	// floating-point noise.
	post := mat.NewSymDense(m, nil)
	for i := 0; i < m; i++ {
		for j := i; j < m; j++ {
			post.SetSym(i, j, 0.5*(gram.At(i, j)+gram.At(j, i)))
		}
	}

	var chol mat.Cholesky
	if !chol.Factorize(post) {
		return nil, fmt.Errorf("posterior precision is not positive definite")
	}
	mean := mat.NewVecDense(m, nil)
	if err := chol.SolveVecTo(mean, rhs); err != nil {
		return nil, fmt.Errorf("solve posterior mean: %w", err)
	}

	// With posterior precision U^T U, mean + U^-1 z has the right covariance.
	u := mat.NewTriDense(m, mat.Upper, nil)
	chol.UTo(u)
	stdNorm := distuv.Normal{Mu: 0, Sigma: 1, Src: rng}
	z := mat.NewVecDense(m, nil)
	for i := 0; i < m; i++ {
		z.SetVec(i, stdNorm.Rand())
	}
	draw := solveUpperTri(u, z)
	draw.AddVec(mean, draw)
	return draw, nil
}
