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

// The observation equation treats log(e_t^2) as the log-volatility plus
// log chi-square(1) noise, approximated by a single Gaussian with known
// offset and variance.
const (
	logChiSqMean = -1.2704              // E[log chi^2_1]
	logChiSqVar  = math.Pi * math.Pi / 2 // Var[log chi^2_1]
	logSqOffset  = 1e-4                 // stabilizer in log(e^2 + offset)
)

// svDrawPath draws a full log-volatility path for one equation by precision
// sampling of the Gaussian Markov chain implied by
//
//	state:       h_t | h_{t-1} ~ N(h_{t-1}, sig), starting from init
//	observation: obs_t = h_t + noise (known-offset approximation)
//
// The posterior precision is tridiagonal, so the Cholesky factor is computed
// with two short recursions instead of a dense factorization. prevPath is the
// conditioning state from the previous iteration; under the single-Gaussian
// approximation the posterior depends on it only through init and sig, but it
// fixes the Markov structure the caller threads through the sweep.
func svDrawPath(prevPath *mat.VecDense, init, sig float64, obs *mat.VecDense, rng *rand.Rand) (*mat.VecDense, error) {
	n := obs.Len()
	if prevPath.Len() != n {
		return nil, fmt.Errorf("previous path has length %d, want %d", prevPath.Len(), n)
	}
	if sig <= 0 {
		return nil, fmt.Errorf("volatility innovation variance must be > 0, got %g", sig)
	}

	// Tridiagonal posterior precision: the random-walk prior contributes
	// 2/sig on the diagonal (1/sig at the end point) and -1/sig off the
	// diagonal; the observation adds 1/obsVar everywhere. The prior mean
	// (a flat path at init) only reaches the first entry of the right side.
	obsPrec := 1.0 / logChiSqVar
	a := make([]float64, n) // diagonal
	r := make([]float64, n) // right-hand side
	for t := 0; t < n; t++ {
		c := 2.0
		if t == n-1 {
			c = 1.0
		}
		a[t] = c/sig + obsPrec
		r[t] = (obs.AtVec(t) - logChiSqMean) * obsPrec
	}
	r[0] += init / sig
	b := -1.0 / sig

	// Cholesky factor of the tridiagonal precision: L has diagonal d and
	// subdiagonal l.
	d := make([]float64, n)
	l := make([]float64, n-1)
	for t := 0; t < n; t++ {
		v := a[t]
		if t > 0 {
			v -= l[t-1] * l[t-1]
		}
		if v <= 0 {
			return nil, fmt.Errorf("volatility precision is not positive definite at t=%d", t)
		}
		d[t] = math.Sqrt(v)
		if t < n-1 {
			l[t] = b / d[t]
		}
	}

	// Forward solve L y = r.
	y := make([]float64, n)
	for t := 0; t < n; t++ {
		s := r[t]
		if t > 0 {
			s -= l[t-1] * y[t-1]
		}
		y[t] = s / d[t]
	}

	// One backward pass gives mean plus noise: L^T h = y + z draws from
	// N(mean, precision^-1).
	stdNorm := distuv.Normal{Mu: 0, Sigma: 1, Src: rng}
	path := mat.NewVecDense(n, nil)
	for t := n - 1; t >= 0; t-- {
		s := y[t] + stdNorm.Rand()
		if t < n-1 {
			s -= l[t] * path.AtVec(t+1)
		}
		path.SetVec(t, s/d[t])
	}
	return path, nil
}

// svDrawVariance resamples the innovation variance of every equation from its
// inverse-gamma posterior: shape + n/2 and scale + half the sum of squared
// path increments, the first increment taken against the initial state.
func svDrawVariance(priorShape, priorScale, initVec *mat.VecDense, path *mat.Dense, rng *rand.Rand) *mat.VecDense {
	n, dim := path.Dims()
	out := mat.NewVecDense(dim, nil)
	for j := 0; j < dim; j++ {
		sum := 0.0
		prev := initVec.AtVec(j)
		for t := 0; t < n; t++ {
			diff := path.At(t, j) - prev
			sum += diff * diff
			prev = path.At(t, j)
		}
		ig := distuv.InverseGamma{
			Alpha: priorShape.AtVec(j) + float64(n)/2,
			Beta:  priorScale.AtVec(j) + sum/2,
			Src:   rng,
		}
		out.SetVec(j, ig.Rand())
	}
	return out
}

// svDrawInit resamples the initial state of every equation from the Gaussian
// posterior combining its prior with the first path value, precision-weighted
// by the innovation variance.
func svDrawInit(priorMean, priorPrec, firstRow, sig *mat.VecDense, rng *rand.Rand) *mat.VecDense {
	dim := priorMean.Len()
	out := mat.NewVecDense(dim, nil)
	for j := 0; j < dim; j++ {
		postPrec := priorPrec.AtVec(j) + 1/sig.AtVec(j)
		postMean := (priorPrec.AtVec(j)*priorMean.AtVec(j) + firstRow.AtVec(j)/sig.AtVec(j)) / postPrec
		draw := distuv.Normal{Mu: postMean, Sigma: math.Sqrt(1 / postPrec), Src: rng}.Rand()
		out.SetVec(j, draw)
	}
	return out
}
