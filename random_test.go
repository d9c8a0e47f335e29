// Project: Bayesian Estimation of VAR Models with Stochastic Volatility
// A Gibbs sampler with Minnesota, SSVS, and Horseshoe shrinkage priors

package main

import (
	"math"
	"testing"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// ============================================================================
// HELPER FUNCTIONS
// ============================================================================

// almostEqual compares floats with tolerance
func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// ============================================================================
// MULTIVARIATE NORMAL TESTS
// ============================================================================

func TestSimMVNormalMoments(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	mu := mat.NewVecDense(2, []float64{1, 2})
	sig := mat.NewSymDense(2, []float64{2, 0.5, 0.5, 1})

	numSim := 100000
	draws, err := SimMVNormal(numSim, mu, sig, rng)
	if err != nil {
		t.Fatalf("SimMVNormal failed: %v", err)
	}

	r, c := draws.Dims()
	if r != numSim || c != 2 {
		t.Fatalf("expected %d x 2 draws, got %d x %d", numSim, r, c)
	}

	// Empirical mean and covariance against the inputs
	mean := make([]float64, 2)
	for i := 0; i < numSim; i++ {
		mean[0] += draws.At(i, 0)
		mean[1] += draws.At(i, 1)
	}
	mean[0] /= float64(numSim)
	mean[1] /= float64(numSim)

	if !almostEqual(mean[0], 1, 0.05) || !almostEqual(mean[1], 2, 0.05) {
		t.Errorf("empirical mean (%f, %f) too far from (1, 2)", mean[0], mean[1])
	}

	var cov [2][2]float64
	for i := 0; i < numSim; i++ {
		d0 := draws.At(i, 0) - mean[0]
		d1 := draws.At(i, 1) - mean[1]
		cov[0][0] += d0 * d0
		cov[0][1] += d0 * d1
		cov[1][1] += d1 * d1
	}
	for a := 0; a < 2; a++ {
		for b := a; b < 2; b++ {
			cov[a][b] /= float64(numSim - 1)
			if !almostEqual(cov[a][b], sig.At(a, b), 0.1) {
				t.Errorf("empirical cov[%d][%d] = %f, want %f", a, b, cov[a][b], sig.At(a, b))
			}
		}
	}
}

func TestSimMVNormalCholMatchesMoments(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	mu := mat.NewVecDense(3, []float64{-1, 0, 1})
	sig := mat.NewSymDense(3, []float64{
		1, 0.2, 0.1,
		0.2, 1, 0.3,
		0.1, 0.3, 1,
	})

	numSim := 50000
	draws, err := SimMVNormalChol(numSim, mu, sig, rng)
	if err != nil {
		t.Fatalf("SimMVNormalChol failed: %v", err)
	}
	for j := 0; j < 3; j++ {
		s := 0.0
		for i := 0; i < numSim; i++ {
			s += draws.At(i, j)
		}
		s /= float64(numSim)
		if !almostEqual(s, mu.AtVec(j), 0.05) {
			t.Errorf("column %d mean %f, want %f", j, s, mu.AtVec(j))
		}
	}
}

func TestSimMVNormalDimensionMismatch(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	mu := mat.NewVecDense(3, nil)
	sig := mat.NewSymDense(2, []float64{1, 0, 0, 1})
	if _, err := SimMVNormal(10, mu, sig, rng); err == nil {
		t.Error("expected error for mean/covariance dimension mismatch")
	}
}

// ============================================================================
// INVERSE WISHART TESTS
// ============================================================================

func TestSimInverseWishartMean(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	scale := mat.NewSymDense(2, []float64{3, 0.5, 0.5, 2})
	shape := 10.0

	// E[W] = Psi / (nu - dim - 1)
	numSim := 20000
	var acc [2][2]float64
	for i := 0; i < numSim; i++ {
		w, err := SimInverseWishart(scale, shape, rng)
		if err != nil {
			t.Fatalf("SimInverseWishart failed: %v", err)
		}
		for a := 0; a < 2; a++ {
			for b := a; b < 2; b++ {
				acc[a][b] += w.At(a, b)
			}
		}
	}
	denom := shape - 2 - 1
	for a := 0; a < 2; a++ {
		for b := a; b < 2; b++ {
			got := acc[a][b] / float64(numSim)
			want := scale.At(a, b) / denom
			if !almostEqual(got, want, 0.1) {
				t.Errorf("empirical mean[%d][%d] = %f, want %f", a, b, got, want)
			}
		}
	}
}

func TestSimInverseWishartInvalidShape(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	scale := mat.NewSymDense(3, nil)
	for i := 0; i < 3; i++ {
		scale.SetSym(i, i, 1)
	}
	// shape must exceed dim - 1
	if _, err := SimInverseWishart(scale, 2, rng); err == nil {
		t.Error("expected error for shape <= dim - 1")
	}
}

// ============================================================================
// MATRIX NORMAL AND MNIW TESTS
// ============================================================================

func TestSimMatNormalDims(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	mean := mat.NewDense(3, 2, nil)
	scaleU := mat.NewSymDense(3, nil)
	scaleV := mat.NewSymDense(2, nil)
	for i := 0; i < 3; i++ {
		scaleU.SetSym(i, i, 1)
	}
	for i := 0; i < 2; i++ {
		scaleV.SetSym(i, i, 1)
	}
	draw, err := SimMatNormal(mean, scaleU, scaleV, rng)
	if err != nil {
		t.Fatalf("SimMatNormal failed: %v", err)
	}
	r, c := draw.Dims()
	if r != 3 || c != 2 {
		t.Errorf("expected 3 x 2 draw, got %d x %d", r, c)
	}
}

func TestSimMNIWScaleMismatch(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	mean := mat.NewDense(3, 2, nil) // 2 columns
	scaleU := mat.NewSymDense(3, nil)
	scale := mat.NewSymDense(3, nil) // must be 2 x 2 to match mean columns
	for i := 0; i < 3; i++ {
		scaleU.SetSym(i, i, 1)
		scale.SetSym(i, i, 1)
	}
	if _, _, err := SimMNIW(5, mean, scaleU, scale, 6, rng); err == nil {
		t.Error("expected error when IW scale does not match mean columns")
	}
}

func TestSimMNIWDrawCount(t *testing.T) {
	rng := rand.New(rand.NewSource(31))
	mean := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	scaleU := mat.NewSymDense(2, []float64{1, 0, 0, 1})
	scale := mat.NewSymDense(2, []float64{1, 0, 0, 1})

	coefs, covs, err := SimMNIW(7, mean, scaleU, scale, 6, rng)
	if err != nil {
		t.Fatalf("SimMNIW failed: %v", err)
	}
	if len(coefs) != 7 || len(covs) != 7 {
		t.Fatalf("expected 7 draws of each, got %d and %d", len(coefs), len(covs))
	}
	for i, cov := range covs {
		if cov.At(0, 0) <= 0 || cov.At(1, 1) <= 0 {
			t.Errorf("draw %d: covariance diagonal not positive", i)
		}
	}
}
