// Project: Bayesian Estimation of VAR Models with Stochastic Volatility
// A Gibbs sampler with Minnesota, SSVS, and Horseshoe shrinkage priors

package main

import (
	"gonum.org/v1/gonum/mat"
)

// Simple struct for time series data
type TimeSeries struct {
	// Matrix for data
	Y *mat.Dense
	// Tracks number of time points, basically rows
	Time []float64
	// List of variable Names
	VarNames []string
}

// PriorConfig selects the shrinkage regime for the coefficient and
// correlation-loading priors. Exactly one of MinnesotaConfig, SSVSConfig or
// HorseshoeConfig is passed to EstimateVARSV; each variant carries only the
// hyperparameters its regime needs.
type PriorConfig interface {
	priorConfig()
}

// MinnesotaConfig is the fixed Minnesota-type prior. Its coefficient
// precision is the Kronecker product of PrecDiag and CoefPrec and stays
// constant for the whole run.
type MinnesotaConfig struct {
	// Prior mean matrix of the coefficients (dimDesign x dim)
	CoefMean *mat.Dense
	// Prior precision block of the coefficients (dimDesign x dimDesign)
	CoefPrec *mat.Dense
	// Diagonal residual-scale matrix (dim x dim)
	PrecDiag *mat.Dense
}

// SSVSConfig is the spike-and-slab variable selection prior. Spike/slab
// vectors cover the lag coefficients (numAlpha entries); the Cholesky-factor
// vectors cover the strictly-lower-triangular loadings (numLowerChol).
type SSVSConfig struct {
	// SD of the spike and slab normals for each lag coefficient
	CoefSpike *mat.VecDense
	CoefSlab  *mat.VecDense
	// Initial slab (inclusion) weight per coefficient group
	CoefSlabWeight *mat.VecDense
	// Beta prior shapes of the coefficient slab weight
	CoefS1, CoefS2 float64

	// Same mechanism for the Cholesky-factor loadings, ungrouped
	CholSpike      *mat.VecDense
	CholSlab       *mat.VecDense
	CholSlabWeight *mat.VecDense
	CholS1, CholS2 float64

	// Prior mean of the unrestricted constant terms (length dim) and their SD.
	// Only used when the design matrix carries an intercept column.
	MeanNonRestrict *mat.VecDense
	SdNonRestrict   float64
}

// HorseshoeConfig is the global-local horseshoe shrinkage prior.
type HorseshoeConfig struct {
	// Initial local shrinkage scales, one per coefficient (numCoef)
	InitLocal *mat.VecDense
	// Initial global shrinkage scales, one per coefficient group
	InitGlobal *mat.VecDense
	// Initial local scales for the Cholesky-factor loadings (numLowerChol)
	InitContemLocal *mat.VecDense
	// Initial global scale for the Cholesky-factor loadings (single pool)
	InitContemGlobal float64
}

func (*MinnesotaConfig) priorConfig() {}
func (*SSVSConfig) priorConfig()      {}
func (*HorseshoeConfig) priorConfig() {}

// GibbsOptions collects the run-level knobs of the sampler.
type GibbsOptions struct {
	// Number of MCMC iterations
	NumIter int
	// Number of burn-in iterations dropped from the returned trajectories
	NumBurn int
	// Whether the design matrix carries an intercept column (last column)
	IncludeMean bool
	// RNG seed for the whole run; the per-equation volatility streams are
	// derived from it so results do not depend on Workers
	Seed uint64
	// Worker pool size for the per-equation volatility step (<=1: sequential)
	Workers int
	// Optional callback invoked after each completed iteration
	Progress func(iter int)
}

// GibbsRecord is the labeled trajectory bundle returned by EstimateVARSV.
// Every trajectory except LogVol drops the burn-in rows on a completed run;
// on cancellation all trajectories keep exactly the rows drawn so far. The
// regime extras are nil for regimes that do not produce them.
type GibbsRecord struct {
	// Coefficient draws, one row per kept iteration (numCoef columns)
	Coef *mat.Dense
	// Full log-volatility path, numDesign rows per kept iteration
	// (dim columns), never trimmed
	LogVol *mat.Dense
	// Cholesky-factor loading draws (numLowerChol columns)
	ContemCoef *mat.Dense
	// Initial log-volatility state draws (dim columns)
	LogVolInit *mat.Dense
	// Volatility innovation variance draws (dim columns)
	LogVolSig *mat.Dense

	// SSVS extras
	CoefDummy    *mat.Dense // binary inclusion indicators (numAlpha columns)
	CoefWeight   *mat.Dense // group inclusion weights (numGrp columns)
	ContemDummy  *mat.Dense // loading inclusion indicators (numLowerChol)
	ContemWeight *mat.Dense // loading inclusion weights (numLowerChol)

	// Horseshoe extras
	LocalScale   *mat.Dense // local shrinkage scales (numCoef columns)
	GlobalScale  *mat.Dense // global shrinkage scales (numGrp columns)
	ShrinkFactor *mat.Dense // diag[(I + priorPrec)^-1] diagnostic (numCoef)
}

// varDims caches the dimension bookkeeping shared by every sampler step.
type varDims struct {
	dim          int // number of equations (k)
	dimDesign    int // columns of the design matrix (kp, +1 with intercept)
	numDesign    int // usable time points (n)
	numCoef      int // dim * dimDesign
	numAlpha     int // lag coefficients only (numCoef - dim with intercept)
	numLowerChol int // dim * (dim-1) / 2
	numGrp       int // number of coefficient groups
}

// gibbsState is the explicit iteration state threaded through the loop: each
// step consumes the fields drawn before it and overwrites its own. Row i of
// every record is a pure function of state i-1 plus fresh randomness.
type gibbsState struct {
	coef       *mat.VecDense // alpha
	contem     *mat.VecDense // a = (a21, a31, a32, ..., ak(k-1)), row-wise
	logVol     *mat.Dense    // h, numDesign x dim
	logVolInit *mat.VecDense // h0
	logVolSig  *mat.VecDense // sigma_h^2

	// SSVS shrinkage state
	coefDummy    *mat.VecDense
	coefWeight   *mat.VecDense
	contemDummy  *mat.VecDense
	contemWeight *mat.VecDense

	// Horseshoe shrinkage state
	local        *mat.VecDense
	global       *mat.VecDense
	contemLocal  *mat.VecDense
	contemGlobal float64
	shrink       *mat.VecDense
}
