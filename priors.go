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

// priorState holds the prior mean/precision pairs for the coefficient vector
// and the Cholesky-factor loadings. Minnesota fills them once for the run;
// SSVS and horseshoe overwrite the precisions every iteration from their
// shrinkage state.
type priorState struct {
	alphaMean *mat.VecDense // numCoef
	alphaPrec *mat.Dense    // numCoef x numCoef
	cholMean  *mat.VecDense // numLowerChol, fixed at zero
	cholPrec  *mat.Dense    // numLowerChol x numLowerChol
}

// groupIndex resolves the caller-supplied group-id vector and group-membership
// matrix into per-coefficient lookups. vecFull covers every design row
// (including the intercept row); vecLag drops the intercept row and is what
// the SSVS indicator update works on.
type groupIndex struct {
	ids     []int
	pos     map[int]int // group id -> position in ids
	vecFull []int       // length numCoef
	vecLag  []int       // length numAlpha
}

func buildGroupIndex(grpIDs []int, grpMat *mat.Dense, d varDims, includeMean bool) (*groupIndex, error) {
	r, c := grpMat.Dims()
	if r != d.dimDesign || c != d.dim {
		return nil, fmt.Errorf("group matrix must be %d x %d, got %d x %d", d.dimDesign, d.dim, r, c)
	}
	g := &groupIndex{
		ids:     grpIDs,
		pos:     make(map[int]int, len(grpIDs)),
		vecFull: make([]int, 0, d.numCoef),
		vecLag:  make([]int, 0, d.numAlpha),
	}
	for i, id := range grpIDs {
		g.pos[id] = i
	}
	lagRows := d.numAlpha / d.dim
	// Column-major to match the coefficient vectorization.
	for j := 0; j < c; j++ {
		for i := 0; i < r; i++ {
			id := int(grpMat.At(i, j))
			if _, ok := g.pos[id]; !ok {
				return nil, fmt.Errorf("group matrix entry %d not present in group ids", id)
			}
			g.vecFull = append(g.vecFull, id)
			if i < lagRows || !includeMean {
				g.vecLag = append(g.vecLag, id)
			}
		}
	}
	return g, nil
}

func eye(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

// buildPrior validates the selected regime and produces the initial prior
// mean/precision pairs. An unrecognized (or nil) regime is an error.
func buildPrior(prior PriorConfig, d varDims, includeMean bool, groups *groupIndex) (*priorState, error) {
	ps := &priorState{
		alphaMean: mat.NewVecDense(d.numCoef, nil),
		alphaPrec: eye(d.numCoef),
		cholMean:  mat.NewVecDense(d.numLowerChol, nil),
		cholPrec:  eye(d.numLowerChol),
	}
	lagRows := d.numAlpha / d.dim

	switch cfg := prior.(type) {
	case *MinnesotaConfig:
		mr, mc := cfg.CoefMean.Dims()
		if mr != d.dimDesign || mc != d.dim {
			return nil, fmt.Errorf("Minnesota coefficient mean must be %d x %d, got %d x %d", d.dimDesign, d.dim, mr, mc)
		}
		pr, pc := cfg.CoefPrec.Dims()
		if pr != d.dimDesign || pc != d.dimDesign {
			return nil, fmt.Errorf("Minnesota coefficient precision must be %d x %d, got %d x %d", d.dimDesign, d.dimDesign, pr, pc)
		}
		dr, dc := cfg.PrecDiag.Dims()
		if dr != d.dim || dc != d.dim {
			return nil, fmt.Errorf("Minnesota residual scale must be %d x %d, got %d x %d", d.dim, d.dim, dr, dc)
		}
		ps.alphaMean = vectorize(cfg.CoefMean)
		ps.alphaPrec = kronecker(cfg.PrecDiag, cfg.CoefPrec)

	case *SSVSConfig:
		if cfg.CoefSpike.Len() != d.numAlpha || cfg.CoefSlab.Len() != d.numAlpha {
			return nil, fmt.Errorf("SSVS spike/slab vectors must have length %d", d.numAlpha)
		}
		if cfg.CoefSlabWeight.Len() != d.numGrp {
			return nil, fmt.Errorf("SSVS slab weight must have length %d, got %d", d.numGrp, cfg.CoefSlabWeight.Len())
		}
		if cfg.CholSpike.Len() != d.numLowerChol || cfg.CholSlab.Len() != d.numLowerChol || cfg.CholSlabWeight.Len() != d.numLowerChol {
			return nil, fmt.Errorf("SSVS Cholesky-factor vectors must have length %d", d.numLowerChol)
		}
		if includeMean {
			if cfg.MeanNonRestrict == nil || cfg.MeanNonRestrict.Len() != d.dim {
				return nil, fmt.Errorf("SSVS unrestricted mean must have length %d", d.dim)
			}
			// Lag coefficients are centered at zero; the constant term keeps
			// its own prior mean in the last slot of each equation block.
			for j := 0; j < d.dim; j++ {
				ps.alphaMean.SetVec(j*d.dimDesign+lagRows, cfg.MeanNonRestrict.AtVec(j))
			}
		}

	case *HorseshoeConfig:
		if cfg.InitLocal.Len() != d.numCoef {
			return nil, fmt.Errorf("horseshoe local scales must have length %d, got %d", d.numCoef, cfg.InitLocal.Len())
		}
		if cfg.InitGlobal.Len() != d.numGrp {
			return nil, fmt.Errorf("horseshoe global scales must have length %d, got %d", d.numGrp, cfg.InitGlobal.Len())
		}
		if cfg.InitContemLocal.Len() != d.numLowerChol {
			return nil, fmt.Errorf("horseshoe contemporaneous local scales must have length %d", d.numLowerChol)
		}
		globalVec := expandGroupVec(groups.vecFull, groups.pos, cfg.InitGlobal)
		ps.alphaPrec = buildShrinkMat(globalVec, cfg.InitLocal)
		ps.cholPrec = buildShrinkMat(constVec(d.numLowerChol, cfg.InitContemGlobal), cfg.InitContemLocal)

	default:
		return nil, fmt.Errorf("invalid prior regime %T", prior)
	}
	return ps, nil
}

// expandGroupVec maps a per-group vector onto per-coefficient positions using
// the group id of each coefficient.
func expandGroupVec(grp []int, pos map[int]int, perGroup *mat.VecDense) *mat.VecDense {
	out := mat.NewVecDense(len(grp), nil)
	for j, id := range grp {
		out.SetVec(j, perGroup.AtVec(pos[id]))
	}
	return out
}

// ============================================================================
// SSVS UPDATER
// ============================================================================

// buildSSVSSd picks the conditional prior sd of each coefficient: spike if
// the inclusion indicator is 0, slab if it is 1.
func buildSSVSSd(spike, slab, dummy *mat.VecDense) *mat.VecDense {
	n := dummy.Len()
	sd := mat.NewVecDense(n, nil)
	for j := 0; j < n; j++ {
		g := dummy.AtVec(j)
		sd.SetVec(j, (1-g)*spike.AtVec(j)+g*slab.AtVec(j))
	}
	return sd
}

// ssvsDummy resamples the binary inclusion indicators given the freshly drawn
// coefficients: Bernoulli with odds slabDensity*w against spikeDensity*(1-w).
func ssvsDummy(coef, slab, spike, slabWeight *mat.VecDense, rng *rand.Rand) *mat.VecDense {
	n := coef.Len()
	dummy := mat.NewVecDense(n, nil)
	for j := 0; j < n; j++ {
		w := slabWeight.AtVec(j)
		u1 := distuv.Normal{Mu: 0, Sigma: slab.AtVec(j)}.Prob(coef.AtVec(j)) * w
		u2 := distuv.Normal{Mu: 0, Sigma: spike.AtVec(j)}.Prob(coef.AtVec(j)) * (1 - w)
		prob := 0.5
		if u1+u2 > 0 {
			prob = u1 / (u1 + u2)
		}
		if rng.Float64() < prob {
			dummy.SetVec(j, 1)
		}
	}
	return dummy
}

// ssvsWeight resamples a single (ungrouped) inclusion weight from its Beta
// posterior given the indicator vector.
func ssvsWeight(dummy *mat.VecDense, s1, s2 float64, rng *rand.Rand) float64 {
	numInclude := 0.0
	for j := 0; j < dummy.Len(); j++ {
		numInclude += dummy.AtVec(j)
	}
	numExclude := float64(dummy.Len()) - numInclude
	return distuv.Beta{Alpha: s1 + numInclude, Beta: s2 + numExclude, Src: rng}.Rand()
}

// ssvsMNWeight resamples one inclusion weight per coefficient group from
// Beta(s1 + included in group, s2 + excluded in group).
func ssvsMNWeight(grp []int, groups *groupIndex, dummy *mat.VecDense, s1, s2 float64, rng *rand.Rand) *mat.VecDense {
	numGrp := len(groups.ids)
	include := make([]float64, numGrp)
	exclude := make([]float64, numGrp)
	for j, id := range grp {
		g := groups.pos[id]
		include[g] += dummy.AtVec(j)
		exclude[g] += 1 - dummy.AtVec(j)
	}
	out := mat.NewVecDense(numGrp, nil)
	for g := 0; g < numGrp; g++ {
		out.SetVec(g, distuv.Beta{Alpha: s1 + include[g], Beta: s2 + exclude[g], Src: rng}.Rand())
	}
	return out
}

// ============================================================================
// HORSESHOE UPDATER
// ============================================================================

// buildShrinkMat builds the diagonal prior precision 1 / (local^2 global^2).
func buildShrinkMat(global, local *mat.VecDense) *mat.Dense {
	n := local.Len()
	prec := mat.NewDense(n, n, nil)
	for j := 0; j < n; j++ {
		l := local.AtVec(j)
		g := global.AtVec(j)
		prec.Set(j, j, 1/(l*l*g*g))
	}
	return prec
}

// shrinkFactor records the diagnostic kappa = diag[(I + prec)^-1] for a
// diagonal precision, without forming the inverse.
func shrinkFactor(prec *mat.Dense) *mat.VecDense {
	n, _ := prec.Dims()
	out := mat.NewVecDense(n, nil)
	for j := 0; j < n; j++ {
		out.SetVec(j, 1/(1+prec.At(j, j)))
	}
	return out
}

// horseshoeLatent draws the auxiliary latent of each scale:
// latent_j ~ InverseGamma(1, 1 + 1/scale_j^2).
func horseshoeLatent(scale *mat.VecDense, rng *rand.Rand) *mat.VecDense {
	n := scale.Len()
	out := mat.NewVecDense(n, nil)
	for j := 0; j < n; j++ {
		out.SetVec(j, horseshoeLatentScalar(scale.AtVec(j), rng))
	}
	return out
}

func horseshoeLatentScalar(scale float64, rng *rand.Rand) float64 {
	return distuv.InverseGamma{Alpha: 1, Beta: 1 + 1/(scale*scale), Src: rng}.Rand()
}

// horseshoeLocalScale resamples the local scales:
// local_j^2 ~ InverseGamma(1, 1/latent_j + coef_j^2 / (2 global_j^2 normalizer)).
func horseshoeLocalScale(latent, global, coef *mat.VecDense, normalizer float64, rng *rand.Rand) *mat.VecDense {
	n := coef.Len()
	out := mat.NewVecDense(n, nil)
	for j := 0; j < n; j++ {
		g := global.AtVec(j)
		rate := 1/latent.AtVec(j) + coef.AtVec(j)*coef.AtVec(j)/(2*g*g*normalizer)
		draw := distuv.InverseGamma{Alpha: 1, Beta: rate, Src: rng}.Rand()
		out.SetVec(j, math.Sqrt(draw))
	}
	return out
}

// horseshoeGlobalScale resamples a single (ungrouped) global scale pooling
// every coefficient:
// global^2 ~ InverseGamma((p+1)/2, 1/latent + sum coef_j^2/(2 local_j^2 normalizer)).
func horseshoeGlobalScale(latent float64, local, coef *mat.VecDense, normalizer float64, rng *rand.Rand) float64 {
	p := coef.Len()
	rate := 1 / latent
	for j := 0; j < p; j++ {
		l := local.AtVec(j)
		rate += coef.AtVec(j) * coef.AtVec(j) / (2 * l * l * normalizer)
	}
	draw := distuv.InverseGamma{Alpha: (float64(p) + 1) / 2, Beta: rate, Src: rng}.Rand()
	return math.Sqrt(draw)
}

// horseshoeMNGlobalScale resamples one global scale per coefficient group,
// pooling only that group's members.
func horseshoeMNGlobalScale(grp []int, groups *groupIndex, latent, local, coef *mat.VecDense, normalizer float64, rng *rand.Rand) *mat.VecDense {
	numGrp := len(groups.ids)
	count := make([]float64, numGrp)
	rate := make([]float64, numGrp)
	for g := 0; g < numGrp; g++ {
		rate[g] = 1 / latent.AtVec(g)
	}
	for j, id := range grp {
		g := groups.pos[id]
		l := local.AtVec(j)
		rate[g] += coef.AtVec(j) * coef.AtVec(j) / (2 * l * l * normalizer)
		count[g]++
	}
	out := mat.NewVecDense(numGrp, nil)
	for g := 0; g < numGrp; g++ {
		draw := distuv.InverseGamma{Alpha: (count[g] + 1) / 2, Beta: rate[g], Src: rng}.Rand()
		out.SetVec(g, math.Sqrt(draw))
	}
	return out
}
