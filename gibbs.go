// Project: Bayesian Estimation of VAR Models with Stochastic Volatility
// A Gibbs sampler with Minnesota, SSVS, and Horseshoe shrinkage priors

package main

import (
	"context"
	"fmt"
	"math"
	"sync"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// Fixed volatility-block priors: sigma_h^2 ~ IG(svPriorShape, svPriorScale)
// and h0 ~ N(svInitPriorMean, 1/svInitPriorPrec) per equation.
const (
	svPriorShape    = 3.0
	svPriorScale    = 0.01
	svInitPriorMean = 1.0
	svInitPriorPrec = 0.1
)

// gibbsRun bundles the immutable inputs of one sampling run plus the scratch
// rebuilt every iteration.
type gibbsRun struct {
	d      varDims
	x, y   *mat.Dense
	prior  PriorConfig
	ps     *priorState
	groups *groupIndex
	opts   GibbsOptions

	rng   *rand.Rand
	eqRng []*rand.Rand // one independent stream per equation (SV step)

	coefDesign *mat.Dense    // (n*dim) x numCoef, time-major blocks
	respVec    *mat.VecDense // n*dim stacked responses

	svShape, svScale       *mat.VecDense
	svInitMean, svInitPrec *mat.VecDense

	// iteration scratch
	cholLower   *mat.Dense // L from the previous iteration's loadings
	latentInnov *mat.Dense // residuals under the just-drawn coefficients
}

// gibbsRecords holds the full append-only trajectories, one row per
// iteration (0..NumIter). Regime extras stay nil outside their regime.
type gibbsRecords struct {
	d varDims

	coef, contem            *mat.Dense
	lvol, lvolInit, lvolSig *mat.Dense

	coefDummy, coefWeight     *mat.Dense
	contemDummy, contemWeight *mat.Dense

	local, global, shrink *mat.Dense
}

func newGibbsRecords(prior PriorConfig, d varDims, numIter int) *gibbsRecords {
	rows := numIter + 1
	r := &gibbsRecords{d: d}
	r.coef = mat.NewDense(rows, d.numCoef, nil)
	r.contem = mat.NewDense(rows, d.numLowerChol, nil)
	r.lvol = mat.NewDense(rows*d.numDesign, d.dim, nil)
	r.lvolInit = mat.NewDense(rows, d.dim, nil)
	r.lvolSig = mat.NewDense(rows, d.dim, nil)
	switch prior.(type) {
	case *SSVSConfig:
		r.coefDummy = mat.NewDense(rows, d.numAlpha, nil)
		r.coefWeight = mat.NewDense(rows, d.numGrp, nil)
		r.contemDummy = mat.NewDense(rows, d.numLowerChol, nil)
		r.contemWeight = mat.NewDense(rows, d.numLowerChol, nil)
	case *HorseshoeConfig:
		r.local = mat.NewDense(rows, d.numCoef, nil)
		r.global = mat.NewDense(rows, d.numGrp, nil)
		r.shrink = mat.NewDense(rows, d.numCoef, nil)
	}
	return r
}

func setRowVec(m *mat.Dense, i int, v *mat.VecDense) {
	for j := 0; j < v.Len(); j++ {
		m.Set(i, j, v.AtVec(j))
	}
}

// store appends the state of iteration i to every trajectory.
func (r *gibbsRecords) store(i int, s *gibbsState) {
	setRowVec(r.coef, i, s.coef)
	setRowVec(r.contem, i, s.contem)
	for t := 0; t < r.d.numDesign; t++ {
		for j := 0; j < r.d.dim; j++ {
			r.lvol.Set(i*r.d.numDesign+t, j, s.logVol.At(t, j))
		}
	}
	setRowVec(r.lvolInit, i, s.logVolInit)
	setRowVec(r.lvolSig, i, s.logVolSig)
	if r.coefDummy != nil {
		setRowVec(r.coefDummy, i, s.coefDummy)
		setRowVec(r.coefWeight, i, s.coefWeight)
		setRowVec(r.contemDummy, i, s.contemDummy)
		setRowVec(r.contemWeight, i, s.contemWeight)
	}
	if r.local != nil {
		setRowVec(r.local, i, s.local)
		setRowVec(r.global, i, s.global)
		setRowVec(r.shrink, i, s.shrink)
	}
}

func copyRows(m *mat.Dense, first, last int) *mat.Dense {
	_, c := m.Dims()
	return mat.DenseCopyOf(m.Slice(first, last+1, 0, c))
}

// bundle copies rows first..last of every trajectory into the returned
// record. The volatility path always keeps every drawn row from iteration 0,
// so the field set (and the path contract) is identical whether the run
// completed, was cancelled, or hit a numerical fault.
func (r *gibbsRecords) bundle(first, last int) *GibbsRecord {
	out := &GibbsRecord{
		Coef:       copyRows(r.coef, first, last),
		LogVol:     copyRows(r.lvol, 0, (last+1)*r.d.numDesign-1),
		ContemCoef: copyRows(r.contem, first, last),
		LogVolInit: copyRows(r.lvolInit, first, last),
		LogVolSig:  copyRows(r.lvolSig, first, last),
	}
	if r.coefDummy != nil {
		out.CoefDummy = copyRows(r.coefDummy, first, last)
		out.CoefWeight = copyRows(r.coefWeight, first, last)
		out.ContemDummy = copyRows(r.contemDummy, first, last)
		out.ContemWeight = copyRows(r.contemWeight, first, last)
	}
	if r.local != nil {
		out.LocalScale = copyRows(r.local, first, last)
		out.GlobalScale = copyRows(r.global, first, last)
		out.ShrinkFactor = copyRows(r.shrink, first, last)
	}
	return out
}

// EstimateVARSV runs the VAR-SV Gibbs sampler: per iteration it draws, in
// fixed order, the coefficients, the log-volatility path, the Cholesky-factor
// loadings, the volatility innovation variances and the initial volatility
// states, each conditioning on the freshest available state. x and y are the
// design and response matrices built upstream (x rows are lagged responses,
// intercept column last when opts.IncludeMean is set).
//
// The context is polled once per iteration boundary; cancellation is not an
// error and returns the trajectories accumulated so far untrimmed, with the
// same field set as a completed run. A numerical fault mid-run returns the
// same partial bundle together with the error.
func EstimateVARSV(ctx context.Context, x, y *mat.Dense, prior PriorConfig, grpIDs []int, grpMat *mat.Dense, opts GibbsOptions) (*GibbsRecord, error) {
	if x == nil || y == nil {
		return nil, fmt.Errorf("design and response matrices must be provided")
	}
	n, dim := y.Dims()
	nx, dimDesign := x.Dims()
	if nx != n {
		return nil, fmt.Errorf("design has %d rows but response has %d", nx, n)
	}
	if dim < 2 {
		return nil, fmt.Errorf("need at least 2 equations, got %d", dim)
	}
	if opts.NumIter <= 0 {
		return nil, fmt.Errorf("number of iterations must be > 0")
	}
	if opts.NumBurn < 0 || opts.NumBurn >= opts.NumIter {
		return nil, fmt.Errorf("burn-in must be in [0, %d), got %d", opts.NumIter, opts.NumBurn)
	}

	d := varDims{
		dim:          dim,
		dimDesign:    dimDesign,
		numDesign:    n,
		numCoef:      dim * dimDesign,
		numLowerChol: dim * (dim - 1) / 2,
		numGrp:       len(grpIDs),
	}
	d.numAlpha = d.numCoef
	if opts.IncludeMean {
		d.numAlpha -= dim
	}

	// SSVS and horseshoe need the group structure; Minnesota ignores it.
	var groups *groupIndex
	switch prior.(type) {
	case *SSVSConfig, *HorseshoeConfig:
		if len(grpIDs) == 0 || grpMat == nil {
			return nil, fmt.Errorf("group ids and group matrix are required for this prior regime")
		}
		var err error
		groups, err = buildGroupIndex(grpIDs, grpMat, d, opts.IncludeMean)
		if err != nil {
			return nil, err
		}
	}

	ps, err := buildPrior(prior, d, opts.IncludeMean, groups)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	eqRng := make([]*rand.Rand, dim)
	for j := range eqRng {
		eqRng[j] = rand.New(rand.NewSource(rng.Uint64()))
	}

	g := &gibbsRun{
		d:          d,
		x:          x,
		y:          y,
		prior:      prior,
		ps:         ps,
		groups:     groups,
		opts:       opts,
		rng:        rng,
		eqRng:      eqRng,
		coefDesign: buildCoefDesign(x, d),
		respVec:    stackRows(y),
		svShape:    constVec(dim, svPriorShape),
		svScale:    constVec(dim, svPriorScale),
		svInitMean: constVec(dim, svInitPriorMean),
		svInitPrec: constVec(dim, svInitPriorPrec),
	}

	cur, err := g.initialState()
	if err != nil {
		return nil, err
	}
	rec := newGibbsRecords(prior, d, opts.NumIter)
	rec.store(0, cur)

	for i := 1; i <= opts.NumIter; i++ {
		// Cooperative cancellation, polled once per iteration boundary.
		select {
		case <-ctx.Done():
			return rec.bundle(0, i-1), nil
		default:
		}

		nxt := &gibbsState{contemGlobal: cur.contemGlobal}
		g.cholLower = buildInvLower(dim, cur.contem)

		// 1. coefficients
		sigmaBlocks := buildSigmaBlocks(g.cholLower, cur.logVol)
		if err := g.drawCoefficients(cur, nxt, sigmaBlocks); err != nil {
			return rec.bundle(0, i-1), fmt.Errorf("iteration %d: %w", i, err)
		}
		// 2. log-volatility path
		if err := g.drawVolPath(cur, nxt); err != nil {
			return rec.bundle(0, i-1), fmt.Errorf("iteration %d: %w", i, err)
		}
		// 3. Cholesky-factor loadings
		if err := g.drawContem(cur, nxt); err != nil {
			return rec.bundle(0, i-1), fmt.Errorf("iteration %d: %w", i, err)
		}
		// 4. volatility innovation variance
		nxt.logVolSig = svDrawVariance(g.svShape, g.svScale, cur.logVolInit, nxt.logVol, g.rng)
		// 5. initial volatility state
		nxt.logVolInit = svDrawInit(g.svInitMean, g.svInitPrec, rowVec(nxt.logVol, 0), nxt.logVolSig, g.rng)

		cur = nxt
		rec.store(i, cur)
		if opts.Progress != nil {
			opts.Progress(i)
		}
	}

	return rec.bundle(opts.NumBurn+1, opts.NumIter), nil
}

// initialState seeds the chain: coefficients at OLS, loadings at zero, each
// initial log-volatility at the log mean squared residual replicated down
// the path, innovation variances at 0.1, and the shrinkage state at its
// configured starting point.
func (g *gibbsRun) initialState() (*gibbsState, error) {
	d := g.d
	var coefOLS mat.Dense
	if err := coefOLS.Solve(g.x, g.y); err != nil {
		return nil, fmt.Errorf("OLS initialization failed: %w", err)
	}
	var fitted, resid mat.Dense
	fitted.Mul(g.x, &coefOLS)
	resid.Sub(g.y, &fitted)

	s := &gibbsState{
		coef:       vectorize(&coefOLS),
		contem:     mat.NewVecDense(d.numLowerChol, nil),
		logVol:     mat.NewDense(d.numDesign, d.dim, nil),
		logVolInit: mat.NewVecDense(d.dim, nil),
		logVolSig:  constVec(d.dim, 0.1),
	}
	for j := 0; j < d.dim; j++ {
		ss := 0.0
		for t := 0; t < d.numDesign; t++ {
			ss += resid.At(t, j) * resid.At(t, j)
		}
		h0 := math.Log(ss / float64(d.numDesign))
		s.logVolInit.SetVec(j, h0)
		for t := 0; t < d.numDesign; t++ {
			s.logVol.Set(t, j, h0)
		}
	}

	switch cfg := g.prior.(type) {
	case *SSVSConfig:
		s.coefDummy = constVec(d.numAlpha, 1)
		s.coefWeight = mat.VecDenseCopyOf(cfg.CoefSlabWeight)
		s.contemDummy = constVec(d.numLowerChol, 1)
		s.contemWeight = mat.VecDenseCopyOf(cfg.CholSlabWeight)
	case *HorseshoeConfig:
		s.local = mat.VecDenseCopyOf(cfg.InitLocal)
		s.global = mat.VecDenseCopyOf(cfg.InitGlobal)
		s.contemLocal = mat.VecDenseCopyOf(cfg.InitContemLocal)
		s.contemGlobal = cfg.InitContemGlobal
		s.shrink = shrinkFactor(g.ps.alphaPrec)
	}
	return s, nil
}

// drawCoefficients performs the regime-specific prior update, draws the
// coefficient vector and resamples the coefficient shrinkage state.
func (g *gibbsRun) drawCoefficients(cur, nxt *gibbsState, sigmaBlocks []*mat.SymDense) error {
	d := g.d
	lagRows := d.numAlpha / d.dim

	switch cfg := g.prior.(type) {
	case *MinnesotaConfig:
		coef, err := regressionDraw(g.coefDesign, g.respVec, g.ps.alphaMean, g.ps.alphaPrec, sigmaBlocks, g.rng)
		if err != nil {
			return err
		}
		nxt.coef = coef

	case *SSVSConfig:
		// Conditional prior sd from the previous inclusion indicators, with
		// the unrestricted constant terms kept at their own sd.
		mixture := buildSSVSSd(cfg.CoefSpike, cfg.CoefSlab, cur.coefDummy)
		sd := mixture
		if g.opts.IncludeMean {
			sd = mat.NewVecDense(d.numCoef, nil)
			for j := 0; j < d.dim; j++ {
				for q := 0; q < lagRows; q++ {
					sd.SetVec(j*d.dimDesign+q, mixture.AtVec(j*lagRows+q))
				}
				sd.SetVec(j*d.dimDesign+lagRows, cfg.SdNonRestrict)
			}
		}
		for j := 0; j < d.numCoef; j++ {
			v := sd.AtVec(j)
			g.ps.alphaPrec.Set(j, j, 1/(v*v))
		}
		coef, err := regressionDraw(g.coefDesign, g.respVec, g.ps.alphaMean, g.ps.alphaPrec, sigmaBlocks, g.rng)
		if err != nil {
			return err
		}
		nxt.coef = coef

		coefMat := unvectorize(coef, d.dimDesign, d.dim)
		alphaLag := vectorize(coefMat.Slice(0, lagRows, 0, d.dim))
		slabWeight := expandGroupVec(g.groups.vecLag, g.groups.pos, cur.coefWeight)
		nxt.coefDummy = ssvsDummy(alphaLag, cfg.CoefSlab, cfg.CoefSpike, slabWeight, g.rng)
		nxt.coefWeight = ssvsMNWeight(g.groups.vecLag, g.groups, nxt.coefDummy, cfg.CoefS1, cfg.CoefS2, g.rng)

	case *HorseshoeConfig:
		globalVec := expandGroupVec(g.groups.vecFull, g.groups.pos, cur.global)
		g.ps.alphaPrec = buildShrinkMat(globalVec, cur.local)
		nxt.shrink = shrinkFactor(g.ps.alphaPrec)
		coef, err := regressionDraw(g.coefDesign, g.respVec, g.ps.alphaMean, g.ps.alphaPrec, sigmaBlocks, g.rng)
		if err != nil {
			return err
		}
		nxt.coef = coef

		latentLocal := horseshoeLatent(cur.local, g.rng)
		latentGlobal := horseshoeLatent(cur.global, g.rng)
		nxt.local = horseshoeLocalScale(latentLocal, globalVec, coef, 1, g.rng)
		nxt.global = horseshoeMNGlobalScale(g.groups.vecFull, g.groups, latentGlobal, nxt.local, coef, 1, g.rng)
	}
	return nil
}

// drawVolPath recomputes the residuals under the just-drawn coefficients,
// orthogonalizes them with the previous iteration's loadings and redraws the
// full log-volatility path of every equation. Equations are independent, so
// they fan out over the worker pool; every equation always consumes its own
// random stream, which keeps runs bit-identical for any worker count.
func (g *gibbsRun) drawVolPath(cur, nxt *gibbsState) error {
	d := g.d
	coefMat := unvectorize(nxt.coef, d.dimDesign, d.dim)
	var fitted mat.Dense
	fitted.Mul(g.x, coefMat)
	g.latentInnov = mat.NewDense(d.numDesign, d.dim, nil)
	g.latentInnov.Sub(g.y, &fitted)

	var ortho mat.Dense
	ortho.Mul(g.latentInnov, g.cholLower.T())
	obs := mat.NewDense(d.numDesign, d.dim, nil)
	for t := 0; t < d.numDesign; t++ {
		for j := 0; j < d.dim; j++ {
			e := ortho.At(t, j)
			obs.Set(t, j, math.Log(e*e+logSqOffset))
		}
	}

	nxt.logVol = mat.NewDense(d.numDesign, d.dim, nil)
	draw := func(j int) (*mat.VecDense, error) {
		return svDrawPath(colVec(cur.logVol, j), cur.logVolInit.AtVec(j), cur.logVolSig.AtVec(j), colVec(obs, j), g.eqRng[j])
	}

	workers := g.opts.Workers
	if workers > d.dim {
		workers = d.dim
	}
	if workers <= 1 {
		for j := 0; j < d.dim; j++ {
			path, err := draw(j)
			if err != nil {
				return err
			}
			setCol(nxt.logVol, j, path)
		}
		return nil
	}

	// Caller-sized worker pool; all workers join before the loading step.
	jobs := make(chan int)
	paths := make([]*mat.VecDense, d.dim)
	errs := make([]error, d.dim)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				paths[j], errs[j] = draw(j)
			}
		}()
	}
	for j := 0; j < d.dim; j++ {
		jobs <- j
	}
	close(jobs)
	wg.Wait()

	for j := 0; j < d.dim; j++ {
		if errs[j] != nil {
			return errs[j]
		}
		setCol(nxt.logVol, j, paths[j])
	}
	return nil
}

// drawContem resamples the loading shrinkage state, rebuilds the loading
// prior precision and draws the strictly-lower-triangular loadings from a
// regression of each residual on the (sign-flipped) leading residuals of the
// same time point, weighted by the just-drawn volatilities.
func (g *gibbsRun) drawContem(cur, nxt *gibbsState) error {
	d := g.d

	switch cfg := g.prior.(type) {
	case *SSVSConfig:
		nxt.contemDummy = ssvsDummy(cur.contem, cfg.CholSlab, cfg.CholSpike, cur.contemWeight, g.rng)
		w := ssvsWeight(nxt.contemDummy, cfg.CholS1, cfg.CholS2, g.rng)
		nxt.contemWeight = constVec(d.numLowerChol, w)
		sd := buildSSVSSd(cfg.CholSpike, cfg.CholSlab, nxt.contemDummy)
		for j := 0; j < d.numLowerChol; j++ {
			v := sd.AtVec(j)
			g.ps.cholPrec.Set(j, j, 1/(v*v))
		}
	case *HorseshoeConfig:
		latentLocal := horseshoeLatent(cur.contemLocal, g.rng)
		latentGlobal := horseshoeLatentScalar(cur.contemGlobal, g.rng)
		globalRep := constVec(d.numLowerChol, cur.contemGlobal)
		nxt.contemLocal = horseshoeLocalScale(latentLocal, globalRep, cur.contem, 1, g.rng)
		nxt.contemGlobal = horseshoeGlobalScale(latentGlobal, nxt.contemLocal, cur.contem, 1, g.rng)
		g.ps.cholPrec = buildShrinkMat(globalRep, nxt.contemLocal)
	}

	// Design: row j of time point t carries -eps_{t,0..j-1} in the slots of
	// a_{j,0..j-1}; the response is eps_t itself.
	design := mat.NewDense(d.numDesign*d.dim, d.numLowerChol, nil)
	for t := 0; t < d.numDesign; t++ {
		for j := 1; j < d.dim; j++ {
			offset := j * (j - 1) / 2
			for k := 0; k < j; k++ {
				design.Set(t*d.dim+j, offset+k, -g.latentInnov.At(t, k))
			}
		}
	}
	resp := stackRows(g.latentInnov)
	blocks := buildDiagBlocks(nxt.logVol)

	contem, err := regressionDraw(design, resp, g.ps.cholMean, g.ps.cholPrec, blocks, g.rng)
	if err != nil {
		return err
	}
	nxt.contem = contem
	return nil
}

// buildCoefDesign lays the design matrix out time-major: the dim rows of
// time point t form a block-diagonal pattern with x_t repeated once per
// equation, matching the column-major coefficient vectorization.
func buildCoefDesign(x *mat.Dense, d varDims) *mat.Dense {
	out := mat.NewDense(d.numDesign*d.dim, d.numCoef, nil)
	for t := 0; t < d.numDesign; t++ {
		for j := 0; j < d.dim; j++ {
			for q := 0; q < d.dimDesign; q++ {
				out.Set(t*d.dim+j, j*d.dimDesign+q, x.At(t, q))
			}
		}
	}
	return out
}

// stackRows flattens m time-major: row t of m occupies entries
// t*cols..(t+1)*cols-1.
func stackRows(m *mat.Dense) *mat.VecDense {
	r, c := m.Dims()
	v := mat.NewVecDense(r*c, nil)
	for t := 0; t < r; t++ {
		for j := 0; j < c; j++ {
			v.SetVec(t*c+j, m.At(t, j))
		}
	}
	return v
}

// buildSigmaBlocks assembles the per-time-point residual precision
// Sigma_t^-1 = L^T D_t^-1 L with D_t^-1 = diag(exp(-h_t)).
func buildSigmaBlocks(cholLower *mat.Dense, logVol *mat.Dense) []*mat.SymDense {
	n, dim := logVol.Dims()
	blocks := make([]*mat.SymDense, n)
	dinv := make([]float64, dim)
	for t := 0; t < n; t++ {
		for j := 0; j < dim; j++ {
			dinv[j] = math.Exp(-logVol.At(t, j))
		}
		b := mat.NewSymDense(dim, nil)
		for a := 0; a < dim; a++ {
			for c := a; c < dim; c++ {
				s := 0.0
				for j := 0; j < dim; j++ {
					s += cholLower.At(j, a) * dinv[j] * cholLower.At(j, c)
				}
				b.SetSym(a, c, s)
			}
		}
		blocks[t] = b
	}
	return blocks
}

// buildDiagBlocks assembles the orthogonalized residual precision
// D_t^-1 = diag(exp(-h_t)) per time point.
func buildDiagBlocks(logVol *mat.Dense) []*mat.SymDense {
	n, dim := logVol.Dims()
	blocks := make([]*mat.SymDense, n)
	for t := 0; t < n; t++ {
		b := mat.NewSymDense(dim, nil)
		for j := 0; j < dim; j++ {
			b.SetSym(j, j, math.Exp(-logVol.At(t, j)))
		}
		blocks[t] = b
	}
	return blocks
}
