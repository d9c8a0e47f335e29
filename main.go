// Project: Bayesian Estimation of VAR Models with Stochastic Volatility
// A Gibbs sampler with Minnesota, SSVS, and Horseshoe shrinkage priors

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// This is the main function that runs the Bayesian VAR-SV estimation for the
// specified data file and shrinkage prior. The function expects five
// command-line arguments: the CSV path, the prior regime (minnesota, ssvs or
// horseshoe), the lag order, the number of Gibbs iterations and the burn-in.
// It loads the CSV data, builds the lagged design, runs the Gibbs sampler
// (interruptible with Ctrl-C; a partial chain is still written out), prints a
// posterior summary and outputs every trajectory to CSV files.

func main() {
	// expect 5 arguments: csv path, prior, lags, iterations, burn-in
	if len(os.Args) < 6 {
		fmt.Println("Usage: go run main.go <csv_path> <minnesota|ssvs|horseshoe> <lags> <num_iter> <num_burn>")
		return
	}
	csvPath := os.Args[1]
	priorName := os.Args[2]
	lags := mustAtoi(os.Args[3], "lags")
	numIter := mustAtoi(os.Args[4], "num_iter")
	numBurn := mustAtoi(os.Args[5], "num_burn")

	fmt.Println("Running Bayesian VAR-SV estimation with prior:", priorName)

	// 1. Load CSV into TimeSeries
	ts, err := LoadCSVToTimeSeries(csvPath)
	if err != nil {
		panic(err)
	}
	fmt.Println("Loaded series with", ts.Y.RawMatrix().Rows, "rows and",
		ts.Y.RawMatrix().Cols, "variables:", ts.VarNames)

	// 2. Build the lagged design with an intercept column
	includeMean := true
	x, y, err := BuildDesign(ts, lags, includeMean)
	if err != nil {
		panic(err)
	}
	_, dim := y.Dims()
	_, dimDesign := x.Dims()

	// 3. Default group structure: one group per lag, group 0 for the constant
	grpIDs, grpMat := defaultGroups(dim, dimDesign, lags, includeMean)

	// 4. Default hyperparameters for the chosen regime
	prior, err := defaultPrior(priorName, dim, dimDesign, lags, includeMean)
	if err != nil {
		panic(err)
	}

	// 5. Run the Gibbs sampler, interruptible with Ctrl-C
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := GibbsOptions{
		NumIter:     numIter,
		NumBurn:     numBurn,
		IncludeMean: includeMean,
		Seed:        12345,
		Workers:     runtime.NumCPU(),
	}
	rec, err := EstimateVARSV(ctx, x, y, prior, grpIDs, grpMat, opts)
	if err != nil {
		panic(err)
	}
	if ctx.Err() != nil {
		kept, _ := rec.Coef.Dims()
		fmt.Println("Interrupted; keeping the", kept, "draws completed so far")
	}

	// 6. Print posterior summary
	PrintPosteriorSummary(rec, ts.VarNames, lags, includeMean)

	// 7. Output all trajectories to CSV
	outDir := "output"
	if err := OutputRecordToCSVs(outDir, rec); err != nil {
		panic(err)
	}
	fmt.Println("Posterior trajectories written to", outDir+string(os.PathSeparator))
}

func mustAtoi(s, name string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		panic(fmt.Errorf("argument %s must be an integer, got %q", name, s))
	}
	return v
}

// defaultGroups assigns every coefficient of lag block ell to group ell and
// the constant terms to group 0.
func defaultGroups(dim, dimDesign, lags int, includeMean bool) ([]int, *mat.Dense) {
	grpMat := mat.NewDense(dimDesign, dim, nil)
	for ell := 1; ell <= lags; ell++ {
		for q := (ell - 1) * dim; q < ell*dim; q++ {
			for j := 0; j < dim; j++ {
				grpMat.Set(q, j, float64(ell))
			}
		}
	}
	grpIDs := make([]int, 0, lags+1)
	if includeMean {
		grpIDs = append(grpIDs, 0) // intercept row stays zero in grpMat
	}
	for ell := 1; ell <= lags; ell++ {
		grpIDs = append(grpIDs, ell)
	}
	return grpIDs, grpMat
}

// defaultPrior builds reasonable starting hyperparameters for each regime.
func defaultPrior(name string, dim, dimDesign, lags int, includeMean bool) (PriorConfig, error) {
	numCoef := dim * dimDesign
	numAlpha := numCoef
	if includeMean {
		numAlpha -= dim
	}
	numLowerChol := dim * (dim - 1) / 2
	numGrp := lags
	if includeMean {
		numGrp++
	}

	switch name {
	case "minnesota":
		return &MinnesotaConfig{
			CoefMean: mat.NewDense(dimDesign, dim, nil),
			CoefPrec: eye(dimDesign),
			PrecDiag: eye(dim),
		}, nil
	case "ssvs":
		return &SSVSConfig{
			CoefSpike:       constVec(numAlpha, 0.1),
			CoefSlab:        constVec(numAlpha, 5),
			CoefSlabWeight:  constVec(numGrp, 0.5),
			CoefS1:          1,
			CoefS2:          1,
			CholSpike:       constVec(numLowerChol, 0.1),
			CholSlab:        constVec(numLowerChol, 5),
			CholSlabWeight:  constVec(numLowerChol, 0.5),
			CholS1:          1,
			CholS2:          1,
			MeanNonRestrict: mat.NewVecDense(dim, nil),
			SdNonRestrict:   10,
		}, nil
	case "horseshoe":
		return &HorseshoeConfig{
			InitLocal:        constVec(numCoef, 1),
			InitGlobal:       constVec(numGrp, 1),
			InitContemLocal:  constVec(numLowerChol, 1),
			InitContemGlobal: 1,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported prior %q, options: minnesota, ssvs, horseshoe", name)
	}
}
