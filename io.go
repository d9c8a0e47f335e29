// Project: Bayesian Estimation of VAR Models with Stochastic Volatility
// A Gibbs sampler with Minnesota, SSVS, and Horseshoe shrinkage priors

package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// LoadCSVToTimeSeries loads a CSV file into a TimeSeries struct.
func LoadCSVToTimeSeries(path string) (*TimeSeries, error) {
	// 1. Open file
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	// 2. Make CSV reader
	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	// 3. Read header row
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) == 0 {
		return nil, fmt.Errorf("empty header in %s", path)
	}
	K := len(header) // number of variables

	var (
		data  []float64 // flat data for mat.Dense
		times []float64 // time index
		row   int       // row counter
	)

	// 4. Read each data row
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row+2, err) // +2 for header + 1-based
		}

		// Skip completely empty lines
		if len(record) == 1 && record[0] == "" {
			continue
		}

		if len(record) != K {
			return nil, fmt.Errorf(
				"row %d: expected %d columns, got %d",
				row+2, K, len(record),
			)
		}

		for j, s := range record {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf(
					"parse float at row %d col %d (%q): %w",
					row+2, j+1, s, err,
				)
			}
			data = append(data, v)
		}

		// Simple time index: 0,1,2,...
		times = append(times, float64(row))
		row++
	}

	if row == 0 {
		return nil, fmt.Errorf("no data rows in %s", path)
	}

	T := row

	// 5. Build mat.Dense
	Y := mat.NewDense(T, K, data)

	// 6. Build TimeSeries
	ts := &TimeSeries{
		Y:        Y,
		Time:     times,
		VarNames: header,
	}

	return ts, nil
}

// BuildDesign stacks the VAR regression pair from raw data: row t of the
// response holds y_t, row t of the design holds (y_{t-1}, ..., y_{t-p}) and,
// when includeMean is set, a trailing intercept column of ones.
func BuildDesign(ts *TimeSeries, lags int, includeMean bool) (x, y *mat.Dense, err error) {
	if ts == nil || ts.Y == nil {
		return nil, nil, fmt.Errorf("time series data must be provided")
	}
	T, K := ts.Y.Dims()
	if lags < 1 {
		return nil, nil, fmt.Errorf("lag order must be >= 1, got %d", lags)
	}
	if T <= lags {
		return nil, nil, fmt.Errorf("need more than %d observations for %d lags, got %d", lags, lags, T)
	}

	n := T - lags
	dimDesign := K * lags
	if includeMean {
		dimDesign++
	}

	x = mat.NewDense(n, dimDesign, nil)
	y = mat.NewDense(n, K, nil)
	for t := 0; t < n; t++ {
		for j := 0; j < K; j++ {
			y.Set(t, j, ts.Y.At(t+lags, j))
		}
		for ell := 1; ell <= lags; ell++ {
			for j := 0; j < K; j++ {
				x.Set(t, (ell-1)*K+j, ts.Y.At(t+lags-ell, j))
			}
		}
		if includeMean {
			x.Set(t, dimDesign-1, 1)
		}
	}
	return x, y, nil
}

// OutputTrajectoryToCSV writes one posterior trajectory (rows = draws) to a
// CSV file with prefix1, prefix2, ... column names.
func OutputTrajectoryToCSV(path string, m *mat.Dense, prefix string) error {
	rows, cols := m.Dims()

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	// Initialize a new CSV writer
	writer := csv.NewWriter(file)
	defer writer.Flush() // Ensure all buffered data is written

	// Write header
	header := make([]string, cols)
	for j := 0; j < cols; j++ {
		header[j] = fmt.Sprintf("%s%d", prefix, j+1)
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	// Write data rows
	for i := 0; i < rows; i++ {
		record := make([]string, cols)
		for j := 0; j < cols; j++ {
			record[j] = fmt.Sprintf("%f", m.At(i, j))
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// OutputRecordToCSVs writes every trajectory the run produced into dir, one
// CSV per trajectory. Regime extras are written only when present.
func OutputRecordToCSVs(dir string, rec *GibbsRecord) error {
	if rec == nil {
		return fmt.Errorf("record must be provided")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	out := []struct {
		name   string
		m      *mat.Dense
		prefix string
	}{
		{"coef.csv", rec.Coef, "alpha"},
		{"contem_coef.csv", rec.ContemCoef, "a"},
		{"log_vol.csv", rec.LogVol, "h"},
		{"log_vol_init.csv", rec.LogVolInit, "h0_"},
		{"log_vol_sig.csv", rec.LogVolSig, "sigh"},
		{"coef_dummy.csv", rec.CoefDummy, "gamma"},
		{"coef_weight.csv", rec.CoefWeight, "omega"},
		{"contem_dummy.csv", rec.ContemDummy, "gamma_a"},
		{"contem_weight.csv", rec.ContemWeight, "omega_a"},
		{"local_scale.csv", rec.LocalScale, "lambda"},
		{"global_scale.csv", rec.GlobalScale, "tau"},
		{"shrink_factor.csv", rec.ShrinkFactor, "kappa"},
	}
	for _, o := range out {
		if o.m == nil {
			continue
		}
		if err := OutputTrajectoryToCSV(filepath.Join(dir, o.name), o.m, o.prefix); err != nil {
			return fmt.Errorf("write %s: %w", o.name, err)
		}
	}
	return nil
}

// columnMeans averages each column of m over its rows.
func columnMeans(m *mat.Dense) []float64 {
	rows, cols := m.Dims()
	means := make([]float64, cols)
	for j := 0; j < cols; j++ {
		s := 0.0
		for i := 0; i < rows; i++ {
			s += m.At(i, j)
		}
		means[j] = s / float64(rows)
	}
	return means
}

// PrintPosteriorSummary prints the posterior coefficient means as lag
// matrices plus the loading and volatility-variance means.
func PrintPosteriorSummary(rec *GibbsRecord, varNames []string, lags int, includeMean bool) {
	if rec == nil || rec.Coef == nil {
		fmt.Println("no posterior draws to summarize")
		return
	}
	dim := len(varNames)
	kept, _ := rec.Coef.Dims()
	dimDesign := dim * lags
	if includeMean {
		dimDesign++
	}

	fmt.Println("      Bayesian VAR-SV Posterior Summary    ")
	fmt.Printf("Number of variables (K): %d\n", dim)
	fmt.Printf("Lag order (p):           %d\n", lags)
	fmt.Printf("Kept posterior draws:    %d\n", kept)
	fmt.Println()
	fmt.Println("Variables:")
	fmt.Printf("  %s\n", strings.Join(varNames, ", "))
	fmt.Println()

	// Posterior mean of the coefficient matrix, column-major vectorized
	coefMeans := columnMeans(rec.Coef)
	coefMat := mat.NewDense(dimDesign, dim, nil)
	for j := 0; j < dim; j++ {
		for q := 0; q < dimDesign; q++ {
			coefMat.Set(q, j, coefMeans[j*dimDesign+q])
		}
	}

	fmt.Println("Posterior mean coefficient matrices A_1 ... A_p:")
	for ell := 0; ell < lags; ell++ {
		block := coefMat.Slice(ell*dim, (ell+1)*dim, 0, dim)
		fmt.Printf("\nA_%d =\n", ell+1)
		fmt.Printf("%v\n", mat.Formatted(block.T(), mat.Prefix("  ")))
	}
	if includeMean {
		fmt.Println("\nPosterior mean intercepts:")
		for j := 0; j < dim; j++ {
			fmt.Printf("  %s: %f\n", varNames[j], coefMat.At(dimDesign-1, j))
		}
	}
	fmt.Println()

	if rec.ContemCoef != nil {
		fmt.Println("Posterior mean Cholesky-factor loadings (row-wise lower triangle):")
		for _, v := range columnMeans(rec.ContemCoef) {
			fmt.Printf("  %f", v)
		}
		fmt.Println()
		fmt.Println()
	}

	fmt.Println("Posterior mean volatility innovation variances:")
	sigMeans := columnMeans(rec.LogVolSig)
	for j := 0; j < dim; j++ {
		fmt.Printf("  %s: %f\n", varNames[j], sigMeans[j])
	}
	fmt.Println("===========================================")
}
