package fitter

import (
	"gonum.org/v1/gonum/mat"

	"goimpute/domain/core"
	"goimpute/ports"
)

// fitLinear runs a conjugate Gaussian update: a zero-mean Gaussian prior with
// precision lambda on every coefficient yields the ridge-stabilized normal
// equations (X'X + lambda I) beta = X'y. The posterior covariance is the
// residual variance times the inverse of that precision matrix.
func (f *BayesFitter) fitLinear(design *mat.Dense, y []float64, terms []string) (*ports.PosteriorSummary, error) {
	n, p := design.Dims()

	prec := mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			var s float64
			for r := 0; r < n; r++ {
				s += design.At(r, i) * design.At(r, j)
			}
			if i == j {
				s += f.cfg.PriorPrecision
			}
			prec.SetSym(i, j, s)
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(prec); !ok {
		return nil, core.NewModelFitError("design precision matrix is not positive definite", nil)
	}

	xty := mat.NewVecDense(p, nil)
	for j := 0; j < p; j++ {
		var s float64
		for r := 0; r < n; r++ {
			s += design.At(r, j) * y[r]
		}
		xty.SetVec(j, s)
	}

	beta := mat.NewVecDense(p, nil)
	if err := chol.SolveVecTo(beta, xty); err != nil {
		return nil, core.NewModelFitError("solving normal equations", err)
	}

	// Residual variance with degrees-of-freedom correction, floored so a
	// perfect in-sample fit still yields a proper predictive distribution.
	var rss float64
	for r := 0; r < n; r++ {
		pred := 0.0
		for j := 0; j < p; j++ {
			pred += design.At(r, j) * beta.AtVec(j)
		}
		d := y[r] - pred
		rss += d * d
	}
	df := n - p
	if df < 1 {
		df = 1
	}
	sigma2 := rss / float64(df)
	if sigma2 < minResidualVariance {
		sigma2 = minResidualVariance
	}

	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nil, core.NewModelFitError("inverting coefficient precision", err)
	}

	coefs := make([]float64, p)
	cov := make([][]float64, p)
	for i := 0; i < p; i++ {
		coefs[i] = beta.AtVec(i)
		cov[i] = make([]float64, p)
		for j := 0; j < p; j++ {
			cov[i][j] = sigma2 * inv.At(i, j)
		}
	}

	return &ports.PosteriorSummary{
		Family:           ports.FamilyLinear,
		Terms:            terms,
		Coefficients:     coefs,
		Covariance:       cov,
		ResidualVariance: sigma2,
		Iterations:       1,
	}, nil
}

// predictLinear returns the posterior-predictive mean and variance for each
// row: x'beta and sigma2 + x'Cov x. The second term propagates coefficient
// uncertainty so rows far from the training mass get wider intervals.
func predictLinear(post *ports.PosteriorSummary, rows [][]float64) *ports.PredictiveSummary {
	p := len(post.Coefficients)
	out := &ports.PredictiveSummary{
		Mean:     make([]float64, len(rows)),
		Variance: make([]float64, len(rows)),
	}
	for i, row := range rows {
		x := interceptRow(row, p)
		var mean float64
		for j := 0; j < p; j++ {
			mean += x[j] * post.Coefficients[j]
		}
		out.Mean[i] = mean
		out.Variance[i] = post.ResidualVariance + quadraticForm(x, post.Covariance)
	}
	return out
}

// quadraticForm computes x' M x for a square matrix in slice-of-slices form.
func quadraticForm(x []float64, m [][]float64) float64 {
	var q float64
	for i := range x {
		var inner float64
		for j := range x {
			inner += m[i][j] * x[j]
		}
		q += x[i] * inner
	}
	return q
}

// interceptRow prepends the intercept slot to a covariate row.
func interceptRow(row []float64, p int) []float64 {
	x := make([]float64, p)
	x[0] = 1
	copy(x[1:], row)
	return x
}
