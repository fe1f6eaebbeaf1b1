package fitter

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"goimpute/domain/core"
	"goimpute/ports"
)

// fitLogistic finds the MAP estimate of a logistic regression under a
// zero-mean Gaussian prior via Newton iterations, then takes the Laplace
// approximation: posterior covariance is the inverse Hessian at the mode.
func (f *BayesFitter) fitLogistic(design *mat.Dense, y []float64, terms []string) (*ports.PosteriorSummary, error) {
	n, p := design.Dims()

	beta := make([]float64, p)
	eta := make([]float64, n)
	prob := make([]float64, n)

	var chol mat.Cholesky
	hess := mat.NewSymDense(p, nil)
	grad := mat.NewVecDense(p, nil)
	step := mat.NewVecDense(p, nil)

	iters := 0
	for iter := 0; iter < f.cfg.MaxIterations; iter++ {
		iters = iter + 1

		for r := 0; r < n; r++ {
			var e float64
			for j := 0; j < p; j++ {
				e += design.At(r, j) * beta[j]
			}
			eta[r] = e
			prob[r] = sigmoid(e)
		}

		// Gradient of the log posterior: X'(y - p) - lambda*beta.
		for j := 0; j < p; j++ {
			var g float64
			for r := 0; r < n; r++ {
				g += design.At(r, j) * (y[r] - prob[r])
			}
			grad.SetVec(j, g-f.cfg.PriorPrecision*beta[j])
		}

		// Negative Hessian: X'WX + lambda I with W = p(1-p).
		for i := 0; i < p; i++ {
			for j := i; j < p; j++ {
				var h float64
				for r := 0; r < n; r++ {
					w := prob[r] * (1 - prob[r])
					h += w * design.At(r, i) * design.At(r, j)
				}
				if i == j {
					h += f.cfg.PriorPrecision
				}
				hess.SetSym(i, j, h)
			}
		}

		if ok := chol.Factorize(hess); !ok {
			return nil, core.NewModelFitError("logistic Hessian is not positive definite", nil)
		}
		if err := chol.SolveVecTo(step, grad); err != nil {
			return nil, core.NewModelFitError("solving Newton step", err)
		}

		var maxStep float64
		for j := 0; j < p; j++ {
			s := step.AtVec(j)
			beta[j] += s
			if a := math.Abs(s); a > maxStep {
				maxStep = a
			}
		}
		if maxStep < f.cfg.Tolerance {
			break
		}
		if iter == f.cfg.MaxIterations-1 {
			return nil, core.NewModelFitError("logistic fit did not converge", nil)
		}
	}

	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nil, core.NewModelFitError("inverting logistic Hessian", err)
	}

	cov := make([][]float64, p)
	for i := 0; i < p; i++ {
		cov[i] = make([]float64, p)
		for j := 0; j < p; j++ {
			cov[i][j] = inv.At(i, j)
		}
	}

	return &ports.PosteriorSummary{
		Family:       ports.FamilyLogistic,
		Terms:        terms,
		Coefficients: beta,
		Covariance:   cov,
		Iterations:   iters,
	}, nil
}

// predictLogistic returns the posterior-predictive success probability per
// row using MacKay's probit moderation: the linear predictor is shrunk by its
// posterior spread before the sigmoid, which keeps probabilities honest for
// rows the training data constrains weakly.
func predictLogistic(post *ports.PosteriorSummary, rows [][]float64) *ports.PredictiveSummary {
	p := len(post.Coefficients)
	out := &ports.PredictiveSummary{
		Mean:     make([]float64, len(rows)),
		Variance: make([]float64, len(rows)),
	}
	for i, row := range rows {
		x := interceptRow(row, p)
		var mu float64
		for j := 0; j < p; j++ {
			mu += x[j] * post.Coefficients[j]
		}
		s2 := quadraticForm(x, post.Covariance)
		kappa := 1 / math.Sqrt(1+math.Pi*s2/8)
		pr := sigmoid(kappa * mu)
		out.Mean[i] = pr
		out.Variance[i] = pr * (1 - pr)
	}
	return out
}

func sigmoid(x float64) float64 {
	// Split on sign to avoid overflow in exp for large |x|.
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}
