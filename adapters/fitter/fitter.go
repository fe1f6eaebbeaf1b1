// Package fitter implements the model-fitting capability with closed-form
// Bayesian updates on gonum: conjugate Gaussian regression for numeric
// responses and Laplace-approximated logistic regression for binary ones.
package fitter

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"goimpute/domain/core"
	"goimpute/ports"
)

// minResidualVariance floors the linear residual variance so degenerate
// in-sample fits still produce a proper predictive distribution.
const minResidualVariance = 1e-9

// Config controls the prior and the Newton solver.
type Config struct {
	// PriorPrecision is the Gaussian prior precision (lambda) applied to
	// every coefficient including the intercept.
	PriorPrecision float64
	// MaxIterations bounds the Newton loop for the logistic family.
	MaxIterations int
	// Tolerance is the max-abs-step convergence criterion.
	Tolerance float64
}

// DefaultConfig returns a weakly informative prior with standard solver limits.
func DefaultConfig() Config {
	return Config{
		PriorPrecision: 1e-2,
		MaxIterations:  50,
		Tolerance:      1e-8,
	}
}

// BayesFitter implements ports.ModelFitterPort. All state lives on the
// request/response path, so concurrent fits are safe.
type BayesFitter struct {
	cfg Config
}

// NewBayesFitter creates a fitter, filling zero config fields with defaults.
func NewBayesFitter(cfg Config) *BayesFitter {
	def := DefaultConfig()
	if cfg.PriorPrecision <= 0 {
		cfg.PriorPrecision = def.PriorPrecision
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = def.MaxIterations
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = def.Tolerance
	}
	return &BayesFitter{cfg: cfg}
}

// Fit dispatches on the requested family after validating request shape.
func (f *BayesFitter) Fit(ctx context.Context, req ports.FitRequest) (*ports.PosteriorSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	design, y, terms, err := buildDesign(req)
	if err != nil {
		return nil, err
	}

	switch req.Family {
	case ports.FamilyLinear:
		return f.fitLinear(design, y, terms)
	case ports.FamilyLogistic:
		return f.fitLogistic(design, y, terms)
	default:
		return nil, core.NewModelFitError(fmt.Sprintf("unknown model family %q", req.Family), nil)
	}
}

// Predict evaluates the posterior-predictive summary for new covariate rows.
// Rows carry covariates only; the intercept is added here, mirroring Fit.
func (f *BayesFitter) Predict(ctx context.Context, post *ports.PosteriorSummary, rows [][]float64) (*ports.PredictiveSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if post == nil {
		return nil, core.NewModelFitError("predict called with nil posterior", nil)
	}
	want := len(post.Coefficients) - 1
	for i, row := range rows {
		if len(row) != want {
			return nil, core.NewModelFitError(
				fmt.Sprintf("prediction row %d has %d covariates, model has %d", i, len(row), want), nil)
		}
	}

	switch post.Family {
	case ports.FamilyLinear:
		return predictLinear(post, rows), nil
	case ports.FamilyLogistic:
		return predictLogistic(post, rows), nil
	default:
		return nil, core.NewModelFitError(fmt.Sprintf("unknown model family %q", post.Family), nil)
	}
}

// Reentrant reports true: fits share no mutable state.
func (f *BayesFitter) Reentrant() bool {
	return true
}

// buildDesign assembles the intercept-augmented design matrix and validates
// shapes. Terms come back intercept-first to match the coefficient order.
func buildDesign(req ports.FitRequest) (*mat.Dense, []float64, []string, error) {
	n := len(req.Design)
	if n == 0 {
		return nil, nil, nil, core.NewInsufficientTrainingDataError(0, 1)
	}
	if len(req.Response) != n {
		return nil, nil, nil, core.NewModelFitError(
			fmt.Sprintf("design has %d rows, response has %d", n, len(req.Response)), nil)
	}
	k := len(req.Design[0])
	if len(req.Terms) != k {
		return nil, nil, nil, core.NewModelFitError(
			fmt.Sprintf("design has %d columns, %d terms given", k, len(req.Terms)), nil)
	}

	p := k + 1
	design := mat.NewDense(n, p, nil)
	for r, row := range req.Design {
		if len(row) != k {
			return nil, nil, nil, core.NewModelFitError(
				fmt.Sprintf("design row %d has %d columns, expected %d", r, len(row), k), nil)
		}
		design.Set(r, 0, 1)
		for j, v := range row {
			design.Set(r, j+1, v)
		}
	}

	y := make([]float64, n)
	copy(y, req.Response)

	terms := make([]string, p)
	terms[0] = "intercept"
	copy(terms[1:], req.Terms)

	return design, y, terms, nil
}
