package ports

import (
	"context"
)

// ModelFamily selects the regression family for a fit.
type ModelFamily string

const (
	// FamilyLinear is a linear-Gaussian model with unknown residual scale.
	FamilyLinear ModelFamily = "linear"
	// FamilyLogistic is a log-odds model for binary responses.
	FamilyLogistic ModelFamily = "logistic"
)

// FitRequest carries a prepared training set. Design rows hold covariate
// values only; the fitter adds its own intercept term. Rows must already be
// standardized where the caller wants standardization - the fitter does not
// rescale.
type FitRequest struct {
	Family   ModelFamily
	Design   [][]float64
	Response []float64
	Terms    []string // covariate names, one per design column
}

// PosteriorSummary is a fitted model's posterior (or posterior approximation)
// over coefficients: point estimates plus a covariance matrix, intercept
// first. ResidualVariance is populated for the linear family only.
type PosteriorSummary struct {
	Family           ModelFamily
	Terms            []string
	Coefficients     []float64
	Covariance       [][]float64
	ResidualVariance float64
	Iterations       int
}

// PredictiveSummary is the posterior-predictive summary for a batch of new
// rows. For the linear family Mean/Variance are the predictive mean and
// variance; for the logistic family Mean is the predictive probability and
// Variance its Bernoulli variance p(1-p).
type PredictiveSummary struct {
	Mean     []float64
	Variance []float64
}

// ModelFitterPort is the narrow capability interface the imputation core
// calls into. Implementations may use closed-form conjugate updates,
// variational approximation, or sampling - the core only relies on
// calibrated point/variance summaries coming back.
type ModelFitterPort interface {
	Fit(ctx context.Context, req FitRequest) (*PosteriorSummary, error)
	Predict(ctx context.Context, posterior *PosteriorSummary, rows [][]float64) (*PredictiveSummary, error)

	// Reentrant reports whether Fit and Predict tolerate concurrent calls.
	// The orchestrator serializes fit invocations when this is false.
	Reentrant() bool
}
