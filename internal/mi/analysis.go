package mi

import (
	"context"

	"goimpute/domain/core"
	"goimpute/domain/impute"
	"goimpute/domain/table"
	"goimpute/ports"
)

// FitAnalysis fits the downstream analysis model on one completed dataset and
// returns its coefficient estimates with per-coefficient variances (the
// diagonal of the posterior covariance). Rows with a missing response or
// covariate are dropped; after imputation of the target these are rows whose
// missingness lives in columns outside the imputation's scope.
func FitAnalysis(ctx context.Context, f ports.ModelFitterPort, ds *table.Dataset,
	spec impute.AnalysisSpec, runIndex int, subset impute.PredictorSubset) (impute.RunEstimate, error) {

	respType, err := ds.Type(spec.Response)
	if err != nil {
		return impute.RunEstimate{}, err
	}
	var family ports.ModelFamily
	switch respType {
	case table.TypeNumeric:
		family = ports.FamilyLinear
	case table.TypeBinary:
		family = ports.FamilyLogistic
	default:
		return impute.RunEstimate{}, core.NewUnsupportedPredictorError(
			spec.Response.String(), "categorical analysis responses are not supported")
	}

	response, err := ds.Values(spec.Response)
	if err != nil {
		return impute.RunEstimate{}, err
	}
	covariates := make([][]float64, len(spec.Covariates))
	terms := make([]string, len(spec.Covariates))
	for j, key := range spec.Covariates {
		values, err := ds.Values(key)
		if err != nil {
			return impute.RunEstimate{}, err
		}
		covariates[j] = values
		terms[j] = key.String()
	}

	var design [][]float64
	var y []float64
	for r := 0; r < ds.RowCount(); r++ {
		if isNaN(response[r]) {
			continue
		}
		row := make([]float64, len(covariates))
		complete := true
		for j := range covariates {
			if isNaN(covariates[j][r]) {
				complete = false
				break
			}
			row[j] = covariates[j][r]
		}
		if !complete {
			continue
		}
		design = append(design, row)
		y = append(y, response[r])
	}

	post, err := f.Fit(ctx, ports.FitRequest{
		Family:   family,
		Design:   design,
		Response: y,
		Terms:    terms,
	})
	if err != nil {
		return impute.RunEstimate{}, err
	}

	variances := make([]float64, len(post.Coefficients))
	for i := range variances {
		variances[i] = post.Covariance[i][i]
	}
	return impute.RunEstimate{
		RunIndex:  runIndex,
		Subset:    append(impute.PredictorSubset(nil), subset...),
		Terms:     post.Terms,
		Estimates: append([]float64(nil), post.Coefficients...),
		Variances: variances,
	}, nil
}

func isNaN(v float64) bool {
	return v != v
}
