// Package mi holds the multiple-imputation engine: single-column imputation
// against the fitter capability, per-run analysis fits, and the orchestrator
// that runs M independent imputations and pools them.
package mi

import (
	"context"

	"goimpute/domain/core"
	"goimpute/domain/impute"
	"goimpute/domain/table"
	"goimpute/ports"
)

// DefaultMinTrainingRows is the floor on observed rows before a fit is
// attempted; below it coefficient variances are meaningless.
const DefaultMinTrainingRows = 3

// Imputer fills the missing entries of one column from a fitted model over a
// predictor subset. The model trains on the observed rows only; its
// standardization parameters come from those same rows and are reused
// unchanged when predicting the missing ones.
type Imputer struct {
	fitter   ports.ModelFitterPort
	minTrain int
}

// NewImputer creates an imputer over the given fitter.
func NewImputer(f ports.ModelFitterPort, minTrain int) *Imputer {
	if minTrain < 1 {
		minTrain = DefaultMinTrainingRows
	}
	return &Imputer{fitter: f, minTrain: minTrain}
}

// ImputeColumn returns one imputed value per missing row of the target, in
// mask row order. Binary targets impute 1 when the predictive probability
// strictly exceeds 0.5 and 0 otherwise; numeric targets take the predictive
// mean.
func (im *Imputer) ImputeColumn(ctx context.Context, ds *table.Dataset, target core.VariableKey,
	subset impute.PredictorSubset, mask table.Mask) ([]float64, error) {

	targetType, err := ds.Type(target)
	if err != nil {
		return nil, err
	}
	var family ports.ModelFamily
	switch targetType {
	case table.TypeNumeric:
		family = ports.FamilyLinear
	case table.TypeBinary:
		family = ports.FamilyLogistic
	default:
		return nil, core.NewUnsupportedPredictorError(target.String(), "categorical targets are not imputable")
	}

	trainRows := mask.ObservedRows()
	predictRows := mask.MissingRows()
	if len(trainRows) < im.minTrain {
		return nil, core.NewInsufficientTrainingDataError(len(trainRows), im.minTrain)
	}
	if len(predictRows) == 0 {
		return nil, core.ErrNoMissingValues
	}

	design, predDesign, terms, err := buildCovariates(ds, subset, trainRows, predictRows)
	if err != nil {
		return nil, err
	}

	response := make([]float64, len(trainRows))
	targetValues, err := ds.Values(target)
	if err != nil {
		return nil, err
	}
	for i, r := range trainRows {
		response[i] = targetValues[r]
	}

	post, err := im.fitter.Fit(ctx, ports.FitRequest{
		Family:   family,
		Design:   design,
		Response: response,
		Terms:    terms,
	})
	if err != nil {
		return nil, err
	}

	pred, err := im.fitter.Predict(ctx, post, predDesign)
	if err != nil {
		return nil, err
	}

	imputed := make([]float64, len(predictRows))
	for i, mean := range pred.Mean {
		if family == ports.FamilyLogistic {
			if mean > 0.5 {
				imputed[i] = 1
			} else {
				imputed[i] = 0
			}
		} else {
			imputed[i] = mean
		}
	}
	return imputed, nil
}

// buildCovariates extracts training and prediction design rows for the subset
// and standardizes numeric predictors with training-row parameters. Binary
// predictors pass through at their native 0/1 scale.
func buildCovariates(ds *table.Dataset, subset impute.PredictorSubset,
	trainRows, predictRows []int) (train, predict [][]float64, terms []string, err error) {

	cols := make([][]float64, len(subset))
	numeric := make([]bool, len(subset))
	terms = make([]string, len(subset))
	for j, key := range subset {
		values, err := ds.Values(key)
		if err != nil {
			return nil, nil, nil, err
		}
		colType, err := ds.Type(key)
		if err != nil {
			return nil, nil, nil, err
		}
		cols[j] = values
		numeric[j] = colType == table.TypeNumeric
		terms[j] = key.String()
	}

	gather := func(rows []int) [][]float64 {
		out := make([][]float64, len(rows))
		for i, r := range rows {
			row := make([]float64, len(cols))
			for j := range cols {
				row[j] = cols[j][r]
			}
			out[i] = row
		}
		return out
	}
	train = gather(trainRows)
	predict = gather(predictRows)

	std := FitStandardizer(train)
	for j := range subset {
		if !numeric[j] {
			std.Mean[j] = 0
			std.Scale[j] = 1
		}
	}
	return std.Apply(train), std.Apply(predict), terms, nil
}
