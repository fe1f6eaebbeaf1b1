package impute

import (
	"math/rand"

	"goimpute/domain/core"
	"goimpute/domain/table"
)

// ValidateSubsets checks that every predictor subset is usable for a
// single-column imputation model:
//
//   - every name refers to an existing column
//   - neither the target nor the analysis response appears as a predictor
//     (the response is excluded to avoid leaking the outcome into imputation)
//   - predictors are numerically encoded (numeric or binary)
//   - predictors are fully observed; two simultaneously-missing columns
//     inside one model are disallowed in this design
//
// Validation happens eagerly, before any fitting is attempted.
func ValidateSubsets(ds *table.Dataset, target, response core.VariableKey, subsets []PredictorSubset) error {
	for _, subset := range subsets {
		if len(subset) == 0 {
			return core.NewUnsupportedPredictorError("", "empty predictor subset")
		}
		seen := make(map[core.VariableKey]bool, len(subset))
		for _, key := range subset {
			if seen[key] {
				return core.NewUnsupportedPredictorError(key.String(), "appears twice in one subset")
			}
			seen[key] = true

			if key == target {
				return core.NewUnsupportedPredictorError(key.String(), "is the imputation target")
			}
			if response != "" && key == response {
				return core.NewUnsupportedPredictorError(key.String(), "is the analysis response (leakage)")
			}

			colType, err := ds.Type(key)
			if err != nil {
				return err
			}
			if colType == table.TypeCategorical {
				return core.NewNonNumericPredictorError(key.String())
			}

			mask, err := table.DetectMissing(ds, key)
			if err != nil {
				return err
			}
			if mask.Count() > 0 {
				return core.NewUnsupportedPredictorError(key.String(), "has missing entries of its own")
			}
		}
	}
	return nil
}

// SelectSubsets proposes up to count predictor subsets for the target from
// the fully-observed numeric and binary columns. The stream shuffles the
// eligible columns, so the same seed always proposes the same subsets, and the
// starting column rotates so adjacent subsets differ. Callers normally supply
// subsets explicitly; this is the fallback used by the CLI when none are
// given.
func SelectSubsets(ds *table.Dataset, target, response core.VariableKey, count int,
	stream *rand.Rand) ([]PredictorSubset, error) {
	var eligible []core.VariableKey
	for _, key := range ds.Keys() {
		if key == target || key == response {
			continue
		}
		colType, err := ds.Type(key)
		if err != nil {
			return nil, err
		}
		if colType == table.TypeCategorical {
			continue
		}
		mask, err := table.DetectMissing(ds, key)
		if err != nil {
			return nil, err
		}
		if mask.Count() == 0 {
			eligible = append(eligible, key)
		}
	}
	if len(eligible) == 0 {
		return nil, core.NewUnsupportedPredictorError(target.String(), "no fully-observed predictor columns available")
	}
	if stream != nil {
		stream.Shuffle(len(eligible), func(i, j int) {
			eligible[i], eligible[j] = eligible[j], eligible[i]
		})
	}

	if count < 1 {
		count = 1
	}
	// Each subset takes two adjacent eligible columns (or one, when only one
	// exists), rotating the start so runs see different covariates.
	width := 2
	if len(eligible) < width {
		width = len(eligible)
	}
	subsets := make([]PredictorSubset, 0, count)
	for i := 0; i < count; i++ {
		subset := make(PredictorSubset, 0, width)
		for j := 0; j < width; j++ {
			subset = append(subset, eligible[(i+j)%len(eligible)])
		}
		subsets = append(subsets, subset)
	}
	return subsets, nil
}
