package impute

import (
	"fmt"

	"goimpute/domain/core"
	"goimpute/domain/table"

	"github.com/montanaflynn/stats"
)

// FillPolicy selects a single-value imputation rule. These are the classic
// baselines: every missing entry in a column gets the same replacement,
// which understates variance but is cheap and often good enough for
// exploratory work.
type FillPolicy string

const (
	FillMean     FillPolicy = "mean"
	FillMedian   FillPolicy = "median"
	FillMode     FillPolicy = "mode"
	FillConstant FillPolicy = "constant"
)

// Fill returns a new dataset with the named column's missing entries replaced
// according to the policy. The replacement statistic is computed from the
// observed values only.
func Fill(ds *table.Dataset, key core.VariableKey, policy FillPolicy, constant float64) (*table.Dataset, error) {
	col, err := ds.Column(key)
	if err != nil {
		return nil, err
	}
	mask, err := table.DetectMissing(ds, key)
	if err != nil {
		return nil, err
	}
	if mask.Count() == 0 {
		return ds.Clone(), nil
	}

	observed := col.Observed()
	if len(observed) == 0 && policy != FillConstant {
		return nil, core.NewInsufficientTrainingDataError(0, 1)
	}

	var fill float64
	switch policy {
	case FillMean:
		fill, err = stats.Mean(observed)
	case FillMedian:
		fill, err = stats.Median(observed)
	case FillMode:
		fill, err = modeOf(observed)
	case FillConstant:
		fill = constant
	default:
		return nil, fmt.Errorf("unknown fill policy %q", policy)
	}
	if err != nil {
		return nil, fmt.Errorf("computing %s fill for %q: %w", policy, key, err)
	}

	imputed := make([]float64, mask.Count())
	for i := range imputed {
		imputed[i] = fill
	}
	return Complete(ds, key, mask, imputed)
}

// modeOf returns the most frequent observed value, falling back to the median
// when every value is unique (stats.Mode returns an empty slice then).
func modeOf(observed []float64) (float64, error) {
	modes, err := stats.Mode(observed)
	if err != nil {
		return 0, err
	}
	if len(modes) == 0 {
		return stats.Median(observed)
	}
	return modes[0], nil
}
