package impute

import (
	"fmt"

	"goimpute/domain/core"
)

// Pool combines M per-run estimates into a single pooled estimate using
// Rubin's combination rules:
//
//	pooled point estimate = mean of the per-run estimates
//	within-imputation variance = mean of the per-run variances
//	between-imputation variance = sample variance of the estimates (M-1)
//	total variance = within + (1 + 1/M) * between
//
// With M = 1 the between-imputation variance is defined as 0; imputation
// uncertainty is then unmeasured and callers should warn. Pool is a pure
// function and its result is invariant under permutation of the runs.
func Pool(runs []RunEstimate) (*PooledEstimate, error) {
	if len(runs) == 0 {
		return nil, core.ErrNoRunEstimates
	}
	if err := checkShapes(runs); err != nil {
		return nil, err
	}

	m := float64(len(runs))
	k := len(runs[0].Estimates)

	pooled := &PooledEstimate{
		Terms:           append([]string(nil), runs[0].Terms...),
		Estimates:       make([]float64, k),
		WithinVariance:  make([]float64, k),
		BetweenVariance: make([]float64, k),
		TotalVariance:   make([]float64, k),
		MissingInfo:     make([]float64, k),
		Runs:            len(runs),
	}

	for j := 0; j < k; j++ {
		var sumEst, sumVar float64
		for _, run := range runs {
			sumEst += run.Estimates[j]
			sumVar += run.Variances[j]
		}
		pooled.Estimates[j] = sumEst / m
		pooled.WithinVariance[j] = sumVar / m

		if len(runs) >= 2 {
			var ss float64
			for _, run := range runs {
				d := run.Estimates[j] - pooled.Estimates[j]
				ss += d * d
			}
			pooled.BetweenVariance[j] = ss / (m - 1)
		}

		pooled.TotalVariance[j] = pooled.WithinVariance[j] + (1+1/m)*pooled.BetweenVariance[j]

		// Fraction of missing information: the share of total variance
		// attributable to imputation rather than sampling.
		if pooled.TotalVariance[j] > 0 {
			pooled.MissingInfo[j] = (1 + 1/m) * pooled.BetweenVariance[j] / pooled.TotalVariance[j]
		}
	}

	return pooled, nil
}

// SinglePooled wraps a lone estimate as a pooled result with zero
// between-imputation variance, used by the zero-missing short-circuit.
func SinglePooled(run RunEstimate) *PooledEstimate {
	k := len(run.Estimates)
	pooled := &PooledEstimate{
		Terms:           append([]string(nil), run.Terms...),
		Estimates:       append([]float64(nil), run.Estimates...),
		WithinVariance:  append([]float64(nil), run.Variances...),
		BetweenVariance: make([]float64, k),
		TotalVariance:   append([]float64(nil), run.Variances...),
		MissingInfo:     make([]float64, k),
		Runs:            1,
	}
	return pooled
}

func checkShapes(runs []RunEstimate) error {
	k := len(runs[0].Estimates)
	for i, run := range runs {
		if len(run.Estimates) != k || len(run.Variances) != k {
			return fmt.Errorf("%w: run %d has %d estimates and %d variances, expected %d",
				core.ErrEstimateShapeMismatch, i, len(run.Estimates), len(run.Variances), k)
		}
		if len(run.Terms) != k {
			return fmt.Errorf("%w: run %d has %d terms, expected %d",
				core.ErrEstimateShapeMismatch, i, len(run.Terms), k)
		}
		for j, term := range run.Terms {
			if term != runs[0].Terms[j] {
				return fmt.Errorf("%w: run %d term %d is %q, expected %q",
					core.ErrEstimateShapeMismatch, i, j, term, runs[0].Terms[j])
			}
		}
	}
	return nil
}
