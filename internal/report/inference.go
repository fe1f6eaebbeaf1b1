// Package report turns pooled imputation results into inference tables and
// rendered run reports.
package report

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"goimpute/domain/impute"
)

// TermInference is the inferential summary for one analysis-model term.
type TermInference struct {
	Term        string  `json:"term"`
	Estimate    float64 `json:"estimate"`
	StdError    float64 `json:"std_error"`
	Statistic   float64 `json:"statistic"`
	DF          float64 `json:"df"`
	PValue      float64 `json:"p_value"`
	ConfLow     float64 `json:"conf_low"`
	ConfHigh    float64 `json:"conf_high"`
	MissingInfo float64 `json:"missing_info"`
}

// Infer computes per-term test statistics and confidence intervals from a
// pooled estimate. When between-imputation variance is present the reference
// distribution is Student's t with the classic multiple-imputation degrees of
// freedom nu = (M-1) * (1 + W / ((1+1/M)B))^2; otherwise it degrades to the
// standard normal.
func Infer(pooled *impute.PooledEstimate, level float64) []TermInference {
	if level <= 0 || level >= 1 {
		level = 0.95
	}
	alpha := 1 - level

	out := make([]TermInference, len(pooled.Terms))
	m := float64(pooled.Runs)
	for j, term := range pooled.Terms {
		se := math.Sqrt(pooled.TotalVariance[j])
		inf := TermInference{
			Term:        term,
			Estimate:    pooled.Estimates[j],
			StdError:    se,
			MissingInfo: pooled.MissingInfo[j],
			DF:          math.Inf(1),
		}

		var stat float64
		if se > 0 {
			stat = pooled.Estimates[j] / se
		}
		inf.Statistic = stat

		b := pooled.BetweenVariance[j]
		w := pooled.WithinVariance[j]
		if pooled.Runs > 1 && b > 0 {
			r := (1 + 1/m) * b
			nu := (m - 1) * math.Pow(1+w/r, 2)
			dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: nu}
			inf.DF = nu
			inf.PValue = 2 * dist.CDF(-math.Abs(stat))
			crit := dist.Quantile(1 - alpha/2)
			inf.ConfLow = inf.Estimate - crit*se
			inf.ConfHigh = inf.Estimate + crit*se
		} else {
			inf.PValue = 2 * distuv.UnitNormal.CDF(-math.Abs(stat))
			crit := distuv.UnitNormal.Quantile(1 - alpha/2)
			inf.ConfLow = inf.Estimate - crit*se
			inf.ConfHigh = inf.Estimate + crit*se
		}
		out[j] = inf
	}
	return out
}
