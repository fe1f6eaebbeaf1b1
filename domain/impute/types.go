package impute

import (
	"strings"

	"goimpute/domain/core"
)

// PredictorSubset names the covariate columns used by one imputation model.
// Subsets for a target need not be nested or disjoint from each other.
type PredictorSubset []core.VariableKey

// String renders the subset as "a+b+c" for audit output and error context.
func (p PredictorSubset) String() string {
	parts := make([]string, len(p))
	for i, key := range p {
		parts[i] = key.String()
	}
	return strings.Join(parts, "+")
}

// Contains reports whether the subset names the given column.
func (p PredictorSubset) Contains(key core.VariableKey) bool {
	for _, k := range p {
		if k == key {
			return true
		}
	}
	return false
}

// AnalysisSpec describes the downstream analysis model fitted on each
// completed dataset: which column is the response and which are covariates.
type AnalysisSpec struct {
	Response   core.VariableKey   `json:"response"`
	Covariates []core.VariableKey `json:"covariates"`
}

// Terms returns the coefficient names in fit order, intercept first.
func (s AnalysisSpec) Terms() []string {
	terms := make([]string, 0, len(s.Covariates)+1)
	terms = append(terms, "intercept")
	for _, key := range s.Covariates {
		terms = append(terms, key.String())
	}
	return terms
}

// RunEstimate is the coefficient vector (and per-coefficient variance) from
// fitting the analysis model on one completed dataset. Created once per run,
// never mutated afterward.
type RunEstimate struct {
	RunIndex  int             `json:"run_index"`
	Subset    PredictorSubset `json:"subset"`
	Terms     []string        `json:"terms"`
	Estimates []float64       `json:"estimates"`
	Variances []float64       `json:"variances"`
}

// PooledEstimate is the combined multiple-imputation result: one point
// estimate and one variance decomposition per analysis-model term.
type PooledEstimate struct {
	Terms           []string  `json:"terms"`
	Estimates       []float64 `json:"estimates"`
	WithinVariance  []float64 `json:"within_variance"`
	BetweenVariance []float64 `json:"between_variance"`
	TotalVariance   []float64 `json:"total_variance"`
	MissingInfo     []float64 `json:"missing_info"`
	Runs            int       `json:"runs"`
}
