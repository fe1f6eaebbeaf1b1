package impute

import (
	"fmt"

	"goimpute/domain/core"
)

// RunManifest captures the complete specification of one multiple-imputation
// run: enough to replay it exactly against the same dataset.
type RunManifest struct {
	RunID              core.RunID        `json:"run_id" db:"run_id"`
	DatasetFingerprint core.Hash         `json:"dataset_fingerprint" db:"dataset_fingerprint"`
	Target             core.VariableKey  `json:"target" db:"target"`
	Analysis           AnalysisSpec      `json:"analysis"`
	Subsets            []PredictorSubset `json:"subsets"`
	Seed               int64             `json:"seed" db:"seed"`
	MissingCount       int               `json:"missing_count" db:"missing_count"`
	ShortCircuited     bool              `json:"short_circuited" db:"short_circuited"`
	RuntimeMs          int64             `json:"runtime_ms" db:"runtime_ms"`
	Fingerprint        core.Hash         `json:"fingerprint" db:"fingerprint"`
	CreatedAt          core.Timestamp    `json:"created_at" db:"created_at"`
}

// NewRunManifest builds a manifest with a deterministic fingerprint over the
// inputs that define the run.
func NewRunManifest(runID core.RunID, datasetFP core.Hash, target core.VariableKey,
	analysis AnalysisSpec, subsets []PredictorSubset, seed int64) *RunManifest {

	m := &RunManifest{
		RunID:              runID,
		DatasetFingerprint: datasetFP,
		Target:             target,
		Analysis:           analysis,
		Subsets:            subsets,
		Seed:               seed,
		CreatedAt:          core.Now(),
	}
	m.Fingerprint = m.computeFingerprint()
	return m
}

func (m *RunManifest) computeFingerprint() core.Hash {
	data := fmt.Sprintf("%s|%s|%s|%d", m.DatasetFingerprint, m.Target, m.Analysis.Response, m.Seed)
	for _, cov := range m.Analysis.Covariates {
		data += "|" + cov.String()
	}
	for _, subset := range m.Subsets {
		data += "|" + subset.String()
	}
	return core.NewHash([]byte(data))
}
