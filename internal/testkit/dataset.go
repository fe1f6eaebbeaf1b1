package testkit

import (
	"math"
	"math/rand"

	"goimpute/domain/core"
	"goimpute/domain/table"
)

// SurveyConfig controls the synthetic survey generator.
type SurveyConfig struct {
	Rows        int
	Seed        int64
	MissingRate float64 // fraction of outcome rows blanked out
}

// NewSurveyDataset builds a deterministic synthetic survey: two numeric
// predictors ("age", "income"), one binary predictor ("employed"), and a
// numeric outcome ("score") linearly related to them with Gaussian noise.
// MissingRate of the outcome rows are set to NaN, missing completely at
// random under the given seed.
func NewSurveyDataset(cfg SurveyConfig) (*table.Dataset, error) {
	rng := rand.New(rand.NewSource(cfg.Seed))

	age := make([]float64, cfg.Rows)
	income := make([]float64, cfg.Rows)
	employed := make([]float64, cfg.Rows)
	score := make([]float64, cfg.Rows)
	for i := 0; i < cfg.Rows; i++ {
		age[i] = 25 + 15*rng.Float64()*2
		income[i] = 30 + 40*rng.Float64()
		if rng.Float64() < 0.7 {
			employed[i] = 1
		}
		score[i] = 10 + 0.5*age[i] + 0.2*income[i] + 5*employed[i] + 2*rng.NormFloat64()
	}
	for i := 0; i < cfg.Rows; i++ {
		if rng.Float64() < cfg.MissingRate {
			score[i] = math.NaN()
		}
	}

	return table.New(
		table.Column{Key: core.VariableKey("age"), Type: table.TypeNumeric, Values: age},
		table.Column{Key: core.VariableKey("income"), Type: table.TypeNumeric, Values: income},
		table.Column{Key: core.VariableKey("employed"), Type: table.TypeBinary, Values: employed},
		table.Column{Key: core.VariableKey("score"), Type: table.TypeNumeric, Values: score},
	)
}

// NewBinaryOutcomeDataset builds a small dataset with a binary outcome
// ("passed") driven by one numeric predictor ("hours"), with the given rows
// of the outcome blanked out.
func NewBinaryOutcomeDataset(rows int, seed int64, missingRows []int) (*table.Dataset, error) {
	rng := rand.New(rand.NewSource(seed))

	hours := make([]float64, rows)
	passed := make([]float64, rows)
	for i := 0; i < rows; i++ {
		hours[i] = 10 * rng.Float64()
		p := 1 / (1 + math.Exp(-(hours[i] - 5)))
		if rng.Float64() < p {
			passed[i] = 1
		}
	}
	for _, r := range missingRows {
		passed[r] = math.NaN()
	}

	return table.New(
		table.Column{Key: core.VariableKey("hours"), Type: table.TypeNumeric, Values: hours},
		table.Column{Key: core.VariableKey("passed"), Type: table.TypeBinary, Values: passed},
	)
}
