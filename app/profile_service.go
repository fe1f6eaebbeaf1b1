package app

import (
	"context"

	"github.com/montanaflynn/stats"

	"goimpute/domain/core"
	"goimpute/domain/table"
	"goimpute/internal/errors"
)

// ColumnProfile is a descriptive summary of one column: missingness plus the
// basic moments of its observed values.
type ColumnProfile struct {
	Key           core.VariableKey      `json:"key"`
	Type          table.StatisticalType `json:"type"`
	Rows          int                   `json:"rows"`
	MissingCount  int                   `json:"missing_count"`
	MissingRate   float64               `json:"missing_rate"`
	Mean          float64               `json:"mean"`
	Median        float64               `json:"median"`
	StdDev        float64               `json:"std_dev"`
	Min           float64               `json:"min"`
	Max           float64               `json:"max"`
	ObservedCount int                   `json:"observed_count"`
}

// ProfileService computes per-column descriptive summaries.
type ProfileService struct{}

// NewProfileService creates the service.
func NewProfileService() *ProfileService {
	return &ProfileService{}
}

// ProfileDataset summarizes every column in declaration order.
func (s *ProfileService) ProfileDataset(ctx context.Context, ds *table.Dataset) ([]ColumnProfile, error) {
	if ds == nil {
		return nil, errors.InvalidInput("dataset is required")
	}
	profiles := make([]ColumnProfile, 0, ds.ColumnCount())
	for _, key := range ds.Keys() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		profile, err := s.ProfileColumn(ds, key)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

// ProfileColumn summarizes one column. Moment statistics come from the
// observed values only; an all-missing column reports zeros for them.
func (s *ProfileService) ProfileColumn(ds *table.Dataset, key core.VariableKey) (ColumnProfile, error) {
	col, err := ds.Column(key)
	if err != nil {
		return ColumnProfile{}, err
	}
	mask, err := table.DetectMissing(ds, key)
	if err != nil {
		return ColumnProfile{}, err
	}

	profile := ColumnProfile{
		Key:           key,
		Type:          col.Type,
		Rows:          len(col.Values),
		MissingCount:  mask.Count(),
		ObservedCount: col.ObservedCount(),
	}
	if profile.Rows > 0 {
		profile.MissingRate = float64(profile.MissingCount) / float64(profile.Rows)
	}

	observed := col.Observed()
	if len(observed) == 0 {
		return profile, nil
	}
	// montanaflynn returns an error only for empty input, which is
	// excluded above.
	profile.Mean, _ = stats.Mean(observed)
	profile.Median, _ = stats.Median(observed)
	profile.StdDev, _ = stats.StandardDeviation(observed)
	profile.Min, _ = stats.Min(observed)
	profile.Max, _ = stats.Max(observed)
	return profile, nil
}
