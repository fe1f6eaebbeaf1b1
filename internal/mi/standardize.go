package mi

import (
	"math"
)

// Standardizer rescales design columns to zero mean and unit variance. The
// parameters are always computed from training rows and reused verbatim on
// prediction rows - recomputing them on the target rows would shift the
// covariate scale between fit and predict.
type Standardizer struct {
	Mean  []float64
	Scale []float64
}

// FitStandardizer computes per-column mean and standard deviation from the
// given training rows. Zero-variance columns keep scale 1 so constant
// covariates pass through unchanged rather than dividing by zero.
func FitStandardizer(rows [][]float64) *Standardizer {
	if len(rows) == 0 {
		return &Standardizer{}
	}
	p := len(rows[0])
	s := &Standardizer{
		Mean:  make([]float64, p),
		Scale: make([]float64, p),
	}
	n := float64(len(rows))
	for j := 0; j < p; j++ {
		var sum float64
		for _, row := range rows {
			sum += row[j]
		}
		s.Mean[j] = sum / n

		var ss float64
		for _, row := range rows {
			d := row[j] - s.Mean[j]
			ss += d * d
		}
		sd := math.Sqrt(ss / n)
		if sd == 0 {
			sd = 1
		}
		s.Scale[j] = sd
	}
	return s
}

// Apply returns standardized copies of the given rows.
func (s *Standardizer) Apply(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		scaled := make([]float64, len(row))
		for j, v := range row {
			if j < len(s.Mean) {
				scaled[j] = (v - s.Mean[j]) / s.Scale[j]
			} else {
				scaled[j] = v
			}
		}
		out[i] = scaled
	}
	return out
}
