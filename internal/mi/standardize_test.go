package mi

import (
	"math"
	"testing"
)

func closeTo(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestStandardizerTrainingOnlyParams(t *testing.T) {
	train := [][]float64{{1, 10}, {2, 20}, {3, 30}}
	s := FitStandardizer(train)

	if !closeTo(s.Mean[0], 2, 1e-12) || !closeTo(s.Mean[1], 20, 1e-12) {
		t.Fatalf("means = %v", s.Mean)
	}

	scaled := s.Apply(train)
	for j := 0; j < 2; j++ {
		var sum float64
		for _, row := range scaled {
			sum += row[j]
		}
		if !closeTo(sum, 0, 1e-9) {
			t.Errorf("column %d not centered: sum = %v", j, sum)
		}
	}

	// Prediction rows reuse training parameters unchanged.
	out := s.Apply([][]float64{{2, 20}})
	if !closeTo(out[0][0], 0, 1e-12) || !closeTo(out[0][1], 0, 1e-12) {
		t.Errorf("training mean should map to zero, got %v", out[0])
	}
}

func TestStandardizerConstantColumn(t *testing.T) {
	s := FitStandardizer([][]float64{{5}, {5}, {5}})
	if s.Scale[0] != 1 {
		t.Fatalf("constant column scale = %v, want 1", s.Scale[0])
	}
	out := s.Apply([][]float64{{5}, {7}})
	if out[0][0] != 0 || out[1][0] != 2 {
		t.Errorf("got %v, want centered values with unit scale", out)
	}
}
