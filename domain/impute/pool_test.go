package impute

import (
	"errors"
	"math"
	"testing"

	"goimpute/domain/core"
)

func run(idx int, estimates, variances []float64) RunEstimate {
	return RunEstimate{
		RunIndex:  idx,
		Terms:     []string{"intercept", "x"},
		Estimates: estimates,
		Variances: variances,
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= 1e-12
}

func TestPoolKnownValues(t *testing.T) {
	runs := []RunEstimate{
		run(0, []float64{1.0, 2.0}, []float64{0.1, 0.2}),
		run(1, []float64{1.2, 2.2}, []float64{0.1, 0.2}),
		run(2, []float64{0.8, 1.8}, []float64{0.1, 0.2}),
	}

	pooled, err := Pool(runs)
	if err != nil {
		t.Fatalf("pool failed: %v", err)
	}

	if !almostEqual(pooled.Estimates[0], 1.0) || !almostEqual(pooled.Estimates[1], 2.0) {
		t.Errorf("pooled estimates = %v, want [1 2]", pooled.Estimates)
	}
	if !almostEqual(pooled.WithinVariance[0], 0.1) {
		t.Errorf("within = %v, want 0.1", pooled.WithinVariance[0])
	}
	// Sample variance of {1.0, 1.2, 0.8} is 0.04.
	if !almostEqual(pooled.BetweenVariance[0], 0.04) {
		t.Errorf("between = %v, want 0.04", pooled.BetweenVariance[0])
	}
	// total = within + (1 + 1/3) * between = 0.1 + (4/3)*0.04
	wantTotal := 0.1 + (4.0/3.0)*0.04
	if !almostEqual(pooled.TotalVariance[0], wantTotal) {
		t.Errorf("total = %v, want %v", pooled.TotalVariance[0], wantTotal)
	}
	wantFMI := (4.0 / 3.0) * 0.04 / wantTotal
	if !almostEqual(pooled.MissingInfo[0], wantFMI) {
		t.Errorf("missing info = %v, want %v", pooled.MissingInfo[0], wantFMI)
	}
	if pooled.Runs != 3 {
		t.Errorf("runs = %d, want 3", pooled.Runs)
	}
}

func TestPoolPermutationInvariant(t *testing.T) {
	a := []RunEstimate{
		run(0, []float64{1.0, 2.0}, []float64{0.10, 0.20}),
		run(1, []float64{1.5, 2.5}, []float64{0.12, 0.22}),
		run(2, []float64{0.5, 1.5}, []float64{0.08, 0.18}),
	}
	b := []RunEstimate{a[2], a[0], a[1]}

	pa, err := Pool(a)
	if err != nil {
		t.Fatalf("pool a failed: %v", err)
	}
	pb, err := Pool(b)
	if err != nil {
		t.Fatalf("pool b failed: %v", err)
	}

	for j := range pa.Estimates {
		if !almostEqual(pa.Estimates[j], pb.Estimates[j]) ||
			!almostEqual(pa.TotalVariance[j], pb.TotalVariance[j]) ||
			!almostEqual(pa.BetweenVariance[j], pb.BetweenVariance[j]) {
			t.Errorf("term %d: pooling is not permutation invariant", j)
		}
	}
}

func TestPoolSingleRun(t *testing.T) {
	pooled, err := Pool([]RunEstimate{run(0, []float64{3.0, -1.0}, []float64{0.5, 0.25})})
	if err != nil {
		t.Fatalf("pool failed: %v", err)
	}
	for j := range pooled.Terms {
		if pooled.BetweenVariance[j] != 0 {
			t.Errorf("term %d: between = %v, want 0 for a single run", j, pooled.BetweenVariance[j])
		}
		if !almostEqual(pooled.TotalVariance[j], pooled.WithinVariance[j]) {
			t.Errorf("term %d: total must equal within when between is zero", j)
		}
		if pooled.MissingInfo[j] != 0 {
			t.Errorf("term %d: missing info = %v, want 0", j, pooled.MissingInfo[j])
		}
	}
}

func TestPoolIdenticalEstimates(t *testing.T) {
	// When every run agrees exactly, pooling adds nothing: between is zero
	// and total collapses to within.
	runs := []RunEstimate{
		run(0, []float64{1.5, -0.5}, []float64{0.2, 0.1}),
		run(1, []float64{1.5, -0.5}, []float64{0.2, 0.1}),
		run(2, []float64{1.5, -0.5}, []float64{0.2, 0.1}),
	}
	pooled, err := Pool(runs)
	if err != nil {
		t.Fatalf("pool failed: %v", err)
	}
	for j := range pooled.Terms {
		if pooled.BetweenVariance[j] != 0 {
			t.Errorf("term %d: between = %v, want 0", j, pooled.BetweenVariance[j])
		}
		if !almostEqual(pooled.TotalVariance[j], pooled.WithinVariance[j]) {
			t.Errorf("term %d: total must equal within for identical runs", j)
		}
	}
	if !almostEqual(pooled.Estimates[0], 1.5) || !almostEqual(pooled.Estimates[1], -0.5) {
		t.Errorf("pooled estimates = %v", pooled.Estimates)
	}
}

func TestPoolEmptyInput(t *testing.T) {
	_, err := Pool(nil)
	if !errors.Is(err, core.ErrNoRunEstimates) {
		t.Errorf("got %v, want ErrNoRunEstimates", err)
	}
}

func TestPoolShapeMismatch(t *testing.T) {
	cases := []struct {
		name string
		runs []RunEstimate
	}{
		{
			"different lengths",
			[]RunEstimate{
				run(0, []float64{1, 2}, []float64{1, 1}),
				{RunIndex: 1, Terms: []string{"intercept"}, Estimates: []float64{1}, Variances: []float64{1}},
			},
		},
		{
			"different terms",
			[]RunEstimate{
				run(0, []float64{1, 2}, []float64{1, 1}),
				{RunIndex: 1, Terms: []string{"intercept", "z"}, Estimates: []float64{1, 2}, Variances: []float64{1, 1}},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Pool(tc.runs); !errors.Is(err, core.ErrEstimateShapeMismatch) {
				t.Errorf("got %v, want ErrEstimateShapeMismatch", err)
			}
		})
	}
}

func TestSinglePooled(t *testing.T) {
	est := run(0, []float64{2.0}, []float64{0.3})
	est.Terms = []string{"intercept"}
	pooled := SinglePooled(est)
	if pooled.Runs != 1 {
		t.Errorf("runs = %d, want 1", pooled.Runs)
	}
	if pooled.BetweenVariance[0] != 0 || !almostEqual(pooled.TotalVariance[0], 0.3) {
		t.Errorf("between = %v, total = %v; want 0 and 0.3",
			pooled.BetweenVariance[0], pooled.TotalVariance[0])
	}
}
