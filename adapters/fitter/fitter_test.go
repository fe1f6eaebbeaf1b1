package fitter

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"goimpute/domain/core"
	"goimpute/ports"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestLinearRecoversCoefficients(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	n := 200
	design := make([][]float64, n)
	response := make([]float64, n)
	for i := 0; i < n; i++ {
		x1 := rng.NormFloat64()
		x2 := rng.NormFloat64()
		design[i] = []float64{x1, x2}
		response[i] = 1.5 + 2.0*x1 - 0.75*x2 + 0.1*rng.NormFloat64()
	}

	f := NewBayesFitter(Config{})
	post, err := f.Fit(context.Background(), ports.FitRequest{
		Family:   ports.FamilyLinear,
		Design:   design,
		Response: response,
		Terms:    []string{"x1", "x2"},
	})
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}

	want := []float64{1.5, 2.0, -0.75}
	for i, w := range want {
		if !almostEqual(post.Coefficients[i], w, 0.05) {
			t.Errorf("coefficient %s = %.4f, want %.4f", post.Terms[i], post.Coefficients[i], w)
		}
	}
	if post.ResidualVariance <= 0 || post.ResidualVariance > 0.05 {
		t.Errorf("residual variance = %.4f, want near 0.01", post.ResidualVariance)
	}
}

func TestLinearPredictiveVarianceGrowsOffCenter(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	n := 50
	design := make([][]float64, n)
	response := make([]float64, n)
	for i := 0; i < n; i++ {
		x := rng.NormFloat64()
		design[i] = []float64{x}
		response[i] = 1 + x + 0.5*rng.NormFloat64()
	}

	f := NewBayesFitter(Config{})
	post, err := f.Fit(context.Background(), ports.FitRequest{
		Family:   ports.FamilyLinear,
		Design:   design,
		Response: response,
		Terms:    []string{"x"},
	})
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}

	pred, err := f.Predict(context.Background(), post, [][]float64{{0}, {10}})
	if err != nil {
		t.Fatalf("predict failed: %v", err)
	}
	if pred.Variance[1] <= pred.Variance[0] {
		t.Errorf("variance at x=10 (%.4f) should exceed variance at x=0 (%.4f)",
			pred.Variance[1], pred.Variance[0])
	}
	if pred.Variance[0] < post.ResidualVariance {
		t.Errorf("predictive variance %.4f below residual variance %.4f", pred.Variance[0], post.ResidualVariance)
	}
}

func TestLogisticRecoversSign(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	n := 400
	design := make([][]float64, n)
	response := make([]float64, n)
	for i := 0; i < n; i++ {
		x := rng.NormFloat64()
		design[i] = []float64{x}
		p := 1 / (1 + math.Exp(-(0.5 + 1.5*x)))
		if rng.Float64() < p {
			response[i] = 1
		}
	}

	f := NewBayesFitter(Config{})
	post, err := f.Fit(context.Background(), ports.FitRequest{
		Family:   ports.FamilyLogistic,
		Design:   design,
		Response: response,
		Terms:    []string{"x"},
	})
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	if post.Coefficients[1] < 0.8 || post.Coefficients[1] > 2.5 {
		t.Errorf("slope = %.4f, want near 1.5", post.Coefficients[1])
	}
	if post.Iterations < 2 {
		t.Errorf("expected multiple Newton iterations, got %d", post.Iterations)
	}

	pred, err := f.Predict(context.Background(), post, [][]float64{{3}, {-3}})
	if err != nil {
		t.Fatalf("predict failed: %v", err)
	}
	if pred.Mean[0] < 0.9 {
		t.Errorf("P(y=1 | x=3) = %.4f, want > 0.9", pred.Mean[0])
	}
	if pred.Mean[1] > 0.1 {
		t.Errorf("P(y=1 | x=-3) = %.4f, want < 0.1", pred.Mean[1])
	}
	for i, v := range pred.Variance {
		want := pred.Mean[i] * (1 - pred.Mean[i])
		if !almostEqual(v, want, 1e-12) {
			t.Errorf("variance[%d] = %.6f, want Bernoulli p(1-p) = %.6f", i, v, want)
		}
	}
}

func TestLogisticSeparatedDataStaysFinite(t *testing.T) {
	// Perfectly separated data has no maximum-likelihood estimate; the
	// Gaussian prior keeps the MAP estimate finite.
	design := [][]float64{{-2}, {-1}, {-0.5}, {0.5}, {1}, {2}}
	response := []float64{0, 0, 0, 1, 1, 1}

	f := NewBayesFitter(Config{PriorPrecision: 0.5})
	post, err := f.Fit(context.Background(), ports.FitRequest{
		Family:   ports.FamilyLogistic,
		Design:   design,
		Response: response,
		Terms:    []string{"x"},
	})
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	for i, c := range post.Coefficients {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			t.Fatalf("coefficient %d is not finite: %v", i, c)
		}
	}
}

func TestFitRejectsBadShapes(t *testing.T) {
	f := NewBayesFitter(Config{})
	ctx := context.Background()

	_, err := f.Fit(ctx, ports.FitRequest{Family: ports.FamilyLinear})
	if !core.IsImputationInputError(err) {
		t.Errorf("empty design: got %v, want insufficient training data", err)
	}

	_, err = f.Fit(ctx, ports.FitRequest{
		Family:   ports.FamilyLinear,
		Design:   [][]float64{{1}, {2}},
		Response: []float64{1},
		Terms:    []string{"x"},
	})
	if !core.IsModelFitError(err) {
		t.Errorf("row mismatch: got %v, want model fit error", err)
	}

	_, err = f.Fit(ctx, ports.FitRequest{
		Family:   "poisson",
		Design:   [][]float64{{1}},
		Response: []float64{1},
		Terms:    []string{"x"},
	})
	if !core.IsModelFitError(err) {
		t.Errorf("unknown family: got %v, want model fit error", err)
	}
}

func TestPredictRejectsWrongWidth(t *testing.T) {
	f := NewBayesFitter(Config{})
	post, err := f.Fit(context.Background(), ports.FitRequest{
		Family:   ports.FamilyLinear,
		Design:   [][]float64{{1, 2}, {2, 1}, {3, 0}},
		Response: []float64{1, 2, 3},
		Terms:    []string{"a", "b"},
	})
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	_, err = f.Predict(context.Background(), post, [][]float64{{1}})
	if !core.IsModelFitError(err) {
		t.Errorf("wrong row width: got %v, want model fit error", err)
	}
}

func TestFitHonorsCancelledContext(t *testing.T) {
	f := NewBayesFitter(Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.Fit(ctx, ports.FitRequest{
		Family:   ports.FamilyLinear,
		Design:   [][]float64{{1}},
		Response: []float64{1},
		Terms:    []string{"x"},
	})
	if err != context.Canceled {
		t.Errorf("got %v, want context.Canceled", err)
	}
}
