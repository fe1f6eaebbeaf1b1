package testkit

import (
	"context"
	"sync"
	"sync/atomic"

	"goimpute/ports"
)

// FakeFitter is a scriptable ports.ModelFitterPort for orchestration tests.
// By default every fit returns a fixed posterior and every prediction returns
// a constant; hooks override either, and FailOnFit makes the nth Fit call
// return an error.
type FakeFitter struct {
	// FitFunc, when set, replaces the default Fit behavior.
	FitFunc func(ctx context.Context, req ports.FitRequest) (*ports.PosteriorSummary, error)
	// PredictFunc, when set, replaces the default Predict behavior.
	PredictFunc func(ctx context.Context, post *ports.PosteriorSummary, rows [][]float64) (*ports.PredictiveSummary, error)
	// FailOnFit, when nonzero, makes that Fit call (1-based) return FailErr.
	FailOnFit int
	// FailErr is the error returned by the failing call.
	FailErr error
	// NotReentrant marks the fitter as requiring serialized calls; the
	// fake then also asserts that no two calls overlap.
	NotReentrant bool

	fitCalls atomic.Int64
	active   atomic.Int64
	overlap  atomic.Bool
	mu       sync.Mutex
	fitOrder []string
}

// FitCalls returns how many times Fit was invoked.
func (f *FakeFitter) FitCalls() int {
	return int(f.fitCalls.Load())
}

// SawOverlap reports whether two calls were ever in flight at once.
func (f *FakeFitter) SawOverlap() bool {
	return f.overlap.Load()
}

// FitOrder returns the first term of each fit request, in call order.
func (f *FakeFitter) FitOrder() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.fitOrder...)
}

func (f *FakeFitter) Fit(ctx context.Context, req ports.FitRequest) (*ports.PosteriorSummary, error) {
	f.enter(req)
	defer f.active.Add(-1)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	call := f.fitCalls.Add(1)
	if f.FailOnFit > 0 && int(call) == f.FailOnFit {
		return nil, f.FailErr
	}
	if f.FitFunc != nil {
		return f.FitFunc(ctx, req)
	}

	p := len(req.Terms) + 1
	coefs := make([]float64, p)
	cov := make([][]float64, p)
	for i := range coefs {
		coefs[i] = float64(i)
		cov[i] = make([]float64, p)
		cov[i][i] = 1
	}
	terms := append([]string{"intercept"}, req.Terms...)
	return &ports.PosteriorSummary{
		Family:       req.Family,
		Terms:        terms,
		Coefficients: coefs,
		Covariance:   cov,
	}, nil
}

func (f *FakeFitter) Predict(ctx context.Context, post *ports.PosteriorSummary, rows [][]float64) (*ports.PredictiveSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.PredictFunc != nil {
		return f.PredictFunc(ctx, post, rows)
	}
	out := &ports.PredictiveSummary{
		Mean:     make([]float64, len(rows)),
		Variance: make([]float64, len(rows)),
	}
	for i := range rows {
		out.Mean[i] = 1
		out.Variance[i] = 1
	}
	return out, nil
}

func (f *FakeFitter) Reentrant() bool {
	return !f.NotReentrant
}

func (f *FakeFitter) enter(req ports.FitRequest) {
	if f.active.Add(1) > 1 {
		f.overlap.Store(true)
	}
	f.mu.Lock()
	if len(req.Terms) > 0 {
		f.fitOrder = append(f.fitOrder, req.Terms[0])
	}
	f.mu.Unlock()
}
