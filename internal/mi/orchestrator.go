package mi

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"goimpute/domain/core"
	"goimpute/domain/impute"
	"goimpute/domain/table"
	"goimpute/ports"
)

// Config tunes the orchestrator's concurrency and fit limits.
type Config struct {
	// FitTimeout bounds each individual model fit; zero disables the bound.
	FitTimeout time.Duration
	// MaxParallel caps concurrent imputation runs; zero means one per subset.
	MaxParallel int
	// SerializeFits forces fits onto a single lock even for reentrant
	// fitters, useful when the fitter is reentrant but memory-hungry.
	SerializeFits bool
	// MinTrainingRows is the observed-row floor passed to the imputer.
	MinTrainingRows int
}

// Result is the outcome of one multiple-imputation procedure. Runs are in
// subset order regardless of completion order; Pooled combines them.
type Result struct {
	Pooled         *impute.PooledEstimate
	Runs           []impute.RunEstimate
	MissingCount   int
	ShortCircuited bool
}

// Orchestrator executes M independent imputation runs - one per predictor
// subset - fits the analysis model on each completed dataset, and pools the
// per-run estimates. Any run failure aborts the whole procedure: partial
// pooling over a subset of runs would silently bias the combined variance.
type Orchestrator struct {
	fitter ports.ModelFitterPort
	cfg    Config
}

// NewOrchestrator creates an orchestrator over the given fitter.
func NewOrchestrator(f ports.ModelFitterPort, cfg Config) *Orchestrator {
	return &Orchestrator{fitter: f, cfg: cfg}
}

// Run performs the full procedure for one target column.
//
// The missingness mask is computed exactly once, before any run starts, so
// every run imputes the same set of rows. When the target has no missing
// values the runs collapse to a single analysis fit on the original data and
// the pooled between-imputation variance is zero by construction.
func (o *Orchestrator) Run(ctx context.Context, ds *table.Dataset, target core.VariableKey,
	analysis impute.AnalysisSpec, subsets []impute.PredictorSubset) (*Result, error) {

	if err := impute.ValidateSubsets(ds, target, analysis.Response, subsets); err != nil {
		return nil, err
	}
	for _, key := range analysis.Covariates {
		if !ds.Has(key) {
			return nil, core.NewInvalidColumnError(key.String())
		}
	}

	mask, err := table.DetectMissing(ds, target)
	if err != nil {
		return nil, err
	}
	missing := mask.Count()

	guarded := o.guard()

	if missing == 0 {
		est, err := FitAnalysis(ctx, guarded, ds, analysis, 0, nil)
		if err != nil {
			return nil, err
		}
		return &Result{
			Pooled:         impute.SinglePooled(est),
			Runs:           []impute.RunEstimate{est},
			MissingCount:   0,
			ShortCircuited: true,
		}, nil
	}

	if len(subsets) == 0 {
		return nil, core.NewUnsupportedPredictorError(target.String(), "no predictor subsets given")
	}

	parallel := o.cfg.MaxParallel
	if parallel <= 0 {
		parallel = len(subsets)
	}
	sem := semaphore.NewWeighted(int64(parallel))
	imputer := NewImputer(guarded, o.cfg.MinTrainingRows)

	estimates := make([]impute.RunEstimate, len(subsets))
	g, runCtx := errgroup.WithContext(ctx)
	for i, subset := range subsets {
		i, subset := i, subset
		g.Go(func() error {
			if err := sem.Acquire(runCtx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			est, err := o.runOne(runCtx, imputer, guarded, ds, target, analysis, subset, mask, i)
			if err != nil {
				return core.NewMultipleImputationError(i, subset.String(), err)
			}
			estimates[i] = est
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pooled, err := impute.Pool(estimates)
	if err != nil {
		return nil, err
	}
	return &Result{
		Pooled:       pooled,
		Runs:         estimates,
		MissingCount: missing,
	}, nil
}

// runOne executes one independent run: impute the target with this run's
// subset, build the completed dataset, fit the analysis model on it.
func (o *Orchestrator) runOne(ctx context.Context, imputer *Imputer, f ports.ModelFitterPort,
	ds *table.Dataset, target core.VariableKey, analysis impute.AnalysisSpec,
	subset impute.PredictorSubset, mask table.Mask, runIndex int) (impute.RunEstimate, error) {

	imputed, err := imputer.ImputeColumn(ctx, ds, target, subset, mask)
	if err != nil {
		return impute.RunEstimate{}, err
	}
	completed, err := impute.Complete(ds, target, mask, imputed)
	if err != nil {
		return impute.RunEstimate{}, err
	}
	return FitAnalysis(ctx, f, completed, analysis, runIndex, subset)
}

// guard wraps the fitter with the per-fit timeout, plus a lock when the
// fitter is not reentrant (or serialization is forced).
func (o *Orchestrator) guard() ports.ModelFitterPort {
	g := &guardedFitter{inner: o.fitter, timeout: o.cfg.FitTimeout}
	if !o.fitter.Reentrant() || o.cfg.SerializeFits {
		g.mu = &sync.Mutex{}
	}
	return g
}

// guardedFitter decorates a fitter with a per-call timeout and an optional
// mutex. It keeps concurrency policy out of both the fitter implementations
// and the run logic.
type guardedFitter struct {
	inner   ports.ModelFitterPort
	timeout time.Duration
	mu      *sync.Mutex
}

func (g *guardedFitter) Fit(ctx context.Context, req ports.FitRequest) (*ports.PosteriorSummary, error) {
	if g.mu != nil {
		g.mu.Lock()
		defer g.mu.Unlock()
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	return g.inner.Fit(ctx, req)
}

func (g *guardedFitter) Predict(ctx context.Context, post *ports.PosteriorSummary, rows [][]float64) (*ports.PredictiveSummary, error) {
	if g.mu != nil {
		g.mu.Lock()
		defer g.mu.Unlock()
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	return g.inner.Predict(ctx, post, rows)
}

func (g *guardedFitter) Reentrant() bool {
	return g.mu == nil && g.inner.Reentrant()
}
