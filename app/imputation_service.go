// Package app wires the imputation engine to its ports: it owns run
// identity, artifact persistence, and the audit manifest for every procedure.
package app

import (
	"context"
	"time"

	"goimpute/domain/core"
	"goimpute/domain/impute"
	"goimpute/domain/table"
	"goimpute/internal"
	"goimpute/internal/errors"
	"goimpute/internal/mi"
	"goimpute/ports"
)

// ImputationRequest describes one multiple-imputation procedure.
type ImputationRequest struct {
	Dataset  *table.Dataset
	Target   core.VariableKey
	Analysis impute.AnalysisSpec
	Subsets  []impute.PredictorSubset
	Seed     int64
}

// ImputationResult is the stored outcome of a procedure.
type ImputationResult struct {
	RunID    core.RunID
	Manifest *impute.RunManifest
	Pooled   *impute.PooledEstimate
	Runs     []impute.RunEstimate
}

// ImputationService runs multiple-imputation procedures and records every
// outcome in the ledger.
type ImputationService struct {
	orchestrator *mi.Orchestrator
	ledger       ports.LedgerWriterPort
	logger       *internal.Logger
}

// NewImputationService creates the service.
func NewImputationService(orchestrator *mi.Orchestrator, ledger ports.LedgerWriterPort,
	logger *internal.Logger) *ImputationService {
	return &ImputationService{
		orchestrator: orchestrator,
		ledger:       ledger,
		logger:       logger,
	}
}

// Run executes the procedure and persists manifest, per-run estimates, and
// the pooled estimate. The manifest is written even though the run may be
// fully deterministic; it is what makes results replayable and auditable.
func (s *ImputationService) Run(ctx context.Context, req ImputationRequest) (*ImputationResult, error) {
	if req.Dataset == nil {
		return nil, errors.InvalidInput("dataset is required")
	}
	if req.Target == "" {
		return nil, errors.InvalidInput("target column is required")
	}
	if req.Analysis.Response == "" {
		return nil, errors.InvalidInput("analysis response is required")
	}

	runID := core.RunID(core.NewID())
	started := time.Now()
	s.logger.Info("starting imputation run %s: target=%s subsets=%d", runID, req.Target, len(req.Subsets))

	result, err := s.orchestrator.Run(ctx, req.Dataset, req.Target, req.Analysis, req.Subsets)
	if err != nil {
		s.logger.Error("imputation run %s failed: %v", runID, err)
		return nil, errors.ImputationError(err)
	}

	manifest := impute.NewRunManifest(runID, req.Dataset.Fingerprint(), req.Target,
		req.Analysis, req.Subsets, req.Seed)
	manifest.MissingCount = result.MissingCount
	manifest.ShortCircuited = result.ShortCircuited
	manifest.RuntimeMs = time.Since(started).Milliseconds()

	if err := s.persist(ctx, runID, manifest, result); err != nil {
		return nil, err
	}

	if result.Pooled.Runs == 1 && !result.ShortCircuited {
		s.logger.Warn("run %s pooled a single imputation: between-imputation variance is zero and imputation uncertainty is unmeasured", runID)
	}

	s.logger.Info("imputation run %s complete: runs=%d missing=%d runtime=%dms",
		runID, result.Pooled.Runs, result.MissingCount, manifest.RuntimeMs)
	return &ImputationResult{
		RunID:    runID,
		Manifest: manifest,
		Pooled:   result.Pooled,
		Runs:     result.Runs,
	}, nil
}

func (s *ImputationService) persist(ctx context.Context, runID core.RunID,
	manifest *impute.RunManifest, result *mi.Result) error {

	store := func(kind core.ArtifactKind, payload interface{}) error {
		artifact := core.Artifact{
			ID:        core.NewID(),
			Kind:      kind,
			Payload:   payload,
			CreatedAt: core.Now(),
		}
		return s.ledger.StoreArtifact(ctx, runID.String(), artifact)
	}

	if err := store(core.ArtifactRunManifest, manifest); err != nil {
		return errors.Wrap(err, "storing run manifest")
	}
	for _, run := range result.Runs {
		if err := store(core.ArtifactRunEstimate, run); err != nil {
			return errors.Wrapf(err, "storing estimate for run %d", run.RunIndex)
		}
	}
	if err := store(core.ArtifactPooledEstimate, result.Pooled); err != nil {
		return errors.Wrap(err, "storing pooled estimate")
	}
	return nil
}
