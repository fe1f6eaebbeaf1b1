package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Dataset shape errors
	ErrInvalidColumn        = errors.New("column not found in dataset")
	ErrColumnLengthMismatch = errors.New("column length mismatch")
	ErrMaskLengthMismatch   = errors.New("mask length does not match row count")
	ErrNoMissingValues      = errors.New("target column has no missing values")

	// Imputation model errors
	ErrUnsupportedPredictor     = errors.New("unsupported predictor combination")
	ErrNonNumericPredictor      = errors.New("predictor is not numerically encoded")
	ErrInsufficientTrainingData = errors.New("insufficient training rows for model fit")
	ErrModelFit                 = errors.New("model fit failed")

	// Pooling errors
	ErrNoRunEstimates        = errors.New("no per-run estimates to pool")
	ErrEstimateShapeMismatch = errors.New("per-run estimates have mismatched parameter vectors")
)

// MultipleImputationError wraps the underlying cause when a multiple-imputation
// procedure is aborted. It names the failed run and predictor subset so the
// caller sees full context; no partial pooling ever escapes behind it.
type MultipleImputationError struct {
	RunIndex int
	Subset   string
	Cause    error
}

func (e *MultipleImputationError) Error() string {
	if e.Subset != "" {
		return fmt.Sprintf("multiple imputation aborted at run %d (predictors %s): %v", e.RunIndex, e.Subset, e.Cause)
	}
	return fmt.Sprintf("multiple imputation aborted at run %d: %v", e.RunIndex, e.Cause)
}

func (e *MultipleImputationError) Unwrap() error {
	return e.Cause
}

// NewMultipleImputationError wraps a run failure with its context.
func NewMultipleImputationError(runIndex int, subset string, cause error) *MultipleImputationError {
	return &MultipleImputationError{RunIndex: runIndex, Subset: subset, Cause: cause}
}

// Error constructors with context
func NewInvalidColumnError(key string) error {
	return fmt.Errorf("%w: %q", ErrInvalidColumn, key)
}

func NewUnsupportedPredictorError(key string, reason string) error {
	return fmt.Errorf("%w: %q %s", ErrUnsupportedPredictor, key, reason)
}

func NewNonNumericPredictorError(key string) error {
	return fmt.Errorf("%w: %q is categorical; encode it before use", ErrNonNumericPredictor, key)
}

func NewInsufficientTrainingDataError(have, need int) error {
	return fmt.Errorf("%w: have %d rows, need at least %d", ErrInsufficientTrainingData, have, need)
}

func NewModelFitError(detail string, cause error) error {
	if cause != nil {
		return fmt.Errorf("%w: %s: %v", ErrModelFit, detail, cause)
	}
	return fmt.Errorf("%w: %s", ErrModelFit, detail)
}

// Error checking helpers
func IsInvalidColumnError(err error) bool {
	return errors.Is(err, ErrInvalidColumn)
}

func IsImputationInputError(err error) bool {
	return errors.Is(err, ErrUnsupportedPredictor) ||
		errors.Is(err, ErrNonNumericPredictor) ||
		errors.Is(err, ErrInsufficientTrainingData)
}

func IsModelFitError(err error) bool {
	return errors.Is(err, ErrModelFit)
}

func IsMultipleImputationError(err error) bool {
	var mi *MultipleImputationError
	return errors.As(err, &mi)
}
