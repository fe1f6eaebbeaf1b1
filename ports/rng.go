package ports

import (
	"context"
	"math/rand"
)

// RNGPort provides deterministic random streams. Imputation fits themselves
// are deterministic, but run manifests record a seed so synthetic data and
// any future stochastic imputation replay identically.
type RNGPort interface {
	// SeededStream creates a deterministic generator for a named operation.
	SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error)

	// Stream derives a generator for a specific run/stage combination so
	// independent runs draw from independent, replayable streams.
	Stream(ctx context.Context, runID, stageName string, baseSeed int64) (*rand.Rand, error)
}
