// Package rng provides deterministic, replayable random streams derived from
// a base seed plus a name, so every run and stage draws from its own stream.
package rng

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/rand"

	"goimpute/domain/core"
	"goimpute/ports"
)

// HashStreamAdapter derives per-stream seeds by hashing the stream name with
// the base seed. The same (name, seed) pair always yields the same stream,
// and distinct names give independent streams under the same base seed.
type HashStreamAdapter struct{}

// NewHashStreamAdapter creates the adapter.
func NewHashStreamAdapter() *HashStreamAdapter {
	return &HashStreamAdapter{}
}

func (a *HashStreamAdapter) SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rand.New(rand.NewSource(deriveSeed(name, seed))), nil
}

func (a *HashStreamAdapter) Stream(ctx context.Context, runID, stageName string, baseSeed int64) (*rand.Rand, error) {
	return a.SeededStream(ctx, runID+"/"+stageName, baseSeed)
}

// deriveSeed folds the first eight bytes of a hash over name and seed into a
// stream seed.
func deriveSeed(name string, seed int64) int64 {
	h := core.NewHash([]byte(fmt.Sprintf("%s|%d", name, seed)))
	raw, err := hex.DecodeString(h.String()[:16])
	if err != nil {
		// The hash is always valid hex; fall back to the base seed anyway.
		return seed
	}
	return int64(binary.LittleEndian.Uint64(raw))
}

var _ ports.RNGPort = (*HashStreamAdapter)(nil)
