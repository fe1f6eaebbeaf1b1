// Package testkit provides in-memory test doubles and synthetic data
// generators shared across package tests.
package testkit

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"goimpute/domain/core"
	"goimpute/domain/impute"
	"goimpute/ports"
)

// InMemoryLedger is a thread-safe ports.LedgerPort backed by maps. Artifacts
// are returned newest-first, matching the SQL-backed implementation.
type InMemoryLedger struct {
	mu        sync.RWMutex
	artifacts map[core.ID]core.Artifact
	byRun     map[core.RunID][]core.ID
	runOrder  []core.RunID
}

// NewInMemoryLedger creates an empty ledger.
func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{
		artifacts: make(map[core.ID]core.Artifact),
		byRun:     make(map[core.RunID][]core.ID),
	}
}

func (l *InMemoryLedger) StoreArtifact(ctx context.Context, runID string, artifact core.Artifact) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rid := core.RunID(runID)
	if _, seen := l.byRun[rid]; !seen {
		l.runOrder = append(l.runOrder, rid)
	}
	l.artifacts[artifact.ID] = artifact
	l.byRun[rid] = append(l.byRun[rid], artifact.ID)
	return nil
}

func (l *InMemoryLedger) GetArtifact(ctx context.Context, artifactID core.ArtifactID) (*core.Artifact, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	artifact, ok := l.artifacts[core.ID(artifactID)]
	if !ok {
		return nil, fmt.Errorf("artifact %s not found", artifactID)
	}
	return &artifact, nil
}

func (l *InMemoryLedger) GetArtifactsByRun(ctx context.Context, runID core.RunID) ([]core.Artifact, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ids := l.byRun[runID]
	out := make([]core.Artifact, 0, len(ids))
	for _, id := range ids {
		out = append(out, l.artifacts[id])
	}
	sortNewestFirst(out)
	return out, nil
}

func (l *InMemoryLedger) GetArtifactsByKind(ctx context.Context, kind core.ArtifactKind, limit int) ([]core.Artifact, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []core.Artifact
	for _, artifact := range l.artifacts {
		if artifact.Kind == kind {
			out = append(out, artifact)
		}
	}
	sortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (l *InMemoryLedger) ListArtifacts(ctx context.Context, filters ports.ArtifactFilters) ([]core.Artifact, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []core.Artifact
	if filters.RunID != nil {
		for _, id := range l.byRun[*filters.RunID] {
			out = append(out, l.artifacts[id])
		}
	} else {
		for _, artifact := range l.artifacts {
			out = append(out, artifact)
		}
	}
	sortNewestFirst(out)

	if filters.Kind != nil {
		filtered := out[:0]
		for _, artifact := range out {
			if artifact.Kind == *filters.Kind {
				filtered = append(filtered, artifact)
			}
		}
		out = filtered
	}

	if filters.Offset > 0 {
		if filters.Offset >= len(out) {
			return nil, nil
		}
		out = out[filters.Offset:]
	}
	if filters.Limit > 0 && len(out) > filters.Limit {
		out = out[:filters.Limit]
	}
	return out, nil
}

func (l *InMemoryLedger) GetRunManifest(ctx context.Context, runID core.RunID) (*impute.RunManifest, error) {
	artifacts, err := l.GetArtifactsByRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	for _, artifact := range artifacts {
		if artifact.Kind != core.ArtifactRunManifest {
			continue
		}
		return decodeManifest(artifact.Payload, runID)
	}
	return nil, fmt.Errorf("no manifest stored for run %s", runID)
}

func (l *InMemoryLedger) ListRunIDs(ctx context.Context, limit int) ([]core.RunID, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]core.RunID, len(l.runOrder))
	copy(out, l.runOrder)
	// Newest runs first.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func decodeManifest(payload interface{}, runID core.RunID) (*impute.RunManifest, error) {
	switch m := payload.(type) {
	case *impute.RunManifest:
		out := *m
		return &out, nil
	case impute.RunManifest:
		return &m, nil
	default:
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding manifest payload for run %s: %w", runID, err)
		}
		var manifest impute.RunManifest
		if err := json.Unmarshal(data, &manifest); err != nil {
			return nil, fmt.Errorf("decoding manifest for run %s: %w", runID, err)
		}
		return &manifest, nil
	}
}

func sortNewestFirst(artifacts []core.Artifact) {
	sort.SliceStable(artifacts, func(i, j int) bool {
		return artifacts[i].CreatedAt.Time().After(artifacts[j].CreatedAt.Time())
	})
}
