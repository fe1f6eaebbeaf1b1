package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	RunID       ID
	DatasetID   ID
	VariableKey ID
	ArtifactID  ID
)

// String conversions for domain IDs
func (id RunID) String() string       { return ID(id).String() }
func (id DatasetID) String() string   { return ID(id).String() }
func (id VariableKey) String() string { return ID(id).String() }
func (id ArtifactID) String() string  { return ID(id).String() }

// ParseRunID parses a string into RunID
func ParseRunID(s string) (RunID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("run ID cannot be empty")
	}
	return RunID(s), nil
}

// ParseVariableKey parses a string into VariableKey
func ParseVariableKey(s string) (VariableKey, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("variable key cannot be empty")
	}
	return VariableKey(s), nil
}

// ParseArtifactID parses a string into ArtifactID
func ParseArtifactID(s string) (ArtifactID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("artifact ID cannot be empty")
	}
	return ArtifactID(s), nil
}

// Artifact represents any output of the system
type Artifact struct {
	ID        ID           `json:"id"`
	Kind      ArtifactKind `json:"kind"`
	Payload   interface{}  `json:"payload"`
	CreatedAt Timestamp    `json:"created_at"`
}

// ArtifactKind defines types of artifacts
type ArtifactKind string

const (
	// ArtifactRunEstimate is one per-run coefficient estimate from a completed dataset.
	ArtifactRunEstimate ArtifactKind = "run_estimate"
	// ArtifactPooledEstimate is the combined multiple-imputation estimate.
	ArtifactPooledEstimate ArtifactKind = "pooled_estimate"
	// ArtifactRunManifest captures audit metadata for a run (subsets, seed, fingerprint).
	ArtifactRunManifest ArtifactKind = "run_manifest"
	// ArtifactColumnProfile is a per-column descriptive summary (missing rate, moments).
	ArtifactColumnProfile ArtifactKind = "column_profile"
)
