// Package postgres persists artifacts in PostgreSQL behind the ledger ports.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"goimpute/domain/core"
	"goimpute/domain/impute"
	"goimpute/ports"
)

// ledgerRepository implements ports.LedgerPort over a single artifacts table.
// Payloads are stored as JSONB so every artifact kind shares one append-only
// schema.
type ledgerRepository struct {
	db *sqlx.DB
}

// NewLedgerRepository creates a ledger repository.
func NewLedgerRepository(db *sqlx.DB) ports.LedgerPort {
	return &ledgerRepository{db: db}
}

// Connect opens and pings a PostgreSQL connection.
func Connect(url string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	return db, nil
}

// Migrate creates the artifacts table when it does not exist yet.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	schema := `CREATE TABLE IF NOT EXISTS artifacts (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		payload JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_artifacts_run_id ON artifacts (run_id);
	CREATE INDEX IF NOT EXISTS idx_artifacts_kind ON artifacts (kind);`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrating artifacts table: %w", err)
	}
	return nil
}

// artifactRow is the database shape of an artifact.
type artifactRow struct {
	ID        string       `db:"id"`
	RunID     string       `db:"run_id"`
	Kind      string       `db:"kind"`
	Payload   []byte       `db:"payload"`
	CreatedAt sql.NullTime `db:"created_at"`
}

func (r *ledgerRepository) StoreArtifact(ctx context.Context, runID string, artifact core.Artifact) error {
	payload, err := json.Marshal(artifact.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal artifact payload: %w", err)
	}

	query := `INSERT INTO artifacts (id, run_id, kind, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err = r.db.ExecContext(ctx, query,
		artifact.ID.String(), runID, string(artifact.Kind), payload, artifact.CreatedAt.Time())
	if err != nil {
		return fmt.Errorf("failed to store artifact: %w", err)
	}
	return nil
}

func (r *ledgerRepository) GetArtifact(ctx context.Context, artifactID core.ArtifactID) (*core.Artifact, error) {
	query := `SELECT id, run_id, kind, payload, created_at FROM artifacts WHERE id = $1`

	var row artifactRow
	if err := r.db.GetContext(ctx, &row, query, artifactID.String()); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("artifact not found: %s", artifactID)
		}
		return nil, fmt.Errorf("failed to get artifact: %w", err)
	}
	return rowToArtifact(row)
}

func (r *ledgerRepository) GetArtifactsByRun(ctx context.Context, runID core.RunID) ([]core.Artifact, error) {
	query := `SELECT id, run_id, kind, payload, created_at FROM artifacts
		WHERE run_id = $1 ORDER BY created_at DESC`

	var rows []artifactRow
	if err := r.db.SelectContext(ctx, &rows, query, runID.String()); err != nil {
		return nil, fmt.Errorf("failed to query artifacts for run: %w", err)
	}
	return rowsToArtifacts(rows)
}

func (r *ledgerRepository) GetArtifactsByKind(ctx context.Context, kind core.ArtifactKind, limit int) ([]core.Artifact, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT id, run_id, kind, payload, created_at FROM artifacts
		WHERE kind = $1 ORDER BY created_at DESC LIMIT $2`

	var rows []artifactRow
	if err := r.db.SelectContext(ctx, &rows, query, string(kind), limit); err != nil {
		return nil, fmt.Errorf("failed to query artifacts by kind: %w", err)
	}
	return rowsToArtifacts(rows)
}

func (r *ledgerRepository) ListArtifacts(ctx context.Context, filters ports.ArtifactFilters) ([]core.Artifact, error) {
	query := `SELECT id, run_id, kind, payload, created_at FROM artifacts WHERE 1=1`
	args := []interface{}{}

	if filters.RunID != nil {
		args = append(args, filters.RunID.String())
		query += fmt.Sprintf(" AND run_id = $%d", len(args))
	}
	if filters.Kind != nil {
		args = append(args, string(*filters.Kind))
		query += fmt.Sprintf(" AND kind = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"
	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filters.Offset > 0 {
		args = append(args, filters.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	var rows []artifactRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	return rowsToArtifacts(rows)
}

func (r *ledgerRepository) GetRunManifest(ctx context.Context, runID core.RunID) (*impute.RunManifest, error) {
	query := `SELECT payload FROM artifacts
		WHERE run_id = $1 AND kind = $2 ORDER BY created_at DESC LIMIT 1`

	var payload []byte
	err := r.db.GetContext(ctx, &payload, query, runID.String(), string(core.ArtifactRunManifest))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("no manifest stored for run %s", runID)
		}
		return nil, fmt.Errorf("failed to get run manifest: %w", err)
	}

	var manifest impute.RunManifest
	if err := json.Unmarshal(payload, &manifest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run manifest: %w", err)
	}
	return &manifest, nil
}

func (r *ledgerRepository) ListRunIDs(ctx context.Context, limit int) ([]core.RunID, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT run_id FROM artifacts
		GROUP BY run_id ORDER BY MAX(created_at) DESC LIMIT $1`

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list run IDs: %w", err)
	}
	out := make([]core.RunID, len(ids))
	for i, id := range ids {
		out[i] = core.RunID(id)
	}
	return out, nil
}

func rowToArtifact(row artifactRow) (*core.Artifact, error) {
	var payload interface{}
	if len(row.Payload) > 0 {
		if err := json.Unmarshal(row.Payload, &payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal artifact payload: %w", err)
		}
	}
	artifact := &core.Artifact{
		ID:      core.ID(row.ID),
		Kind:    core.ArtifactKind(row.Kind),
		Payload: payload,
	}
	if row.CreatedAt.Valid {
		artifact.CreatedAt = core.NewTimestamp(row.CreatedAt.Time)
	}
	return artifact, nil
}

func rowsToArtifacts(rows []artifactRow) ([]core.Artifact, error) {
	out := make([]core.Artifact, 0, len(rows))
	for _, row := range rows {
		artifact, err := rowToArtifact(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *artifact)
	}
	return out, nil
}
