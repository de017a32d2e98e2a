// Package postgres implements the artifact ledger over PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"deqc/domain/core"
	"deqc/domain/de"
	"deqc/ports"
)

// LedgerRepository stores run artifacts append-only in PostgreSQL
type LedgerRepository struct {
	db *sqlx.DB
}

var _ ports.LedgerPort = (*LedgerRepository)(nil)

// NewLedgerRepository creates a PostgreSQL ledger
func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// EnsureSchema creates the artifact table when missing
func (r *LedgerRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS run_artifacts (
			id         UUID PRIMARY KEY,
			run_id     TEXT NOT NULL,
			kind       TEXT NOT NULL,
			payload    JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_run_artifacts_run ON run_artifacts (run_id);
		CREATE INDEX IF NOT EXISTS idx_run_artifacts_kind ON run_artifacts (run_id, kind)`)
	if err != nil {
		return fmt.Errorf("failed to ensure ledger schema: %w", err)
	}
	return nil
}

// StoreArtifact appends one artifact. Artifacts are immutable; a duplicate
// ID is a caller bug and surfaces as a constraint violation.
func (r *LedgerRepository) StoreArtifact(ctx context.Context, artifact core.Artifact) error {
	payload, err := json.Marshal(artifact.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode artifact payload: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO run_artifacts (id, run_id, kind, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		artifact.ID.String(), artifact.RunID.String(), string(artifact.Kind),
		payload, artifact.CreatedAt.Time())
	if err != nil {
		return fmt.Errorf("failed to store artifact %s: %w", artifact.ID, err)
	}
	return nil
}

type artifactRecord struct {
	ID        string       `db:"id"`
	RunID     string       `db:"run_id"`
	Kind      string       `db:"kind"`
	Payload   []byte       `db:"payload"`
	CreatedAt sql.NullTime `db:"created_at"`
}

// GetArtifact returns one artifact by ID
func (r *LedgerRepository) GetArtifact(ctx context.Context, id core.ArtifactID) (*core.Artifact, error) {
	var rec artifactRecord
	err := r.db.GetContext(ctx, &rec, `
		SELECT id, run_id, kind, payload, created_at
		FROM run_artifacts WHERE id = $1`, id.String())
	if err == sql.ErrNoRows {
		return nil, core.NewNotFoundError("artifact", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load artifact %s: %w", id, err)
	}
	return rec.toArtifact()
}

// GetArtifactsByRun returns every artifact of one run in insertion order
func (r *LedgerRepository) GetArtifactsByRun(ctx context.Context, runID core.RunID) ([]core.Artifact, error) {
	var recs []artifactRecord
	err := r.db.SelectContext(ctx, &recs, `
		SELECT id, run_id, kind, payload, created_at
		FROM run_artifacts WHERE run_id = $1 ORDER BY created_at, id`, runID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts for run %s: %w", runID, err)
	}
	return toArtifacts(recs)
}

// GetArtifactsByKind returns a run's artifacts of one kind
func (r *LedgerRepository) GetArtifactsByKind(ctx context.Context, runID core.RunID, kind core.ArtifactKind) ([]core.Artifact, error) {
	var recs []artifactRecord
	err := r.db.SelectContext(ctx, &recs, `
		SELECT id, run_id, kind, payload, created_at
		FROM run_artifacts WHERE run_id = $1 AND kind = $2 ORDER BY created_at, id`,
		runID.String(), string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s artifacts for run %s: %w", kind, runID, err)
	}
	return toArtifacts(recs)
}

// GetRunManifest returns the decoded manifest for a run
func (r *LedgerRepository) GetRunManifest(ctx context.Context, runID core.RunID) (*de.RunManifest, error) {
	var rec artifactRecord
	err := r.db.GetContext(ctx, &rec, `
		SELECT id, run_id, kind, payload, created_at
		FROM run_artifacts WHERE run_id = $1 AND kind = $2
		ORDER BY created_at DESC LIMIT 1`,
		runID.String(), string(core.ArtifactRunManifest))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest for run %s: %w", runID, err)
	}

	var manifest de.RunManifest
	if err := json.Unmarshal(rec.Payload, &manifest); err != nil {
		return nil, fmt.Errorf("failed to decode manifest for run %s: %w", runID, err)
	}
	return &manifest, nil
}

func (rec artifactRecord) toArtifact() (*core.Artifact, error) {
	var payload interface{}
	if err := json.Unmarshal(rec.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode artifact %s payload: %w", rec.ID, err)
	}
	artifact := core.Artifact{
		ID:      core.ID(rec.ID),
		RunID:   core.RunID(rec.RunID),
		Kind:    core.ArtifactKind(rec.Kind),
		Payload: payload,
	}
	if rec.CreatedAt.Valid {
		artifact.CreatedAt = core.NewTimestamp(rec.CreatedAt.Time)
	}
	return &artifact, nil
}

func toArtifacts(recs []artifactRecord) ([]core.Artifact, error) {
	artifacts := make([]core.Artifact, 0, len(recs))
	for _, rec := range recs {
		a, err := rec.toArtifact()
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, *a)
	}
	return artifacts, nil
}
