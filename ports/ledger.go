package ports

import (
	"context"

	"deqc/domain/core"
	"deqc/domain/de"
)

// LedgerWriterPort provides append-only write access to run artifacts.
// This is the ONLY way to write artifacts - prevents read-after-write coupling.
type LedgerWriterPort interface {
	StoreArtifact(ctx context.Context, artifact core.Artifact) error
}

// LedgerReaderPort provides read-only access to stored artifacts.
// Use this for queries, replay, and API access.
type LedgerReaderPort interface {
	GetArtifact(ctx context.Context, id core.ArtifactID) (*core.Artifact, error)
	GetArtifactsByRun(ctx context.Context, runID core.RunID) ([]core.Artifact, error)
	GetArtifactsByKind(ctx context.Context, runID core.RunID, kind core.ArtifactKind) ([]core.Artifact, error)

	// GetRunManifest returns the decoded manifest for a run
	GetRunManifest(ctx context.Context, runID core.RunID) (*de.RunManifest, error)
}

// LedgerPort combines read and write access
type LedgerPort interface {
	LedgerWriterPort
	LedgerReaderPort
}
