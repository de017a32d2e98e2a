// Package testkit provides in-memory collaborators for tests and local
// runs without external services.
package testkit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"deqc/domain/core"
	"deqc/domain/de"
	"deqc/ports"
)

// MemoryLedger is an in-memory append-only artifact store
type MemoryLedger struct {
	mu        sync.RWMutex
	artifacts []core.Artifact
}

var _ ports.LedgerPort = (*MemoryLedger)(nil)

// NewMemoryLedger creates an empty ledger
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{}
}

// StoreArtifact appends one artifact
func (l *MemoryLedger) StoreArtifact(ctx context.Context, artifact core.Artifact) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, a := range l.artifacts {
		if a.ID == artifact.ID {
			return fmt.Errorf("artifact %s already stored", artifact.ID)
		}
	}
	l.artifacts = append(l.artifacts, artifact)
	return nil
}

// GetArtifact returns one artifact by ID
func (l *MemoryLedger) GetArtifact(ctx context.Context, id core.ArtifactID) (*core.Artifact, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, a := range l.artifacts {
		if core.ArtifactID(a.ID) == id {
			copied := a
			return &copied, nil
		}
	}
	return nil, core.NewNotFoundError("artifact", id.String())
}

// GetArtifactsByRun returns every artifact of one run in insertion order
func (l *MemoryLedger) GetArtifactsByRun(ctx context.Context, runID core.RunID) ([]core.Artifact, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []core.Artifact
	for _, a := range l.artifacts {
		if a.RunID == runID {
			out = append(out, a)
		}
	}
	return out, nil
}

// GetArtifactsByKind returns a run's artifacts of one kind
func (l *MemoryLedger) GetArtifactsByKind(ctx context.Context, runID core.RunID, kind core.ArtifactKind) ([]core.Artifact, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []core.Artifact
	for _, a := range l.artifacts {
		if a.RunID == runID && a.Kind == kind {
			out = append(out, a)
		}
	}
	return out, nil
}

// GetRunManifest returns the decoded manifest for a run
func (l *MemoryLedger) GetRunManifest(ctx context.Context, runID core.RunID) (*de.RunManifest, error) {
	artifacts, err := l.GetArtifactsByKind(ctx, runID, core.ArtifactRunManifest)
	if err != nil {
		return nil, err
	}
	if len(artifacts) == 0 {
		return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, runID)
	}

	latest := artifacts[len(artifacts)-1]
	if manifest, ok := latest.Payload.(*de.RunManifest); ok {
		return manifest, nil
	}
	// Payloads stored through serialization round-trips decode via JSON.
	data, err := json.Marshal(latest.Payload)
	if err != nil {
		return nil, err
	}
	var manifest de.RunManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, err
	}
	return &manifest, nil
}

// Len reports the number of stored artifacts
func (l *MemoryLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.artifacts)
}
