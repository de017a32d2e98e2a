package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"deqc/adapters/stats/engine"
	"deqc/domain/core"
	"deqc/domain/de"
	"deqc/internal/analysis/quality"
	"deqc/ports"
)

// CompareService runs the full cross-input comparison: branch extraction,
// quality screening, per-method joins, correlation scalars, overlap sets,
// and the audit manifest. Artifacts are persisted through the ledger when
// one is configured.
type CompareService struct {
	shrinkage *ShrinkageService
	engine    *engine.CompareEngine
	quality   *quality.Computer
	ledger    ports.LedgerWriterPort // optional
}

// CompareRequest defines one comparison run
type CompareRequest struct {
	RunID    core.RunID // generated when empty
	Models   map[de.InputType]ports.FittedModel
	Contrast de.Contrast
	Alpha    float64
	// NaNWarnThreshold is the caller's tolerance for NaN proportion per
	// metric column; columns above it produce non-fatal warnings.
	NaNWarnThreshold float64
}

// CompareResult is the complete output of one run. Branch failures appear
// in the manifest; everything derivable from the surviving branches is
// still populated.
type CompareResult struct {
	RunID     core.RunID
	Tables    de.ResultSet
	Merged    map[de.ShrinkageMethod]*de.MergedTable
	Long      *de.LongTable
	Partition *de.SetPartition
	Manifest  *de.RunManifest
}

// NewCompareService creates the comparison service. ledger may be nil for
// callers that consume results in memory only.
func NewCompareService(shrinkage *ShrinkageService, eng *engine.CompareEngine, ledger ports.LedgerWriterPort) *CompareService {
	return &CompareService{
		shrinkage: shrinkage,
		engine:    eng,
		quality:   quality.NewComputer(),
		ledger:    ledger,
	}
}

// Run executes the comparison pipeline
func (s *CompareService) Run(ctx context.Context, req CompareRequest) (*CompareResult, error) {
	start := time.Now()

	if err := req.Contrast.Validate(); err != nil {
		return nil, err
	}
	runID := req.RunID
	if runID == "" {
		runID = core.RunID(core.NewID())
	}

	manifest := de.NewRunManifest(runID, req.Contrast, req.Alpha)

	// Eight independent extraction branches over read-only model handles.
	tables, outcomes := s.shrinkage.ExtractAll(ctx, req.Models, req.Contrast)
	manifest.Branches = outcomes
	for _, b := range manifest.FailedBranches() {
		log.Printf("[CompareService] branch %s failed: %s", b.Key, b.Error)
	}

	// Non-fatal quality screen on every surviving table.
	for _, key := range tableKeys(tables) {
		manifest.Warnings = append(manifest.Warnings,
			s.quality.CheckNaN(tables[key], req.NaNWarnThreshold)...)
	}

	// Join TPM/COUNTS per shrinkage method wherever both branches survived.
	merged := make(map[de.ShrinkageMethod]*de.MergedTable)
	ordered := make([]*de.MergedTable, 0, 4)
	for _, method := range de.ShrinkageMethods() {
		tpm, counts, ok := tables.Pair(method)
		if !ok {
			continue
		}
		m, err := s.engine.Join(tpm, counts)
		if err != nil {
			return nil, err
		}
		merged[method] = m
		ordered = append(ordered, m)
		manifest.Dropped[method] = m.Dropped()
	}

	long := s.engine.Concat(ordered)
	s.engine.CompareAll(long, ordered)

	// Overlap sets derive from the unshrunken pair alone.
	var partition *de.SetPartition
	if tpm, counts, ok := tables.Pair(de.ShrinkNone); ok {
		var err error
		partition, err = s.engine.Partition(tpm, counts)
		if err != nil {
			return nil, err
		}
	}

	if t, ok := tables[de.TableKey{Input: de.InputTPM, Shrinkage: de.ShrinkNone}]; ok {
		manifest.TPMUniverse = t.UniverseHash()
	}
	if t, ok := tables[de.TableKey{Input: de.InputCounts, Shrinkage: de.ShrinkNone}]; ok {
		manifest.CountsUniverse = t.UniverseHash()
	}
	manifest.RuntimeMs = time.Since(start).Milliseconds()
	manifest.Fingerprint = manifest.ComputeFingerprint()

	result := &CompareResult{
		RunID:     runID,
		Tables:    tables,
		Merged:    merged,
		Long:      long,
		Partition: partition,
		Manifest:  manifest,
	}

	if s.ledger != nil {
		if err := s.persist(ctx, result); err != nil {
			return nil, fmt.Errorf("failed to store run artifacts: %w", err)
		}
	}

	log.Printf("[CompareService] run %s: %d branches ok, %d failed, %d merged rows, %dms",
		runID, len(tables), len(manifest.FailedBranches()), len(long.Rows), manifest.RuntimeMs)
	return result, nil
}

// persist stores the run's artifacts through the ledger
func (s *CompareService) persist(ctx context.Context, result *CompareResult) error {
	artifacts := []core.Artifact{
		{ID: core.NewID(), RunID: result.RunID, Kind: core.ArtifactRunManifest, Payload: result.Manifest, CreatedAt: core.Now()},
		{ID: core.NewID(), RunID: result.RunID, Kind: core.ArtifactMergedTable, Payload: result.Long, CreatedAt: core.Now()},
		{ID: core.NewID(), RunID: result.RunID, Kind: core.ArtifactCorrelationSummary, Payload: result.Long.Labels, CreatedAt: core.Now()},
	}
	if result.Partition != nil {
		artifacts = append(artifacts, core.Artifact{
			ID: core.NewID(), RunID: result.RunID, Kind: core.ArtifactSetPartition,
			Payload: result.Partition, CreatedAt: core.Now(),
		})
	}
	for _, w := range result.Manifest.Warnings {
		artifacts = append(artifacts, core.Artifact{
			ID: core.NewID(), RunID: result.RunID, Kind: core.ArtifactQualityWarning,
			Payload: w, CreatedAt: core.Now(),
		})
	}
	for _, a := range artifacts {
		if err := s.ledger.StoreArtifact(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// tableKeys returns the set's keys in canonical order
func tableKeys(set de.ResultSet) []de.TableKey {
	keys := make([]de.TableKey, 0, len(set))
	for _, input := range de.InputTypes() {
		for _, method := range de.ShrinkageMethods() {
			key := de.TableKey{Input: input, Shrinkage: method}
			if _, ok := set[key]; ok {
				keys = append(keys, key)
			}
		}
	}
	return keys
}
