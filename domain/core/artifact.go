package core

// Artifact represents any output of the system
type Artifact struct {
	ID        ID           `json:"id"`
	RunID     RunID        `json:"run_id"`
	Kind      ArtifactKind `json:"kind"`
	Payload   interface{}  `json:"payload"`
	CreatedAt Timestamp    `json:"created_at"`
}

// ArtifactKind defines types of artifacts
type ArtifactKind string

const (
	// ArtifactRunManifest captures audit metadata for one comparison run
	// (alpha, contrast, branch outcomes, dropped counts, fingerprint).
	ArtifactRunManifest ArtifactKind = "run_manifest"
	// ArtifactCorrelationSummary holds the per-metric, per-shrinkage value
	// and rank correlation scalars.
	ArtifactCorrelationSummary ArtifactKind = "correlation_summary"
	// ArtifactMergedTable holds the long cross-input comparison table.
	ArtifactMergedTable ArtifactKind = "merged_table"
	// ArtifactSetPartition holds the five overlap membership sets.
	ArtifactSetPartition ArtifactKind = "set_partition"
	// ArtifactQualityWarning records a non-fatal data quality finding.
	ArtifactQualityWarning ArtifactKind = "quality_warning"
)
