package de

import (
	"fmt"

	"deqc/domain/core"
)

// BranchStatus is the outcome of one (input, shrinkage) extraction branch
type BranchStatus string

const (
	BranchOK     BranchStatus = "ok"
	BranchFailed BranchStatus = "failed"
)

// BranchOutcome records how one of the eight extraction branches ended.
// A failed branch never aborts its siblings; callers read partial results.
type BranchOutcome struct {
	Key      TableKey     `json:"key"`
	Status   BranchStatus `json:"status"`
	RowCount int          `json:"row_count"`
	Error    string       `json:"error,omitempty"`
}

// QualityWarning is a non-fatal data quality finding: the NaN proportion of
// one metric column exceeded the caller's threshold.
type QualityWarning struct {
	Key       TableKey `json:"key"`
	Metric    Metric   `json:"metric"`
	NaNRatio  float64  `json:"nan_ratio"`
	Threshold float64  `json:"threshold"`
}

func (w QualityWarning) String() string {
	return fmt.Sprintf("%s %s: NaN ratio %.4f exceeds %.4f", w.Key, w.Metric, w.NaNRatio, w.Threshold)
}

// RunManifest captures the complete audit trail of one comparison run
type RunManifest struct {
	RunID    core.RunID `json:"run_id"`
	Contrast Contrast   `json:"contrast"`
	Alpha    float64    `json:"alpha"`

	Branches []BranchOutcome         `json:"branches"`
	Dropped  map[ShrinkageMethod]int `json:"dropped"` // inner-join exclusions per method
	Warnings []QualityWarning        `json:"warnings,omitempty"`

	TPMUniverse    core.Hash `json:"tpm_universe"`
	CountsUniverse core.Hash `json:"counts_universe"`

	RuntimeMs   int64          `json:"runtime_ms"`
	Fingerprint core.Hash      `json:"fingerprint"`
	CreatedAt   core.Timestamp `json:"created_at"`
}

// NewRunManifest creates a manifest for a run
func NewRunManifest(runID core.RunID, contrast Contrast, alpha float64) *RunManifest {
	return &RunManifest{
		RunID:     runID,
		Contrast:  contrast,
		Alpha:     alpha,
		Branches:  make([]BranchOutcome, 0, 8),
		Dropped:   make(map[ShrinkageMethod]int),
		CreatedAt: core.Now(),
	}
}

// FailedBranches returns the outcomes that did not complete
func (m *RunManifest) FailedBranches() []BranchOutcome {
	var failed []BranchOutcome
	for _, b := range m.Branches {
		if b.Status == BranchFailed {
			failed = append(failed, b)
		}
	}
	return failed
}

// ComputeFingerprint derives a deterministic fingerprint from the manifest's
// identifying fields. Branch order is canonical (input x shrinkage), so two
// identical runs fingerprint identically.
func (m *RunManifest) ComputeFingerprint() core.Hash {
	data := fmt.Sprintf("%s|%s|%.6f|%s|%s", m.RunID, m.Contrast, m.Alpha, m.TPMUniverse, m.CountsUniverse)
	for _, b := range m.Branches {
		data += fmt.Sprintf("|%s=%s:%d", b.Key, b.Status, b.RowCount)
	}
	for _, method := range ShrinkageMethods() {
		data += fmt.Sprintf("|drop_%s=%d", method, m.Dropped[method])
	}
	return core.NewHash([]byte(data))
}
