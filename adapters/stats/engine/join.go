package engine

import (
	"fmt"

	"deqc/domain/core"
	"deqc/domain/de"
)

// Join aligns the TPM and COUNTS result tables for one shrinkage method
// into one wide comparison table.
//
// Inner join semantics: genes missing from either side are dropped, which
// silently shrinks the comparable universe. The dropped counts are exposed
// on the merged table so callers can detect the shrinkage; the join itself
// never fails on a partial mismatch.
func (e *CompareEngine) Join(tpm, counts *de.ResultTable) (*de.MergedTable, error) {
	if tpm.Key.Input != de.InputTPM || counts.Key.Input != de.InputCounts {
		return nil, core.NewValidationError("join", fmt.Sprintf(
			"expected TPM and COUNTS tables, got %s and %s", tpm.Key, counts.Key))
	}
	if tpm.Key.Shrinkage != counts.Key.Shrinkage {
		return nil, core.NewValidationError("join", fmt.Sprintf(
			"shrinkage methods differ: %s vs %s", tpm.Key.Shrinkage, counts.Key.Shrinkage))
	}

	merged := &de.MergedTable{
		Shrinkage: tpm.Key.Shrinkage,
		Rows:      make([]de.ComparisonRow, 0, min(tpm.Len(), counts.Len())),
	}

	// TPM row order drives the joined row order so downstream stable-rank
	// tie-breaking is reproducible.
	for _, tRow := range tpm.Rows {
		cRow, ok := counts.Lookup(tRow.GeneID)
		if !ok {
			merged.DroppedTPM++
			continue
		}
		merged.Rows = append(merged.Rows, combine(tRow, cRow))
	}
	for _, cRow := range counts.Rows {
		if _, ok := tpm.Lookup(cRow.GeneID); !ok {
			merged.DroppedCount++
		}
	}

	return merged, nil
}

// combine builds the fixed-schema wide row. Differences are TPM minus
// COUNTS; NaN on either side propagates through float subtraction.
func combine(tpm, counts de.ResultRow) de.ComparisonRow {
	return de.ComparisonRow{
		GeneID:    tpm.GeneID,
		Shrinkage: tpm.Shrinkage,
		TPM:       sideMetrics(tpm),
		Counts:    sideMetrics(counts),
		Diff: de.MetricDiffs{
			BaseMean:  tpm.BaseMean - counts.BaseMean,
			LFC:       tpm.LFC - counts.LFC,
			AdjustedP: tpm.AdjustedP - counts.AdjustedP,
		},
	}
}

func sideMetrics(row de.ResultRow) de.InputMetrics {
	return de.InputMetrics{
		BaseMean:  row.BaseMean,
		LFC:       row.LFC,
		PValue:    row.PValue,
		AdjustedP: row.AdjustedP,
		Label:     row.Label,
	}
}

// Concat concatenates per-method merged tables into the canonical long
// table, tagged by shrinkage method in the given order. Correlation labels
// are attached separately by the comparator.
func (e *CompareEngine) Concat(tables []*de.MergedTable) *de.LongTable {
	long := &de.LongTable{
		Dropped: make(map[de.ShrinkageMethod]int),
		Labels:  make(map[de.MetricGroup]de.Correlations),
	}
	for _, t := range tables {
		long.Rows = append(long.Rows, t.Rows...)
		long.Dropped[t.Shrinkage] = t.Dropped()
	}
	return long
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
