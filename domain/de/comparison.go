package de

import (
	"deqc/domain/core"
)

// Metric names one of the three compared result columns
type Metric string

const (
	MetricBaseMean  Metric = "base_mean"
	MetricLFC       Metric = "log2_fold_change"
	MetricAdjustedP Metric = "adjusted_p_value"
)

// Metrics lists the compared metrics in canonical order
func Metrics() []Metric {
	return []Metric{MetricBaseMean, MetricLFC, MetricAdjustedP}
}

// InputMetrics carries one input type's side of a joined row. The schema is
// fixed and named; downstream consumers never parse suffixed column names.
type InputMetrics struct {
	BaseMean  float64           `json:"base_mean"`
	LFC       float64           `json:"log2_fold_change"`
	PValue    float64           `json:"p_value"`
	AdjustedP float64           `json:"adjusted_p_value"`
	Label     SignificanceLabel `json:"significance_label"`
}

// Metric extracts one metric value from the side
func (m InputMetrics) Metric(metric Metric) float64 {
	switch metric {
	case MetricBaseMean:
		return m.BaseMean
	case MetricLFC:
		return m.LFC
	default:
		return m.AdjustedP
	}
}

// MetricDiffs holds the explicit TPM-minus-COUNTS difference columns.
// NaN on either side propagates into the difference.
type MetricDiffs struct {
	BaseMean  float64 `json:"base_mean"`
	LFC       float64 `json:"log2_fold_change"`
	AdjustedP float64 `json:"adjusted_p_value"`
}

// ComparisonRow is one gene's side-by-side metrics after the cross-input
// join for one shrinkage method.
type ComparisonRow struct {
	GeneID    core.GeneID     `json:"gene_id"`
	Shrinkage ShrinkageMethod `json:"shrinkage_method"`
	TPM       InputMetrics    `json:"tpm"`
	Counts    InputMetrics    `json:"counts"`
	Diff      MetricDiffs     `json:"diff"`
}

// MergedTable is the joined comparison table for one shrinkage method,
// plus the join's silent-shrinkage accounting.
type MergedTable struct {
	Shrinkage    ShrinkageMethod `json:"shrinkage_method"`
	Rows         []ComparisonRow `json:"rows"`
	DroppedTPM   int             `json:"dropped_tpm"`    // present only in the TPM table
	DroppedCount int             `json:"dropped_counts"` // present only in the COUNTS table
}

// Dropped returns the total entities excluded by the inner join
func (m *MergedTable) Dropped() int {
	return m.DroppedTPM + m.DroppedCount
}

// LongTable concatenates the four per-method merged tables into the one
// canonical table all downstream comparison and plotting consumes.
type LongTable struct {
	Rows    []ComparisonRow              `json:"rows"`
	Dropped map[ShrinkageMethod]int      `json:"dropped"`
	Labels  map[MetricGroup]Correlations `json:"labels"`
}

// MetricGroup keys one (shrinkage method, metric) correlation group
type MetricGroup struct {
	Shrinkage ShrinkageMethod `json:"shrinkage_method"`
	Metric    Metric          `json:"metric"`
}

// Correlations carries the two agreement scalars for one metric group.
// Both are broadcast onto every row of the group for report annotation.
type Correlations struct {
	Value float64 `json:"value"` // Pearson on raw metric values
	Rank  float64 `json:"rank"`  // Pearson on stable dense ranks
	N     int     `json:"n"`     // entities contributing to the pair of scalars
}
