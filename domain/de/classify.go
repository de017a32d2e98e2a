package de

import (
	"math"

	"deqc/domain/core"
)

// DefaultAlpha is the default false-discovery-rate acceptance threshold
const DefaultAlpha = 0.1

// Classifier labels result rows against an FDR threshold.
//
// A NaN adjusted p-value always classifies as NOT_SIGNIFICANT: it means
// "insufficient evidence", not "evidence of no effect".
type Classifier struct {
	Alpha float64
}

// NewClassifier builds a classifier for the given threshold
func NewClassifier(alpha float64) (*Classifier, error) {
	if math.IsNaN(alpha) || alpha <= 0 || alpha >= 1 {
		return nil, core.ErrInvalidThreshold
	}
	return &Classifier{Alpha: alpha}, nil
}

// Label classifies a single row
func (c *Classifier) Label(row ResultRow) SignificanceLabel {
	if !math.IsNaN(row.AdjustedP) && row.AdjustedP < c.Alpha {
		return Significant
	}
	return NotSignificant
}

// Classify returns a new table with every row's significance label set.
// The input table is not mutated.
func (c *Classifier) Classify(t *ResultTable) *ResultTable {
	rows := make([]ResultRow, len(t.Rows))
	for i, row := range t.Rows {
		row.Label = c.Label(row)
		rows[i] = row
	}
	return MustNewResultTable(t.Key, rows)
}
