package de

import (
	"fmt"
	"math"

	"deqc/domain/core"
)

// ============================================================================
// STABLE PRIMITIVES (Canonical, never change)
// ============================================================================

// InputType identifies which upstream quantification produced a result table
type InputType string

const (
	InputTPM    InputType = "TPM"
	InputCounts InputType = "COUNTS"
)

// InputTypes lists the two quantification inputs in canonical order
func InputTypes() []InputType {
	return []InputType{InputTPM, InputCounts}
}

// ShrinkageMethod identifies the effect-size shrinkage variant
type ShrinkageMethod string

const (
	ShrinkNone   ShrinkageMethod = "NONE"
	ShrinkNormal ShrinkageMethod = "NORMAL"
	ShrinkApeglm ShrinkageMethod = "APEGLM"
	ShrinkAshr   ShrinkageMethod = "ASHR"
)

// ShrinkageMethods lists all shrinkage variants in canonical order
func ShrinkageMethods() []ShrinkageMethod {
	return []ShrinkageMethod{ShrinkNone, ShrinkNormal, ShrinkApeglm, ShrinkAshr}
}

// SignificanceLabel is the derived classification of one result row
type SignificanceLabel string

const (
	Significant    SignificanceLabel = "SIGNIFICANT"
	NotSignificant SignificanceLabel = "NOT_SIGNIFICANT"
)

// TableKey identifies one (input type, shrinkage method) partition
type TableKey struct {
	Input     InputType       `json:"input_type"`
	Shrinkage ShrinkageMethod `json:"shrinkage_method"`
}

func (k TableKey) String() string {
	return fmt.Sprintf("%s/%s", k.Input, k.Shrinkage)
}

// Contrast defines the two-group comparison a test is evaluated against
type Contrast struct {
	Factor    string `json:"factor"`    // e.g. "condition"
	Level     string `json:"level"`     // tested level, e.g. "treated"
	Reference string `json:"reference"` // reference level, e.g. "control"
}

func (c Contrast) String() string {
	return fmt.Sprintf("%s: %s vs %s", c.Factor, c.Level, c.Reference)
}

// Validate checks the contrast names a complete two-group comparison
func (c Contrast) Validate() error {
	if c.Factor == "" || c.Level == "" || c.Reference == "" {
		return core.NewValidationError("contrast", "factor, level and reference must all be set")
	}
	if c.Level == c.Reference {
		return core.NewValidationError("contrast", "level and reference must differ")
	}
	return nil
}

// ============================================================================
// RESULT ROWS AND TABLES
// ============================================================================

// ResultRow is one DE test outcome for one gene under one
// (input type, shrinkage method) combination.
//
// NaN semantics: LFC is NaN iff the gene had zero abundance in every sample;
// PValue/AdjustedP are NaN when the test excluded the gene as a statistical
// outlier. NaN always propagates downstream, never coerces to zero.
type ResultRow struct {
	GeneID    core.GeneID       `json:"gene_id"`
	BaseMean  float64           `json:"base_mean"`
	LFC       float64           `json:"log2_fold_change"`
	PValue    float64           `json:"p_value"`
	AdjustedP float64           `json:"adjusted_p_value"`
	Input     InputType         `json:"input_type"`
	Shrinkage ShrinkageMethod   `json:"shrinkage_method"`
	Label     SignificanceLabel `json:"significance_label"`
}

// Evaluable reports whether the adjusted p-value carries significance
// information for this row.
func (r ResultRow) Evaluable() bool {
	return !math.IsNaN(r.AdjustedP)
}

// ResultTable is one immutable partition of result rows, keyed by
// (input type, shrinkage method). Gene IDs are unique within the table.
type ResultTable struct {
	Key  TableKey    `json:"key"`
	Rows []ResultRow `json:"rows"`

	index map[core.GeneID]int
}

// NewResultTable validates and builds a result table. Every row must carry
// the table's own input type and shrinkage method, and no gene may appear
// twice.
func NewResultTable(key TableKey, rows []ResultRow) (*ResultTable, error) {
	index := make(map[core.GeneID]int, len(rows))
	for i, row := range rows {
		if row.GeneID == "" {
			return nil, core.NewValidationError("gene_id", fmt.Sprintf("row %d has empty gene ID", i))
		}
		if row.Input != key.Input || row.Shrinkage != key.Shrinkage {
			return nil, core.NewValidationError("row", fmt.Sprintf(
				"row %s tagged %s/%s does not belong to table %s",
				row.GeneID, row.Input, row.Shrinkage, key))
		}
		if err := validateRow(row); err != nil {
			return nil, err
		}
		if _, dup := index[row.GeneID]; dup {
			return nil, fmt.Errorf("%w: %s in %s", core.ErrDuplicateGene, row.GeneID, key)
		}
		index[row.GeneID] = i
	}

	copied := make([]ResultRow, len(rows))
	copy(copied, rows)

	return &ResultTable{Key: key, Rows: copied, index: index}, nil
}

// MustNewResultTable builds a result table and panics on invalid input.
// Use only in tests and fixtures.
func MustNewResultTable(key TableKey, rows []ResultRow) *ResultTable {
	t, err := NewResultTable(key, rows)
	if err != nil {
		panic(err)
	}
	return t
}

func validateRow(row ResultRow) error {
	if !math.IsNaN(row.BaseMean) && row.BaseMean < 0 {
		return core.NewValidationError("base_mean", fmt.Sprintf("%s: must be >= 0, got %f", row.GeneID, row.BaseMean))
	}
	if !math.IsNaN(row.PValue) && (row.PValue < 0 || row.PValue > 1) {
		return core.NewValidationError("p_value", fmt.Sprintf("%s: must be in [0,1], got %f", row.GeneID, row.PValue))
	}
	if !math.IsNaN(row.AdjustedP) && (row.AdjustedP < 0 || row.AdjustedP > 1) {
		return core.NewValidationError("adjusted_p_value", fmt.Sprintf("%s: must be in [0,1], got %f", row.GeneID, row.AdjustedP))
	}
	return nil
}

// Len returns the number of rows
func (t *ResultTable) Len() int { return len(t.Rows) }

// Lookup returns the row for a gene, if present
func (t *ResultTable) Lookup(id core.GeneID) (ResultRow, bool) {
	i, ok := t.index[id]
	if !ok {
		return ResultRow{}, false
	}
	return t.Rows[i], true
}

// GeneIDs returns the gene identifiers in row order
func (t *ResultTable) GeneIDs() []core.GeneID {
	ids := make([]core.GeneID, len(t.Rows))
	for i, row := range t.Rows {
		ids[i] = row.GeneID
	}
	return ids
}

// UniverseHash fingerprints the table's gene universe, independent of order
func (t *ResultTable) UniverseHash() core.Hash {
	return core.ComputeUniverseHash(t.GeneIDs())
}

// ResultSet maps each (input, shrinkage) combination to its table. Missing
// combinations are explicit map misses, never silent positional gaps.
type ResultSet map[TableKey]*ResultTable

// Pair returns the TPM and COUNTS tables for one shrinkage method
func (s ResultSet) Pair(method ShrinkageMethod) (tpm, counts *ResultTable, ok bool) {
	tpm, okT := s[TableKey{Input: InputTPM, Shrinkage: method}]
	counts, okC := s[TableKey{Input: InputCounts, Shrinkage: method}]
	return tpm, counts, okT && okC
}
