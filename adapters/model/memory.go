// Package model provides FittedModel adapters. The statistical fitting
// itself (size factors, dispersions, the GLM test, the shrinkage
// estimators) is an external collaborator; adapters here only hand its
// precomputed outputs to the pipeline.
package model

import (
	"context"
	"fmt"

	"deqc/domain/core"
	"deqc/domain/de"
	"deqc/ports"
)

// MemoryModel is a FittedModel backed by precomputed result rows, one row
// set per shrinkage method. It backs tests and the CLI path where the
// fitting collaborator's outputs arrive as tables.
type MemoryModel struct {
	input        de.InputType
	fit          bool
	coefficients []string
	contrast     de.Contrast
	rows         map[de.ShrinkageMethod][]de.ResultRow
}

var _ ports.FittedModel = (*MemoryModel)(nil)

// NewMemoryModel builds a fitted model handle for one input type. The
// coefficient list mirrors the design matrix of the external fit; for a
// two-level factor design it is [intercept, <factor>_<level>_vs_<reference>].
func NewMemoryModel(input de.InputType, contrast de.Contrast, coefficients []string) *MemoryModel {
	return &MemoryModel{
		input:        input,
		fit:          true,
		coefficients: coefficients,
		contrast:     contrast,
		rows:         make(map[de.ShrinkageMethod][]de.ResultRow),
	}
}

// NewUnfitModel builds a handle whose precondition deliberately fails.
// Used to exercise the pipeline's fail-fast path.
func NewUnfitModel(input de.InputType) *MemoryModel {
	return &MemoryModel{input: input, rows: make(map[de.ShrinkageMethod][]de.ResultRow)}
}

// SetRows installs the precomputed rows for one shrinkage method. Rows are
// retagged with the model's input type and the method so table invariants
// hold regardless of how the source file was tagged.
func (m *MemoryModel) SetRows(method de.ShrinkageMethod, rows []de.ResultRow) {
	tagged := make([]de.ResultRow, len(rows))
	for i, row := range rows {
		row.Input = m.input
		row.Shrinkage = method
		tagged[i] = row
	}
	m.rows[method] = tagged
}

// IsFit reports whether the external fit completed
func (m *MemoryModel) IsFit() bool { return m.fit }

// CoefficientNames returns the design coefficients in order
func (m *MemoryModel) CoefficientNames() []string {
	names := make([]string, len(m.coefficients))
	copy(names, m.coefficients)
	return names
}

// ResolveCoefficient maps a two-group contrast onto its coefficient name.
// Multi-level designs whose comparison is not a single coefficient resolve
// to core.ErrCoefficientUnresolved.
func (m *MemoryModel) ResolveCoefficient(contrast de.Contrast) (string, error) {
	if err := contrast.Validate(); err != nil {
		return "", err
	}
	want := CoefficientName(contrast)
	for _, name := range m.coefficients {
		if name == want {
			return name, nil
		}
	}
	return "", core.NewCoefficientError(contrast.String(), m.coefficients)
}

// Results returns the unshrunken test results for the contrast
func (m *MemoryModel) Results(ctx context.Context, contrast de.Contrast) ([]de.ResultRow, error) {
	if !m.fit {
		return nil, core.ErrModelNotFit
	}
	if contrast != m.contrast {
		return nil, fmt.Errorf("%w: fit carries contrast %q, requested %q",
			core.ErrCoefficientUnresolved, m.contrast, contrast)
	}
	return m.copyRows(de.ShrinkNone)
}

// Shrink returns one shrinkage variant of the named coefficient
func (m *MemoryModel) Shrink(ctx context.Context, coefficient string, method de.ShrinkageMethod) ([]de.ResultRow, error) {
	if !m.fit {
		return nil, core.ErrModelNotFit
	}
	if coefficient != CoefficientName(m.contrast) {
		return nil, core.NewCoefficientError(coefficient, m.coefficients)
	}
	if method == de.ShrinkNone {
		return nil, fmt.Errorf("shrinkage method %s is not a shrinkage variant", method)
	}
	return m.copyRows(method)
}

func (m *MemoryModel) copyRows(method de.ShrinkageMethod) ([]de.ResultRow, error) {
	rows, ok := m.rows[method]
	if !ok {
		return nil, fmt.Errorf("%w: no %s rows loaded for %s", core.ErrNotFound, method, m.input)
	}
	out := make([]de.ResultRow, len(rows))
	copy(out, rows)
	return out, nil
}

// CoefficientName renders the design coefficient a two-group contrast maps
// to, e.g. "condition_treated_vs_control".
func CoefficientName(c de.Contrast) string {
	return fmt.Sprintf("%s_%s_vs_%s", c.Factor, c.Level, c.Reference)
}
