package model

import (
	"context"
	"errors"
	"testing"

	"deqc/domain/core"
	"deqc/domain/de"
)

var testContrast = de.Contrast{Factor: "condition", Level: "treated", Reference: "control"}

func fittedModel() *MemoryModel {
	m := NewMemoryModel(de.InputTPM, testContrast, []string{"intercept", CoefficientName(testContrast)})
	rows := []de.ResultRow{{GeneID: "g1", BaseMean: 10, LFC: 1, PValue: 0.01, AdjustedP: 0.02}}
	for _, method := range de.ShrinkageMethods() {
		m.SetRows(method, rows)
	}
	return m
}

func TestCoefficientName(t *testing.T) {
	if got := CoefficientName(testContrast); got != "condition_treated_vs_control" {
		t.Errorf("coefficient name: got %q", got)
	}
}

func TestMemoryModel_ResolveCoefficient(t *testing.T) {
	m := fittedModel()

	name, err := m.ResolveCoefficient(testContrast)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if name != "condition_treated_vs_control" {
		t.Errorf("resolved %q", name)
	}

	other := de.Contrast{Factor: "batch", Level: "b2", Reference: "b1"}
	if _, err := m.ResolveCoefficient(other); !errors.Is(err, core.ErrCoefficientUnresolved) {
		t.Errorf("unexpressible contrast: expected ErrCoefficientUnresolved, got %v", err)
	}
}

func TestMemoryModel_UnfitFailsPrecondition(t *testing.T) {
	m := NewUnfitModel(de.InputCounts)

	if m.IsFit() {
		t.Fatal("unfit model must report IsFit false")
	}
	if _, err := m.Results(context.Background(), testContrast); !errors.Is(err, core.ErrModelNotFit) {
		t.Errorf("expected ErrModelNotFit, got %v", err)
	}
	if _, err := m.Shrink(context.Background(), "condition_treated_vs_control", de.ShrinkApeglm); !errors.Is(err, core.ErrModelNotFit) {
		t.Errorf("expected ErrModelNotFit, got %v", err)
	}
}

func TestMemoryModel_ResultsChecksContrast(t *testing.T) {
	m := fittedModel()

	rows, err := m.Results(context.Background(), testContrast)
	if err != nil {
		t.Fatalf("results failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	other := de.Contrast{Factor: "condition", Level: "dosed", Reference: "control"}
	if _, err := m.Results(context.Background(), other); !errors.Is(err, core.ErrCoefficientUnresolved) {
		t.Errorf("foreign contrast: expected ErrCoefficientUnresolved, got %v", err)
	}
}

func TestMemoryModel_ShrinkRejectsNone(t *testing.T) {
	m := fittedModel()

	if _, err := m.Shrink(context.Background(), CoefficientName(testContrast), de.ShrinkNone); err == nil {
		t.Error("NONE is not a shrinkage variant and must be rejected")
	}
	if _, err := m.Shrink(context.Background(), "wrong_coefficient", de.ShrinkAshr); !errors.Is(err, core.ErrCoefficientUnresolved) {
		t.Errorf("wrong coefficient: expected ErrCoefficientUnresolved, got %v", err)
	}
}

func TestMemoryModel_SetRowsRetags(t *testing.T) {
	m := fittedModel()
	m.SetRows(de.ShrinkAshr, []de.ResultRow{{
		GeneID: "g9", Input: de.InputCounts, Shrinkage: de.ShrinkNone,
	}})

	rows, err := m.Shrink(context.Background(), CoefficientName(testContrast), de.ShrinkAshr)
	if err != nil {
		t.Fatalf("shrink failed: %v", err)
	}
	if rows[0].Input != de.InputTPM || rows[0].Shrinkage != de.ShrinkAshr {
		t.Errorf("rows must be retagged with the model input and requested method, got %s/%s",
			rows[0].Input, rows[0].Shrinkage)
	}
}
