package de

import (
	"errors"
	"math"
	"testing"

	"deqc/domain/core"
)

func validRow(id string) ResultRow {
	return ResultRow{
		GeneID:    core.GeneID(id),
		BaseMean:  100.5,
		LFC:       1.2,
		PValue:    0.001,
		AdjustedP: 0.01,
		Input:     InputTPM,
		Shrinkage: ShrinkNone,
	}
}

func TestContrast_Validate(t *testing.T) {
	valid := Contrast{Factor: "condition", Level: "treated", Reference: "control"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid contrast rejected: %v", err)
	}

	cases := map[string]Contrast{
		"empty factor":          {Level: "treated", Reference: "control"},
		"empty level":           {Factor: "condition", Reference: "control"},
		"empty reference":       {Factor: "condition", Level: "treated"},
		"level equals referene": {Factor: "condition", Level: "control", Reference: "control"},
	}
	for name, c := range cases {
		if err := c.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestNewResultTable_RejectsEmptyGeneID(t *testing.T) {
	row := validRow("")
	key := TableKey{Input: InputTPM, Shrinkage: ShrinkNone}
	if _, err := NewResultTable(key, []ResultRow{row}); err == nil {
		t.Fatal("expected error for empty gene ID")
	}
}

func TestNewResultTable_RejectsMistaggedRow(t *testing.T) {
	row := validRow("g1")
	row.Shrinkage = ShrinkApeglm
	key := TableKey{Input: InputTPM, Shrinkage: ShrinkNone}
	if _, err := NewResultTable(key, []ResultRow{row}); err == nil {
		t.Fatal("expected error for row tagged with a different shrinkage method")
	}
}

func TestNewResultTable_RejectsDuplicateGene(t *testing.T) {
	key := TableKey{Input: InputTPM, Shrinkage: ShrinkNone}
	_, err := NewResultTable(key, []ResultRow{validRow("g1"), validRow("g1")})
	if !errors.Is(err, core.ErrDuplicateGene) {
		t.Fatalf("expected ErrDuplicateGene, got %v", err)
	}
}

func TestNewResultTable_RangeValidation(t *testing.T) {
	key := TableKey{Input: InputTPM, Shrinkage: ShrinkNone}

	negBase := validRow("g1")
	negBase.BaseMean = -1
	if _, err := NewResultTable(key, []ResultRow{negBase}); err == nil {
		t.Error("expected error for negative base mean")
	}

	badP := validRow("g2")
	badP.PValue = 1.5
	if _, err := NewResultTable(key, []ResultRow{badP}); err == nil {
		t.Error("expected error for p-value above 1")
	}

	badPadj := validRow("g3")
	badPadj.AdjustedP = -0.2
	if _, err := NewResultTable(key, []ResultRow{badPadj}); err == nil {
		t.Error("expected error for negative adjusted p-value")
	}
}

func TestNewResultTable_NaNFieldsAreValid(t *testing.T) {
	row := validRow("g1")
	row.LFC = math.NaN()
	row.PValue = math.NaN()
	row.AdjustedP = math.NaN()
	key := TableKey{Input: InputTPM, Shrinkage: ShrinkNone}

	table, err := NewResultTable(key, []ResultRow{row})
	if err != nil {
		t.Fatalf("NaN metric fields must be accepted: %v", err)
	}
	got, ok := table.Lookup("g1")
	if !ok {
		t.Fatal("gene g1 missing after construction")
	}
	if !math.IsNaN(got.AdjustedP) {
		t.Error("NaN adjusted p-value must survive construction, not be coerced")
	}
	if got.Evaluable() {
		t.Error("row with NaN adjusted p-value must not be evaluable")
	}
}

func TestResultTable_IsImmutableCopy(t *testing.T) {
	rows := []ResultRow{validRow("g1")}
	key := TableKey{Input: InputTPM, Shrinkage: ShrinkNone}
	table := MustNewResultTable(key, rows)

	rows[0].LFC = 99
	got, _ := table.Lookup("g1")
	if got.LFC == 99 {
		t.Error("table rows must be copied, not aliased to caller input")
	}
}

func TestUniverseHash_OrderIndependent(t *testing.T) {
	key := TableKey{Input: InputTPM, Shrinkage: ShrinkNone}
	a := MustNewResultTable(key, []ResultRow{validRow("g1"), validRow("g2")})
	b := MustNewResultTable(key, []ResultRow{validRow("g2"), validRow("g1")})

	if !a.UniverseHash().Equals(b.UniverseHash()) {
		t.Error("universe hash must not depend on row order")
	}

	c := MustNewResultTable(key, []ResultRow{validRow("g1"), validRow("g3")})
	if a.UniverseHash().Equals(c.UniverseHash()) {
		t.Error("different gene universes must hash differently")
	}
}

func TestResultSet_Pair(t *testing.T) {
	set := make(ResultSet)

	tpmRow := validRow("g1")
	set[TableKey{Input: InputTPM, Shrinkage: ShrinkNone}] =
		MustNewResultTable(TableKey{Input: InputTPM, Shrinkage: ShrinkNone}, []ResultRow{tpmRow})

	if _, _, ok := set.Pair(ShrinkNone); ok {
		t.Fatal("pair must be incomplete with only the TPM side")
	}

	countsRow := validRow("g1")
	countsRow.Input = InputCounts
	set[TableKey{Input: InputCounts, Shrinkage: ShrinkNone}] =
		MustNewResultTable(TableKey{Input: InputCounts, Shrinkage: ShrinkNone}, []ResultRow{countsRow})

	tpm, counts, ok := set.Pair(ShrinkNone)
	if !ok {
		t.Fatal("pair must resolve with both sides present")
	}
	if tpm.Key.Input != InputTPM || counts.Key.Input != InputCounts {
		t.Error("pair returned tables for the wrong inputs")
	}
}
