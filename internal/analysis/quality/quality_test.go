package quality

import (
	"math"
	"testing"

	"deqc/domain/de"
)

func fixtureTable(t *testing.T) *de.ResultTable {
	t.Helper()
	key := de.TableKey{Input: de.InputTPM, Shrinkage: de.ShrinkNone}
	rows := []de.ResultRow{
		{GeneID: "g1", BaseMean: 10, LFC: 1, PValue: 0.01, AdjustedP: 0.02, Input: de.InputTPM, Shrinkage: de.ShrinkNone},
		{GeneID: "g2", BaseMean: 20, LFC: -2, PValue: 0.5, AdjustedP: math.NaN(), Input: de.InputTPM, Shrinkage: de.ShrinkNone},
		{GeneID: "g3", BaseMean: 30, LFC: 3, PValue: 0.9, AdjustedP: math.NaN(), Input: de.InputTPM, Shrinkage: de.ShrinkNone},
		{GeneID: "g4", BaseMean: 40, LFC: math.NaN(), PValue: 0.2, AdjustedP: 0.4, Input: de.InputTPM, Shrinkage: de.ShrinkNone},
	}
	table, err := de.NewResultTable(key, rows)
	if err != nil {
		t.Fatalf("fixture invalid: %v", err)
	}
	return table
}

func briefFor(t *testing.T, briefs []ColumnBrief, metric de.Metric) ColumnBrief {
	t.Helper()
	for _, b := range briefs {
		if b.Metric == metric {
			return b
		}
	}
	t.Fatalf("no brief for %s", metric)
	return ColumnBrief{}
}

func TestBriefTable_NaNAccounting(t *testing.T) {
	c := NewComputer()
	briefs := c.BriefTable(fixtureTable(t))

	if len(briefs) != 3 {
		t.Fatalf("expected one brief per compared metric, got %d", len(briefs))
	}

	padj := briefFor(t, briefs, de.MetricAdjustedP)
	if padj.NaNCount != 2 || padj.NaNRatio != 0.5 {
		t.Errorf("padj NaN accounting: count=%d ratio=%v", padj.NaNCount, padj.NaNRatio)
	}

	base := briefFor(t, briefs, de.MetricBaseMean)
	if base.NaNCount != 0 {
		t.Errorf("base mean has no NaN, got count %d", base.NaNCount)
	}
	if base.Mean != 25 || base.Min != 10 || base.Max != 40 {
		t.Errorf("base mean summary wrong: mean=%v min=%v max=%v", base.Mean, base.Min, base.Max)
	}

	lfc := briefFor(t, briefs, de.MetricLFC)
	if lfc.NaNCount != 1 || lfc.NaNRatio != 0.25 {
		t.Errorf("lfc NaN accounting: count=%d ratio=%v", lfc.NaNCount, lfc.NaNRatio)
	}
}

func TestBriefTable_AllNaNColumn(t *testing.T) {
	key := de.TableKey{Input: de.InputCounts, Shrinkage: de.ShrinkNone}
	rows := []de.ResultRow{
		{GeneID: "g1", BaseMean: 1, LFC: math.NaN(), PValue: 0.5, AdjustedP: 0.5, Input: de.InputCounts, Shrinkage: de.ShrinkNone},
	}
	table, err := de.NewResultTable(key, rows)
	if err != nil {
		t.Fatalf("fixture invalid: %v", err)
	}

	lfc := briefFor(t, NewComputer().BriefTable(table), de.MetricLFC)
	if lfc.NaNRatio != 1 {
		t.Errorf("ratio: got %v, want 1", lfc.NaNRatio)
	}
	if !math.IsNaN(lfc.Mean) || !math.IsNaN(lfc.Median) {
		t.Error("summary of an all-NaN column must stay NaN")
	}
}

func TestCheckNaN_ThresholdIsExclusive(t *testing.T) {
	c := NewComputer()
	table := fixtureTable(t)

	// padj ratio is exactly 0.5: a matching threshold must not warn
	if warnings := c.CheckNaN(table, 0.5); len(warnings) != 0 {
		t.Errorf("ratio equal to threshold must not warn, got %v", warnings)
	}

	warnings := c.CheckNaN(table, 0.3)
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning above threshold 0.3, got %d", len(warnings))
	}
	w := warnings[0]
	if w.Metric != de.MetricAdjustedP || w.NaNRatio != 0.5 || w.Threshold != 0.3 {
		t.Errorf("warning fields wrong: %+v", w)
	}
	if w.Key != (de.TableKey{Input: de.InputTPM, Shrinkage: de.ShrinkNone}) {
		t.Errorf("warning key wrong: %v", w.Key)
	}

	if warnings := c.CheckNaN(table, 0.2); len(warnings) != 2 {
		t.Errorf("expected padj and lfc warnings at threshold 0.2, got %d", len(warnings))
	}
}
