package engine

import (
	"math"
	"testing"

	"deqc/domain/core"
	"deqc/domain/de"
)

func comparisonRow(id string, tpm, counts de.InputMetrics) de.ComparisonRow {
	return de.ComparisonRow{
		GeneID:    core.GeneID(id),
		Shrinkage: de.ShrinkNone,
		TPM:       tpm,
		Counts:    counts,
	}
}

func sigMetrics(baseMean, lfc, padj float64) de.InputMetrics {
	return de.InputMetrics{
		BaseMean: baseMean, LFC: lfc, PValue: padj / 2, AdjustedP: padj,
		Label: de.Significant,
	}
}

func TestCompare_PerfectAgreement(t *testing.T) {
	engine := NewCompareEngine()

	// counts side exactly 2x the TPM side: linear, so Pearson 1 on values
	// and identical orderings so Pearson 1 on ranks
	merged := &de.MergedTable{
		Shrinkage: de.ShrinkNone,
		Rows: []de.ComparisonRow{
			comparisonRow("g1", sigMetrics(10, 1, 0.01), sigMetrics(20, 2, 0.02)),
			comparisonRow("g2", sigMetrics(20, 2, 0.02), sigMetrics(40, 4, 0.04)),
			comparisonRow("g3", sigMetrics(30, 3, 0.03), sigMetrics(60, 6, 0.06)),
		},
	}

	labels := engine.Compare(merged)

	for _, metric := range de.Metrics() {
		corr := labels[de.MetricGroup{Shrinkage: de.ShrinkNone, Metric: metric}]
		if corr.Value != 1 {
			t.Errorf("%s: value correlation got %v, want 1", metric, corr.Value)
		}
		if corr.Rank != 1 {
			t.Errorf("%s: rank correlation got %v, want 1", metric, corr.Rank)
		}
		if corr.N != 3 {
			t.Errorf("%s: n got %d, want 3", metric, corr.N)
		}
	}
}

func TestCompare_PerfectDisagreement(t *testing.T) {
	engine := NewCompareEngine()

	// counts ordering is the exact reverse of the TPM ordering
	merged := &de.MergedTable{
		Shrinkage: de.ShrinkNormal,
		Rows: []de.ComparisonRow{
			comparisonRow("g1", sigMetrics(10, 1, 0.01), sigMetrics(30, 3, 0.06)),
			comparisonRow("g2", sigMetrics(20, 2, 0.02), sigMetrics(20, 2, 0.04)),
			comparisonRow("g3", sigMetrics(30, 3, 0.03), sigMetrics(10, 1, 0.02)),
		},
	}

	labels := engine.Compare(merged)
	corr := labels[de.MetricGroup{Shrinkage: de.ShrinkNormal, Metric: de.MetricBaseMean}]
	if corr.Value != -1 {
		t.Errorf("value correlation got %v, want -1", corr.Value)
	}
	if corr.Rank != -1 {
		t.Errorf("rank correlation got %v, want -1", corr.Rank)
	}
}

func TestCompare_RestrictsToBothSignificant(t *testing.T) {
	engine := NewCompareEngine()

	notSig := sigMetrics(99, 9, 0.9)
	notSig.Label = de.NotSignificant

	merged := &de.MergedTable{
		Shrinkage: de.ShrinkNone,
		Rows: []de.ComparisonRow{
			comparisonRow("g1", sigMetrics(10, 1, 0.01), sigMetrics(20, 2, 0.02)),
			comparisonRow("g2", sigMetrics(20, 2, 0.02), sigMetrics(40, 4, 0.04)),
			comparisonRow("g3", sigMetrics(30, 3, 0.03), sigMetrics(60, 6, 0.06)),
			comparisonRow("g4", sigMetrics(5, 0.1, 0.01), notSig), // one side only
		},
	}

	corr := engine.Compare(merged)[de.MetricGroup{Shrinkage: de.ShrinkNone, Metric: de.MetricLFC}]
	if corr.N != 3 {
		t.Errorf("rows significant on one side only must be excluded, n=%d", corr.N)
	}
}

func TestCompare_ExcludesNaNPairsPerMetric(t *testing.T) {
	engine := NewCompareEngine()

	nanLFC := sigMetrics(15, math.NaN(), 0.015)

	merged := &de.MergedTable{
		Shrinkage: de.ShrinkNone,
		Rows: []de.ComparisonRow{
			comparisonRow("g1", sigMetrics(10, 1, 0.01), sigMetrics(20, 2, 0.02)),
			comparisonRow("g2", sigMetrics(20, 2, 0.02), sigMetrics(40, 4, 0.04)),
			comparisonRow("g3", nanLFC, sigMetrics(30, 3, 0.03)),
		},
	}

	labels := engine.Compare(merged)

	lfc := labels[de.MetricGroup{Shrinkage: de.ShrinkNone, Metric: de.MetricLFC}]
	if lfc.N != 2 {
		t.Errorf("NaN LFC pair must be excluded from the LFC group, n=%d", lfc.N)
	}

	// the same row still contributes to NaN-free metrics
	base := labels[de.MetricGroup{Shrinkage: de.ShrinkNone, Metric: de.MetricBaseMean}]
	if base.N != 3 {
		t.Errorf("exclusion must be per metric, base mean n=%d", base.N)
	}
}

func TestCompare_UndefinedBelowTwoPairs(t *testing.T) {
	engine := NewCompareEngine()

	merged := &de.MergedTable{
		Shrinkage: de.ShrinkAshr,
		Rows: []de.ComparisonRow{
			comparisonRow("g1", sigMetrics(10, 1, 0.01), sigMetrics(20, 2, 0.02)),
		},
	}

	corr := engine.Compare(merged)[de.MetricGroup{Shrinkage: de.ShrinkAshr, Metric: de.MetricBaseMean}]
	if !math.IsNaN(corr.Value) || !math.IsNaN(corr.Rank) {
		t.Errorf("fewer than 2 pairs must yield undefined correlations, got %+v", corr)
	}
	if corr.N != 1 {
		t.Errorf("n must still report the pair count, got %d", corr.N)
	}
}

func TestCompare_RoundsToSevenDecimals(t *testing.T) {
	engine := NewCompareEngine()

	// non-linear but monotonic: value correlation lands strictly inside
	// (0,1) and must surface with at most 7 decimals
	merged := &de.MergedTable{
		Shrinkage: de.ShrinkNone,
		Rows: []de.ComparisonRow{
			comparisonRow("g1", sigMetrics(1, 1, 0.01), sigMetrics(1, 1, 0.01)),
			comparisonRow("g2", sigMetrics(2, 2, 0.02), sigMetrics(4, 4, 0.02)),
			comparisonRow("g3", sigMetrics(3, 3, 0.03), sigMetrics(9, 9, 0.03)),
		},
	}

	corr := engine.Compare(merged)[de.MetricGroup{Shrinkage: de.ShrinkNone, Metric: de.MetricBaseMean}]
	if corr.Value != math.Round(corr.Value*1e7)/1e7 {
		t.Errorf("value correlation not rounded to 7 decimals: %v", corr.Value)
	}
	if corr.Value <= 0.9 || corr.Value >= 1 {
		t.Errorf("expected strong but imperfect correlation, got %v", corr.Value)
	}

	// monotonic, so the rank orderings agree exactly
	if corr.Rank != 1 {
		t.Errorf("rank correlation got %v, want 1", corr.Rank)
	}
}

func TestCompareAll_AttachesEveryGroup(t *testing.T) {
	engine := NewCompareEngine()

	none := &de.MergedTable{
		Shrinkage: de.ShrinkNone,
		Rows: []de.ComparisonRow{
			comparisonRow("g1", sigMetrics(10, 1, 0.01), sigMetrics(20, 2, 0.02)),
			comparisonRow("g2", sigMetrics(20, 2, 0.02), sigMetrics(40, 4, 0.04)),
		},
	}
	ashr := &de.MergedTable{Shrinkage: de.ShrinkAshr}

	long := engine.Concat([]*de.MergedTable{none, ashr})
	engine.CompareAll(long, []*de.MergedTable{none, ashr})

	if len(long.Labels) != 6 {
		t.Fatalf("expected 3 metrics x 2 methods = 6 label groups, got %d", len(long.Labels))
	}
	empty := long.Labels[de.MetricGroup{Shrinkage: de.ShrinkAshr, Metric: de.MetricLFC}]
	if !math.IsNaN(empty.Value) || empty.N != 0 {
		t.Errorf("empty table must yield undefined correlations with n=0, got %+v", empty)
	}
}
