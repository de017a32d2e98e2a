package excel

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"deqc/domain/core"
	"deqc/domain/de"
	"deqc/internal/testkit"
)

func fixtureRun() (*de.RunManifest, *de.LongTable, *de.SetPartition) {
	manifest := de.NewRunManifest("run-1",
		de.Contrast{Factor: "condition", Level: "treated", Reference: "control"}, 0.1)
	manifest.Branches = []de.BranchOutcome{{
		Key: de.TableKey{Input: de.InputTPM, Shrinkage: de.ShrinkNone}, Status: de.BranchOK, RowCount: 1,
	}}
	manifest.Fingerprint = manifest.ComputeFingerprint()

	long := &de.LongTable{
		Rows: []de.ComparisonRow{{
			GeneID:    "g1",
			Shrinkage: de.ShrinkNone,
			TPM:       de.InputMetrics{BaseMean: 10, LFC: 1.5, AdjustedP: 0.01, Label: de.Significant},
			Counts:    de.InputMetrics{BaseMean: 12, LFC: 1.2, AdjustedP: 0.02, Label: de.Significant},
			Diff:      de.MetricDiffs{BaseMean: -2, LFC: 0.3, AdjustedP: -0.01},
		}},
		Dropped: map[de.ShrinkageMethod]int{de.ShrinkNone: 0},
		Labels: map[de.MetricGroup]de.Correlations{
			{Shrinkage: de.ShrinkNone, Metric: de.MetricLFC}: {Value: 1, Rank: 1, N: 1},
		},
	}

	partition := &de.SetPartition{
		Sets: map[de.SetName]map[core.GeneID]bool{
			de.SetUp:          {"g1": true},
			de.SetDown:        {},
			de.SetUnchanged:   {},
			de.SetTPMInput:    {"g1": true},
			de.SetCountsInput: {"g1": true},
		},
	}
	return manifest, long, partition
}

func TestReportWriter_WritesAllSheets(t *testing.T) {
	manifest, long, partition := fixtureRun()
	path := filepath.Join(t.TempDir(), "report.xlsx")

	writer := NewReportWriter(nil)
	if err := writer.WriteWorkbook(context.Background(), path, manifest, long, partition); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer f.Close()

	for _, sheet := range []string{"Merged", "Correlations", "Sets", "Manifest"} {
		if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
			t.Errorf("missing sheet %s", sheet)
		}
	}

	gene, err := f.GetCellValue("Merged", "A2")
	if err != nil || gene != "g1" {
		t.Errorf("merged sheet gene cell: got %q, err %v", gene, err)
	}
	method, err := f.GetCellValue("Correlations", "A2")
	if err != nil || method != "NONE" {
		t.Errorf("correlation sheet method cell: got %q, err %v", method, err)
	}
}

func TestReportWriter_AnnotatesTranscriptCounts(t *testing.T) {
	manifest, long, partition := fixtureRun()
	path := filepath.Join(t.TempDir(), "report.xlsx")

	annotator := testkit.NewStaticAnnotator(map[core.GeneID]int{"g1": 7})
	writer := NewReportWriter(annotator)
	if err := writer.WriteWorkbook(context.Background(), path, manifest, long, partition); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer f.Close()

	header, _ := f.GetCellValue("Merged", "N1")
	if header != "transcript_count" {
		t.Errorf("expected transcript_count header, got %q", header)
	}
	count, _ := f.GetCellValue("Merged", "N2")
	if count != "7" {
		t.Errorf("transcript count cell: got %q, want 7", count)
	}
}
