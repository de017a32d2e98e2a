package excel

import (
	"context"
	"fmt"
	"log"

	"github.com/xuri/excelize/v2"

	"deqc/domain/de"
	"deqc/ports"
)

// ReportWriter renders a comparison run into an XLSX workbook for the
// reporting collaborator: the merged long table, the correlation scalars,
// the overlap set cardinalities and the run manifest.
type ReportWriter struct {
	// annotator decorates merged rows with transcript counts when set.
	// Annotation never feeds back into the statistics.
	annotator ports.Annotator
}

// NewReportWriter creates a report writer. annotator may be nil.
func NewReportWriter(annotator ports.Annotator) *ReportWriter {
	return &ReportWriter{annotator: annotator}
}

// WriteWorkbook writes the full report to path
func (w *ReportWriter) WriteWorkbook(ctx context.Context, path string, manifest *de.RunManifest, long *de.LongTable, partition *de.SetPartition) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := w.writeMergedSheet(ctx, f, long); err != nil {
		return err
	}
	if err := w.writeCorrelationSheet(f, long); err != nil {
		return err
	}
	if partition != nil {
		if err := w.writeSetSheet(f, partition); err != nil {
			return err
		}
	}
	if err := w.writeManifestSheet(f, manifest); err != nil {
		return err
	}

	// The default sheet is replaced by the merged table
	f.DeleteSheet("Sheet1")

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save report workbook: %w", err)
	}
	log.Printf("[ReportWriter] workbook written to %s (%d merged rows)", path, len(long.Rows))
	return nil
}

func (w *ReportWriter) writeMergedSheet(ctx context.Context, f *excelize.File, long *de.LongTable) error {
	const sheet = "Merged"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headers := []interface{}{
		"gene_id", "shrinkage_method",
		"base_mean_TPM", "base_mean_COUNTS", "base_mean_diff",
		"log2_fold_change_TPM", "log2_fold_change_COUNTS", "log2_fold_change_diff",
		"adjusted_p_TPM", "adjusted_p_COUNTS", "adjusted_p_diff",
		"label_TPM", "label_COUNTS",
	}
	withTranscripts := w.annotator != nil
	if withTranscripts {
		headers = append(headers, "transcript_count")
	}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return err
	}

	for i, row := range long.Rows {
		values := []interface{}{
			row.GeneID.String(), string(row.Shrinkage),
			row.TPM.BaseMean, row.Counts.BaseMean, row.Diff.BaseMean,
			row.TPM.LFC, row.Counts.LFC, row.Diff.LFC,
			row.TPM.AdjustedP, row.Counts.AdjustedP, row.Diff.AdjustedP,
			string(row.TPM.Label), string(row.Counts.Label),
		}
		if withTranscripts {
			count, err := w.annotator.TranscriptCount(ctx, row.GeneID)
			if err != nil {
				// Annotation is decoration; a lookup miss leaves the cell blank.
				values = append(values, "")
			} else {
				values = append(values, count)
			}
		}
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cellRef, &values); err != nil {
			return err
		}
	}
	return nil
}

func (w *ReportWriter) writeCorrelationSheet(f *excelize.File, long *de.LongTable) error {
	const sheet = "Correlations"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headers := []interface{}{"shrinkage_method", "metric", "value_correlation", "rank_correlation", "n"}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return err
	}

	rowIdx := 2
	for _, method := range de.ShrinkageMethods() {
		for _, metric := range de.Metrics() {
			corr, ok := long.Labels[de.MetricGroup{Shrinkage: method, Metric: metric}]
			if !ok {
				continue
			}
			values := []interface{}{string(method), string(metric), corr.Value, corr.Rank, corr.N}
			cellRef, err := excelize.CoordinatesToCellName(1, rowIdx)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(sheet, cellRef, &values); err != nil {
				return err
			}
			rowIdx++
		}
	}
	return nil
}

func (w *ReportWriter) writeSetSheet(f *excelize.File, partition *de.SetPartition) error {
	const sheet = "Sets"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headers := []interface{}{"set", "cardinality", "overlap_TPM", "overlap_COUNTS"}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return err
	}

	rowIdx := 2
	for _, name := range de.SetNames() {
		values := []interface{}{
			string(name),
			partition.Cardinality(name),
			partition.Overlap(name, de.SetTPMInput),
			partition.Overlap(name, de.SetCountsInput),
		}
		cellRef, err := excelize.CoordinatesToCellName(1, rowIdx)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cellRef, &values); err != nil {
			return err
		}
		rowIdx++
	}
	return nil
}

func (w *ReportWriter) writeManifestSheet(f *excelize.File, manifest *de.RunManifest) error {
	const sheet = "Manifest"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	rows := [][]interface{}{
		{"run_id", manifest.RunID.String()},
		{"contrast", manifest.Contrast.String()},
		{"alpha", manifest.Alpha},
		{"fingerprint", manifest.Fingerprint.String()},
		{"runtime_ms", manifest.RuntimeMs},
		{"created_at", manifest.CreatedAt.String()},
	}
	for _, b := range manifest.Branches {
		rows = append(rows, []interface{}{
			fmt.Sprintf("branch_%s", b.Key), fmt.Sprintf("%s (%d rows) %s", b.Status, b.RowCount, b.Error),
		})
	}
	for _, method := range de.ShrinkageMethods() {
		rows = append(rows, []interface{}{fmt.Sprintf("dropped_%s", method), manifest.Dropped[method]})
	}
	for _, warning := range manifest.Warnings {
		rows = append(rows, []interface{}{"warning", warning.String()})
	}

	for i, values := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		row := values
		if err := f.SetSheetRow(sheet, cellRef, &row); err != nil {
			return err
		}
	}
	return nil
}
