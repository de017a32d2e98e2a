// Package excel reads differential-expression result tables from CSV or
// XLSX files and writes comparison report workbooks.
package excel

import (
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"deqc/domain/core"
	"deqc/domain/de"
)

// ResultReader reads one DE result table (one input type, one shrinkage
// method) from a CSV or XLSX file. Expected columns: gene_id, baseMean,
// log2FoldChange, pvalue, padj; header matching is case-insensitive and
// empty or NA cells parse to NaN.
type ResultReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewResultReader creates a reader for the given file
func NewResultReader(filePath string) *ResultReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &ResultReader{filePath: filePath, fileType: fileType}
}

// ReadRows reads and parses all result rows. Input/shrinkage tags are left
// to the caller; the file carries metric columns only.
func (r *ResultReader) ReadRows() ([]de.ResultRow, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	var raw [][]string
	var err error
	switch r.fileType {
	case "csv":
		raw, err = r.readCSVRows()
	case "xlsx":
		raw, err = r.readExcelRows()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
	if err != nil {
		return nil, err
	}
	if len(raw) < 2 {
		return nil, fmt.Errorf("result table must have a header row and at least one data row")
	}

	return r.parseRows(raw)
}

func (r *ResultReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

func (r *ResultReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	return rows, nil
}

// column aliases accepted in header rows
var columnAliases = map[string]string{
	"gene_id":        "gene_id",
	"gene":           "gene_id",
	"id":             "gene_id",
	"basemean":       "base_mean",
	"base_mean":      "base_mean",
	"log2foldchange": "lfc",
	"lfc":            "lfc",
	"pvalue":         "pvalue",
	"p_value":        "pvalue",
	"padj":           "padj",
	"adjusted_p":     "padj",
}

func (r *ResultReader) parseRows(raw [][]string) ([]de.ResultRow, error) {
	columns := make(map[string]int)
	for i, header := range raw[0] {
		name := strings.ToLower(strings.TrimSpace(header))
		if canonical, ok := columnAliases[name]; ok {
			columns[canonical] = i
		}
	}
	for _, required := range []string{"gene_id", "base_mean", "lfc", "pvalue", "padj"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("result table %s is missing column %q", r.filePath, required)
		}
	}

	rows := make([]de.ResultRow, 0, len(raw)-1)
	for i := 1; i < len(raw); i++ {
		cells := raw[i]
		geneID, err := core.ParseGeneID(cell(cells, columns["gene_id"]))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		rows = append(rows, de.ResultRow{
			GeneID:    geneID,
			BaseMean:  parseFloat(cell(cells, columns["base_mean"])),
			LFC:       parseFloat(cell(cells, columns["lfc"])),
			PValue:    parseFloat(cell(cells, columns["pvalue"])),
			AdjustedP: parseFloat(cell(cells, columns["padj"])),
		})
	}

	log.Printf("[ResultReader] %s: %d rows read", filepath.Base(r.filePath), len(rows))
	return rows, nil
}

func cell(cells []string, idx int) string {
	if idx >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[idx])
}

// parseFloat maps empty and NA cells to NaN. NaN means "not evaluable" and
// propagates; it is never coerced to zero.
func parseFloat(s string) float64 {
	if s == "" || strings.EqualFold(s, "na") || strings.EqualFold(s, "nan") {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
