// Package quality computes per-column data quality briefs for result
// tables. NaN proportions drive the pipeline's non-fatal quality warnings;
// the summary statistics decorate run reports.
package quality

import (
	"math"

	"github.com/montanaflynn/stats"

	"deqc/domain/de"
)

// ColumnBrief summarizes one metric column of one result table
type ColumnBrief struct {
	Key      de.TableKey `json:"key"`
	Metric   de.Metric   `json:"metric"`
	N        int         `json:"n"`
	NaNCount int         `json:"nan_count"`
	NaNRatio float64     `json:"nan_ratio"`
	Mean     float64     `json:"mean"`
	Median   float64     `json:"median"`
	StdDev   float64     `json:"std_dev"`
	Min      float64     `json:"min"`
	Max      float64     `json:"max"`
}

// Computer builds column briefs and screens NaN proportions
type Computer struct{}

// NewComputer creates a brief computer
func NewComputer() *Computer {
	return &Computer{}
}

// BriefTable computes one brief per compared metric column
func (c *Computer) BriefTable(table *de.ResultTable) []ColumnBrief {
	briefs := make([]ColumnBrief, 0, len(de.Metrics()))
	for _, metric := range de.Metrics() {
		briefs = append(briefs, c.briefColumn(table, metric))
	}
	return briefs
}

func (c *Computer) briefColumn(table *de.ResultTable, metric de.Metric) ColumnBrief {
	brief := ColumnBrief{
		Key:    table.Key,
		Metric: metric,
		N:      table.Len(),
		Mean:   math.NaN(),
		Median: math.NaN(),
		StdDev: math.NaN(),
		Min:    math.NaN(),
		Max:    math.NaN(),
	}

	valid := make([]float64, 0, table.Len())
	for _, row := range table.Rows {
		v := columnValue(row, metric)
		if math.IsNaN(v) {
			brief.NaNCount++
			continue
		}
		valid = append(valid, v)
	}
	if brief.N > 0 {
		brief.NaNRatio = float64(brief.NaNCount) / float64(brief.N)
	}
	if len(valid) == 0 {
		return brief
	}

	brief.Mean, _ = stats.Mean(valid)
	brief.Median, _ = stats.Median(valid)
	brief.StdDev, _ = stats.StandardDeviation(valid)
	brief.Min, _ = stats.Min(valid)
	brief.Max, _ = stats.Max(valid)
	return brief
}

// CheckNaN returns a warning for every metric column whose NaN proportion
// exceeds the caller's threshold. Non-fatal: reported, never blocking.
func (c *Computer) CheckNaN(table *de.ResultTable, threshold float64) []de.QualityWarning {
	var warnings []de.QualityWarning
	for _, brief := range c.BriefTable(table) {
		if brief.NaNRatio > threshold {
			warnings = append(warnings, de.QualityWarning{
				Key:       brief.Key,
				Metric:    brief.Metric,
				NaNRatio:  brief.NaNRatio,
				Threshold: threshold,
			})
		}
	}
	return warnings
}

func columnValue(row de.ResultRow, metric de.Metric) float64 {
	switch metric {
	case de.MetricBaseMean:
		return row.BaseMean
	case de.MetricLFC:
		return row.LFC
	default:
		return row.AdjustedP
	}
}
