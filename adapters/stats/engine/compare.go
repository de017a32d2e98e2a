package engine

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"deqc/domain/de"
)

// Compare quantifies TPM/COUNTS agreement for one merged table: a Pearson
// correlation on raw metric values and a Pearson correlation on stable
// dense ranks, per metric.
//
// The comparison restricts to genes significant under both inputs for the
// table's shrinkage method. Pairs where either side's metric is NaN are
// excluded from that metric's group (exclusion, never zero coercion), which
// keeps the rank assignment a bijection onto {1..N}.
func (e *CompareEngine) Compare(merged *de.MergedTable) map[de.MetricGroup]de.Correlations {
	out := make(map[de.MetricGroup]de.Correlations, len(de.Metrics()))

	for _, metric := range de.Metrics() {
		x, y := e.metricPairs(merged, metric)
		group := de.MetricGroup{Shrinkage: merged.Shrinkage, Metric: metric}

		if len(x) < 2 {
			out[group] = de.Correlations{Value: math.NaN(), Rank: math.NaN(), N: len(x)}
			continue
		}

		dir := rankDescendingAbs
		if metric == de.MetricAdjustedP {
			dir = rankAscending
		}
		rx := stableRanks(x, dir)
		ry := stableRanks(y, dir)

		out[group] = de.Correlations{
			Value: e.round(stat.Correlation(x, y, nil)),
			Rank:  e.round(stat.Correlation(rx, ry, nil)),
			N:     len(x),
		}
	}

	return out
}

// CompareAll runs Compare for every merged table and attaches the scalars
// to the long table's label map.
func (e *CompareEngine) CompareAll(long *de.LongTable, tables []*de.MergedTable) {
	for _, t := range tables {
		for group, corr := range e.Compare(t) {
			long.Labels[group] = corr
		}
	}
}

// metricPairs extracts the two aligned metric vectors, restricted to rows
// significant on both sides and NaN-free under the metric. Row order is
// preserved so stable tie-breaking stays reproducible.
func (e *CompareEngine) metricPairs(merged *de.MergedTable, metric de.Metric) (x, y []float64) {
	for _, row := range merged.Rows {
		if row.TPM.Label != de.Significant || row.Counts.Label != de.Significant {
			continue
		}
		xv := row.TPM.Metric(metric)
		yv := row.Counts.Metric(metric)
		if math.IsNaN(xv) || math.IsNaN(yv) {
			continue
		}
		x = append(x, xv)
		y = append(y, yv)
	}
	return x, y
}

// round truncates a correlation scalar to the engine's reporting precision
func (e *CompareEngine) round(r float64) float64 {
	if math.IsNaN(r) {
		return r
	}
	scale := math.Pow10(e.precision)
	return math.Round(r*scale) / scale
}
