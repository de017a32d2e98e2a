package de

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// JSON has no NaN literal, so missing metric values serialize as null and
// decode back to NaN. The codecs below keep NaN propagation intact across
// ledger round-trips.

func nanToNull(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func nullToNaN(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

// MarshalText encodes the group as "SHRINKAGE/metric" so it can key JSON maps
func (g MetricGroup) MarshalText() ([]byte, error) {
	return []byte(fmt.Sprintf("%s/%s", g.Shrinkage, g.Metric)), nil
}

// UnmarshalText decodes a "SHRINKAGE/metric" group key
func (g *MetricGroup) UnmarshalText(text []byte) error {
	parts := strings.SplitN(string(text), "/", 2)
	if len(parts) != 2 {
		return fmt.Errorf("invalid metric group %q", text)
	}
	g.Shrinkage = ShrinkageMethod(parts[0])
	g.Metric = Metric(parts[1])
	return nil
}

type inputMetricsJSON struct {
	BaseMean  *float64          `json:"base_mean"`
	LFC       *float64          `json:"log2_fold_change"`
	PValue    *float64          `json:"p_value"`
	AdjustedP *float64          `json:"adjusted_p_value"`
	Label     SignificanceLabel `json:"significance_label"`
}

func (m InputMetrics) MarshalJSON() ([]byte, error) {
	return json.Marshal(inputMetricsJSON{
		BaseMean:  nanToNull(m.BaseMean),
		LFC:       nanToNull(m.LFC),
		PValue:    nanToNull(m.PValue),
		AdjustedP: nanToNull(m.AdjustedP),
		Label:     m.Label,
	})
}

func (m *InputMetrics) UnmarshalJSON(data []byte) error {
	var raw inputMetricsJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.BaseMean = nullToNaN(raw.BaseMean)
	m.LFC = nullToNaN(raw.LFC)
	m.PValue = nullToNaN(raw.PValue)
	m.AdjustedP = nullToNaN(raw.AdjustedP)
	m.Label = raw.Label
	return nil
}

type metricDiffsJSON struct {
	BaseMean  *float64 `json:"base_mean"`
	LFC       *float64 `json:"log2_fold_change"`
	AdjustedP *float64 `json:"adjusted_p_value"`
}

func (d MetricDiffs) MarshalJSON() ([]byte, error) {
	return json.Marshal(metricDiffsJSON{
		BaseMean:  nanToNull(d.BaseMean),
		LFC:       nanToNull(d.LFC),
		AdjustedP: nanToNull(d.AdjustedP),
	})
}

func (d *MetricDiffs) UnmarshalJSON(data []byte) error {
	var raw metricDiffsJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.BaseMean = nullToNaN(raw.BaseMean)
	d.LFC = nullToNaN(raw.LFC)
	d.AdjustedP = nullToNaN(raw.AdjustedP)
	return nil
}

type correlationsJSON struct {
	Value *float64 `json:"value"`
	Rank  *float64 `json:"rank"`
	N     int      `json:"n"`
}

func (c Correlations) MarshalJSON() ([]byte, error) {
	return json.Marshal(correlationsJSON{
		Value: nanToNull(c.Value),
		Rank:  nanToNull(c.Rank),
		N:     c.N,
	})
}

func (c *Correlations) UnmarshalJSON(data []byte) error {
	var raw correlationsJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.Value = nullToNaN(raw.Value)
	c.Rank = nullToNaN(raw.Rank)
	c.N = raw.N
	return nil
}
