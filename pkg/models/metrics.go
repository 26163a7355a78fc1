package models

import (
	"encoding/json"
	"strconv"
)

// MetricPoint is a single scalar measurement of a named metric.
type MetricPoint struct {
	Step  int64   `json:"step"`
	Epoch float64 `json:"epoch"`
	Value float64 `json:"value"`
}

// MetricSeries is ascending by Step with unique steps. The orchestrator
// guarantees the ordering; gaps between steps are allowed.
type MetricSeries []MetricPoint

// MetricsSnapshot maps a metric name to its full known history at poll time.
// The orchestrator returns cumulative history, never deltas.
type MetricsSnapshot map[string]MetricSeries

// Len returns the number of non-empty series.
func (s MetricsSnapshot) Len() int {
	n := 0
	for _, series := range s {
		if len(series) > 0 {
			n++
		}
	}
	return n
}

// MetricValue is a chart cell. Present=false is the absent marker: the
// renderer draws a gap, never a zero.
type MetricValue struct {
	Value   float64
	Present bool
}

// Absent is the explicit "no value at this row" marker.
var Absent = MetricValue{}

// Val wraps a measured value.
func Val(v float64) MetricValue {
	return MetricValue{Value: v, Present: true}
}

func (v MetricValue) MarshalJSON() ([]byte, error) {
	if !v.Present {
		return []byte("null"), nil
	}
	return json.Marshal(v.Value)
}

func (v *MetricValue) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*v = Absent
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*v = Val(f)
	return nil
}

// StepKey is the JSON key a ChartRow uses for its step. A metric series
// with this name cannot be charted.
const StepKey = "step"

// ChartRow is one x-axis position of the aligned chart table.
// It is derived on every update and never persisted.
type ChartRow struct {
	Step   int64
	Values map[string]MetricValue
}

// Get returns the value for name, or Absent when the row has none.
func (r ChartRow) Get(name string) MetricValue {
	return r.Values[name]
}

// MarshalJSON flattens the row to {"step":0,"loss":1.0,"accuracy":null}.
func (r ChartRow) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(r.Values)+1)
	for name, v := range r.Values {
		flat[name] = v
	}
	flat[StepKey] = r.Step
	return json.Marshal(flat)
}

func (r *ChartRow) UnmarshalJSON(b []byte) error {
	var flat map[string]json.RawMessage
	if err := json.Unmarshal(b, &flat); err != nil {
		return err
	}
	row := ChartRow{Values: make(map[string]MetricValue, len(flat))}
	for k, raw := range flat {
		if k == StepKey {
			step, err := strconv.ParseInt(string(raw), 10, 64)
			if err != nil {
				return err
			}
			row.Step = step
			continue
		}
		var v MetricValue
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		row.Values[k] = v
	}
	*r = row
	return nil
}
