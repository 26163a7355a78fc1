// Package align merges independently sampled metric series into one
// chart table keyed by training step.
//
// Alignment is positional: the row at index i carries each series' i-th
// point, and its step is taken from the backbone (the longest series).
// When series are sampled at different step cadences the other series'
// values are not step-accurate. This matches the orchestrator dashboard's
// behaviour and is kept deliberately.
package align

import (
	"sort"

	"github.com/mltrain/trainwatch/pkg/models"
)

// Columns returns the names of the non-empty series in snap, in chart order:
// names listed in declared come first (in that order), the rest follow
// lexically. A series named models.StepKey is never a column since it would
// collide with the row's step.
func Columns(snap models.MetricsSnapshot, declared []string) []string {
	cols := make([]string, 0, len(snap))
	seen := map[string]bool{models.StepKey: true}
	for _, name := range declared {
		if seen[name] {
			continue
		}
		seen[name] = true
		if len(snap[name]) > 0 {
			cols = append(cols, name)
		}
	}

	var rest []string
	for name, series := range snap {
		if !seen[name] && len(series) > 0 {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(cols, rest...)
}

// Backbone returns the column with the most points. Ties go to the column
// that comes first in cols. It returns "" when cols is empty.
func Backbone(snap models.MetricsSnapshot, cols []string) string {
	best, bestLen := "", -1
	for _, name := range cols {
		if n := len(snap[name]); n > bestLen {
			best, bestLen = name, n
		}
	}
	return best
}

// Align builds the chart rows for snap. Every row carries a value for each
// column, each declared name and each empty series in snap, absent where
// the series is missing or shorter than the row index. The result is empty
// (never nil) for an empty snapshot, and identical inputs always produce
// identical rows.
func Align(snap models.MetricsSnapshot, declared []string) []models.ChartRow {
	cols := Columns(snap, declared)
	backbone := Backbone(snap, cols)
	if backbone == "" {
		return []models.ChartRow{}
	}

	names := cols
	for _, name := range declared {
		if name != models.StepKey && len(snap[name]) == 0 && !contains(names, name) {
			names = append(names, name)
		}
	}
	for name, series := range snap {
		if name != models.StepKey && len(series) == 0 && !contains(names, name) {
			names = append(names, name)
		}
	}

	spine := snap[backbone]
	rows := make([]models.ChartRow, len(spine))
	for i, p := range spine {
		values := make(map[string]models.MetricValue, len(names))
		for _, name := range names {
			series := snap[name]
			if i < len(series) {
				values[name] = models.Val(series[i].Value)
			} else {
				values[name] = models.Absent
			}
		}
		rows[i] = models.ChartRow{Step: p.Step, Values: values}
	}
	return rows
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
