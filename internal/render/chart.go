// Package render draws aligned metric rows as a PNG line chart.
package render

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/mltrain/trainwatch/pkg/models"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNoRows means there is nothing to draw; the chart area stays hidden.
var ErrNoRows = errors.New("no chart rows")

const (
	DefaultWidth  = 960
	DefaultHeight = 420
)

var palette = []drawing.Color{
	chart.ColorBlue,
	chart.ColorGreen,
	chart.ColorRed,
	chart.ColorOrange,
	chart.ColorCyan,
	chart.ColorAlternateGray,
}

// Options controls chart size and labels. Zero values use the defaults.
type Options struct {
	Title  string
	Width  int
	Height int
}

// PNG draws one line per column over the row steps. Absent cells break the
// line so missing data shows as a gap rather than a drop to zero.
func PNG(w io.Writer, columns []string, rows []models.ChartRow, opts Options) error {
	if len(rows) == 0 {
		return ErrNoRows
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}

	var (
		series []chart.Series
		named  []chart.Series
		ys     bounds
	)
	for idx, col := range columns {
		color := palette[idx%len(palette)]
		for n, seg := range segments(col, rows) {
			for _, y := range seg.YValues {
				ys.add(y)
			}
			seg.Style = chart.Style{
				StrokeColor: color,
				StrokeWidth: 2,
				DotColor:    color,
				DotWidth:    2,
			}
			if n == 0 {
				seg.Name = col
				named = append(named, seg)
			}
			series = append(series, seg)
		}
	}
	if len(series) == 0 {
		return ErrNoRows
	}

	var xs bounds
	for _, r := range rows {
		xs.add(float64(r.Step))
	}

	ch := chart.Chart{
		Title:      opts.Title,
		Width:      opts.Width,
		Height:     opts.Height,
		Background: chart.Style{Padding: chart.Box{Top: 20, Left: 16, Right: 12, Bottom: 12}},
		XAxis:      chart.XAxis{Name: "step", Range: xs.rangeOf()},
		YAxis:      chart.YAxis{Range: ys.rangeOf()},
		Series:     series,
	}
	// Only the first segment of each column is named, so the legend lists
	// each column once.
	legend := ch
	legend.Series = named
	ch.Elements = []chart.Renderable{chart.Legend(&legend)}

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

// segments splits a column into runs of consecutive present values.
func segments(col string, rows []models.ChartRow) []chart.ContinuousSeries {
	var (
		out []chart.ContinuousSeries
		cur chart.ContinuousSeries
	)
	flush := func() {
		if len(cur.XValues) > 0 {
			out = append(out, cur)
		}
		cur = chart.ContinuousSeries{}
	}
	for _, r := range rows {
		v := r.Get(col)
		if !v.Present || math.IsNaN(v.Value) || math.IsInf(v.Value, 0) {
			flush()
			continue
		}
		cur.XValues = append(cur.XValues, float64(r.Step))
		cur.YValues = append(cur.YValues, v.Value)
	}
	flush()
	return out
}

type bounds struct {
	min, max float64
	set      bool
}

func (b *bounds) add(v float64) {
	if !b.set {
		b.min, b.max, b.set = v, v, true
		return
	}
	b.min = math.Min(b.min, v)
	b.max = math.Max(b.max, v)
}

// rangeOf returns an explicit axis range. go-chart rejects a zero-width
// range, which a single point or a flat line would otherwise produce.
func (b bounds) rangeOf() *chart.ContinuousRange {
	lo, hi := b.min, b.max
	if hi == lo {
		pad := math.Abs(lo) * 0.1
		if pad == 0 {
			pad = 1
		}
		lo, hi = lo-pad, hi+pad
	}
	return &chart.ContinuousRange{Min: lo, Max: hi}
}
