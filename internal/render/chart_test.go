package render

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/mltrain/trainwatch/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(step int64, vals map[string]models.MetricValue) models.ChartRow {
	return models.ChartRow{Step: step, Values: vals}
}

func TestPNG_NoRows(t *testing.T) {
	var buf bytes.Buffer
	err := PNG(&buf, []string{"loss"}, nil, Options{})
	assert.ErrorIs(t, err, ErrNoRows)
	assert.Zero(t, buf.Len())
}

func TestPNG_AllAbsent(t *testing.T) {
	rows := []models.ChartRow{
		row(0, map[string]models.MetricValue{"loss": models.Absent}),
	}
	assert.ErrorIs(t, PNG(&bytes.Buffer{}, []string{"loss"}, rows, Options{}), ErrNoRows)
}

func TestPNG_DrawsDecodableImage(t *testing.T) {
	rows := []models.ChartRow{
		row(0, map[string]models.MetricValue{"loss": models.Val(2.0), "accuracy": models.Val(0.2)}),
		row(10, map[string]models.MetricValue{"loss": models.Val(1.5), "accuracy": models.Val(0.4)}),
		row(20, map[string]models.MetricValue{"loss": models.Val(1.1), "accuracy": models.Absent}),
		row(30, map[string]models.MetricValue{"loss": models.Val(0.9), "accuracy": models.Absent}),
	}

	var buf bytes.Buffer
	require.NoError(t, PNG(&buf, []string{"loss", "accuracy"}, rows, Options{Title: "job-a", Width: 640, Height: 320}))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 640, img.Bounds().Dx())
	assert.Equal(t, 320, img.Bounds().Dy())
}

func TestPNG_DefaultSize(t *testing.T) {
	rows := []models.ChartRow{row(0, map[string]models.MetricValue{"loss": models.Val(1)})}

	var buf bytes.Buffer
	require.NoError(t, PNG(&buf, []string{"loss"}, rows, Options{}))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, DefaultWidth, img.Bounds().Dx())
	assert.Equal(t, DefaultHeight, img.Bounds().Dy())
}

func TestPNG_FlatZeroLine(t *testing.T) {
	rows := []models.ChartRow{
		row(5, map[string]models.MetricValue{"loss": models.Val(0)}),
		row(5, map[string]models.MetricValue{"loss": models.Val(0)}),
	}
	require.NoError(t, PNG(&bytes.Buffer{}, []string{"loss"}, rows, Options{}))
}

func TestSegments_SplitAtAbsent(t *testing.T) {
	rows := []models.ChartRow{
		row(0, map[string]models.MetricValue{"acc": models.Val(0.1)}),
		row(1, map[string]models.MetricValue{"acc": models.Val(0.2)}),
		row(2, map[string]models.MetricValue{"acc": models.Absent}),
		row(3, map[string]models.MetricValue{}),
		row(4, map[string]models.MetricValue{"acc": models.Val(0.5)}),
	}

	segs := segments("acc", rows)
	require.Len(t, segs, 2)
	assert.Equal(t, []float64{0, 1}, segs[0].XValues)
	assert.Equal(t, []float64{0.1, 0.2}, segs[0].YValues)
	assert.Equal(t, []float64{4}, segs[1].XValues)
	assert.Equal(t, []float64{0.5}, segs[1].YValues)
}

func TestBounds_RangeOf(t *testing.T) {
	var b bounds
	b.add(3)
	b.add(-1)
	r := b.rangeOf()
	assert.Equal(t, -1.0, r.Min)
	assert.Equal(t, 3.0, r.Max)

	var flat bounds
	flat.add(0)
	r = flat.rangeOf()
	assert.Less(t, r.Min, r.Max)

	var one bounds
	one.add(10)
	r = one.rangeOf()
	assert.InDelta(t, 9.0, r.Min, 1e-9)
	assert.InDelta(t, 11.0, r.Max, 1e-9)
}
