package narrative

import (
	"math"
	"testing"

	"github.com/KaramelBytes/tabula-cli/internal/chart"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNarrateBar(t *testing.T) {
	data := chart.Data{
		{"name": "North", "value": 130.0},
		{"name": "South", "value": 100.0},
	}
	assert.Equal(t, "Highest value: North (130). Lowest: South (100). Average: 115.", Narrate(data, chart.Bar))

	wide := chart.Data{
		{"name": "a", "value": 1.0},
		{"name": "b", "value": 100.0},
		{"name": "c", "value": 2.0},
	}
	assert.Contains(t, Narrate(wide, chart.Bar), "vary considerably")
	assert.NotContains(t, Narrate(wide, chart.Pie), "vary")
}

func TestNarrateLineDirection(t *testing.T) {
	up := chart.Data{{"name": "Jan", "value": 10.0}, {"name": "Feb", "value": 5.0}, {"name": "Mar", "value": 12.5}}
	assert.Contains(t, Narrate(up, chart.Line), "increasing, from 10 to 12.5")

	down := chart.Data{{"name": "Jan", "value": 10.0}, {"name": "Feb", "value": 4.0}}
	assert.Contains(t, Narrate(down, chart.Line), "decreasing")

	flat := chart.Data{{"name": "Jan", "value": 3.0}, {"name": "Feb", "value": 3.0}}
	assert.Contains(t, Narrate(flat, chart.Line), "flat")
}

func TestNarrateEmptyAndNonNumeric(t *testing.T) {
	assert.Equal(t, "", Narrate(nil, chart.Bar))
	assert.Equal(t, "", Narrate(chart.Data{{"name": "x"}}, chart.Bar))
}

func TestDescribeScatterUsesY(t *testing.T) {
	s, ok := Describe(chart.Data{{"x": 1.0, "y": 2.0}, {"x": 2.0, "y": 6.0}})
	require.True(t, ok)
	assert.Equal(t, "y", s.Key)
	assert.Equal(t, 4.0, s.Mean)
	assert.Equal(t, "2", s.MaxLabel)
}

func TestRounding(t *testing.T) {
	assert.Equal(t, "2.35", Format(2.345))
	assert.Equal(t, "1.5", Format(1.5))
	assert.Equal(t, 3.33, Round2(10.0/3))
}

func TestFormatNonFinite(t *testing.T) {
	assert.Equal(t, "+Inf", Format(math.Inf(1)))
	assert.Equal(t, "-Inf", Format(math.Inf(-1)))
	assert.Equal(t, "NaN", Format(math.NaN()))
	assert.True(t, math.IsInf(Round2(math.Inf(1)), 1))
	assert.True(t, math.IsNaN(Round2(math.NaN())))
	assert.Equal(t, 1.24, Round2(1.235))
}

func TestNarrateOverflowedTotals(t *testing.T) {
	data := chart.Data{
		{"name": "North", "value": math.Inf(1)},
		{"name": "South", "value": 5.0},
	}
	assert.NotPanics(t, func() {
		assert.Contains(t, Narrate(data, chart.Bar), "Highest value: North (+Inf)")
	})
}
