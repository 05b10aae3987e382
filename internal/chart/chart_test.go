package chart

import (
	"testing"

	"github.com/KaramelBytes/tabula-cli/internal/aggregate"
	"github.com/KaramelBytes/tabula-cli/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var profile = dataset.Profile{
	Numeric:     []string{"Sales", "Units"},
	Categorical: []string{"Region", "Product"},
	Location:    []string{"Region"},
	Date:        []string{"Order Date"},
}

func TestDetectKeyword(t *testing.T) {
	cases := map[string]Type{
		"show a pie of sales":          Pie,
		"sales by region as bar chart": Bar,
		"line chart of units":          Line,
		"scatter sales and units":      Scatter,
		"sales heatmap":                Heatmap,
		"area chart of revenue":        Area,
		"sales on a map":               Geo,
		"sales trend":                  Line,
		"compare regions":              Bar,
		"composition of sales":         Pie,
		"correlation of units":         Scatter,
		"any outliers?":                Scatter,
	}
	for q, want := range cases {
		got, ok := DetectKeyword(q)
		require.True(t, ok, q)
		assert.Equal(t, want, got, q)
	}
	for _, q := range []string{"online orders", "barcode count", "a piece of data", "what is the total"} {
		_, ok := DetectKeyword(q)
		assert.False(t, ok, q)
	}
}

func TestSelectDefaults(t *testing.T) {
	s := Select(profile, "show sales by region", "", "", "")
	assert.Equal(t, Spec{Type: Bar, XColumn: "Region", YColumn: "Sales", Title: "Sales by Region", Shape: ShapeGrouped}, s)
}

func TestSelectTrendUsesDateColumn(t *testing.T) {
	s := Select(profile, "sales over time", "", "Region", "Sales")
	assert.Equal(t, Line, s.Type)
	assert.Equal(t, "Order Date", s.XColumn)
	assert.Equal(t, "Sales by Order Date", s.Title)
}

func TestSelectDistribution(t *testing.T) {
	s := Select(profile, "distribution of units", "", "", "Units")
	assert.Equal(t, Bar, s.Type)
	assert.Equal(t, ShapeHistogram, s.Shape)
	assert.Equal(t, "Distribution of Units", s.Title)
}

func TestSelectCorrelation(t *testing.T) {
	s := Select(profile, "relationship between sales and units", "", "", "")
	assert.Equal(t, Scatter, s.Type)
	assert.Equal(t, ShapePoints, s.Shape)
	assert.Equal(t, "Sales", s.XColumn)
	assert.Equal(t, "Units", s.YColumn)

	onlyOne := dataset.Profile{Numeric: []string{"Sales"}, Categorical: []string{"Region"}}
	s = Select(onlyOne, "correlation", Scatter, "", "")
	assert.Equal(t, Bar, s.Type, "scatter needs two numeric columns")
	assert.Equal(t, ShapeGrouped, s.Shape)
}

func TestExplicitKeywordWins(t *testing.T) {
	s := Select(profile, "sales over time as a bar chart", Bar, "", "")
	assert.Equal(t, Bar, s.Type)

	s = Select(profile, "share of sales", Pie, "Product", "")
	assert.Equal(t, Pie, s.Type)
	assert.Equal(t, "Product", s.XColumn)

	s = Select(profile, "correlation", Line, "", "")
	assert.Equal(t, Line, s.Type)
	assert.Equal(t, ShapeGrouped, s.Shape)
	assert.Equal(t, "Order Date", s.XColumn)
}

func TestDataBuildersAreConsistent(t *testing.T) {
	groups := []aggregate.Group{{Key: "North", Value: 130}, {Key: "South", Value: 50}}
	d := FromGroups(groups)
	assert.True(t, d.Consistent(Bar))
	assert.False(t, d.Consistent(Scatter))
	assert.Equal(t, "North", d[0]["name"])

	rows := []dataset.Record{
		{"a": dataset.Number(1), "b": dataset.Number(2)},
		{"a": dataset.String("x"), "b": dataset.Number(3)},
	}
	pts := FromPoints(rows, "a", "b")
	require.Len(t, pts, 1)
	assert.True(t, pts.Consistent(Scatter))

	hist := FromBuckets([]aggregate.Bucket{{Label: "0-5", Count: 3}})
	assert.Equal(t, 3.0, hist[0]["value"])
}

func TestParseType(t *testing.T) {
	got, ok := ParseType(" Pie ")
	require.True(t, ok)
	assert.Equal(t, Pie, got)
	_, ok = ParseType("donut")
	assert.False(t, ok)
}
