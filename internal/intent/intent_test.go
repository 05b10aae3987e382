package intent

import (
	"testing"

	"github.com/KaramelBytes/tabula-cli/internal/chart"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcherOrder(t *testing.T) {
	names := make([]string, len(Matchers))
	for i, m := range Matchers {
		names[i] = m.Name
	}
	assert.Equal(t, []string{"top_n", "sum_for", "count_where", "average_for", "list_unique"}, names)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		query string
		want  Intent
	}{
		{"top 1 region by sales", Intent{Kind: TopN, N: 1, GroupPhrase: "region", ValuePhrase: "sales"}},
		{"Top 5 Products by total Revenue?", Intent{Kind: TopN, N: 5, GroupPhrase: "Products", ValuePhrase: "Revenue"}},
		{"top 3 regions by average price", Intent{Kind: TopN, N: 3, GroupPhrase: "regions", ValuePhrase: "price", Average: true}},
		{"top 10 customers", Intent{Kind: TopN, N: 10, GroupPhrase: "customers"}},
		{"total sales for North", Intent{Kind: SumFor, ValuePhrase: "sales", FilterValue: "North"}},
		{"what is the sum of profit in Texas", Intent{Kind: SumFor, ValuePhrase: "profit", FilterValue: "Texas"}},
		{"how many orders in West?", Intent{Kind: CountWhere, SubjectPhrase: "orders", FilterValue: "West"}},
		{"average price for Laptops", Intent{Kind: AverageFor, ValuePhrase: "price", FilterValue: "Laptops"}},
		{"avg of units by region", Intent{Kind: AverageFor, ValuePhrase: "units", FilterValue: "region"}},
		{"list all products", Intent{Kind: ListUnique, ColumnPhrase: "products"}},
		{"What are the unique regions?", Intent{Kind: ListUnique, ColumnPhrase: "regions"}},
		{"show sales by region", Intent{Kind: ChartRequest}},
		{"pie chart of sales", Intent{Kind: ChartRequest, ChartType: chart.Pie}},
		{"why is the sky blue", Intent{Kind: Fallback}},
	}
	for _, c := range cases {
		t.Run(c.query, func(t *testing.T) {
			assert.Equal(t, c.want, Classify(c.query))
		})
	}
}

func TestFirstMatchWins(t *testing.T) {
	// Matches both the top-N and the average shapes; top-N is earlier.
	got := Classify("top 2 stores by average sales for march")
	assert.Equal(t, TopN, got.Kind)

	// "total" shape beats "how many".
	got = Classify("total units for how many stores in west")
	assert.Equal(t, SumFor, got.Kind)
}

func TestHasAggregation(t *testing.T) {
	assert.True(t, HasAggregation("average price for laptops"))
	assert.True(t, HasAggregation("how many orders"))
	assert.False(t, HasAggregation("show me laptops"))
}

func TestExtractMonth(t *testing.T) {
	m, ok := ExtractMonth("sales in march 2024")
	require.True(t, ok)
	assert.Equal(t, 3, m.Number)
	assert.Equal(t, 2024, m.Year)
	assert.Equal(t, "March 2024", m.Title())

	m, ok = ExtractMonth("revenue for sept")
	require.True(t, ok)
	assert.Equal(t, "september", m.Name)
	assert.Equal(t, 0, m.Year)

	m, ok = ExtractMonth("sales in may")
	require.True(t, ok)
	assert.Equal(t, 5, m.Number)

	_, ok = ExtractMonth("may i see the market totals")
	assert.False(t, ok)
	_, ok = ExtractMonth("decrease in margin")
	assert.False(t, ok)
}

func TestMonthColumn(t *testing.T) {
	cols := []string{"Region", "Jan-2023", "Feb-2023", "Jan-2024", "Feb 2024"}
	m, _ := ExtractMonth("sales for january 2024")
	col, ok := m.Column(cols)
	require.True(t, ok)
	assert.Equal(t, "Jan-2024", col)

	m, _ = ExtractMonth("sales in feb")
	col, ok = m.Column(cols)
	require.True(t, ok)
	assert.Equal(t, "Feb-2023", col)

	m, _ = ExtractMonth("sales in oct")
	_, ok = m.Column(cols)
	assert.False(t, ok)

	m, _ = ExtractMonth("units in jan")
	col, ok = m.Column([]string{"units_jan2025", "units_feb2025"})
	require.True(t, ok)
	assert.Equal(t, "units_jan2025", col)
}
