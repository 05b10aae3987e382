package engine

import (
	"regexp"

	"github.com/KaramelBytes/tabula-cli/internal/chart"
	"github.com/KaramelBytes/tabula-cli/internal/intent"
)

// sample is a canned chart served before any dataset is uploaded.
type sample struct {
	match *regexp.Regexp
	res   Result
}

var samples = []sample{
	{
		match: regexp.MustCompile(`\b(month(ly)?|trend|over time|sales)\b`),
		res: Result{
			Message:   "No dataset is loaded yet, so here is an example: monthly sales rising from 4,200 in January to 7,100 in June. Load a CSV, XLSX or JSON file to ask about your own data.",
			ChartType: chart.Line,
			Title:     "Monthly Sales (example)",
			ChartData: chart.Data{
				{"name": "Jan", "value": 4200.0},
				{"name": "Feb", "value": 4800.0},
				{"name": "Mar", "value": 5100.0},
				{"name": "Apr", "value": 5900.0},
				{"name": "May", "value": 6400.0},
				{"name": "Jun", "value": 7100.0},
			},
		},
	},
	{
		match: regexp.MustCompile(`\b(regions?|states?|cities|city|location)\b`),
		res: Result{
			Message:   "No dataset is loaded yet, so here is an example: revenue by region. Load a file to analyze your own data.",
			ChartType: chart.Bar,
			Title:     "Revenue by Region (example)",
			ChartData: chart.Data{
				{"name": "North", "value": 12500.0},
				{"name": "South", "value": 9800.0},
				{"name": "East", "value": 11200.0},
				{"name": "West", "value": 8700.0},
			},
		},
	},
	{
		match: regexp.MustCompile(`\b(products?|share|composition|pie|categor(y|ies))\b`),
		res: Result{
			Message:   "No dataset is loaded yet, so here is an example: product share of sales. Load a file to analyze your own data.",
			ChartType: chart.Pie,
			Title:     "Product Share (example)",
			ChartData: chart.Data{
				{"name": "Laptops", "value": 42.0},
				{"name": "Phones", "value": 33.0},
				{"name": "Tablets", "value": 15.0},
				{"name": "Accessories", "value": 10.0},
			},
		},
	},
}

// SampleChart picks the canned example that best fits the query. The first
// sample is the default.
func SampleChart(query string) Result {
	q := []byte(intent.Lower(query))
	pick := samples[0].res
	for _, s := range samples {
		if s.match.Match(q) {
			pick = s.res
			break
		}
	}
	rows := make(chart.Data, len(pick.ChartData))
	for i, row := range pick.ChartData {
		rows[i] = map[string]any{"name": row["name"], "value": row["value"]}
	}
	pick.ChartData = rows
	pick.Tier, pick.Rule = TierSample, "sample"
	return pick
}
