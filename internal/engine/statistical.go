package engine

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/tabula-cli/internal/aggregate"
	"github.com/KaramelBytes/tabula-cli/internal/ai"
	"github.com/KaramelBytes/tabula-cli/internal/chart"
	"github.com/KaramelBytes/tabula-cli/internal/dataset"
	"github.com/KaramelBytes/tabula-cli/internal/narrative"
)

// Statistical is the last tier of the chain. It draws a best-effort chart from
// whatever column kinds exist and lists a few observations, with no query
// grammar at all. cause explains why the external tier was skipped; nil
// means no tip is added.
func Statistical(ds *dataset.Dataset, cause error) Result {
	if ds.Empty() {
		return SampleChart("")
	}
	p := dataset.ProfileOf(ds)
	res := Result{Tier: TierStatistical, Rule: "statistical"}

	var spec chart.Spec
	value := p.PreferredValue()
	switch {
	case len(p.Categorical) > 0 && value != "":
		spec = chart.Spec{Type: chart.Bar, XColumn: p.PreferredCategory(), YColumn: value, Shape: chart.ShapeGrouped}
	case len(p.Date) > 0 && value != "":
		spec = chart.Spec{Type: chart.Line, XColumn: p.Date[0], YColumn: value, Shape: chart.ShapeGrouped}
	case value != "":
		spec = chart.Spec{Type: chart.Bar, XColumn: value, YColumn: value, Shape: chart.ShapeHistogram, Title: "Distribution of " + value}
	case len(p.Categorical) > 0:
		spec = chart.Spec{Type: chart.Bar, XColumn: p.PreferredCategory(), Shape: chart.ShapeGrouped}
	}
	if spec.Title == "" && spec.XColumn != "" {
		spec.Title = spec.YColumn + " by " + spec.XColumn
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Overview of %d %s across %d columns.", ds.Len(), plural(ds.Len(), "row", "rows"), len(ds.Columns))
	if spec.XColumn != "" {
		if chartRes, ok := buildChart(ds, spec); ok {
			res.ChartType, res.Title, res.ChartData = chartRes.ChartType, chartRes.Title, chartRes.ChartData
			b.WriteString(" " + chartRes.Message)
		}
	}
	for _, obs := range observations(ds, p) {
		b.WriteString(" " + obs)
	}
	if tip := retryTip(cause); tip != "" {
		b.WriteString("\n" + tip)
	}
	res.Message = b.String()
	return res
}

// maxGroupStats bounds how many groups the group analysis spells out.
const maxGroupStats = 5

// observations derives trend, correlation, regression, group and outlier
// remarks.
func observations(ds *dataset.Dataset, p dataset.Profile) []string {
	var out []string
	value := p.PreferredValue()
	if len(p.Date) > 0 && value != "" {
		groups := aggregate.Chronological(aggregate.GroupSum(ds.Rows, p.Date[0], value))
		ys := make([]float64, len(groups))
		for i, g := range groups {
			ys[i] = g.Value
		}
		if len(ys) >= 3 {
			s := aggregate.Slope(ys)
			dir := "flat"
			if s > 0 {
				dir = "upward"
			} else if s < 0 {
				dir = "downward"
			}
			out = append(out, fmt.Sprintf("%s trends %s over %s (slope %s per period).", value, dir, p.Date[0], narrative.Format(s)))
		}
	}
	if len(p.Numeric) >= 2 {
		a, c := p.Numeric[0], p.Numeric[1]
		var xs, ys []float64
		for _, r := range ds.Rows {
			x, okx := r.Get(a).Float()
			y, oky := r.Get(c).Float()
			if okx && oky {
				xs, ys = append(xs, x), append(ys, y)
			}
		}
		if r, ok := aggregate.Pearson(xs, ys); ok {
			sign := "positive"
			if r < 0 {
				sign = "negative"
			}
			out = append(out, fmt.Sprintf("Correlation between %s and %s: %s (%s %s).", a, c, narrative.Format(r), aggregate.CorrelationStrength(r), sign))
		}
		if len(xs) > 2 {
			if slope, intercept, r2, ok := aggregate.Regression(xs, ys); ok {
				out = append(out, fmt.Sprintf("Linear regression of %s on %s: slope %s, intercept %s, R² %s.",
					c, a, narrative.Format(slope), narrative.Format(intercept), narrative.Format(r2)))
			}
		}
	}
	if len(p.Categorical) > 0 && len(p.Numeric) > 0 {
		if g := groupAnalysis(ds, p.Categorical[0], p.Numeric[0]); g != "" {
			out = append(out, g)
		}
	}
	if len(p.Numeric) > 0 {
		col := p.Numeric[0]
		vals := aggregate.Values(ds.Rows, col)
		if o := aggregate.Outliers(vals); len(o) > 0 {
			lo, hi := math.Inf(1), math.Inf(-1)
			for _, v := range o {
				lo, hi = math.Min(lo, v), math.Max(hi, v)
			}
			out = append(out, fmt.Sprintf("%d %s in %s fall outside 1.5×IQR (from %s to %s).",
				len(o), plural(len(o), "value", "values"), col, narrative.Format(lo), narrative.Format(hi)))
		}
	}
	return out
}

// groupAnalysis reports count, mean, sum and sample standard deviation of
// value for each group of col, in key order.
func groupAnalysis(ds *dataset.Dataset, col, value string) string {
	vals := map[string][]float64{}
	for _, r := range ds.Rows {
		k := r.Get(col)
		f, ok := r.Get(value).Float()
		if k.IsMissing() || !ok {
			continue
		}
		vals[k.String()] = append(vals[k.String()], f)
	}
	if len(vals) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vals))
	for k := range vals {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "Group analysis of %s by %s:", value, col)
	for i, k := range keys {
		if i == maxGroupStats {
			fmt.Fprintf(&b, " and %d more.", len(keys)-maxGroupStats)
			return b.String()
		}
		sep := ";"
		if i == len(keys)-1 {
			sep = "."
		}
		v := vals[k]
		var sum float64
		for _, f := range v {
			sum += f
		}
		fmt.Fprintf(&b, " %s (count %d, mean %s, sum %s, std %s)%s", k, len(v),
			narrative.Format(aggregate.Mean(v)), narrative.Format(sum), narrative.Format(aggregate.StdDev(v)), sep)
	}
	return b.String()
}

func retryTip(cause error) string {
	var rl *RateLimitedError
	switch {
	case cause == nil:
		return ""
	case errors.Is(cause, ai.ErrNoCredential):
		return "Tip: set an API key (tabula config set api_key <key>) to answer open-ended questions."
	case errors.As(cause, &rl):
		secs := int(math.Ceil(rl.RetryAfter.Seconds()))
		if secs < 1 {
			secs = 1
		}
		return fmt.Sprintf("Tip: the AI assistant is busy. Try again in about %d %s.", secs, plural(secs, "second", "seconds"))
	default:
		return "Tip: the AI service could not answer right now. Try again later, or rephrase as \"top 5 <group> by <value>\"."
	}
}
