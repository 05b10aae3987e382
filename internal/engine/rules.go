package engine

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/KaramelBytes/tabula-cli/internal/aggregate"
	"github.com/KaramelBytes/tabula-cli/internal/chart"
	"github.com/KaramelBytes/tabula-cli/internal/dataset"
	"github.com/KaramelBytes/tabula-cli/internal/intent"
	"github.com/KaramelBytes/tabula-cli/internal/narrative"
	"github.com/KaramelBytes/tabula-cli/internal/resolver"
)

// turn is the working state of one query as it moves through the cascade.
// Annotating rules (chart keyword, month filter) fill it in for later rules.
type turn struct {
	ds       *dataset.Dataset
	query    string // as typed
	q        string // lower-cased and trimmed
	profile  dataset.Profile
	resolver resolver.Resolver
	intent   intent.Intent // shape from intent.Classify

	preferred chart.Type
	month     intent.Month
	monthCol  string
}

// Rule is one entry of the cascade. Apply returns ok=true to stop the
// cascade with res. Annotating rules always return false.
type Rule struct {
	Name  string
	Apply func(t *turn) (res Result, ok bool)
}

// Rules is the cascade, in priority order. The first rule that answers wins,
// even when a later rule would also match.
var Rules = []Rule{
	{Name: "chart_keyword", Apply: applyChartKeyword},
	{Name: "month_filter", Apply: applyMonthFilter},
	{Name: "value_membership", Apply: applyValueMembership},
	shapeRule(intent.TopN, answerTopN),
	shapeRule(intent.SumFor, answerSumFor),
	shapeRule(intent.CountWhere, answerCount),
	shapeRule(intent.AverageFor, answerAverage),
	shapeRule(intent.ListUnique, answerList),
	{Name: "generic_chart", Apply: applyGenericChart},
}

// RuleNames lists the cascade order.
func RuleNames() []string {
	out := make([]string, len(Rules))
	for i, r := range Rules {
		out[i] = r.Name
	}
	return out
}

// shapeRule answers when the query was classified as kind. Classification
// happens once per turn, before any rule runs.
func shapeRule(kind intent.Kind, answer func(t *turn, in intent.Intent) Result) Rule {
	return Rule{Name: kind.String(), Apply: func(t *turn) (Result, bool) {
		if t.intent.Kind != kind {
			return Result{}, false
		}
		return answer(t, t.intent), true
	}}
}

func applyChartKeyword(t *turn) (Result, bool) {
	if kt, ok := chart.DetectKeyword(t.q); ok {
		t.preferred = kt
	}
	return Result{}, false
}

func applyMonthFilter(t *turn) (Result, bool) {
	m, ok := intent.ExtractMonth(t.q)
	if !ok {
		return Result{}, false
	}
	if col, ok := m.Column(t.ds.Columns); ok {
		t.month, t.monthCol = m, col
	}
	return Result{}, false
}

// minMembershipLen keeps two-letter codes from matching inside ordinary words.
const minMembershipLen = 3

func applyValueMembership(t *turn) (Result, bool) {
	if intent.HasAggregation(t.q) {
		return Result{}, false
	}
	for _, col := range t.ds.Columns {
		seen := map[string]bool{}
		for _, r := range t.ds.Rows {
			v := r.Get(col)
			if v.IsMissing() || v.IsNumber() {
				continue
			}
			s := strings.ToLower(strings.TrimSpace(v.String()))
			if len(s) < minMembershipLen || seen[s] {
				continue
			}
			seen[s] = true
			// Symbol-only values ("$$$", "---") normalize to nothing and never match a row filter.
			if dataset.Normalize(s) == "" {
				continue
			}
			if _, numeric := dataset.ParseNumber(s); numeric {
				continue
			}
			if !strings.Contains(t.q, s) {
				continue
			}
			rows := aggregate.FilterEquals(t.ds.Rows, col, v.String())
			if len(rows) == 0 {
				continue
			}
			return Result{
				Message: fmt.Sprintf("Found %d %s where %s is %s. Example: %s.",
					len(rows), plural(len(rows), "record", "records"), col, v.String(), describeRecord(t.ds.Columns, rows[0])),
			}, true
		}
	}
	return Result{}, false
}

func describeRecord(columns []string, r dataset.Record) string {
	parts := make([]string, 0, len(columns))
	for _, c := range columns {
		v := r.Get(c)
		if v.IsMissing() {
			continue
		}
		parts = append(parts, c+": "+v.String())
	}
	return strings.Join(parts, ", ")
}

// resolve returns the column for phrase, or a not-found Result listing every column.
func (t *turn) resolve(phrase string) (string, *Result) {
	r := t.resolver.Resolve(t.ds.Columns, phrase)
	if !r.Found {
		return "", &Result{Message: resolver.NotFoundMessage(r, t.ds.Columns)}
	}
	return r.Column, nil
}

// valueColumn resolves a measure phrase. An active month filter takes its place.
func (t *turn) valueColumn(phrase string) (string, *Result) {
	if t.monthCol != "" {
		return t.monthCol, nil
	}
	if strings.TrimSpace(phrase) == "" {
		if v := t.profile.PreferredValue(); v != "" {
			return v, nil
		}
	}
	return t.resolve(phrase)
}

func (t *turn) monthNote() string {
	if t.monthCol == "" {
		return ""
	}
	return fmt.Sprintf(" Filtered to %s using column %q.", t.month.Title(), t.monthCol)
}

func answerTopN(t *turn, in intent.Intent) Result {
	group, miss := t.resolve(strings.TrimSuffix(in.GroupPhrase, "s"))
	if miss != nil {
		return *miss
	}
	var groups []aggregate.Group
	value := ""
	if in.ValuePhrase != "" || t.monthCol != "" || t.profile.PreferredValue() != "" {
		v, miss := t.valueColumn(in.ValuePhrase)
		if miss != nil {
			return *miss
		}
		value = v
	}
	switch {
	case value == "":
		groups = aggregate.GroupCount(t.ds.Rows, group)
		value = "count"
	case in.Average:
		groups = aggregate.GroupAverage(t.ds.Rows, group, value)
	default:
		groups = aggregate.GroupSum(t.ds.Rows, group, value)
	}
	top := aggregate.TopN(groups, in.N)
	if len(top) == 0 {
		return Result{Message: fmt.Sprintf("No numeric %s values found to rank %s by.", value, group)}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Top %d %s by %s:", len(top), group, value)
	for i, g := range top {
		fmt.Fprintf(&b, "\n%d. %s: %s", i+1, g.Key, narrative.Format(g.Value))
	}
	b.WriteString(t.monthNote())

	ct := chart.Bar
	if t.preferred == chart.Pie || t.preferred == chart.Line {
		ct = t.preferred
	}
	data := chart.FromGroups(top)
	if n := narrative.Narrate(data, ct); n != "" {
		b.WriteString("\n" + n)
	}
	return Result{Message: b.String(), ChartType: ct, Title: value + " by " + group, ChartData: data}
}

// findFilter probes every column for a cell equal to the filter phrase. When
// the phrase names a column as well ("north region"), the column words are
// dropped and the probe retried.
func (t *turn) findFilter(filter string) (string, []dataset.Record, bool) {
	if col, rows, ok := aggregate.FindFilter(t.ds, filter); ok {
		return col, rows, true
	}
	var kept []string
	for _, w := range strings.Fields(filter) {
		if !t.namesColumn(w) {
			kept = append(kept, w)
		}
	}
	if len(kept) == 0 || len(kept) == len(strings.Fields(filter)) {
		return "", nil, false
	}
	return aggregate.FindFilter(t.ds, strings.Join(kept, " "))
}

func (t *turn) namesColumn(word string) bool {
	w := resolver.Normalize(word)
	for _, c := range t.ds.Columns {
		n := resolver.Normalize(c)
		if w != "" && (n == w || n+"s" == w) {
			return true
		}
	}
	return false
}

func noMatch(filter string) Result {
	return Result{Message: fmt.Sprintf("No rows match %q in any column.", filter)}
}

func answerSumFor(t *turn, in intent.Intent) Result {
	value, miss := t.valueColumn(in.ValuePhrase)
	if miss != nil {
		return *miss
	}
	col, rows, ok := t.findFilter(in.FilterValue)
	if !ok {
		return noMatch(in.FilterValue)
	}
	total, n := aggregate.Sum(rows, value)
	if n == 0 {
		return Result{Message: fmt.Sprintf("No numeric %s values in the %d rows where %s is %s.", value, len(rows), col, in.FilterValue)}
	}
	return Result{Message: fmt.Sprintf("Total %s for %s: %s (%d matching %s in %s).%s",
		value, in.FilterValue, narrative.Format(total), len(rows), plural(len(rows), "row", "rows"), col, t.monthNote())}
}

func answerCount(t *turn, in intent.Intent) Result {
	col, rows, ok := t.findFilter(in.FilterValue)
	if !ok {
		return Result{Message: fmt.Sprintf("There are 0 %s matching %q.", in.SubjectPhrase, in.FilterValue)}
	}
	return Result{Message: fmt.Sprintf("%s %d %s where %s is %s.",
		plural(len(rows), "There is", "There are"), len(rows), plural(len(rows), "record", "records"), col, in.FilterValue)}
}

func answerAverage(t *turn, in intent.Intent) Result {
	value, miss := t.valueColumn(in.ValuePhrase)
	if miss != nil {
		return *miss
	}
	col, rows, ok := t.findFilter(in.FilterValue)
	if !ok {
		return noMatch(in.FilterValue)
	}
	avg, ok := aggregate.Average(rows, value)
	if !ok {
		return Result{Message: fmt.Sprintf("No numeric %s values in the %d rows where %s is %s.", value, len(rows), col, in.FilterValue)}
	}
	_, n := aggregate.Sum(rows, value)
	return Result{Message: fmt.Sprintf("Average %s for %s: %s (across %d %s where %s is %s).%s",
		value, in.FilterValue, narrative.Format(avg), n, plural(n, "row", "rows"), col, in.FilterValue, t.monthNote())}
}

// maxListed caps how many unique values a list answer spells out.
const maxListed = 50

func answerList(t *turn, in intent.Intent) Result {
	col := t.mentionedColumn()
	if col == "" {
		c, miss := t.resolve(in.ColumnPhrase)
		if miss != nil {
			return *miss
		}
		col = c
	}
	vals := aggregate.Unique(t.ds.Rows, col)
	shown := vals
	if len(shown) > maxListed {
		shown = shown[:maxListed]
	}
	msg := fmt.Sprintf("There are %d unique values of %s: %s", len(vals), col, strings.Join(shown, ", "))
	if len(vals) > len(shown) {
		msg += fmt.Sprintf(", and %d more", len(vals)-len(shown))
	}
	return Result{Message: msg + "."}
}

// mentionedColumn returns the longest column name that appears verbatim,
// after normalization, inside the query.
func (t *turn) mentionedColumn() string {
	nq := resolver.Normalize(t.q)
	best := ""
	for _, c := range t.ds.Columns {
		n := resolver.Normalize(c)
		if len(n) >= 3 && strings.Contains(nq, n) && len(n) > len(resolver.Normalize(best)) {
			best = c
		}
	}
	return best
}

var byPhrase = regexp.MustCompile(`^(?:(?:show|plot|chart|graph|display|draw|visuali[sz]e|give|compare)\s+)?(?:me\s+)?(?:the\s+|a\s+)?(?:(?:pie|bar|line|area|scatter)\s+(?:chart|graph|plot)\s+(?:of\s+)?)?(?:total\s+)?(.+?)\s+(?:by|per|across|for each|over)\s+(.+?)\s*[?.!]*$`)

// maxCategories caps the rows of a grouped bar or pie chart.
const maxCategories = 30

func applyGenericChart(t *turn) (Result, bool) {
	p := t.profile
	if !(len(p.Categorical) > 0 && len(p.Numeric) > 0 || len(p.Date) > 0) {
		return Result{}, false
	}
	x, y := t.axisHints()
	if x == "" && y == "" && !intent.WantsChart(t.q) {
		return Result{}, false
	}
	if x == "" && len(p.Categorical) == 0 && len(p.Date) > 0 {
		x = p.Date[0]
	}
	if t.monthCol != "" {
		y = t.monthCol
	}
	spec := chart.Select(p, t.q, t.preferred, x, y)
	res, ok := buildChart(t.ds, spec)
	if !ok {
		return Result{}, false
	}
	res.Message += t.monthNote()
	return res, true
}

// axisHints reads "<value> by <group>" phrasing and bare column mentions.
// Numeric columns become y, everything else x.
func (t *turn) axisHints() (x, y string) {
	assign := func(col string) {
		if col == "" {
			return
		}
		if dataset.IsNumericColumn(t.ds, col) && dataset.Classify(t.ds, col) != dataset.TagDate {
			if y == "" {
				y = col
			}
			return
		}
		if x == "" {
			x = col
		}
	}
	if m := byPhrase.FindStringSubmatch(t.q); m != nil {
		for _, phrase := range []string{m[1], m[2]} {
			if r := t.resolver.Resolve(t.ds.Columns, phrase); r.Found && r.Step != resolver.StepWord {
				assign(r.Column)
			}
		}
	}
	nq := resolver.Normalize(t.q)
	for _, c := range t.ds.Columns {
		n := resolver.Normalize(c)
		if len(n) >= 3 && strings.Contains(nq, n) {
			assign(c)
		}
	}
	return x, y
}

// buildChart aggregates the dataset into the shape spec asks for.
func buildChart(ds *dataset.Dataset, spec chart.Spec) (Result, bool) {
	var data chart.Data
	note := ""
	switch spec.Shape {
	case chart.ShapeHistogram:
		data = chart.FromBuckets(aggregate.Histogram(aggregate.Values(ds.Rows, spec.YColumn)))
	case chart.ShapePoints:
		data = chart.FromPoints(ds.Rows, spec.XColumn, spec.YColumn)
	default:
		if spec.XColumn == "" {
			return Result{}, false
		}
		var groups []aggregate.Group
		if spec.YColumn == "" {
			groups = aggregate.GroupCount(ds.Rows, spec.XColumn)
			spec.Title = "count by " + spec.XColumn
		} else {
			groups = aggregate.GroupSum(ds.Rows, spec.XColumn, spec.YColumn)
		}
		if len(groups) > maxCategories && spec.Type != chart.Line && spec.Type != chart.Area {
			note = fmt.Sprintf(" Showing the %d largest of %d groups.", maxCategories, len(groups))
			groups = aggregate.TopN(groups, maxCategories)
		}
		data = chart.FromGroups(groups)
	}
	if len(data) == 0 {
		return Result{}, false
	}
	msg := "Here is " + spec.Title + "." + note
	if n := narrative.Narrate(data, spec.Type); n != "" {
		msg += " " + n
	}
	return Result{Message: msg, ChartType: spec.Type, Title: spec.Title, ChartData: data}, true
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
