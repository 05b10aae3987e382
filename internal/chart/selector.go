package chart

import (
	"regexp"

	"github.com/KaramelBytes/tabula-cli/internal/dataset"
)

// Shape says how the engine must build the data for a Spec.
type Shape int

const (
	// ShapeGrouped aggregates YColumn per XColumn value.
	ShapeGrouped Shape = iota
	// ShapeHistogram buckets the values of YColumn.
	ShapeHistogram
	// ShapePoints pairs XColumn and YColumn per row.
	ShapePoints
)

// Spec describes the chart to produce.
type Spec struct {
	Type    Type
	XColumn string
	YColumn string
	Title   string
	Shape   Shape
}

var keywordTypes = []struct {
	re *regexp.Regexp
	t  Type
}{
	{regexp.MustCompile(`\bpie\b`), Pie},
	{regexp.MustCompile(`\bscatter\b`), Scatter},
	{regexp.MustCompile(`\bheat\s?map\b`), Heatmap},
	{regexp.MustCompile(`\barea\s+(chart|graph|plot)\b`), Area},
	{regexp.MustCompile(`\b(geo|map)\b`), Geo},
	{regexp.MustCompile(`\bline\b`), Line},
	{regexp.MustCompile(`\bbars?\b`), Bar},
	{regexp.MustCompile(`\btrends?\b`), Line},
	{regexp.MustCompile(`\bcompar(e|ison)\b`), Bar},
	{regexp.MustCompile(`\bcomposition\b`), Pie},
	{regexp.MustCompile(`\bcorrelations?\b`), Scatter},
	{regexp.MustCompile(`\boutliers?\b`), Scatter},
}

// DetectKeyword finds an explicit chart-type keyword in a lower-cased query.
func DetectKeyword(q string) (Type, bool) {
	for _, k := range keywordTypes {
		if k.re.MatchString(q) {
			return k.t, true
		}
	}
	return "", false
}

var (
	trendSignal        = regexp.MustCompile(`\b(trends?|time|over time|monthly|daily|weekly|yearly)\b`)
	distributionSignal = regexp.MustCompile(`\b(distribution|histogram|spread)\b`)
	correlationSignal  = regexp.MustCompile(`\b(correlations?|relationship|correlate)\b`)
	compareSignal      = regexp.MustCompile(`\bcompar(e|ison)\b`)
	compositionSignal  = regexp.MustCompile(`\b(composition|share|proportion)\b`)
)

// Select picks the chart for a lower-cased query. x and y are columns the
// caller already resolved; either may be empty and is then defaulted from the
// profile. An explicit keyword type always wins over the inferred one, unless
// the data cannot take that shape.
func Select(p dataset.Profile, q string, explicit Type, x, y string) Spec {
	s := Spec{Type: Bar, XColumn: x, YColumn: y, Shape: ShapeGrouped}
	if s.XColumn == "" {
		s.XColumn = p.PreferredCategory()
	}
	if s.YColumn == "" {
		s.YColumn = p.PreferredValue()
	}

	switch {
	case distributionSignal.MatchString(q) && s.YColumn != "":
		s.Shape = ShapeHistogram
		s.XColumn = s.YColumn
	case correlationSignal.MatchString(q) && len(p.Numeric) >= 2:
		s.Type, s.Shape = Scatter, ShapePoints
		s.XColumn, s.YColumn = p.Numeric[0], p.Numeric[1]
	case trendSignal.MatchString(q):
		s.Type = Line
		if len(p.Date) > 0 {
			s.XColumn = p.Date[0]
		}
	case compositionSignal.MatchString(q):
		s.Type = Pie
	case compareSignal.MatchString(q):
		s.Type = Bar
	}

	if explicit != "" {
		s = applyExplicit(s, p, explicit)
	}
	s.Title = title(s)
	return s
}

func applyExplicit(s Spec, p dataset.Profile, t Type) Spec {
	switch {
	case t.Points() && s.Shape != ShapePoints:
		if len(p.Numeric) < 2 {
			return s
		}
		s.Shape = ShapePoints
		s.XColumn, s.YColumn = p.Numeric[0], p.Numeric[1]
	case !t.Points() && s.Shape == ShapePoints:
		s.Shape = ShapeGrouped
		s.XColumn, s.YColumn = p.PreferredCategory(), p.PreferredValue()
	}
	if (t == Line || t == Area) && s.Shape == ShapeGrouped && len(p.Date) > 0 {
		s.XColumn = p.Date[0]
	}
	s.Type = t
	return s
}

func title(s Spec) string {
	switch s.Shape {
	case ShapeHistogram:
		return "Distribution of " + s.YColumn
	case ShapePoints:
		return s.YColumn + " vs " + s.XColumn
	}
	return s.YColumn + " by " + s.XColumn
}
