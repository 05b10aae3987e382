package dataset

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

// Tag is the semantic class of a column, used only for chart-axis defaulting.
type Tag string

const (
	TagNumeric     Tag = "numeric"
	TagCategorical Tag = "categorical"
	TagDate        Tag = "date"
	TagLocation    Tag = "location"
)

var (
	locationName = regexp.MustCompile(`(?i)(region|state|city|country|district|location|zone|area|territory|province|market|pincode|zip|neighbo(u)?rhood|branch|store)`)
	valueName    = regexp.MustCompile(`(?i)(price|total|amount|sales|revenue|profit|cost|value|qty|quantity|units|count|income|expense|score|rate|spend|margin|discount|arrival)`)
	dateName     = regexp.MustCompile(`(?i)(date|time|day|month|year|week|period|quarter|timestamp|created|updated)`)
)

// IsLocationLike matches column names that describe places.
func IsLocationLike(name string) bool { return locationName.MatchString(name) }

// IsValueLike matches column names that usually hold measures.
func IsValueLike(name string) bool { return valueName.MatchString(name) }

// IsDateLike matches column names that describe time.
func IsDateLike(name string) bool { return dateName.MatchString(name) }

var timeLayouts = []string{
	time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
	"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006", "02-Jan-2006",
	"January 2, 2006", "2006-01", "Jan 2006", "January 2006", "Jan-2006",
	"January", "Jan",
}

// ParseTime reads the date spellings commonly found in exported tables.
// Bare month names parse into year zero, which still orders them.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// numericSampleRows bounds how many rows are inspected to decide numericness.
const numericSampleRows = 200

// IsNumericColumn reports whether most non-missing cells of col parse as numbers.
func IsNumericColumn(d *Dataset, col string) bool {
	var num, total int
	for i, r := range d.Rows {
		if i >= numericSampleRows {
			break
		}
		v := r.Get(col)
		if v.IsMissing() {
			continue
		}
		total++
		if _, ok := v.Float(); ok {
			num++
		}
	}
	return total > 0 && num*2 > total
}

// Classify returns the semantic tag of col. Name patterns take priority over
// inferred cell types: a numeric "Year" column is date-like.
func Classify(d *Dataset, col string) Tag {
	switch {
	case IsDateLike(col):
		return TagDate
	case IsLocationLike(col) && !IsNumericColumn(d, col):
		return TagLocation
	case IsNumericColumn(d, col):
		return TagNumeric
	default:
		return TagCategorical
	}
}

// Profile groups a dataset's columns by semantic tag, in column order.
type Profile struct {
	Numeric     []string
	Categorical []string // includes location-like columns
	Location    []string
	Date        []string
}

// ProfileOf computes the semantic profile on demand.
func ProfileOf(d *Dataset) Profile {
	var p Profile
	if d == nil {
		return p
	}
	for _, c := range d.Columns {
		switch Classify(d, c) {
		case TagDate:
			p.Date = append(p.Date, c)
		case TagLocation:
			p.Location = append(p.Location, c)
			p.Categorical = append(p.Categorical, c)
		case TagNumeric:
			p.Numeric = append(p.Numeric, c)
		default:
			p.Categorical = append(p.Categorical, c)
		}
	}
	return p
}

// PreferredValue returns the first value-like numeric column, else the first numeric one.
func (p Profile) PreferredValue() string {
	for _, c := range p.Numeric {
		if IsValueLike(c) {
			return c
		}
	}
	if len(p.Numeric) > 0 {
		return p.Numeric[0]
	}
	return ""
}

// PreferredCategory returns the first location-like column, else the first categorical one.
func (p Profile) PreferredCategory() string {
	if len(p.Location) > 0 {
		return p.Location[0]
	}
	if len(p.Categorical) > 0 {
		return p.Categorical[0]
	}
	return ""
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
