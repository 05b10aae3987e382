// Package narrative turns chart data into a short descriptive paragraph.
package narrative

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/KaramelBytes/tabula-cli/internal/aggregate"
	"github.com/KaramelBytes/tabula-cli/internal/chart"
)

// Round2 rounds half away from zero to two decimal places. Infinities and
// NaN, which decimal cannot represent, are returned unchanged.
func Round2(f float64) float64 {
	if !finite(f) {
		return f
	}
	return decimal.NewFromFloat(f).Round(2).InexactFloat64()
}

// Format renders f rounded to two decimals without trailing zeros.
func Format(f float64) string {
	if !finite(f) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return decimal.NewFromFloat(f).Round(2).String()
}

func finite(f float64) bool { return !math.IsInf(f, 0) && !math.IsNaN(f) }

// Stats are the descriptive statistics of one numeric key of chart data.
type Stats struct {
	Key      string
	Min, Max float64
	Mean     float64
	MinLabel string
	MaxLabel string
	First    float64
	Last     float64
	StdDev   float64
	N        int
}

// Describe computes Stats for the first numeric non-"name" key of the first
// record. ok is false when there is no such key.
func Describe(data chart.Data) (Stats, bool) {
	if len(data) == 0 {
		return Stats{}, false
	}
	key := numericKey(data[0])
	if key == "" {
		return Stats{}, false
	}
	labelKey := "name"
	if _, ok := data[0]["name"]; !ok {
		labelKey = "x"
	}
	s := Stats{Key: key}
	var vals []float64
	for _, row := range data {
		v, ok := toFloat(row[key])
		if !ok {
			continue
		}
		label := fmt.Sprint(row[labelKey])
		if s.N == 0 || v < s.Min {
			s.Min, s.MinLabel = v, label
		}
		if s.N == 0 || v > s.Max {
			s.Max, s.MaxLabel = v, label
		}
		if s.N == 0 {
			s.First = v
		}
		s.Last = v
		s.N++
		vals = append(vals, v)
	}
	if s.N == 0 {
		return Stats{}, false
	}
	s.Mean = aggregate.Mean(vals)
	s.StdDev = aggregate.StdDev(vals)
	return s, true
}

// Narrate describes chart data. Line charts add the endpoint-to-endpoint
// direction; bar charts add a variability remark when the sample standard
// deviation exceeds half the mean. Empty data yields "".
func Narrate(data chart.Data, t chart.Type) string {
	s, ok := Describe(data)
	if !ok {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Highest %s: %s (%s). Lowest: %s (%s). Average: %s.",
		s.Key, s.MaxLabel, Format(s.Max), s.MinLabel, Format(s.Min), Format(s.Mean))
	switch t {
	case chart.Line:
		switch {
		case s.Last > s.First:
			fmt.Fprintf(&b, " The trend is increasing, from %s to %s.", Format(s.First), Format(s.Last))
		case s.Last < s.First:
			fmt.Fprintf(&b, " The trend is decreasing, from %s to %s.", Format(s.First), Format(s.Last))
		default:
			b.WriteString(" The trend is flat overall.")
		}
	case chart.Bar:
		if s.N > 1 && s.StdDev > s.Mean/2 {
			b.WriteString(" Values vary considerably across categories.")
		}
	}
	return b.String()
}

func numericKey(row map[string]any) string {
	for _, k := range []string{"value", "y"} {
		if _, ok := toFloat(row[k]); ok {
			return k
		}
	}
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k == "name" || k == "x" {
			continue
		}
		if _, ok := toFloat(row[k]); ok {
			return k
		}
	}
	return ""
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	}
	return 0, false
}
