// Package chart holds chart types, chart-ready data and the chart type selector.
package chart

import (
	"strings"

	"github.com/KaramelBytes/tabula-cli/internal/aggregate"
	"github.com/KaramelBytes/tabula-cli/internal/dataset"
)

// Type is a chart type understood by the rendering collaborator.
type Type string

const (
	Bar     Type = "bar"
	Line    Type = "line"
	Pie     Type = "pie"
	Scatter Type = "scatter"
	Area    Type = "area"
	Geo     Type = "geo"
	Heatmap Type = "heatmap"
)

// Types lists every supported chart type.
var Types = []Type{Bar, Line, Pie, Scatter, Area, Geo, Heatmap}

// ParseType accepts a chart type name, case-insensitively.
func ParseType(s string) (Type, bool) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	for _, v := range Types {
		if v == t {
			return t, true
		}
	}
	return "", false
}

// Points reports whether the type plots x/y rows rather than name/value rows.
func (t Type) Points() bool { return t == Scatter }

// Data is an ordered sequence of chart rows. Name/value rows use the keys
// "name" and "value"; point rows use "x" and "y".
type Data []map[string]any

// maxPoints caps scatter output.
const maxPoints = 500

// FromGroups builds name/value rows from aggregated groups.
func FromGroups(groups []aggregate.Group) Data {
	out := make(Data, 0, len(groups))
	for _, g := range groups {
		out = append(out, map[string]any{"name": g.Key, "value": g.Value})
	}
	return out
}

// FromBuckets builds name/value rows where value is the bucket count.
func FromBuckets(buckets []aggregate.Bucket) Data {
	out := make(Data, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, map[string]any{"name": b.Label, "value": float64(b.Count)})
	}
	return out
}

// FromPoints builds x/y rows from rows where both columns are numeric.
func FromPoints(rows []dataset.Record, xCol, yCol string) Data {
	var out Data
	for _, r := range rows {
		x, okx := r.Get(xCol).Float()
		y, oky := r.Get(yCol).Float()
		if !okx || !oky {
			continue
		}
		out = append(out, map[string]any{"x": x, "y": y})
		if len(out) == maxPoints {
			break
		}
	}
	return out
}

// Consistent reports whether every row has the keys the chart type needs.
func (d Data) Consistent(t Type) bool {
	a, b := "name", "value"
	if t.Points() {
		a, b = "x", "y"
	}
	for _, row := range d {
		if _, ok := row[a]; !ok {
			return false
		}
		if _, ok := row[b]; !ok {
			return false
		}
	}
	return true
}
