// Package aggregate groups, filters and summarizes dataset rows.
//
// Numeric coercion goes through dataset.ParseNumber. Missing and
// non-numeric cells are excluded from sums and averages, never read as zero.
package aggregate

import (
	"sort"
	"time"

	"github.com/KaramelBytes/tabula-cli/internal/dataset"
)

// Group is one aggregated bucket. Count is the number of numeric values that
// contributed to Value.
type Group struct {
	Key   string
	Value float64
	Count int
}

// GroupSum sums valueCol per distinct groupCol value. Groups keep the order in
// which their key was first seen. Rows with a missing group key are skipped.
func GroupSum(rows []dataset.Record, groupCol, valueCol string) []Group {
	return group(rows, groupCol, valueCol, false)
}

// GroupAverage is GroupSum divided by the per-group count of numeric values.
func GroupAverage(rows []dataset.Record, groupCol, valueCol string) []Group {
	return group(rows, groupCol, valueCol, true)
}

// GroupCount counts rows per distinct groupCol value, in first-seen order.
func GroupCount(rows []dataset.Record, groupCol string) []Group {
	idx := map[string]int{}
	var out []Group
	for _, r := range rows {
		k := r.Get(groupCol)
		if k.IsMissing() {
			continue
		}
		i, ok := idx[k.String()]
		if !ok {
			i = len(out)
			idx[k.String()] = i
			out = append(out, Group{Key: k.String()})
		}
		out[i].Count++
		out[i].Value++
	}
	return out
}

func group(rows []dataset.Record, groupCol, valueCol string, average bool) []Group {
	idx := map[string]int{}
	var out []Group
	for _, r := range rows {
		k := r.Get(groupCol)
		if k.IsMissing() {
			continue
		}
		f, ok := r.Get(valueCol).Float()
		if !ok {
			continue
		}
		i, seen := idx[k.String()]
		if !seen {
			i = len(out)
			idx[k.String()] = i
			out = append(out, Group{Key: k.String()})
		}
		out[i].Value += f
		out[i].Count++
	}
	if average {
		for i := range out {
			out[i].Value /= float64(out[i].Count)
		}
	}
	return out
}

// Chronological returns groups ordered by their keys read as dates, or as
// numbers (years, period indexes) when they are not dates. When some key
// reads as neither, the input order is kept. The input slice is not modified.
func Chronological(groups []Group) []Group {
	out := append([]Group(nil), groups...)
	times := make(map[string]time.Time, len(out))
	for _, g := range out {
		t, ok := dataset.ParseTime(g.Key)
		if !ok {
			times = nil
			break
		}
		times[g.Key] = t
	}
	if times != nil {
		sort.SliceStable(out, func(i, j int) bool { return times[out[i].Key].Before(times[out[j].Key]) })
		return out
	}
	nums := make(map[string]float64, len(out))
	for _, g := range out {
		f, ok := dataset.ParseNumber(g.Key)
		if !ok {
			return out
		}
		nums[g.Key] = f
	}
	sort.SliceStable(out, func(i, j int) bool { return nums[out[i].Key] < nums[out[j].Key] })
	return out
}

// TopN returns the n largest groups by Value, ties kept in input order.
// The input slice is not modified.
func TopN(groups []Group, n int) []Group {
	sorted := append([]Group(nil), groups...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Value > sorted[j].Value })
	if n < 0 {
		n = 0
	}
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// Total sums the group values.
func Total(groups []Group) float64 {
	var t float64
	for _, g := range groups {
		t += g.Value
	}
	return t
}

// Matches reports whether a cell equals value after normalization.
func Matches(v dataset.Value, value string) bool {
	if v.IsMissing() {
		return false
	}
	want := dataset.Normalize(value)
	return want != "" && dataset.Normalize(v.String()) == want
}

// FilterEquals returns the rows whose column cell normalizes to value.
func FilterEquals(rows []dataset.Record, column, value string) []dataset.Record {
	var out []dataset.Record
	for _, r := range rows {
		if Matches(r.Get(column), value) {
			out = append(out, r)
		}
	}
	return out
}

// Count returns how many rows have column equal to value.
func Count(rows []dataset.Record, column, value string) int {
	n := 0
	for _, r := range rows {
		if Matches(r.Get(column), value) {
			n++
		}
	}
	return n
}

// FindFilter probes the columns in order and returns the first one holding a
// cell equal to value, together with the matching rows.
func FindFilter(d *dataset.Dataset, value string) (string, []dataset.Record, bool) {
	if d == nil {
		return "", nil, false
	}
	for _, c := range d.Columns {
		if rows := FilterEquals(d.Rows, c, value); len(rows) > 0 {
			return c, rows, true
		}
	}
	return "", nil, false
}

// Unique returns the distinct non-missing values of column in first-seen order.
func Unique(rows []dataset.Record, column string) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range rows {
		v := r.Get(column)
		if v.IsMissing() || seen[v.String()] {
			continue
		}
		seen[v.String()] = true
		out = append(out, v.String())
	}
	return out
}

// Values returns the numeric readings of column, skipping the rest.
func Values(rows []dataset.Record, column string) []float64 {
	var out []float64
	for _, r := range rows {
		if f, ok := r.Get(column).Float(); ok {
			out = append(out, f)
		}
	}
	return out
}

// Sum adds the numeric cells of column and reports how many contributed.
func Sum(rows []dataset.Record, column string) (float64, int) {
	var s float64
	vals := Values(rows, column)
	for _, v := range vals {
		s += v
	}
	return s, len(vals)
}

// Average is the mean of the numeric cells of column; ok is false when none exist.
func Average(rows []dataset.Record, column string) (float64, bool) {
	s, n := Sum(rows, column)
	if n == 0 {
		return 0, false
	}
	return s / float64(n), true
}
