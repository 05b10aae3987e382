package dataset

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// ColumnSummary captures the semantic tag and basic statistics of a column.
type ColumnSummary struct {
	Name    string
	Tag     Tag
	NonNull int
	Missing int
	Unique  int
	// Numeric stats, populated when Tag is numeric.
	Min, Max, Mean float64
	// Most frequent values for non-numeric columns.
	TopValues []CategoryCount
}

type CategoryCount struct {
	Value string
	Count int
}

// Summary is a bounded description of a dataset, safe to embed in a prompt.
type Summary struct {
	Name    string
	Rows    int
	Cols    []ColumnSummary
	Samples []Record
	columns []string
}

// Summarize computes per-column statistics and keeps up to sampleRows rows.
func Summarize(d *Dataset, sampleRows int) *Summary {
	s := &Summary{}
	if d == nil {
		return s
	}
	s.Name, s.Rows, s.columns = d.Name, len(d.Rows), d.Columns
	if sampleRows < 0 {
		sampleRows = 0
	}
	for i := 0; i < len(d.Rows) && i < sampleRows; i++ {
		s.Samples = append(s.Samples, d.Rows[i])
	}
	for _, c := range d.Columns {
		s.Cols = append(s.Cols, summarizeColumn(d, c))
	}
	return s
}

func summarizeColumn(d *Dataset, col string) ColumnSummary {
	cs := ColumnSummary{Name: col, Tag: Classify(d, col)}
	counts := map[string]int{}
	var n int
	var sum float64
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, r := range d.Rows {
		v := r.Get(col)
		if v.IsMissing() {
			cs.Missing++
			continue
		}
		cs.NonNull++
		counts[v.String()]++
		if f, ok := v.Float(); ok {
			n++
			sum += f
			lo = math.Min(lo, f)
			hi = math.Max(hi, f)
		}
	}
	cs.Unique = len(counts)
	if cs.Tag == TagNumeric && n > 0 {
		cs.Min, cs.Max, cs.Mean = lo, hi, sum/float64(n)
		return cs
	}
	tops := make([]CategoryCount, 0, len(counts))
	for k, v := range counts {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > 5 {
		tops = tops[:5]
	}
	cs.TopValues = tops
	return cs
}

// Markdown renders a compact summary suitable for prompts or the terminal.
func (s *Summary) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if s.Name != "" {
		fmt.Fprintf(&b, "File: %s\n", s.Name)
	}
	fmt.Fprintf(&b, "Rows: %d\n", s.Rows)
	fmt.Fprintf(&b, "Columns: %d\n\n", len(s.Cols))

	b.WriteString("[SCHEMA]\n")
	for _, c := range s.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		fmt.Fprintf(&b, "- %s: %s (non-null %d, missing %.1f%%)", safeVal(c.Name), c.Tag, c.NonNull, missPct)
		if c.Tag == TagNumeric && c.NonNull > 0 {
			fmt.Fprintf(&b, " — min %.4g, max %.4g, avg %.4g", c.Min, c.Max, c.Mean)
		} else if len(c.TopValues) > 0 {
			b.WriteString(" — top: ")
			for i, kv := range c.TopValues {
				if i > 0 {
					b.WriteString(", ")
				}
				fmt.Fprintf(&b, "%s(%d)", safeVal(kv.Value), kv.Count)
			}
			if c.Unique > len(c.TopValues) {
				fmt.Fprintf(&b, "; unique=%d", c.Unique)
			}
		}
		b.WriteString("\n")
	}
	if len(s.Samples) > 0 {
		b.WriteString("\n[SAMPLE ROWS]\n| ")
		b.WriteString(strings.Join(mapStrings(s.columns, safeVal), " | "))
		b.WriteString(" |\n|")
		b.WriteString(strings.Repeat(" --- |", len(s.columns)))
		b.WriteString("\n")
		for _, r := range s.Samples {
			cells := make([]string, len(s.columns))
			for i, c := range s.columns {
				val := r.Get(c).String()
				if len(val) > 80 {
					val = val[:77] + "..."
				}
				cells[i] = safeVal(val)
			}
			b.WriteString("| ")
			b.WriteString(strings.Join(cells, " | "))
			b.WriteString(" |\n")
		}
	}
	return b.String()
}

func mapStrings(in []string, fn func(string) string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = fn(s)
	}
	return out
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
