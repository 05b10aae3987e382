package dataset

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Record maps column name to cell. Absent keys read as Missing.
type Record map[string]Value

// Get returns the cell for col, or Missing when the key is absent.
func (r Record) Get(col string) Value {
	if v, ok := r[col]; ok {
		return v
	}
	return Missing()
}

// Dataset is an uploaded table. It is never mutated after construction;
// transformations such as Clean return a new Dataset.
type Dataset struct {
	Name    string
	Columns []string
	Rows    []Record
}

var ErrDuplicateColumn = errors.New("duplicate column name")

// New validates columns and rows and returns the dataset.
// Every record key must be a declared column.
func New(name string, columns []string, rows []Record) (*Dataset, error) {
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if seen[c] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c)
		}
		seen[c] = true
	}
	for i, r := range rows {
		for k := range r {
			if !seen[k] {
				return nil, fmt.Errorf("row %d: unknown column %q", i+1, k)
			}
		}
	}
	return &Dataset{Name: name, Columns: columns, Rows: rows}, nil
}

// FromMaps builds a dataset from decoded JSON objects. When columns is empty
// the order of first appearance across rows is used.
func FromMaps(name string, columns []string, raw []map[string]any) (*Dataset, error) {
	cols := append([]string(nil), columns...)
	if len(cols) == 0 {
		seen := map[string]bool{}
		for _, m := range raw {
			for _, k := range sortedKeys(m) {
				if !seen[k] {
					seen[k] = true
					cols = append(cols, k)
				}
			}
		}
	}
	rows := make([]Record, 0, len(raw))
	for _, m := range raw {
		r := make(Record, len(m))
		for k, v := range m {
			r[k] = FromAny(v)
		}
		rows = append(rows, r)
	}
	return New(name, cols, rows)
}

// Empty reports whether there is nothing to analyze.
func (d *Dataset) Empty() bool { return d == nil || len(d.Rows) == 0 || len(d.Columns) == 0 }

// Len returns the number of rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// HasColumn reports whether col is a declared column.
func (d *Dataset) HasColumn(col string) bool {
	for _, c := range d.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// Fingerprint is a stable digest of the dataset contents, used as a cache key.
func (d *Dataset) Fingerprint() string {
	h := sha256.New()
	if d == nil {
		return ""
	}
	for _, c := range d.Columns {
		h.Write([]byte(c))
		h.Write([]byte{0})
	}
	for _, r := range d.Rows {
		for _, c := range d.Columns {
			v := r.Get(c)
			h.Write([]byte{byte(v.kind)})
			h.Write([]byte(v.text))
			h.Write([]byte{0})
		}
		h.Write([]byte{1})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Clean returns a derived dataset in which missing cells of numeric columns
// are replaced by 0. The receiver is not modified.
func (d *Dataset) Clean() *Dataset {
	numeric := map[string]bool{}
	for _, c := range d.Columns {
		numeric[c] = IsNumericColumn(d, c)
	}
	rows := make([]Record, len(d.Rows))
	for i, r := range d.Rows {
		nr := make(Record, len(d.Columns))
		for _, c := range d.Columns {
			v := r.Get(c)
			if v.IsMissing() && numeric[c] {
				v = Number(0)
			}
			if v.IsMissing() {
				if _, ok := r[c]; !ok {
					continue
				}
			}
			nr[c] = v
		}
		rows[i] = nr
	}
	return &Dataset{Name: d.Name, Columns: append([]string(nil), d.Columns...), Rows: rows}
}

// Normalize lower-cases s and drops every character that is not a letter or digit.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Words splits s into lower-case alphanumeric words.
func Words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
