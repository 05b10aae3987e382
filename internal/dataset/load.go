package dataset

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Loader reads one file format into a Dataset.
type Loader interface {
	CanLoad(filename string) bool
	Load(path string, opt LoadOptions) (*Dataset, error)
}

// LoadOptions controls file loading.
type LoadOptions struct {
	// MaxRows limits rows read; 0 means unlimited.
	MaxRows int
	// Delimiter for CSV. If 0, picks '\t' for .tsv and ',' otherwise.
	Delimiter rune
	// SheetName/SheetIndex select an XLSX sheet (index is 1-based).
	SheetName  string
	SheetIndex int
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

// ErrUnsupported indicates a file format with no registered loader.
var ErrUnsupported = errors.New("unsupported dataset format")

// LoadFile selects a loader based on filename.
func LoadFile(path string, opt LoadOptions) (*Dataset, error) {
	for _, l := range registry {
		if l.CanLoad(path) {
			return l.Load(path, opt)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
}

func init() {
	Register(csvLoader{})
	Register(xlsxLoader{})
	Register(jsonLoader{})
}

type csvLoader struct{}

func (csvLoader) CanLoad(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".tsv")
}

func (csvLoader) Load(path string, opt LoadOptions) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	return ReadCSV(f, filepath.Base(path), delim, opt.MaxRows)
}

// ReadCSV reads a header row followed by records.
func ReadCSV(r io.Reader, name string, delim rune, maxRows int) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	if delim != 0 {
		cr.Comma = delim
	}
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &Dataset{Name: name}, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	rr := &rowReader{next: func() ([]string, error) { return cr.Read() }}
	return buildDataset(name, header, rr, maxRows)
}

type rowReader struct {
	next func() ([]string, error)
}

func buildDataset(name string, header []string, rr *rowReader, maxRows int) (*Dataset, error) {
	cols := uniqueHeader(header)
	if len(cols) == 0 {
		return &Dataset{Name: name}, nil
	}
	if maxRows <= 0 {
		maxRows = int(^uint(0) >> 1)
	}
	var rows []Record
	for n := 1; len(rows) < maxRows; n++ {
		rec, err := rr.next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", n, err)
		}
		if blankRow(rec) {
			continue
		}
		r := make(Record, len(cols))
		for j, c := range cols {
			if j >= len(rec) {
				break
			}
			v := FromText(rec[j])
			if v.IsMissing() {
				continue
			}
			r[c] = v
		}
		rows = append(rows, r)
	}
	return New(name, cols, rows)
}

// uniqueHeader trims header cells and de-duplicates names with a numeric suffix.
func uniqueHeader(header []string) []string {
	seen := map[string]int{}
	out := make([]string, 0, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			h = fmt.Sprintf("column_%d", i+1)
		}
		if n := seen[h]; n > 0 {
			seen[h] = n + 1
			h = fmt.Sprintf("%s_%d", h, n+1)
		} else {
			seen[h] = 1
		}
		out = append(out, h)
	}
	return out
}

func blankRow(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

type jsonLoader struct{}

func (jsonLoader) CanLoad(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".json")
}

func (jsonLoader) Load(path string, opt LoadOptions) (*Dataset, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}
	var raw []map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("decode json (expected an array of objects): %w", err)
	}
	if opt.MaxRows > 0 && len(raw) > opt.MaxRows {
		raw = raw[:opt.MaxRows]
	}
	return FromMaps(filepath.Base(path), nil, raw)
}
