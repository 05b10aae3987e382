package intent

import (
	_ "embed"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/KaramelBytes/tabula-cli/internal/dataset"
	"gopkg.in/yaml.v3"
)

//go:embed months.yaml
var monthsYAML []byte

type monthEntry struct {
	Name    string   `yaml:"month"`
	Number  int      `yaml:"number"`
	Aliases []string `yaml:"aliases"`
}

var (
	monthTable []monthEntry
	monthOnce  sync.Once
)

func months() []monthEntry {
	monthOnce.Do(func() {
		if err := yaml.Unmarshal(monthsYAML, &monthTable); err != nil {
			panic(fmt.Sprintf("parse months.yaml: %v", err))
		}
	})
	return monthTable
}

// Month is a month mentioned in a query, with an optional four-digit year.
type Month struct {
	Name   string
	Number int
	Year   int
	alias  []string
}

var (
	monthWord = regexp.MustCompile(`\b(jan(?:uary)?|feb(?:r|ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t|tember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\b\.?(?:[\s,'-]*((?:19|20)\d{2}))?`)
	yearWord  = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)
	// "may" is only a month when a year follows it or a preposition precedes it.
	mayAsMonth = regexp.MustCompile(`\b(in|for|of|during|since|until|by)\s+may\b|\bmay\b[\s,'-]*(?:19|20)\d{2}`)
)

// ExtractMonth finds the first month name or abbreviation in a lower-cased query.
func ExtractMonth(q string) (Month, bool) {
	for _, m := range monthWord.FindAllStringSubmatch(q, -1) {
		word := m[1]
		if word == "may" && !mayAsMonth.MatchString(q) {
			continue
		}
		for _, e := range months() {
			if !containsString(e.Aliases, word) {
				continue
			}
			out := Month{Name: e.Name, Number: e.Number, alias: e.Aliases}
			if m[2] != "" {
				out.Year, _ = strconv.Atoi(m[2])
			} else if y := yearWord.FindString(q); y != "" {
				out.Year, _ = strconv.Atoi(y)
			}
			return out, true
		}
	}
	return Month{}, false
}

// Column returns the dataset column that holds this month's values, such as
// "Jan", "January", "Jan-2024" or "sales_jan". When a year was given, a column
// carrying that year is preferred.
func (m Month) Column(columns []string) (string, bool) {
	var fallback string
	for _, c := range columns {
		if !m.namedBy(c) {
			continue
		}
		if m.Year == 0 || strings.Contains(c, strconv.Itoa(m.Year)) {
			return c, true
		}
		if fallback == "" {
			fallback = c
		}
	}
	return fallback, fallback != ""
}

func (m Month) namedBy(col string) bool {
	for _, w := range dataset.Words(col) {
		if containsString(m.alias, w) {
			return true
		}
		// "jan2024"
		for _, a := range m.alias {
			if rest, ok := strings.CutPrefix(w, a); ok && rest != "" && isDigits(rest) {
				return true
			}
		}
	}
	return false
}

// Title is the capitalized month name plus the year when known.
func (m Month) Title() string {
	if m.Name == "" {
		return ""
	}
	t := strings.ToUpper(m.Name[:1]) + m.Name[1:]
	if m.Year > 0 {
		t += " " + strconv.Itoa(m.Year)
	}
	return t
}

func containsString(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
