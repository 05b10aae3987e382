// Package resolver maps free-text phrases to dataset column names.
package resolver

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/KaramelBytes/tabula-cli/internal/dataset"
)

// Resolved is the outcome of resolving a phrase. When Found is false, Phrase
// still holds what the user asked for so the caller can explain the miss.
type Resolved struct {
	Column string
	Phrase string
	Found  bool
	// Step names the resolution step that matched; empty when not found.
	Step string
}

// Resolver resolves a phrase against an ordered list of column names.
type Resolver interface {
	Resolve(columns []string, phrase string) Resolved
}

// Resolution steps, in the order they are tried.
const (
	StepExact     = "exact"
	StepSubstring = "substring"
	StepSynonym   = "synonym"
	StepPlural    = "plural"
	StepWord      = "word"
)

// Fuzzy is the default Resolver: exact, substring, synonym, plural and
// word-overlap matching over normalized names. It holds no mutable state.
type Fuzzy struct {
	Synonyms []Concept
}

// NewFuzzy returns a Fuzzy resolver backed by the embedded synonym table.
func NewFuzzy() *Fuzzy {
	table, err := DefaultSynonyms()
	if err != nil {
		// The table is compiled into the binary; a parse error is a build defect.
		panic(err)
	}
	return &Fuzzy{Synonyms: table}
}

var xmlEscape = regexp.MustCompile(`_x([0-9A-Fa-f]{4})_`)

// Normalize lower-cases s and strips every non-alphanumeric character.
// Spreadsheet escapes such as "_x0020_" are decoded first, so
// "Modal_x0020_Price" and "Modal Price" normalize alike.
func Normalize(s string) string {
	s = xmlEscape.ReplaceAllStringFunc(s, func(m string) string {
		n, err := strconv.ParseUint(m[2:6], 16, 32)
		if err != nil {
			return m
		}
		return string(rune(n))
	})
	return dataset.Normalize(s)
}

func words(s string) []string {
	return dataset.Words(xmlEscape.ReplaceAllString(s, " "))
}

// Resolve tries each step in order and returns the first match.
func (f *Fuzzy) Resolve(columns []string, phrase string) Resolved {
	out := Resolved{Phrase: phrase}
	p := Normalize(phrase)
	if p == "" || len(columns) == 0 {
		return out
	}
	norm := make([]string, len(columns))
	for i, c := range columns {
		norm[i] = Normalize(c)
	}
	found := func(i int, step string) Resolved {
		out.Column, out.Found, out.Step = columns[i], true, step
		return out
	}

	for i, n := range norm {
		if n == p {
			return found(i, StepExact)
		}
	}

	best := -1
	for i, n := range norm {
		if n == "" || !(strings.Contains(n, p) || strings.Contains(p, n)) {
			continue
		}
		if best < 0 || len(n) > len(norm[best]) {
			best = i
		}
	}
	if best >= 0 {
		return found(best, StepSubstring)
	}

	if i := f.synonymMatch(norm, p); i >= 0 {
		return found(i, StepSynonym)
	}

	for i, n := range norm {
		if n+"s" == p || p+"s" == n || strings.TrimSuffix(n, "s") == strings.TrimSuffix(p, "s") {
			return found(i, StepPlural)
		}
	}

	want := map[string]bool{}
	for _, w := range words(phrase) {
		if len(w) >= 3 {
			want[w] = true
		}
	}
	for i, c := range columns {
		for _, w := range words(c) {
			if want[w] {
				return found(i, StepWord)
			}
		}
	}
	return out
}

// synonymMatch finds the concept the phrase names, preferring an exact alias
// over a contained one, then returns the first column carrying an alias of
// that concept. Concepts with no matching column are skipped.
func (f *Fuzzy) synonymMatch(norm []string, p string) int {
	for _, exact := range []bool{true, false} {
		for _, c := range f.Synonyms {
			if !conceptNames(c, p, exact) {
				continue
			}
			for i, n := range norm {
				if columnCarries(c, n) {
					return i
				}
			}
		}
	}
	return -1
}

func conceptNames(c Concept, p string, exact bool) bool {
	for _, a := range c.Aliases {
		if a == p {
			return true
		}
		if !exact && len(a) >= 3 && (strings.Contains(p, a) || strings.Contains(a, p) && len(p) >= 3) {
			return true
		}
	}
	return false
}

func columnCarries(c Concept, n string) bool {
	for _, a := range c.Aliases {
		if n == a || len(a) >= 3 && strings.Contains(n, a) {
			return true
		}
	}
	return false
}

// NotFoundMessage explains a failed resolution and lists every column.
func NotFoundMessage(r Resolved, columns []string) string {
	return fmt.Sprintf("Could not find a column matching %q. Try one of: %s.", r.Phrase, strings.Join(columns, ", "))
}
