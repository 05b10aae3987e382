package resolver

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed synonyms.yaml
var defaultSynonymsYAML []byte

// Concept is one entry of the synonym table: a canonical business concept and
// the normalized aliases that refer to it.
type Concept struct {
	Name    string   `yaml:"concept"`
	Aliases []string `yaml:"aliases"`
}

var (
	cachedSynonyms []Concept
	synonymsOnce   sync.Once
	synonymsErr    error
)

// DefaultSynonyms loads and caches the embedded synonym table. Aliases are
// normalized on load so the table may be written loosely.
func DefaultSynonyms() ([]Concept, error) {
	synonymsOnce.Do(func() {
		table, err := ParseSynonyms(defaultSynonymsYAML)
		if err != nil {
			synonymsErr = err
			return
		}
		cachedSynonyms = table
	})
	return cachedSynonyms, synonymsErr
}

// ParseSynonyms decodes a YAML list of {concept, aliases} entries.
func ParseSynonyms(data []byte) ([]Concept, error) {
	var raw []Concept
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse synonym table: %w", err)
	}
	out := make([]Concept, 0, len(raw))
	for i, c := range raw {
		if c.Name == "" {
			return nil, fmt.Errorf("synonym entry %d: missing concept name", i+1)
		}
		aliases := make([]string, 0, len(c.Aliases)+1)
		seen := map[string]bool{}
		for _, a := range append([]string{c.Name}, c.Aliases...) {
			n := Normalize(a)
			if n == "" || seen[n] {
				continue
			}
			seen[n] = true
			aliases = append(aliases, n)
		}
		out = append(out, Concept{Name: c.Name, Aliases: aliases})
	}
	return out, nil
}
