package registry

import (
	_ "embed"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed cities.yaml
var citiesYAML []byte

type cityEntry struct {
	Canonical string              `yaml:"canonical"`
	Aliases   map[string][]string `yaml:"aliases"`
}

// CityAliasTable canonicalizes city names across Hebrew, English, and
// Arabic.
type CityAliasTable struct {
	byAlias map[string]string
}

// LoadCityAliasTable parses the embedded YAML once at startup.
func LoadCityAliasTable() (*CityAliasTable, error) {
	var entries []cityEntry
	if err := yaml.Unmarshal(citiesYAML, &entries); err != nil {
		return nil, err
	}

	t := &CityAliasTable{byAlias: make(map[string]string)}
	for _, e := range entries {
		t.byAlias[normalize(e.Canonical)] = e.Canonical
		for _, aliases := range e.Aliases {
			for _, alias := range aliases {
				t.byAlias[normalize(alias)] = e.Canonical
			}
		}
	}
	return t, nil
}

// Canonicalize resolves free text to a canonical city id. The second
// return value distinguishes "recognized as a different known city" from
// "unknown" — callers must give the latter the benefit of the doubt.
func (t *CityAliasTable) Canonicalize(text string) (string, bool) {
	c, ok := t.byAlias[normalize(text)]
	return c, ok
}

// SameCity reports whether a and b canonicalize to the same city. Unknown
// input on either side is treated as "not provably different".
func (t *CityAliasTable) SameCity(a, b string) bool {
	ca, okA := t.Canonicalize(a)
	cb, okB := t.Canonicalize(b)
	if !okA || !okB {
		return true
	}
	return strings.EqualFold(ca, cb)
}
