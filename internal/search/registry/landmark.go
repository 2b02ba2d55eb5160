// Package registry holds the two immutable, read-only-after-load tables
// global, effectively read-only state: the landmark registry and the city-alias
// table, both seeded from embedded YAML.
package registry

import (
	_ "embed"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/FACorreiaa/loci-search-core/internal/search/models"
)

//go:embed landmarks.yaml
var landmarksYAML []byte

// LandmarkEntry is one canonical landmark with multilingual aliases and an
// optional known coordinate.
type LandmarkEntry struct {
	ID          string            `yaml:"id"`
	PrimaryName string            `yaml:"primaryName"`
	Aliases     map[string][]string `yaml:"aliases"`
	KnownLatLng *models.LatLng    `yaml:"knownLatLng,omitempty"`
}

// LandmarkRegistry is the immutable, alias-indexed landmark lookup table.
type LandmarkRegistry struct {
	entries   []LandmarkEntry
	byAlias   map[string]*LandmarkEntry
}

// LoadLandmarkRegistry parses the embedded YAML once at startup.
func LoadLandmarkRegistry() (*LandmarkRegistry, error) {
	var entries []LandmarkEntry
	if err := yaml.Unmarshal(landmarksYAML, &entries); err != nil {
		return nil, err
	}

	reg := &LandmarkRegistry{entries: entries, byAlias: make(map[string]*LandmarkEntry)}
	for i := range entries {
		e := &entries[i]
		reg.byAlias[normalize(e.PrimaryName)] = e
		for _, aliases := range e.Aliases {
			for _, alias := range aliases {
				reg.byAlias[normalize(alias)] = e
			}
		}
	}
	return reg, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Lookup matches free text against the alias table. A hit can entirely
// skip the LLM geocode call when KnownLatLng is populated.
func (r *LandmarkRegistry) Lookup(text string) (*LandmarkEntry, bool) {
	e, ok := r.byAlias[normalize(text)]
	return e, ok
}
