package intent

import "github.com/FACorreiaa/loci-search-core/internal/search/llmclient"

// schemaDef is the versioned JSON schema the Intent stage's LLM call must
// satisfy: required fields present; route enum; confidence in
// [0,1]; regionCandidate matches /^[A-Z]{2}$/; assistantLanguage in the
// allowed set; additionalProperties = false.
var schemaDef = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"route":              map[string]any{"type": "string", "enum": []string{"TEXTSEARCH", "NEARBY", "LANDMARK"}},
		"foodAnchor":         map[string]any{"type": "object"},
		"locationAnchor":     map[string]any{"type": "object"},
		"nearMe":             map[string]any{"type": "boolean"},
		"explicitDistance":   map[string]any{"type": "object"},
		"language":           map[string]any{"type": "string"},
		"languageConfidence": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
		"assistantLanguage":  map[string]any{"type": "string", "enum": []string{"he", "en", "ru", "ar", "fr", "es"}},
		"regionCandidate":    map[string]any{"type": []string{"string", "null"}, "pattern": "^[A-Z]{2}$"},
		"regionConfidence":   map[string]any{"type": "number", "minimum": 0, "maximum": 1},
		"regionReason":       map[string]any{"type": "string"},
		"cityText":           map[string]any{"type": []string{"string", "null"}},
		"landmarkText":       map[string]any{"type": []string{"string", "null"}},
		"radiusMeters":       map[string]any{"type": []string{"integer", "null"}, "minimum": 1, "maximum": 50000},
		"openNowRequested":   map[string]any{"type": "boolean"},
		"priceIntent":        map[string]any{"type": "string", "enum": []string{"any", "cheap", "mid", "expensive"}},
		"distanceIntent":     map[string]any{"type": []string{"integer", "null"}},
		"qualityIntent":      map[string]any{"type": "string"},
		"occasion":           map[string]any{"type": "string"},
		"cuisineKey":         map[string]any{"type": "string"},
		"confidence":         map[string]any{"type": "number", "minimum": 0, "maximum": 1},
		"reason":             map[string]any{"type": "string"},
	},
	"required": []string{
		"route", "foodAnchor", "locationAnchor", "nearMe", "explicitDistance",
		"language", "languageConfidence", "assistantLanguage", "regionCandidate",
		"regionConfidence", "regionReason", "cityText", "landmarkText", "radiusMeters",
		"openNowRequested", "priceIntent", "distanceIntent", "qualityIntent", "occasion",
		"cuisineKey", "confidence", "reason",
	},
	"additionalProperties": false,
}

func buildSchema() (llmclient.Schema, error) {
	props, _ := schemaDef["properties"].(map[string]any)
	required, _ := schemaDef["required"].([]string)
	return llmclient.BuildSchema("intent.v1", 1, map[string]any{
		"type":                 schemaDef["type"],
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}, required)
}
