package routeplan

import "github.com/FACorreiaa/loci-search-core/internal/search/llmclient"

func textSearchSchema() (llmclient.Schema, error) {
	biasProps := map[string]any{
		"lat":          map[string]any{"type": "number"},
		"lng":          map[string]any{"type": "number"},
		"radiusMeters": map[string]any{"type": "integer"},
	}
	props := map[string]any{
		"textQuery":  map[string]any{"type": "string"},
		"cityText":   map[string]any{"type": []string{"string", "null"}},
		"cuisineKey": map[string]any{"type": []string{"string", "null"}},
		// bias lets the LLM pin a specific coordinate it extracted from the
		// query text (e.g. "near the old port"); a non-null bias here takes
		// precedence over any geocoded city center, never the reverse.
		"bias": map[string]any{
			"type":                 []string{"object", "null"},
			"properties":           biasProps,
			"required":             []string{"lat", "lng", "radiusMeters"},
			"additionalProperties": false,
		},
	}
	required := []string{"textQuery", "cityText", "cuisineKey", "bias"}
	return llmclient.BuildSchema("routeplan.textsearch.v1", 1, map[string]any{
		"type": "object", "properties": props, "required": required, "additionalProperties": false,
	}, required)
}

func nearbySchema() (llmclient.Schema, error) {
	props := map[string]any{
		"keyword":      map[string]any{"type": "string"},
		"radiusMeters": map[string]any{"type": []string{"integer", "null"}},
	}
	required := []string{"keyword", "radiusMeters"}
	return llmclient.BuildSchema("routeplan.nearby.v1", 1, map[string]any{
		"type": "object", "properties": props, "required": required, "additionalProperties": false,
	}, required)
}

func landmarkSchema() (llmclient.Schema, error) {
	props := map[string]any{
		"geocodeQuery": map[string]any{"type": "string"},
		"keyword":      map[string]any{"type": []string{"string", "null"}},
	}
	required := []string{"geocodeQuery", "keyword"}
	return llmclient.BuildSchema("routeplan.landmark.v1", 1, map[string]any{
		"type": "object", "properties": props, "required": required, "additionalProperties": false,
	}, required)
}
