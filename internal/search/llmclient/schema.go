package llmclient

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// BuildSchema hashes a JSON-schema definition so prompt/schema drift is
// caught at load time rather than at first response: a self-check asserts
// every property appears in required and
// additionalProperties is false.
func BuildSchema(name string, version int, def map[string]any, required []string) (Schema, error) {
	props, _ := def["properties"].(map[string]any)
	requiredSet := make(map[string]bool, len(required))
	for _, r := range required {
		requiredSet[r] = true
	}
	for prop := range props {
		if !requiredSet[prop] {
			return Schema{}, fmt.Errorf("schema %s: property %q is not listed in required", name, prop)
		}
	}

	payload, err := json.Marshal(def)
	if err != nil {
		return Schema{}, fmt.Errorf("marshal schema %s: %w", name, err)
	}
	sum := sha256.Sum256(payload)

	return Schema{
		Name:                 name,
		Version:              version,
		Hash:                 hex.EncodeToString(sum[:]),
		JSON:                 def,
		AdditionalProperties: false,
	}, nil
}
