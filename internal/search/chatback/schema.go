package chatback

import "github.com/FACorreiaa/loci-search-core/internal/search/llmclient"

func buildSchema() (llmclient.Schema, error) {
	return llmclient.BuildSchema("chatback_message", 1, map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{"type": "string"},
			"mode":    map[string]any{"type": "string", "enum": []string{"NORMAL", "RECOVERY"}},
		},
	}, []string{"message", "mode"})
}
