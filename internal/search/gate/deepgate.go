package gate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-search-core/internal/pkg/logger"
	"github.com/FACorreiaa/loci-search-core/internal/search/llmclient"
	"github.com/FACorreiaa/loci-search-core/internal/search/models"
)

// Timeout bounds the deeper gate's single LLM call.
const Timeout = 3 * time.Second

// DeepGate runs the LLM-assisted gate variant, invoked only when
// the deterministic fast gate cannot decide on its own.
type DeepGate struct {
	llm    llmclient.Client
	schema llmclient.Schema
}

// NewDeepGate constructs a DeepGate, failing fast on schema self-check error.
func NewDeepGate(llm llmclient.Client) (*DeepGate, error) {
	schema, err := deepGateSchema()
	if err != nil {
		return nil, fmt.Errorf("deep gate: %w", err)
	}
	return &DeepGate{llm: llm, schema: schema}, nil
}

func deepGateSchema() (llmclient.Schema, error) {
	stopProps := map[string]any{
		"type":            map[string]any{"type": "string", "enum": []string{"CLARIFY", "GATE_FAIL"}},
		"reason":          map[string]any{"type": "string"},
		"suggestedAction": map[string]any{"type": "string"},
		"message":         map[string]any{"type": "string"},
		"question":        map[string]any{"type": "string"},
	}
	props := map[string]any{
		"foodSignal": map[string]any{"type": "string", "enum": []string{"YES", "UNCERTAIN", "NO"}},
		"confidence": map[string]any{"type": "number"},
		"stop": map[string]any{
			"type":       []string{"object", "null"},
			"properties": stopProps,
			"required":   []string{"type", "reason", "suggestedAction", "message", "question"},
		},
	}
	required := []string{"foodSignal", "confidence", "stop"}
	return llmclient.BuildSchema("gate.deep.v1", 1, map[string]any{
		"type": "object", "properties": props, "required": required, "additionalProperties": false,
	}, required)
}

type wireStop struct {
	Type            string `json:"type"`
	Reason          string `json:"reason"`
	SuggestedAction string `json:"suggestedAction"`
	Message         string `json:"message"`
	Question        string `json:"question"`
}

type wireDeepResult struct {
	FoodSignal string    `json:"foodSignal"`
	Confidence float64   `json:"confidence"`
	Stop       *wireStop `json:"stop"`
}

// Evaluate runs the deeper, LLM-assisted gate over rawText. A transport or
// parse failure degrades to UNCERTAIN rather than raising, so the caller's
// routing engine always has a decision to make (an ambiguous fast
// gate always resolves to CONTINUE/ASK_CLARIFY/STOP, never a hang).
func (g *DeepGate) Evaluate(ctx context.Context, rawText string) DeepResult {
	callCtx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	resp, err := g.llm.Generate(callCtx, llmclient.Request{
		SystemPrompt: "Decide whether this query is a food-discovery request. " +
			"If not, or if ambiguous, propose a clarification or a hard stop.",
		UserPrompt:  rawText,
		Schema:      g.schema,
		Temperature: 0,
		Timeout:     Timeout,
	})
	if err != nil {
		logger.Log.Warn("deep gate LLM call failed, treating as uncertain", zap.Error(err))
		return DeepResult{FoodSignal: FoodSignalUncertain, Confidence: 0}
	}

	var wire wireDeepResult
	if err := json.Unmarshal(resp.RawJSON, &wire); err != nil {
		logger.Log.Warn("deep gate response unparsable, treating as uncertain", zap.Error(err))
		return DeepResult{FoodSignal: FoodSignalUncertain, Confidence: 0}
	}

	out := DeepResult{FoodSignal: FoodSignal(wire.FoodSignal), Confidence: wire.Confidence}
	if wire.Stop != nil {
		out.Stop = &Stop{
			Type:            StopType(wire.Stop.Type),
			Reason:          wire.Stop.Reason,
			SuggestedAction: wire.Stop.SuggestedAction,
			Message:         wire.Stop.Message,
			Question:        wire.Stop.Question,
		}
	}
	return out
}

// IsAmbiguous reports whether a fast-gate Result is uncertain enough to
// warrant invoking the deeper gate: unknown script, or a very short query
// that barely cleared (or barely missed) the food-keyword check.
func IsAmbiguous(r Result, rawText string) bool {
	return r.Language == models.LangUnknown || len([]rune(rawText)) <= 8
}
