// Package llmclient defines the narrow LLM port every LLM-driven stage
// (Intent, Route-LLM Mappers, ChatBack) depends on. The concrete HTTP
// transport to a specific model provider is an external collaborator; this
// package only fixes the shape stages call through.
package llmclient

import (
	"context"
	"time"
)

// Request is one structured-output LLM call: a system prompt, the user
// payload, a JSON schema the response must validate against, and sampling
// parameters.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	Schema       Schema
	Temperature  float32
	Timeout      time.Duration
}

// Schema is a versioned, hashed JSON schema description, following the
// "LLM-output schemas": always versioned and hashed so drift between the
// prompt and the schema is caught at load time.
type Schema struct {
	Name                 string
	Version              int
	Hash                 string
	JSON                 map[string]any
	AdditionalProperties bool
}

// Response is the raw structured output of a successful call.
type Response struct {
	RawJSON []byte
}

// Client is the port every LLM-driven stage calls through.
type Client interface {
	// Generate performs one structured-output completion, honoring
	// req.Timeout via ctx. A timeout or transport failure returns a non-nil
	// error the caller classifies into the error taxonomy.
	Generate(ctx context.Context, req Request) (Response, error)
}

// NoopClient is a Client that always fails, used when no LLM is configured
// at all: when no LLM is available at all, the i18n template path
// is used directly" depends on every stage tolerating this.
type NoopClient struct{}

func (NoopClient) Generate(context.Context, Request) (Response, error) {
	return Response{}, ErrNoLLMConfigured
}

var ErrNoLLMConfigured = errNoLLM{}

type errNoLLM struct{}

func (errNoLLM) Error() string { return "no LLM client configured" }
