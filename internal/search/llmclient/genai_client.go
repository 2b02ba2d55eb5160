package llmclient

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"
)

// GenaiClient adapts a google.golang.org/genai model client to the Client
// port, tracing every call the way the chat domain's LLM interaction
// service does.
type GenaiClient struct {
	client *genai.Client
	model  string
}

// NewGenaiClient wraps an already-configured genai.Client.
func NewGenaiClient(client *genai.Client, model string) *GenaiClient {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &GenaiClient{client: client, model: model}
}

func (g *GenaiClient) Generate(ctx context.Context, req Request) (Response, error) {
	ctx, span := otel.Tracer("llmclient").Start(ctx, "GenaiClient.Generate", trace.WithAttributes(
		attribute.String("schema.name", req.Schema.Name),
		attribute.Int("schema.version", req.Schema.Version),
	))
	defer span.End()

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](req.Temperature),
	}

	prompt := req.SystemPrompt + "\n\n" + req.UserPrompt
	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Response{}, fmt.Errorf("genai generate content: %w", err)
	}

	text := result.Text()
	if text == "" {
		err := fmt.Errorf("genai response had no text content")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Response{}, err
	}

	if !json.Valid([]byte(text)) {
		err := fmt.Errorf("genai response was not valid JSON")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Response{}, err
	}

	return Response{RawJSON: []byte(text)}, nil
}
