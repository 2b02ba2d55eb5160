// Package tracer sets up the process-wide OpenTelemetry TracerProvider so
// request spans carry a real traceId end to end. No OTLP exporter is wired:
// the collector/backend is an external collaborator outside this repo's
// scope; what matters here is that every request gets a genuine trace id
// to echo back in error bodies and logs.
package tracer

import (
	"context"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Init installs a local TracerProvider with the SDK's default resource and
// sets it as the OpenTelemetry global (serviceName is not recorded on the
// provider), so every otel.Tracer(...).Start call downstream
// (llmclient.GenaiClient, in particular) produces a real span/trace id
// instead of the no-op default. Returns a shutdown func to flush on exit.
func Init(serviceName string) func(context.Context) error {
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	return tp.Shutdown
}
