package emit

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelEmitter implements Emitter by creating OpenTelemetry spans.
//
// Each event becomes a span with:
//   - Span name: event.Msg (e.g. "run_start", "run_end")
//   - Attributes: the workflow identifier, the computation path and every
//     event.Meta field (prefixed "meta.")
//   - Status: set to error when event.Meta["error"] exists
//
// Supports distributed tracing by:
//   - Recording each engine event (run_start, run_end, ...) as its own span
//   - Capturing failure conversions with error status and span events
//   - Exporting through whatever processor the tracer provider carries
//
// Usage:
//
//	// Create tracer from an OpenTelemetry provider.
//	tracer := otel.Tracer("workflows-engine")
//	emitter := emit.NewOTelEmitter(tracer)
//
//	// Emit events that become spans.
//	emitter.Emit(emit.Event{
//	    Workflow: "w-001",
//	    Path:     "root.fetch",
//	    Msg:      "run_end",
//	})
//
// Integration with OpenTelemetry:
//
//	// Setup an OpenTelemetry provider (application code).
//	import (
//	    "go.opentelemetry.io/otel"
//	    sdktrace "go.opentelemetry.io/otel/sdk/trace"
//	)
//
//	// Create a trace provider with an exporter (OTLP, Jaeger, ...).
//	tp := sdktrace.NewTracerProvider(
//	    sdktrace.WithBatcher(exporter),
//	)
//	otel.SetTracerProvider(tp)
//
//	// Create the emitter and attach it to an engine.
//	tracer := otel.Tracer("workflows-engine")
//	engine := compute.NewEngine(
//	    compute.WithEmitter(emit.NewOTelEmitter(tracer)),
//	)
type OTelEmitter struct {
	tracer trace.Tracer
}

// NewOTelEmitter creates a new OTelEmitter.
//
// Parameters:
//   - tracer: OpenTelemetry tracer from otel.Tracer("service-name").
//
// Returns an OTelEmitter that creates a span for each event.
//
// Example:
//
//	tracer := otel.Tracer("workflows-engine")
//	emitter := emit.NewOTelEmitter(tracer)
func NewOTelEmitter(tracer trace.Tracer) *OTelEmitter {
	return &OTelEmitter{tracer: tracer}
}

// Emit creates and immediately ends a span describing the event.
//
// The span carries the workflow identifier and computation path as
// attributes; Meta fields are attached with a "meta." prefix. An event with
// Meta["error"] marks the span status as error and records the error as a
// span event.
func (o *OTelEmitter) Emit(event Event) {
	o.emit(context.Background(), event)
}

func (o *OTelEmitter) emit(ctx context.Context, event Event) {
	_, span := o.tracer.Start(ctx, event.Msg)
	defer span.End()

	attrs := []attribute.KeyValue{
		attribute.String("workflow.identifier", event.Workflow),
		attribute.String("computation.path", event.Path),
	}
	for key, value := range event.Meta {
		attrs = append(attrs, attribute.String("meta."+key, fmt.Sprint(value)))
	}
	span.SetAttributes(attrs...)

	if errVal, ok := event.Meta["error"]; ok {
		span.SetStatus(codes.Error, fmt.Sprint(errVal))
		span.RecordError(fmt.Errorf("%v", errVal))
	}
}

// EmitBatch creates a span per event, in order.
//
// The batch shares a single context so implementations exporting spans can
// honour its cancellation, but each event still becomes its own span.
func (o *OTelEmitter) EmitBatch(ctx context.Context, events []Event) error {
	for _, event := range events {
		o.emit(ctx, event)
	}
	return nil
}

// Flush is a no-op: spans are ended as they are emitted, and exporting is
// the tracer provider's concern (call the provider's ForceFlush/Shutdown on
// application shutdown).
func (o *OTelEmitter) Flush(context.Context) error {
	return nil
}
