// Package emit provides event emission and observability for computation
// execution.
package emit

import "context"

// Event is an observability event emitted while the engine drives a
// workflow.
//
// Events provide detailed insight into execution behaviour:
//   - Invocation start/end per computation
//   - Unhandled failure conversion
//   - External input resolution
//
// Events are emitted to an Emitter which can:
//   - Log to stdout/stderr or files
//   - Send to OpenTelemetry
//   - Buffer in memory for tests and dashboards
type Event struct {
	// Workflow identifies the workflow the event belongs to.
	Workflow string

	// Path is the dotted path of the computation, empty for workflow-level
	// events.
	Path string

	// Msg is the event name, e.g. "run_start", "run_end",
	// "unhandled_failure", "external_input".
	Msg string

	// Meta carries additional structured data specific to this event.
	// Common keys:
	//   - "audit_message": the audit message on the produced result
	//   - "execution_state" / "result_state": the resulting states
	//   - "error": failure details
	//   - "external_input_name": the requested external input
	Meta map[string]interface{}
}

// Emitter receives and processes observability events from workflow
// execution.
//
// Emitters enable pluggable observability backends:
//   - Logging: stdout, files, syslog.
//   - Distributed tracing: OpenTelemetry, Jaeger, Zipkin.
//   - In-memory capture: tests, dashboards, post-run analysis.
//
// Implementations should be:
//   - Non-blocking: avoid slowing down workflow execution.
//   - Thread-safe: may be called concurrently while different workflows are
//     being driven.
//   - Resilient: handle failures gracefully (never crash a run).
//
// Common patterns:
//   - Buffering: collect events and flush in batches.
//   - Filtering: only keep events matching criteria (e.g. failures only).
//   - Multi-emit: fan out to multiple backends.
type Emitter interface {
	// Emit sends a single event to the configured backend.
	//
	// Implementations must not block workflow execution. If the backend is
	// unavailable or slow, events should be buffered, dropped with internal
	// logging, or sent asynchronously.
	//
	// Emit must not panic. Errors are handled internally.
	Emit(event Event)

	// EmitBatch sends multiple events in a single operation for improved
	// performance.
	//
	// Batching reduces overhead when emitting high volumes of events by
	// amortizing syscalls or network round-trips across multiple events.
	// Implementations should process events in order and handle partial
	// failures gracefully.
	//
	// Returns an error only on catastrophic failure (e.g. configuration
	// errors); individual event failures are logged and skipped.
	EmitBatch(ctx context.Context, events []Event) error

	// Flush ensures all buffered events are delivered to the backend.
	//
	// Call this method:
	//   - Before application shutdown to prevent event loss.
	//   - After critical operations requiring immediate visibility.
	//   - During testing to verify event emission.
	//
	// Implementations should respect context cancellation and deadlines,
	// and be safe to call multiple times (idempotent).
	Flush(ctx context.Context) error
}
