package emit

import "context"

// NullEmitter implements Emitter by discarding all events.
//
// This is a no-op emitter for deployments where event output is not
// desired. It implements the Emitter interface but does nothing with
// emitted events.
//
// Use cases:
//   - Production deployments where observability overhead is unwanted
//   - Testing scenarios where event capture is not needed
//   - Disabling event emission without changing code
//
// Example usage:
//
//	emitter := emit.NewNullEmitter()
//	engine := compute.NewEngine(compute.WithEmitter(emitter))
type NullEmitter struct{}

// NewNullEmitter creates a new NullEmitter.
//
// Returns an emitter that discards all events without any processing. It is
// safe for concurrent use and has zero overhead.
func NewNullEmitter() *NullEmitter {
	return &NullEmitter{}
}

// Emit discards the event without any processing.
func (n *NullEmitter) Emit(Event) {}

// EmitBatch discards the events without any processing.
func (n *NullEmitter) EmitBatch(context.Context, []Event) error { return nil }

// Flush does nothing; there is never anything buffered.
func (n *NullEmitter) Flush(context.Context) error { return nil }
