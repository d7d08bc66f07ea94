package emit

import (
	"context"
	"sync"
)

// BufferedEmitter implements Emitter by storing events in memory, organised
// by workflow, with query capabilities for execution history analysis.
//
// Features:
//   - Thread-safe concurrent access
//   - Query by workflow with optional filtering
//   - Filter by computation path and event name
//   - Clear history per workflow
//
// Use cases:
//   - Development and debugging
//   - Testing and validation
//   - Post-run analysis and dashboards
//
// Warning: all events are kept in memory until cleared. Long-running
// processes with high event volume should clear finished workflows or use a
// different backend.
//
// Example usage:
//
//	emitter := emit.NewBufferedEmitter()
//	engine := compute.NewEngine(compute.WithEmitter(emitter))
//
//	// ... drive workflows ...
//
//	allEvents := emitter.History("w-001")
//	failures := emitter.HistoryWithFilter("w-001", emit.HistoryFilter{Msg: "unhandled_failure"})
//
//	// Clean up finished workflows.
//	emitter.Clear("w-001")
type BufferedEmitter struct {
	mu     sync.RWMutex
	events map[string][]Event
}

// HistoryFilter specifies criteria for filtering a workflow's history.
//
// All filter fields are optional. When multiple fields are set, they are
// combined with AND logic (every condition must match).
//
// Example usage:
//
//	// Get every failure conversion for one computation.
//	filter := emit.HistoryFilter{
//		Path: "root.fetch",
//		Msg:  "unhandled_failure",
//	}
//	failures := emitter.HistoryWithFilter("w-001", filter)
type HistoryFilter struct {
	// Path filters to events for one computation path.
	Path string

	// Msg filters to one event name.
	Msg string
}

// NewBufferedEmitter creates an empty in-memory emitter.
//
// Example:
//
//	emitter := emit.NewBufferedEmitter()
//	engine := compute.NewEngine(compute.WithEmitter(emitter))
func NewBufferedEmitter() *BufferedEmitter {
	return &BufferedEmitter{events: make(map[string][]Event)}
}

// Emit stores the event under its workflow.
//
// Thread-safe for concurrent writes.
func (b *BufferedEmitter) Emit(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events[event.Workflow] = append(b.events[event.Workflow], event)
}

// EmitBatch stores all events in order under a single lock acquisition.
func (b *BufferedEmitter) EmitBatch(_ context.Context, events []Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, event := range events {
		b.events[event.Workflow] = append(b.events[event.Workflow], event)
	}
	return nil
}

// Flush does nothing; events are already stored in memory.
func (b *BufferedEmitter) Flush(context.Context) error { return nil }

// History returns a copy of all events recorded for a workflow, in
// emission order. Returns an empty slice for unknown workflows.
func (b *BufferedEmitter) History(workflow string) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	events := b.events[workflow]
	out := make([]Event, len(events))
	copy(out, events)
	return out
}

// HistoryWithFilter returns the recorded events matching the filter, in
// emission order.
//
// Example:
//
//	ends := emitter.HistoryWithFilter("w-001", emit.HistoryFilter{Msg: "run_end"})
func (b *BufferedEmitter) HistoryWithFilter(workflow string, filter HistoryFilter) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []Event
	for _, event := range b.events[workflow] {
		if filter.Path != "" && event.Path != filter.Path {
			continue
		}
		if filter.Msg != "" && event.Msg != filter.Msg {
			continue
		}
		out = append(out, event)
	}
	return out
}

// Clear drops the history of one workflow. Unknown workflows are a no-op.
func (b *BufferedEmitter) Clear(workflow string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.events, workflow)
}
