package emit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// LogEmitter implements Emitter by writing structured lines to a writer.
//
// Supports two output modes:
//   - Text mode (default): human-readable format with key=value pairs.
//   - JSON mode: machine-readable JSON format, one event per line (JSONL).
//
// Example text output:
//
//	[run_start] workflow=w-001 path=root.fetch
//	[run_end] workflow=w-001 path=root.fetch meta={"result_state":"SUCCESS"}
//
// Example JSON output:
//
//	{"workflow":"w-001","path":"root.fetch","msg":"run_start","meta":null}
//	{"workflow":"w-001","path":"root.fetch","msg":"run_end","meta":{"result_state":"SUCCESS"}}
//
// Usage:
//
//	// Text output to stdout.
//	emitter := emit.NewLogEmitter(os.Stdout, false)
//
//	// JSON output to file.
//	f, _ := os.Create("events.jsonl")
//	defer func() { _ = f.Close() }()
//	emitter := emit.NewLogEmitter(f, true)
type LogEmitter struct {
	writer   io.Writer
	jsonMode bool
}

// NewLogEmitter creates a new LogEmitter.
//
// Parameters:
//   - writer: where to write the log output (e.g. os.Stdout, a file).
//     A nil writer defaults to stdout.
//   - jsonMode: if true, emit JSON format; if false, emit text format.
//
// Returns a LogEmitter that writes structured event data to the provided
// writer.
func NewLogEmitter(writer io.Writer, jsonMode bool) *LogEmitter {
	if writer == nil {
		writer = os.Stdout
	}
	return &LogEmitter{writer: writer, jsonMode: jsonMode}
}

// Emit writes an event to the configured writer.
//
// Format depends on jsonMode:
//   - JSON mode: writes the event as a single-line JSON object.
//   - Text mode: writes a human-readable line with a [msg] prefix.
//
// Example text output:
//
//	[run_start] workflow=w-001 path=root
//	[unhandled_failure] workflow=w-001 path=root meta={"error":"boom"}
func (l *LogEmitter) Emit(event Event) {
	if l.jsonMode {
		l.emitJSON(event)
	} else {
		l.emitText(event)
	}
}

func (l *LogEmitter) emitJSON(event Event) {
	data, err := json.Marshal(struct {
		Workflow string                 `json:"workflow"`
		Path     string                 `json:"path"`
		Msg      string                 `json:"msg"`
		Meta     map[string]interface{} `json:"meta"`
	}{
		Workflow: event.Workflow,
		Path:     event.Path,
		Msg:      event.Msg,
		Meta:     event.Meta,
	})
	if err != nil {
		// Fallback to an error line if marshal fails.
		_, _ = fmt.Fprintf(l.writer, "{\"error\":\"failed to marshal event: %v\"}\n", err)
		return
	}

	// Write JSON followed by newline (JSONL format).
	_, _ = fmt.Fprintf(l.writer, "%s\n", data)
}

func (l *LogEmitter) emitText(event Event) {
	// Format: [msg] workflow=xxx path=yyy [meta=...].
	_, _ = fmt.Fprintf(l.writer, "[%s] workflow=%s path=%s", event.Msg, event.Workflow, event.Path)
	if len(event.Meta) > 0 {
		// Try to marshal meta as JSON for readability.
		if metaJSON, err := json.Marshal(event.Meta); err == nil {
			_, _ = fmt.Fprintf(l.writer, " meta=%s", metaJSON)
		} else {
			_, _ = fmt.Fprintf(l.writer, " meta=%v", event.Meta)
		}
	}
	_, _ = fmt.Fprint(l.writer, "\n")
}

// EmitBatch writes all events in order.
//
// For LogEmitter, batching keeps related events together and maintains
// chronological order within the batch. In JSON mode events are written as
// JSONL (one per line) for easy parsing.
//
// Parameters:
//   - ctx: context for cancellation (currently unused).
//   - events: slice of events to emit in order.
//
// Always attempts to write every event; returns nil.
func (l *LogEmitter) EmitBatch(_ context.Context, events []Event) error {
	for _, event := range events {
		l.Emit(event)
	}
	return nil
}

// Flush is a no-op for LogEmitter because:
//   - All writes go directly to the underlying io.Writer.
//   - No internal buffering is maintained.
//   - The writer itself handles its own buffering (e.g. os.Stdout).
//
// If you need flush control, wrap the writer with a bufio.Writer and flush
// that directly:
//
//	buf := bufio.NewWriter(os.Stdout)
//	emitter := emit.NewLogEmitter(buf, false)
//	// ... emit events ...
//	buf.Flush()
//
// This method exists to satisfy the Emitter interface and enable
// polymorphic usage with emitters that do require flushing.
func (l *LogEmitter) Flush(_ context.Context) error {
	return nil
}
