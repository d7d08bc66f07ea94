package emit

import (
	"context"
	"sync"
	"testing"
)

func TestBufferedEmitter_History(t *testing.T) {
	emitter := NewBufferedEmitter()

	emitter.Emit(Event{Workflow: "w-001", Path: "root", Msg: "run_start"})
	emitter.Emit(Event{Workflow: "w-001", Path: "root", Msg: "run_end"})
	emitter.Emit(Event{Workflow: "w-002", Path: "root", Msg: "run_start"})

	if got := emitter.History("w-001"); len(got) != 2 {
		t.Errorf("expected two events for w-001, got %d", len(got))
	}
	if got := emitter.History("w-002"); len(got) != 1 {
		t.Errorf("expected one event for w-002, got %d", len(got))
	}
	if got := emitter.History("unknown"); len(got) != 0 {
		t.Errorf("expected no events for unknown workflow, got %d", len(got))
	}
}

func TestBufferedEmitter_Filtering(t *testing.T) {
	emitter := NewBufferedEmitter()
	emitter.Emit(Event{Workflow: "w-001", Path: "root", Msg: "run_start"})
	emitter.Emit(Event{Workflow: "w-001", Path: "root.child", Msg: "run_start"})
	emitter.Emit(Event{Workflow: "w-001", Path: "root.child", Msg: "run_end"})

	byPath := emitter.HistoryWithFilter("w-001", HistoryFilter{Path: "root.child"})
	if len(byPath) != 2 {
		t.Errorf("expected two events at root.child, got %d", len(byPath))
	}

	byBoth := emitter.HistoryWithFilter("w-001", HistoryFilter{Path: "root.child", Msg: "run_end"})
	if len(byBoth) != 1 {
		t.Errorf("expected one matching event, got %d", len(byBoth))
	}
}

func TestBufferedEmitter_Clear(t *testing.T) {
	emitter := NewBufferedEmitter()
	emitter.Emit(Event{Workflow: "w-001", Msg: "run_start"})
	emitter.Clear("w-001")

	if got := emitter.History("w-001"); len(got) != 0 {
		t.Errorf("expected history cleared, got %d events", len(got))
	}
}

func TestBufferedEmitter_Concurrent(t *testing.T) {
	emitter := NewBufferedEmitter()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				emitter.Emit(Event{Workflow: "w-001", Msg: "run_start"})
			}
		}()
	}
	wg.Wait()

	if got := emitter.History("w-001"); len(got) != 1000 {
		t.Errorf("expected every event recorded, got %d", len(got))
	}

	if err := emitter.EmitBatch(context.Background(), []Event{{Workflow: "w-001", Msg: "run_end"}}); err != nil {
		t.Fatalf("emit batch: %v", err)
	}
	if got := emitter.HistoryWithFilter("w-001", HistoryFilter{Msg: "run_end"}); len(got) != 1 {
		t.Errorf("expected the batched event recorded, got %d", len(got))
	}
}
