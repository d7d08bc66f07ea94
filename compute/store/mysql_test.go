package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/delfick/workflows-engine/compute"
)

// newTestMySQLStorage connects to the server named by WORKFLOWS_MYSQL_DSN,
// skipping the test when the variable is unset. Example:
//
//	WORKFLOWS_MYSQL_DSN="root:root@tcp(localhost:3306)/workflows_test?parseTime=true" go test ./...
func newTestMySQLStorage(t *testing.T) *MySQLStorage {
	t.Helper()
	dsn := os.Getenv("WORKFLOWS_MYSQL_DSN")
	if dsn == "" {
		t.Skip("WORKFLOWS_MYSQL_DSN not set; skipping MySQL integration test")
	}
	storage, err := NewMySQLStorage(dsn)
	if err != nil {
		t.Fatalf("open mysql: %v", err)
	}
	t.Cleanup(func() { _ = storage.Close() })
	return storage
}

func TestMySQLStorage_Integration(t *testing.T) {
	ctx := context.Background()
	storage := newTestMySQLStorage(t)

	identifier, err := storage.StoreNewWorkflow(ctx, staticSaver{information: testInformation()})
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	t.Run("information round trips", func(t *testing.T) {
		information, err := storage.RetrieveWorkflowInformation(ctx, identifier)
		if err != nil {
			t.Fatalf("retrieve: %v", err)
		}
		if information.WorkflowCode != "test" || information.WorkflowVersion != 1 {
			t.Errorf("unexpected information: %+v", information)
		}
	})

	t.Run("stored infos round trip", func(t *testing.T) {
		state := compute.FreshState(storeTestNow).Clone(
			compute.WithExecutionState(compute.ExecutionProgressing),
			compute.WithDueAt(compute.ScheduleIn(time.Hour)),
		)
		if err := storage.UpsertComputations(ctx, identifier, map[compute.PathKey]compute.StoredInfo{
			"root": compute.NewStoredInfo(state),
		}); err != nil {
			t.Fatalf("upsert: %v", err)
		}

		stored, err := storage.RetrieveComputations(ctx, identifier)
		if err != nil {
			t.Fatalf("retrieve: %v", err)
		}
		back := stored["root"].State()
		if back.ExecutionState() != compute.ExecutionProgressing {
			t.Errorf("state did not round trip: %v", back.ExecutionState())
		}
		if !back.DueAt().Equal(compute.ScheduleIn(time.Hour)) {
			t.Errorf("due hint did not round trip: %v", back.DueAt())
		}
	})

	t.Run("unknown identifiers fail with WorkflowNotFoundError", func(t *testing.T) {
		var notFound *compute.WorkflowNotFoundError
		if _, err := storage.RetrieveComputations(ctx, "missing"); !errors.As(err, &notFound) {
			t.Errorf("expected WorkflowNotFoundError, got %v", err)
		}
	})
}
