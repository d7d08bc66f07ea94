package store

import (
	"context"
	"sync"

	"github.com/delfick/workflows-engine/compute"
)

// lockTable hands out one exclusive lock per workflow identifier. Entries
// are created lazily and pruned once the last interested holder or waiter
// lets go, so the table does not grow with the number of workflows ever
// seen.
//
// Locking is in-process only: coordinating multiple hosts is out of scope
// for every storage in this package.
type lockTable struct {
	mu      sync.Mutex
	entries map[compute.WorkflowIdentifier]*lockEntry
}

type lockEntry struct {
	// ch is a 1-slot semaphore: sending acquires, receiving releases.
	ch   chan struct{}
	refs int
}

func newLockTable() *lockTable {
	return &lockTable{entries: make(map[compute.WorkflowIdentifier]*lockEntry)}
}

// acquire blocks until the identifier's lock is held or ctx is done. The
// returned release function is idempotent.
func (t *lockTable) acquire(ctx context.Context, identifier compute.WorkflowIdentifier) (func(), error) {
	t.mu.Lock()
	entry, ok := t.entries[identifier]
	if !ok {
		entry = &lockEntry{ch: make(chan struct{}, 1)}
		t.entries[identifier] = entry
	}
	entry.refs++
	t.mu.Unlock()

	select {
	case entry.ch <- struct{}{}:
	case <-ctx.Done():
		t.drop(identifier, entry)
		return nil, ctx.Err()
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			<-entry.ch
			t.drop(identifier, entry)
		})
	}
	return release, nil
}

func (t *lockTable) drop(identifier compute.WorkflowIdentifier, entry *lockEntry) {
	t.mu.Lock()
	entry.refs--
	if entry.refs == 0 {
		delete(t.entries, identifier)
	}
	t.mu.Unlock()
}
