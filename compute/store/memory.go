// Package store provides Storage implementations for workflow state.
package store

import (
	"context"
	"sync"

	"github.com/delfick/workflows-engine/compute"
)

// MemoryStorage is the reference in-memory implementation of
// compute.Storage.
//
// Designed for:
//   - Testing and development
//   - Single-process workflows where durability is not required
//
// Data is lost when the process terminates. For durable storage use
// SQLiteStorage or MySQLStorage.
//
// MemoryStorage is safe for concurrent use at the API surface; per-workflow
// atomicity is only guaranteed for callers holding the workflow lock across
// their read-modify-write region.
type MemoryStorage struct {
	mu           sync.RWMutex
	workflows    map[compute.WorkflowIdentifier]compute.WorkflowInformation
	computations map[compute.WorkflowIdentifier]map[compute.PathKey]compute.StoredInfo

	locks *lockTable

	// newIdentifier allows tests to make identifier allocation
	// deterministic.
	newIdentifier func() string
}

// MemoryOption configures a MemoryStorage.
type MemoryOption func(*MemoryStorage)

// WithIdentifierFactory replaces the identifier generator. Intended for
// tests.
func WithIdentifierFactory(factory func() string) MemoryOption {
	return func(m *MemoryStorage) { m.newIdentifier = factory }
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage(opts ...MemoryOption) *MemoryStorage {
	m := &MemoryStorage{
		workflows:     make(map[compute.WorkflowIdentifier]compute.WorkflowInformation),
		computations:  make(map[compute.WorkflowIdentifier]map[compute.PathKey]compute.StoredInfo),
		locks:         newLockTable(),
		newIdentifier: compute.NewIdentifierString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// HoldWorkflowLock acquires the exclusive per-workflow lock. The returned
// release function is idempotent and must be called on every exit path.
func (m *MemoryStorage) HoldWorkflowLock(ctx context.Context, identifier compute.WorkflowIdentifier) (func(), error) {
	return m.locks.acquire(ctx, identifier)
}

// StoreNewWorkflow allocates a fresh identifier, persists the initial
// information produced by the saver and returns the identifier.
func (m *MemoryStorage) StoreNewWorkflow(ctx context.Context, saver compute.NewWorkflowSaver) (compute.WorkflowIdentifier, error) {
	identifier := compute.WorkflowIdentifier(m.newIdentifier())
	information, err := saver.ForStorage(identifier)
	if err != nil {
		return "", err
	}
	if err := m.UpsertWorkflowInformation(ctx, identifier, information); err != nil {
		return "", err
	}
	return identifier, nil
}

// RetrieveWorkflowInformation returns the persisted information or a
// WorkflowNotFoundError.
func (m *MemoryStorage) RetrieveWorkflowInformation(_ context.Context, identifier compute.WorkflowIdentifier) (compute.WorkflowInformation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	information, ok := m.workflows[identifier]
	if !ok {
		return compute.WorkflowInformation{}, &compute.WorkflowNotFoundError{Identifier: identifier}
	}
	return information, nil
}

// UpsertWorkflowInformation overwrites the persisted information.
func (m *MemoryStorage) UpsertWorkflowInformation(_ context.Context, identifier compute.WorkflowIdentifier, information compute.WorkflowInformation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.workflows[identifier] = information
	return nil
}

// RetrieveComputations returns a copy of the stored info map for the
// workflow, or a WorkflowNotFoundError when the identifier has never been
// registered.
func (m *MemoryStorage) RetrieveComputations(_ context.Context, identifier compute.WorkflowIdentifier) (map[compute.PathKey]compute.StoredInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.workflows[identifier]; !ok {
		return nil, &compute.WorkflowNotFoundError{Identifier: identifier}
	}

	out := make(map[compute.PathKey]compute.StoredInfo, len(m.computations[identifier]))
	for key, info := range m.computations[identifier] {
		out[key] = info
	}
	return out, nil
}

// UpsertComputations merges the provided map into the stored one by path.
func (m *MemoryStorage) UpsertComputations(_ context.Context, identifier compute.WorkflowIdentifier, storedInfos map[compute.PathKey]compute.StoredInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.workflows[identifier]; !ok {
		return &compute.WorkflowNotFoundError{Identifier: identifier}
	}

	existing, ok := m.computations[identifier]
	if !ok {
		existing = make(map[compute.PathKey]compute.StoredInfo)
		m.computations[identifier] = existing
	}
	for key, info := range storedInfos {
		existing[key] = info
	}
	return nil
}
