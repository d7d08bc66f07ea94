package compute

import "context"

// Storage persists workflows and their computation maps. Implementations
// live in the store package; the reference one is in-memory.
//
// Cross-workflow safety is provided exclusively by HoldWorkflowLock:
// callers that mutate a workflow's persisted state must hold its lock for
// the entire read-modify-write region. The lock is not re-entrant, and it
// is advisory with respect to the Retrieve methods.
type Storage interface {
	// HoldWorkflowLock acquires the exclusive lock for one workflow,
	// blocking while another holder has it. The returned release function
	// must be called on every exit path, typically via defer; calling it
	// more than once is safe. Acquisition fails only when ctx is done.
	HoldWorkflowLock(ctx context.Context, identifier WorkflowIdentifier) (release func(), err error)

	// StoreNewWorkflow allocates a globally unique identifier, persists the
	// initial information produced by the saver and returns the identifier.
	StoreNewWorkflow(ctx context.Context, saver NewWorkflowSaver) (WorkflowIdentifier, error)

	// RetrieveWorkflowInformation returns the persisted information.
	// Fails with WorkflowNotFoundError when the identifier is unknown.
	RetrieveWorkflowInformation(ctx context.Context, identifier WorkflowIdentifier) (WorkflowInformation, error)

	// UpsertWorkflowInformation overwrites the persisted information
	// atomically.
	UpsertWorkflowInformation(ctx context.Context, identifier WorkflowIdentifier, information WorkflowInformation) error

	// RetrieveComputations returns the stored info for every path under the
	// workflow. Fails with WorkflowNotFoundError when the identifier has
	// never been registered, even if its map would be empty.
	RetrieveComputations(ctx context.Context, identifier WorkflowIdentifier) (map[PathKey]StoredInfo, error)

	// UpsertComputations merges the provided map into the existing one by
	// path: listed paths are overwritten, others preserved. Fails with
	// WorkflowNotFoundError when the identifier is unknown.
	UpsertComputations(ctx context.Context, identifier WorkflowIdentifier, storedInfos map[PathKey]StoredInfo) error
}
