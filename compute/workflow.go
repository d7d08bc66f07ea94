package compute

import (
	"encoding/json"
	"time"
)

// WorkflowInformation is the persisted description of a workflow. The
// engine treats it as opaque; hosts use the code and version to pick the
// loader that can hydrate the Information blob.
type WorkflowInformation struct {
	WorkflowCode    string          `json:"workflow_code"`
	WorkflowVersion int             `json:"workflow_version"`
	Information     json.RawMessage `json:"information"`
	Tags            []string        `json:"tags"`

	// EarliestDueAt and EarliestNextScheduleAt are the aggregated
	// scheduling hints for the whole workflow, so an external scheduler can
	// pick the next wake-up time without loading the computation tree.
	EarliestDueAt          *time.Time `json:"earliest_due_at"`
	EarliestNextScheduleAt *time.Time `json:"earliest_next_schedule_at"`
}

// WorkflowLoader hydrates a persisted workflow: given the stored
// information it returns the saver that will persist the workflow again and
// the root computation to run.
type WorkflowLoader interface {
	FromStorage(identifier WorkflowIdentifier, information json.RawMessage) (WorkflowSaver, Computation, error)
}

// WorkflowSaver produces the information to persist for a workflow after a
// run: the root job, the run's tracker and the previously stored
// information are all available to it.
type WorkflowSaver interface {
	ForStorage(identifier WorkflowIdentifier, workflowJob *Job, tracker *JobTracker, original WorkflowInformation) (WorkflowInformation, error)
}

// NewWorkflowSaver produces the initial information for a workflow that has
// never run.
type NewWorkflowSaver interface {
	ForStorage(identifier WorkflowIdentifier) (WorkflowInformation, error)
}
