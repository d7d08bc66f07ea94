package compute

import "time"

// ComputationState is the read-only view handed to a computation when it
// executes: the original persisted state plus the resolved error, the
// workflow identifier and the path of the computation.
//
// It is produced by the Engine per run and must not be retained past the
// Execute call that received it.
type ComputationState struct {
	original   State
	identifier WorkflowIdentifier
	path       Path
	err        Error
}

// NewComputationState builds the view over an original state. err is the
// resolved form of the state's stored error, or nil.
func NewComputationState(original State, identifier WorkflowIdentifier, path Path, err Error) ComputationState {
	return ComputationState{
		original:   original,
		identifier: identifier,
		path:       path,
		err:        err,
	}
}

// Identifier returns the workflow this computation belongs to.
func (cs ComputationState) Identifier() WorkflowIdentifier { return cs.identifier }

// Path returns the path of this computation under the workflow.
func (cs ComputationState) Path() Path { return cs.path }

// Err returns the resolved error, or nil when the state holds none.
func (cs ComputationState) Err() Error { return cs.err }

// ExecutionState returns the motion of the underlying state.
func (cs ComputationState) ExecutionState() ExecutionState { return cs.original.ExecutionState() }

// ResultState returns the outcome of the underlying state.
func (cs ComputationState) ResultState() ResultState { return cs.original.ResultState() }

// DueAt returns the due hint of the underlying state.
func (cs ComputationState) DueAt() Schedule { return cs.original.DueAt() }

// CreatedAt returns when the computation was first instantiated.
func (cs ComputationState) CreatedAt() time.Time { return cs.original.CreatedAt() }

// Exception returns the concrete error observable on this computation:
//
//   - CANCELLED with no stored error: a synthetic ComputationCancelledError.
//   - CANCELLED or either failure with a stored error: the resolved error
//     materialized via AsException.
//   - Either failure with no stored error: a synthetic
//     ComputationErroredError describing the result state.
//   - Anything else: nil.
func (cs ComputationState) Exception() error {
	resultState := cs.ResultState()

	if cs.err == nil && resultState == ResultCancelled {
		return &ComputationCancelledError{Identifier: cs.identifier, Path: cs.path}
	}

	switch resultState {
	case ResultHandledFailure, ResultUnhandledFailure, ResultCancelled:
	default:
		return nil
	}

	if cs.err == nil {
		return &ComputationErroredError{
			Identifier: cs.identifier,
			Path:       cs.path,
			Reason:     resultState.String(),
		}
	}

	return cs.err.AsException(cs.identifier, cs.path)
}

// LoggingContext returns the structured context identifying this computation
// in log output.
func (cs ComputationState) LoggingContext() map[string]string {
	return map[string]string{
		"workflow_identifier": cs.identifier.String(),
		"computation_path":    string(cs.path.Key()),
	}
}

// JobPath creates the path of a child job under this computation.
func (cs ComputationState) JobPath(jobName string) (JobPath, error) {
	return NewJobPath(cs.identifier, cs.path, jobName)
}

// ExternalInputPath creates the path of an external input for this workflow.
func (cs ComputationState) ExternalInputPath(externalInputName string) (ExternalInputPath, error) {
	return NewExternalInputPath(cs.identifier, externalInputName)
}
