package compute

import "fmt"

// InvalidJobNameError is returned when a JobPath is constructed with a job
// name that does not match the segment grammar.
type InvalidJobNameError struct {
	Wanted string
}

func (e *InvalidJobNameError) Error() string {
	return fmt.Sprintf("invalid job name: %q", e.Wanted)
}

// InvalidExternalInputNameError is returned when an ExternalInputPath is
// constructed with a name that does not match the segment grammar.
type InvalidExternalInputNameError struct {
	Wanted string
}

func (e *InvalidExternalInputNameError) Error() string {
	return fmt.Sprintf("invalid external input name: %q", e.Wanted)
}

// WorkflowNotFoundError is returned by Storage when the identifier has never
// been registered.
type WorkflowNotFoundError struct {
	Identifier WorkflowIdentifier
}

func (e *WorkflowNotFoundError) Error() string {
	return fmt.Sprintf("workflow not found: %s", e.Identifier)
}

// ComputationAlreadyExistsError is reserved for Storage implementations that
// enforce uniqueness when a computation is first created at a path.
type ComputationAlreadyExistsError struct {
	Identifier WorkflowIdentifier
	Path       Path
}

func (e *ComputationAlreadyExistsError) Error() string {
	return fmt.Sprintf("computation already exists: %s at %s", e.Identifier, e.Path.Key())
}

// ComputationCancelledError is the exception surfaced when a computation is
// observed in the CANCELLED result state with no stored error.
type ComputationCancelledError struct {
	Identifier WorkflowIdentifier
	Path       Path
}

func (e *ComputationCancelledError) Error() string {
	return fmt.Sprintf("computation cancelled: %s at %s", e.Identifier, e.Path.Key())
}

// ComputationErroredError is the exception surfaced when a computation is
// observed in a failing result state. Reason carries the serialized error
// detail when one was stored, or a description of the result state when
// none was.
type ComputationErroredError struct {
	Identifier WorkflowIdentifier
	Path       Path
	Reason     string
}

func (e *ComputationErroredError) Error() string {
	return fmt.Sprintf("computation errored: %s at %s: %s", e.Identifier, e.Path.Key(), e.Reason)
}

// UnknownErrorFormatError is returned by an ErrorResolver that does not
// recognise the format code of a stored RawError.
type UnknownErrorFormatError struct {
	FormatCode    string
	FormatVersion int
}

func (e *UnknownErrorFormatError) Error() string {
	return fmt.Sprintf("unknown error format: %s v%d", e.FormatCode, e.FormatVersion)
}
