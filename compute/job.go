package compute

import "fmt"

// Job is one executed or pre-executed snapshot of a computation: the result
// that populated it, the job name, the computation it belongs to and the
// read-only state view built for it. Jobs are immutable and may be shared
// freely.
type Job struct {
	result      Result
	name        string
	computation Computation
	state       ComputationState
}

// NewJob constructs a snapshot. Hosts normally receive jobs from the Engine
// rather than building them directly.
func NewJob(result Result, name string, computation Computation, state ComputationState) *Job {
	return &Job{result: result, name: name, computation: computation, state: state}
}

// Result returns the result used to populate this job.
func (j *Job) Result() Result { return j.result }

// Name returns the name of the job.
func (j *Job) Name() string { return j.name }

// Computation returns the specific computation this job is running.
func (j *Job) Computation() Computation { return j.computation }

// State returns the read-only state view for this job.
func (j *Job) State() ComputationState { return j.state }

// Done reports whether this job is done: the computation will not be
// invoked again.
func (j *Job) Done() bool {
	switch state := j.state.ExecutionState(); state {
	case ExecutionPending, ExecutionProgressing, ExecutionCancelling, ExecutionPaused:
		return false
	case ExecutionStopped:
		return true
	default:
		panic(fmt.Sprintf("unreachable execution state: %v", state))
	}
}

// Success reports whether this job is done and succeeded.
func (j *Job) Success() bool {
	switch state := j.state.ResultState(); state {
	case ResultAbsent, ResultCancelled, ResultHandledFailure, ResultUnhandledFailure:
		return false
	case ResultSuccess:
		return true
	default:
		panic(fmt.Sprintf("unreachable result state: %v", state))
	}
}

// Cancelled reports whether this job completed by cancellation.
func (j *Job) Cancelled() bool {
	switch state := j.state.ResultState(); state {
	case ResultAbsent, ResultSuccess, ResultHandledFailure, ResultUnhandledFailure:
		return false
	case ResultCancelled:
		return true
	default:
		panic(fmt.Sprintf("unreachable result state: %v", state))
	}
}

// Exception returns the observable error on this job, or nil. Only the
// cancelled and failure outcomes carry one.
func (j *Job) Exception() error {
	switch state := j.state.ResultState(); state {
	case ResultAbsent, ResultSuccess:
		return nil
	case ResultCancelled, ResultHandledFailure, ResultUnhandledFailure:
		return j.state.Exception()
	default:
		panic(fmt.Sprintf("unreachable result state: %v", state))
	}
}
