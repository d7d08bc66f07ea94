package compute

import (
	"errors"
	"testing"
)

func jobWith(t *testing.T, state State) *Job {
	t.Helper()
	var resolved Error
	if raw := state.Err(); raw != nil {
		var err error
		resolved, err = SimpleErrorResolver{}.ResolveError(*raw)
		if err != nil {
			t.Fatalf("resolving error: %v", err)
		}
	}
	cs := NewComputationState(state, "w1", Path{"j1"}, resolved)
	return NewJob(Result{state: state}, "j1", nil, cs)
}

func TestJob_Done(t *testing.T) {
	notDone := []ExecutionState{ExecutionPending, ExecutionProgressing, ExecutionCancelling, ExecutionPaused}
	for _, execution := range notDone {
		job := jobWith(t, FreshState(stateTestNow).Clone(WithExecutionState(execution)))
		if job.Done() {
			t.Errorf("expected %v to not be done", execution)
		}
	}

	job := jobWith(t, FreshState(stateTestNow).Clone(WithExecutionState(ExecutionStopped)))
	if !job.Done() {
		t.Error("expected STOPPED to be done")
	}
}

func TestJob_Success(t *testing.T) {
	successful := jobWith(t, FreshState(stateTestNow).Clone(
		WithExecutionState(ExecutionStopped),
		WithResultState(ResultSuccess),
	))
	if !successful.Success() {
		t.Error("expected SUCCESS job to be successful")
	}

	for _, outcome := range []ResultState{ResultAbsent, ResultCancelled, ResultHandledFailure, ResultUnhandledFailure} {
		job := jobWith(t, FreshState(stateTestNow).Clone(
			WithExecutionState(ExecutionStopped),
			WithResultState(outcome),
		))
		if job.Success() {
			t.Errorf("expected %v to not be successful", outcome)
		}
	}
}

func TestJob_Cancelled(t *testing.T) {
	cancelled := jobWith(t, FreshState(stateTestNow).Clone(
		WithExecutionState(ExecutionStopped),
		WithResultState(ResultCancelled),
	))
	if !cancelled.Cancelled() {
		t.Error("expected CANCELLED job to report cancelled")
	}

	for _, outcome := range []ResultState{ResultAbsent, ResultSuccess, ResultHandledFailure, ResultUnhandledFailure} {
		job := jobWith(t, FreshState(stateTestNow).Clone(
			WithExecutionState(ExecutionStopped),
			WithResultState(outcome),
		))
		if job.Cancelled() {
			t.Errorf("expected %v to not report cancelled", outcome)
		}
	}
}

func TestJob_Exception(t *testing.T) {
	t.Run("absent and success have none", func(t *testing.T) {
		for _, outcome := range []ResultState{ResultAbsent, ResultSuccess} {
			job := jobWith(t, FreshState(stateTestNow).Clone(WithResultState(outcome)))
			if job.Exception() != nil {
				t.Errorf("expected no exception for %v, got %v", outcome, job.Exception())
			}
		}
	})

	t.Run("cancelled without a stored error synthesizes cancellation", func(t *testing.T) {
		job := jobWith(t, FreshState(stateTestNow).Clone(
			WithExecutionState(ExecutionStopped),
			WithResultState(ResultCancelled),
		))
		var cancelled *ComputationCancelledError
		if !errors.As(job.Exception(), &cancelled) {
			t.Fatalf("expected ComputationCancelledError, got %v", job.Exception())
		}
		if cancelled.Identifier != "w1" || cancelled.Path.Key() != "j1" {
			t.Errorf("unexpected identity: %v at %v", cancelled.Identifier, cancelled.Path)
		}
	})

	t.Run("failures with a stored error materialize it", func(t *testing.T) {
		raw := RawError{FormatCode: "simple", FormatVersion: 1, Serialized: "boom"}
		for _, outcome := range []ResultState{ResultHandledFailure, ResultUnhandledFailure, ResultCancelled} {
			job := jobWith(t, FreshState(stateTestNow).Clone(
				WithError(&raw),
				WithExecutionState(ExecutionStopped),
				WithResultState(outcome),
			))
			var errored *ComputationErroredError
			if !errors.As(job.Exception(), &errored) {
				t.Errorf("expected ComputationErroredError for %v, got %v", outcome, job.Exception())
				continue
			}
			if errored.Reason != "boom" {
				t.Errorf("expected reason 'boom', got %q", errored.Reason)
			}
		}
	})

	t.Run("failures without a stored error describe the result state", func(t *testing.T) {
		job := jobWith(t, FreshState(stateTestNow).Clone(
			WithExecutionState(ExecutionStopped),
			WithResultState(ResultUnhandledFailure),
		))
		var errored *ComputationErroredError
		if !errors.As(job.Exception(), &errored) {
			t.Fatalf("expected ComputationErroredError, got %v", job.Exception())
		}
		if errored.Reason != "UNHANDLED_FAILURE" {
			t.Errorf("expected reason to describe the result state, got %q", errored.Reason)
		}
	})
}

func TestComputationState_LoggingContext(t *testing.T) {
	cs := NewComputationState(FreshState(stateTestNow), "w1", Path{"root", "fetch"}, nil)
	got := cs.LoggingContext()
	if got["workflow_identifier"] != "w1" {
		t.Errorf("unexpected workflow identifier: %q", got["workflow_identifier"])
	}
	if got["computation_path"] != "root.fetch" {
		t.Errorf("unexpected computation path: %q", got["computation_path"])
	}
}

func TestComputationState_PathFactories(t *testing.T) {
	cs := NewComputationState(FreshState(stateTestNow), "w1", Path{"root"}, nil)

	jp, err := cs.JobPath("child")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if jp.Path().Key() != "root.child" {
		t.Errorf("unexpected job path: %v", jp.Path())
	}

	eip, err := cs.ExternalInputPath("approval")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eip.Identifier != "w1" || eip.ExternalInputName != "approval" {
		t.Errorf("unexpected external input path: %+v", eip)
	}

	if _, err := cs.JobPath("bad name"); err == nil {
		t.Error("expected invalid child name to be rejected")
	}
}
