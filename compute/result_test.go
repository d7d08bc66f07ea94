package compute

import (
	"errors"
	"testing"
	"time"
)

func testComputationState(t *testing.T, state State) ComputationState {
	t.Helper()
	return NewComputationState(state, "w1", Path{"j1"}, nil)
}

func TestResults_Transitions(t *testing.T) {
	raw := RawError{FormatCode: "simple", FormatVersion: 1, Serialized: "previous"}
	original := FreshState(stateTestNow).Clone(
		WithError(&raw),
		WithExecutionState(ExecutionProgressing),
	)
	results := NewResults(testComputationState(t, original))

	type expectation struct {
		result    Result
		execution ExecutionState
		outcome   ResultState
		errIsNil  bool
	}

	cases := map[string]expectation{
		"pending": {
			result:    results.Pending("waiting again"),
			execution: ExecutionPending,
			outcome:   ResultAbsent,
			errIsNil:  true,
		},
		"progressing": {
			result:    results.Progressing("working"),
			execution: ExecutionProgressing,
			outcome:   ResultAbsent,
			errIsNil:  true,
		},
		"success": {
			result:    results.Success("finished"),
			execution: ExecutionStopped,
			outcome:   ResultSuccess,
			errIsNil:  true,
		},
		"paused": {
			result:    results.Paused("on hold"),
			execution: ExecutionPaused,
			outcome:   ResultAbsent,
			errIsNil:  true,
		},
		"cancelled": {
			result:    results.Cancelled("honoured cancellation"),
			execution: ExecutionStopped,
			outcome:   ResultCancelled,
			errIsNil:  true,
		},
		"cancelling": {
			result:    results.Cancelling("cancellation requested"),
			execution: ExecutionCancelling,
			outcome:   ResultAbsent,
			errIsNil:  true,
		},
	}

	for name, want := range cases {
		t.Run(name, func(t *testing.T) {
			state := want.result.State()
			if state.ExecutionState() != want.execution {
				t.Errorf("expected %v, got %v", want.execution, state.ExecutionState())
			}
			if state.ResultState() != want.outcome {
				t.Errorf("expected %v, got %v", want.outcome, state.ResultState())
			}
			if want.errIsNil && state.Err() != nil {
				t.Errorf("expected error cleared, got %v", state.Err())
			}
			if !state.CreatedAt().Equal(stateTestNow) {
				t.Errorf("createdAt changed: %v", state.CreatedAt())
			}
		})
	}

	t.Run("handled failure carries the given error", func(t *testing.T) {
		result := results.HandledFailure(SimpleError{Serialized: "known problem"}, "recorded failure")
		state := result.State()
		if state.ExecutionState() != ExecutionStopped || state.ResultState() != ResultHandledFailure {
			t.Errorf("unexpected states: %v/%v", state.ExecutionState(), state.ResultState())
		}
		if state.Err() == nil || state.Err().Serialized != "known problem" {
			t.Errorf("expected the given error, got %v", state.Err())
		}
	})

	t.Run("unhandled failure serializes the exception", func(t *testing.T) {
		result := results.UnhandledFailure(errors.New("boom"), SimpleExceptionSerializer{}, "caught")
		state := result.State()
		if state.ExecutionState() != ExecutionStopped || state.ResultState() != ResultUnhandledFailure {
			t.Errorf("unexpected states: %v/%v", state.ExecutionState(), state.ResultState())
		}
		want := RawError{FormatCode: "simple", FormatVersion: 1, Serialized: "boom"}
		if state.Err() == nil || *state.Err() != want {
			t.Errorf("expected %v, got %v", want, state.Err())
		}
	})

	t.Run("audit message is carried", func(t *testing.T) {
		if got := results.Success("all done").AuditMessage(); got != "all done" {
			t.Errorf("expected audit message, got %q", got)
		}
	})

	t.Run("hints default to not given", func(t *testing.T) {
		result := results.Success("finished")
		if result.DueAt().IsGiven() || result.ScheduleNextLatestAt().IsGiven() {
			t.Errorf("expected not given hints, got %v / %v", result.DueAt(), result.ScheduleNextLatestAt())
		}
	})
}

func TestResults_NoChange(t *testing.T) {
	due := time.Date(2000, 1, 1, 1, 1, 1, 0, time.UTC)
	next := time.Date(2000, 2, 2, 2, 2, 2, 0, time.UTC)

	t.Run("carries over current dates when none are given", func(t *testing.T) {
		original := FreshState(stateTestNow).Clone(
			WithDueAt(ScheduleAt(due)),
			WithScheduleNextLatestAt(ScheduleAt(next)),
		)
		result := NewResults(testComputationState(t, original)).NoChange()

		if !result.DueAt().Equal(ScheduleAt(due)) {
			t.Errorf("expected due hint carried forward, got %v", result.DueAt())
		}
		if !result.ScheduleNextLatestAt().Equal(ScheduleAt(next)) {
			t.Errorf("expected schedule-next hint carried forward, got %v", result.ScheduleNextLatestAt())
		}
	})

	t.Run("explicit dates win", func(t *testing.T) {
		original := FreshState(stateTestNow).Clone(
			WithDueAt(ScheduleAt(due)),
			WithScheduleNextLatestAt(ScheduleAt(next)),
		)
		newDue := time.Date(2000, 3, 3, 3, 3, 3, 0, time.UTC)
		newNext := time.Date(2000, 4, 4, 4, 4, 4, 0, time.UTC)

		result := NewResults(testComputationState(t, original)).NoChange(
			DueAt(ScheduleAt(newDue)),
			ScheduleNextLatestAt(ScheduleAt(newNext)),
		)

		if !result.DueAt().Equal(ScheduleAt(newDue)) {
			t.Errorf("expected explicit due hint, got %v", result.DueAt())
		}
		if !result.ScheduleNextLatestAt().Equal(ScheduleAt(newNext)) {
			t.Errorf("expected explicit schedule-next hint, got %v", result.ScheduleNextLatestAt())
		}
	})

	t.Run("not given stays not given when the state has no hints", func(t *testing.T) {
		result := NewResults(testComputationState(t, FreshState(stateTestNow))).NoChange()
		if result.DueAt().IsGiven() || result.ScheduleNextLatestAt().IsGiven() {
			t.Errorf("expected not given hints, got %v / %v", result.DueAt(), result.ScheduleNextLatestAt())
		}
	})

	t.Run("state is unchanged", func(t *testing.T) {
		raw := RawError{FormatCode: "simple", FormatVersion: 1, Serialized: "kept"}
		original := FreshState(stateTestNow).Clone(
			WithError(&raw),
			WithExecutionState(ExecutionPaused),
		)
		state := NewResults(testComputationState(t, original)).NoChange(AuditMessage("nothing to do")).State()

		if state.ExecutionState() != ExecutionPaused || state.ResultState() != ResultAbsent {
			t.Errorf("unexpected states: %v/%v", state.ExecutionState(), state.ResultState())
		}
		if state.Err() == nil || *state.Err() != raw {
			t.Errorf("expected error kept, got %v", state.Err())
		}
	})
}
