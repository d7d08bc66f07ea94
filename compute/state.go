package compute

import (
	"encoding/json"
	"fmt"
	"time"
)

// ExecutionState describes the motion of a computation: whether it is still
// expected to be invoked again and why.
type ExecutionState uint8

const (
	// ExecutionPending means the computation has not started doing work yet.
	ExecutionPending ExecutionState = iota

	// ExecutionProgressing means the computation has started and expects to
	// be invoked again.
	ExecutionProgressing

	// ExecutionCancelling means cancellation has been requested and the
	// computation will decide on a future invocation whether to honour it.
	ExecutionCancelling

	// ExecutionPaused means the computation is deliberately on hold.
	ExecutionPaused

	// ExecutionStopped means the computation is done and will not be
	// invoked again.
	ExecutionStopped
)

func (s ExecutionState) String() string {
	switch s {
	case ExecutionPending:
		return "PENDING"
	case ExecutionProgressing:
		return "PROGRESSING"
	case ExecutionCancelling:
		return "CANCELLING"
	case ExecutionPaused:
		return "PAUSED"
	case ExecutionStopped:
		return "STOPPED"
	}
	return fmt.Sprintf("ExecutionState(%d)", uint8(s))
}

// MarshalText encodes the state by name for storage.
func (s ExecutionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state encoded by MarshalText.
func (s *ExecutionState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "PENDING":
		*s = ExecutionPending
	case "PROGRESSING":
		*s = ExecutionProgressing
	case "CANCELLING":
		*s = ExecutionCancelling
	case "PAUSED":
		*s = ExecutionPaused
	case "STOPPED":
		*s = ExecutionStopped
	default:
		return fmt.Errorf("unknown execution state: %q", text)
	}
	return nil
}

// ResultState describes the outcome of a computation, orthogonal to its
// ExecutionState. Any outcome other than ABSENT requires STOPPED.
type ResultState uint8

const (
	// ResultAbsent means there is no outcome yet.
	ResultAbsent ResultState = iota

	// ResultSuccess means the computation completed successfully.
	ResultSuccess

	// ResultCancelled means the computation completed by honouring a
	// cancellation request.
	ResultCancelled

	// ResultHandledFailure means the computation completed by recording a
	// failure it understood.
	ResultHandledFailure

	// ResultUnhandledFailure means the computation completed because an
	// unexpected failure escaped it.
	ResultUnhandledFailure
)

func (s ResultState) String() string {
	switch s {
	case ResultAbsent:
		return "ABSENT"
	case ResultSuccess:
		return "SUCCESS"
	case ResultCancelled:
		return "CANCELLED"
	case ResultHandledFailure:
		return "HANDLED_FAILURE"
	case ResultUnhandledFailure:
		return "UNHANDLED_FAILURE"
	}
	return fmt.Sprintf("ResultState(%d)", uint8(s))
}

// MarshalText encodes the state by name for storage.
func (s ResultState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state encoded by MarshalText.
func (s *ResultState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "ABSENT":
		*s = ResultAbsent
	case "SUCCESS":
		*s = ResultSuccess
	case "CANCELLED":
		*s = ResultCancelled
	case "HANDLED_FAILURE":
		*s = ResultHandledFailure
	case "UNHANDLED_FAILURE":
		*s = ResultUnhandledFailure
	default:
		return fmt.Errorf("unknown result state: %q", text)
	}
	return nil
}

// State is the immutable per-computation state value. New values are
// produced with FreshState and Clone; nothing mutates a State in place.
//
// The scheduling hints dueAt and scheduleNextLatestAt are never "not given"
// on a State: a fresh state holds the explicit none value.
type State struct {
	err                  *RawError
	executionState       ExecutionState
	resultState          ResultState
	createdAt            time.Time
	dueAt                Schedule
	scheduleNextLatestAt Schedule
}

// FreshState returns the state of a computation that has never run:
// PENDING motion, ABSENT outcome, no error, no scheduling hints.
// CreatedAt is assigned here exactly once and survives every Clone.
func FreshState(now time.Time) State {
	return State{
		executionState:       ExecutionPending,
		resultState:          ResultAbsent,
		createdAt:            now,
		dueAt:                ScheduleNone(),
		scheduleNextLatestAt: ScheduleNone(),
	}
}

// Err returns the stored raw error, or nil.
func (s State) Err() *RawError { return s.err }

// ExecutionState returns the motion of the computation.
func (s State) ExecutionState() ExecutionState { return s.executionState }

// ResultState returns the outcome of the computation.
func (s State) ResultState() ResultState { return s.resultState }

// CreatedAt returns the instant the computation was first instantiated.
func (s State) CreatedAt() time.Time { return s.createdAt }

// DueAt returns the hint for when the computation next wants to run.
func (s State) DueAt() Schedule { return s.dueAt }

// ScheduleNextLatestAt returns the hint for the latest instant the
// computation should be scheduled by.
func (s State) ScheduleNextLatestAt() Schedule { return s.scheduleNextLatestAt }

type cloneOverrides struct {
	errGiven bool
	err      *RawError

	executionGiven bool
	execution      ExecutionState

	resultGiven bool
	result      ResultState

	dueAt                Schedule
	scheduleNextLatestAt Schedule
}

// CloneOption overrides a single field during State.Clone. An omitted option
// preserves the current value.
type CloneOption func(*cloneOverrides)

// WithError overrides the stored error. Passing nil explicitly clears it;
// omitting the option preserves the current error.
func WithError(err *RawError) CloneOption {
	return func(o *cloneOverrides) {
		o.errGiven = true
		o.err = err
	}
}

// WithResolvedError overrides the stored error with the raw form of a
// resolved Error.
func WithResolvedError(err Error) CloneOption {
	raw := err.Raw()
	return WithError(&raw)
}

// WithExecutionState overrides the motion of the computation.
func WithExecutionState(state ExecutionState) CloneOption {
	return func(o *cloneOverrides) {
		o.executionGiven = true
		o.execution = state
	}
}

// WithResultState overrides the outcome of the computation.
func WithResultState(state ResultState) CloneOption {
	return func(o *cloneOverrides) {
		o.resultGiven = true
		o.result = state
	}
}

// WithDueAt overrides the due hint. A "not given" Schedule preserves the
// current value, so a Result's hints can be passed through unconditionally.
func WithDueAt(schedule Schedule) CloneOption {
	return func(o *cloneOverrides) {
		o.dueAt = schedule
	}
}

// WithScheduleNextLatestAt overrides the schedule-next hint. A "not given"
// Schedule preserves the current value.
func WithScheduleNextLatestAt(schedule Schedule) CloneOption {
	return func(o *cloneOverrides) {
		o.scheduleNextLatestAt = schedule
	}
}

// Clone returns a new State with the selected fields overridden. Omitted
// fields keep the current value; createdAt is always preserved.
func (s State) Clone(opts ...CloneOption) State {
	var o cloneOverrides
	for _, opt := range opts {
		opt(&o)
	}

	next := s
	if o.errGiven {
		next.err = o.err
	}
	if o.executionGiven {
		next.executionState = o.execution
	}
	if o.resultGiven {
		next.resultState = o.result
	}
	if o.dueAt.IsGiven() {
		next.dueAt = o.dueAt
	}
	if o.scheduleNextLatestAt.IsGiven() {
		next.scheduleNextLatestAt = o.scheduleNextLatestAt
	}
	return next
}

// stateJSON is the wire form used by SQL-backed storages.
type stateJSON struct {
	Error                *RawError      `json:"error,omitempty"`
	ExecutionState       ExecutionState `json:"execution_state"`
	ResultState          ResultState    `json:"result_state"`
	CreatedAt            time.Time      `json:"created_at"`
	DueAt                Schedule       `json:"due_at"`
	ScheduleNextLatestAt Schedule       `json:"schedule_next_latest_at"`
}

// MarshalJSON encodes the state for storage.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(stateJSON{
		Error:                s.err,
		ExecutionState:       s.executionState,
		ResultState:          s.resultState,
		CreatedAt:            s.createdAt,
		DueAt:                s.dueAt,
		ScheduleNextLatestAt: s.scheduleNextLatestAt,
	})
}

// UnmarshalJSON decodes a state encoded by MarshalJSON.
func (s *State) UnmarshalJSON(data []byte) error {
	var wire stateJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*s = State{
		err:                  wire.Error,
		executionState:       wire.ExecutionState,
		resultState:          wire.ResultState,
		createdAt:            wire.CreatedAt,
		dueAt:                wire.DueAt,
		scheduleNextLatestAt: wire.ScheduleNextLatestAt,
	}
	return nil
}
