package compute

// Result is what a computation returns: the new state it is in, an audit
// message describing the transition, and optional scheduling hints.
type Result struct {
	state                State
	auditMessage         string
	dueAt                Schedule
	scheduleNextLatestAt Schedule
}

// State returns the new state described by this result.
func (r Result) State() State { return r.state }

// AuditMessage returns the human readable description of the transition.
func (r Result) AuditMessage() string { return r.auditMessage }

// DueAt returns the due hint carried by this result. May be "not given".
func (r Result) DueAt() Schedule { return r.dueAt }

// ScheduleNextLatestAt returns the schedule-next hint carried by this
// result. May be "not given".
func (r Result) ScheduleNextLatestAt() Schedule { return r.scheduleNextLatestAt }

type resultParams struct {
	auditMessage         string
	dueAt                Schedule
	scheduleNextLatestAt Schedule
}

// ResultOption configures the optional parts of a Result.
type ResultOption func(*resultParams)

// DueAt sets the due hint on the produced Result.
func DueAt(schedule Schedule) ResultOption {
	return func(p *resultParams) { p.dueAt = schedule }
}

// ScheduleNextLatestAt sets the schedule-next hint on the produced Result.
func ScheduleNextLatestAt(schedule Schedule) ResultOption {
	return func(p *resultParams) { p.scheduleNextLatestAt = schedule }
}

// AuditMessage sets the audit message. Only meaningful for NoChange, whose
// message defaults to empty; every other transition takes the message as a
// required argument.
func AuditMessage(message string) ResultOption {
	return func(p *resultParams) { p.auditMessage = message }
}

// Results produces a new Result for each legal state transition. It is
// bound to the original state of the computation it was created for; every
// transition clones that state with a fixed set of overrides.
type Results struct {
	original State
}

// NewResults returns the transition factory bound to the computation's
// original state. Computations must obtain their Result values here.
func NewResults(cs ComputationState) Results {
	return Results{original: cs.original}
}

func collect(auditMessage string, opts []ResultOption) resultParams {
	p := resultParams{auditMessage: auditMessage}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

func (r Results) build(state State, p resultParams) Result {
	return Result{
		state:                state,
		auditMessage:         p.auditMessage,
		dueAt:                p.dueAt,
		scheduleNextLatestAt: p.scheduleNextLatestAt,
	}
}

// NoChange keeps the current state as is. When the caller does not supply a
// hint and the current state already carries one, the current hint is
// carried forward onto the Result so that merging does not erase it.
func (r Results) NoChange(opts ...ResultOption) Result {
	p := collect("", opts)
	if !p.dueAt.IsGiven() && !r.original.DueAt().IsNone() {
		p.dueAt = r.original.DueAt()
	}
	if !p.scheduleNextLatestAt.IsGiven() && !r.original.ScheduleNextLatestAt().IsNone() {
		p.scheduleNextLatestAt = r.original.ScheduleNextLatestAt()
	}
	return r.build(r.original.Clone(), p)
}

// Pending transitions the computation back to waiting-to-start.
func (r Results) Pending(auditMessage string, opts ...ResultOption) Result {
	return r.build(r.original.Clone(
		WithError(nil),
		WithExecutionState(ExecutionPending),
		WithResultState(ResultAbsent),
	), collect(auditMessage, opts))
}

// Progressing transitions the computation to actively-working.
func (r Results) Progressing(auditMessage string, opts ...ResultOption) Result {
	return r.build(r.original.Clone(
		WithError(nil),
		WithExecutionState(ExecutionProgressing),
		WithResultState(ResultAbsent),
	), collect(auditMessage, opts))
}

// Success completes the computation successfully.
func (r Results) Success(auditMessage string, opts ...ResultOption) Result {
	return r.build(r.original.Clone(
		WithError(nil),
		WithExecutionState(ExecutionStopped),
		WithResultState(ResultSuccess),
	), collect(auditMessage, opts))
}

// Paused puts the computation deliberately on hold.
func (r Results) Paused(auditMessage string, opts ...ResultOption) Result {
	return r.build(r.original.Clone(
		WithError(nil),
		WithExecutionState(ExecutionPaused),
		WithResultState(ResultAbsent),
	), collect(auditMessage, opts))
}

// Cancelled completes the computation by honouring a cancellation request.
func (r Results) Cancelled(auditMessage string, opts ...ResultOption) Result {
	return r.build(r.original.Clone(
		WithError(nil),
		WithExecutionState(ExecutionStopped),
		WithResultState(ResultCancelled),
	), collect(auditMessage, opts))
}

// Cancelling records the intent to cancel; a later invocation observes this
// state and decides whether to complete the cancellation.
func (r Results) Cancelling(auditMessage string, opts ...ResultOption) Result {
	return r.build(r.original.Clone(
		WithError(nil),
		WithExecutionState(ExecutionCancelling),
		WithResultState(ResultAbsent),
	), collect(auditMessage, opts))
}

// HandledFailure completes the computation with a failure it understood.
func (r Results) HandledFailure(err Error, auditMessage string, opts ...ResultOption) Result {
	return r.build(r.original.Clone(
		WithResolvedError(err),
		WithExecutionState(ExecutionStopped),
		WithResultState(ResultHandledFailure),
	), collect(auditMessage, opts))
}

// UnhandledFailure completes the computation because an unexpected failure
// escaped it. The failure is serialized with the provided serializer, which
// must be total.
func (r Results) UnhandledFailure(exc error, serializer ExceptionSerializer, auditMessage string, opts ...ResultOption) Result {
	raw := serializer.SerializeException(exc)
	return r.build(r.original.Clone(
		WithError(&raw),
		WithExecutionState(ExecutionStopped),
		WithResultState(ResultUnhandledFailure),
	), collect(auditMessage, opts))
}
