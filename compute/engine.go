package compute

import (
	"context"
	"fmt"
	"time"

	"github.com/delfick/workflows-engine/compute/emit"
)

const unhandledAuditMessage = "unhandled exception caught by internal logic"

// Engine invokes computations and mediates every state transition. It
// converts escaped failures into results, resolves stored errors, and
// records each execution on the run's JobTracker.
//
// The Engine itself is stateless across runs: all per-run bookkeeping lives
// on the JobTracker the host passes in, and durability is the host's
// concern (see Driver).
type Engine struct {
	errorResolver       ErrorResolver
	exceptionSerializer ExceptionSerializer
	emitter             emit.Emitter
	metrics             *Metrics
	clock               func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithErrorResolver replaces the default SimpleErrorResolver.
func WithErrorResolver(resolver ErrorResolver) EngineOption {
	return func(e *Engine) { e.errorResolver = resolver }
}

// WithExceptionSerializer replaces the default SimpleExceptionSerializer.
func WithExceptionSerializer(serializer ExceptionSerializer) EngineOption {
	return func(e *Engine) { e.exceptionSerializer = serializer }
}

// WithEmitter sets the observability emitter. Defaults to a NullEmitter.
func WithEmitter(emitter emit.Emitter) EngineOption {
	return func(e *Engine) { e.emitter = emitter }
}

// WithMetrics enables Prometheus metrics collection. Nil disables it.
func WithMetrics(metrics *Metrics) EngineOption {
	return func(e *Engine) { e.metrics = metrics }
}

// WithClock replaces the time source used for fresh states and durations.
// Intended for tests.
func WithClock(clock func() time.Time) EngineOption {
	return func(e *Engine) { e.clock = clock }
}

// NewEngine creates an Engine with the default error resolver and
// exception serializer, no metrics and no event output.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		errorResolver:       SimpleErrorResolver{},
		exceptionSerializer: SimpleExceptionSerializer{},
		emitter:             emit.NewNullEmitter(),
		clock:               time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type runParams struct {
	withoutExecuting bool
	override         Computation
}

// RunOption alters how Engine.Run drives a computation.
type RunOption func(*runParams)

// WithoutExecuting makes Run return the pre-execution snapshot without
// invoking the computation: pure "get current state" mode.
func WithoutExecuting() RunOption {
	return func(p *runParams) { p.withoutExecuting = true }
}

// WithOverrideExecute invokes the given computation in place of the
// addressed one. The addressed computation still provides the identity used
// for serializer and resolver selection.
func WithOverrideExecute(override Computation) RunOption {
	return func(p *runParams) { p.override = override }
}

// serializerFor prefers the computation's own ExceptionSerializer.
func (e *Engine) serializerFor(computation Computation) ExceptionSerializer {
	if serializer, ok := computation.(ExceptionSerializer); ok {
		return serializer
	}
	return e.exceptionSerializer
}

// resolverFor prefers the computation's own ErrorResolver.
func (e *Engine) resolverFor(computation Computation) ErrorResolver {
	if resolver, ok := computation.(ErrorResolver); ok {
		return resolver
	}
	return e.errorResolver
}

// resolveError promotes the raw error on a result, if any, using the
// resolver selected for the computation.
func (e *Engine) resolveError(computation Computation, result *Result) (Error, error) {
	if result == nil || result.State().Err() == nil {
		return nil, nil
	}
	return e.resolverFor(computation).ResolveError(*result.State().Err())
}

// makeJob builds a snapshot for a job path. A nil result means the
// computation has never run: the snapshot gets a fresh state.
func (e *Engine) makeJob(jobPath JobPath, result *Result, resolved Error, computation Computation) *Job {
	var r Result
	if result == nil {
		r = Result{state: FreshState(e.clock())}
	} else {
		r = *result
	}
	state := NewComputationState(r.State(), jobPath.Identifier, jobPath.Path(), resolved)
	return NewJob(r, jobPath.JobName, computation, state)
}

// Run drives one invocation of a computation at a job path.
//
// The prior snapshot, if any, comes from the tracker. The computation's
// Execute is called with a fresh executor; any error or panic escaping it
// is converted into an UNHANDLED_FAILURE result using the serializer
// selected for the computation. The post-execution snapshot is appended to
// the path's status and returned. Failures never propagate out of Run.
//
// With WithoutExecuting, the pre-execution snapshot is returned untouched
// and nothing is recorded. With WithOverrideExecute, the override's Execute
// runs in place of the computation's, while serializer and resolver
// selection still use the addressed computation.
func (e *Engine) Run(ctx context.Context, jobPath JobPath, tracker *JobTracker, computation Computation, opts ...RunOption) *Job {
	var params runParams
	for _, opt := range opts {
		opt(&params)
	}

	status := tracker.JobStatus(jobPath)

	var resultBefore *Result
	if before := status.JobBefore(); before != nil {
		r := before.Result()
		resultBefore = &r
	}

	errBefore, resolveErr := e.resolveError(computation, resultBefore)
	jobPre := e.makeJob(jobPath, resultBefore, errBefore, computation)

	if params.withoutExecuting {
		return jobPre
	}

	e.emitEvent(jobPath, "run_start", nil)
	started := e.clock()

	var result Result
	if resolveErr != nil {
		// A stored error whose format the resolver does not recognise
		// terminates the chain in UNHANDLED_FAILURE.
		result = NewResults(jobPre.State()).UnhandledFailure(
			resolveErr, e.serializerFor(computation), unhandledAuditMessage)
		e.emitEvent(jobPath, "unhandled_failure", map[string]interface{}{"error": resolveErr.Error()})
	} else {
		intention := computation
		if params.override != nil {
			intention = params.override
		}
		result = e.invoke(ctx, intention, computation, jobPre, tracker, jobPath)
	}

	errAfter, resolveErrAfter := e.resolveError(computation, &result)
	if resolveErrAfter != nil {
		// When the resolver selected for the computation cannot resolve the
		// freshly serialized error (for example a custom serializer's format
		// with the default resolver), the snapshot carries no resolved error
		// and its exception is synthesized from the result state.
		errAfter = nil
	}

	jobPost := e.makeJob(jobPath, &result, errAfter, computation)
	status.AddExecution(jobPost)

	e.recordMetrics(result, e.clock().Sub(started))
	e.emitEvent(jobPath, "run_end", map[string]interface{}{
		"audit_message":   result.AuditMessage(),
		"execution_state": result.State().ExecutionState().String(),
		"result_state":    result.State().ResultState().String(),
	})

	return jobPost
}

// invoke calls Execute and converts any escape (returned error or panic)
// into an UNHANDLED_FAILURE result.
func (e *Engine) invoke(ctx context.Context, intention, computation Computation, jobPre *Job, tracker *JobTracker, jobPath JobPath) (result Result) {
	serializer := e.serializerFor(computation)

	defer func() {
		if recovered := recover(); recovered != nil {
			err, ok := recovered.(error)
			if !ok {
				err = fmt.Errorf("panic: %v", recovered)
			}
			result = NewResults(jobPre.State()).UnhandledFailure(err, serializer, unhandledAuditMessage)
			e.emitEvent(jobPath, "unhandled_failure", map[string]interface{}{"error": err.Error()})
		}
	}()

	executor := &ComputationExecutor{engine: e, tracker: tracker}
	out, err := intention.Execute(ctx, jobPre.State(), executor)
	if err != nil {
		e.emitEvent(jobPath, "unhandled_failure", map[string]interface{}{"error": err.Error()})
		return NewResults(jobPre.State()).UnhandledFailure(err, serializer, unhandledAuditMessage)
	}
	return out
}

func (e *Engine) emitEvent(jobPath JobPath, msg string, meta map[string]interface{}) {
	if e.emitter == nil {
		return
	}
	e.emitter.Emit(emit.Event{
		Workflow: jobPath.Identifier.String(),
		Path:     string(jobPath.Path().Key()),
		Msg:      msg,
		Meta:     meta,
	})
}

func (e *Engine) recordMetrics(result Result, elapsed time.Duration) {
	if e.metrics == nil {
		return
	}
	e.metrics.observeExecution(result.State().ResultState(), elapsed)
}

func (e *Engine) recordExternalInput() {
	if e.metrics == nil {
		return
	}
	e.metrics.observeExternalInput()
}
