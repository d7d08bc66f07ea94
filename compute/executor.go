package compute

import (
	"context"

	"github.com/delfick/workflows-engine/compute/emit"
)

// ComputationExecutor is the restricted facade the Engine hands to a
// computation while it executes: it can run child computations and resolve
// external inputs, nothing else.
//
// The executor is a per-run capability. It must not be stored beyond the
// Execute call that received it.
type ComputationExecutor struct {
	engine  *Engine
	tracker *JobTracker
}

// Run dispatches a child computation at a job path and returns its
// post-execution snapshot. Accepts the same options as Engine.Run.
func (x *ComputationExecutor) Run(ctx context.Context, jobPath JobPath, computation Computation, opts ...RunOption) *Job {
	return x.engine.Run(ctx, jobPath, x.tracker, computation, opts...)
}

// GetWithoutExecuting returns the child's pre-execution snapshot without
// invoking it.
func (x *ComputationExecutor) GetWithoutExecuting(ctx context.Context, jobPath JobPath, computation Computation) *Job {
	return x.engine.Run(ctx, jobPath, x.tracker, computation, WithoutExecuting())
}

// ResolveExternalInput fetches external input through the executor. The
// engine keeps no state about it; any resolution failure propagates to the
// calling computation.
func ResolveExternalInput[T any](ctx context.Context, x *ComputationExecutor, path ExternalInputPath, resolver ExternalInputResolver[T]) (T, error) {
	x.engine.recordExternalInput()
	if x.engine.emitter != nil {
		x.engine.emitter.Emit(emit.Event{
			Workflow: path.Identifier.String(),
			Msg:      "external_input",
			Meta:     map[string]interface{}{"external_input_name": path.ExternalInputName},
		})
	}
	return resolver.Resolve(ctx)
}
