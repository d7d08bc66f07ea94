package compute

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_RecordsExecutions(t *testing.T) {
	ctx := context.Background()
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)
	engine := NewEngine(WithMetrics(metrics))
	tracker := NewJobTracker(nil)

	succeed := ComputationFunc(func(_ context.Context, state ComputationState, _ *ComputationExecutor) (Result, error) {
		return NewResults(state).Success("finished"), nil
	})
	fail := ComputationFunc(func(context.Context, ComputationState, *ComputationExecutor) (Result, error) {
		return Result{}, errors.New("boom")
	})

	engine.Run(ctx, mustJobPath(t, "w1", nil, "ok"), tracker, succeed)
	engine.Run(ctx, mustJobPath(t, "w1", nil, "bad"), tracker, fail)

	if got := testutil.ToFloat64(metrics.executions.WithLabelValues("SUCCESS")); got != 1 {
		t.Errorf("expected one SUCCESS execution, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.executions.WithLabelValues("UNHANDLED_FAILURE")); got != 1 {
		t.Errorf("expected one UNHANDLED_FAILURE execution, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.unhandledFailures); got != 1 {
		t.Errorf("expected one unhandled failure, got %v", got)
	}

	if got := testutil.CollectAndCount(metrics.executionSeconds); got == 0 {
		t.Error("expected execution durations observed")
	}
}

func TestMetrics_RecordsExternalInputs(t *testing.T) {
	ctx := context.Background()
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)
	engine := NewEngine(WithMetrics(metrics))
	tracker := NewJobTracker(nil)

	resolver := ExternalInputResolverFunc[string](func(context.Context) (string, error) {
		return "value", nil
	})

	computation := ComputationFunc(func(callCtx context.Context, state ComputationState, executor *ComputationExecutor) (Result, error) {
		path, err := state.ExternalInputPath("answer")
		if err != nil {
			return Result{}, err
		}
		if _, err := ResolveExternalInput(callCtx, executor, path, resolver); err != nil {
			return Result{}, err
		}
		return NewResults(state).Success("resolved"), nil
	})

	engine.Run(ctx, mustJobPath(t, "w1", nil, "j1"), tracker, computation)
	engine.Run(ctx, mustJobPath(t, "w1", nil, "j2"), tracker, computation)

	if got := testutil.ToFloat64(metrics.externalInputs); got != 2 {
		t.Errorf("expected two external input resolutions recorded, got %v", got)
	}
}

func TestMetrics_DisabledByDefault(t *testing.T) {
	engine := NewEngine()
	tracker := NewJobTracker(nil)

	// Without metrics attached a run must not panic.
	engine.Run(context.Background(), mustJobPath(t, "w1", nil, "j1"), tracker,
		ComputationFunc(func(_ context.Context, state ComputationState, _ *ComputationExecutor) (Result, error) {
			return NewResults(state).Success("finished"), nil
		}))
}
