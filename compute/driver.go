package compute

import (
	"context"
	"fmt"
	"time"
)

// Driver connects an Engine to a Storage: it owns the
// load → lock → run → save loop for whole workflows.
//
// A single Driver may be used from many goroutines; per-workflow
// consistency comes from holding the workflow lock for the entire
// read-modify-write region of RunWorkflow.
type Driver struct {
	engine  *Engine
	storage Storage
	clock   func() time.Time
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithDriverClock replaces the time source used for schedule aggregation.
// Intended for tests.
func WithDriverClock(clock func() time.Time) DriverOption {
	return func(d *Driver) { d.clock = clock }
}

// NewDriver creates a driver over an engine and a storage.
func NewDriver(engine *Engine, storage Storage, opts ...DriverOption) *Driver {
	d := &Driver{engine: engine, storage: storage, clock: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register persists a brand new workflow and returns its identifier.
func (d *Driver) Register(ctx context.Context, saver NewWorkflowSaver) (WorkflowIdentifier, error) {
	return d.storage.StoreNewWorkflow(ctx, saver)
}

// RunWorkflow drives one tick of a workflow: under the workflow lock it
// hydrates the tracker from storage, runs the root computation at
// rootJobName, merges every touched status back into stored infos and
// persists them together with refreshed workflow information. The
// aggregated scheduling hints on the saved information are recomputed from
// the tracker so a scheduler can pick the next wake-up time.
func (d *Driver) RunWorkflow(ctx context.Context, identifier WorkflowIdentifier, loader WorkflowLoader, rootJobName string) (*Job, error) {
	jobPath, err := NewJobPath(identifier, nil, rootJobName)
	if err != nil {
		return nil, err
	}

	release, err := d.storage.HoldWorkflowLock(ctx, identifier)
	if err != nil {
		return nil, err
	}
	defer release()

	information, err := d.storage.RetrieveWorkflowInformation(ctx, identifier)
	if err != nil {
		return nil, err
	}

	saver, computation, err := loader.FromStorage(identifier, information.Information)
	if err != nil {
		return nil, fmt.Errorf("hydrating workflow %s: %w", identifier, err)
	}

	stored, err := d.storage.RetrieveComputations(ctx, identifier)
	if err != nil {
		return nil, err
	}

	tracker := TrackerFromStored(identifier, stored)
	job := d.engine.Run(ctx, jobPath, tracker, computation)

	updates := make(map[PathKey]StoredInfo)
	for key, status := range tracker.Updated() {
		latest := status.LatestExecution()
		if latest == nil {
			continue
		}
		base, ok := stored[key]
		if !ok {
			base = NewStoredInfo(latest.Result().State())
		}
		updates[key] = base.Merge(latest.Result())
	}
	if err := d.storage.UpsertComputations(ctx, identifier, updates); err != nil {
		return nil, err
	}

	saved, err := saver.ForStorage(identifier, job, tracker, information)
	if err != nil {
		return nil, fmt.Errorf("saving workflow %s: %w", identifier, err)
	}

	now := d.clock()
	saved.EarliestDueAt = nil
	if due, ok := tracker.EarliestDueAt(now, now); ok {
		saved.EarliestDueAt = &due
	}
	saved.EarliestNextScheduleAt = nil
	if next, ok := tracker.EarliestNextScheduleAt(now, now); ok {
		saved.EarliestNextScheduleAt = &next
	}

	if err := d.storage.UpsertWorkflowInformation(ctx, identifier, saved); err != nil {
		return nil, err
	}
	return job, nil
}

// TrackerFromStored builds the run tracker over what storage knows: each
// stored path becomes a status whose pre-run snapshot carries the stored
// state. The snapshot's computation is nil; the engine only reads the
// snapshot's result.
func TrackerFromStored(identifier WorkflowIdentifier, stored map[PathKey]StoredInfo) *JobTracker {
	start := make(map[PathKey]*JobStatus, len(stored))
	for key, info := range stored {
		path := ParsePathKey(key)
		name := path[len(path)-1]

		state := info.State()
		result := Result{
			state:                state,
			dueAt:                state.DueAt(),
			scheduleNextLatestAt: state.ScheduleNextLatestAt(),
		}
		jobBefore := NewJob(result, name, nil, NewComputationState(state, identifier, path, nil))
		start[key] = NewJobStatus(name, jobBefore)
	}
	return NewJobTracker(start)
}
