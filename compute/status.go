package compute

import "time"

// JobStatus bundles everything known about one path during a run: the
// snapshot loaded from storage before the run (may be nil) and the
// append-only log of executions performed during the run.
type JobStatus struct {
	name       string
	jobBefore  *Job
	executions []*Job
}

// NewJobStatus creates a status for a job name with an optional pre-run
// snapshot.
func NewJobStatus(name string, jobBefore *Job) *JobStatus {
	return &JobStatus{name: name, jobBefore: jobBefore}
}

// Name returns the job name this status is for.
func (s *JobStatus) Name() string { return s.name }

// JobBefore returns the pre-run snapshot from persisted storage, or nil.
func (s *JobStatus) JobBefore() *Job { return s.jobBefore }

// Executions returns a copy of the execution log for this run, in append
// order.
func (s *JobStatus) Executions() []*Job {
	out := make([]*Job, len(s.executions))
	copy(out, s.executions)
	return out
}

// AddExecution appends a job to the execution log.
func (s *JobStatus) AddExecution(job *Job) {
	s.executions = append(s.executions, job)
}

// LatestExecution returns the most recently appended job, or nil when the
// log is empty.
func (s *JobStatus) LatestExecution() *Job {
	if len(s.executions) == 0 {
		return nil
	}
	return s.executions[len(s.executions)-1]
}

// Clone returns a status with the same name and pre-run snapshot and its
// own execution list holding the same entries. Appends to either copy do
// not affect the other.
func (s *JobStatus) Clone() *JobStatus {
	clone := NewJobStatus(s.name, s.jobBefore)
	for _, job := range s.executions {
		clone.AddExecution(job)
	}
	return clone
}

// EarliestDueAt resolves the due hint of the latest execution. Durations
// resolve against deltaBaseFrom; instants before mustBeGreaterThan are
// filtered out. Returns false when there is no contribution.
func (s *JobStatus) EarliestDueAt(deltaBaseFrom, mustBeGreaterThan time.Time) (time.Time, bool) {
	latest := s.LatestExecution()
	if latest == nil {
		return time.Time{}, false
	}
	return latest.Result().DueAt().Resolve(deltaBaseFrom, mustBeGreaterThan)
}

// EarliestNextScheduleAt resolves the schedule-next hint of the latest
// execution with the same rules as EarliestDueAt.
func (s *JobStatus) EarliestNextScheduleAt(deltaBaseFrom, mustBeGreaterThan time.Time) (time.Time, bool) {
	latest := s.LatestExecution()
	if latest == nil {
		return time.Time{}, false
	}
	return latest.Result().ScheduleNextLatestAt().Resolve(deltaBaseFrom, mustBeGreaterThan)
}

// UnboundedLevels disables the depth filter on JobTracker.Jobs.
const UnboundedLevels = -1

// JobTracker is the in-memory per-run tree of job statuses, keyed by path.
// It holds the statuses loaded from storage at the start of the run and the
// statuses touched during the run; touched statuses shadow loaded ones.
//
// A tracker belongs to a single run and is not safe for concurrent
// mutation.
type JobTracker struct {
	startJobs map[PathKey]*JobStatus
	addedJobs map[PathKey]*JobStatus
}

// NewJobTracker creates a tracker over the statuses known at the start of
// the run. startJobs may be nil.
func NewJobTracker(startJobs map[PathKey]*JobStatus) *JobTracker {
	start := make(map[PathKey]*JobStatus, len(startJobs))
	for key, status := range startJobs {
		start[key] = status
	}
	return &JobTracker{
		startJobs: start,
		addedJobs: make(map[PathKey]*JobStatus),
	}
}

// Jobs returns the union of loaded and touched statuses (touched wins),
// filtered to paths under the given prefix whose remaining depth is at most
// maxLevels. Pass UnboundedLevels to disable the depth filter.
func (t *JobTracker) Jobs(path Path, maxLevels int) map[PathKey]*JobStatus {
	merged := make(map[PathKey]*JobStatus, len(t.startJobs)+len(t.addedJobs))
	for key, status := range t.startJobs {
		merged[key] = status
	}
	for key, status := range t.addedJobs {
		merged[key] = status
	}

	result := make(map[PathKey]*JobStatus)
	for key, status := range merged {
		candidate := ParsePathKey(key)
		if !candidate.HasPrefix(path) {
			continue
		}
		remainder := len(candidate) - len(path)
		if remainder > 0 && (maxLevels == UnboundedLevels || remainder <= maxLevels) {
			result[key] = status
		}
	}
	return result
}

// JobStatus returns the status for a job path, creating it if needed. A
// status loaded from storage is cloned on first touch so the loaded
// snapshot stays untouched for the rest of the run.
func (t *JobTracker) JobStatus(jobPath JobPath) *JobStatus {
	key := jobPath.Path().Key()

	if status, ok := t.addedJobs[key]; ok {
		return status
	}

	if status, ok := t.startJobs[key]; ok {
		clone := status.Clone()
		t.addedJobs[key] = clone
		return clone
	}

	status := NewJobStatus(jobPath.JobName, nil)
	t.addedJobs[key] = status
	return status
}

// Updated returns a copy of the statuses touched during this run, keyed by
// path. Hosts persist these after the run completes.
func (t *JobTracker) Updated() map[PathKey]*JobStatus {
	out := make(map[PathKey]*JobStatus, len(t.addedJobs))
	for key, status := range t.addedJobs {
		out[key] = status
	}
	return out
}

func (t *JobTracker) earliest(
	deltaBaseFrom, mustBeGreaterThan time.Time,
	get func(*JobStatus, time.Time, time.Time) (time.Time, bool),
) (time.Time, bool) {
	var earliest time.Time
	found := false
	for _, status := range t.Jobs(nil, UnboundedLevels) {
		at, ok := get(status, deltaBaseFrom, mustBeGreaterThan)
		if !ok {
			continue
		}
		if !found || at.Before(earliest) {
			earliest = at
			found = true
		}
	}
	return earliest, found
}

// EarliestDueAt returns the minimum resolved due hint over every status in
// the tree, or false when no status contributes one.
func (t *JobTracker) EarliestDueAt(deltaBaseFrom, mustBeGreaterThan time.Time) (time.Time, bool) {
	return t.earliest(deltaBaseFrom, mustBeGreaterThan, (*JobStatus).EarliestDueAt)
}

// EarliestNextScheduleAt returns the minimum resolved schedule-next hint
// over every status in the tree, or false when no status contributes one.
func (t *JobTracker) EarliestNextScheduleAt(deltaBaseFrom, mustBeGreaterThan time.Time) (time.Time, bool) {
	return t.earliest(deltaBaseFrom, mustBeGreaterThan, (*JobStatus).EarliestNextScheduleAt)
}
