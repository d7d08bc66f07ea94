// Package compute provides the core execution engine for durable,
// resumable, hierarchical computations.
//
// A workflow is the root of a logical unit of work, identified by a stable
// WorkflowIdentifier. Under it, computations are addressed by paths. Each
// invocation of a computation inspects its persisted state and the state of
// its direct children, decides what to do, optionally schedules child
// computations or requests external inputs, and returns a Result describing
// its new state. The Engine re-entrantly drives computations one invocation
// at a time; Storage persists state transitions atomically per workflow.
package compute

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// WorkflowIdentifier is an opaque wrapper around the string identifying a
// workflow. It exists so it is harder to pass around the wrong strings, and
// is comparable so it can be used as a map key.
type WorkflowIdentifier string

// String returns the underlying identifier string.
func (w WorkflowIdentifier) String() string { return string(w) }

// NewIdentifierString returns a new globally unique identifier string.
// Used by Storage implementations when registering workflows.
func NewIdentifierString() string {
	return uuid.NewString()
}

// nameRegexp matches a single valid path segment: ASCII letters, digits,
// underscore and hyphen. Dots and whitespace are excluded, empty is rejected.
var nameRegexp = regexp.MustCompile(`^[0-9A-Za-z_-]+$`)

func validName(name string) bool {
	return nameRegexp.MatchString(name)
}

// Path is an ordered sequence of validated name segments addressing a
// computation under a workflow.
type Path []string

// PathKey is the comparable form of a Path, usable as a map key. Segments
// are joined with "." which is safe because the segment grammar forbids dots.
type PathKey string

// Key returns the comparable form of the path.
func (p Path) Key() PathKey {
	return PathKey(strings.Join(p, "."))
}

// ParsePathKey reconstructs a Path from its comparable form.
func ParsePathKey(key PathKey) Path {
	if key == "" {
		return Path{}
	}
	return Path(strings.Split(string(key), "."))
}

// HasPrefix reports whether p starts with the given prefix.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i, segment := range prefix {
		if p[i] != segment {
			return false
		}
	}
	return true
}

// JobPath keeps track of the name of the next job and the path leading up
// to it. The full path of the job is Prefix followed by JobName.
type JobPath struct {
	Identifier WorkflowIdentifier
	Prefix     Path
	JobName    string
}

// NewJobPath validates the job name and constructs a JobPath.
// Returns InvalidJobNameError when the name does not match the segment
// grammar.
func NewJobPath(identifier WorkflowIdentifier, prefix Path, jobName string) (JobPath, error) {
	if !validName(jobName) {
		return JobPath{}, &InvalidJobNameError{Wanted: jobName}
	}
	return JobPath{Identifier: identifier, Prefix: prefix, JobName: jobName}, nil
}

// Path returns the full path of the job: the prefix plus the job name.
func (jp JobPath) Path() Path {
	path := make(Path, 0, len(jp.Prefix)+1)
	path = append(path, jp.Prefix...)
	return append(path, jp.JobName)
}

// ExternalInputPath represents a path to external input under a workflow.
type ExternalInputPath struct {
	Identifier        WorkflowIdentifier
	ExternalInputName string
}

// NewExternalInputPath validates the external input name and constructs an
// ExternalInputPath. Returns InvalidExternalInputNameError when the name
// does not match the segment grammar.
func NewExternalInputPath(identifier WorkflowIdentifier, externalInputName string) (ExternalInputPath, error) {
	if !validName(externalInputName) {
		return ExternalInputPath{}, &InvalidExternalInputNameError{Wanted: externalInputName}
	}
	return ExternalInputPath{Identifier: identifier, ExternalInputName: externalInputName}, nil
}
