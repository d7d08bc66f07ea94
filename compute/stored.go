package compute

import "encoding/json"

// StoredInfo is the persistence wrapper around a computation's State. It is
// what Storage holds per path, and Merge is the only sanctioned way a
// Result flows back into stored state.
type StoredInfo struct {
	state State
}

// NewStoredInfo wraps a state for storage.
func NewStoredInfo(state State) StoredInfo {
	return StoredInfo{state: state}
}

// State returns the wrapped state.
func (si StoredInfo) State() State { return si.state }

// Merge folds a Result into the stored state: error, execution state and
// result state come from the result's state; the scheduling hints come from
// the result itself (a "not given" hint preserves the stored one). The
// original createdAt always survives.
func (si StoredInfo) Merge(result Result) StoredInfo {
	return StoredInfo{state: si.state.Clone(
		WithError(result.State().Err()),
		WithExecutionState(result.State().ExecutionState()),
		WithResultState(result.State().ResultState()),
		WithDueAt(result.DueAt()),
		WithScheduleNextLatestAt(result.ScheduleNextLatestAt()),
	)}
}

// MarshalJSON encodes the stored info for SQL-backed storages.
func (si StoredInfo) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		State State `json:"state"`
	}{State: si.state})
}

// UnmarshalJSON decodes a stored info encoded by MarshalJSON.
func (si *StoredInfo) UnmarshalJSON(data []byte) error {
	var wire struct {
		State State `json:"state"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	si.state = wire.State
	return nil
}
