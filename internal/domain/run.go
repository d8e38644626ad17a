package domain

import (
	"fmt"
	"strings"
	"time"
)

// RunStatus represents the terminal state of a report run.
type RunStatus string

const (
	RunStatusCompleted      RunStatus = "COMPLETED"
	RunStatusCompletedEmpty RunStatus = "COMPLETED_EMPTY"
)

func (s RunStatus) String() string { return string(s) }

func (s RunStatus) IsValid() bool {
	switch s {
	case RunStatusCompleted, RunStatusCompletedEmpty:
		return true
	}
	return false
}

func ParseRunStatusFromString(s string) (RunStatus, error) {
	st := RunStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid run status %q", ErrValidation, s)
	}
	return st, nil
}

// RunStats summarizes one completed report run. It is derived from the final
// batch, not tracked separately while the run is in flight.
type RunStats struct {
	RunID     string
	Status    RunStatus
	StartTime time.Time
	Duration  time.Duration
	TotalKeys int
	Succeeded int
	Failed    int
}
