package domain

import "fmt"

// JobStatus is the lifecycle state of a posting.
type JobStatus string

const (
	JobStatusDraft     JobStatus = "draft"
	JobStatusActive    JobStatus = "active"
	JobStatusPaused    JobStatus = "paused"
	JobStatusFilled    JobStatus = "filled"
	JobStatusCancelled JobStatus = "cancelled"
	JobStatusExpired   JobStatus = "expired"
)

// NonDraftStatuses are visible on an employer's public job list.
var NonDraftStatuses = []JobStatus{
	JobStatusActive,
	JobStatusPaused,
	JobStatusFilled,
	JobStatusCancelled,
	JobStatusExpired,
}

// validTransitions is the status graph of a posting:
//
//	draft ──► active ◄──► paused
//	            │           │
//	            │           └──► filled | cancelled
//	            └──► filled | cancelled | expired
//
// filled, cancelled and expired are terminal.
var validTransitions = map[JobStatus][]JobStatus{
	JobStatusDraft:  {JobStatusActive},
	JobStatusActive: {JobStatusPaused, JobStatusFilled, JobStatusCancelled, JobStatusExpired},
	JobStatusPaused: {JobStatusActive, JobStatusFilled, JobStatusCancelled},
}

// ParseJobStatus converts a raw string to a JobStatus.
func ParseJobStatus(s string) (JobStatus, error) {
	st := JobStatus(s)
	switch st {
	case JobStatusDraft, JobStatusActive, JobStatusPaused,
		JobStatusFilled, JobStatusCancelled, JobStatusExpired:
		return st, nil
	}
	return "", fmt.Errorf("unknown job status %q", s)
}

// CanTransition reports whether a posting may move from one status to another.
// Staying in the same status is always allowed.
func CanTransition(from, to JobStatus) bool {
	if from == to {
		return true
	}
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions leave s.
func IsTerminal(s JobStatus) bool {
	_, ok := validTransitions[s]
	return !ok
}
