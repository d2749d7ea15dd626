// Package workflow holds the status transition tables for jobs and applications.
package workflow

import (
	"fmt"
	"strings"

	"github.com/jonathan/job-board/internal/types"
)

// jobTransitions lists, for each job status, the statuses it may move to next.
// Closed is terminal; a draft must be opened before it can be closed.
var jobTransitions = map[types.JobStatus][]types.JobStatus{
	types.JobStatusDraft:  {types.JobStatusOpen},
	types.JobStatusOpen:   {types.JobStatusClosed},
	types.JobStatusClosed: {},
}

// applicationTransitions lists, for each application status, the statuses it may move to next.
var applicationTransitions = map[types.ApplicationStatus][]types.ApplicationStatus{
	types.ApplicationStatusApplied:   {types.ApplicationStatusReviewed},
	types.ApplicationStatusReviewed:  {types.ApplicationStatusInterview, types.ApplicationStatusRejected, types.ApplicationStatusHired},
	types.ApplicationStatusInterview: {types.ApplicationStatusRejected, types.ApplicationStatusHired},
	types.ApplicationStatusRejected:  {},
	types.ApplicationStatusHired:     {},
}

// InitialJobStatuses are the statuses a job may be created with.
var InitialJobStatuses = []types.JobStatus{types.JobStatusDraft, types.JobStatusOpen}

// TransitionError reports a move the transition table does not allow. Allowed holds
// the statuses From may move to instead; it is empty when From is final.
type TransitionError struct {
	Entity  string
	From    string
	To      string
	Allowed []string
}

func (e *TransitionError) Error() string {
	msg := fmt.Sprintf("invalid %s status transition from %s to %s", e.Entity, e.From, e.To)
	if len(e.Allowed) == 0 {
		return msg + ": " + e.From + " is final"
	}
	return msg + " (allowed: " + strings.Join(e.Allowed, ", ") + ")"
}

func statusNames[S ~string](statuses []S) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// CanTransitionJob reports whether a job may move from one status to another.
func CanTransitionJob(from, to types.JobStatus) bool {
	for _, next := range jobTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckJobTransition returns a *TransitionError unless from -> to is allowed.
func CheckJobTransition(from, to types.JobStatus) error {
	if !CanTransitionJob(from, to) {
		return &TransitionError{Entity: "job", From: string(from), To: string(to), Allowed: statusNames(NextJobStatuses(from))}
	}
	return nil
}

// NextJobStatuses returns the statuses reachable from the given one in a single step.
func NextJobStatuses(from types.JobStatus) []types.JobStatus {
	return append([]types.JobStatus(nil), jobTransitions[from]...)
}

// CheckInitialJobStatus validates the status a new job is created with.
func CheckInitialJobStatus(status types.JobStatus) error {
	for _, s := range InitialJobStatuses {
		if s == status {
			return nil
		}
	}
	return fmt.Errorf("a job cannot be created with status %s", status)
}

// CanTransitionApplication reports whether an application may move from one status to another.
func CanTransitionApplication(from, to types.ApplicationStatus) bool {
	for _, next := range applicationTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckApplicationTransition returns a *TransitionError unless from -> to is allowed.
func CheckApplicationTransition(from, to types.ApplicationStatus) error {
	if !CanTransitionApplication(from, to) {
		return &TransitionError{
			Entity:  "application",
			From:    string(from),
			To:      string(to),
			Allowed: statusNames(NextApplicationStatuses(from)),
		}
	}
	return nil
}

// NextApplicationStatuses returns the statuses reachable from the given one in a single step.
func NextApplicationStatuses(from types.ApplicationStatus) []types.ApplicationStatus {
	return append([]types.ApplicationStatus(nil), applicationTransitions[from]...)
}
