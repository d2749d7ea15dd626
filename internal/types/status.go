// Package types provides type definitions for structured data used throughout the job board.
package types

// Role identifies what kind of account a user holds. Roles are fixed at signup.
type Role string

// Roles known to the system. RoleAnonymous is never stored; it describes a caller
// without a valid token.
const (
	RoleAnonymous Role = "anonymous"
	RoleCompany   Role = "company"
	RoleApplicant Role = "applicant"
)

// Valid reports whether r is a role a user can register with.
func (r Role) Valid() bool {
	return r == RoleCompany || r == RoleApplicant
}

// JobStatus is the lifecycle state of a job posting.
type JobStatus string

// Job statuses.
const (
	JobStatusDraft  JobStatus = "Draft"
	JobStatusOpen   JobStatus = "Open"
	JobStatusClosed JobStatus = "Closed"
)

// Valid reports whether s is a known job status.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusDraft, JobStatusOpen, JobStatusClosed:
		return true
	}
	return false
}

// ApplicationStatus is the review state of an application.
type ApplicationStatus string

// Application statuses.
const (
	ApplicationStatusApplied   ApplicationStatus = "Applied"
	ApplicationStatusReviewed  ApplicationStatus = "Reviewed"
	ApplicationStatusInterview ApplicationStatus = "Interview"
	ApplicationStatusRejected  ApplicationStatus = "Rejected"
	ApplicationStatusHired     ApplicationStatus = "Hired"
)

// Valid reports whether s is a known application status.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationStatusApplied, ApplicationStatusReviewed, ApplicationStatusInterview,
		ApplicationStatusRejected, ApplicationStatusHired:
		return true
	}
	return false
}

// Pending reports whether the application has not reached interview or a final decision.
func (s ApplicationStatus) Pending() bool {
	return s == ApplicationStatusApplied || s == ApplicationStatusReviewed
}
