package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/job-board/internal/types"
)

// Application represents an application row, joined with the job title.
type Application struct {
	ID          uuid.UUID               `json:"id"`
	ApplicantID uuid.UUID               `json:"applicant_id" db:"applicant_id"`
	JobID       uuid.UUID               `json:"job_id" db:"job_id"`
	JobTitle    string                  `json:"job_title,omitempty"`
	ResumeLink  string                  `json:"resume_link" db:"resume_link"`
	CoverLetter *string                 `json:"cover_letter,omitempty" db:"cover_letter"`
	Status      types.ApplicationStatus `json:"status"`
	AppliedAt   time.Time               `json:"applied_at" db:"applied_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

// ApplicationCreateInput contains the fields needed to create an application.
type ApplicationCreateInput struct {
	ApplicantID uuid.UUID
	JobID       uuid.UUID
	ResumeLink  string
	CoverLetter *string
}

// ListApplicationsOptions contains filters for listing applications.
type ListApplicationsOptions struct {
	ApplicantID *uuid.UUID
	JobID       *uuid.UUID
	Status      *types.ApplicationStatus
	Limit       int
	Offset      int
}
