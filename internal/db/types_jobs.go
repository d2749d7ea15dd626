package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/job-board/internal/types"
)

// Job represents a job posting row, joined with its owner's name.
type Job struct {
	ID          uuid.UUID       `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Location    *string         `json:"location,omitempty"`
	Status      types.JobStatus `json:"status"`
	CreatedBy   uuid.UUID       `json:"created_by" db:"created_by"`
	CompanyName string          `json:"company_name,omitempty"` // users.full_name of CreatedBy
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// JobCreateInput contains the fields needed to create a job.
type JobCreateInput struct {
	Title       string
	Description string
	Location    *string
	Status      types.JobStatus
	CreatedBy   uuid.UUID
}

// ListJobsOptions contains filters for listing jobs. Text filters are case-insensitive
// substring matches.
type ListJobsOptions struct {
	Title       string
	Location    string
	CompanyName string
	Status      *types.JobStatus
	CreatedBy   *uuid.UUID
	Limit       int
	Offset      int
}
