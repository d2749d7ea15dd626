package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// CreateJobRequest represents a company's request to post a job.
type CreateJobRequest struct {
	Title       string    `json:"title" validate:"required,max=100"`
	Description string    `json:"description" validate:"required,min=20,max=2000"`
	Location    *string   `json:"location,omitempty" validate:"omitempty,max=255"`
	Status      JobStatus `json:"status,omitempty" validate:"omitempty,oneof=Draft Open Closed"`
}

// Normalize trims text fields and drops an empty location.
func (r *CreateJobRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.Location = trimOptional(r.Location)
}

// Validate validates the CreateJobRequest.
func (r *CreateJobRequest) Validate() error {
	return Validator().Struct(r)
}

// UpdateJobRequest carries the fields a job owner may change. Nil fields are left unchanged.
type UpdateJobRequest struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=1,max=100"`
	Description *string    `json:"description,omitempty" validate:"omitempty,min=20,max=2000"`
	Location    *string    `json:"location,omitempty" validate:"omitempty,max=255"`
	Status      *JobStatus `json:"status,omitempty" validate:"omitempty,oneof=Draft Open Closed"`
}

// Normalize trims the provided text fields.
func (r *UpdateJobRequest) Normalize() {
	if r.Title != nil {
		v := strings.TrimSpace(*r.Title)
		r.Title = &v
	}
	if r.Description != nil {
		v := strings.TrimSpace(*r.Description)
		r.Description = &v
	}
	if r.Location != nil {
		v := strings.TrimSpace(*r.Location)
		r.Location = &v
	}
}

// Validate validates the UpdateJobRequest.
func (r *UpdateJobRequest) Validate() error {
	return Validator().Struct(r)
}

// Job represents a job posting for API responses.
type Job struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    *string   `json:"location"`
	Status      JobStatus `json:"status"`
	CreatedBy   uuid.UUID `json:"created_by"`
	CompanyName string    `json:"company_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Page is one page of a filtered, paginated listing.
type Page[T any] struct {
	Items      []T `json:"items"`
	PageNumber int `json:"page_number"`
	PageSize   int `json:"page_size"`
	TotalSize  int `json:"total_size"`
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
