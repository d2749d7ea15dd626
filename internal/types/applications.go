package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SubmitApplicationRequest represents an applicant's application to an open job.
type SubmitApplicationRequest struct {
	JobID       uuid.UUID `json:"job_id" validate:"required"`
	ResumeLink  string    `json:"resume_link" validate:"required,max=500,httpurl"`
	CoverLetter *string   `json:"cover_letter,omitempty" validate:"omitempty,max=200"`
}

// Normalize trims the resume link and drops an empty cover letter.
func (r *SubmitApplicationRequest) Normalize() {
	r.ResumeLink = strings.TrimSpace(r.ResumeLink)
	r.CoverLetter = trimOptional(r.CoverLetter)
}

// Validate validates the SubmitApplicationRequest.
func (r *SubmitApplicationRequest) Validate() error {
	return Validator().Struct(r)
}

// UpdateApplicationStatusRequest asks to move an application to a new status.
type UpdateApplicationStatusRequest struct {
	Status ApplicationStatus `json:"status" validate:"required,oneof=Applied Reviewed Interview Rejected Hired"`
}

// Validate validates the UpdateApplicationStatusRequest.
func (r *UpdateApplicationStatusRequest) Validate() error {
	return Validator().Struct(r)
}

// Application represents an application for API responses.
type Application struct {
	ID          uuid.UUID         `json:"id"`
	ApplicantID uuid.UUID         `json:"applicant_id"`
	JobID       uuid.UUID         `json:"job_id"`
	JobTitle    string            `json:"job_title,omitempty"`
	ResumeLink  string            `json:"resume_link"`
	CoverLetter *string           `json:"cover_letter"`
	Status      ApplicationStatus `json:"status"`
	AppliedAt   time.Time         `json:"applied_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}
