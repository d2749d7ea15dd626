package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/job-board/internal/access"
	"github.com/jonathan/job-board/internal/db"
	"github.com/jonathan/job-board/internal/types"
)

// Page limits for list endpoints.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PageParams selects one page of a listing. Number is 1-based.
type PageParams struct {
	Number int
	Size   int
}

// DefaultPage is the first page at the default size.
func DefaultPage() PageParams {
	return PageParams{Number: 1, Size: DefaultPageSize}
}

// Validate rejects page numbers below 1 and sizes outside 1..MaxPageSize.
func (p PageParams) Validate() error {
	if p.Number < 1 {
		return &ErrValidation{Field: "page_number", Message: "must be at least 1"}
	}
	if p.Size < 1 || p.Size > MaxPageSize {
		return &ErrValidation{Field: "page_size", Message: fmt.Sprintf("must be between 1 and %d", MaxPageSize)}
	}
	return nil
}

// Offset is the number of rows before this page.
func (p PageParams) Offset() int {
	return (p.Number - 1) * p.Size
}

func newPage[T any](items []T, p PageParams, total int) *types.Page[T] {
	if items == nil {
		items = []T{}
	}
	return &types.Page[T]{Items: items, PageNumber: p.Number, PageSize: p.Size, TotalSize: total}
}

// resolveActor loads the caller so that deactivated or deleted accounts lose access
// immediately, whatever their token says. uuid.Nil is the anonymous caller.
func resolveActor(ctx context.Context, tx DBClient, userID uuid.UUID) (access.Actor, *db.User, error) {
	if userID == uuid.Nil {
		return access.Anonymous, nil, nil
	}
	u, err := tx.GetUser(ctx, userID)
	if err != nil {
		return access.Actor{}, nil, fmt.Errorf("failed to load caller: %w", err)
	}
	if u == nil || !u.IsActive {
		return access.Actor{}, nil, &ErrUnauthenticated{Reason: "account is missing or deactivated"}
	}
	return access.Actor{ID: u.ID, Role: u.Role}, u, nil
}

// checkRole rejects an actor whose role can never perform action. Anonymous callers get
// an authentication error rather than an authorization one.
func checkRole(actor access.Actor, action access.Action) error {
	if access.RoleMayAttempt(actor.Role, action) {
		return nil
	}
	if actor.Role == types.RoleAnonymous {
		return &ErrUnauthenticated{}
	}
	return access.CheckRole(actor, action)
}

// validationError converts validator output into *ErrValidation.
func validationError(err error) error {
	fe := types.DescribeValidationError(err)
	return &ErrValidation{Field: fe.Field, Message: fe.Message}
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, db.ErrUniqueViolation)
}

// convertDBUserToTypesUser converts db.User to types.User, excluding password hash
func convertDBUserToTypesUser(u *db.User) *types.User {
	if u == nil {
		return nil
	}
	return &types.User{
		ID:         u.ID,
		FullName:   u.FullName,
		Email:      u.Email,
		Role:       u.Role,
		IsActive:   u.IsActive,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

func convertDBJob(j *db.Job) *types.Job {
	if j == nil {
		return nil
	}
	return &types.Job{
		ID:          j.ID,
		Title:       j.Title,
		Description: j.Description,
		Location:    j.Location,
		Status:      j.Status,
		CreatedBy:   j.CreatedBy,
		CompanyName: j.CompanyName,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

func convertDBApplication(a *db.Application) *types.Application {
	if a == nil {
		return nil
	}
	return &types.Application{
		ID:          a.ID,
		ApplicantID: a.ApplicantID,
		JobID:       a.JobID,
		JobTitle:    a.JobTitle,
		ResumeLink:  a.ResumeLink,
		CoverLetter: a.CoverLetter,
		Status:      a.Status,
		AppliedAt:   a.AppliedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}
