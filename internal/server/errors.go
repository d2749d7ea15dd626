// Package server provides the HTTP REST API for the job board.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/jonathan/job-board/internal/access"
	"github.com/jonathan/job-board/internal/workflow"
)

// Error kinds reported in the "error" field of every error body.
const (
	KindValidation     = "validation"
	KindAuthentication = "authentication"
	KindAuthorization  = "authorization"
	KindNotFound       = "not_found"
	KindConflict       = "conflict"
	KindInternal       = "internal"

	// KindMethodNotAllowed is only produced by routing.
	KindMethodNotAllowed = "method_not_allowed"
)

// ErrEmailAlreadyExists indicates email is already registered
type ErrEmailAlreadyExists struct {
	Email string
}

func (e *ErrEmailAlreadyExists) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}

// ErrPasswordMismatch indicates current password is incorrect
type ErrPasswordMismatch struct{}

func (e *ErrPasswordMismatch) Error() string {
	return "current password is incorrect"
}

// ErrUnauthenticated indicates a missing, invalid or no longer usable identity.
type ErrUnauthenticated struct {
	Reason string
}

func (e *ErrUnauthenticated) Error() string {
	if e.Reason == "" {
		return "authentication required"
	}
	return e.Reason
}

// ErrNotFound indicates the addressed resource does not exist
type ErrNotFound struct {
	Resource string
	ID       uuid.UUID
}

func (e *ErrNotFound) Error() string {
	if e.ID == uuid.Nil {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrConflict indicates the request collides with existing state
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	return e.Message
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// ErrorKind returns the stable kind for err. Wrapped errors keep their kind.
func ErrorKind(err error) string {
	var (
		emailExists  *ErrEmailAlreadyExists
		conflict     *ErrConflict
		badCreds     *ErrInvalidCredentials
		mismatch     *ErrPasswordMismatch
		unauth       *ErrUnauthenticated
		forbidden    *access.ErrForbidden
		notFound     *ErrNotFound
		validation   *ErrValidation
		transitionEr *workflow.TransitionError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &validation), errors.As(err, &transitionEr):
		return KindValidation
	case errors.As(err, &badCreds), errors.As(err, &mismatch), errors.As(err, &unauth):
		return KindAuthentication
	case errors.As(err, &forbidden):
		return KindAuthorization
	case errors.As(err, &notFound):
		return KindNotFound
	case errors.As(err, &emailExists), errors.As(err, &conflict):
		return KindConflict
	default:
		return KindInternal
	}
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	switch ErrorKind(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case "":
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage is the message safe to show a client. Internal errors are not exposed.
func publicMessage(err error) string {
	if ErrorKind(err) == KindInternal {
		return "internal server error"
	}
	return err.Error()
}
