package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/jonathan/job-board/internal/server/middleware"
	"github.com/jonathan/job-board/internal/types"
)

// decodeJSON reads a single JSON object from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return &ErrValidation{Field: "body", Message: "request body is empty"}
		case errors.As(err, &maxErr):
			return &ErrValidation{Field: "body", Message: "request body is too large"}
		default:
			return &ErrValidation{Field: "body", Message: "invalid JSON body"}
		}
	}
	if dec.More() {
		return &ErrValidation{Field: "body", Message: "request body must contain a single JSON object"}
	}
	return nil
}

// pathID parses the named path wildcard as a UUID.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, &ErrValidation{Field: name, Message: "must be a valid UUID"}
	}
	return id, nil
}

// actorID returns the authenticated caller, or uuid.Nil for anonymous requests.
func actorID(r *http.Request) uuid.UUID {
	id, err := middleware.GetUserID(r)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// parsePage reads page_number and page_size from the query string.
func parsePage(r *http.Request) (PageParams, error) {
	page := DefaultPage()
	q := r.URL.Query()

	if raw := q.Get("page_number"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return page, &ErrValidation{Field: "page_number", Message: "must be an integer"}
		}
		page.Number = n
	}
	if raw := q.Get("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return page, &ErrValidation{Field: "page_size", Message: "must be an integer"}
		}
		page.Size = n
	}
	return page, page.Validate()
}

func jobStatusParam(r *http.Request) *types.JobStatus {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		return nil
	}
	status := types.JobStatus(raw)
	return &status
}

func applicationStatusParam(r *http.Request) *types.ApplicationStatus {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		return nil
	}
	status := types.ApplicationStatus(raw)
	return &status
}
