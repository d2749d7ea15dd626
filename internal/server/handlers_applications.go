package server

import (
	"net/http"

	"github.com/jonathan/job-board/internal/types"
)

// ---------------------------------------------------------------------
// Application Handlers
// ---------------------------------------------------------------------

func (s *Server) handleSubmitApplication(w http.ResponseWriter, r *http.Request) {
	var req types.SubmitApplicationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	app, err := s.applicationService.Submit(r.Context(), actorID(r), &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, app)
}

func (s *Server) handleListMyApplications(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.applicationService.ListMine(r.Context(), actorID(r), applicationStatusParam(r), page)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

func (s *Server) handleListJobApplications(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathID(r, "job_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	page, err := parsePage(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.applicationService.ListByJob(r.Context(), actorID(r), jobID, applicationStatusParam(r), page)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	applicationID, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	app, err := s.applicationService.Get(r.Context(), actorID(r), applicationID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, app)
}

func (s *Server) handleUpdateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	applicationID, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req types.UpdateApplicationStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	app, err := s.applicationService.UpdateStatus(r.Context(), actorID(r), applicationID, &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, app)
}

func (s *Server) handleWithdrawApplication(w http.ResponseWriter, r *http.Request) {
	applicationID, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.applicationService.Withdraw(r.Context(), actorID(r), applicationID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
