package server

import (
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/jonathan/job-board/internal/types"
	"github.com/sirupsen/logrus"
)

// ---------------------------------------------------------------------
// User Handlers
// ---------------------------------------------------------------------

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req types.SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, token, err := s.userService.Register(r.Context(), &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := types.SignupResponse{User: user}
	if s.cfg.Debug {
		resp.VerificationToken = token
	} else {
		s.logVerificationLink(user.ID, token)
	}
	s.jsonResponse(w, http.StatusCreated, resp)
}

// logVerificationLink stands in for email delivery, which happens outside this service.
func (s *Server) logVerificationLink(userID uuid.UUID, token string) {
	link := s.cfg.PublicBaseURL + APIBasePath + "/users/verify-email?token=" + url.QueryEscape(token)
	s.logger.WithFields(logrus.Fields{"user_id": userID, "link": link}).Info("email verification link issued")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	resp, err := s.userService.Login(r.Context(), &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req types.RefreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	resp, err := s.userService.Refresh(r.Context(), &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	user, err := s.userService.VerifyEmail(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, user)
}

func (s *Server) handleResendVerification(w http.ResponseWriter, r *http.Request) {
	var req types.ResendVerificationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	userID, token, err := s.userService.ResendVerification(r.Context(), &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := types.MessageResponse{Message: "If the account exists and is not yet verified, a verification email has been sent."}
	if token != "" {
		if s.cfg.Debug {
			resp.VerificationToken = token
		} else {
			s.logVerificationLink(userID, token)
		}
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.userService.Me(r.Context(), actorID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, user)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.userService.GetUser(r.Context(), actorID(r), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, user)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req types.UpdateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.userService.UpdateUser(r.Context(), actorID(r), userID, &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, user)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req types.ChangePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.userService.ChangePassword(r.Context(), actorID(r), userID, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, types.MessageResponse{Message: "Password updated successfully"})
}

func (s *Server) handleDeactivateUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.userService.Deactivate(r.Context(), actorID(r), userID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
