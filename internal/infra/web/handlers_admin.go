package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"intake-review/internal/domain"
	"intake-review/internal/domain/model"
	"intake-review/internal/usecase"
)

type listResponse[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}

func list[T any](items []T) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Data: items, Total: len(items)}
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	p, err := s.profiles.Privileges(r.Context(), callerFrom(r.Context()))
	if err != nil {
		s.fail(w, r, err, "load privileges")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ===== Applications =====

func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	var filter model.ApplicationFilter
	if v := r.URL.Query().Get("status"); v != "" {
		st, err := model.ParseApplicationStatus(v)
		if err != nil {
			s.fail(w, r, (&domain.ValidationError{}).Add("status", "must be SUBMITTED, APPROVED or REJECTED"), "list applications")
			return
		}
		filter.Status = &st
	}
	apps, err := s.apps.List(r.Context(), callerFrom(r.Context()), filter)
	if err != nil {
		s.fail(w, r, err, "list applications")
		return
	}
	writeJSON(w, http.StatusOK, list(apps))
}

func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	app, err := s.apps.Get(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err, "load application")
		return
	}
	writeJSON(w, http.StatusOK, app)
}

type statusRequest struct {
	Status *model.ApplicationStatus `json:"status"`
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, (&domain.ValidationError{}).Add("status", "must be SUBMITTED, APPROVED or REJECTED"), "update status")
		return
	}
	if req.Status == nil {
		s.fail(w, r, (&domain.ValidationError{}).Add("status", "is required"), "update status")
		return
	}
	app, err := s.apps.UpdateStatus(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id"), *req.Status)
	if err != nil {
		s.fail(w, r, err, "update status")
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	app, err := s.apps.MarkViewed(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err, "mark application read")
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (s *Server) handleMarkUnread(w http.ResponseWriter, r *http.Request) {
	app, err := s.apps.MarkUnread(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err, "mark application unread")
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (s *Server) handleDeleteApplication(w http.ResponseWriter, r *http.Request) {
	if err := s.apps.Delete(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err, "delete application")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ===== Reference codes =====

func (s *Server) handleListCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := s.codes.List(r.Context(), callerFrom(r.Context()))
	if err != nil {
		s.fail(w, r, err, "list reference codes")
		return
	}
	writeJSON(w, http.StatusOK, list(codes))
}

func (s *Server) handleCreateCode(w http.ResponseWriter, r *http.Request) {
	var in usecase.CreateCodeInput
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &in); err != nil {
			s.fail(w, r, err, "create reference code")
			return
		}
	}
	code, err := s.codes.Create(r.Context(), callerFrom(r.Context()), in)
	if err != nil {
		s.fail(w, r, err, "create reference code")
		return
	}
	writeJSON(w, http.StatusCreated, code)
}

type codeRequest struct {
	Code string `json:"code"`
}

func (s *Server) handleUpdateCode(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err, "update reference code")
		return
	}
	code, err := s.codes.Update(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id"), req.Code)
	if err != nil {
		s.fail(w, r, err, "update reference code")
		return
	}
	writeJSON(w, http.StatusOK, code)
}

func (s *Server) handleDeleteCode(w http.ResponseWriter, r *http.Request) {
	if err := s.codes.Delete(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err, "delete reference code")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ===== Profiles =====

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	ps, err := s.profiles.List(r.Context(), callerFrom(r.Context()))
	if err != nil {
		s.fail(w, r, err, "list profiles")
		return
	}
	writeJSON(w, http.StatusOK, list(ps))
}

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var in usecase.CreateAdminInput
	if err := decodeJSON(r, &in); err != nil {
		s.fail(w, r, err, "create admin")
		return
	}
	p, err := s.profiles.CreateAdmin(r.Context(), callerFrom(r.Context()), in)
	if err != nil {
		s.fail(w, r, err, "create admin")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var patch model.ProfilePatch
	if err := decodeJSON(r, &patch); err != nil {
		s.fail(w, r, err, "update profile")
		return
	}
	p, err := s.profiles.Update(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.fail(w, r, err, "update profile")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type activeRequest struct {
	Active *bool `json:"active"`
}

func (s *Server) handleSetActive(w http.ResponseWriter, r *http.Request) {
	var req activeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err, "update profile")
		return
	}
	if req.Active == nil {
		s.fail(w, r, (&domain.ValidationError{}).Add("active", "is required"), "update profile")
		return
	}
	p, err := s.profiles.SetActive(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id"), *req.Active)
	if err != nil {
		s.fail(w, r, err, "update profile")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type passwordRequest struct {
	Password string `json:"password"`
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err, "reset password")
		return
	}
	if err := s.profiles.ResetPassword(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id"), req.Password); err != nil {
		s.fail(w, r, err, "reset password")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	if err := s.profiles.Delete(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err, "delete profile")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
