package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"intake-review/internal/domain"
	"intake-review/internal/infra/logging"
	"intake-review/internal/validation"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Server) handleLoginPage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Sign in: POST /login with {\"email\":\"...\",\"password\":\"...\"}\n"))
}

// handleLogin accepts JSON or a urlencoded form.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			s.fail(w, r, domain.ErrInvalidArgument, "sign in")
			return
		}
		req.Email, req.Password = r.PostForm.Get("email"), r.PostForm.Get("password")
	} else if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err, "sign in")
		return
	}

	id, err := s.sessions.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(w, r, err, "sign in")
		return
	}
	token, claims, err := s.auth.Mint(w, id.UID)
	if err != nil {
		s.fail(w, r, err, "sign in")
		return
	}
	l := logging.With(r.Context(), s.log)
	l.Info().Str("uid", id.UID).Str("session_id", claims.ID).Msg("signed in")
	writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: claims.ExpiresAt.Time})
}

// handleLogout is idempotent: a missing or invalid token still clears the cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if claims, err := s.auth.ParseFromRequest(r); err == nil {
		if err := s.sessions.Logout(r.Context(), claims.ID, claims.Remaining(time.Now())); err != nil {
			s.fail(w, r, err, "sign out")
			return
		}
	}
	s.auth.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

type submitResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		s.fail(w, r, (&domain.ValidationError{}).Add("body", "is required"), "submit application")
		return
	}
	in, err := validation.DecodeSubmission(body)
	if err != nil {
		s.fail(w, r, err, "submit application")
		return
	}
	app, err := s.apps.Submit(r.Context(), in)
	if err != nil {
		s.fail(w, r, err, "submit application")
		return
	}
	writeJSON(w, http.StatusCreated, submitResponse{ID: app.ID, Status: app.Status.String()})
}

func (s *Server) handleValidateCode(w http.ResponseWriter, r *http.Request) {
	ok, err := s.codes.Validate(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		s.fail(w, r, err, "validate reference code")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"valid": ok})
}
