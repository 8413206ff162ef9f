package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"intake-review/internal/domain"
	"intake-review/internal/infra/logging"
)

const maxBodyBytes = 64 << 10

type errorBody struct {
	Error  string              `json:"error"`
	Fields []domain.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorBody{Error: msg})
}

// fail maps a use-case error to a status code. Unexpected errors are logged and answered
// with a generic "failed to <op>" message.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, op string) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "validation failed", Fields: verr.Fields})
	case errors.Is(err, domain.ErrInvalidArgument):
		writeMessage(w, http.StatusBadRequest, "invalid request")
	case errors.Is(err, domain.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrUnauthorized):
		writeMessage(w, http.StatusForbidden, "you are not allowed to perform this action")
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, domain.ErrSessionExpired):
		writeMessage(w, http.StatusUnauthorized, "session expired")
	case errors.Is(err, domain.ErrAlreadyExists):
		writeMessage(w, http.StatusConflict, "already exists")
	case errors.Is(err, domain.ErrRateLimited):
		writeMessage(w, http.StatusTooManyRequests, "too many requests")
	default:
		l := logging.With(r.Context(), s.log)
		l.Error().Err(err).Str("op", op).Msg("request failed")
		writeMessage(w, http.StatusInternalServerError, "failed to "+op)
	}
}

// readBody returns the request body capped at maxBodyBytes.
func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, domain.ErrInvalidArgument
	}
	b, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil || len(b) == 0 {
		return nil, domain.ErrInvalidArgument
	}
	return b, nil
}

func decodeJSON(r *http.Request, dst any) error {
	b, err := readBody(r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return (&domain.ValidationError{}).Add("body", "malformed JSON")
	}
	return nil
}
