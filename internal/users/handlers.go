package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
)

type Handlers struct {
	svc Accounts
	log zerolog.Logger
}

// Accounts is the account service seam used by the HTTP handlers.
type Accounts interface {
	Register(ctx context.Context, username, password string) (User, error)
	Login(ctx context.Context, username, password string) (User, error)
}

func NewHandlers(svc Accounts, log zerolog.Logger) *Handlers {
	return &Handlers{svc: svc, log: log}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	u, err := h.svc.Register(r.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, ErrInvalidUsername):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": map[string]string{"username": "3-64 letters, digits, '_', '-' or '.'"},
		})
	case errors.Is(err, ErrBadCredentials):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": map[string]string{"password": "required"},
		})
	case errors.Is(err, ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "username taken"})
	case err != nil:
		h.log.Error().Err(err).Str("username", req.Username).Msg("signup failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	default:
		writeJSON(w, http.StatusCreated, u)
	}
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	u, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, ErrBadCredentials) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "bad credentials"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("username", req.Username).Msg("login failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
