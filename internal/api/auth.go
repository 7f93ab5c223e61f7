package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/official-eswaran/DataWhisper/internal/auth"
)

// LoginRequest is a username/password authentication attempt.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.auth.Login(r.Context(), req.Username, req.Password)
	switch {
	case err == nil:
		JSON(w, http.StatusOK, result)
	case errors.Is(err, auth.ErrBadCredentials):
		Error(w, http.StatusUnauthorized, "Invalid username or password")
	case errors.Is(err, auth.ErrAccountDisabled):
		Error(w, http.StatusForbidden, "Account is disabled")
	case errors.Is(err, auth.ErrAccountLocked):
		Error(w, http.StatusTooManyRequests, err.Error())
	default:
		Error(w, http.StatusInternalServerError, "login failed")
	}
}
