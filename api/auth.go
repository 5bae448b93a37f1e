package api

import (
	"log/slog"
	"net/http"

	"github.com/garnizeh/showcase/internal/auth"
	"github.com/garnizeh/showcase/internal/content"
	"github.com/garnizeh/showcase/internal/payload"
)

type AuthHandler struct {
	auth     *auth.Authenticator
	payloads *payload.Loader
}

// NewAuthHandler creates a new AuthHandler with required dependencies.
func NewAuthHandler(a *auth.Authenticator, payloads *payload.Loader) *AuthHandler {
	return &AuthHandler{auth: a, payloads: payloads}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type passwordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Login exchanges email and password for a signed session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.payloads.Validate(r.Context(), payload.Login, body); err != nil {
		writeError(w, r, err)
		return
	}
	var req loginRequest
	if err := decodeBytes(body, &req); err != nil {
		writeError(w, r, err)
		return
	}

	s, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	logger.Info("admin login", slog.Int64("user_id", s.User.ID), slog.String("remote", clientIP(r)))
	writeJSON(w, s, http.StatusOK)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFrom(r.Context())
	if !ok {
		writeError(w, r, auth.ErrInvalidToken)
		return
	}
	writeJSON(w, u.Public(), http.StatusOK)
}

// Logout is acknowledged only; tokens are stateless and expire on their own.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	logger.Info("admin logout", slog.Int64("user_id", actorID(r)))
	writeJSON(w, messageResponse{Message: "signed out"}, http.StatusOK)
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFrom(r.Context())
	if !ok {
		writeError(w, r, auth.ErrInvalidToken)
		return
	}
	var req passwordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := content.Validate(req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.auth.ChangePassword(r.Context(), u.ID, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, r, err)
		return
	}
	logger.Info("password changed", slog.Int64("user_id", u.ID))
	writeJSON(w, messageResponse{Message: "password updated"}, http.StatusOK)
}
