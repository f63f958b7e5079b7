package handlers

import (
	"log/slog"
	"net/http"

	"trono-server/middleware"
	"trono-server/services"
	"trono-server/utils/errors"
)

type AuthHandler struct {
	authService *services.AuthService
	logger      *slog.Logger
}

func NewAuthHandler(authService *services.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, logger: logger}
}

// CreateSession issues an anonymous device session.
func (h *AuthHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	token, sessionID, err := h.authService.IssueSession()
	if err != nil {
		middleware.WriteError(w, errors.Wrap(err, "SESSION_ERROR", "Failed to create session", http.StatusInternalServerError))
		return
	}

	h.logger.InfoContext(r.Context(), "session created", slog.String("session", sessionID))
	middleware.WriteJSON(w, http.StatusCreated, map[string]string{"token": token, "session_id": sessionID})
}
