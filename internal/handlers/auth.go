package handlers

import (
	"net/http"

	"github.com/abrezinsky/pokerleague/internal/auth"
)

// handleLogin exchanges the admin password for a session token
func (h *Handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	token, ok := h.Auth.Login(req.Password)
	if !ok {
		respondError(w, Unauthorized("Invalid password"))
		return
	}

	auth.SetSessionCookie(w, token)
	respondOK(w, map[string]string{"token": token})
}

// handleLogout invalidates the session
func (h *Handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := auth.TokenFromRequest(r); token != "" {
		h.Auth.Logout(token)
	}

	auth.ClearSessionCookie(w)
	respondSuccess(w, "Logged out")
}
