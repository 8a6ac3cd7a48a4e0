package transport

import (
	"net/http"

	"github.com/scribeapp/scribe/pkg/api"
	"github.com/scribeapp/scribe/pkg/auth"
)

// handleRegister creates a new user account.
func (h *Handlers) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if apiErr := api.ValidateRegister(&req, h.config.Validation); apiErr != nil {
		WriteAPIError(w, apiErr)
		return
	}

	digest, err := auth.HashPassword(req.Password)
	if err != nil {
		WriteAPIError(w, api.NewServerError("hashing password"))
		return
	}

	user, err := h.store.CreateUser(r.Context(), &api.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: digest,
		Active:       true,
	})
	if err != nil {
		storageError(w, err, "username or email")
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// handleLogin exchanges credentials for an access token. A missing user
// and a wrong password produce the same response, so the endpoint does
// not reveal which usernames exist.
func (h *Handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if apiErr := api.ValidateLogin(&req); apiErr != nil {
		WriteAPIError(w, apiErr)
		return
	}

	user, err := h.store.GetUserByUsername(r.Context(), req.Username)
	if err != nil || !auth.CheckPassword(req.Password, user.PasswordHash) {
		WriteAPIError(w, api.NewUnauthorizedError("invalid credentials"))
		return
	}

	token, err := h.tokens.Issue(user.Username, user.ID, h.config.TokenTTL)
	if err != nil {
		WriteAPIError(w, api.NewServerError("issuing token"))
		return
	}

	if h.config.Carrier == auth.CarrierCookie {
		http.SetCookie(w, &http.Cookie{
			Name:     auth.TokenCookieName,
			Value:    token,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   int(h.config.TokenTTL.Seconds()),
		})
	}

	writeJSON(w, http.StatusOK, api.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

// handleGetUser returns the caller's own profile.
func (h *Handlers) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// handleUpdateUser applies a partial update to the caller's profile.
func (h *Handlers) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req api.UserUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if apiErr := api.ValidateUserUpdate(&req); apiErr != nil {
		WriteAPIError(w, apiErr)
		return
	}

	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.Email != nil {
		user.Email = *req.Email
	}

	updated, err := h.store.UpdateUser(r.Context(), user)
	if err != nil {
		storageError(w, err, "username or email")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// handleDeleteUser removes the caller's account and everything they own.
func (h *Handlers) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteUser(r.Context(), user.ID); err != nil {
		storageError(w, err, "user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}
