package server

import (
	"net/http"
	"time"

	"github.com/ch1tg/GameTrackr-api/core/account"
	"github.com/ch1tg/GameTrackr-api/core/auth"
	"github.com/ch1tg/GameTrackr-api/logger"
	"github.com/ch1tg/GameTrackr-api/model"
)

// LoginRequest is the login request body. Identifier may be a username or
// an email address.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type deleteAccountRequest struct {
	Password string `json:"password"`
}

type sessionResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// RegisterHandler creates an account, opens a session and returns the new
// profile.
func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req account.RegisterInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	user, err := h.accounts.Register(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}

	token, err := h.tokens.GenerateToken(user.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	h.setSessionCookies(w, token)
	respondJSON(w, http.StatusCreated, sessionResponse{Token: token, User: user})
}

// LoginHandler authenticates by username or email and opens a session.
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	user, err := h.accounts.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}

	token, err := h.tokens.GenerateToken(user.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	logger.Info("login succeeded", logger.String("username", user.Username))

	h.setSessionCookies(w, token)
	respondJSON(w, http.StatusOK, sessionResponse{Token: token, User: user})
}

// LogoutHandler clears the session cookies.
func (h *APIHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	h.clearSessionCookies(w)
	w.WriteHeader(http.StatusNoContent)
}

// MeHandler serves the authenticated user's own profile: GET reads it,
// PATCH applies a partial update, DELETE removes the account after a
// password check.
func (h *APIHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromContext(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		user, err := h.accounts.GetByID(r.Context(), userID)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, user)

	case http.MethodPatch:
		var req account.UpdateProfileInput
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, err)
			return
		}
		user, err := h.accounts.UpdateProfile(r.Context(), userID, req)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, user)

	case http.MethodDelete:
		var req deleteAccountRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, err)
			return
		}
		if err := h.accounts.DeleteAccount(r.Context(), userID, req.Password); err != nil {
			respondError(w, err)
			return
		}
		h.clearSessionCookies(w)
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// ChangePasswordHandler changes the authenticated user's password.
func (h *APIHandler) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromContext(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	user, err := h.accounts.ChangePassword(r.Context(), userID, req.OldPassword, req.NewPassword)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// setSessionCookies sets the HTTP-only session cookie and the readable CSRF
// cookie for the double-submit check.
func (h *APIHandler) setSessionCookies(w http.ResponseWriter, token string) {
	maxAge := int(h.cfg.TokenLifetime / time.Second)

	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    token,
		Path:     "/",
		Domain:   h.cfg.CookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     CSRFTokenCookie,
		Value:    auth.NewCSRFToken(),
		Path:     "/",
		Domain:   h.cfg.CookieDomain,
		MaxAge:   maxAge,
		HttpOnly: false,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookies expires both session cookies.
func (h *APIHandler) clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{AccessTokenCookie, CSRFTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Domain:   h.cfg.CookieDomain,
			MaxAge:   -1,
			HttpOnly: name == AccessTokenCookie,
			Secure:   h.cfg.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
