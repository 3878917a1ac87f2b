package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/ch1tg/GameTrackr-api/apperror"
)

type contextKey string

const userIDKey contextKey = "userID"

const (
	// AccessTokenCookie carries the session token; HTTP-only.
	AccessTokenCookie = "access_token"
	// CSRFTokenCookie carries the anti-forgery token; readable by the
	// frontend so it can be echoed in the CSRF header.
	CSRFTokenCookie = "csrf_token"
	// CSRFHeader must match the CSRF cookie on cookie-authenticated
	// mutating requests.
	CSRFHeader = "X-CSRF-TOKEN"
)

// CORSMiddleware adds permissive CORS headers and short-circuits preflight
// requests.
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+CSRFHeader)
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// AuthMiddleware resolves the session identity from the access token cookie
// or the Authorization header. Cookie-authenticated mutating requests must
// additionally pass the CSRF double-submit check before any business logic
// runs.
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, fromCookie := extractToken(r)
		if token == "" {
			respondError(w, apperror.NewAuth("Authentication required", nil))
			return
		}

		userID, err := h.tokens.ParseToken(token)
		if err != nil {
			respondError(w, err)
			return
		}

		if fromCookie && isMutating(r.Method) {
			if err := checkCSRF(r); err != nil {
				respondError(w, err)
				return
			}
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// extractToken reads the session token from the cookie first, falling back
// to a Bearer header. The bool reports whether the cookie was the source.
func extractToken(r *http.Request) (string, bool) {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}

	authHeader := r.Header.Get("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1], false
	}

	return "", false
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// checkCSRF enforces the double-submit pattern: the CSRF cookie value must
// be echoed in the CSRF header.
func checkCSRF(r *http.Request) error {
	cookie, err := r.Cookie(CSRFTokenCookie)
	if err != nil || cookie.Value == "" {
		return apperror.NewForbidden("Missing CSRF token", nil)
	}

	if r.Header.Get(CSRFHeader) != cookie.Value {
		return apperror.NewForbidden("CSRF token mismatch", nil)
	}

	return nil
}

// UserIDFromContext extracts the authenticated user id set by
// AuthMiddleware.
func UserIDFromContext(ctx context.Context) (int64, error) {
	userID, ok := ctx.Value(userIDKey).(int64)
	if !ok {
		return 0, apperror.NewAuth("Authentication required", nil)
	}
	return userID, nil
}
