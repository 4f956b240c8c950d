package middleware

import (
	"net/http"
	"strings"

	"roadmap-backend/pkg/auth"
	"roadmap-backend/pkg/common"
	apperrors "roadmap-backend/pkg/errors"
)

// Session resolves the session cookie (or a bearer token, for API
// clients) into an auth.Session on the request context. Requests
// without a valid token pass through unauthenticated; route groups
// that need a session stack RequireSession on top.
func Session(tokens *auth.TokenManager, cookieName string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r, cookieName)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tokens.Validate(token)
			if err != nil {
				// Expired or tampered cookie: treat as logged out.
				next.ServeHTTP(w, r)
				return
			}

			session := auth.Session{
				Username: claims.Username,
				Name:     claims.Name,
				Guest:    claims.Guest,
			}
			next.ServeHTTP(w, r.WithContext(auth.SetSessionInContext(r.Context(), session)))
		})
	}
}

// RequireSession rejects unauthenticated API requests.
func RequireSession() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := auth.GetSessionFromContext(r.Context()); err != nil {
				common.RespondError(w, http.StatusUnauthorized, string(apperrors.ErrorTypeUnauthorized), "authentication required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractToken prefers the session cookie and falls back to a bearer
// Authorization header.
func extractToken(r *http.Request, cookieName string) string {
	if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}
	return ""
}
