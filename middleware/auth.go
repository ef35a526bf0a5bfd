package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"requestarr/apperr"
	"requestarr/models"
	"requestarr/services"
)

type contextKey string

const userContextKey contextKey = "user"

// CurrentUser returns the authenticated user stored by RequireAuth, or nil.
func CurrentUser(r *http.Request) *models.User {
	user, _ := r.Context().Value(userContextKey).(*models.User)
	return user
}

func writeAuthError(w http.ResponseWriter, err *apperr.Error) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(err.Status)
	w.Write([]byte(`{"code":"` + err.Code + `","message":"` + err.Message + `"}`))
}

// RequireAuth authenticates the request from either the session cookie or a
// Bearer token, loads the user fresh from the store, and puts it on the
// request context. Role is never trusted from the token.
func RequireAuth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := userIDFromBearer(r, jwtSecret)
			if userID == "" {
				userID = userIDFromSession(r)
			}
			if userID == "" {
				writeAuthError(w, apperr.ErrUnauthorized)
				return
			}

			user, err := services.GetUserByID(r.Context(), userID)
			if err != nil {
				slog.Warn("Authenticated user no longer exists", "user_id", userID)
				writeAuthError(w, apperr.ErrUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin must be mounted inside RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		if user == nil {
			writeAuthError(w, apperr.ErrUnauthorized)
			return
		}
		if !user.IsAdmin() {
			writeAuthError(w, apperr.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func userIDFromBearer(r *http.Request, secret string) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	userID, err := services.ParseToken(secret, token)
	if err != nil {
		return ""
	}
	return userID
}

func userIDFromSession(r *http.Request) string {
	session, err := services.GetSession(r)
	if err != nil {
		return ""
	}
	userID, _ := session.Values["user_id"].(string)
	return userID
}
