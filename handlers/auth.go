package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"requestarr/apperr"
	"requestarr/config"
	"requestarr/middleware"
	"requestarr/models"
	"requestarr/services"
)

type AuthHandlers struct {
	cfg *config.Config
}

func NewAuthHandlers(cfg *config.Config) *AuthHandlers {
	return &AuthHandlers{cfg: cfg}
}

type credentialsBody struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var body credentialsBody
	if err := DecodeJSON(r, &body); err != nil {
		WriteError(w, err)
		return
	}

	body.Username = strings.TrimSpace(body.Username)
	if body.Username == "" || body.Email == "" || body.Password == "" {
		WriteError(w, apperr.ErrBadRequest.WithDetail("username, email and password are required"))
		return
	}

	user, err := services.RegisterUser(r.Context(), body.Username, body.Email, body.Password)
	if err != nil {
		slog.Warn("Registration failed", "username", body.Username, "error", err)
		WriteError(w, err)
		return
	}

	slog.Info("User registered", "username", user.Username, "user_id", user.ID)
	h.establishSession(w, r, user)
}

func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var body credentialsBody
	if err := DecodeJSON(r, &body); err != nil {
		WriteError(w, err)
		return
	}

	user, err := services.AuthenticateUser(r.Context(), body.Username, body.Password)
	if err != nil {
		slog.Warn("Login failed", "username", body.Username)
		WriteError(w, err)
		return
	}

	slog.Info("User logged in", "username", user.Username)
	h.establishSession(w, r, user)
}

// establishSession sets the session cookie and returns a bearer token, so
// both browser and SPA clients are covered by one login call.
func (h *AuthHandlers) establishSession(w http.ResponseWriter, r *http.Request, user *models.User) {
	session, err := services.GetSession(r)
	if err == nil {
		session.Values["user_id"] = user.ID
		session.Values["username"] = user.Username
		if err := services.SaveSession(w, r, session); err != nil {
			slog.Error("Failed to save session", "error", err)
		}
	}

	token, err := services.IssueToken(h.cfg.JWTSecret, user)
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	session, err := services.GetSession(r)
	if err == nil {
		session.Options.MaxAge = -1
		services.SaveSession(w, r, session)
	}
	WriteJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, middleware.CurrentUser(r))
}
