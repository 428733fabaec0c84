package service

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/shopcast/shopcast/internal/auth"
	"github.com/shopcast/shopcast/internal/metrics"
	"github.com/shopcast/shopcast/internal/middleware"
	"github.com/shopcast/shopcast/internal/session"
)

// AuthService implements the registration, login, and logout endpoints.
// Login establishes the server-side session and hands the browser a cookie;
// non-browser clients get a session-bound bearer token carrying the same
// identity.
type AuthService struct {
	authenticator auth.Authenticator
	sessions      *session.Manager
	tokens        *auth.JWTManager
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, sessions *session.Manager, tokens *auth.JWTManager, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		sessions:      sessions,
		tokens:        tokens,
		logger:        logger,
	}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register handles POST /api/register.
func (s *AuthService) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password required")
		return
	}

	user, err := s.authenticator.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrAlreadyRegistered):
			metrics.AuthFailures.WithLabelValues("already_registered").Inc()
			s.logger.Warn("registration rejected", "username", req.Username, "error", err)
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, auth.ErrWeakPassword):
			metrics.AuthFailures.WithLabelValues("weak_password").Inc()
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.logger.Error("registration failed", "username", req.Username, "error", err)
			writeError(w, http.StatusInternalServerError, "registration failed")
		}
		return
	}

	s.logger.Info("user registered", "username", user.Username, "user_id", user.ID)
	writeJSON(w, http.StatusCreated, map[string]any{"user": user})
}

// Login handles POST /api/login. On success it binds the verified username
// into a fresh session, sets the session cookie, and returns a bearer token
// bound to the same session.
func (s *AuthService) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password required")
		return
	}

	user, err := s.authenticator.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserNotFound):
			metrics.AuthFailures.WithLabelValues("not_found").Inc()
			s.logger.Warn("login rejected, unknown user", "username", req.Username)
			writeError(w, http.StatusUnauthorized, err.Error())
		case errors.Is(err, auth.ErrBadCredential):
			metrics.AuthFailures.WithLabelValues("bad_credential").Inc()
			s.logger.Warn("login rejected, bad credential", "username", req.Username)
			writeError(w, http.StatusUnauthorized, err.Error())
		default:
			s.logger.Error("login failed", "username", req.Username, "error", err)
			writeError(w, http.StatusInternalServerError, "login failed")
		}
		return
	}

	sess, err := s.sessions.Create(r.Context(), user.Username)
	if err != nil {
		s.logger.Error("session create failed", "username", user.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	token, err := s.tokens.Generate(user.Username, sess.ID)
	if err != nil {
		s.logger.Error("token generation failed", "username", user.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.sessions.TTL().Seconds()),
	})

	s.logger.Info("user logged in", "username", user.Username, "session_id", sess.ID)
	writeJSON(w, http.StatusOK, map[string]any{
		"user":  user,
		"token": token,
	})
}

// Logout handles POST /api/logout (gated). Destroying the session clears
// the identity for both the cookie and any outstanding bearer tokens.
func (s *AuthService) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())
	username := middleware.GetUsername(r.Context())

	if err := s.sessions.Destroy(r.Context(), sessionID); err != nil {
		s.logger.Error("session destroy failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "logout failed")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	s.logger.Info("user logged out", "username", username)
	writeJSON(w, http.StatusOK, map[string]string{"username": username})
}

// Me handles GET /api/me (gated), returning the current identity.
func (s *AuthService) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"username": middleware.GetUsername(r.Context()),
	})
}
