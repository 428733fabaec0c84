package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/shopcast/shopcast/internal/auth"
	"github.com/shopcast/shopcast/internal/session"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// UsernameKey is the context key for storing the authenticated username.
	UsernameKey contextKey = "username"
	// SessionIDKey is the context key for storing the session id.
	SessionIDKey contextKey = "session_id"
)

// SessionCookie is the name of the cookie carrying the opaque session id.
const SessionCookie = "shopcast_session"

// GetUsername extracts the authenticated username from the context.
// Returns empty string if not found.
func GetUsername(ctx context.Context) string {
	username, _ := ctx.Value(UsernameKey).(string)
	return username
}

// GetSessionID extracts the session id from the context.
// Returns empty string if not found.
func GetSessionID(ctx context.Context) string {
	id, _ := ctx.Value(SessionIDKey).(string)
	return id
}

// SessionGate validates session identity on gated routes. It accepts either
// the session cookie or a session-bound bearer token; both paths resolve the
// identity through the session manager, so a destroyed session rejects
// outstanding tokens too.
type SessionGate struct {
	sessions *session.Manager
	tokens   *auth.JWTManager
}

// NewSessionGate builds the gate over the given session manager and token
// validator.
func NewSessionGate(sessions *session.Manager, tokens *auth.JWTManager) *SessionGate {
	return &SessionGate{
		sessions: sessions,
		tokens:   tokens,
	}
}

// sessionID extracts the session id from the request: cookie first, then
// Authorization: Bearer. Returns empty string for anonymous requests.
func (g *SessionGate) sessionID(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	claims, err := g.tokens.Validate(parts[1])
	if err != nil {
		return ""
	}
	return claims.SessionID
}

// Identify resolves the request's session identity without enforcing it.
// Anonymous or stale requests return an empty username and no error; only
// unexpected store failures are reported.
func (g *SessionGate) Identify(r *http.Request) (username, sessionID string, err error) {
	id := g.sessionID(r)
	if id == "" {
		return "", "", nil
	}
	user, err := g.sessions.Resolve(r.Context(), id)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			return "", "", nil
		}
		return "", "", err
	}
	return user.Username, id, nil
}

// Require wraps a handler so only gated requests reach it. Anonymous
// requests are redirected to loginPath when the client prefers HTML (a
// navigational fallback, not a failure), otherwise rejected with 401.
func (g *SessionGate) Require(loginPath string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, sessionID, err := g.Identify(r)
		if err != nil {
			http.Error(w, "session lookup failed", http.StatusInternalServerError)
			return
		}
		if username == "" {
			if loginPath != "" && prefersHTML(r) {
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UsernameKey, username)
		ctx = context.WithValue(ctx, SessionIDKey, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// prefersHTML reports whether the client is a browser navigating pages
// rather than an API or websocket caller.
func prefersHTML(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	if r.Header.Get("Upgrade") != "" {
		return false
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
