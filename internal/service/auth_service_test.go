package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/shopcast/shopcast/internal/auth"
	"github.com/shopcast/shopcast/internal/middleware"
	"github.com/shopcast/shopcast/internal/models"
	"github.com/shopcast/shopcast/internal/session"
	"github.com/shopcast/shopcast/internal/storage"
)

type fakeUserStore struct {
	users map[string]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*models.User)}
}

func (s *fakeUserStore) CreateUser(ctx context.Context, user *models.User) error {
	if _, ok := s.users[user.Username]; ok {
		return fmt.Errorf("user %q: %w", user.Username, storage.ErrDuplicate)
	}
	s.users[user.Username] = user
	return nil
}

func (s *fakeUserStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user, ok := s.users[username]
	if !ok {
		return nil, fmt.Errorf("user %q: %w", username, storage.ErrNotFound)
	}
	return user, nil
}

// newAuthServer wires a full auth stack over in-memory stores and mounts it
// the way the server binary does, gate included.
func newAuthServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := newFakeUserStore()
	store := session.NewMemoryStore()
	t.Cleanup(func() { store.Close() })

	sessions := session.NewManager(store, users, time.Minute)
	tokens := auth.NewJWTManager("test-secret", time.Minute)
	authenticator := auth.NewPasswordAuthenticator(users, bcrypt.MinCost)
	gate := middleware.NewSessionGate(sessions, tokens)

	svc := NewAuthService(authenticator, sessions, tokens, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/register", svc.Register)
	mux.HandleFunc("/api/login", svc.Login)
	mux.Handle("/api/logout", gate.Require("", http.HandlerFunc(svc.Logout)))
	mux.Handle("/api/me", gate.Require("", http.HandlerFunc(svc.Me)))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()

	resp, err := http.Post(url, "application/json", bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response body failed: %v", err)
	}
}

func TestRegister(t *testing.T) {
	srv := newAuthServer(t)

	resp := postJSON(t, srv.URL+"/api/register", `{"username":"alice","password":"sup3rsecret"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	var body struct {
		User models.User `json:"user"`
	}
	decodeBody(t, resp, &body)
	if body.User.Username != "alice" {
		t.Errorf("registered username = %q, want %q", body.User.Username, "alice")
	}
	if body.User.ID == "" {
		t.Error("Expected registered user to have an id")
	}
}

func TestRegisterDuplicateConflicts(t *testing.T) {
	srv := newAuthServer(t)

	if resp := postJSON(t, srv.URL+"/api/register", `{"username":"alice","password":"sup3rsecret"}`); resp.StatusCode != http.StatusCreated {
		t.Fatalf("first register status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	resp := postJSON(t, srv.URL+"/api/register", `{"username":"alice","password":"otherpass"}`)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate register status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}
}

func TestRegisterRejectsBadInput(t *testing.T) {
	srv := newAuthServer(t)

	for name, body := range map[string]string{
		"missing password": `{"username":"alice"}`,
		"missing username": `{"password":"sup3rsecret"}`,
		"unknown field":    `{"username":"alice","password":"sup3rsecret","admin":true}`,
		"not json":         `username=alice`,
	} {
		t.Run(name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+"/api/register", body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
			}
		})
	}
}

func TestLoginWrongPassword(t *testing.T) {
	srv := newAuthServer(t)
	postJSON(t, srv.URL+"/api/register", `{"username":"alice","password":"sup3rsecret"}`)

	resp := postJSON(t, srv.URL+"/api/login", `{"username":"alice","password":"wrong"}`)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("login status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	srv := newAuthServer(t)

	resp := postJSON(t, srv.URL+"/api/login", `{"username":"nobody","password":"whatever"}`)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("login status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestLoginSetsCookieAndToken(t *testing.T) {
	srv := newAuthServer(t)
	postJSON(t, srv.URL+"/api/register", `{"username":"alice","password":"sup3rsecret"}`)

	resp := postJSON(t, srv.URL+"/api/login", `{"username":"alice","password":"sup3rsecret"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == middleware.SessionCookie {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value == "" {
		t.Fatal("Expected a session cookie on login")
	}
	if !cookie.HttpOnly {
		t.Error("Expected session cookie to be HttpOnly")
	}

	var body struct {
		User  models.User `json:"user"`
		Token string      `json:"token"`
	}
	decodeBody(t, resp, &body)
	if body.Token == "" {
		t.Error("Expected a bearer token on login")
	}

	// Both credentials resolve to the same identity.
	for name, build := range map[string]func(*http.Request){
		"cookie": func(r *http.Request) { r.AddCookie(cookie) },
		"bearer": func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+body.Token) },
	} {
		t.Run(name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/me", nil)
			build(req)
			meResp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("GET /api/me failed: %v", err)
			}
			defer meResp.Body.Close()

			if meResp.StatusCode != http.StatusOK {
				t.Fatalf("me status = %d, want %d", meResp.StatusCode, http.StatusOK)
			}
			var me struct {
				Username string `json:"username"`
			}
			decodeBody(t, meResp, &me)
			if me.Username != "alice" {
				t.Errorf("me username = %q, want %q", me.Username, "alice")
			}
		})
	}
}

func TestLogoutInvalidatesBothCredentials(t *testing.T) {
	srv := newAuthServer(t)
	postJSON(t, srv.URL+"/api/register", `{"username":"alice","password":"sup3rsecret"}`)

	loginResp := postJSON(t, srv.URL+"/api/login", `{"username":"alice","password":"sup3rsecret"}`)
	var cookie *http.Cookie
	for _, c := range loginResp.Cookies() {
		if c.Name == middleware.SessionCookie {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("Expected a session cookie on login")
	}
	var body struct {
		Token string `json:"token"`
	}
	decodeBody(t, loginResp, &body)

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/logout", strings.NewReader(""))
	req.AddCookie(cookie)
	logoutResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST /api/logout failed: %v", err)
	}
	logoutResp.Body.Close()
	if logoutResp.StatusCode != http.StatusOK {
		t.Fatalf("logout status = %d, want %d", logoutResp.StatusCode, http.StatusOK)
	}

	// The cookie and the session-bound token both died with the session.
	for name, build := range map[string]func(*http.Request){
		"cookie": func(r *http.Request) { r.AddCookie(cookie) },
		"bearer": func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+body.Token) },
	} {
		t.Run(name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/me", nil)
			build(req)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("GET /api/me failed: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("me status after logout = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
			}
		})
	}
}
