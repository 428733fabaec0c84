package service

import (
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

	"github.com/shopcast/shopcast/internal/auth"
	"github.com/shopcast/shopcast/internal/middleware"
	"github.com/shopcast/shopcast/internal/models"
	"github.com/shopcast/shopcast/internal/session"
	"github.com/shopcast/shopcast/internal/storage"
	memstore "github.com/shopcast/shopcast/internal/storage/memory"
)

type unavailableProductStore struct{}

func (unavailableProductStore) SaveProduct(ctx context.Context, p *models.Product) (*models.Product, error) {
	return nil, fmt.Errorf("save product: %w", storage.ErrUnavailable)
}

func (unavailableProductStore) GetProducts(ctx context.Context) ([]models.Product, error) {
	return nil, fmt.Errorf("get products: %w", storage.ErrUnavailable)
}

func newStoreServer(t *testing.T, products storage.ProductStore) (*httptest.Server, *http.Cookie) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := newFakeUserStore()
	users.users["alice"] = &models.User{ID: "alice-id", Username: "alice"}

	store := session.NewMemoryStore()
	t.Cleanup(func() { store.Close() })
	sessions := session.NewManager(store, users, time.Minute)
	tokens := auth.NewJWTManager("test-secret", time.Minute)
	gate := middleware.NewSessionGate(sessions, tokens)

	sess, err := sessions.Create(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Create session failed: %v", err)
	}
	cookie := &http.Cookie{Name: middleware.SessionCookie, Value: sess.ID}

	svc := NewStoreService(memstore.NewMessageStore(), products, logger)
	mux := http.NewServeMux()
	mux.Handle("/api/messages", gate.Require("/api/login", http.HandlerFunc(svc.Messages)))
	mux.Handle("/api/products", gate.Require("/api/login", http.HandlerFunc(svc.Products)))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, cookie
}

func TestMessagesRequireSession(t *testing.T) {
	srv, _ := newStoreServer(t, unavailableProductStore{})

	resp, err := http.Get(srv.URL + "/api/messages")
	if err != nil {
		t.Fatalf("GET /api/messages failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestPostMessageUsesSessionAuthor(t *testing.T) {
	srv, cookie := newStoreServer(t, unavailableProductStore{})

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/messages",
		strings.NewReader(`{"text":"hello","author":"mallory"}`))
	req.AddCookie(cookie)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST /api/messages failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	var saved models.Message
	if err := json.NewDecoder(resp.Body).Decode(&saved); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	if saved.Author != "alice" {
		t.Errorf("author = %q, want the session identity %q", saved.Author, "alice")
	}
	if saved.Text != "hello" {
		t.Errorf("text = %q, want %q", saved.Text, "hello")
	}
}

func TestUnavailableStoreReturns503(t *testing.T) {
	srv, cookie := newStoreServer(t, unavailableProductStore{})

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/products", nil)
	req.AddCookie(cookie)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /api/products failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusServiceUnavailable)
	}
}

func TestMessagesRejectUnknownMethod(t *testing.T) {
	srv, cookie := newStoreServer(t, unavailableProductStore{})

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/messages", nil)
	req.AddCookie(cookie)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE /api/messages failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusMethodNotAllowed)
	}
}
