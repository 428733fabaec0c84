package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopcast/shopcast/internal/models"
	"github.com/shopcast/shopcast/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "shopcast-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func TestUsers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateUser generates ID and timestamp", func(t *testing.T) {
		user := &models.User{Username: "alice", PasswordHash: "$2a$fakehash"}
		if err := store.CreateUser(ctx, user); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
		if user.ID == "" {
			t.Error("Expected user ID to be generated")
		}
		if user.CreatedAt == 0 {
			t.Error("Expected CreatedAt to be set")
		}
	})

	t.Run("duplicate username is rejected atomically", func(t *testing.T) {
		dup := &models.User{Username: "alice", PasswordHash: "$2a$otherhash"}
		err := store.CreateUser(ctx, dup)
		if !errors.Is(err, storage.ErrDuplicate) {
			t.Fatalf("CreateUser error = %v, want ErrDuplicate", err)
		}

		// Exactly one record for the username survives.
		got, err := store.GetUserByUsername(ctx, "alice")
		if err != nil {
			t.Fatalf("GetUserByUsername failed: %v", err)
		}
		if got.PasswordHash != "$2a$fakehash" {
			t.Errorf("surviving record hash = %q, want the first insert's", got.PasswordHash)
		}
	})

	t.Run("unknown username returns ErrNotFound", func(t *testing.T) {
		_, err := store.GetUserByUsername(ctx, "nobody")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("GetUserByUsername error = %v, want ErrNotFound", err)
		}
	})
}

func TestProducts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("SaveProduct assigns ID and preserves insertion order", func(t *testing.T) {
		first, err := store.SaveProduct(ctx, &models.Product{Name: "keyboard", Price: 49.99})
		if err != nil {
			t.Fatalf("SaveProduct failed: %v", err)
		}
		if first.ID == "" {
			t.Error("Expected product ID to be generated")
		}

		if _, err := store.SaveProduct(ctx, &models.Product{Name: "mouse", Price: 19.99}); err != nil {
			t.Fatalf("SaveProduct failed: %v", err)
		}

		products, err := store.GetProducts(ctx)
		if err != nil {
			t.Fatalf("GetProducts failed: %v", err)
		}
		if len(products) != 2 {
			t.Fatalf("GetProducts returned %d products, want 2", len(products))
		}
		if products[0].Name != "keyboard" || products[1].Name != "mouse" {
			t.Errorf("catalog order = [%s, %s], want [keyboard, mouse]", products[0].Name, products[1].Name)
		}
	})

	t.Run("saving an existing ID replaces in place", func(t *testing.T) {
		products, err := store.GetProducts(ctx)
		if err != nil {
			t.Fatalf("GetProducts failed: %v", err)
		}
		updated := products[0]
		updated.Price = 39.99

		if _, err := store.SaveProduct(ctx, &updated); err != nil {
			t.Fatalf("SaveProduct upsert failed: %v", err)
		}

		after, err := store.GetProducts(ctx)
		if err != nil {
			t.Fatalf("GetProducts failed: %v", err)
		}
		if len(after) != 2 {
			t.Fatalf("upsert changed catalog size to %d, want 2", len(after))
		}
		if after[0].ID != updated.ID || after[0].Price != 39.99 {
			t.Errorf("upsert not reflected: got %+v", after[0])
		}
		if after[0].Name != "keyboard" {
			t.Errorf("upsert moved the product, position should be stable")
		}
	})
}
