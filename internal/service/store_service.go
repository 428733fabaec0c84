package service

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"runtime"

	"github.com/shopcast/shopcast/internal/metrics"
	"github.com/shopcast/shopcast/internal/middleware"
	"github.com/shopcast/shopcast/internal/models"
	"github.com/shopcast/shopcast/internal/storage"
)

// StoreService exposes the shared state repositories over plain HTTP for
// clients that do not hold a realtime connection. All routes are gated.
type StoreService struct {
	messages storage.MessageStore
	products storage.ProductStore
	logger   *slog.Logger
}

// NewStoreService creates the catalog/chat resource service.
func NewStoreService(messages storage.MessageStore, products storage.ProductStore, logger *slog.Logger) *StoreService {
	return &StoreService{
		messages: messages,
		products: products,
		logger:   logger,
	}
}

// Products handles GET and POST /api/products.
func (s *StoreService) Products(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		products, err := s.products.GetProducts(r.Context())
		if err != nil {
			s.storageError(w, "products", err)
			return
		}
		writeJSON(w, http.StatusOK, products)

	case http.MethodPost:
		var product models.Product
		if err := decodeJSON(r, &product); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		saved, err := s.products.SaveProduct(r.Context(), &product)
		if err != nil {
			s.storageError(w, "products", err)
			return
		}
		writeJSON(w, http.StatusCreated, saved)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// Messages handles GET and POST /api/messages. POST authorship comes from
// the gated session identity, not the request body.
func (s *StoreService) Messages(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		msgs, err := s.messages.GetMessages(r.Context())
		if err != nil {
			s.storageError(w, "messages", err)
			return
		}
		writeJSON(w, http.StatusOK, msgs)

	case http.MethodPost:
		var msg models.Message
		if err := decodeJSON(r, &msg); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		msg.Author = middleware.GetUsername(r.Context())
		saved, err := s.messages.SaveMessage(r.Context(), &msg)
		if err != nil {
			s.storageError(w, "messages", err)
			return
		}
		writeJSON(w, http.StatusCreated, saved)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// Info handles GET /info with process diagnostics.
func (s *StoreService) Info(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	cwd, _ := os.Getwd()

	writeJSON(w, http.StatusOK, map[string]any{
		"platform":   runtime.GOOS,
		"go_version": runtime.Version(),
		"memory":     mem.Sys,
		"pid":        os.Getpid(),
		"folder":     cwd,
		"num_cpus":   runtime.NumCPU(),
		"args":       os.Args[1:],
	})
}

// storageError maps repository failures to HTTP statuses.
func (s *StoreService) storageError(w http.ResponseWriter, store string, err error) {
	metrics.StorageErrors.WithLabelValues(store).Inc()
	s.logger.Error("storage operation failed", "store", store, "error", err)

	switch {
	case errors.Is(err, storage.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
	case errors.Is(err, storage.ErrRejected), errors.Is(err, storage.ErrDuplicate):
		writeError(w, http.StatusUnprocessableEntity, "store rejected write")
	default:
		writeError(w, http.StatusInternalServerError, "storage operation failed")
	}
}
