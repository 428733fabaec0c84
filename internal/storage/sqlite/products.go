package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shopcast/shopcast/internal/models"
)

// SaveProduct inserts or replaces a product in the catalog.
// A product without an ID gets one assigned. Replacing keeps the product's
// original position so the catalog order stays stable across updates.
func (s *SQLiteStore) SaveProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if product.CreatedAt == 0 {
		product.CreatedAt = time.Now().Unix()
	}

	query := `
		INSERT INTO products (id, name, price, thumbnail, created_at, position)
		VALUES (?, ?, ?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM products))
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			price = excluded.price,
			thumbnail = excluded.thumbnail
	`

	_, err := s.db.ExecContext(ctx, query,
		product.ID,
		product.Name,
		product.Price,
		product.Thumbnail,
		product.CreatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to save product: %w", classify(err))
	}

	return product, nil
}

// GetProducts returns the full catalog in insertion order.
func (s *SQLiteStore) GetProducts(ctx context.Context) ([]models.Product, error) {
	query := `
		SELECT id, name, price, thumbnail, created_at
		FROM products
		ORDER BY position
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get products: %w", classify(err))
	}
	defer rows.Close()

	products := make([]models.Product, 0)
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Thumbnail, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", classify(err))
	}

	return products, nil
}
