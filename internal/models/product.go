package models

// Product is one entry in the shared catalog.
//
// Saving a product with an existing ID replaces that entry (upsert); saving
// without an ID inserts a new one. The authoritative catalog state is always
// the full current collection, never a delta.
type Product struct {
	// ID is the unique identifier for the product (UUID format).
	ID string `json:"id"`

	// Name is the display name of the product.
	Name string `json:"name"`

	// Price is the unit price.
	Price float64 `json:"price"`

	// Thumbnail is an image URL for catalog listings.
	Thumbnail string `json:"thumbnail"`

	// CreatedAt is the Unix timestamp when the product was first saved.
	CreatedAt int64 `json:"created_at"`
}
