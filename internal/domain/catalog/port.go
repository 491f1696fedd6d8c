package catalog

import "context"

// Repository port for reading the product catalog
type Repository interface {
	// ListPublic returns visible, non-archived products, newest first.
	ListPublic(ctx context.Context, tenant string, limit int) ([]*Product, error)
	// ListTopRated returns visible products with more than minRatings ratings, best average first.
	ListTopRated(ctx context.Context, tenant string, minRatings, limit int) ([]*Product, error)
}

// Writer is used by catalog imports.
type Writer interface {
	// Upsert inserts or replaces the product with the same ID.
	Upsert(ctx context.Context, p *Product) error
}
