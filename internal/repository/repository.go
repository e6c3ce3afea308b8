package repository

import (
	"context"

	"github.com/mercato/catalog/internal/domain"
)

// ProductFilter defines filter criteria for listing products from the store.
type ProductFilter struct {
	Category *string
	Status   *string
	Search   *string
	Page     int
	PerPage  int
}

// ProductRepository defines the interface for product persistence operations.
// All reads exclude soft-deleted rows.
type ProductRepository interface {
	// Create inserts a new product into the store.
	Create(ctx context.Context, product *domain.Product) error

	// GetByID retrieves a product by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// GetBySKU retrieves a product by its unique business key.
	GetBySKU(ctx context.Context, sku string) (*domain.Product, error)

	// List returns products matching the given filter along with the total count.
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, int, error)

	// Update modifies an existing product in the store.
	Update(ctx context.Context, product *domain.Product) error

	// SoftDelete marks a product as deleted without removing the row.
	SoftDelete(ctx context.Context, id string) error
}
