package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mercato/catalog/internal/cache"
	"github.com/mercato/catalog/internal/domain"
	"github.com/mercato/catalog/internal/repository"
	apperrors "github.com/mercato/catalog/pkg/errors"
)

// IndexNotifier receives the post-commit signal that a product changed
// and the search index should converge. Implementations enqueue to the
// in-process pipeline or publish to Kafka; either way the notification
// carries only the ID.
type IndexNotifier interface {
	ProductUpserted(ctx context.Context, productID string) error
	ProductDeleted(ctx context.Context, productID string) error
}

// ProductService implements the business logic for product operations.
// Mutations follow a fixed sequence: persist, evict the entity cache
// entry, flush the search cache group, notify the index pipeline. Once
// the write has committed, cache and notification failures are logged
// but never returned.
type ProductService struct {
	repo     repository.ProductRepository
	cache    *cache.Store
	notifier IndexNotifier
	logger   *slog.Logger
}

// NewProductService creates a new product service.
func NewProductService(repo repository.ProductRepository, cacheStore *cache.Store, notifier IndexNotifier, logger *slog.Logger) *ProductService {
	return &ProductService{
		repo:     repo,
		cache:    cacheStore,
		notifier: notifier,
		logger:   logger,
	}
}

// CreateProductInput holds the parameters for creating a product.
type CreateProductInput struct {
	SKU         string
	Name        string
	Description string
	Price       float64
	Category    *string
	Status      string
}

// UpdateProductInput holds the parameters for updating a product.
// Nil fields are left unchanged.
type UpdateProductInput struct {
	SKU         *string
	Name        *string
	Description *string
	Price       *float64
	Category    *string
	Status      *string
}

// CreateProduct creates a new product with the given input.
func (s *ProductService) CreateProduct(ctx context.Context, input *CreateProductInput) (*domain.Product, error) {
	if input.SKU == "" {
		return nil, apperrors.InvalidInput("product sku is required")
	}
	if input.Name == "" {
		return nil, apperrors.InvalidInput("product name is required")
	}
	if input.Price < 0 {
		return nil, apperrors.InvalidInput("price must not be negative")
	}

	status := input.Status
	if status == "" {
		status = domain.ProductStatusActive
	}
	if !domain.IsValidStatus(status) {
		return nil, apperrors.InvalidInput("invalid product status")
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:          uuid.New().String(),
		SKU:         input.SKU,
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Category:    input.Category,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.afterMutation(ctx, product.ID, false)

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID),
		slog.String("sku", product.SKU),
	)

	return product, nil
}

// GetProduct retrieves a product by its ID through the cache.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.cache.GetOrLoadProduct(ctx, id, func(ctx context.Context) (*domain.Product, error) {
		return s.repo.GetByID(ctx, id)
	})
	if err != nil {
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	return product, nil
}

// GetProductBySKU retrieves a product by its SKU. Business-key lookups
// go straight to the store.
func (s *ProductService) GetProductBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	product, err := s.repo.GetBySKU(ctx, sku)
	if err != nil {
		return nil, fmt.Errorf("get product by sku: %w", err)
	}
	return product, nil
}

// ListProducts returns a filtered, paginated list of products.
func (s *ProductService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 15
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}

	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}

	return products, total, nil
}

// UpdateProduct applies partial updates to an existing product.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, input *UpdateProductInput) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product for update: %w", err)
	}

	if input.SKU != nil {
		if *input.SKU == "" {
			return nil, apperrors.InvalidInput("product sku must not be empty")
		}
		product.SKU = *input.SKU
	}
	if input.Name != nil {
		if *input.Name == "" {
			return nil, apperrors.InvalidInput("product name must not be empty")
		}
		product.Name = *input.Name
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Price != nil {
		if *input.Price < 0 {
			return nil, apperrors.InvalidInput("price must not be negative")
		}
		product.Price = *input.Price
	}
	if input.Category != nil {
		product.Category = input.Category
	}
	if input.Status != nil {
		if !domain.IsValidStatus(*input.Status) {
			return nil, apperrors.InvalidInput("invalid product status")
		}
		product.Status = *input.Status
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.afterMutation(ctx, product.ID, false)

	s.logger.InfoContext(ctx, "product updated", slog.String("product_id", product.ID))

	return product, nil
}

// DeleteProduct soft-deletes a product.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	s.afterMutation(ctx, id, true)

	s.logger.InfoContext(ctx, "product deleted", slog.String("product_id", id))

	return nil
}

// afterMutation runs the post-commit sequence. Every step is best
// effort: the committed write stands regardless.
func (s *ProductService) afterMutation(ctx context.Context, productID string, deleted bool) {
	if err := s.cache.InvalidateProduct(ctx, productID); err != nil {
		s.logger.ErrorContext(ctx, "failed to evict product cache entry",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.cache.FlushSearch(ctx); err != nil {
		s.logger.ErrorContext(ctx, "failed to flush search cache group",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
	}

	var err error
	if deleted {
		err = s.notifier.ProductDeleted(ctx, productID)
	} else {
		err = s.notifier.ProductUpserted(ctx, productID)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to notify index pipeline",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if notification fails.
	}
}
