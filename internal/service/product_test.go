package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercato/catalog/internal/cache"
	"github.com/mercato/catalog/internal/domain"
	"github.com/mercato/catalog/internal/repository"
	apperrors "github.com/mercato/catalog/pkg/errors"
)

// fakeRepo is an in-memory repository.ProductRepository with SKU
// uniqueness and soft-delete semantics.
type fakeRepo struct {
	mu       sync.Mutex
	products map[string]domain.Product
	getCalls int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{products: make(map[string]domain.Product)}
}

func (r *fakeRepo) Create(_ context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.products {
		if existing.SKU == p.SKU && existing.DeletedAt == nil {
			return apperrors.AlreadyExists("product", "sku", p.SKU)
		}
	}
	r.products[p.ID] = *p
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getCalls++
	p, ok := r.products[id]
	if !ok || p.DeletedAt != nil {
		return nil, apperrors.ErrNotFound
	}
	return &p, nil
}

func (r *fakeRepo) GetBySKU(_ context.Context, sku string) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.SKU == sku && p.DeletedAt == nil {
			return &p, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeRepo) List(_ context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []domain.Product
	for _, p := range r.products {
		if p.DeletedAt != nil {
			continue
		}
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		items = append(items, p)
	}
	return items, len(items), nil
}

func (r *fakeRepo) Update(_ context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.products[p.ID]
	if !ok || existing.DeletedAt != nil {
		return apperrors.NotFound("product", p.ID)
	}
	r.products[p.ID] = *p
	return nil
}

func (r *fakeRepo) SoftDelete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok || p.DeletedAt != nil {
		return apperrors.NotFound("product", id)
	}
	now := time.Now().UTC()
	p.DeletedAt = &now
	r.products[id] = p
	return nil
}

// recordingNotifier records notifications and optionally fails.
type recordingNotifier struct {
	mu       sync.Mutex
	upserted []string
	deleted  []string
	err      error
}

func (n *recordingNotifier) ProductUpserted(_ context.Context, id string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.upserted = append(n.upserted, id)
	return nil
}

func (n *recordingNotifier) ProductDeleted(_ context.Context, id string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.deleted = append(n.deleted, id)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestCache(t *testing.T) *cache.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.New(client, 60*time.Second, 120*time.Second, testLogger())
}

func newProductService(t *testing.T) (*ProductService, *fakeRepo, *recordingNotifier) {
	t.Helper()
	repo := newFakeRepo()
	notifier := &recordingNotifier{}
	svc := NewProductService(repo, newTestCache(t), notifier, testLogger())
	return svc, repo, notifier
}

func createInput() *CreateProductInput {
	category := "gadgets"
	return &CreateProductInput{
		SKU:         "WID-001",
		Name:        "Widget",
		Description: "A fine widget",
		Price:       19.99,
		Category:    &category,
	}
}

func TestProductService_CreateProduct_Success(t *testing.T) {
	svc, _, notifier := newProductService(t)

	p, err := svc.CreateProduct(context.Background(), createInput())
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "WID-001", p.SKU)
	assert.Equal(t, domain.ProductStatusActive, p.Status, "status defaults to active")
	assert.Equal(t, []string{p.ID}, notifier.upserted)
}

func TestProductService_CreateProduct_DuplicateSKU(t *testing.T) {
	svc, _, _ := newProductService(t)

	_, err := svc.CreateProduct(context.Background(), createInput())
	require.NoError(t, err)

	_, err = svc.CreateProduct(context.Background(), createInput())
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

func TestProductService_CreateProduct_Validation(t *testing.T) {
	svc, _, notifier := newProductService(t)

	cases := []struct {
		name  string
		input *CreateProductInput
	}{
		{"missing sku", &CreateProductInput{Name: "Widget", Price: 1}},
		{"missing name", &CreateProductInput{SKU: "WID-001", Price: 1}},
		{"negative price", &CreateProductInput{SKU: "WID-001", Name: "Widget", Price: -1}},
		{"bad status", &CreateProductInput{SKU: "WID-001", Name: "Widget", Price: 1, Status: "archived"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateProduct(context.Background(), tc.input)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}
	assert.Empty(t, notifier.upserted, "no notifications for rejected input")
}

func TestProductService_GetProduct_ServesFromCache(t *testing.T) {
	svc, repo, _ := newProductService(t)

	created, err := svc.CreateProduct(context.Background(), createInput())
	require.NoError(t, err)

	before := repo.getCalls
	_, err = svc.GetProduct(context.Background(), created.ID)
	require.NoError(t, err)
	_, err = svc.GetProduct(context.Background(), created.ID)
	require.NoError(t, err)

	assert.Equal(t, before+1, repo.getCalls, "second read must hit the cache")
}

func TestProductService_GetProduct_NotFound(t *testing.T) {
	svc, _, _ := newProductService(t)

	_, err := svc.GetProduct(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestProductService_UpdateProduct_PartialAndEvicts(t *testing.T) {
	svc, _, notifier := newProductService(t)

	created, err := svc.CreateProduct(context.Background(), createInput())
	require.NoError(t, err)

	// Warm the cache.
	_, err = svc.GetProduct(context.Background(), created.ID)
	require.NoError(t, err)

	newName := "Super Widget"
	newPrice := 29.99
	updated, err := svc.UpdateProduct(context.Background(), created.ID, &UpdateProductInput{
		Name:  &newName,
		Price: &newPrice,
	})
	require.NoError(t, err)
	assert.Equal(t, "Super Widget", updated.Name)
	assert.Equal(t, 29.99, updated.Price)
	assert.Equal(t, created.SKU, updated.SKU, "unset fields stay unchanged")

	// The stale cache entry was evicted; the next read sees the update.
	got, err := svc.GetProduct(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Super Widget", got.Name)

	assert.Equal(t, []string{created.ID, created.ID}, notifier.upserted)
}

func TestProductService_UpdateProduct_NotFound(t *testing.T) {
	svc, _, _ := newProductService(t)

	name := "Widget"
	_, err := svc.UpdateProduct(context.Background(), "ghost", &UpdateProductInput{Name: &name})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestProductService_UpdateProduct_InvalidStatus(t *testing.T) {
	svc, _, _ := newProductService(t)

	created, err := svc.CreateProduct(context.Background(), createInput())
	require.NoError(t, err)

	bad := "archived"
	_, err = svc.UpdateProduct(context.Background(), created.ID, &UpdateProductInput{Status: &bad})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestProductService_DeleteProduct_Success(t *testing.T) {
	svc, _, notifier := newProductService(t)

	created, err := svc.CreateProduct(context.Background(), createInput())
	require.NoError(t, err)

	// Warm the cache so the delete has something to evict.
	_, err = svc.GetProduct(context.Background(), created.ID)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProduct(context.Background(), created.ID))
	assert.Equal(t, []string{created.ID}, notifier.deleted)

	_, err = svc.GetProduct(context.Background(), created.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestProductService_DeleteProduct_NotFound(t *testing.T) {
	svc, _, notifier := newProductService(t)

	err := svc.DeleteProduct(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Empty(t, notifier.deleted)
}

func TestProductService_NotifierFailureDoesNotFailMutation(t *testing.T) {
	repo := newFakeRepo()
	notifier := &recordingNotifier{err: assert.AnError}
	svc := NewProductService(repo, newTestCache(t), notifier, testLogger())

	p, err := svc.CreateProduct(context.Background(), createInput())
	require.NoError(t, err, "committed writes stand even when notification fails")
	assert.NotEmpty(t, p.ID)
}

func TestProductService_ListProducts_ClampsPagination(t *testing.T) {
	svc, _, _ := newProductService(t)

	_, err := svc.CreateProduct(context.Background(), createInput())
	require.NoError(t, err)

	items, total, err := svc.ListProducts(context.Background(), repository.ProductFilter{Page: -1, PerPage: 9999})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, items, 1)
}
