package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercato/catalog/internal/domain"
	"github.com/mercato/catalog/internal/search"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(client, 60*time.Second, 120*time.Second, logger), mr
}

func testProduct(id string) *domain.Product {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	return &domain.Product{
		ID:        id,
		SKU:       "WID-001",
		Name:      "Widget",
		Price:     19.99,
		Status:    domain.ProductStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func testResultSet() *search.ResultSet {
	return &search.ResultSet{
		Products: []domain.ProductDocument{{ID: "p1", Name: "Widget"}},
		Total:    1,
		Page:     1,
		PerPage:  15,
	}
}

func TestFingerprint_Stable(t *testing.T) {
	a := Fingerprint(map[string]string{"q": "widget", "status": "active"})
	b := Fingerprint(map[string]string{"status": "active", "q": "widget"})
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	c := Fingerprint(map[string]string{"q": "gadget", "status": "active"})
	assert.NotEqual(t, a, c)
}

func TestStore_GetOrLoadProduct_MissThenHit(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	loads := 0
	loader := func(context.Context) (*domain.Product, error) {
		loads++
		return testProduct("p1"), nil
	}

	p, err := store.GetOrLoadProduct(ctx, "p1", loader)
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, 1, loads)

	p, err = store.GetOrLoadProduct(ctx, "p1", loader)
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, 1, loads, "second read should be served from cache")
}

func TestStore_GetOrLoadProduct_LoaderErrorSurfaces(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	wantErr := errors.New("row gone")
	_, err := store.GetOrLoadProduct(ctx, "p1", func(context.Context) (*domain.Product, error) {
		return nil, wantErr
	})
	assert.ErrorIs(t, err, wantErr)
	assert.False(t, mr.Exists("product:p1"), "failed loads must not be cached")
}

func TestStore_GetOrLoadProduct_RedisDownDegradesToLoader(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	mr.Close()

	p, err := store.GetOrLoadProduct(ctx, "p1", func(context.Context) (*domain.Product, error) {
		return testProduct("p1"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
}

func TestStore_InvalidateProduct(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	_, err := store.GetOrLoadProduct(ctx, "p1", func(context.Context) (*domain.Product, error) {
		return testProduct("p1"), nil
	})
	require.NoError(t, err)
	require.True(t, mr.Exists("product:p1"))

	require.NoError(t, store.InvalidateProduct(ctx, "p1"))
	assert.False(t, mr.Exists("product:p1"))
}

func TestStore_GetOrLoadSearch_MissThenHit(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	fp := Fingerprint(map[string]string{"q": "widget"})
	loads := 0
	loader := func(context.Context) (*search.ResultSet, error) {
		loads++
		return testResultSet(), nil
	}

	rs, err := store.GetOrLoadSearch(ctx, fp, loader)
	require.NoError(t, err)
	assert.Equal(t, 1, rs.Total)
	assert.Equal(t, 1, loads)

	rs, err = store.GetOrLoadSearch(ctx, fp, loader)
	require.NoError(t, err)
	assert.Equal(t, 1, rs.Total)
	assert.Equal(t, 1, loads, "second read should be served from cache")
}

func TestStore_FlushSearch_MakesEntriesStale(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	fp := Fingerprint(map[string]string{"q": "widget"})
	loads := 0
	loader := func(context.Context) (*search.ResultSet, error) {
		loads++
		return testResultSet(), nil
	}

	_, err := store.GetOrLoadSearch(ctx, fp, loader)
	require.NoError(t, err)
	require.Equal(t, 1, loads)

	require.NoError(t, store.FlushSearch(ctx))

	_, err = store.GetOrLoadSearch(ctx, fp, loader)
	require.NoError(t, err)
	assert.Equal(t, 2, loads, "flush must force a reload")

	// A second read under the new generation hits the cache again.
	_, err = store.GetOrLoadSearch(ctx, fp, loader)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
}

func TestStore_GetOrLoadSearch_EntriesExpire(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	fp := Fingerprint(map[string]string{"q": "widget"})
	loads := 0
	loader := func(context.Context) (*search.ResultSet, error) {
		loads++
		return testResultSet(), nil
	}

	_, err := store.GetOrLoadSearch(ctx, fp, loader)
	require.NoError(t, err)

	// TTLs are drawn from [60s, 120s); two minutes clears everything.
	mr.FastForward(2 * time.Minute)

	_, err = store.GetOrLoadSearch(ctx, fp, loader)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
}

func TestStore_GetOrLoadSearch_LoaderErrorSurfaces(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	wantErr := errors.New("engine down")
	_, err := store.GetOrLoadSearch(ctx, "fp", func(context.Context) (*search.ResultSet, error) {
		return nil, wantErr
	})
	assert.ErrorIs(t, err, wantErr)
}
