package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/mercato/catalog/internal/cache"
	"github.com/mercato/catalog/internal/domain"
	"github.com/mercato/catalog/internal/repository"
	"github.com/mercato/catalog/internal/search"
)

// maxCacheablePage is the deepest page served through the search cache.
// Deep pages are rare, expensive to keep warm and cheap to recompute, so
// they bypass the cache in both directions.
const maxCacheablePage = 50

// reindexPageSize is how many products each reindex batch loads from
// the store and bulk-indexes.
const reindexPageSize = 500

// ProductLister pages through the relational store. Reindex walks it to
// rebuild the search index from the source of truth.
type ProductLister interface {
	List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error)
}

// SearchService executes catalog searches: normalize the filters, apply
// the page-depth rule, consult the read-through cache, and run the query
// against the engine behind a circuit breaker. Read-path errors surface
// to the caller; there is no stale fallback.
type SearchService struct {
	engine   search.Engine
	cache    *cache.Store
	products ProductLister
	breaker  *gobreaker.CircuitBreaker[*search.ResultSet]
	logger   *slog.Logger
}

// NewSearchService creates a new search service with a breaker guarding
// the engine.
func NewSearchService(engine search.Engine, cacheStore *cache.Store, products ProductLister, logger *slog.Logger) *SearchService {
	settings := gobreaker.Settings{
		Name:        "search-engine",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	}

	return &SearchService{
		engine:   engine,
		cache:    cacheStore,
		products: products,
		breaker:  gobreaker.NewCircuitBreaker[*search.ResultSet](settings),
		logger:   logger,
	}
}

// Reindex rebuilds the search index from the relational store, paging
// through all live products and bulk-indexing each batch. The search
// cache group is flushed afterwards so cached result sets do not
// outlive the rebuild.
func (s *SearchService) Reindex(ctx context.Context) error {
	page := 1
	indexed := 0
	for {
		products, total, err := s.products.List(ctx, repository.ProductFilter{Page: page, PerPage: reindexPageSize})
		if err != nil {
			return fmt.Errorf("reindex: list page %d: %w", page, err)
		}
		if len(products) == 0 {
			break
		}

		docs := make([]domain.ProductDocument, 0, len(products))
		for i := range products {
			docs = append(docs, *products[i].Document())
		}
		if err := s.engine.BulkIndex(ctx, docs); err != nil {
			return fmt.Errorf("reindex: bulk index page %d: %w", page, err)
		}

		indexed += len(products)
		if indexed >= total || len(products) < reindexPageSize {
			break
		}
		page++
	}

	if err := s.cache.FlushSearch(ctx); err != nil {
		s.logger.ErrorContext(ctx, "failed to flush search cache after reindex", slog.String("error", err.Error()))
	}

	s.logger.InfoContext(ctx, "reindex complete", slog.Int("indexed", indexed))
	return nil
}

// SearchProducts runs a search for the given raw filter map.
func (s *SearchService) SearchProducts(ctx context.Context, raw map[string]string) (*search.ResultSet, error) {
	params := search.Normalize(raw)
	page, perPage := params.Page(), params.PerPage()

	loader := func(ctx context.Context) (*search.ResultSet, error) {
		return s.execute(ctx, params)
	}

	var (
		result *search.ResultSet
		err    error
	)
	if page > maxCacheablePage {
		result, err = loader(ctx)
	} else {
		result, err = s.cache.GetOrLoadSearch(ctx, cache.Fingerprint(params), loader)
	}
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}

	result.Page = page
	result.PerPage = perPage
	return result, nil
}

// execute builds the query and runs it through the breaker.
func (s *SearchService) execute(ctx context.Context, params search.Params) (*search.ResultSet, error) {
	query := search.BuildQuery(params)

	return s.breaker.Execute(func() (*search.ResultSet, error) {
		return s.engine.Search(ctx, query)
	})
}
