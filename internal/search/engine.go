package search

import (
	"context"

	"github.com/mercato/catalog/internal/domain"
)

// Engine defines the interface for indexing and searching product documents.
// Implementations may use Elasticsearch, in-memory storage, or other backends.
type Engine interface {
	// Index adds or updates a single product document in the search index.
	Index(ctx context.Context, doc *domain.ProductDocument) error

	// Delete removes a product document from the search index by its ID.
	// Deleting a document that is not indexed is not an error.
	Delete(ctx context.Context, id string) error

	// Search executes a prebuilt query and returns matching documents.
	Search(ctx context.Context, query *Query) (*ResultSet, error)

	// BulkIndex adds or updates multiple product documents in the search index.
	BulkIndex(ctx context.Context, docs []domain.ProductDocument) error
}

// Query is a fully built search request: the query DSL body plus the
// result window. Build it with BuildQuery so that identical parameters
// always produce an identical body.
type Query struct {
	Body map[string]any
	From int
	Size int
}

// ResultSet holds the outcome of a search query.
type ResultSet struct {
	Products []domain.ProductDocument `json:"products"`
	Total    int                      `json:"total"`
	Page     int                      `json:"page"`
	PerPage  int                      `json:"per_page"`
	TookMs   int64                    `json:"took_ms"`
}
