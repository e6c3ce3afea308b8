package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mercato/catalog/internal/domain"
	"github.com/mercato/catalog/internal/search"
)

// Engine is an in-memory implementation of the search.Engine interface.
// It interprets the subset of the query DSL emitted by search.BuildQuery:
// a bool.must list of multi_match, term, match and range clauses, or
// match_all, plus a single-field sort and a from/size window. Thread-safe
// via sync.RWMutex.
type Engine struct {
	mu   sync.RWMutex
	docs map[string]domain.ProductDocument
}

// New creates a new in-memory search engine.
func New() *Engine {
	return &Engine{
		docs: make(map[string]domain.ProductDocument),
	}
}

// Index adds or updates a single product document in the in-memory index.
func (e *Engine) Index(_ context.Context, doc *domain.ProductDocument) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.docs[doc.ID] = *doc
	return nil
}

// Delete removes a product document from the in-memory index by its ID.
func (e *Engine) Delete(_ context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.docs, id)
	return nil
}

// BulkIndex adds or updates multiple product documents in the in-memory index.
func (e *Engine) BulkIndex(_ context.Context, docs []domain.ProductDocument) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range docs {
		e.docs[docs[i].ID] = docs[i]
	}
	return nil
}

// Search executes a prebuilt query against the in-memory index.
func (e *Engine) Search(_ context.Context, query *search.Query) (*search.ResultSet, error) {
	start := time.Now()

	e.mu.RLock()
	defer e.mu.RUnlock()

	must := mustClauses(query.Body)

	matched := make([]domain.ProductDocument, 0)
	for _, doc := range e.docs {
		if matchesAll(doc, must) {
			matched = append(matched, doc)
		}
	}

	sortDocs(matched, query.Body)

	total := len(matched)

	offset := query.From
	if offset > total {
		offset = total
	}
	end := offset + query.Size
	if end > total {
		end = total
	}

	return &search.ResultSet{
		Products: matched[offset:end],
		Total:    total,
		TookMs:   time.Since(start).Milliseconds(),
	}, nil
}

// mustClauses extracts the bool.must clause list from the query body.
// A match_all query yields an empty list, which matches every document.
func mustClauses(body map[string]any) []any {
	queryClause, ok := body["query"].(map[string]any)
	if !ok {
		return nil
	}
	boolClause, ok := queryClause["bool"].(map[string]any)
	if !ok {
		return nil
	}
	must, _ := boolClause["must"].([]any)
	return must
}

func matchesAll(doc domain.ProductDocument, must []any) bool {
	for _, raw := range must {
		clause, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if !matchesClause(doc, clause) {
			return false
		}
	}
	return true
}

func matchesClause(doc domain.ProductDocument, clause map[string]any) bool {
	if mm, ok := clause["multi_match"].(map[string]any); ok {
		return matchesMultiMatch(doc, mm)
	}
	if term, ok := clause["term"].(map[string]any); ok {
		return matchesTerm(doc, term)
	}
	if match, ok := clause["match"].(map[string]any); ok {
		for field, value := range match {
			if !containsFold(fieldValue(doc, field), toString(value)) {
				return false
			}
		}
		return true
	}
	if rng, ok := clause["range"].(map[string]any); ok {
		return matchesRange(doc, rng)
	}
	return true
}

func matchesMultiMatch(doc domain.ProductDocument, mm map[string]any) bool {
	query := toString(mm["query"])
	fields, _ := mm["fields"].([]string)
	if fields == nil {
		// Fields may arrive as []any after a marshal round-trip.
		if rawFields, ok := mm["fields"].([]any); ok {
			for _, f := range rawFields {
				fields = append(fields, toString(f))
			}
		}
	}

	for _, field := range fields {
		// Strip boost suffixes like name^2.
		if idx := strings.IndexByte(field, '^'); idx >= 0 {
			field = field[:idx]
		}
		if containsFold(fieldValue(doc, field), query) {
			return true
		}
	}
	return false
}

func matchesTerm(doc domain.ProductDocument, term map[string]any) bool {
	for field, value := range term {
		field = strings.TrimSuffix(field, ".keyword")
		if fieldValue(doc, field) != toString(value) {
			return false
		}
	}
	return true
}

func matchesRange(doc domain.ProductDocument, rng map[string]any) bool {
	for field, raw := range rng {
		bounds, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if field != "price" {
			continue
		}
		if gte, ok := toFloat(bounds["gte"]); ok && doc.Price < gte {
			return false
		}
		if lte, ok := toFloat(bounds["lte"]); ok && doc.Price > lte {
			return false
		}
	}
	return true
}

// sortDocs applies the body's single-field sort clause.
func sortDocs(docs []domain.ProductDocument, body map[string]any) {
	sortList, ok := body["sort"].([]any)
	if !ok || len(sortList) == 0 {
		return
	}
	entry, ok := sortList[0].(map[string]any)
	if !ok {
		return
	}

	for field, raw := range entry {
		order := "desc"
		if opts, ok := raw.(map[string]any); ok {
			order = toString(opts["order"])
		}
		asc := order == "asc"

		sort.SliceStable(docs, func(i, j int) bool {
			if field == "price" {
				if asc {
					return docs[i].Price < docs[j].Price
				}
				return docs[i].Price > docs[j].Price
			}
			// Date strings in the index layout compare lexicographically.
			a, b := docs[i].CreatedAt, docs[j].CreatedAt
			if field == "updated_at" {
				a, b = docs[i].UpdatedAt, docs[j].UpdatedAt
			}
			if asc {
				return a < b
			}
			return a > b
		})
		return
	}
}

func fieldValue(doc domain.ProductDocument, field string) string {
	switch field {
	case "id":
		return doc.ID
	case "sku":
		return doc.SKU
	case "name":
		return doc.Name
	case "description":
		return doc.Description
	case "category":
		return doc.Category
	case "status":
		return doc.Status
	case "created_at":
		return doc.CreatedAt
	case "updated_at":
		return doc.UpdatedAt
	default:
		return ""
	}
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
