package search

import (
	"strconv"
	"strings"
)

const (
	// DefaultPage is used when no page parameter is supplied.
	DefaultPage = 1
	// DefaultPerPage is used when no per_page parameter is supplied.
	DefaultPerPage = 15
	// MaxPerPage caps the result window size.
	MaxPerPage = 100

	// DefaultSortField orders results by recency when no sort is given.
	DefaultSortField = "created_at"
	// DefaultSortOrder is the fallback direction for unknown order values.
	DefaultSortOrder = "desc"
)

// sortFields are the document fields accepted as sort targets. Unknown
// fields fall back to DefaultSortField rather than reaching the engine.
var sortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"price":      true,
}

// Params is a normalized, sparse set of search filters. Keys with empty
// values are never present; page, per_page, sort and order always are.
type Params map[string]string

// Normalize canonicalizes a raw filter map: values are trimmed and empty
// ones dropped, the price shorthand is expanded into an inclusive
// min_price/max_price range when neither bound is given, sort and order
// fall back to their defaults, and page/per_page are parsed and clamped.
// Two requests that mean the same search normalize to the same Params.
func Normalize(raw map[string]string) Params {
	p := make(Params, len(raw))
	for k, v := range raw {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		p[k] = v
	}

	if price, ok := p["price"]; ok {
		_, hasMin := p["min_price"]
		_, hasMax := p["max_price"]
		if !hasMin && !hasMax {
			p["min_price"] = price
			p["max_price"] = price
		}
		delete(p, "price")
	}

	if !sortFields[p["sort"]] {
		p["sort"] = DefaultSortField
	}
	order := strings.ToLower(p["order"])
	if order != "asc" && order != "desc" {
		order = DefaultSortOrder
	}
	p["order"] = order

	p["page"] = strconv.Itoa(p.Page())
	p["per_page"] = strconv.Itoa(p.PerPage())

	return p
}

// Page returns the requested page number, defaulting to DefaultPage.
func (p Params) Page() int {
	n, err := strconv.Atoi(p["page"])
	if err != nil || n < 1 {
		return DefaultPage
	}
	return n
}

// PerPage returns the requested page size, clamped to [1, MaxPerPage].
func (p Params) PerPage() int {
	n, err := strconv.Atoi(p["per_page"])
	if err != nil || n < 1 {
		return DefaultPerPage
	}
	if n > MaxPerPage {
		return MaxPerPage
	}
	return n
}

// Window returns the result offset and size for the requested page.
func (p Params) Window() (from, size int) {
	size = p.PerPage()
	from = (p.Page() - 1) * size
	return from, size
}

// BuildQuery translates normalized params into the engine query DSL.
// Clauses are appended in a fixed order and map keys marshal sorted, so
// the same params always produce a byte-identical body.
func BuildQuery(p Params) *Query {
	var must []any

	if q, ok := p["q"]; ok {
		must = append(must, map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"name^2", "description", "sku"},
			},
		})
	}

	for _, field := range []string{"sku", "category", "status"} {
		if v, ok := p[field]; ok {
			must = append(must, map[string]any{
				"term": map[string]any{
					field + ".keyword": v,
				},
			})
		}
	}

	if name, ok := p["name"]; ok {
		must = append(must, map[string]any{
			"match": map[string]any{
				"name": name,
			},
		})
	}

	priceRange := map[string]any{}
	if v, ok := parseFloat(p["min_price"]); ok {
		priceRange["gte"] = v
	}
	if v, ok := parseFloat(p["max_price"]); ok {
		priceRange["lte"] = v
	}
	if len(priceRange) > 0 {
		must = append(must, map[string]any{
			"range": map[string]any{
				"price": priceRange,
			},
		})
	}

	if createdAt, ok := p["created_at"]; ok {
		must = append(must, map[string]any{
			"term": map[string]any{
				"created_at": createdAt,
			},
		})
	}

	var queryClause map[string]any
	if len(must) > 0 {
		queryClause = map[string]any{
			"bool": map[string]any{
				"must": must,
			},
		}
	} else {
		queryClause = map[string]any{
			"match_all": map[string]any{},
		}
	}

	from, size := p.Window()

	body := map[string]any{
		"query": queryClause,
		"sort": []any{
			map[string]any{
				p["sort"]: map[string]any{"order": p["order"]},
			},
		},
		"from": from,
		"size": size,
	}

	return &Query{Body: body, From: from, Size: size}
}

func parseFloat(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
