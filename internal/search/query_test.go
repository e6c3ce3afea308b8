package search

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_Defaults(t *testing.T) {
	p := Normalize(map[string]string{})

	assert.Equal(t, "created_at", p["sort"])
	assert.Equal(t, "desc", p["order"])
	assert.Equal(t, "1", p["page"])
	assert.Equal(t, "15", p["per_page"])
	assert.Equal(t, 1, p.Page())
	assert.Equal(t, 15, p.PerPage())
}

func TestNormalize_DropsEmptyValues(t *testing.T) {
	p := Normalize(map[string]string{
		"q":        "  laptop  ",
		"category": "",
		"status":   "   ",
	})

	assert.Equal(t, "laptop", p["q"])
	_, hasCategory := p["category"]
	assert.False(t, hasCategory)
	_, hasStatus := p["status"]
	assert.False(t, hasStatus)
}

func TestNormalize_PriceShorthand(t *testing.T) {
	p := Normalize(map[string]string{"price": "20"})

	assert.Equal(t, "20", p["min_price"])
	assert.Equal(t, "20", p["max_price"])
	_, hasPrice := p["price"]
	assert.False(t, hasPrice)
}

func TestNormalize_PriceShorthand_ExplicitBoundWins(t *testing.T) {
	p := Normalize(map[string]string{"price": "20", "min_price": "5"})

	assert.Equal(t, "5", p["min_price"])
	_, hasMax := p["max_price"]
	assert.False(t, hasMax)
	_, hasPrice := p["price"]
	assert.False(t, hasPrice)
}

func TestNormalize_SortAndOrderFallback(t *testing.T) {
	p := Normalize(map[string]string{"sort": "evil_field", "order": "SIDEWAYS"})
	assert.Equal(t, "created_at", p["sort"])
	assert.Equal(t, "desc", p["order"])

	p = Normalize(map[string]string{"sort": "price", "order": "ASC"})
	assert.Equal(t, "price", p["sort"])
	assert.Equal(t, "asc", p["order"])
}

func TestNormalize_PageClamping(t *testing.T) {
	p := Normalize(map[string]string{"page": "0", "per_page": "1000"})
	assert.Equal(t, 1, p.Page())
	assert.Equal(t, 100, p.PerPage())

	p = Normalize(map[string]string{"page": "nope", "per_page": "-3"})
	assert.Equal(t, 1, p.Page())
	assert.Equal(t, 15, p.PerPage())
}

func TestParams_Window(t *testing.T) {
	p := Normalize(map[string]string{"page": "3", "per_page": "10"})
	from, size := p.Window()
	assert.Equal(t, 20, from)
	assert.Equal(t, 10, size)
}

func TestBuildQuery_MatchAllWhenNoFilters(t *testing.T) {
	q := BuildQuery(Normalize(map[string]string{}))

	queryClause, ok := q.Body["query"].(map[string]any)
	require.True(t, ok)
	_, hasMatchAll := queryClause["match_all"]
	assert.True(t, hasMatchAll)
	assert.Equal(t, 0, q.From)
	assert.Equal(t, 15, q.Size)
}

func TestBuildQuery_Clauses(t *testing.T) {
	q := BuildQuery(Normalize(map[string]string{
		"q":         "laptop",
		"sku":       "LAP-001",
		"category":  "computers",
		"status":    "active",
		"name":      "thinkpad",
		"min_price": "100",
		"max_price": "500",
	}))

	data, err := json.Marshal(q.Body)
	require.NoError(t, err)
	body := string(data)

	assert.Contains(t, body, `"multi_match":{"fields":["name^2","description","sku"],"query":"laptop"}`)
	assert.Contains(t, body, `"term":{"sku.keyword":"LAP-001"}`)
	assert.Contains(t, body, `"term":{"category.keyword":"computers"}`)
	assert.Contains(t, body, `"term":{"status.keyword":"active"}`)
	assert.Contains(t, body, `"match":{"name":"thinkpad"}`)
	assert.Contains(t, body, `"range":{"price":{"gte":100,"lte":500}}`)
	assert.Contains(t, body, `"sort":[{"created_at":{"order":"desc"}}]`)
}

func TestBuildQuery_CreatedAtTerm(t *testing.T) {
	q := BuildQuery(Normalize(map[string]string{"created_at": "2025-06-15"}))

	data, err := json.Marshal(q.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"term":{"created_at":"2025-06-15"}`)
}

func TestBuildQuery_Deterministic(t *testing.T) {
	raw := map[string]string{
		"q":        "widget",
		"category": "gadgets",
		"status":   "active",
		"page":     "2",
		"per_page": "10",
	}

	first, err := json.Marshal(BuildQuery(Normalize(raw)).Body)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		next, err := json.Marshal(BuildQuery(Normalize(raw)).Body)
		require.NoError(t, err)
		assert.Equal(t, string(first), string(next))
	}
}

func TestBuildQuery_PriceShorthandEquivalence(t *testing.T) {
	shorthand, err := json.Marshal(BuildQuery(Normalize(map[string]string{"price": "20"})).Body)
	require.NoError(t, err)

	explicit, err := json.Marshal(BuildQuery(Normalize(map[string]string{
		"min_price": "20",
		"max_price": "20",
	})).Body)
	require.NoError(t, err)

	assert.Equal(t, string(explicit), string(shorthand))
}

func TestBuildQuery_OffsetMath(t *testing.T) {
	q := BuildQuery(Normalize(map[string]string{"page": "5", "per_page": "25"}))
	assert.Equal(t, 100, q.From)
	assert.Equal(t, 25, q.Size)
	assert.Equal(t, 100, q.Body["from"])
	assert.Equal(t, 25, q.Body["size"])
}
