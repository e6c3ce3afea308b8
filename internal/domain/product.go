package domain

import (
	"time"
)

// Product statuses.
const (
	ProductStatusActive   = "active"
	ProductStatusInactive = "inactive"
)

// ValidStatuses returns the list of valid product statuses.
func ValidStatuses() []string {
	return []string{ProductStatusActive, ProductStatusInactive}
}

// IsValidStatus checks whether the given status is valid.
func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// Product is the catalog record owned by the relational store. The cache and
// the index pipeline only ever hold transient copies or identifiers.
type Product struct {
	ID          string     `json:"id"`
	SKU         string     `json:"sku"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Price       float64    `json:"price"`
	Category    *string    `json:"category,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"-"`
}

// DateTimeFormat is the date format stored in the search index, matching the
// index mapping's declared format.
const DateTimeFormat = "2006-01-02 15:04:05"

// ProductDocument is the projection of a Product stored in the search index.
// Derived, never authoritative; rebuilt in full on every propagation.
type ProductDocument struct {
	ID          string  `json:"id"`
	SKU         string  `json:"sku"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// Document builds the index projection of the product.
func (p *Product) Document() *ProductDocument {
	doc := &ProductDocument{
		ID:          p.ID,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Status:      p.Status,
		CreatedAt:   p.CreatedAt.UTC().Format(DateTimeFormat),
		UpdatedAt:   p.UpdatedAt.UTC().Format(DateTimeFormat),
	}
	if p.Category != nil {
		doc.Category = *p.Category
	}
	return doc
}
