package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mercato/catalog/internal/service"
	"github.com/mercato/catalog/pkg/httputil"
)

// filterParams are the query-string keys forwarded to the search service.
var filterParams = []string{
	"q", "sku", "category", "status", "name",
	"min_price", "max_price", "price", "created_at",
	"sort", "order", "page", "per_page",
}

// numericParams must parse as numbers when present.
var numericParams = []string{"min_price", "max_price", "price"}

// SearchHandler handles HTTP requests for search endpoints.
type SearchHandler struct {
	service *service.SearchService
	logger  *slog.Logger
}

// NewSearchHandler creates a new search HTTP handler.
func NewSearchHandler(svc *service.SearchService, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		service: svc,
		logger:  logger,
	}
}

// SearchProducts handles GET /api/v1/search/products
func (h *SearchHandler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	raw := make(map[string]string, len(filterParams))
	for _, key := range filterParams {
		if v := query.Get(key); v != "" {
			raw[key] = v
		}
	}

	for _, key := range numericParams {
		v, ok := raw[key]
		if !ok {
			continue
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: key + " must be a valid number"},
			})
			return
		}
	}

	result, err := h.service.SearchProducts(r.Context(), raw)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// Reindex handles POST /api/v1/search/reindex
func (h *SearchHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	go func() {
		ctx := context.Background()
		if err := h.service.Reindex(ctx); err != nil {
			h.logger.ErrorContext(ctx, "background reindex failed", slog.String("error", err.Error()))
		}
	}()

	httputil.WriteJSON(w, http.StatusAccepted, httputil.Response{Data: map[string]string{"status": "reindex started"}})
}
