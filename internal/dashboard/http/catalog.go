package dashhttp

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ramirolandajo/comercio-insights/internal/upstream"
)

// ProductOption is one entry of the product selector feed.
type ProductOption struct {
	ProductID   int64  `json:"productId"`
	ProductCode string `json:"productCode"`
	Title       string `json:"title"`
	Category    string `json:"category"`
	Brand       string `json:"brand"`
}

// handleCatalogProducts serves the product list the stock and events pages
// use to populate their selectors.
func (h *Handler) handleCatalogProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	products, err := h.service.Products(ctx)
	if err != nil {
		h.respondServerError(w, "load product catalog", err)
		return
	}

	options := make([]ProductOption, 0, len(products))
	for _, p := range products {
		options = append(options, ProductOption{
			ProductID:   p.ProductID,
			ProductCode: p.ProductCode,
			Title:       p.Title,
			Category:    p.Category,
			Brand:       p.Brand,
		})
	}
	h.respondJSON(w, http.StatusOK, options)
}

func (h *Handler) handleCatalogProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	code := strings.TrimSpace(chi.URLParam(r, "code"))
	if code == "" {
		h.respondProblem(w, http.StatusBadRequest, "Parámetro inválido", "code es obligatorio")
		return
	}

	product, err := h.service.ProductByCode(ctx, code)
	if err != nil {
		var statusErr *upstream.StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
			h.respondProblem(w, http.StatusNotFound, "No encontrado", "El producto no existe")
			return
		}
		h.respondServerError(w, "load product", err)
		return
	}
	h.respondJSON(w, http.StatusOK, product)
}
