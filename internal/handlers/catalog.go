package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aroma-notes/api/internal/domain"
	"github.com/aroma-notes/api/internal/platform/httpx"
	"github.com/aroma-notes/api/internal/services"
)

// CatalogHandlers serves the public product read endpoints, both the
// Firestore catalog and the Sanity-sourced one.
type CatalogHandlers struct {
	catalog services.CatalogService
	content services.ContentService
}

// NewCatalogHandlers builds the handlers. content may be nil when no
// Sanity project is configured.
func NewCatalogHandlers(catalog services.CatalogService, content services.ContentService) *CatalogHandlers {
	return &CatalogHandlers{catalog: catalog, content: content}
}

type productView struct {
	domain.Product
	DisplayPrice *int64 `json:"displayPrice,omitempty"`
	PrimaryImage string `json:"primaryImage,omitempty"`
}

func toProductView(p domain.Product) productView {
	if p.Variants == nil {
		p.Variants = []domain.ProductVariant{}
	}
	return productView{
		Product:      p,
		DisplayPrice: domain.DisplayPrice(p),
		PrimaryImage: domain.PrimaryImage(p),
	}
}

func toProductViews(products []domain.Product) []productView {
	views := make([]productView, 0, len(products))
	for _, p := range products {
		views = append(views, toProductView(p))
	}
	return views
}

func (h *CatalogHandlers) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.List(r.Context())
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}
	httpx.WriteJSON(w, r, http.StatusOK, map[string]any{"products": toProductViews(products)})
}

func (h *CatalogHandlers) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.Get(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}
	httpx.WriteJSON(w, r, http.StatusOK, toProductView(product))
}

func (h *CatalogHandlers) ContentList(w http.ResponseWriter, r *http.Request) {
	if h.content == nil {
		httpx.WriteError(w, r, http.StatusNotImplemented, "content_disabled", "content catalog is not configured")
		return
	}
	products, err := h.content.Products(r.Context())
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}
	httpx.WriteJSON(w, r, http.StatusOK, map[string]any{"products": toProductViews(products)})
}

func (h *CatalogHandlers) ContentGet(w http.ResponseWriter, r *http.Request) {
	if h.content == nil {
		httpx.WriteError(w, r, http.StatusNotImplemented, "content_disabled", "content catalog is not configured")
		return
	}
	product, err := h.content.ProductBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}
	httpx.WriteJSON(w, r, http.StatusOK, toProductView(product))
}

func writeCatalogError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrProductNotFound):
		httpx.WriteError(w, r, http.StatusNotFound, "product_not_found", "no such product")
	case errors.Is(err, services.ErrProductInvalidInput):
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, services.ErrContentUnavailable):
		httpx.WriteError(w, r, http.StatusBadGateway, "content_unavailable", "content backend is unreachable")
	default:
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "catalog operation failed")
	}
}
