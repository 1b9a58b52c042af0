package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aroma-notes/api/internal/domain"
	"github.com/aroma-notes/api/internal/platform/httpx"
	"github.com/aroma-notes/api/internal/services"
)

// AdminCatalogHandlers serves product management for the admin panel.
type AdminCatalogHandlers struct {
	catalog services.CatalogService
}

// NewAdminCatalogHandlers builds the handlers.
func NewAdminCatalogHandlers(catalog services.CatalogService) *AdminCatalogHandlers {
	return &AdminCatalogHandlers{catalog: catalog}
}

type productRequest struct {
	Name            string                  `json:"name"`
	Slug            string                  `json:"slug"`
	Brand           string                  `json:"brand"`
	Gender          string                  `json:"gender"`
	PerfumeType     string                  `json:"perfumeType"`
	CoverImageURL   string                  `json:"coverImageUrl"`
	DescriptionHTML string                  `json:"descriptionHtml"`
	Variants        []domain.ProductVariant `json:"variants"`
	MainAccords     []domain.ProductAccord  `json:"mainAccords"`
}

func (req productRequest) toDomain() domain.Product {
	return domain.Product{
		Name:            req.Name,
		Slug:            req.Slug,
		Brand:           req.Brand,
		Gender:          domain.Gender(req.Gender),
		PerfumeType:     domain.PerfumeType(req.PerfumeType),
		CoverImageURL:   req.CoverImageURL,
		DescriptionHTML: req.DescriptionHTML,
		Variants:        req.Variants,
		MainAccords:     req.MainAccords,
	}
}

func (h *AdminCatalogHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	product, err := h.catalog.Create(r.Context(), req.toDomain())
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}
	httpx.WriteJSON(w, r, http.StatusCreated, product)
}

func (h *AdminCatalogHandlers) Update(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	product := req.toDomain()
	product.ID = chi.URLParam(r, "productID")

	updated, err := h.catalog.Update(r.Context(), product)
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}
	httpx.WriteJSON(w, r, http.StatusOK, updated)
}

func (h *AdminCatalogHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Delete(r.Context(), chi.URLParam(r, "productID")); err != nil {
		writeCatalogError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type imageUploadRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
}

// ImageUpload issues a signed upload URL under the product's slug.
func (h *AdminCatalogHandlers) ImageUpload(w http.ResponseWriter, r *http.Request) {
	var req imageUploadRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	product, err := h.catalog.Get(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}

	ticket, err := h.catalog.ImageUploadTicket(r.Context(), product.Slug, req.Filename, req.ContentType)
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}
	httpx.WriteJSON(w, r, http.StatusCreated, ticket)
}
