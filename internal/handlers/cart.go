package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aroma-notes/api/internal/domain"
	"github.com/aroma-notes/api/internal/platform/httpx"
	"github.com/aroma-notes/api/internal/services"
)

// CartHandlers serves the session cart endpoints.
type CartHandlers struct {
	cart services.CartService
}

// NewCartHandlers builds the handlers.
func NewCartHandlers(cart services.CartService) *CartHandlers {
	return &CartHandlers{cart: cart}
}

type cartResponse struct {
	SessionID string            `json:"sessionId"`
	Items     []domain.CartItem `json:"items"`
	Count     int               `json:"count"`
	Total     int64             `json:"total"`
}

func toCartResponse(cart domain.Cart) cartResponse {
	items := cart.Items
	if items == nil {
		items = []domain.CartItem{}
	}
	return cartResponse{
		SessionID: cart.SessionID,
		Items:     items,
		Count:     cart.Count(),
		Total:     cart.Total(),
	}
}

func (h *CartHandlers) Get(w http.ResponseWriter, r *http.Request) {
	cart, err := h.cart.Get(r.Context(), sessionID(r))
	if err != nil {
		writeCartError(w, r, err)
		return
	}
	httpx.WriteJSON(w, r, http.StatusOK, toCartResponse(cart))
}

type addItemRequest struct {
	Item     domain.CartItem `json:"item"`
	Quantity int             `json:"quantity"`
}

func (h *CartHandlers) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	cart, err := h.cart.AddItem(r.Context(), sessionID(r), req.Item, req.Quantity)
	if err != nil {
		writeCartError(w, r, err)
		return
	}
	httpx.WriteJSON(w, r, http.StatusOK, toCartResponse(cart))
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandlers) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req updateQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	cart, err := h.cart.UpdateQuantity(r.Context(), sessionID(r), chi.URLParam(r, "itemID"), req.Quantity)
	if err != nil {
		writeCartError(w, r, err)
		return
	}
	httpx.WriteJSON(w, r, http.StatusOK, toCartResponse(cart))
}

func (h *CartHandlers) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cart, err := h.cart.RemoveItem(r.Context(), sessionID(r), chi.URLParam(r, "itemID"))
	if err != nil {
		writeCartError(w, r, err)
		return
	}
	httpx.WriteJSON(w, r, http.StatusOK, toCartResponse(cart))
}

func (h *CartHandlers) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.cart.Clear(r.Context(), sessionID(r)); err != nil {
		writeCartError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeCartError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, services.ErrCartInvalidInput) {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "cart operation failed")
}
