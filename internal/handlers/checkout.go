package handlers

import (
	"errors"
	"net/http"

	"github.com/aroma-notes/api/internal/domain"
	"github.com/aroma-notes/api/internal/platform/httpx"
	"github.com/aroma-notes/api/internal/services"
)

// CheckoutHandlers serves the quote, slip upload, and order submission
// endpoints.
type CheckoutHandlers struct {
	checkout services.CheckoutService
}

// NewCheckoutHandlers builds the handlers.
func NewCheckoutHandlers(checkout services.CheckoutService) *CheckoutHandlers {
	return &CheckoutHandlers{checkout: checkout}
}

func (h *CheckoutHandlers) Quote(w http.ResponseWriter, r *http.Request) {
	quote, err := h.checkout.Quote(r.Context(), sessionID(r))
	if err != nil {
		writeCheckoutError(w, r, err)
		return
	}
	if quote.Items == nil {
		quote.Items = []domain.CartItem{}
	}
	httpx.WriteJSON(w, r, http.StatusOK, quote)
}

type slipUploadRequest struct {
	ContentType string `json:"contentType"`
}

func (h *CheckoutHandlers) SlipUpload(w http.ResponseWriter, r *http.Request) {
	var req slipUploadRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	ticket, err := h.checkout.SlipUploadTicket(r.Context(), req.ContentType)
	if err != nil {
		writeCheckoutError(w, r, err)
		return
	}
	httpx.WriteJSON(w, r, http.StatusCreated, ticket)
}

type submitRequest struct {
	Customer      domain.Customer `json:"customer"`
	PaymentMethod string          `json:"paymentMethod"`
	BankSlipURL   string          `json:"bankSlipUrl"`
}

func (h *CheckoutHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	method, ok := domain.ParsePaymentMethod(req.PaymentMethod)
	if !ok {
		httpx.WriteFieldError(w, r, http.StatusUnprocessableEntity, "validation_failed",
			"checkout form has errors", map[string]string{"paymentMethod": "invalid_payment_method"})
		return
	}

	receipt, err := h.checkout.Submit(r.Context(), services.CheckoutSubmission{
		SessionID:     sessionID(r),
		Customer:      req.Customer,
		PaymentMethod: method,
		BankSlipURL:   req.BankSlipURL,
	})
	if err != nil {
		writeCheckoutError(w, r, err)
		return
	}
	httpx.WriteJSON(w, r, http.StatusCreated, receipt)
}

func writeCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	var validation *services.ValidationError
	switch {
	case errors.As(err, &validation):
		httpx.WriteFieldError(w, r, http.StatusUnprocessableEntity, "validation_failed",
			"checkout form has errors", validation.Fields)
	case errors.Is(err, services.ErrCheckoutEmptyCart):
		httpx.WriteError(w, r, http.StatusConflict, "empty_cart", "cannot place an order with an empty cart")
	case errors.Is(err, services.ErrCheckoutInvalidInput), errors.Is(err, services.ErrCartInvalidInput):
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "checkout failed")
	}
}
