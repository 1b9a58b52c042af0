package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/aroma-notes/api/internal/domain"
	"github.com/aroma-notes/api/internal/platform/httpx"
	"github.com/aroma-notes/api/internal/platform/requestctx"
	"github.com/aroma-notes/api/internal/services"
)

// OrderHandlers serves the admin order views, the status write path, and
// the live SSE stream.
type OrderHandlers struct {
	orders services.OrderService
	feed   services.OrderFeed
}

// NewOrderHandlers builds the handlers. feed may be nil, disabling the
// stream endpoint.
func NewOrderHandlers(orders services.OrderService, feed services.OrderFeed) *OrderHandlers {
	return &OrderHandlers{orders: orders, feed: feed}
}

func (h *OrderHandlers) List(w http.ResponseWriter, r *http.Request) {
	var status *domain.OrderStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, ok := domain.ParseOrderStatus(raw)
		if !ok {
			httpx.WriteError(w, r, http.StatusBadRequest, "invalid_status", fmt.Sprintf("unknown status %q", raw))
			return
		}
		status = &parsed
	}

	orders, err := h.orders.List(r.Context(), status)
	if err != nil {
		writeOrderError(w, r, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	httpx.WriteJSON(w, r, http.StatusOK, map[string]any{"orders": orders})
}

func (h *OrderHandlers) Get(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.Get(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		writeOrderError(w, r, err)
		return
	}
	httpx.WriteJSON(w, r, http.StatusOK, order)
}

func (h *OrderHandlers) GetByNumber(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetByNumber(r.Context(), chi.URLParam(r, "orderNumber"))
	if err != nil {
		writeOrderError(w, r, err)
		return
	}
	httpx.WriteJSON(w, r, http.StatusOK, order)
}

func (h *OrderHandlers) Metrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.orders.Metrics(r.Context())
	if err != nil {
		writeOrderError(w, r, err)
		return
	}
	httpx.WriteJSON(w, r, http.StatusOK, metrics)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *OrderHandlers) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	status, ok := domain.ParseOrderStatus(req.Status)
	if !ok {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_status", fmt.Sprintf("unknown status %q", req.Status))
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), chi.URLParam(r, "orderID"), status)
	if err != nil {
		writeOrderError(w, r, err)
		return
	}
	httpx.WriteJSON(w, r, http.StatusOK, order)
}

func (h *OrderHandlers) Customers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.orders.ListCustomers(r.Context())
	if err != nil {
		writeOrderError(w, r, err)
		return
	}
	if customers == nil {
		customers = []services.CustomerSummary{}
	}
	httpx.WriteJSON(w, r, http.StatusOK, map[string]any{"customers": customers})
}

// Stream pushes the full order list with metrics as server-sent events,
// one event per Firestore snapshot.
func (h *OrderHandlers) Stream(w http.ResponseWriter, r *http.Request) {
	if h.feed == nil {
		httpx.WriteError(w, r, http.StatusNotImplemented, "stream_disabled", "live order feed is not configured")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		httpx.WriteError(w, r, http.StatusInternalServerError, "stream_unsupported", "response writer does not support streaming")
		return
	}

	updates, cancel := h.feed.Subscribe(r.Context())
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	logger := requestctx.Logger(r.Context())
	for {
		select {
		case <-r.Context().Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			payload, err := json.Marshal(update)
			if err != nil {
				logger.Warn("encode order feed update", zap.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(w, "event: orders\ndata: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeOrderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(w, r, http.StatusNotFound, "order_not_found", "no such order")
	case errors.Is(err, services.ErrOrderInvalidTransition):
		httpx.WriteError(w, r, http.StatusUnprocessableEntity, "invalid_transition", err.Error())
	case errors.Is(err, services.ErrOrderConflict):
		httpx.WriteError(w, r, http.StatusConflict, "conflict", "order was updated concurrently, reload and retry")
	default:
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "order operation failed")
	}
}
