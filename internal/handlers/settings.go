package handlers

import (
	"errors"
	"net/http"

	"github.com/aroma-notes/api/internal/platform/httpx"
	"github.com/aroma-notes/api/internal/services"
)

// SettingsHandlers serves the public settings read and the admin write.
type SettingsHandlers struct {
	settings services.SettingsService
}

// NewSettingsHandlers builds the handlers.
func NewSettingsHandlers(settings services.SettingsService) *SettingsHandlers {
	return &SettingsHandlers{settings: settings}
}

func (h *SettingsHandlers) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Get(r.Context())
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "failed to load settings")
		return
	}
	httpx.WriteJSON(w, r, http.StatusOK, settings)
}

type updateSettingsRequest struct {
	DeliveryFee *int64 `json:"deliveryFee"`
}

func (h *SettingsHandlers) Update(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	if req.DeliveryFee == nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_body", "deliveryFee is required")
		return
	}

	settings, err := h.settings.UpdateDeliveryFee(r.Context(), *req.DeliveryFee)
	if err != nil {
		if errors.Is(err, services.ErrSettingsInvalidInput) {
			httpx.WriteError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "failed to update settings")
		return
	}
	httpx.WriteJSON(w, r, http.StatusOK, settings)
}
