// Package httpx holds small helpers shared by HTTP handlers.
package httpx

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/aroma-notes/api/internal/platform/requestctx"
)

// ErrorBody is the JSON envelope returned for every non-2xx response.
type ErrorBody struct {
	Error     string            `json:"error"`
	Message   string            `json:"message,omitempty"`
	Status    int               `json:"status"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	TraceID   string            `json:"trace_id,omitempty"`
}

// WriteError writes the standard error envelope, enriched with the request
// and trace IDs from context.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	WriteFieldError(w, r, status, code, message, nil)
}

// WriteFieldError is WriteError plus per-field validation details.
func WriteFieldError(w http.ResponseWriter, r *http.Request, status int, code, message string, fields map[string]string) {
	body := ErrorBody{
		Error:   code,
		Message: message,
		Status:  status,
		Fields:  fields,
	}
	if r != nil {
		ctx := r.Context()
		body.RequestID = requestctx.RequestID(ctx)
		body.TraceID = requestctx.TraceID(ctx)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil && r != nil {
		requestctx.Logger(r.Context()).Warn("write error response", zap.Error(err))
	}
}

// WriteJSON writes a JSON response body with the given status.
func WriteJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil && r != nil {
		requestctx.Logger(r.Context()).Warn("write json response", zap.Error(err))
	}
}
