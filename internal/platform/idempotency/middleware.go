package idempotency

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aroma-notes/api/internal/platform/httpx"
	"github.com/aroma-notes/api/internal/platform/requestctx"
)

const (
	// HeaderKey is set by clients on requests they may retry.
	HeaderKey = "Idempotency-Key"
	// HeaderReplay marks a response served from the store.
	HeaderReplay = "X-Idempotent-Replay"

	maxKeyLength      = 128
	maxStoredBodySize = 64 * 1024
)

type captureWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *captureWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *captureWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	if w.body.Len() < maxStoredBodySize {
		w.body.Write(p)
	}
	return w.ResponseWriter.Write(p)
}

// Middleware applies the idempotency guard to mutating requests that carry
// an Idempotency-Key header. Requests without the header pass through.
func Middleware(store Store, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if store == nil || !mutating(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			key := strings.TrimSpace(r.Header.Get(HeaderKey))
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > maxKeyLength {
				httpx.WriteError(w, r, http.StatusBadRequest, "invalid_idempotency_key", "idempotency key too long")
				return
			}

			reservation, err := store.Reserve(r.Context(), key, ttl)
			if err != nil {
				if errors.Is(err, ErrKeyInFlight) {
					httpx.WriteError(w, r, http.StatusConflict, "request_in_flight", "a request with this idempotency key is still processing")
					return
				}
				requestctx.Logger(r.Context()).Warn("idempotency reserve failed", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			if reservation.Response != nil {
				resp := reservation.Response
				w.Header().Set(HeaderReplay, "true")
				if resp.ContentType != "" {
					w.Header().Set("Content-Type", resp.ContentType)
				}
				w.WriteHeader(resp.Status)
				_, _ = w.Write(resp.Body)
				return
			}

			capture := &captureWriter{ResponseWriter: w}
			next.ServeHTTP(capture, r)

			status := capture.status
			if status == 0 {
				status = http.StatusOK
			}

			// Server faults are not replayed; release so the client can
			// retry with the same key.
			if status >= http.StatusInternalServerError {
				if err := store.Release(r.Context(), key); err != nil {
					requestctx.Logger(r.Context()).Warn("idempotency release failed", zap.Error(err))
				}
				return
			}

			saved := StoredResponse{
				Status:      status,
				ContentType: capture.Header().Get("Content-Type"),
				Body:        capture.body.Bytes(),
				SavedAt:     time.Now(),
			}
			if err := store.SaveResponse(r.Context(), key, saved); err != nil {
				requestctx.Logger(r.Context()).Warn("idempotency save failed", zap.Error(err))
			}
		})
	}
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}
