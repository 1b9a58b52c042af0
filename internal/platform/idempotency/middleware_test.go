package idempotency

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func countingHandler(calls *atomic.Int32, status int, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
}

func TestMiddlewareReplaysCompletedResponse(t *testing.T) {
	var calls atomic.Int32
	handler := Middleware(NewMemoryStore(), time.Hour)(
		countingHandler(&calls, http.StatusCreated, `{"orderNumber":"AN-260831-K3Q7"}`),
	)

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/checkout", nil)
	req.Header.Set(HeaderKey, "order-abc")
	handler.ServeHTTP(first, req)

	second := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodPost, "/checkout", nil)
	req2.Header.Set(HeaderKey, "order-abc")
	handler.ServeHTTP(second, req2)

	if calls.Load() != 1 {
		t.Fatalf("handler ran %d times, want 1", calls.Load())
	}
	if second.Code != http.StatusCreated {
		t.Fatalf("replay status = %d, want 201", second.Code)
	}
	if second.Header().Get(HeaderReplay) != "true" {
		t.Fatal("replay header missing")
	}
	if second.Body.String() != `{"orderNumber":"AN-260831-K3Q7"}` {
		t.Fatalf("replay body %q", second.Body.String())
	}
}

func TestMiddlewarePassesThroughWithoutKey(t *testing.T) {
	var calls atomic.Int32
	handler := Middleware(NewMemoryStore(), time.Hour)(
		countingHandler(&calls, http.StatusCreated, "{}"),
	)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/checkout", nil))
	}
	if calls.Load() != 2 {
		t.Fatalf("handler ran %d times, want 2", calls.Load())
	}
}

func TestMiddlewareReleasesOnServerError(t *testing.T) {
	var calls atomic.Int32
	handler := Middleware(NewMemoryStore(), time.Hour)(
		countingHandler(&calls, http.StatusInternalServerError, "boom"),
	)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/checkout", nil)
		req.Header.Set(HeaderKey, "order-retry")
		handler.ServeHTTP(rec, req)
	}

	if calls.Load() != 2 {
		t.Fatalf("handler ran %d times, want 2 (5xx must not be replayed)", calls.Load())
	}
}

func TestMemoryStoreInFlight(t *testing.T) {
	store := NewMemoryStore()
	ctx := t.Context()

	res, err := store.Reserve(ctx, "k", time.Hour)
	if err != nil || !res.Fresh {
		t.Fatalf("first reserve: res=%+v err=%v", res, err)
	}
	if _, err := store.Reserve(ctx, "k", time.Hour); err != ErrKeyInFlight {
		t.Fatalf("second reserve err = %v, want ErrKeyInFlight", err)
	}

	if err := store.Release(ctx, "k"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if res, err := store.Reserve(ctx, "k", time.Hour); err != nil || !res.Fresh {
		t.Fatalf("reserve after release: res=%+v err=%v", res, err)
	}
}

func TestMemoryStoreCleanup(t *testing.T) {
	store := NewMemoryStore()
	ctx := t.Context()

	if _, err := store.Reserve(ctx, "old", time.Millisecond); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	removed, err := store.CleanupExpired(ctx, time.Now().Add(time.Second))
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
}
