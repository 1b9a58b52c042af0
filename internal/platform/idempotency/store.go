// Package idempotency guards mutating endpoints against duplicate
// submissions keyed by the Idempotency-Key header.
package idempotency

import (
	"context"
	"errors"
	"time"
)

// ErrKeyInFlight means another request holding the same key has not
// finished yet.
var ErrKeyInFlight = errors.New("idempotency: key in flight")

// StoredResponse is the replayable result of a completed request.
type StoredResponse struct {
	Status      int       `firestore:"status" json:"status"`
	ContentType string    `firestore:"contentType" json:"contentType"`
	Body        []byte    `firestore:"body" json:"body"`
	SavedAt     time.Time `firestore:"savedAt" json:"savedAt"`
}

// Reservation is the outcome of claiming a key.
type Reservation struct {
	// Fresh is true when this caller now owns the key and should execute
	// the request.
	Fresh bool
	// Response is set when a previous request already completed.
	Response *StoredResponse
}

// Store persists key reservations and completed responses.
type Store interface {
	// Reserve claims key for ttl. Returns ErrKeyInFlight when a pending
	// reservation exists.
	Reserve(ctx context.Context, key string, ttl time.Duration) (Reservation, error)
	// SaveResponse records the completed response for replay.
	SaveResponse(ctx context.Context, key string, resp StoredResponse) error
	// Release abandons a reservation so the client may retry.
	Release(ctx context.Context, key string) error
	// CleanupExpired removes reservations past their TTL.
	CleanupExpired(ctx context.Context, now time.Time) (int, error)
}
