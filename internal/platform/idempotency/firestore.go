package idempotency

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	platformfs "github.com/aroma-notes/api/internal/platform/firestore"
)

type firestoreEntry struct {
	Pending   bool            `firestore:"pending"`
	Response  *StoredResponse `firestore:"response"`
	ExpiresAt time.Time       `firestore:"expiresAt"`
}

// FirestoreStore persists reservations in a Firestore collection so the
// guard holds across instances.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
	clock      func() time.Time
}

// NewFirestoreStore builds a store over the named collection.
func NewFirestoreStore(client *firestore.Client, collection string) (*FirestoreStore, error) {
	if client == nil {
		return nil, errors.New("idempotency: firestore client is nil")
	}
	if collection == "" {
		collection = "idempotencyKeys"
	}
	return &FirestoreStore{client: client, collection: collection, clock: time.Now}, nil
}

func (s *FirestoreStore) doc(key string) *firestore.DocumentRef {
	return s.client.Collection(s.collection).Doc(key)
}

// Reserve claims the key transactionally so concurrent duplicates race on
// a single document write.
func (s *FirestoreStore) Reserve(ctx context.Context, key string, ttl time.Duration) (Reservation, error) {
	var result Reservation

	err := platformfs.RunTransaction(ctx, s.client, func(ctx context.Context, tx *firestore.Transaction) error {
		now := s.clock()
		doc, err := tx.Get(s.doc(key))
		if err == nil {
			var entry firestoreEntry
			if decodeErr := doc.DataTo(&entry); decodeErr == nil && now.Before(entry.ExpiresAt) {
				if entry.Response != nil {
					result = Reservation{Response: entry.Response}
					return nil
				}
				return ErrKeyInFlight
			}
		}

		result = Reservation{Fresh: true}
		return tx.Set(s.doc(key), firestoreEntry{Pending: true, ExpiresAt: now.Add(ttl)})
	})
	if err != nil {
		if errors.Is(err, ErrKeyInFlight) {
			return Reservation{}, ErrKeyInFlight
		}
		return Reservation{}, err
	}
	return result, nil
}

func (s *FirestoreStore) SaveResponse(ctx context.Context, key string, resp StoredResponse) error {
	_, err := s.doc(key).Set(ctx, map[string]any{
		"pending":  false,
		"response": resp,
	}, firestore.MergeAll)
	return platformfs.WrapError("idempotency save", err)
}

func (s *FirestoreStore) Release(ctx context.Context, key string) error {
	_, err := s.doc(key).Delete(ctx)
	return platformfs.WrapError("idempotency release", err)
}

// CleanupExpired deletes expired reservations in batches.
func (s *FirestoreStore) CleanupExpired(ctx context.Context, now time.Time) (int, error) {
	iter := s.client.Collection(s.collection).
		Where("expiresAt", "<=", now).
		Limit(200).
		Documents(ctx)
	defer iter.Stop()

	removed := 0
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return removed, platformfs.WrapError("idempotency cleanup", err)
		}
		if _, err := doc.Ref.Delete(ctx); err != nil {
			return removed, platformfs.WrapError("idempotency cleanup", err)
		}
		removed++
	}
	return removed, nil
}
