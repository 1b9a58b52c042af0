package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Decoder turns a document snapshot into a domain value. Decoders own the
// defensive handling of partially written documents.
type Decoder[T any] func(doc *firestore.DocumentSnapshot) (T, error)

// StructDecoder decodes via DataTo into T.
func StructDecoder[T any]() Decoder[T] {
	return func(doc *firestore.DocumentSnapshot) (T, error) {
		var value T
		if err := doc.DataTo(&value); err != nil {
			return value, err
		}
		return value, nil
	}
}

// Repository is a typed wrapper around one Firestore collection.
type Repository[T any] struct {
	client     *firestore.Client
	collection string
	decode     Decoder[T]
}

// NewRepository builds a Repository for the named collection.
func NewRepository[T any](client *firestore.Client, collection string, decode Decoder[T]) (*Repository[T], error) {
	if client == nil {
		return nil, errors.New("firestore: client is nil")
	}
	if collection == "" {
		return nil, errors.New("firestore: collection name is empty")
	}
	if decode == nil {
		decode = StructDecoder[T]()
	}
	return &Repository[T]{client: client, collection: collection, decode: decode}, nil
}

// Doc returns the document ref for id.
func (r *Repository[T]) Doc(id string) *firestore.DocumentRef {
	return r.client.Collection(r.collection).Doc(id)
}

// Collection returns the underlying collection ref for custom queries.
func (r *Repository[T]) Collection() *firestore.CollectionRef {
	return r.client.Collection(r.collection)
}

// Get fetches and decodes one document.
func (r *Repository[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	doc, err := r.Doc(id).Get(ctx)
	if err != nil {
		return zero, WrapError("get "+r.collection, err)
	}
	value, err := r.decode(doc)
	if err != nil {
		return zero, WrapError("decode "+r.collection, err)
	}
	return value, nil
}

// Set writes a full document.
func (r *Repository[T]) Set(ctx context.Context, id string, value any) error {
	_, err := r.Doc(id).Set(ctx, value)
	return WrapError("set "+r.collection, err)
}

// Merge writes the given fields, preserving the rest of the document.
func (r *Repository[T]) Merge(ctx context.Context, id string, fields map[string]any) error {
	_, err := r.Doc(id).Set(ctx, fields, firestore.MergeAll)
	return WrapError("merge "+r.collection, err)
}

// Update applies field updates; fails with a not-found kind when the
// document does not exist.
func (r *Repository[T]) Update(ctx context.Context, id string, updates []firestore.Update) error {
	_, err := r.Doc(id).Update(ctx, updates)
	return WrapError("update "+r.collection, err)
}

// Delete removes the document. Deleting a missing document is not an error.
func (r *Repository[T]) Delete(ctx context.Context, id string) error {
	_, err := r.Doc(id).Delete(ctx)
	return WrapError("delete "+r.collection, err)
}

// QueryFunc refines the base collection query.
type QueryFunc func(q firestore.Query) firestore.Query

// Query runs a refined query and decodes all matching documents.
func (r *Repository[T]) Query(ctx context.Context, refine QueryFunc) ([]T, []string, error) {
	q := r.Collection().Query
	if refine != nil {
		q = refine(q)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var (
		values []T
		ids    []string
	)
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, nil, WrapError("query "+r.collection, err)
		}
		value, err := r.decode(doc)
		if err != nil {
			return nil, nil, WrapError("decode "+r.collection, err)
		}
		values = append(values, value)
		ids = append(ids, doc.Ref.ID)
	}
	return values, ids, nil
}

// GetTx reads a document inside a transaction.
func (r *Repository[T]) GetTx(tx *firestore.Transaction, id string) (T, bool, error) {
	var zero T
	doc, err := tx.Get(r.Doc(id))
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return zero, false, nil
		}
		return zero, false, WrapError("tx get "+r.collection, err)
	}
	value, err := r.decode(doc)
	if err != nil {
		return zero, false, WrapError("decode "+r.collection, err)
	}
	return value, true, nil
}
