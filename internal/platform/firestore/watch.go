package firestore

import (
	"context"
	"errors"

	"google.golang.org/api/iterator"
)

// Snapshot is one delivery from a query watch: every matching document at
// that point in time, in query order.
type Snapshot[T any] struct {
	Values []T
	IDs    []string
}

// Watch streams query snapshots to out until ctx is cancelled. The full
// result set is re-read and re-decoded on every change, matching how the
// admin views consume it. The channel is closed when the watch ends; a
// non-cancellation error is returned.
func (r *Repository[T]) Watch(ctx context.Context, refine QueryFunc, out chan<- Snapshot[T]) error {
	defer close(out)

	q := r.Collection().Query
	if refine != nil {
		q = refine(q)
	}

	snapshots := q.Snapshots(ctx)
	defer snapshots.Stop()

	for {
		snap, err := snapshots.Next()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				return nil
			}
			return WrapError("watch "+r.collection, err)
		}

		var delivery Snapshot[T]
		docs := snap.Documents
		for {
			doc, err := docs.Next()
			if errors.Is(err, iterator.Done) {
				break
			}
			if err != nil {
				return WrapError("watch "+r.collection, err)
			}
			value, err := r.decode(doc)
			if err != nil {
				return WrapError("decode "+r.collection, err)
			}
			delivery.Values = append(delivery.Values, value)
			delivery.IDs = append(delivery.IDs, doc.Ref.ID)
		}

		select {
		case out <- delivery:
		case <-ctx.Done():
			return nil
		}
	}
}
