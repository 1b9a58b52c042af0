package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/aroma-notes/api/internal/domain"
	platformfs "github.com/aroma-notes/api/internal/platform/firestore"
)

const orderCollection = "orders"

// OrderRepository stores placed orders newest first.
type OrderRepository struct {
	client *firestore.Client
	repo   *platformfs.Repository[domain.Order]
}

// NewOrderRepository builds the repository.
func NewOrderRepository(client *firestore.Client) (*OrderRepository, error) {
	repo, err := platformfs.NewRepository(client, orderCollection, decodeOrder)
	if err != nil {
		return nil, err
	}
	return &OrderRepository{client: client, repo: repo}, nil
}

func decodeOrder(doc *firestore.DocumentSnapshot) (domain.Order, error) {
	var order domain.Order
	if err := doc.DataTo(&order); err != nil {
		return domain.Order{}, err
	}
	order.ID = doc.Ref.ID
	return order, nil
}

func (r *OrderRepository) Create(ctx context.Context, order domain.Order) error {
	if order.ID == "" {
		return errors.New("order: id is required")
	}
	_, err := r.repo.Doc(order.ID).Create(ctx, order)
	return platformfs.WrapError("create orders", err)
}

func (r *OrderRepository) Get(ctx context.Context, id string) (domain.Order, error) {
	return r.repo.Get(ctx, id)
}

func (r *OrderRepository) GetByNumber(ctx context.Context, orderNumber string) (domain.Order, error) {
	// Display numbers are not unique by construction; prefer the newest
	// on a collision.
	orders, ids, err := r.repo.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("orderNumber", "==", orderNumber).
			OrderBy("createdAt", firestore.Desc).
			Limit(1)
	})
	if err != nil {
		return domain.Order{}, err
	}
	if len(orders) == 0 {
		return domain.Order{}, platformfs.NotFoundError("get orders", fmt.Errorf("no order %s", orderNumber))
	}
	order := orders[0]
	order.ID = ids[0]
	return order, nil
}

func (r *OrderRepository) List(ctx context.Context, status *domain.OrderStatus) ([]domain.Order, error) {
	orders, ids, err := r.repo.Query(ctx, func(q firestore.Query) firestore.Query {
		if status != nil {
			q = q.Where("status", "==", string(*status))
		}
		return q.OrderBy("createdAt", firestore.Desc)
	})
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].ID = ids[i]
	}
	return orders, nil
}

// UpdateStatus performs the guarded transition. The read and write share a
// transaction so two admins racing on the same order cannot both win.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus, at time.Time) error {
	return platformfs.RunTransaction(ctx, r.client, func(ctx context.Context, tx *firestore.Transaction) error {
		current, found, err := r.repo.GetTx(tx, id)
		if err != nil {
			return err
		}
		if !found {
			return platformfs.NotFoundError("update orders", fmt.Errorf("no order %s", id))
		}
		if current.Status != from {
			return platformfs.ConflictError("update orders",
				fmt.Errorf("order %s is %s, expected %s", id, current.Status, from))
		}
		return tx.Update(r.repo.Doc(id), []firestore.Update{
			{Path: "status", Value: string(to)},
			{Path: "updatedAt", Value: at},
		})
	})
}

// Watch streams the full newest-first list on every change.
func (r *OrderRepository) Watch(ctx context.Context, out chan<- []domain.Order) error {
	snapshots := make(chan platformfs.Snapshot[domain.Order])
	errCh := make(chan error, 1)

	go func() {
		errCh <- r.repo.Watch(ctx, func(q firestore.Query) firestore.Query {
			return q.OrderBy("createdAt", firestore.Desc)
		}, snapshots)
	}()

	defer close(out)
	for snap := range snapshots {
		orders := snap.Values
		for i := range orders {
			orders[i].ID = snap.IDs[i]
		}
		select {
		case out <- orders:
		case <-ctx.Done():
		}
	}
	return <-errCh
}
