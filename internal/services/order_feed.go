package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aroma-notes/api/internal/domain"
	"github.com/aroma-notes/api/internal/repositories"
)

// orderFeed runs one Firestore watch per process and fans snapshots out to
// however many admin tabs are connected.
type orderFeed struct {
	orders repositories.OrderRepository
	logger *zap.Logger

	mu          sync.Mutex
	subscribers map[int]chan OrderFeedUpdate
	nextID      int
	latest      *OrderFeedUpdate
}

// OrderFeedDeps wires NewOrderFeed.
type OrderFeedDeps struct {
	Orders repositories.OrderRepository
	Logger *zap.Logger
}

// NewOrderFeed builds the feed and starts its watch loop. The loop runs
// until ctx is cancelled, reconnecting after backend errors.
func NewOrderFeed(ctx context.Context, deps OrderFeedDeps) (OrderFeed, error) {
	if deps.Orders == nil {
		return nil, errors.New("order feed: order repository is required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	feed := &orderFeed{
		orders:      deps.Orders,
		logger:      deps.Logger,
		subscribers: make(map[int]chan OrderFeedUpdate),
	}
	go feed.run(ctx)
	return feed, nil
}

func (f *orderFeed) run(ctx context.Context) {
	for {
		updates := make(chan []domain.Order)
		done := make(chan error, 1)
		go func() {
			done <- f.orders.Watch(ctx, updates)
		}()

		for orders := range updates {
			f.broadcast(OrderFeedUpdate{
				Orders:  orders,
				Metrics: domain.ComputeOrderMetrics(orders),
			})
		}

		err := <-done
		if ctx.Err() != nil {
			f.closeAll()
			return
		}
		f.logger.Warn("order watch interrupted, reconnecting", zap.Error(err))

		select {
		case <-ctx.Done():
			f.closeAll()
			return
		case <-time.After(2 * time.Second):
		}
	}
}

func (f *orderFeed) broadcast(update OrderFeedUpdate) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.latest = &update
	for _, sub := range f.subscribers {
		// Drop-oldest: a slow consumer only ever needs the newest list.
		select {
		case sub <- update:
		default:
			select {
			case <-sub:
			default:
			}
			select {
			case sub <- update:
			default:
			}
		}
	}
}

// Subscribe registers a consumer. The latest known snapshot, if any, is
// delivered immediately. The returned cancel func must be called.
func (f *orderFeed) Subscribe(ctx context.Context) (<-chan OrderFeedUpdate, func()) {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	sub := make(chan OrderFeedUpdate, 1)
	f.subscribers[id] = sub
	if f.latest != nil {
		sub <- *f.latest
	}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[id]; ok {
			delete(f.subscribers, id)
			close(sub)
		}
		f.mu.Unlock()
	}
	return sub, cancel
}

func (f *orderFeed) closeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, sub := range f.subscribers {
		delete(f.subscribers, id)
		close(sub)
	}
}
