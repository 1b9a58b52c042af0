// Package repositories defines the persistence contracts consumed by the
// service layer.
package repositories

import (
	"context"
	"time"

	"github.com/aroma-notes/api/internal/domain"
)

// CartRepository stores one cart per storefront session.
type CartRepository interface {
	// GetBySession loads the cart for a session. Missing documents return
	// a not-found error; malformed documents decode to whatever lines
	// survive.
	GetBySession(ctx context.Context, sessionID string) (domain.Cart, error)
	// Save writes the full cart document.
	Save(ctx context.Context, cart domain.Cart) error
	// Delete removes the cart. Deleting a missing cart is not an error.
	Delete(ctx context.Context, sessionID string) error
}

// OrderRepository stores placed orders.
type OrderRepository interface {
	Create(ctx context.Context, order domain.Order) error
	Get(ctx context.Context, id string) (domain.Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (domain.Order, error)
	// List returns orders newest first, optionally filtered by status.
	List(ctx context.Context, status *domain.OrderStatus) ([]domain.Order, error)
	// UpdateStatus moves an order from one status to another. The update
	// runs transactionally and fails with a conflict when the stored
	// status no longer matches from.
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus, at time.Time) error
	// Watch streams the full newest-first order list on every change
	// until ctx is cancelled, closing out when done.
	Watch(ctx context.Context, out chan<- []domain.Order) error
}

// ProductRepository stores the Firestore-backed catalog.
type ProductRepository interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id string) (domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (domain.Product, error)
	Create(ctx context.Context, product domain.Product) error
	Update(ctx context.Context, product domain.Product) error
	Delete(ctx context.Context, id string) error
}

// SettingsRepository stores the singleton store settings document.
type SettingsRepository interface {
	// Get returns the settings, or a not-found error when the document
	// has never been written.
	Get(ctx context.Context) (domain.StoreSettings, error)
	// UpdateDeliveryFee merge-writes the fee so unrelated fields on the
	// document survive.
	UpdateDeliveryFee(ctx context.Context, fee int64, at time.Time) error
}
