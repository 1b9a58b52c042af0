// Package services implements the storefront and admin use cases on top
// of the repository contracts.
package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/aroma-notes/api/internal/domain"
	"github.com/aroma-notes/api/internal/platform/storage"
)

// Clock supplies the current time; injected so tests can pin it.
type Clock func() time.Time

// IDGenerator mints document IDs.
type IDGenerator interface {
	NewID() string
}

// ULIDGenerator mints lexicographically sortable IDs.
type ULIDGenerator struct{}

func (ULIDGenerator) NewID() string {
	return ulid.Make().String()
}

// OrderNumberGenerator mints customer-facing order numbers.
type OrderNumberGenerator interface {
	NewOrderNumber(at time.Time) (string, error)
}

const orderNumberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandomOrderNumberGenerator produces numbers like AN-260831-K3Q7: the
// store prefix, the date, and four random uppercase alphanumerics.
type RandomOrderNumberGenerator struct{}

func (RandomOrderNumberGenerator) NewOrderNumber(at time.Time) (string, error) {
	suffix := make([]byte, 4)
	max := big.NewInt(int64(len(orderNumberAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("order number: %w", err)
		}
		suffix[i] = orderNumberAlphabet[n.Int64()]
	}
	return fmt.Sprintf("AN-%s-%s", at.Format("060102"), suffix), nil
}

// CartService manages the server-held cart for a storefront session.
type CartService interface {
	Get(ctx context.Context, sessionID string) (domain.Cart, error)
	AddItem(ctx context.Context, sessionID string, item domain.CartItem, quantity int) (domain.Cart, error)
	UpdateQuantity(ctx context.Context, sessionID, itemID string, quantity int) (domain.Cart, error)
	RemoveItem(ctx context.Context, sessionID, itemID string) (domain.Cart, error)
	Clear(ctx context.Context, sessionID string) error
}

// CheckoutQuote is the priced summary shown before submission.
type CheckoutQuote struct {
	Items        []domain.CartItem `json:"items"`
	Subtotal     int64             `json:"subtotal"`
	DeliveryFee  int64             `json:"deliveryFee"`
	Total        int64             `json:"total"`
	TotalDisplay string            `json:"totalDisplay"`
}

// CheckoutSubmission is the validated order request.
type CheckoutSubmission struct {
	SessionID     string
	Customer      domain.Customer
	PaymentMethod domain.PaymentMethod
	BankSlipURL   string
}

// CheckoutReceipt is returned once the order is placed.
type CheckoutReceipt struct {
	OrderID      string `json:"orderId"`
	OrderNumber  string `json:"orderNumber"`
	Total        int64  `json:"total"`
	TotalDisplay string `json:"totalDisplay"`
}

// CheckoutService validates and places orders.
type CheckoutService interface {
	Quote(ctx context.Context, sessionID string) (CheckoutQuote, error)
	SlipUploadTicket(ctx context.Context, contentType string) (storage.UploadTicket, error)
	Submit(ctx context.Context, submission CheckoutSubmission) (CheckoutReceipt, error)
}

// OrderService serves the admin order views and the status write path.
type OrderService interface {
	List(ctx context.Context, status *domain.OrderStatus) ([]domain.Order, error)
	Get(ctx context.Context, id string) (domain.Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (domain.Order, error)
	UpdateStatus(ctx context.Context, id string, to domain.OrderStatus) (domain.Order, error)
	Metrics(ctx context.Context) (domain.OrderMetrics, error)
	ListCustomers(ctx context.Context) ([]CustomerSummary, error)
}

// CustomerSummary is one distinct customer derived from order history.
type CustomerSummary struct {
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Email      string    `json:"email,omitempty"`
	City       string    `json:"city,omitempty"`
	OrderCount int       `json:"orderCount"`
	TotalSpent int64     `json:"totalSpent"`
	LastOrder  time.Time `json:"lastOrder"`
}

// OrderFeedUpdate is one delivery of the live admin projection.
type OrderFeedUpdate struct {
	Orders  []domain.Order      `json:"orders"`
	Metrics domain.OrderMetrics `json:"metrics"`
}

// OrderFeed fans out live order updates to admin subscribers.
type OrderFeed interface {
	Subscribe(ctx context.Context) (<-chan OrderFeedUpdate, func())
}

// CatalogService serves the Firestore-backed catalog.
type CatalogService interface {
	List(ctx context.Context) ([]domain.Product, error)
	// Get resolves by document ID first, then falls back to slug lookup.
	Get(ctx context.Context, idOrSlug string) (domain.Product, error)
	Create(ctx context.Context, product domain.Product) (domain.Product, error)
	Update(ctx context.Context, product domain.Product) (domain.Product, error)
	Delete(ctx context.Context, id string) error
	ImageUploadTicket(ctx context.Context, slug, filename, contentType string) (storage.UploadTicket, error)
}

// ContentService serves the Sanity-sourced catalog.
type ContentService interface {
	Products(ctx context.Context) ([]domain.Product, error)
	ProductBySlug(ctx context.Context, slug string) (domain.Product, error)
}

// SettingsService reads and updates store settings.
type SettingsService interface {
	Get(ctx context.Context) (domain.StoreSettings, error)
	UpdateDeliveryFee(ctx context.Context, fee int64) (domain.StoreSettings, error)
}
