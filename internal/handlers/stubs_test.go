package handlers

import (
	"context"
	"time"

	"github.com/aroma-notes/api/internal/domain"
	"github.com/aroma-notes/api/internal/platform/auth"
	"github.com/aroma-notes/api/internal/platform/storage"
	"github.com/aroma-notes/api/internal/services"
)

func int64Ptr(v int64) *int64 { return &v }

type stubCartService struct {
	cart domain.Cart
	err  error

	lastSession  string
	lastItem     domain.CartItem
	lastQuantity int
	cleared      bool
}

func (s *stubCartService) Get(_ context.Context, sessionID string) (domain.Cart, error) {
	s.lastSession = sessionID
	return s.cart, s.err
}

func (s *stubCartService) AddItem(_ context.Context, sessionID string, item domain.CartItem, quantity int) (domain.Cart, error) {
	s.lastSession, s.lastItem, s.lastQuantity = sessionID, item, quantity
	return s.cart, s.err
}

func (s *stubCartService) UpdateQuantity(_ context.Context, sessionID, itemID string, quantity int) (domain.Cart, error) {
	s.lastSession, s.lastQuantity = sessionID, quantity
	s.lastItem = domain.CartItem{ID: itemID}
	return s.cart, s.err
}

func (s *stubCartService) RemoveItem(_ context.Context, sessionID, itemID string) (domain.Cart, error) {
	s.lastSession = sessionID
	s.lastItem = domain.CartItem{ID: itemID}
	return s.cart, s.err
}

func (s *stubCartService) Clear(_ context.Context, sessionID string) error {
	s.lastSession = sessionID
	s.cleared = true
	return s.err
}

type stubCheckoutService struct {
	quote   services.CheckoutQuote
	ticket  storage.UploadTicket
	receipt services.CheckoutReceipt
	err     error

	lastSubmission services.CheckoutSubmission
}

func (s *stubCheckoutService) Quote(_ context.Context, sessionID string) (services.CheckoutQuote, error) {
	return s.quote, s.err
}

func (s *stubCheckoutService) SlipUploadTicket(_ context.Context, contentType string) (storage.UploadTicket, error) {
	return s.ticket, s.err
}

func (s *stubCheckoutService) Submit(_ context.Context, submission services.CheckoutSubmission) (services.CheckoutReceipt, error) {
	s.lastSubmission = submission
	return s.receipt, s.err
}

type stubOrderService struct {
	orders    []domain.Order
	order     domain.Order
	metrics   domain.OrderMetrics
	customers []services.CustomerSummary
	err       error

	lastStatus domain.OrderStatus
	lastID     string
	lastNumber string
	lastFilter *domain.OrderStatus
}

func (s *stubOrderService) List(_ context.Context, status *domain.OrderStatus) ([]domain.Order, error) {
	s.lastFilter = status
	return s.orders, s.err
}

func (s *stubOrderService) Get(_ context.Context, id string) (domain.Order, error) {
	s.lastID = id
	return s.order, s.err
}

func (s *stubOrderService) GetByNumber(_ context.Context, orderNumber string) (domain.Order, error) {
	s.lastNumber = orderNumber
	return s.order, s.err
}

func (s *stubOrderService) UpdateStatus(_ context.Context, id string, to domain.OrderStatus) (domain.Order, error) {
	s.lastID, s.lastStatus = id, to
	if s.err != nil {
		return domain.Order{}, s.err
	}
	order := s.order
	order.Status = to
	return order, nil
}

func (s *stubOrderService) Metrics(context.Context) (domain.OrderMetrics, error) {
	return s.metrics, s.err
}

func (s *stubOrderService) ListCustomers(context.Context) ([]services.CustomerSummary, error) {
	return s.customers, s.err
}

type stubFeed struct {
	updates chan services.OrderFeedUpdate
}

func (f *stubFeed) Subscribe(context.Context) (<-chan services.OrderFeedUpdate, func()) {
	return f.updates, func() {}
}

type stubSettingsService struct {
	settings domain.StoreSettings
	err      error
	lastFee  int64
}

func (s *stubSettingsService) Get(context.Context) (domain.StoreSettings, error) {
	return s.settings, s.err
}

func (s *stubSettingsService) UpdateDeliveryFee(_ context.Context, fee int64) (domain.StoreSettings, error) {
	s.lastFee = fee
	if s.err != nil {
		return domain.StoreSettings{}, s.err
	}
	return domain.StoreSettings{DeliveryFee: fee, UpdatedAt: time.Now()}, nil
}

type stubCatalogService struct {
	products []domain.Product
	product  domain.Product
	ticket   storage.UploadTicket
	err      error
	deleted  []string
}

func (s *stubCatalogService) List(context.Context) ([]domain.Product, error) {
	return s.products, s.err
}

func (s *stubCatalogService) Get(_ context.Context, idOrSlug string) (domain.Product, error) {
	return s.product, s.err
}

func (s *stubCatalogService) Create(_ context.Context, product domain.Product) (domain.Product, error) {
	if s.err != nil {
		return domain.Product{}, s.err
	}
	product.ID = "p-new"
	return product, nil
}

func (s *stubCatalogService) Update(_ context.Context, product domain.Product) (domain.Product, error) {
	return product, s.err
}

func (s *stubCatalogService) Delete(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return s.err
}

func (s *stubCatalogService) ImageUploadTicket(_ context.Context, slug, filename, contentType string) (storage.UploadTicket, error) {
	return s.ticket, s.err
}

type stubContentService struct {
	products []domain.Product
	product  domain.Product
	err      error
}

func (s *stubContentService) Products(context.Context) ([]domain.Product, error) {
	return s.products, s.err
}

func (s *stubContentService) ProductBySlug(_ context.Context, slug string) (domain.Product, error) {
	return s.product, s.err
}

type allowAllVerifier struct {
	identity auth.Identity
	err      error
}

func (v allowAllVerifier) Verify(context.Context, string) (auth.Identity, error) {
	return v.identity, v.err
}
