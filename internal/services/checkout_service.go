package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aroma-notes/api/internal/domain"
	"github.com/aroma-notes/api/internal/platform/jobs"
	"github.com/aroma-notes/api/internal/platform/requestctx"
	"github.com/aroma-notes/api/internal/platform/storage"
	"github.com/aroma-notes/api/internal/repositories"
)

// Checkout failure modes surfaced to handlers.
var (
	ErrCheckoutEmptyCart    = errors.New("checkout: cart is empty")
	ErrCheckoutInvalidInput = errors.New("checkout: invalid input")
)

// ValidationError carries per-field error codes for the checkout form.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("checkout: validation failed on %d field(s)", len(e.Fields))
}

func (e *ValidationError) Unwrap() error { return ErrCheckoutInvalidInput }

// Single @ with at least one dot after it, no whitespace.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// SlipStorage covers what checkout needs from the storage layer:
// issuing slip upload tickets and verifying an upload really landed.
type SlipStorage interface {
	IssueSlipUpload(suffix, contentType string) (storage.UploadTicket, error)
	ObjectPathFromURL(url string) (string, bool)
	ObjectExists(ctx context.Context, object string) (bool, error)
}

type checkoutService struct {
	cart         CartService
	orders       repositories.OrderRepository
	settings     SettingsService
	storage      SlipStorage
	events       jobs.Publisher
	ids          IDGenerator
	orderNumbers OrderNumberGenerator
	clock        Clock
}

// CheckoutServiceDeps wires NewCheckoutService.
type CheckoutServiceDeps struct {
	Cart         CartService
	Orders       repositories.OrderRepository
	Settings     SettingsService
	Storage      SlipStorage
	Events       jobs.Publisher
	IDs          IDGenerator
	OrderNumbers OrderNumberGenerator
	Clock        Clock
}

// NewCheckoutService builds the checkout service.
func NewCheckoutService(deps CheckoutServiceDeps) (CheckoutService, error) {
	if deps.Cart == nil {
		return nil, errors.New("checkout service: cart service is required")
	}
	if deps.Orders == nil {
		return nil, errors.New("checkout service: order repository is required")
	}
	if deps.Settings == nil {
		return nil, errors.New("checkout service: settings service is required")
	}
	if deps.Storage == nil {
		return nil, errors.New("checkout service: storage client is required")
	}
	if deps.Events == nil {
		deps.Events = jobs.NopPublisher{}
	}
	if deps.IDs == nil {
		deps.IDs = ULIDGenerator{}
	}
	if deps.OrderNumbers == nil {
		deps.OrderNumbers = RandomOrderNumberGenerator{}
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &checkoutService{
		cart:         deps.Cart,
		orders:       deps.Orders,
		settings:     deps.Settings,
		storage:      deps.Storage,
		events:       deps.Events,
		ids:          deps.IDs,
		orderNumbers: deps.OrderNumbers,
		clock:        deps.Clock,
	}, nil
}

// Quote prices the current cart. The delivery fee only applies once the
// cart carries a payable total.
func (s *checkoutService) Quote(ctx context.Context, sessionID string) (CheckoutQuote, error) {
	cart, err := s.cart.Get(ctx, sessionID)
	if err != nil {
		return CheckoutQuote{}, err
	}

	subtotal := cart.Total()
	fee, err := s.deliveryFee(ctx, subtotal)
	if err != nil {
		return CheckoutQuote{}, err
	}

	total := subtotal + fee
	return CheckoutQuote{
		Items:        cart.Items,
		Subtotal:     subtotal,
		DeliveryFee:  fee,
		Total:        total,
		TotalDisplay: domain.FormatLKR(total),
	}, nil
}

// SlipUploadTicket issues a signed upload URL for a payment slip.
func (s *checkoutService) SlipUploadTicket(ctx context.Context, contentType string) (storage.UploadTicket, error) {
	suffix := strings.ToLower(s.ids.NewID())
	if len(suffix) > 10 {
		suffix = suffix[len(suffix)-10:]
	}
	ticket, err := s.storage.IssueSlipUpload(suffix, contentType)
	if err != nil {
		return storage.UploadTicket{}, fmt.Errorf("%w: %v", ErrCheckoutInvalidInput, err)
	}
	return ticket, nil
}

// Submit validates the form, freezes the cart into an order, and clears
// the cart.
func (s *checkoutService) Submit(ctx context.Context, submission CheckoutSubmission) (CheckoutReceipt, error) {
	customer, err := validateCustomer(submission)
	if err != nil {
		return CheckoutReceipt{}, err
	}

	cart, err := s.cart.Get(ctx, submission.SessionID)
	if err != nil {
		return CheckoutReceipt{}, err
	}
	if cart.Count() == 0 {
		return CheckoutReceipt{}, ErrCheckoutEmptyCart
	}

	if submission.PaymentMethod == domain.PaymentMethodBankDeposit {
		if err := s.verifySlip(ctx, submission.BankSlipURL); err != nil {
			return CheckoutReceipt{}, err
		}
	}

	subtotal := cart.Total()
	fee, err := s.deliveryFee(ctx, subtotal)
	if err != nil {
		return CheckoutReceipt{}, err
	}

	now := s.clock()
	orderNumber, err := s.orderNumbers.NewOrderNumber(now)
	if err != nil {
		return CheckoutReceipt{}, err
	}

	order := domain.Order{
		ID:            s.ids.NewID(),
		OrderNumber:   orderNumber,
		Items:         freezeItems(cart.Items),
		Subtotal:      subtotal,
		DeliveryFee:   fee,
		Total:         subtotal + fee,
		Status:        domain.OrderStatusPending,
		PaymentMethod: submission.PaymentMethod,
		BankSlipURL:   strings.TrimSpace(submission.BankSlipURL),
		Customer:      customer,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return CheckoutReceipt{}, err
	}

	logger := requestctx.Logger(ctx)
	if err := s.cart.Clear(ctx, submission.SessionID); err != nil {
		// The order exists; an orphaned cart is the lesser failure.
		logger.Warn("clear cart after checkout", zap.Error(err))
	}
	if err := s.events.Publish(ctx, jobs.OrderEvent{
		Event:       jobs.EventOrderCreated,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Status:      string(order.Status),
		Total:       order.Total,
		OccurredAt:  now,
	}); err != nil {
		logger.Warn("publish order created", zap.Error(err))
	}

	logger.Info("order placed",
		zap.String("order_number", order.OrderNumber),
		zap.String("payment_method", string(order.PaymentMethod)),
		zap.Int64("total", order.Total),
	)

	return CheckoutReceipt{
		OrderID:      order.ID,
		OrderNumber:  order.OrderNumber,
		Total:        order.Total,
		TotalDisplay: domain.FormatLKR(order.Total),
	}, nil
}

// verifySlip confirms the slip URL points into our bucket and the object
// was actually uploaded before an order referencing it is accepted.
func (s *checkoutService) verifySlip(ctx context.Context, slipURL string) error {
	object, ok := s.storage.ObjectPathFromURL(slipURL)
	if !ok {
		return &ValidationError{Fields: map[string]string{"bankSlipUrl": "invalid_slip_url"}}
	}
	exists, err := s.storage.ObjectExists(ctx, object)
	if err != nil {
		return err
	}
	if !exists {
		return &ValidationError{Fields: map[string]string{"bankSlipUrl": "slip_not_uploaded"}}
	}
	return nil
}

func (s *checkoutService) deliveryFee(ctx context.Context, subtotal int64) (int64, error) {
	if subtotal <= 0 {
		return 0, nil
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return 0, err
	}
	return settings.DeliveryFee, nil
}

func validateCustomer(submission CheckoutSubmission) (domain.Customer, error) {
	customer := domain.Customer{
		Name:    strings.TrimSpace(submission.Customer.Name),
		Phone:   strings.TrimSpace(submission.Customer.Phone),
		Address: strings.TrimSpace(submission.Customer.Address),
		City:    strings.TrimSpace(submission.Customer.City),
		Email:   strings.TrimSpace(submission.Customer.Email),
		Notes:   strings.TrimSpace(submission.Customer.Notes),
	}

	fields := map[string]string{}
	if customer.Name == "" {
		fields["name"] = "required"
	}
	if customer.Phone == "" {
		fields["phone"] = "required"
	}
	if customer.Address == "" {
		fields["address"] = "required"
	}
	if customer.City == "" {
		fields["city"] = "required"
	}
	if customer.Email != "" && !emailPattern.MatchString(customer.Email) {
		fields["email"] = "invalid_email"
	}

	switch submission.PaymentMethod {
	case domain.PaymentMethodCOD:
	case domain.PaymentMethodBankDeposit:
		if strings.TrimSpace(submission.BankSlipURL) == "" {
			fields["bankSlipUrl"] = "slip_required"
		}
	default:
		fields["paymentMethod"] = "invalid_payment_method"
	}

	if len(fields) > 0 {
		return domain.Customer{}, &ValidationError{Fields: fields}
	}
	return customer, nil
}

func freezeItems(items []domain.CartItem) []domain.OrderItem {
	frozen := make([]domain.OrderItem, 0, len(items))
	for _, item := range items {
		line := domain.OrderItem{
			ProductID: item.ID,
			Name:      item.Name,
			ImageURL:  item.ImageURL,
			Brand:     item.Brand,
			Size:      item.Size,
			Quantity:  item.Quantity,
		}
		if item.Price != nil {
			line.Price = *item.Price
		}
		frozen = append(frozen, line)
	}
	return frozen
}
