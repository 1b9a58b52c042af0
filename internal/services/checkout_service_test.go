package services

import (
	"errors"
	"regexp"
	"testing"

	"github.com/aroma-notes/api/internal/domain"
	"github.com/aroma-notes/api/internal/platform/jobs"
)

type checkoutFixture struct {
	svc      CheckoutService
	cartRepo *stubCartRepo
	orders   *stubOrderRepo
	settings *stubSettingsRepo
	events   *captureEvents
	slips    *testSlipStorage
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()

	cartRepo := newStubCartRepo()
	cartSvc, err := NewCartService(CartServiceDeps{Carts: cartRepo, Clock: fixedClock})
	if err != nil {
		t.Fatalf("NewCartService: %v", err)
	}

	settingsRepo := &stubSettingsRepo{settings: domain.StoreSettings{DeliveryFee: 350}}
	settingsSvc, err := NewSettingsService(SettingsServiceDeps{Settings: settingsRepo, Clock: fixedClock})
	if err != nil {
		t.Fatalf("NewSettingsService: %v", err)
	}

	orders := newStubOrderRepo()
	events := &captureEvents{}
	slips := newTestSlipStorage(t)
	svc, err := NewCheckoutService(CheckoutServiceDeps{
		Cart:         cartSvc,
		Orders:       orders,
		Settings:     settingsSvc,
		Storage:      slips,
		Events:       events,
		IDs:          &seqIDGen{},
		OrderNumbers: fixedOrderNumbers{number: "AN-260831-K3Q7"},
		Clock:        fixedClock,
	})
	if err != nil {
		t.Fatalf("NewCheckoutService: %v", err)
	}
	return &checkoutFixture{svc: svc, cartRepo: cartRepo, orders: orders, settings: settingsRepo, events: events, slips: slips}
}

func (f *checkoutFixture) seedCart(t *testing.T, items ...domain.CartItem) {
	t.Helper()
	f.cartRepo.carts["sess-1"] = domain.Cart{SessionID: "sess-1", Items: items}
}

func validSubmission() CheckoutSubmission {
	return CheckoutSubmission{
		SessionID: "sess-1",
		Customer: domain.Customer{
			Name:    "Nimali Perera",
			Phone:   "0771234567",
			Address: "12 Temple Road",
			City:    "Colombo",
		},
		PaymentMethod: domain.PaymentMethodCOD,
	}
}

func TestCheckoutQuoteAppliesFeeOnlyWithPayableTotal(t *testing.T) {
	f := newCheckoutFixture(t)
	f.seedCart(t, domain.CartItem{ID: "a", Name: "A", Price: int64Ptr(5500), Quantity: 2})

	quote, err := f.svc.Quote(t.Context(), "sess-1")
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if quote.Subtotal != 11000 || quote.DeliveryFee != 350 || quote.Total != 11350 {
		t.Fatalf("quote = %+v", quote)
	}
	if quote.TotalDisplay != "LKR 11,350" {
		t.Fatalf("total display %q", quote.TotalDisplay)
	}
}

func TestCheckoutQuoteZeroFeeOnEmptyCart(t *testing.T) {
	f := newCheckoutFixture(t)

	quote, err := f.svc.Quote(t.Context(), "sess-1")
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if quote.Subtotal != 0 || quote.DeliveryFee != 0 || quote.Total != 0 {
		t.Fatalf("quote = %+v, want all zero", quote)
	}
}

func TestCheckoutSubmitHappyPath(t *testing.T) {
	f := newCheckoutFixture(t)
	f.seedCart(t,
		domain.CartItem{ID: "midnight-oud-50ml", Name: "Midnight Oud", Price: int64Ptr(5500), Quantity: 2},
	)

	receipt, err := f.svc.Submit(t.Context(), validSubmission())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if receipt.OrderNumber != "AN-260831-K3Q7" {
		t.Fatalf("order number %q", receipt.OrderNumber)
	}
	if receipt.Total != 11350 {
		t.Fatalf("total = %d, want 11350", receipt.Total)
	}

	if len(f.orders.created) != 1 {
		t.Fatalf("created %d orders", len(f.orders.created))
	}
	order := f.orders.created[0]
	if order.Status != domain.OrderStatusPending {
		t.Fatalf("status = %s, want pending", order.Status)
	}
	if order.Subtotal != 11000 || order.DeliveryFee != 350 || order.Total != 11350 {
		t.Fatalf("money fields: %+v", order)
	}
	if len(order.Items) != 1 || order.Items[0].ProductID != "midnight-oud-50ml" || order.Items[0].Price != 5500 {
		t.Fatalf("items: %+v", order.Items)
	}

	if _, ok := f.cartRepo.carts["sess-1"]; ok {
		t.Fatal("cart must be cleared after submission")
	}
	if len(f.events.events) != 1 || f.events.events[0].Event != jobs.EventOrderCreated {
		t.Fatalf("events: %+v", f.events.events)
	}
}

func TestCheckoutSubmitRejectsEmptyCart(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.svc.Submit(t.Context(), validSubmission())
	if !errors.Is(err, ErrCheckoutEmptyCart) {
		t.Fatalf("err = %v, want ErrCheckoutEmptyCart", err)
	}
	if len(f.orders.created) != 0 {
		t.Fatal("no order may be created for an empty cart")
	}
}

func TestCheckoutSubmitValidatesFields(t *testing.T) {
	f := newCheckoutFixture(t)
	f.seedCart(t, domain.CartItem{ID: "a", Name: "A", Price: int64Ptr(1000), Quantity: 1})

	submission := validSubmission()
	submission.Customer.Name = "  "
	submission.Customer.Email = "not-an-email"

	_, err := f.svc.Submit(t.Context(), submission)
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if validation.Fields["name"] != "required" {
		t.Fatalf("fields: %v", validation.Fields)
	}
	if validation.Fields["email"] != "invalid_email" {
		t.Fatalf("fields: %v", validation.Fields)
	}
	if len(f.orders.created) != 0 {
		t.Fatal("invalid submissions must not persist")
	}
}

func TestCheckoutSubmitEmailShapes(t *testing.T) {
	f := newCheckoutFixture(t)

	for email, valid := range map[string]bool{
		"nimali@example.com":    true,
		"n.p@mail.example.lk":   true,
		"nimali@example":        false,
		"nimali@@example.com":   false,
		"nimali @example.com":   false,
		"@example.com":          false,
	} {
		f.seedCart(t, domain.CartItem{ID: "a", Name: "A", Price: int64Ptr(1000), Quantity: 1})
		submission := validSubmission()
		submission.Customer.Email = email

		_, err := f.svc.Submit(t.Context(), submission)
		if valid && err != nil {
			t.Fatalf("email %q rejected: %v", email, err)
		}
		if !valid && err == nil {
			t.Fatalf("email %q accepted", email)
		}
	}
}

func TestCheckoutSubmitBankDepositRequiresSlip(t *testing.T) {
	f := newCheckoutFixture(t)
	f.seedCart(t, domain.CartItem{ID: "a", Name: "A", Price: int64Ptr(1000), Quantity: 1})

	submission := validSubmission()
	submission.PaymentMethod = domain.PaymentMethodBankDeposit

	_, err := f.svc.Submit(t.Context(), submission)
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if validation.Fields["bankSlipUrl"] != "slip_required" {
		t.Fatalf("fields: %v", validation.Fields)
	}
	if len(f.orders.created) != 0 {
		t.Fatal("bank deposit without slip must not persist")
	}

	f.slips.put("bank-slips/1-x.jpeg")
	submission.BankSlipURL = "https://storage.googleapis.com/aroma-notes-test/bank-slips/1-x.jpeg"
	receipt, err := f.svc.Submit(t.Context(), submission)
	if err != nil {
		t.Fatalf("Submit with slip: %v", err)
	}
	if receipt.OrderNumber == "" {
		t.Fatal("missing receipt")
	}
	if f.orders.created[0].BankSlipURL != submission.BankSlipURL {
		t.Fatalf("slip url not stored: %+v", f.orders.created[0])
	}
}

func TestCheckoutSubmitRejectsForeignSlipURL(t *testing.T) {
	f := newCheckoutFixture(t)
	f.seedCart(t, domain.CartItem{ID: "a", Name: "A", Price: int64Ptr(1000), Quantity: 1})

	submission := validSubmission()
	submission.PaymentMethod = domain.PaymentMethodBankDeposit
	submission.BankSlipURL = "https://evil.example/aroma-notes-test/bank-slips/1-x.jpeg"

	_, err := f.svc.Submit(t.Context(), submission)
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if validation.Fields["bankSlipUrl"] != "invalid_slip_url" {
		t.Fatalf("fields: %v", validation.Fields)
	}
	if len(f.orders.created) != 0 {
		t.Fatal("foreign slip url must not persist an order")
	}
}

func TestCheckoutSubmitRejectsUnuploadedSlip(t *testing.T) {
	f := newCheckoutFixture(t)
	f.seedCart(t, domain.CartItem{ID: "a", Name: "A", Price: int64Ptr(1000), Quantity: 1})

	submission := validSubmission()
	submission.PaymentMethod = domain.PaymentMethodBankDeposit
	submission.BankSlipURL = "https://storage.googleapis.com/aroma-notes-test/bank-slips/1-x.jpeg"

	_, err := f.svc.Submit(t.Context(), submission)
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if validation.Fields["bankSlipUrl"] != "slip_not_uploaded" {
		t.Fatalf("fields: %v", validation.Fields)
	}
	if len(f.orders.created) != 0 {
		t.Fatal("missing slip object must not persist an order")
	}
}

func TestCheckoutUnpricedLinesContributeZero(t *testing.T) {
	f := newCheckoutFixture(t)
	f.seedCart(t,
		domain.CartItem{ID: "a", Name: "A", Price: int64Ptr(2000), Quantity: 1},
		domain.CartItem{ID: "sample", Name: "Sample Vial", Quantity: 2},
	)

	receipt, err := f.svc.Submit(t.Context(), validSubmission())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if receipt.Total != 2350 {
		t.Fatalf("total = %d, want 2000 + 350 fee", receipt.Total)
	}
	order := f.orders.created[0]
	if order.Items[1].Price != 0 {
		t.Fatalf("unpriced line stored with price %d", order.Items[1].Price)
	}
}

func TestCheckoutSlipUploadTicket(t *testing.T) {
	f := newCheckoutFixture(t)

	ticket, err := f.svc.SlipUploadTicket(t.Context(), "image/webp")
	if err != nil {
		t.Fatalf("SlipUploadTicket: %v", err)
	}
	matched, err := regexp.MatchString(`^bank-slips/\d+-[a-z0-9]+\.webp$`, ticket.ObjectPath)
	if err != nil || !matched {
		t.Fatalf("object path %q", ticket.ObjectPath)
	}

	if _, err := f.svc.SlipUploadTicket(t.Context(), "application/pdf"); !errors.Is(err, ErrCheckoutInvalidInput) {
		t.Fatalf("err = %v, want ErrCheckoutInvalidInput", err)
	}
}

func TestOrderNumberFormat(t *testing.T) {
	gen := RandomOrderNumberGenerator{}
	pattern := regexp.MustCompile(`^AN-260831-[A-Z0-9]{4}$`)

	for i := 0; i < 50; i++ {
		number, err := gen.NewOrderNumber(testTime)
		if err != nil {
			t.Fatalf("NewOrderNumber: %v", err)
		}
		if !pattern.MatchString(number) {
			t.Fatalf("order number %q does not match AN-YYMMDD-XXXX", number)
		}
	}
}
