package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/aroma-notes/api/internal/domain"
	"github.com/aroma-notes/api/internal/services"
)

func checkoutRouter(svc *stubCheckoutService) *chi.Mux {
	h := NewCheckoutHandlers(svc)
	r := chi.NewRouter()
	r.Get("/checkout/quote", h.Quote)
	r.Post("/checkout/slip-uploads", h.SlipUpload)
	r.Post("/checkout/orders", h.Submit)
	return r
}

func TestCheckoutSubmit(t *testing.T) {
	svc := &stubCheckoutService{receipt: services.CheckoutReceipt{
		OrderID:      "o1",
		OrderNumber:  "AN-260831-K3Q7",
		Total:        11350,
		TotalDisplay: "LKR 11,350",
	}}

	payload := `{
		"customer": {"name":"Nimali Perera","phone":"0771234567","address":"12 Temple Road","city":"Colombo"},
		"paymentMethod": "cod"
	}`
	req := httptest.NewRequest(http.MethodPost, "/checkout/orders", strings.NewReader(payload))
	req.Header.Set(SessionHeader, "sess-1")
	rec := httptest.NewRecorder()
	checkoutRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var body services.CheckoutReceipt
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.OrderNumber != "AN-260831-K3Q7" {
		t.Fatalf("order number %q", body.OrderNumber)
	}
	if svc.lastSubmission.SessionID != "sess-1" || svc.lastSubmission.PaymentMethod != domain.PaymentMethodCOD {
		t.Fatalf("submission: %+v", svc.lastSubmission)
	}
}

func TestCheckoutSubmitUnknownPaymentMethod(t *testing.T) {
	svc := &stubCheckoutService{}

	payload := `{"customer":{"name":"N"},"paymentMethod":"card"}`
	req := httptest.NewRequest(http.MethodPost, "/checkout/orders", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	checkoutRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), `"orderNumber"`) {
		t.Fatal("submission must not reach the service")
	}
}

func TestCheckoutSubmitValidationErrors(t *testing.T) {
	svc := &stubCheckoutService{err: &services.ValidationError{
		Fields: map[string]string{"name": "required", "bankSlipUrl": "slip_required"},
	}}

	payload := `{"customer":{},"paymentMethod":"bank_deposit"}`
	req := httptest.NewRequest(http.MethodPost, "/checkout/orders", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	checkoutRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}

	var body struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "validation_failed" || body.Fields["bankSlipUrl"] != "slip_required" {
		t.Fatalf("body: %+v", body)
	}
}

func TestCheckoutSubmitEmptyCart(t *testing.T) {
	svc := &stubCheckoutService{err: services.ErrCheckoutEmptyCart}

	payload := `{"customer":{"name":"N","phone":"0","address":"a","city":"c"},"paymentMethod":"cod"}`
	req := httptest.NewRequest(http.MethodPost, "/checkout/orders", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	checkoutRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCheckoutQuote(t *testing.T) {
	svc := &stubCheckoutService{quote: services.CheckoutQuote{
		Subtotal: 11000, DeliveryFee: 350, Total: 11350, TotalDisplay: "LKR 11,350",
	}}

	req := httptest.NewRequest(http.MethodGet, "/checkout/quote", nil)
	req.Header.Set(SessionHeader, "sess-1")
	rec := httptest.NewRecorder()
	checkoutRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var quote services.CheckoutQuote
	if err := json.Unmarshal(rec.Body.Bytes(), &quote); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if quote.Total != 11350 {
		t.Fatalf("quote: %+v", quote)
	}
}

func TestCheckoutSlipUploadBadType(t *testing.T) {
	svc := &stubCheckoutService{err: services.ErrCheckoutInvalidInput}

	req := httptest.NewRequest(http.MethodPost, "/checkout/slip-uploads",
		strings.NewReader(`{"contentType":"application/pdf"}`))
	rec := httptest.NewRecorder()
	checkoutRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}
