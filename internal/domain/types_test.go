package domain

import "testing"

func TestCartTotalsSkipUnpricedLines(t *testing.T) {
	cart := Cart{Items: []CartItem{
		{ID: "midnight-oud-50ml", Price: int64Ptr(5500), Quantity: 2},
		{ID: "tester-vial", Quantity: 3},
	}}

	if got := cart.Count(); got != 5 {
		t.Fatalf("Count = %d, want 5", got)
	}
	if got := cart.Total(); got != 11000 {
		t.Fatalf("Total = %d, want 11000", got)
	}
}

func TestParseOrderStatus(t *testing.T) {
	if status, ok := ParseOrderStatus(" Processing "); !ok || status != OrderStatusProcessing {
		t.Fatalf("got %q ok=%v", status, ok)
	}
	if _, ok := ParseOrderStatus("shipped"); ok {
		t.Fatal("shipped is not a known status")
	}
}

func TestParsePaymentMethod(t *testing.T) {
	if method, ok := ParsePaymentMethod("BANK_DEPOSIT"); !ok || method != PaymentMethodBankDeposit {
		t.Fatalf("got %q ok=%v", method, ok)
	}
	if _, ok := ParsePaymentMethod("card"); ok {
		t.Fatal("card is not a supported method")
	}
}

func TestComputeOrderMetrics(t *testing.T) {
	orders := []Order{
		{Status: OrderStatusPending, Total: 5850},
		{Status: OrderStatusCompleted, Total: 11350},
		{Status: OrderStatusCompleted, Total: 6150},
		{Status: OrderStatusCancelled, Total: 4200},
	}

	m := ComputeOrderMetrics(orders)
	if m.Total != 4 || m.Pending != 1 || m.Completed != 2 || m.Cancelled != 1 || m.Processing != 0 {
		t.Fatalf("unexpected counts: %+v", m)
	}
	if m.Revenue != 17500 {
		t.Fatalf("Revenue = %d, want 17500 (completed orders only)", m.Revenue)
	}
}
