package jobs

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestNewPubSubPublisherRequiresTopic(t *testing.T) {
	if _, err := NewPubSubPublisher(nil); err == nil {
		t.Fatal("expected error for nil topic")
	}
}

func TestNopPublisher(t *testing.T) {
	if err := (NopPublisher{}).Publish(context.Background(), OrderEvent{Event: EventOrderCreated}); err != nil {
		t.Fatalf("nop publish: %v", err)
	}
}

func TestOrderEventPayloadShape(t *testing.T) {
	event := OrderEvent{
		Event:       EventOrderStatusChanged,
		OrderID:     "01J0ABCDEF",
		OrderNumber: "AN-260831-K3Q7",
		Status:      "processing",
		PrevStatus:  "pending",
		Total:       11350,
		OccurredAt:  time.Date(2026, 8, 31, 10, 30, 0, 0, time.UTC),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["event"] != "order.status.changed" || decoded["prevStatus"] != "pending" {
		t.Fatalf("payload: %v", decoded)
	}
	if decoded["total"].(float64) != 11350 {
		t.Fatalf("total: %v", decoded["total"])
	}
}

func TestOrderEventOmitsEmptyPrevStatus(t *testing.T) {
	payload, err := json.Marshal(OrderEvent{Event: EventOrderCreated, OrderID: "o1"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := decoded["prevStatus"]; ok {
		t.Fatal("prevStatus should be omitted when empty")
	}
}
