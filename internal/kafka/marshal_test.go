package kafka

import (
	"encoding/json"
	"testing"

	"github.com/rentkit/rentalcore/internal/rental"
)

func TestUnwrapPayload(t *testing.T) {
	raw := json.RawMessage(`{"order_id":"o1","from":"PENDING","to":"CONFIRMED"}`)

	p, err := UnwrapPayload[rental.OrderStatusChangedPayload](raw)
	if err != nil {
		t.Fatal(err)
	}
	if p.OrderID != "o1" || p.From != rental.StatusPending || p.To != rental.StatusConfirmed {
		t.Fatalf("payload = %+v", p)
	}
}

func TestUnwrapPayloadBadJSON(t *testing.T) {
	if _, err := UnwrapPayload[rental.OrderStatusChangedPayload](json.RawMessage("{")); err == nil {
		t.Fatal("expected error")
	}
}
