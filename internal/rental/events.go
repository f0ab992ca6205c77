package rental

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderStatusChanged = "OrderStatusChanged"
	EventOrderAmended       = "OrderAmended"
	EventStockOversold      = "StockOversold"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id for order events
	Payload       json.RawMessage `json:"payload"`
}

type ItemQty struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type OrderCreatedPayload struct {
	OrderID     string    `json:"order_id"`
	ExternalRef string    `json:"external_ref"`
	Customer    string    `json:"customer"`
	RentalStart time.Time `json:"rental_start"`
	RentalEnd   time.Time `json:"rental_end"`
	Items       []ItemQty `json:"items"`
	Total       string    `json:"total"` // decimal as string, 2dp
}

type OrderStatusChangedPayload struct {
	OrderID string `json:"order_id"`
	From    Status `json:"from"`
	To      Status `json:"to"`
}

type OrderAmendedPayload struct {
	OrderID string    `json:"order_id"`
	Items   []ItemQty `json:"items"`
	Total   string    `json:"total"`
}

type OversoldDetail struct {
	ProductID  string `json:"product_id"`
	TotalStock int    `json:"total_stock"`
	Reserved   int    `json:"reserved"`
	Shortfall  int    `json:"shortfall"`
}

type StockOversoldPayload struct {
	ReferenceDate time.Time        `json:"reference_date"`
	Products      []OversoldDetail `json:"products"`
}
