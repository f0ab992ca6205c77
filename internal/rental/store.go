package rental

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Store is the persistence port. Every method is atomic: implementations wrap
// multi-row mutations (order + items + blocks) in one transaction so a crash
// can never leave a partial block set behind.
type Store interface {
	// Catalog.
	GetProduct(ctx context.Context, id string) (Product, error)
	ListProducts(ctx context.Context, activeOnly bool) ([]Product, error)
	ListBundles(ctx context.Context) ([]Bundle, error)
	GetPricingConfig(ctx context.Context) (PricingConfig, error)

	// Orders and the stock-block ledger.
	CreateOrder(ctx context.Context, o Order, items []OrderItem, blocks []StockBlock) error
	GetOrder(ctx context.Context, id string) (Order, error)
	GetOrderByRef(ctx context.Context, externalRef string) (Order, error)
	ItemsByOrder(ctx context.Context, orderID string) ([]OrderItem, error)
	// SetStatus stamps the transition; blocks may be nil (DELIVERED) or carry
	// the repair set recreated on CONFIRMED when a prior write lost them.
	SetStatus(ctx context.Context, o Order, blocks []StockBlock) error
	// ResolveOrder stamps a terminal status and deletes the order's blocks.
	ResolveOrder(ctx context.Context, o Order) error
	// ReplaceCart swaps an order's items and blocks for the amended set and
	// freezes the new total.
	ReplaceCart(ctx context.Context, orderID string, items []OrderItem, blocks []StockBlock, total decimal.Decimal, at time.Time) error
	CountBlocks(ctx context.Context, orderID string) (int, error)

	// Ledger reads. Both exclude blocks owned by CANCELLED orders; COMPLETED
	// orders have no blocks left to exclude.
	OverlappingBlocks(ctx context.Context, productID string, start, end time.Time) ([]StockBlock, error)
	ReservedByProductOn(ctx context.Context, date time.Time) (map[string]int, error)
	OrdersCovering(ctx context.Context, productID string, date time.Time) ([]OrderRef, error)
}

// OrderRef identifies a contributing order in the stock report.
type OrderRef struct {
	OrderID     string    `json:"order_id"`
	Customer    string    `json:"customer"`
	RentalStart time.Time `json:"rental_start"`
	RentalEnd   time.Time `json:"rental_end"`
}

type StockLevel struct {
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	TotalStock int    `json:"total_stock"`
	Reserved   int    `json:"reserved"`
	Available  int    `json:"available"`
}

type OversoldProduct struct {
	StockLevel
	Shortfall int        `json:"shortfall"`
	Orders    []OrderRef `json:"orders"` // earliest rental start first
}

type StockReport struct {
	ReferenceDate time.Time         `json:"reference_date"`
	Threshold     int               `json:"threshold"`
	Oversold      []OversoldProduct `json:"oversold"`
	OutOfStock    []StockLevel      `json:"out_of_stock"`
	LowStock      []StockLevel      `json:"low_stock"`
	Healthy       []StockLevel      `json:"healthy"`
}
