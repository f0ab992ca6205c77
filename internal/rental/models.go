package rental

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string
	Name        string
	WeeklyPrice decimal.Decimal
	TotalStock  int
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Order struct {
	ID            string
	ExternalRef   string // client-supplied, makes creation idempotent
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	DeliveryType  DeliveryType
	Status        Status
	RentalStart   time.Time
	RentalEnd     time.Time
	TotalPrice    decimal.Decimal // frozen at creation, never recomputed
	ConfirmedAt   *time.Time
	DeliveredAt   *time.Time
	CompletedAt   *time.Time
	CancelledAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type OrderItem struct {
	ID        string
	OrderID   string
	ProductID string
	Qty       int
	UnitPrice decimal.Decimal // historical weekly price, captured at creation
}

// StockBlock commits one rented unit for a date span. Rows are unit-granular:
// an item of qty N owns N blocks, each with Quantity 1.
type StockBlock struct {
	ID        string
	ProductID string
	OrderID   string
	StartDate time.Time
	EndDate   time.Time
	Quantity  int
	CreatedAt time.Time
}

type Bundle struct {
	ID       string
	Name     string
	Products []BundleProduct
}

type BundleProduct struct {
	BundleID  string
	ProductID string
	Qty       int
}

// PricingConfig is stored as a single row and passed explicitly into Quote.
type PricingConfig struct {
	WeeklyPercentIncrease decimal.Decimal // extra-day surcharge, percent per day past 7
	MinOrderValue         decimal.Decimal
	AirportMinOrder       decimal.Decimal
	BundleDiscountPercent decimal.Decimal
}

type DeliveryType string

const (
	DeliveryStandard DeliveryType = "STANDARD"
	DeliveryAirport  DeliveryType = "AIRPORT"
)

// CartItem is a pricing/creation input line. InBundle is set by the caller
// (see FlagBundleItems); the pricing engine never looks bundles up itself.
type CartItem struct {
	ProductID       string          `json:"product_id"`
	Qty             int             `json:"qty"`
	WeeklyUnitPrice decimal.Decimal `json:"weekly_unit_price"`
	InBundle        bool            `json:"in_bundle"`
}
