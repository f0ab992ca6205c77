package rental

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

const DefaultLowStockThreshold = 2

// Service drives the order lifecycle and the availability/report reads on top
// of a Store. Admission is optimistic: creation never checks
// availability, conflicts surface afterwards through the stock report.
type Service struct {
	Store Store
	Now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{Store: store, Now: func() time.Time { return time.Now().UTC() }}
}

type ItemInput struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type CreateOrderInput struct {
	ExternalRef   string       `json:"external_ref"`
	CustomerName  string       `json:"customer_name"`
	CustomerEmail string       `json:"customer_email"`
	CustomerPhone string       `json:"customer_phone"`
	DeliveryType  DeliveryType `json:"delivery_type"`
	RentalStart   time.Time    `json:"rental_start"`
	RentalEnd     time.Time    `json:"rental_end"`
	Items         []ItemInput  `json:"items"`
	TermsAccepted bool         `json:"terms_accepted"`
}

// CreateOrder validates the cart, freezes the quoted total and writes the
// order, its items and one unit block per rented unit in a single
// transaction. Replaying the same external ref returns the existing order
// (existed=true) instead of a duplicate.
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (Order, bool, error) {
	if !in.TermsAccepted {
		return Order{}, false, ErrTermsNotAccepted
	}
	if err := ValidateRange(in.RentalStart, in.RentalEnd); err != nil {
		return Order{}, false, err
	}
	if in.ExternalRef != "" {
		if existing, err := s.Store.GetOrderByRef(ctx, in.ExternalRef); err == nil {
			return existing, true, nil
		}
	}

	cart, quote, err := s.priceCart(ctx, in.Items, in.RentalStart, in.RentalEnd, in.DeliveryType)
	if err != nil {
		return Order{}, false, err
	}
	if quote.RequiresContact {
		return Order{}, false, ErrRequiresContact
	}

	now := s.Now()
	order := Order{
		ID:            uuid.NewString(),
		ExternalRef:   in.ExternalRef,
		CustomerName:  in.CustomerName,
		CustomerEmail: in.CustomerEmail,
		CustomerPhone: in.CustomerPhone,
		DeliveryType:  in.DeliveryType,
		Status:        StatusPending,
		RentalStart:   Day(in.RentalStart),
		RentalEnd:     Day(in.RentalEnd),
		TotalPrice:    quote.Total,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	items := make([]OrderItem, 0, len(cart))
	for _, c := range cart {
		items = append(items, OrderItem{
			ID:        uuid.NewString(),
			OrderID:   order.ID,
			ProductID: c.ProductID,
			Qty:       c.Qty,
			UnitPrice: c.WeeklyUnitPrice,
		})
	}
	blocks := BuildBlocks(order.ID, items, order.RentalStart, order.RentalEnd, now)

	if err := s.Store.CreateOrder(ctx, order, items, blocks); err != nil {
		return Order{}, false, fmt.Errorf("create order: %w", err)
	}
	return order, false, nil
}

// Transition moves an order to the next status and applies the ledger side
// effects of the target state. Returns the updated order and the status it
// left. The store call is one transaction per transition.
func (s *Service) Transition(ctx context.Context, orderID string, to Status) (Order, Status, error) {
	order, err := s.Store.GetOrder(ctx, orderID)
	if err != nil {
		return Order{}, "", err
	}
	from := order.Status
	if !to.Valid() || !CanTransition(from, to) {
		return Order{}, "", fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	now := s.Now()
	order.Stamp(to, now)

	switch to {
	case StatusConfirmed:
		// Idempotent repair: a prior failed write may have left the order
		// without blocks. Recreate them from the items before confirming.
		var repair []StockBlock
		n, err := s.Store.CountBlocks(ctx, orderID)
		if err != nil {
			return Order{}, "", err
		}
		if n == 0 {
			items, err := s.Store.ItemsByOrder(ctx, orderID)
			if err != nil {
				return Order{}, "", err
			}
			repair = BuildBlocks(orderID, items, order.RentalStart, order.RentalEnd, now)
		}
		if err := s.Store.SetStatus(ctx, order, repair); err != nil {
			return Order{}, "", fmt.Errorf("confirm order: %w", err)
		}
	case StatusDelivered:
		// Units are with the customer; the ledger is untouched.
		if err := s.Store.SetStatus(ctx, order, nil); err != nil {
			return Order{}, "", fmt.Errorf("deliver order: %w", err)
		}
	case StatusCompleted, StatusCancelled:
		// Terminal: inventory comes back, the order's blocks die with it.
		if err := s.Store.ResolveOrder(ctx, order); err != nil {
			return Order{}, "", fmt.Errorf("resolve order: %w", err)
		}
	}
	return order, from, nil
}

// Amend rebuilds a pending order's cart: every item and block is deleted and
// recreated to exactly the new quantities, and the total is re-frozen from a
// fresh quote. Orders past PENDING cannot be amended.
func (s *Service) Amend(ctx context.Context, orderID string, newItems []ItemInput) (Order, error) {
	order, err := s.Store.GetOrder(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if order.Status != StatusPending {
		return Order{}, fmt.Errorf("%w: status %s", ErrOrderNotAmendable, order.Status)
	}

	cart, quote, err := s.priceCart(ctx, newItems, order.RentalStart, order.RentalEnd, order.DeliveryType)
	if err != nil {
		return Order{}, err
	}
	if quote.RequiresContact {
		return Order{}, ErrRequiresContact
	}

	now := s.Now()
	items := make([]OrderItem, 0, len(cart))
	for _, c := range cart {
		items = append(items, OrderItem{
			ID:        uuid.NewString(),
			OrderID:   orderID,
			ProductID: c.ProductID,
			Qty:       c.Qty,
			UnitPrice: c.WeeklyUnitPrice,
		})
	}
	blocks := BuildBlocks(orderID, items, order.RentalStart, order.RentalEnd, now)

	if err := s.Store.ReplaceCart(ctx, orderID, items, blocks, quote.Total, now); err != nil {
		return Order{}, fmt.Errorf("amend order: %w", err)
	}
	order.TotalPrice = quote.Total
	order.UpdatedAt = now
	return order, nil
}

type Availability struct {
	ProductID   string `json:"product_id"`
	TotalStock  int    `json:"total_stock"`
	MaxReserved int    `json:"max_reserved"`
	Available   int    `json:"available"`
}

// CheckAvailability derives remaining units for a product over [start, end).
// The result can go negative: that is an oversell, reported as-is.
func (s *Service) CheckAvailability(ctx context.Context, productID string, start, end time.Time) (Availability, error) {
	if err := ValidateRange(start, end); err != nil {
		return Availability{}, err
	}
	product, err := s.Store.GetProduct(ctx, productID)
	if err != nil {
		return Availability{}, err
	}
	blocks, err := s.Store.OverlappingBlocks(ctx, productID, start, end)
	if err != nil {
		return Availability{}, fmt.Errorf("load blocks: %w", err)
	}
	reserved := MaxDailyReserved(blocks, start, end)
	return Availability{
		ProductID:   productID,
		TotalStock:  product.TotalStock,
		MaxReserved: reserved,
		Available:   product.TotalStock - reserved,
	}, nil
}

// ComputePrice quotes a cart without touching any order. Bundle membership is
// resolved here so the pricing engine stays pure.
func (s *Service) ComputePrice(ctx context.Context, items []ItemInput, start, end time.Time, delivery DeliveryType) (PricingResult, error) {
	_, quote, err := s.priceCart(ctx, items, start, end, delivery)
	return quote, err
}

// StockReport buckets every active product by remaining stock on the
// reference date. Oversold products carry their contributing orders, earliest
// rental start first, so operators see the critical window immediately.
func (s *Service) StockReport(ctx context.Context, referenceDate time.Time, threshold int) (StockReport, error) {
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	date := Day(referenceDate)

	products, err := s.Store.ListProducts(ctx, true)
	if err != nil {
		return StockReport{}, fmt.Errorf("list products: %w", err)
	}
	reserved, err := s.Store.ReservedByProductOn(ctx, date)
	if err != nil {
		return StockReport{}, fmt.Errorf("reserved by product: %w", err)
	}

	report := StockReport{ReferenceDate: date, Threshold: threshold}
	for _, p := range products {
		level := StockLevel{
			ProductID:  p.ID,
			Name:       p.Name,
			TotalStock: p.TotalStock,
			Reserved:   reserved[p.ID],
			Available:  p.TotalStock - reserved[p.ID],
		}
		switch {
		case level.Reserved > level.TotalStock:
			refs, err := s.Store.OrdersCovering(ctx, p.ID, date)
			if err != nil {
				return StockReport{}, fmt.Errorf("orders covering %s: %w", p.ID, err)
			}
			sort.Slice(refs, func(i, j int) bool { return refs[i].RentalStart.Before(refs[j].RentalStart) })
			report.Oversold = append(report.Oversold, OversoldProduct{
				StockLevel: level,
				Shortfall:  level.Reserved - level.TotalStock,
				Orders:     refs,
			})
		case level.Available <= 0:
			report.OutOfStock = append(report.OutOfStock, level)
		case level.Available <= threshold:
			report.LowStock = append(report.LowStock, level)
		default:
			report.Healthy = append(report.Healthy, level)
		}
	}
	return report, nil
}

// priceCart validates the items, resolves catalog prices and bundle flags and
// quotes the cart with the current pricing config.
func (s *Service) priceCart(ctx context.Context, items []ItemInput, start, end time.Time, delivery DeliveryType) ([]CartItem, PricingResult, error) {
	if len(items) == 0 {
		return nil, PricingResult{}, ErrEmptyCart
	}
	cart := make([]CartItem, 0, len(items))
	for _, it := range items {
		if it.Qty <= 0 {
			return nil, PricingResult{}, fmt.Errorf("%w: product %s", ErrInvalidQty, it.ProductID)
		}
		product, err := s.Store.GetProduct(ctx, it.ProductID)
		if err != nil {
			return nil, PricingResult{}, err
		}
		if !product.IsActive {
			return nil, PricingResult{}, fmt.Errorf("%w: %s", ErrProductInactive, it.ProductID)
		}
		cart = append(cart, CartItem{
			ProductID:       it.ProductID,
			Qty:             it.Qty,
			WeeklyUnitPrice: product.WeeklyPrice,
		})
	}

	bundles, err := s.Store.ListBundles(ctx)
	if err != nil {
		return nil, PricingResult{}, fmt.Errorf("list bundles: %w", err)
	}
	cart = FlagBundleItems(cart, bundles)

	cfg, err := s.Store.GetPricingConfig(ctx)
	if err != nil {
		return nil, PricingResult{}, fmt.Errorf("pricing config: %w", err)
	}
	return cart, Quote(cart, start, end, cfg, delivery), nil
}
