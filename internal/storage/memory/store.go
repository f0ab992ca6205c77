// Package memory holds an in-memory rental.Store for tests and local
// development. Semantics mirror the postgres implementation; every mutation
// happens under one lock, which stands in for the per-transition transaction.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rentkit/rentalcore/internal/rental"
)

type Store struct {
	mu       sync.RWMutex
	products map[string]rental.Product
	bundles  []rental.Bundle
	config   rental.PricingConfig
	orders   map[string]rental.Order
	byRef    map[string]string // external ref -> order id
	items    map[string][]rental.OrderItem
	blocks   map[string][]rental.StockBlock // keyed by order id
}

func NewStore() *Store {
	return &Store{
		products: make(map[string]rental.Product),
		orders:   make(map[string]rental.Order),
		byRef:    make(map[string]string),
		items:    make(map[string][]rental.OrderItem),
		blocks:   make(map[string][]rental.StockBlock),
	}
}

// SeedProduct inserts or replaces a catalog product.
func (s *Store) SeedProduct(p rental.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

func (s *Store) SeedBundle(b rental.Bundle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bundles = append(s.bundles, b)
}

func (s *Store) SetPricingConfig(cfg rental.PricingConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg
}

func (s *Store) GetProduct(_ context.Context, id string) (rental.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return rental.Product{}, rental.ErrProductNotFound
	}
	return p, nil
}

func (s *Store) ListProducts(_ context.Context, activeOnly bool) ([]rental.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]rental.Product, 0, len(s.products))
	for _, p := range s.products {
		if activeOnly && !p.IsActive {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Store) ListBundles(_ context.Context) ([]rental.Bundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]rental.Bundle(nil), s.bundles...), nil
}

func (s *Store) GetPricingConfig(_ context.Context) (rental.PricingConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config, nil
}

func (s *Store) CreateOrder(_ context.Context, o rental.Order, items []rental.OrderItem, blocks []rental.StockBlock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.orders[o.ID]; exists {
		return rental.ErrDuplicateOrder
	}
	if o.ExternalRef != "" {
		if _, exists := s.byRef[o.ExternalRef]; exists {
			return rental.ErrDuplicateOrder
		}
		s.byRef[o.ExternalRef] = o.ID
	}
	s.orders[o.ID] = o
	s.items[o.ID] = append([]rental.OrderItem(nil), items...)
	s.blocks[o.ID] = append([]rental.StockBlock(nil), blocks...)
	return nil
}

func (s *Store) GetOrder(_ context.Context, id string) (rental.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return rental.Order{}, rental.ErrOrderNotFound
	}
	return o, nil
}

func (s *Store) GetOrderByRef(_ context.Context, externalRef string) (rental.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byRef[externalRef]
	if !ok {
		return rental.Order{}, rental.ErrOrderNotFound
	}
	return s.orders[id], nil
}

func (s *Store) ItemsByOrder(_ context.Context, orderID string) ([]rental.OrderItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.orders[orderID]; !ok {
		return nil, rental.ErrOrderNotFound
	}
	return append([]rental.OrderItem(nil), s.items[orderID]...), nil
}

func (s *Store) SetStatus(_ context.Context, o rental.Order, blocks []rental.StockBlock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[o.ID]; !ok {
		return rental.ErrOrderNotFound
	}
	s.orders[o.ID] = o
	if len(blocks) > 0 {
		s.blocks[o.ID] = append([]rental.StockBlock(nil), blocks...)
	}
	return nil
}

func (s *Store) ResolveOrder(_ context.Context, o rental.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[o.ID]; !ok {
		return rental.ErrOrderNotFound
	}
	s.orders[o.ID] = o
	delete(s.blocks, o.ID)
	return nil
}

func (s *Store) ReplaceCart(_ context.Context, orderID string, items []rental.OrderItem, blocks []rental.StockBlock, total decimal.Decimal, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return rental.ErrOrderNotFound
	}
	o.TotalPrice = total
	o.UpdatedAt = at
	s.orders[orderID] = o
	s.items[orderID] = append([]rental.OrderItem(nil), items...)
	s.blocks[orderID] = append([]rental.StockBlock(nil), blocks...)
	return nil
}

func (s *Store) CountBlocks(_ context.Context, orderID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blocks[orderID]), nil
}

func (s *Store) OverlappingBlocks(_ context.Context, productID string, start, end time.Time) ([]rental.StockBlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	from, to := rental.Day(start), rental.Day(end)
	var out []rental.StockBlock
	for orderID, blocks := range s.blocks {
		if s.orders[orderID].Status == rental.StatusCancelled {
			continue
		}
		for _, b := range blocks {
			if b.ProductID != productID {
				continue
			}
			if rental.Day(b.StartDate).Before(to) && !rental.Day(b.EndDate).Before(from) {
				out = append(out, b)
			}
		}
	}
	return out, nil
}

func (s *Store) ReservedByProductOn(_ context.Context, date time.Time) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int)
	for orderID, blocks := range s.blocks {
		if s.orders[orderID].Status == rental.StatusCancelled {
			continue
		}
		for _, b := range blocks {
			if b.Occupies(date) {
				out[b.ProductID] += b.Quantity
			}
		}
	}
	return out, nil
}

func (s *Store) OrdersCovering(_ context.Context, productID string, date time.Time) ([]rental.OrderRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	day := rental.Day(date)
	var out []rental.OrderRef
	for id, o := range s.orders {
		if o.Status == rental.StatusCompleted || o.Status == rental.StatusCancelled {
			continue
		}
		if day.Before(rental.Day(o.RentalStart)) || day.After(rental.Day(o.RentalEnd)) {
			continue
		}
		for _, it := range s.items[id] {
			if it.ProductID == productID {
				out = append(out, rental.OrderRef{
					OrderID:     id,
					Customer:    o.CustomerName,
					RentalStart: o.RentalStart,
					RentalEnd:   o.RentalEnd,
				})
				break
			}
		}
	}
	return out, nil
}

var _ rental.Store = (*Store)(nil)
