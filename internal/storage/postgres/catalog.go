package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/rentkit/rentalcore/internal/rental"
)

// NUMERIC columns are selected as ::text and parsed, keeping full precision
// without a pgx numeric codec adapter.

func (s *Store) GetProduct(ctx context.Context, id string) (rental.Product, error) {
	var p rental.Product
	var price string
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, weekly_price::text, total_stock, is_active, created_at, updated_at
		FROM products WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &price, &p.TotalStock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rental.Product{}, rental.ErrProductNotFound
		}
		return rental.Product{}, fmt.Errorf("select product: %w", err)
	}
	if p.WeeklyPrice, err = decimal.NewFromString(price); err != nil {
		return rental.Product{}, fmt.Errorf("parse weekly_price: %w", err)
	}
	return p, nil
}

func (s *Store) ListProducts(ctx context.Context, activeOnly bool) ([]rental.Product, error) {
	q := `SELECT id, name, weekly_price::text, total_stock, is_active, created_at, updated_at
	      FROM products`
	if activeOnly {
		q += ` WHERE is_active`
	}
	q += ` ORDER BY name`

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []rental.Product
	for rows.Next() {
		var p rental.Product
		var price string
		if err := rows.Scan(&p.ID, &p.Name, &price, &p.TotalStock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		if p.WeeklyPrice, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parse weekly_price: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) ListBundles(ctx context.Context) ([]rental.Bundle, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT b.id, b.name, bp.product_id, bp.qty
		FROM bundles b JOIN bundle_products bp ON bp.bundle_id = b.id
		ORDER BY b.name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := map[string]int{}
	var out []rental.Bundle
	for rows.Next() {
		var id, name, productID string
		var qty int
		if err := rows.Scan(&id, &name, &productID, &qty); err != nil {
			return nil, err
		}
		idx, ok := byID[id]
		if !ok {
			idx = len(out)
			byID[id] = idx
			out = append(out, rental.Bundle{ID: id, Name: name})
		}
		out[idx].Products = append(out[idx].Products, rental.BundleProduct{
			BundleID: id, ProductID: productID, Qty: qty,
		})
	}
	return out, rows.Err()
}

func (s *Store) GetPricingConfig(ctx context.Context) (rental.PricingConfig, error) {
	var inc, min, airport, discount string
	err := s.pool.QueryRow(ctx, `
		SELECT weekly_percent_increase::text, min_order_value::text,
		       airport_min_order::text, bundle_discount_percent::text
		FROM pricing_config WHERE id = 1
	`).Scan(&inc, &min, &airport, &discount)
	if err != nil {
		return rental.PricingConfig{}, fmt.Errorf("select pricing config: %w", err)
	}

	var cfg rental.PricingConfig
	for _, f := range []struct {
		raw string
		dst *decimal.Decimal
	}{
		{inc, &cfg.WeeklyPercentIncrease},
		{min, &cfg.MinOrderValue},
		{airport, &cfg.AirportMinOrder},
		{discount, &cfg.BundleDiscountPercent},
	} {
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return rental.PricingConfig{}, fmt.Errorf("parse pricing config: %w", err)
		}
		*f.dst = d
	}
	return cfg, nil
}
