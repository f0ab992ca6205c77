package postgres

import (
	"context"
	"time"

	"github.com/rentkit/rentalcore/internal/rental"
)

// Ledger reads. Blocks of CANCELLED orders never count; COMPLETED orders have
// already had their blocks deleted.

func (s *Store) OverlappingBlocks(ctx context.Context, productID string, start, end time.Time) ([]rental.StockBlock, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT b.id, b.product_id, b.order_id, b.start_date, b.end_date, b.quantity, b.created_at
		FROM stock_blocks b
		JOIN orders o ON o.id = b.order_id
		WHERE b.product_id = $1
		  AND o.status <> 'CANCELLED'
		  AND b.start_date < $3
		  AND b.end_date >= $2
	`, productID, rental.Day(start), rental.Day(end))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []rental.StockBlock
	for rows.Next() {
		var b rental.StockBlock
		if err := rows.Scan(&b.ID, &b.ProductID, &b.OrderID, &b.StartDate, &b.EndDate, &b.Quantity, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) ReservedByProductOn(ctx context.Context, date time.Time) (map[string]int, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT b.product_id, COALESCE(SUM(b.quantity), 0)
		FROM stock_blocks b
		JOIN orders o ON o.id = b.order_id
		WHERE o.status <> 'CANCELLED'
		  AND b.start_date <= $1
		  AND b.end_date >= $1
		GROUP BY b.product_id
	`, rental.Day(date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var productID string
		var reserved int
		if err := rows.Scan(&productID, &reserved); err != nil {
			return nil, err
		}
		out[productID] = reserved
	}
	return out, rows.Err()
}

func (s *Store) OrdersCovering(ctx context.Context, productID string, date time.Time) ([]rental.OrderRef, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT o.id, o.customer_name, o.rental_start, o.rental_end
		FROM orders o
		JOIN order_items i ON i.order_id = o.id
		WHERE i.product_id = $1
		  AND o.status NOT IN ('COMPLETED', 'CANCELLED')
		  AND o.rental_start <= $2
		  AND o.rental_end >= $2
		ORDER BY o.rental_start
	`, productID, rental.Day(date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []rental.OrderRef
	for rows.Next() {
		var ref rental.OrderRef
		if err := rows.Scan(&ref.OrderID, &ref.Customer, &ref.RentalStart, &ref.RentalEnd); err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

var _ rental.Store = (*Store)(nil)
