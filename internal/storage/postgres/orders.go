package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/rentkit/rentalcore/internal/rental"
)

func (s *Store) CreateOrder(ctx context.Context, o rental.Order, items []rental.OrderItem, blocks []rental.StockBlock) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, external_ref, customer_name, customer_email, customer_phone,
		                    delivery_type, status, rental_start, rental_end, total_price,
		                    created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, o.ID, o.ExternalRef, o.CustomerName, o.CustomerEmail, o.CustomerPhone,
		string(o.DeliveryType), string(o.Status), o.RentalStart, o.RentalEnd,
		o.TotalPrice.String(), o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	if err := insertItems(ctx, tx, items); err != nil {
		return err
	}
	if err := insertBlocks(ctx, tx, blocks); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) GetOrder(ctx context.Context, id string) (rental.Order, error) {
	return s.scanOrder(ctx, `WHERE id = $1`, id)
}

func (s *Store) GetOrderByRef(ctx context.Context, externalRef string) (rental.Order, error) {
	return s.scanOrder(ctx, `WHERE external_ref = $1 AND external_ref <> ''`, externalRef)
}

func (s *Store) scanOrder(ctx context.Context, where string, arg any) (rental.Order, error) {
	var o rental.Order
	var delivery, status, total string
	err := s.pool.QueryRow(ctx, `
		SELECT id, external_ref, customer_name, customer_email, customer_phone,
		       delivery_type, status, rental_start, rental_end, total_price::text,
		       confirmed_at, delivered_at, completed_at, cancelled_at, created_at, updated_at
		FROM orders `+where, arg).Scan(
		&o.ID, &o.ExternalRef, &o.CustomerName, &o.CustomerEmail, &o.CustomerPhone,
		&delivery, &status, &o.RentalStart, &o.RentalEnd, &total,
		&o.ConfirmedAt, &o.DeliveredAt, &o.CompletedAt, &o.CancelledAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rental.Order{}, rental.ErrOrderNotFound
		}
		return rental.Order{}, fmt.Errorf("select order: %w", err)
	}
	o.DeliveryType = rental.DeliveryType(delivery)
	o.Status = rental.Status(status)
	if o.TotalPrice, err = decimal.NewFromString(total); err != nil {
		return rental.Order{}, fmt.Errorf("parse total_price: %w", err)
	}
	return o, nil
}

func (s *Store) ItemsByOrder(ctx context.Context, orderID string) ([]rental.OrderItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, order_id, product_id, qty, unit_price::text
		FROM order_items WHERE order_id = $1
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []rental.OrderItem
	for rows.Next() {
		var it rental.OrderItem
		var price string
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Qty, &price); err != nil {
			return nil, err
		}
		if it.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parse unit_price: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// SetStatus stamps a non-terminal transition; a non-empty blocks slice is the
// CONFIRMED repair set, recreated in the same transaction.
func (s *Store) SetStatus(ctx context.Context, o rental.Order, blocks []rental.StockBlock) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := updateStatus(ctx, tx, o); err != nil {
		return err
	}
	if err := insertBlocks(ctx, tx, blocks); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ResolveOrder stamps COMPLETED or CANCELLED and frees the order's inventory.
func (s *Store) ResolveOrder(ctx context.Context, o rental.Order) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := updateStatus(ctx, tx, o); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM stock_blocks WHERE order_id = $1`, o.ID); err != nil {
		return fmt.Errorf("delete blocks: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *Store) ReplaceCart(ctx context.Context, orderID string, items []rental.OrderItem, blocks []rental.StockBlock, total decimal.Decimal, at time.Time) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx, `UPDATE orders SET total_price = $2, updated_at = $3 WHERE id = $1`,
		orderID, total.String(), at)
	if err != nil {
		return fmt.Errorf("update total: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return rental.ErrOrderNotFound
	}
	if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
		return fmt.Errorf("delete items: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM stock_blocks WHERE order_id = $1`, orderID); err != nil {
		return fmt.Errorf("delete blocks: %w", err)
	}
	if err := insertItems(ctx, tx, items); err != nil {
		return err
	}
	if err := insertBlocks(ctx, tx, blocks); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) CountBlocks(ctx context.Context, orderID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM stock_blocks WHERE order_id = $1`, orderID).Scan(&n)
	return n, err
}

func updateStatus(ctx context.Context, tx pgx.Tx, o rental.Order) error {
	ct, err := tx.Exec(ctx, `
		UPDATE orders
		SET status = $2, confirmed_at = $3, delivered_at = $4,
		    completed_at = $5, cancelled_at = $6, updated_at = $7
		WHERE id = $1
	`, o.ID, string(o.Status), o.ConfirmedAt, o.DeliveredAt, o.CompletedAt, o.CancelledAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return rental.ErrOrderNotFound
	}
	return nil
}

func insertItems(ctx context.Context, tx pgx.Tx, items []rental.OrderItem) error {
	for _, it := range items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, qty, unit_price)
			VALUES ($1,$2,$3,$4,$5)
		`, it.ID, it.OrderID, it.ProductID, it.Qty, it.UnitPrice.String()); err != nil {
			return fmt.Errorf("insert item: %w", err)
		}
	}
	return nil
}

func insertBlocks(ctx context.Context, tx pgx.Tx, blocks []rental.StockBlock) error {
	for _, b := range blocks {
		if _, err := tx.Exec(ctx, `
			INSERT INTO stock_blocks (id, product_id, order_id, start_date, end_date, quantity, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, b.ID, b.ProductID, b.OrderID, b.StartDate, b.EndDate, b.Quantity, b.CreatedAt); err != nil {
			return fmt.Errorf("insert block: %w", err)
		}
	}
	return nil
}
