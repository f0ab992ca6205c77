package rental

import (
	"time"

	"github.com/google/uuid"
)

// Day normalizes t to midnight UTC; all overlap math is day-granular.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Occupies reports whether the block holds its units on day d. A block spans
// its start and end dates inclusive: the gear is out until it comes back.
func (b StockBlock) Occupies(d time.Time) bool {
	d = Day(d)
	return !d.Before(Day(b.StartDate)) && !d.After(Day(b.EndDate))
}

// MaxDailyReserved walks every day in [start, end) and returns the highest
// single-day sum of block quantities. The worst day is the binding constraint
// for availability over the whole range.
func MaxDailyReserved(blocks []StockBlock, start, end time.Time) int {
	max := 0
	for d := Day(start); d.Before(Day(end)); d = d.AddDate(0, 0, 1) {
		sum := 0
		for _, b := range blocks {
			if b.Occupies(d) {
				sum += b.Quantity
			}
		}
		if sum > max {
			max = sum
		}
	}
	return max
}

// AvailableUnits derives remaining stock over [start, end) from the ledger.
// Negative values are meaningful: they quantify an oversell, not an error.
func AvailableUnits(totalStock int, blocks []StockBlock, start, end time.Time) int {
	return totalStock - MaxDailyReserved(blocks, start, end)
}

// BuildBlocks mints one unit block per rented unit for every cart line.
func BuildBlocks(orderID string, items []OrderItem, start, end time.Time, now time.Time) []StockBlock {
	var blocks []StockBlock
	for _, it := range items {
		for i := 0; i < it.Qty; i++ {
			blocks = append(blocks, StockBlock{
				ID:        uuid.NewString(),
				ProductID: it.ProductID,
				OrderID:   orderID,
				StartDate: Day(start),
				EndDate:   Day(end),
				Quantity:  1,
				CreatedAt: now,
			})
		}
	}
	return blocks
}

// ValidateRange rejects reversed and zero-length day ranges.
func ValidateRange(start, end time.Time) error {
	s, e := Day(start), Day(end)
	if e.Before(s) {
		return ErrInvalidDateRange
	}
	if !s.Before(e) {
		return ErrEmptyDateRange
	}
	return nil
}
