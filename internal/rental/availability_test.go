package rental_test

import (
	"testing"
	"time"

	"github.com/rentkit/rentalcore/internal/rental"
)

func unitBlocks(productID, orderID string, n int, start, end time.Time) []rental.StockBlock {
	var out []rental.StockBlock
	for i := 0; i < n; i++ {
		out = append(out, rental.StockBlock{
			ProductID: productID,
			OrderID:   orderID,
			StartDate: start,
			EndDate:   end,
			Quantity:  1,
		})
	}
	return out
}

func TestAvailableUnitsSubtractsEachReservation(t *testing.T) {
	start := date(2026, 7, 1)
	end := date(2026, 7, 8)

	var blocks []rental.StockBlock
	for _, orderID := range []string{"o1", "o2", "o3"} {
		blocks = append(blocks, unitBlocks("p1", orderID, 2, start, end)...)
	}

	if got := rental.AvailableUnits(10, blocks, start, end); got != 4 {
		t.Fatalf("available = %d, want 10 - 3*2 = 4", got)
	}
}

func TestAvailableUnitsBindsOnWorstDay(t *testing.T) {
	// two reservations overlap only on the 5th..7th
	a := unitBlocks("p1", "o1", 2, date(2026, 7, 1), date(2026, 7, 7))
	b := unitBlocks("p1", "o2", 3, date(2026, 7, 5), date(2026, 7, 12))
	blocks := append(a, b...)

	if got := rental.AvailableUnits(5, blocks, date(2026, 7, 1), date(2026, 7, 12)); got != 0 {
		t.Fatalf("available = %d, want 0 (worst day holds 5)", got)
	}
	// a window before the overlap only sees the first reservation
	if got := rental.AvailableUnits(5, blocks, date(2026, 7, 1), date(2026, 7, 5)); got != 3 {
		t.Fatalf("available = %d, want 3", got)
	}
}

func TestAvailableUnitsGoesNegativeOnOversell(t *testing.T) {
	start := date(2026, 7, 1)
	end := date(2026, 7, 8)
	blocks := append(
		unitBlocks("p1", "o1", 3, start, end),
		unitBlocks("p1", "o2", 3, start, end)...,
	)

	// not clamped: -1 quantifies the shortfall
	if got := rental.AvailableUnits(5, blocks, start, end); got != -1 {
		t.Fatalf("available = %d, want -1", got)
	}
}

func TestBlockOccupiesEndpointsInclusive(t *testing.T) {
	b := rental.StockBlock{StartDate: date(2026, 7, 1), EndDate: date(2026, 7, 8), Quantity: 1}

	if !b.Occupies(date(2026, 7, 1)) {
		t.Fatal("start date must be occupied")
	}
	if !b.Occupies(date(2026, 7, 8)) {
		t.Fatal("end date must be occupied")
	}
	if b.Occupies(date(2026, 7, 9)) {
		t.Fatal("day after return must be free")
	}
	if b.Occupies(date(2026, 6, 30)) {
		t.Fatal("day before pickup must be free")
	}
}

func TestDayNormalizesToMidnightUTC(t *testing.T) {
	in := time.Date(2026, 7, 3, 17, 45, 12, 999, time.UTC)
	if got := rental.Day(in); !got.Equal(date(2026, 7, 3)) {
		t.Fatalf("Day(%v) = %v", in, got)
	}
}

func TestValidateRange(t *testing.T) {
	cases := []struct {
		name       string
		start, end time.Time
		wantErr    error
	}{
		{"ok", date(2026, 7, 1), date(2026, 7, 8), nil},
		{"zero length", date(2026, 7, 1), date(2026, 7, 1), rental.ErrEmptyDateRange},
		{"reversed", date(2026, 7, 8), date(2026, 7, 1), rental.ErrInvalidDateRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := rental.ValidateRange(tc.start, tc.end); err != tc.wantErr {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestBuildBlocksMintsOnePerUnit(t *testing.T) {
	items := []rental.OrderItem{
		{OrderID: "o1", ProductID: "p1", Qty: 3},
		{OrderID: "o1", ProductID: "p2", Qty: 1},
	}
	blocks := rental.BuildBlocks("o1", items, date(2026, 7, 1), date(2026, 7, 8), time.Now().UTC())

	if len(blocks) != 4 {
		t.Fatalf("blocks = %d, want 4", len(blocks))
	}
	for _, b := range blocks {
		if b.Quantity != 1 {
			t.Fatalf("block quantity = %d, want 1", b.Quantity)
		}
		if b.OrderID != "o1" {
			t.Fatalf("block order = %s", b.OrderID)
		}
	}
}
