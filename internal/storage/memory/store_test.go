package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rentkit/rentalcore/internal/rental"
)

var (
	blockStart = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	blockEnd   = time.Date(2026, 8, 8, 0, 0, 0, 0, time.UTC)
)

func seedOrder(t *testing.T, st *Store, id string, status rental.Status) {
	t.Helper()
	now := time.Date(2026, 7, 20, 0, 0, 0, 0, time.UTC)
	order := rental.Order{
		ID: id, CustomerName: "Ada", Status: rental.StatusPending,
		RentalStart: blockStart, RentalEnd: blockEnd,
		TotalPrice: decimal.NewFromInt(30), CreatedAt: now, UpdatedAt: now,
	}
	items := []rental.OrderItem{{
		ID: id + "-i", OrderID: id, ProductID: "chair", Qty: 1,
		UnitPrice: decimal.NewFromInt(30),
	}}
	blocks := rental.BuildBlocks(id, items, blockStart, blockEnd, now)
	if err := st.CreateOrder(context.Background(), order, items, blocks); err != nil {
		t.Fatal(err)
	}
	if status != rental.StatusPending {
		order.Status = status
		if err := st.SetStatus(context.Background(), order, nil); err != nil {
			t.Fatal(err)
		}
	}
}

func TestOverlappingBlocksSkipsCancelledOrders(t *testing.T) {
	st := NewStore()
	seedOrder(t, st, "o-live", rental.StatusPending)
	seedOrder(t, st, "o-dead", rental.StatusCancelled)

	blocks, err := st.OverlappingBlocks(context.Background(), "chair", blockStart, blockEnd)
	if err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	if blocks[0].OrderID != "o-live" {
		t.Fatalf("block from order %s", blocks[0].OrderID)
	}
}

func TestReservedByProductOnSkipsCancelledOrders(t *testing.T) {
	st := NewStore()
	seedOrder(t, st, "o-live", rental.StatusPending)
	seedOrder(t, st, "o-dead", rental.StatusCancelled)

	reserved, err := st.ReservedByProductOn(context.Background(), blockStart.AddDate(0, 0, 3))
	if err != nil {
		t.Fatal(err)
	}
	if reserved["chair"] != 1 {
		t.Fatalf("reserved = %d, want 1", reserved["chair"])
	}
}

func TestOrdersCoveringSkipsResolvedOrders(t *testing.T) {
	st := NewStore()
	seedOrder(t, st, "o-pending", rental.StatusPending)
	seedOrder(t, st, "o-done", rental.StatusCompleted)
	seedOrder(t, st, "o-dead", rental.StatusCancelled)

	refs, err := st.OrdersCovering(context.Background(), "chair", blockStart)
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 1 || refs[0].OrderID != "o-pending" {
		t.Fatalf("refs = %+v", refs)
	}
}

func TestExternalRefUniqueness(t *testing.T) {
	st := NewStore()
	now := time.Now().UTC()
	order := rental.Order{ID: "o1", ExternalRef: "web-1", Status: rental.StatusPending, CreatedAt: now, UpdatedAt: now}
	if err := st.CreateOrder(context.Background(), order, nil, nil); err != nil {
		t.Fatal(err)
	}

	dup := rental.Order{ID: "o2", ExternalRef: "web-1", Status: rental.StatusPending, CreatedAt: now, UpdatedAt: now}
	if err := st.CreateOrder(context.Background(), dup, nil, nil); err != rental.ErrDuplicateOrder {
		t.Fatalf("err = %v, want ErrDuplicateOrder", err)
	}

	got, err := st.GetOrderByRef(context.Background(), "web-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "o1" {
		t.Fatalf("ref resolves to %s", got.ID)
	}
}
