package rental_test

import (
	"testing"
	"time"

	"github.com/rentkit/rentalcore/internal/rental"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to rental.Status }{
		{rental.StatusPending, rental.StatusConfirmed},
		{rental.StatusPending, rental.StatusCancelled},
		{rental.StatusConfirmed, rental.StatusDelivered},
		{rental.StatusConfirmed, rental.StatusCancelled},
		{rental.StatusDelivered, rental.StatusCompleted},
		{rental.StatusDelivered, rental.StatusCancelled},
	}
	for _, tc := range allowed {
		if !rental.CanTransition(tc.from, tc.to) {
			t.Errorf("%s -> %s should be allowed", tc.from, tc.to)
		}
	}

	forbidden := []struct{ from, to rental.Status }{
		{rental.StatusPending, rental.StatusDelivered},
		{rental.StatusPending, rental.StatusCompleted},
		{rental.StatusConfirmed, rental.StatusPending},
		{rental.StatusConfirmed, rental.StatusCompleted},
		{rental.StatusDelivered, rental.StatusConfirmed},
		{rental.StatusCompleted, rental.StatusCancelled},
		{rental.StatusCancelled, rental.StatusPending},
		{rental.StatusCancelled, rental.StatusConfirmed},
	}
	for _, tc := range forbidden {
		if rental.CanTransition(tc.from, tc.to) {
			t.Errorf("%s -> %s should be forbidden", tc.from, tc.to)
		}
	}
}

func TestTerminalStates(t *testing.T) {
	for s, terminal := range map[rental.Status]bool{
		rental.StatusPending:   false,
		rental.StatusConfirmed: false,
		rental.StatusDelivered: false,
		rental.StatusCompleted: true,
		rental.StatusCancelled: true,
	} {
		if s.Terminal() != terminal {
			t.Errorf("%s.Terminal() = %v, want %v", s, s.Terminal(), terminal)
		}
	}
}

func TestStampSetsMatchingTimestamp(t *testing.T) {
	at := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

	o := rental.Order{Status: rental.StatusPending}
	o.Stamp(rental.StatusConfirmed, at)
	if o.Status != rental.StatusConfirmed || o.ConfirmedAt == nil || !o.ConfirmedAt.Equal(at) {
		t.Fatalf("confirm stamp missing: %+v", o)
	}
	if o.DeliveredAt != nil || o.CompletedAt != nil || o.CancelledAt != nil {
		t.Fatal("only the matching timestamp may be set")
	}

	o.Stamp(rental.StatusCancelled, at.Add(time.Hour))
	if o.CancelledAt == nil || !o.CancelledAt.Equal(at.Add(time.Hour)) {
		t.Fatal("cancel stamp missing")
	}
	if !o.UpdatedAt.Equal(at.Add(time.Hour)) {
		t.Fatal("updated_at must follow the stamp")
	}
}

func TestStatusValid(t *testing.T) {
	if rental.Status("SHIPPED").Valid() {
		t.Fatal("unknown status must be invalid")
	}
	if !rental.StatusDelivered.Valid() {
		t.Fatal("known status must be valid")
	}
}
