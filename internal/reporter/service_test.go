package reporter_test

import (
	"context"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kafkax "github.com/rentkit/rentalcore/internal/kafka"
	"github.com/rentkit/rentalcore/internal/rental"
	"github.com/rentkit/rentalcore/internal/reporter"
	"github.com/rentkit/rentalcore/internal/storage/memory"
)

func newTestReporter(t *testing.T) (*reporter.Service, *rental.Service, *memory.Store) {
	t.Helper()

	st := memory.NewStore()
	st.SeedProduct(rental.Product{
		ID: "chair", Name: "Beach chair",
		WeeklyPrice: decimal.NewFromInt(30), TotalStock: 2, IsActive: true,
	})
	st.SetPricingConfig(rental.PricingConfig{
		WeeklyPercentIncrease: decimal.NewFromInt(10),
		MinOrderValue:         decimal.NewFromInt(50),
		AirportMinOrder:       decimal.NewFromInt(80),
		BundleDiscountPercent: decimal.NewFromInt(5),
	})
	rentals := rental.NewService(st)

	return &reporter.Service{Rentals: rentals, Name: "stock-reporter-test"}, rentals, st
}

// placeOrder books qty chairs covering today, so Refresh sees the commitment.
func placeOrder(t *testing.T, rentals *rental.Service, qty int) {
	t.Helper()
	today := rental.Day(time.Now().UTC())
	_, _, err := rentals.CreateOrder(context.Background(), rental.CreateOrderInput{
		CustomerName:  "Ada",
		DeliveryType:  rental.DeliveryStandard,
		RentalStart:   today,
		RentalEnd:     today.AddDate(0, 0, 7),
		Items:         []rental.ItemInput{{ProductID: "chair", Qty: qty}},
		TermsAccepted: true,
	})
	require.NoError(t, err)
}

func TestRefreshSurvivesOversell(t *testing.T) {
	svc, rentals, _ := newTestReporter(t)

	placeOrder(t, rentals, 2)
	placeOrder(t, rentals, 1)

	// shortfall must be reported, not returned as an error
	require.NoError(t, svc.Refresh(context.Background()))
}

func TestHandleOrderEventRefreshes(t *testing.T) {
	svc, rentals, _ := newTestReporter(t)
	placeOrder(t, rentals, 1)

	env := rental.Envelope{
		EventID:      "ev-1",
		EventType:    rental.EventOrderCreated,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     "rental-api-test",
	}
	msg := kafkago.Message{Value: kafkax.MustMarshal(env)}
	assert.NoError(t, svc.HandleOrderEvent(context.Background(), msg))
}

func TestHandleOrderEventRejectsGarbage(t *testing.T) {
	svc, _, _ := newTestReporter(t)

	msg := kafkago.Message{Value: []byte("not json")}
	assert.Error(t, svc.HandleOrderEvent(context.Background(), msg))
}
