// Package reporter is the back-office side of the optimistic admission model:
// orders are always accepted, so shortages have to be found after the fact.
// The service recomputes the stock report whenever order traffic arrives and
// on a timer, and surfaces oversells as warnings, never as errors.
package reporter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	kafkax "github.com/rentkit/rentalcore/internal/kafka"
	"github.com/rentkit/rentalcore/internal/metrics"
	"github.com/rentkit/rentalcore/internal/redisx"
	"github.com/rentkit/rentalcore/internal/rental"
)

type Service struct {
	Rentals   *rental.Service
	Redis     *redis.Client
	Producer  *kafkax.Producer // rental.stock.oversold
	Metrics   *metrics.Metrics
	Name      string
	Threshold int
}

// HandleOrderEvent refreshes the report after any order event. Event payloads
// are not inspected beyond dedup: whatever changed, the answer is the same
// full recompute.
func (s *Service) HandleOrderEvent(ctx context.Context, m kafkago.Message) error {
	var env rental.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}

	if s.Redis != nil {
		dkey := fmt.Sprintf(redisx.KeyDedup, s.Name, env.EventID)
		if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
			return nil
		}
		_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	}

	return s.Refresh(ctx)
}

// Run refreshes on a timer so the report heals even without traffic.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := s.Refresh(ctx); err != nil {
				log.WithError(err).Warn("stock report refresh")
			}
		}
	}
}

// Refresh recomputes today's stock report, caches it, pushes gauges and
// publishes an oversold event when commitments exceed stock somewhere.
func (s *Service) Refresh(ctx context.Context) error {
	started := time.Now()
	today := rental.Day(time.Now().UTC())

	report, err := s.Rentals.StockReport(ctx, today, s.Threshold)
	if err != nil {
		return fmt.Errorf("stock report: %w", err)
	}

	if s.Metrics != nil {
		s.Metrics.ReportDuration.Observe(time.Since(started).Seconds())
		s.Metrics.OversoldProducts.Set(float64(len(report.Oversold)))
		s.Metrics.OutOfStockProducts.Set(float64(len(report.OutOfStock)))
		s.Metrics.LowStockProducts.Set(float64(len(report.LowStock)))
	}

	if s.Redis != nil {
		key := fmt.Sprintf(redisx.KeyStockReport, today.Format("2006-01-02"))
		_ = s.Redis.Set(ctx, key, string(kafkax.MustMarshal(report)), redisx.TTLStockReport).Err()
	}

	for _, p := range report.Oversold {
		// integrity warning: operators resolve this manually
		log.WithFields(log.Fields{
			"product":   p.ProductID,
			"stock":     p.TotalStock,
			"reserved":  p.Reserved,
			"shortfall": p.Shortfall,
			"orders":    len(p.Orders),
		}).Warn("product oversold")
	}

	if len(report.Oversold) > 0 && s.Producer != nil {
		s.publishOversold(today, report.Oversold)
	}
	return nil
}

func (s *Service) publishOversold(date time.Time, oversold []rental.OversoldProduct) {
	details := make([]rental.OversoldDetail, 0, len(oversold))
	for _, p := range oversold {
		details = append(details, rental.OversoldDetail{
			ProductID:  p.ProductID,
			TotalStock: p.TotalStock,
			Reserved:   p.Reserved,
			Shortfall:  p.Shortfall,
		})
	}
	ev := rental.Envelope{
		EventID:      uuid.NewString(),
		EventType:    rental.EventStockOversold,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     s.Name,
		Payload: kafkax.MustMarshal(rental.StockOversoldPayload{
			ReferenceDate: date,
			Products:      details,
		}),
	}
	s.Producer.Publish([]byte(date.Format("2006-01-02")), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(rental.EventStockOversold)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
