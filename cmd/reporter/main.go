package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/rentkit/rentalcore/internal/config"
	kafkax "github.com/rentkit/rentalcore/internal/kafka"
	"github.com/rentkit/rentalcore/internal/metrics"
	"github.com/rentkit/rentalcore/internal/redisx"
	"github.com/rentkit/rentalcore/internal/rental"
	"github.com/rentkit/rentalcore/internal/reporter"
	"github.com/rentkit/rentalcore/internal/storage/postgres"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := log.WithField("component", "reporter")

	// DB
	store, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.WithError(err).Fatal("db connect")
	}
	defer store.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Oversold events out
	prod := kafkax.NewProducer(cfg.KafkaBrokers, rental.TopicStockOversold, 256)
	prod.Start(ctx)

	svc := &reporter.Service{
		Rentals:   rental.NewService(store),
		Redis:     rdb,
		Producer:  prod,
		Metrics:   metrics.New(),
		Name:      cfg.ServiceName + "-reporter",
		Threshold: rental.DefaultLowStockThreshold,
	}

	// one consumer per order topic; any event triggers a recompute
	for _, topic := range []string{rental.TopicOrderCreated, rental.TopicOrderStatus} {
		cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.ReporterGroup, topic, cfg.ReporterWorkers)
		go func(topic string) {
			logger.WithFields(log.Fields{
				"group":   cfg.ReporterGroup,
				"topic":   topic,
				"workers": cfg.ReporterWorkers,
			}).Info("consumer started")
			if err := cons.Start(ctx, svc.HandleOrderEvent); err != nil {
				logger.WithError(err).Error("consumer exit")
				cancel()
			}
		}(topic)
	}

	// periodic recompute keeps the report fresh without traffic
	go svc.Run(ctx, cfg.ReportInterval)

	if err := svc.Refresh(ctx); err != nil {
		logger.WithError(err).Warn("initial refresh")
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down...")
	cancel()
	time.Sleep(500 * time.Millisecond)
	prod.Close()
	prod.WaitClosed()
}
