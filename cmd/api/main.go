package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/rentkit/rentalcore/internal/config"
	"github.com/rentkit/rentalcore/internal/httpx"
	kafkax "github.com/rentkit/rentalcore/internal/kafka"
	"github.com/rentkit/rentalcore/internal/metrics"
	"github.com/rentkit/rentalcore/internal/redisx"
	"github.com/rentkit/rentalcore/internal/rental"
	"github.com/rentkit/rentalcore/internal/storage/postgres"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := log.WithField("component", "api")

	// DB
	store, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.WithError(err).Fatal("db connect")
	}
	defer store.Close()
	if err := store.EnsureSchema(ctx); err != nil {
		logger.WithError(err).Fatal("ensure schema")
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, one per topic
	orderProd := kafkax.NewProducer(cfg.KafkaBrokers, rental.TopicOrderCreated, 1024)
	orderProd.Start(ctx)
	statusProd := kafkax.NewProducer(cfg.KafkaBrokers, rental.TopicOrderStatus, 1024)
	statusProd.Start(ctx)

	// Service & handler
	svc := rental.NewService(store)
	router := httpx.NewRouter()
	rh := &httpx.RentalsHandler{
		Service:        svc,
		OrderProducer:  orderProd,
		StatusProducer: statusProd,
		Redis:          rdb,
		Metrics:        metrics.New(),
		Name:           cfg.ServiceName,
	}
	rh.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("HTTP listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("listen")
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	orderProd.Close() // flush remaining events, then close the writer
	statusProd.Close()
	cancel() // stop producer loops
	orderProd.WaitClosed()
	statusProd.WaitClosed()
}
