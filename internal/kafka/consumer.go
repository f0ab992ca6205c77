package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
)

// Handler must return nil only when processing succeeded and the offset may
// be committed.
type Handler func(ctx context.Context, m kafka.Message) error

const workerBackoff = 200 * time.Millisecond

type Consumer struct {
	r       *kafka.Reader
	topic   string
	workers int
}

func NewConsumer(brokers []string, group, topic string, workers int) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{r: r, topic: topic, workers: workers}
}

// Start reads until ctx is cancelled, fanning messages out to the worker
// pool. Offsets are committed per message, only after the handler succeeds;
// a failed message is dropped after logging, not retried.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	logger := log.WithFields(log.Fields{"component": "kafka-consumer", "topic": c.topic})
	jobs := make(chan kafka.Message, 1024)
	errs := make(chan error, c.workers)

	for i := 0; i < c.workers; i++ {
		go c.work(ctx, h, jobs, errs)
	}

	for {
		m, err := c.r.ReadMessage(ctx)
		if err != nil {
			close(jobs)
			// quiet exit on shutdown
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		select {
		case jobs <- m:
		case <-ctx.Done():
			close(jobs)
			return nil
		}

		// non-blocking error drain so workers never deadlock
		select {
		case e := <-errs:
			logger.WithError(e).Warn("worker error")
			time.Sleep(workerBackoff)
		default:
		}
	}
}

func (c *Consumer) work(ctx context.Context, h Handler, jobs <-chan kafka.Message, errs chan<- error) {
	for m := range jobs {
		if err := h(ctx, m); err != nil {
			errs <- err
			continue
		}
		// commit on success
		if err := c.r.CommitMessages(ctx, m); err != nil {
			errs <- err
		}
	}
}
