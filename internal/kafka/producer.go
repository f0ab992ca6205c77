package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
)

type Producer struct {
	w       *kafka.Writer
	inbox   chan kafka.Message
	quit    chan struct{}
	closeCh chan struct{}
}

func NewProducer(brokers []string, topic string, buf int) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        true, // fire-and-forget for throughput; errors are logged in the loop
		},
		inbox:   make(chan kafka.Message, buf),
		quit:    make(chan struct{}),
		closeCh: make(chan struct{}),
	}
}

func (p *Producer) Start(ctx context.Context) {
	go func() {
		logger := log.WithFields(log.Fields{"component": "kafka-producer", "topic": p.w.Topic})
		defer func() {
			_ = p.w.Close()
			close(p.closeCh)
		}()
		for {
			select {
			case <-ctx.Done():
				p.drain(logger)
				return
			case <-p.quit:
				p.drain(logger)
				return
			case m := <-p.inbox:
				p.write(logger, m)
			}
		}
	}()
}

// drain flushes whatever is still buffered before the writer closes.
func (p *Producer) drain(logger *log.Entry) {
	for {
		select {
		case m := <-p.inbox:
			p.write(logger, m)
		default:
			return
		}
	}
}

func (p *Producer) write(logger *log.Entry, m kafka.Message) {
	if err := p.w.WriteMessages(context.Background(), m); err != nil {
		logger.WithError(err).Warn("write message")
	}
}

func (p *Producer) Publish(key, value []byte, headers ...kafka.Header) {
	p.inbox <- kafka.Message{
		Key:     key,
		Value:   value,
		Time:    time.Now(),
		Headers: headers,
	}
}

// Close tells the loop to flush the remaining messages and exit.
func (p *Producer) Close() { close(p.quit) }

// WaitClosed blocks until the loop goroutine has drained.
func (p *Producer) WaitClosed() { <-p.closeCh }
