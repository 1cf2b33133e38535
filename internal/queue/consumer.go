package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler processes one message body.  A returned error rejects the
// message without requeueing it.
type Handler func(ctx context.Context, body []byte) error

// Consumer reads the notification queues and dispatches each delivery to
// the handler registered for its queue.
type Consumer struct {
	URL      string
	Log      *slog.Logger
	Prefetch int

	handlers map[string]Handler
}

// NewConsumer returns a consumer for url (DefaultURL when empty).
func NewConsumer(url string, log *slog.Logger) *Consumer {
	if url == "" {
		url = DefaultURL
	}
	if log == nil {
		log = slog.Default()
	}
	return &Consumer{URL: url, Log: log, Prefetch: 50, handlers: map[string]Handler{}}
}

// Handle registers h for queueName.  Call before Run.
func (c *Consumer) Handle(queueName string, h Handler) {
	c.handlers[queueName] = h
}

// Run connects to RabbitMQ and consumes until ctx is cancelled.  Broker
// failures trigger a reconnect with exponential backoff capped at 30s.
func (c *Consumer) Run(ctx context.Context) error {
	if len(c.handlers) == 0 {
		return errors.New("queue consumer: no handlers registered")
	}
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Log.Warn("queue-consumer: failed to dial broker", "err", err, "retry_in", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Log.Warn("queue-consumer: consume loop ended; reconnecting", "err", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

type delivery struct {
	queue string
	amqp.Delivery
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(c.Prefetch, 0, false); err != nil {
		c.Log.Warn("queue-consumer: set QoS failed", "err", err)
	}

	merged := make(chan delivery)
	done := make(chan struct{})
	defer close(done)
	closed := make(chan struct{}, len(c.handlers))
	for name := range c.handlers {
		if err := declare(ch, name); err != nil {
			return fmt.Errorf("queue declare %s: %w", name, err)
		}
		msgs, err := ch.Consume(name, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", name, err)
		}
		go func(name string, msgs <-chan amqp.Delivery) {
			defer func() { closed <- struct{}{} }()
			for d := range msgs {
				select {
				case merged <- delivery{queue: name, Delivery: d}:
				case <-done:
					return
				}
			}
		}(name, msgs)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-closed:
			return errors.New("deliveries channel closed")
		case d := <-merged:
			c.dispatch(ctx, d)
		}
	}
}

func (c *Consumer) dispatch(ctx context.Context, d delivery) {
	h, ok := c.handlers[d.queue]
	if !ok {
		_ = d.Nack(false, false)
		return
	}
	if err := h(ctx, d.Body); err != nil {
		c.Log.Error("queue-consumer: handle message failed", "queue", d.queue, "err", err)
		_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
		return
	}
	_ = d.Ack(false)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
