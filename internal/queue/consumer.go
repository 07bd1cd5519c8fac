package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/cafebooking/internal/logger"
	amqp "github.com/rabbitmq/amqp091-go"
)

const maxReconnectBackoff = 30 * time.Second

type Consumer struct {
	url   string
	queue string
}

func NewConsumer(url, queue string) *Consumer {
	return &Consumer{url: url, queue: queue}
}

// Consume delivers message bodies to handler until ctx is cancelled,
// reconnecting with backoff when the broker goes away. Messages the handler
// rejects are dropped without requeue.
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, []byte) error) error {
	backoff := time.Second
	for {
		err := c.consumeOnce(ctx, handler)
		if ctx.Err() != nil {
			return nil
		}
		logger.Log.WithError(err).WithField("retry_in", backoff.String()).Warn("rabbitmq consumer disconnected")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxReconnectBackoff)
	}
}

func (c *Consumer) consumeOnce(ctx context.Context, handler func(context.Context, []byte) error) error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel open: %w", err)
	}
	defer ch.Close()

	if err := ch.Qos(50, 0, false); err != nil {
		logger.Log.WithError(err).Warn("rabbitmq set QoS failed")
	}
	if _, err := declare(ch, c.queue); err != nil {
		return err
	}

	msgs, err := ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("rabbitmq consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := handler(ctx, d.Body); err != nil {
				logger.Log.WithError(err).WithField("message_id", d.MessageId).Error("failed to handle rabbitmq message")
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}
