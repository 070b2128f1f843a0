package broker

import (
	"context"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler processes one message body. A returned error routes the message
// through retry-via-republish (incrementing its retry-count header and
// recording the error's message on x-last-error) until maxRetries is
// exceeded, at which point it is nacked without requeue so the broker's own
// dead-letter-exchange binding routes it to the DLQ.
type Handler func(ctx context.Context, body []byte) error

// Consume begins delivering messages from the queue to handler, blocking
// until ctx is cancelled or the delivery channel closes. Exactly one
// in-flight handler call runs at a time per Consume call; run multiple
// worker processes for horizontal scaling, per spec.md §4.7's "N processes
// scale horizontally."
func (c *Client) Consume(ctx context.Context, handler Handler, logger *slog.Logger) error {
	deliveries, err := c.ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			c.handleDelivery(ctx, d, handler, logger)
		}
	}
}

func (c *Client) handleDelivery(ctx context.Context, d amqp.Delivery, handler Handler, logger *slog.Logger) {
	err := handler(ctx, d.Body)
	if err == nil {
		if ackErr := d.Ack(false); ackErr != nil && logger != nil {
			logger.WarnContext(ctx, "broker: ack failed", "error", ackErr)
		}
		return
	}

	retries := retryCount(d.Headers)
	if retries >= c.maxRetries {
		if logger != nil {
			logger.WarnContext(ctx, "broker: retries exhausted, routing to dead-letter queue",
				"error", err, "retries", retries)
		}
		if nackErr := d.Nack(false, false); nackErr != nil && logger != nil {
			logger.WarnContext(ctx, "broker: nack failed", "error", nackErr)
		}
		return
	}

	if republishErr := c.republishWithRetry(ctx, d, retries+1, err); republishErr != nil && logger != nil {
		logger.WarnContext(ctx, "broker: republish failed", "error", republishErr)
	}
	if ackErr := d.Ack(false); ackErr != nil && logger != nil {
		logger.WarnContext(ctx, "broker: ack after republish failed", "error", ackErr)
	}
}

func (c *Client) republishWithRetry(ctx context.Context, d amqp.Delivery, retries int, handlerErr error) error {
	headers := amqp.Table{}
	for k, v := range d.Headers {
		headers[k] = v
	}
	headers[retryCountHeader] = int32(retries)
	headers[lastErrorHeader] = handlerErr.Error()
	return c.ch.PublishWithContext(ctx, "", c.queue, false, false, amqp.Publishing{
		ContentType:  d.ContentType,
		DeliveryMode: amqp.Persistent,
		Headers:      headers,
		Body:         d.Body,
	})
}

func retryCount(headers amqp.Table) int {
	v, ok := headers[retryCountHeader]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int32:
		return int(n)
	case int64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}
