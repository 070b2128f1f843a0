//go:build integration

package containers

import (
	"context"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/testcontainers/testcontainers-go"
	tcrabbitmq "github.com/testcontainers/testcontainers-go/modules/rabbitmq"
)

// RabbitMQContainer wraps a testcontainers RabbitMQ instance.
type RabbitMQContainer struct {
	Container testcontainers.Container
	URL       string
	Conn      *amqp.Connection
}

// NewRabbitMQContainer starts a new RabbitMQ container and opens a
// connection, mirroring NewRedisContainer's shape.
func NewRabbitMQContainer(t *testing.T) *RabbitMQContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcrabbitmq.Run(ctx, "rabbitmq:3.13-management-alpine")
	if err != nil {
		t.Fatalf("failed to start rabbitmq container: %v", err)
	}

	url, err := container.AmqpURL(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get rabbitmq amqp url: %v", err)
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to dial rabbitmq: %v", err)
	}

	return &RabbitMQContainer{Container: container, URL: url, Conn: conn}
}
