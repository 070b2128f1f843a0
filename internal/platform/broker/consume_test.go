package broker

import (
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
)

func TestRetryCount_AbsentHeaderIsZero(t *testing.T) {
	assert.Equal(t, 0, retryCount(amqp.Table{}))
}

func TestRetryCount_ReadsInt32Header(t *testing.T) {
	assert.Equal(t, 2, retryCount(amqp.Table{retryCountHeader: int32(2)}))
}

func TestRetryCount_ReadsInt64Header(t *testing.T) {
	assert.Equal(t, 5, retryCount(amqp.Table{retryCountHeader: int64(5)}))
}
