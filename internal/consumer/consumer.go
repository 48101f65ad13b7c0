// internal/consumer/consumer.go
package consumer

import (
	"fmt"

	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"multi-tenant-crm/internal/messaging"
	"multi-tenant-crm/internal/metrics"
)

type MessageHandlerFunc func(tenantID string, delivery amqp.Delivery)

// Consumer holds control channels and metadata for a running tenant consumer
type Consumer struct {
	TenantID    string
	QueueName   string
	Channel     *amqp.Channel
	StopChan    chan struct{}
	DoneChan    chan struct{}
	Handler     MessageHandlerFunc
	ConsumerTag string
	logger      *zap.Logger
}

// StartConsumer starts a goroutine that consumes change events for a tenant
func StartConsumer(conn *amqp.Connection, tenantID string, handler MessageHandlerFunc, logger *zap.Logger) (*Consumer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("tenant %s: failed to open channel: %w", tenantID, err)
	}

	queueName := messaging.QueueName(tenantID)
	consumerTag := fmt.Sprintf("consumer-%s", tenantID)

	msgs, err := ch.Consume(
		queueName,
		consumerTag,
		false, // autoAck: false to handle manually
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("tenant %s: failed to start consuming: %w", tenantID, err)
	}

	c := &Consumer{
		TenantID:    tenantID,
		QueueName:   queueName,
		Channel:     ch,
		StopChan:    make(chan struct{}),
		DoneChan:    make(chan struct{}),
		Handler:     handler,
		ConsumerTag: consumerTag,
		logger:      logger.With(zap.String("tenant_id", tenantID)),
	}

	go c.consumeLoop(msgs)

	metrics.ActiveConsumers.Inc()
	c.logger.Info("started change consumer")
	return c, nil
}

// consumeLoop processes deliveries until StopChan is closed
func (c *Consumer) consumeLoop(msgs <-chan amqp.Delivery) {
	defer close(c.DoneChan)

	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				c.logger.Warn("delivery channel closed")
				return
			}
			c.Handler(c.TenantID, msg)

		case <-c.StopChan:
			_ = c.Channel.Cancel(c.ConsumerTag, false)
			return
		}
	}
}

// Stop signals the consumer to stop and waits for cleanup
func (c *Consumer) Stop() {
	close(c.StopChan)
	<-c.DoneChan
	_ = c.Channel.Close()
	metrics.ActiveConsumers.Dec()
	c.logger.Info("stopped change consumer")
}
