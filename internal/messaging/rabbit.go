// internal/messaging/rabbit.go
package messaging

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"multi-tenant-crm/internal/metrics"
	"multi-tenant-crm/internal/model"
)

func QueueName(tenantID string) string {
	return fmt.Sprintf("tenant_%s_changes", tenantID)
}

func DLQName(tenantID string) string {
	return fmt.Sprintf("tenant_%s_changes_dlq", tenantID)
}

type RabbitClient struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	URL     string
	logger  *zap.Logger

	// amqp channels are not safe for concurrent publishing
	mu sync.Mutex
}

func NewRabbitClient(url string, logger *zap.Logger) (*RabbitClient, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	return &RabbitClient{
		conn:    conn,
		channel: ch,
		URL:     url,
		logger:  logger,
	}, nil
}

func (r *RabbitClient) GetConnection() *amqp.Connection {
	return r.conn
}

// DeclareQueue creates the tenant's durable change queue and its DLQ
func (r *RabbitClient) DeclareQueue(tenantID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	dlqName := DLQName(tenantID)
	if _, err := r.channel.QueueDeclare(dlqName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}

	args := amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": dlqName,
	}
	if _, err := r.channel.QueueDeclare(QueueName(tenantID), true, false, false, false, args); err != nil {
		return fmt.Errorf("declare change queue: %w", err)
	}

	r.logger.Debug("queues declared", zap.String("tenant_id", tenantID))
	return nil
}

// DeleteQueue drops the tenant's change queue. The DLQ is kept for inspection.
func (r *RabbitClient) DeleteQueue(tenantID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.channel.QueueDelete(QueueName(tenantID), false, false, false); err != nil {
		return fmt.Errorf("delete queue: %w", err)
	}
	return nil
}

// PublishChange sends a change event to its tenant's queue
func (r *RabbitClient) PublishChange(ev model.ChangeEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode change event: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	queueName := QueueName(ev.TenantID.String())
	err = r.channel.Publish(
		"",        // default exchange
		queueName, // routing key (queue name)
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    ev.At,
			Type:         ev.Table + "." + ev.Action,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to queue %s: %w", queueName, err)
	}
	return nil
}

// Close cleans up connection and channel
func (r *RabbitClient) Close() error {
	if err := r.channel.Close(); err != nil {
		return err
	}
	return r.conn.Close()
}

func (r *RabbitClient) UpdateQueueDepth(tenantID string) {
	r.mu.Lock()
	q, err := r.channel.QueueInspect(QueueName(tenantID))
	r.mu.Unlock()
	if err != nil {
		r.logger.Warn("failed to inspect queue", zap.String("tenant_id", tenantID), zap.Error(err))
		return
	}

	metrics.QueueDepth.WithLabelValues(tenantID).Set(float64(q.Messages))
}
