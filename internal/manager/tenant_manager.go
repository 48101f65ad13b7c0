// internal/manager/tenant_manager.go
package manager

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"multi-tenant-crm/internal/consumer"
	"multi-tenant-crm/internal/messaging"
	"multi-tenant-crm/internal/metrics"
	"multi-tenant-crm/internal/model"
	"multi-tenant-crm/internal/storage"
)

// Store is the slice of storage the manager drives.
type Store interface {
	UniqueSlug(ctx context.Context, base string) (string, error)
	CreateTenant(ctx context.Context, t *model.Tenant) error
	SoftDeleteTenant(ctx context.Context, id uuid.UUID) error
	UpsertProfile(ctx context.Context, p *model.Profile) error
	SeedDefaultSettings(ctx context.Context, scope storage.Scope) error
	EnsurePartition(ctx context.Context, tenantID uuid.UUID) error
	InsertActivity(ctx context.Context, scope storage.Scope, a *model.Activity) error
}

// Queues manages per-tenant queues and publishing.
type Queues interface {
	DeclareQueue(tenantID string) error
	DeleteQueue(tenantID string) error
	PublishChange(ev model.ChangeEvent) error
}

type stopper interface {
	Stop()
}

type startFunc func(tenantID string, handler consumer.MessageHandlerFunc) (stopper, error)

type TenantManager struct {
	queues  Queues
	storage Store
	users   IdentityCreator
	logger  *zap.Logger
	start   startFunc

	Limits Limits

	mu        sync.RWMutex
	consumers map[uuid.UUID]stopper
}

// Limits are the subscription limits given to a new company.
type Limits struct {
	MaxUsers      int
	MaxProperties int
}

func NewTenantManager(
	rabbitConn *amqp.Connection,
	rabbit *messaging.RabbitClient,
	store Store,
	users IdentityCreator,
	logger *zap.Logger,
) *TenantManager {
	tm := newTenantManager(rabbit, store, users, logger)
	tm.start = func(tenantID string, h consumer.MessageHandlerFunc) (stopper, error) {
		return consumer.StartConsumer(rabbitConn, tenantID, h, logger)
	}
	return tm
}

func newTenantManager(queues Queues, store Store, users IdentityCreator, logger *zap.Logger) *TenantManager {
	return &TenantManager{
		queues:    queues,
		storage:   store,
		users:     users,
		logger:    logger,
		Limits:    Limits{MaxUsers: 5, MaxProperties: 100},
		consumers: make(map[uuid.UUID]stopper),
	}
}

// AddTenant creates the activity partition and change queue, then spawns
// the consumer. Calling it for a running tenant is a no-op.
func (tm *TenantManager) AddTenant(ctx context.Context, tenantID uuid.UUID) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if _, exists := tm.consumers[tenantID]; exists {
		return nil
	}

	if err := tm.storage.EnsurePartition(ctx, tenantID); err != nil {
		return err
	}
	if err := tm.queues.DeclareQueue(tenantID.String()); err != nil {
		return err
	}

	c, err := tm.start(tenantID.String(), tm.handleMessage)
	if err != nil {
		return err
	}
	tm.consumers[tenantID] = c

	tm.logger.Info("tenant stream started", zap.String("tenant_id", tenantID.String()))
	return nil
}

// RemoveTenant stops the consumer and deletes the change queue
func (tm *TenantManager) RemoveTenant(tenantID uuid.UUID) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	c, exists := tm.consumers[tenantID]
	if !exists {
		return
	}
	c.Stop()
	delete(tm.consumers, tenantID)

	if err := tm.queues.DeleteQueue(tenantID.String()); err != nil {
		tm.logger.Warn("failed to delete queue", zap.String("tenant_id", tenantID.String()), zap.Error(err))
	}
	tm.logger.Info("tenant stream stopped", zap.String("tenant_id", tenantID.String()))
}

// ShutdownAll stops every tenant consumer
func (tm *TenantManager) ShutdownAll() {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	for _, c := range tm.consumers {
		c.Stop()
	}
	tm.consumers = make(map[uuid.UUID]stopper)
}

// ListTenantIDs returns all currently running tenant ids
func (tm *TenantManager) ListTenantIDs() []string {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	ids := make([]string, 0, len(tm.consumers))
	for id := range tm.consumers {
		ids = append(ids, id.String())
	}
	return ids
}

// Notify publishes a change event. A failed publish is logged and never
// fails the write that caused it.
func (tm *TenantManager) Notify(ctx context.Context, ev model.ChangeEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	if err := tm.queues.PublishChange(ev); err != nil {
		tm.logger.Warn("failed to publish change",
			zap.String("tenant_id", ev.TenantID.String()),
			zap.String("table", ev.Table),
			zap.String("action", ev.Action),
			zap.Error(err))
	}
}

// handleMessage is the consumer callback; undecodable events go to the DLQ.
func (tm *TenantManager) handleMessage(tenantID string, msg amqp.Delivery) {
	if err := tm.storeEvent(context.Background(), tenantID, msg.Body); err != nil {
		tm.logger.Warn("rejecting change event", zap.String("tenant_id", tenantID), zap.Error(err))
		metrics.ActivityProcessed.WithLabelValues(tenantID, "rejected").Inc()
		_ = msg.Nack(false, false)
		return
	}
	metrics.ActivityProcessed.WithLabelValues(tenantID, "stored").Inc()
	_ = msg.Ack(false)
}

func (tm *TenantManager) storeEvent(ctx context.Context, tenantID string, body []byte) error {
	id, err := uuid.Parse(tenantID)
	if err != nil {
		return fmt.Errorf("invalid tenant id %q: %w", tenantID, err)
	}
	var ev model.ChangeEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("decode change event: %w", err)
	}
	if ev.TenantID != id {
		return fmt.Errorf("event for tenant %s arrived on queue of %s", ev.TenantID, id)
	}

	scope, err := storage.ScopeFor(id)
	if err != nil {
		return err
	}
	return tm.storage.InsertActivity(ctx, scope, &model.Activity{
		TenantID:  id,
		Table:     ev.Table,
		Action:    ev.Action,
		RowID:     ev.RowID,
		ActorID:   ev.ActorID,
		Payload:   ev.Payload,
		CreatedAt: ev.At,
	})
}
