package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"multi-tenant-crm/internal/metrics"
	"multi-tenant-crm/internal/model"
)

func partitionName(tenantID uuid.UUID) string {
	return "activity_" + strings.ReplaceAll(tenantID.String(), "-", "_")
}

// EnsurePartition creates the tenant's activity partition if not exists
func (s *Storage) EnsurePartition(ctx context.Context, tenantID uuid.UUID) error {
	if tenantID == uuid.Nil {
		return ErrNoTenant
	}
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s PARTITION OF activity
		FOR VALUES IN ('%s')`, pq.QuoteIdentifier(partitionName(tenantID)), tenantID.String())

	if _, err := s.DB.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create partition: %w", err)
	}
	return nil
}

// InsertActivity stores a change event in the tenant's partition
func (s *Storage) InsertActivity(ctx context.Context, scope Scope, a *model.Activity) error {
	if err := scope.check(); err != nil {
		return err
	}
	defer metrics.TrackDBOperation("insert_activity")()

	if a.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		a.ID = id
	}
	a.TenantID = scope.TenantID()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	var payload any
	if len(a.Payload) > 0 {
		payload = string(a.Payload)
	}
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO activity (id, tenant_id, table_name, action, row_id, actor_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.TenantID, a.Table, a.Action, a.RowID, a.ActorID, payload, a.CreatedAt)
	return err
}

// ListActivityPaginated returns the newest events first using cursor-based
// pagination. Ids are UUIDv7, so id order is insertion order.
func (s *Storage) ListActivityPaginated(ctx context.Context, scope Scope, cursor string, limit int) ([]model.Activity, string, error) {
	if err := scope.check(); err != nil {
		return nil, "", err
	}
	defer metrics.TrackDBOperation("list_activity")()

	var cursorArg any
	if cursor != "" {
		id, err := uuid.Parse(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor: %w", err)
		}
		cursorArg = id
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, tenant_id, table_name, action, row_id, actor_id, payload, created_at
		FROM activity
		WHERE tenant_id = $1
		  AND ($2::uuid IS NULL OR id < $2::uuid)
		ORDER BY id DESC
		LIMIT $3`, scope.TenantID(), cursorArg, limit)
	if err != nil {
		return nil, "", fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	events := []model.Activity{}
	var lastID uuid.UUID
	for rows.Next() {
		var a model.Activity
		var rowID, actorID uuid.NullUUID
		var payload []byte
		if err := rows.Scan(&a.ID, &a.TenantID, &a.Table, &a.Action, &rowID, &actorID, &payload, &a.CreatedAt); err != nil {
			return nil, "", fmt.Errorf("scan failed: %w", err)
		}
		a.RowID = rowID.UUID
		a.ActorID = actorID.UUID
		a.Payload = payload
		lastID = a.ID
		events = append(events, a)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(events) == limit {
		nextCursor = lastID.String()
	}
	return events, nextCursor, nil
}
