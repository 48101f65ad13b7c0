package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"multi-tenant-crm/internal/metrics"
	"multi-tenant-crm/internal/model"
)

const tenantColumns = `id, name, slug, subscription_plan, subscription_status,
	max_users, max_properties, settings, created_at, updated_at, deleted_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTenant(row rowScanner) (*model.Tenant, error) {
	var t model.Tenant
	var settings []byte
	if err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.SubscriptionPlan, &t.SubscriptionStatus,
		&t.MaxUsers, &t.MaxProperties, &settings, &t.CreatedAt, &t.UpdatedAt, &t.DeletedAt); err != nil {
		return nil, err
	}
	t.Settings = settings
	return &t, nil
}

func (s *Storage) CreateTenant(ctx context.Context, t *model.Tenant) error {
	defer metrics.TrackDBOperation("create_tenant")()

	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.SubscriptionPlan == "" {
		t.SubscriptionPlan = model.PlanFree
	}
	if t.SubscriptionStatus == "" {
		t.SubscriptionStatus = model.StatusTrial
	}

	err := s.DB.QueryRowContext(ctx, `
		INSERT INTO tenants (id, name, slug, subscription_plan, subscription_status, max_users, max_properties, settings)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		t.ID, t.Name, t.Slug, t.SubscriptionPlan, t.SubscriptionStatus,
		t.MaxUsers, t.MaxProperties, jsonOrEmpty(t.Settings),
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create tenant: %w", mapError(err))
	}
	return nil
}

func (s *Storage) GetTenant(ctx context.Context, id uuid.UUID) (*model.Tenant, error) {
	defer metrics.TrackDBOperation("get_tenant")()

	row := s.DB.QueryRowContext(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE id = $1 AND deleted_at IS NULL`, id)
	t, err := scanTenant(row)
	if err != nil {
		return nil, mapError(err)
	}
	return t, nil
}

// SoftDeleteTenant stamps deleted_at; rows are never removed.
func (s *Storage) SoftDeleteTenant(ctx context.Context, id uuid.UUID) error {
	defer metrics.TrackDBOperation("delete_tenant")()

	res, err := s.DB.ExecContext(ctx,
		`UPDATE tenants SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("delete tenant: %w", err)
	}
	return rowsAffected(res)
}

func (s *Storage) ListActiveTenants(ctx context.Context) ([]model.Tenant, error) {
	defer metrics.TrackDBOperation("list_tenants")()

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE deleted_at IS NULL ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []model.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, *t)
	}
	return tenants, rows.Err()
}

// UniqueSlug returns base, or base with the first free numeric suffix.
func (s *Storage) UniqueSlug(ctx context.Context, base string) (string, error) {
	candidate := base
	for i := 2; i < 100; i++ {
		var taken bool
		err := s.DB.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM tenants WHERE slug = $1)`, candidate).Scan(&taken)
		if err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return base + "-" + uuid.NewString()[:8], nil
}
