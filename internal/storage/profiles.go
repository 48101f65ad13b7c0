package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"multi-tenant-crm/internal/metrics"
	"multi-tenant-crm/internal/model"
)

const profileColumns = `id, tenant_id, email, full_name, role, is_active, created_at, updated_at, deleted_at`

func scanProfile(row rowScanner) (*model.Profile, error) {
	var p model.Profile
	if err := row.Scan(&p.ID, &p.TenantID, &p.Email, &p.FullName, &p.Role, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt, &p.DeletedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// ProfileUpdate carries the mutable profile fields; nil leaves a column unchanged.
type ProfileUpdate struct {
	FullName *string
	Role     *string
	IsActive *bool
}

// UpsertProfile creates the profile for an identity or refreshes it.
func (s *Storage) UpsertProfile(ctx context.Context, p *model.Profile) error {
	defer metrics.TrackDBOperation("upsert_profile")()

	if p.TenantID == uuid.Nil {
		return ErrNoTenant
	}
	err := s.DB.QueryRowContext(ctx, `
		INSERT INTO profiles (id, tenant_id, email, full_name, role, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			tenant_id = EXCLUDED.tenant_id,
			email = EXCLUDED.email,
			full_name = EXCLUDED.full_name,
			role = EXCLUDED.role,
			is_active = EXCLUDED.is_active,
			updated_at = NOW()
		RETURNING created_at, updated_at`,
		p.ID, p.TenantID, p.Email, p.FullName, p.Role, p.IsActive,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", mapError(err))
	}
	return nil
}

// ResolveUser loads the caller's own profile joined with its tenant. It is
// keyed by the identity id from the session, so it carries no tenant filter.
func (s *Storage) ResolveUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	defer metrics.TrackDBOperation("resolve_user")()

	var u model.User
	err := s.DB.QueryRowContext(ctx, `
		SELECT p.id, p.email, p.full_name, p.role, p.is_active, p.tenant_id, t.name
		FROM profiles p
		JOIN tenants t ON t.id = p.tenant_id
		WHERE p.id = $1
		  AND p.deleted_at IS NULL
		  AND t.deleted_at IS NULL`, id,
	).Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &u.IsActive, &u.TenantID, &u.TenantName)
	if err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

func (s *Storage) GetProfile(ctx context.Context, scope Scope, id uuid.UUID) (*model.Profile, error) {
	if err := scope.check(); err != nil {
		return nil, err
	}
	defer metrics.TrackDBOperation("get_profile")()

	row := s.DB.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`, scope.TenantID(), id)
	p, err := scanProfile(row)
	if err != nil {
		return nil, mapError(err)
	}
	return p, nil
}

func (s *Storage) ListProfiles(ctx context.Context, scope Scope) ([]model.Profile, error) {
	if err := scope.check(); err != nil {
		return nil, err
	}
	defer metrics.TrackDBOperation("list_profiles")()

	rows, err := s.DB.QueryContext(ctx, `SELECT `+profileColumns+` FROM profiles
		WHERE tenant_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC`, scope.TenantID())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProfiles(rows)
}

func (s *Storage) UpdateProfile(ctx context.Context, scope Scope, id uuid.UUID, upd ProfileUpdate) (*model.Profile, error) {
	if err := scope.check(); err != nil {
		return nil, err
	}
	defer metrics.TrackDBOperation("update_profile")()

	row := s.DB.QueryRowContext(ctx, `
		UPDATE profiles SET
			full_name = COALESCE($3, full_name),
			role = COALESCE($4, role),
			is_active = COALESCE($5, is_active),
			updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
		RETURNING `+profileColumns,
		scope.TenantID(), id, upd.FullName, upd.Role, upd.IsActive)
	p, err := scanProfile(row)
	if err != nil {
		return nil, mapError(err)
	}
	return p, nil
}

// DeactivateProfile flips is_active; profiles are never hard deleted.
func (s *Storage) DeactivateProfile(ctx context.Context, scope Scope, id uuid.UUID) error {
	if err := scope.check(); err != nil {
		return err
	}
	defer metrics.TrackDBOperation("deactivate_profile")()

	res, err := s.DB.ExecContext(ctx, `UPDATE profiles SET is_active = FALSE, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`, scope.TenantID(), id)
	if err != nil {
		return fmt.Errorf("deactivate profile: %w", err)
	}
	return rowsAffected(res)
}

// ListCompanyAdmins returns every tenant admin, newest first. Only the
// platform-wide company listing uses it.
func (s *Storage) ListCompanyAdmins(ctx context.Context) ([]model.Profile, error) {
	defer metrics.TrackDBOperation("list_company_admins")()

	rows, err := s.DB.QueryContext(ctx, `SELECT `+profileColumns+` FROM profiles
		WHERE role = 'admin' AND deleted_at IS NULL
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProfiles(rows)
}

func collectProfiles(rows interface {
	rowScanner
	Next() bool
	Err() error
}) ([]model.Profile, error) {
	profiles := []model.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}
