package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"multi-tenant-crm/internal/metrics"
	"multi-tenant-crm/internal/model"
)

const propertyColumns = `id, tenant_id, name, address, city, state, zip_code, type, status, price,
	bedrooms, bathrooms, area_sqft, configuration, created_at, updated_at, deleted_at`

func scanProperty(row rowScanner) (*model.Property, error) {
	var p model.Property
	var cfg []byte
	if err := row.Scan(&p.ID, &p.TenantID, &p.Name, &p.Address, &p.City, &p.State, &p.ZipCode,
		&p.Type, &p.Status, &p.Price, &p.Bedrooms, &p.Bathrooms, &p.AreaSqft, &cfg,
		&p.CreatedAt, &p.UpdatedAt, &p.DeletedAt); err != nil {
		return nil, err
	}
	p.Configuration = cfg
	return &p, nil
}

func (s *Storage) ListProperties(ctx context.Context, scope Scope, f model.PropertyFilter) ([]model.Property, error) {
	if err := scope.check(); err != nil {
		return nil, err
	}
	defer metrics.TrackDBOperation("list_properties")()

	query := `SELECT ` + propertyColumns + ` FROM properties WHERE tenant_id = $1 AND deleted_at IS NULL`
	args := []any{scope.TenantID()}
	add := func(cond string, v any) {
		args = append(args, v)
		query += fmt.Sprintf(" AND "+cond, len(args))
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.Type != "" {
		add("type = $%d", f.Type)
	}
	if f.City != "" {
		add("city ILIKE $%d", f.City)
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		args = append(args, "%"+q+"%")
		n := len(args)
		query += fmt.Sprintf(" AND (name ILIKE $%d OR address ILIKE $%d)", n, n)
	}
	query += " ORDER BY created_at DESC"
	query, args = paginate(query, args, f.Limit, f.Offset)

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close()

	props := []model.Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		props = append(props, *p)
	}
	return props, rows.Err()
}

func (s *Storage) GetProperty(ctx context.Context, scope Scope, id uuid.UUID) (*model.Property, error) {
	if err := scope.check(); err != nil {
		return nil, err
	}
	defer metrics.TrackDBOperation("get_property")()

	row := s.DB.QueryRowContext(ctx, `SELECT `+propertyColumns+` FROM properties
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`, scope.TenantID(), id)
	p, err := scanProperty(row)
	if err != nil {
		return nil, mapError(err)
	}
	return p, nil
}

func (s *Storage) CreateProperty(ctx context.Context, scope Scope, p *model.Property) error {
	if err := scope.check(); err != nil {
		return err
	}
	defer metrics.TrackDBOperation("create_property")()

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.TenantID = scope.TenantID()

	err := s.DB.QueryRowContext(ctx, `
		INSERT INTO properties (id, tenant_id, name, address, city, state, zip_code, type, status,
			price, bedrooms, bathrooms, area_sqft, configuration)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at`,
		p.ID, p.TenantID, p.Name, p.Address, p.City, p.State, p.ZipCode, p.Type, p.Status,
		p.Price, p.Bedrooms, p.Bathrooms, p.AreaSqft, jsonOrEmpty(p.Configuration),
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create property: %w", mapError(err))
	}
	return nil
}

func (s *Storage) UpdateProperty(ctx context.Context, scope Scope, p *model.Property) error {
	if err := scope.check(); err != nil {
		return err
	}
	defer metrics.TrackDBOperation("update_property")()

	p.TenantID = scope.TenantID()
	err := s.DB.QueryRowContext(ctx, `
		UPDATE properties SET
			name = $3, address = $4, city = $5, state = $6, zip_code = $7, type = $8, status = $9,
			price = $10, bedrooms = $11, bathrooms = $12, area_sqft = $13, configuration = $14,
			updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
		RETURNING created_at, updated_at`,
		p.TenantID, p.ID, p.Name, p.Address, p.City, p.State, p.ZipCode, p.Type, p.Status,
		p.Price, p.Bedrooms, p.Bathrooms, p.AreaSqft, jsonOrEmpty(p.Configuration),
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return mapError(err)
	}
	return nil
}

func (s *Storage) SoftDeleteProperty(ctx context.Context, scope Scope, id uuid.UUID) error {
	if err := scope.check(); err != nil {
		return err
	}
	defer metrics.TrackDBOperation("delete_property")()

	res, err := s.DB.ExecContext(ctx, `UPDATE properties SET deleted_at = NOW(), updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`, scope.TenantID(), id)
	if err != nil {
		return fmt.Errorf("delete property: %w", err)
	}
	return rowsAffected(res)
}
