package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"multi-tenant-crm/internal/metrics"
	"multi-tenant-crm/internal/model"
)

const leadColumns = `id, tenant_id, name, email, phone, alternate_phone, status, source, priority,
	assigned_to, custom_fields, notes, created_at, updated_at, deleted_at`

const defaultPageSize = 50

func scanLead(row rowScanner) (*model.Lead, error) {
	var l model.Lead
	var assigned uuid.NullUUID
	var custom []byte
	if err := row.Scan(&l.ID, &l.TenantID, &l.Name, &l.Email, &l.Phone, &l.AlternatePhone,
		&l.Status, &l.Source, &l.Priority, &assigned, &custom, &l.Notes,
		&l.CreatedAt, &l.UpdatedAt, &l.DeletedAt); err != nil {
		return nil, err
	}
	if assigned.Valid {
		l.AssignedTo = &assigned.UUID
	}
	l.CustomFields = custom
	return &l, nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func (s *Storage) ListLeads(ctx context.Context, scope Scope, f model.LeadFilter) ([]model.Lead, error) {
	if err := scope.check(); err != nil {
		return nil, err
	}
	defer metrics.TrackDBOperation("list_leads")()

	query := `SELECT ` + leadColumns + ` FROM leads WHERE tenant_id = $1 AND deleted_at IS NULL`
	args := []any{scope.TenantID()}
	add := func(cond string, v any) {
		args = append(args, v)
		query += fmt.Sprintf(" AND "+cond, len(args))
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.Source != "" {
		add("source = $%d", f.Source)
	}
	if f.AssignedTo != nil {
		add("assigned_to = $%d", *f.AssignedTo)
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		args = append(args, "%"+q+"%")
		n := len(args)
		query += fmt.Sprintf(" AND (name ILIKE $%d OR email ILIKE $%d OR phone ILIKE $%d)", n, n, n)
	}
	query += " ORDER BY created_at DESC"
	query, args = paginate(query, args, f.Limit, f.Offset)

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	leads := []model.Lead{}
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, *l)
	}
	return leads, rows.Err()
}

func (s *Storage) GetLead(ctx context.Context, scope Scope, id uuid.UUID) (*model.Lead, error) {
	if err := scope.check(); err != nil {
		return nil, err
	}
	defer metrics.TrackDBOperation("get_lead")()

	row := s.DB.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`, scope.TenantID(), id)
	l, err := scanLead(row)
	if err != nil {
		return nil, mapError(err)
	}
	return l, nil
}

// CreateLead inserts l under the scope's tenant, whatever l.TenantID says.
func (s *Storage) CreateLead(ctx context.Context, scope Scope, l *model.Lead) error {
	if err := scope.check(); err != nil {
		return err
	}
	defer metrics.TrackDBOperation("create_lead")()

	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	l.TenantID = scope.TenantID()

	err := s.DB.QueryRowContext(ctx, `
		INSERT INTO leads (id, tenant_id, name, email, phone, alternate_phone, status, source,
			priority, assigned_to, custom_fields, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at`,
		l.ID, l.TenantID, l.Name, l.Email, l.Phone, l.AlternatePhone, l.Status, l.Source,
		l.Priority, nullUUID(l.AssignedTo), jsonOrEmpty(l.CustomFields), l.Notes,
	).Scan(&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create lead: %w", mapError(err))
	}
	return nil
}

func (s *Storage) UpdateLead(ctx context.Context, scope Scope, l *model.Lead) error {
	if err := scope.check(); err != nil {
		return err
	}
	defer metrics.TrackDBOperation("update_lead")()

	l.TenantID = scope.TenantID()
	err := s.DB.QueryRowContext(ctx, `
		UPDATE leads SET
			name = $3, email = $4, phone = $5, alternate_phone = $6, status = $7, source = $8,
			priority = $9, assigned_to = $10, custom_fields = $11, notes = $12, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
		RETURNING created_at, updated_at`,
		l.TenantID, l.ID, l.Name, l.Email, l.Phone, l.AlternatePhone, l.Status, l.Source,
		l.Priority, nullUUID(l.AssignedTo), jsonOrEmpty(l.CustomFields), l.Notes,
	).Scan(&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return mapError(err)
	}
	return nil
}

func (s *Storage) SoftDeleteLead(ctx context.Context, scope Scope, id uuid.UUID) error {
	if err := scope.check(); err != nil {
		return err
	}
	defer metrics.TrackDBOperation("delete_lead")()

	res, err := s.DB.ExecContext(ctx, `UPDATE leads SET deleted_at = NOW(), updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`, scope.TenantID(), id)
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	return rowsAffected(res)
}

func paginate(query string, args []any, limit, offset int) (string, []any) {
	if limit <= 0 || limit > 500 {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	return query, args
}
