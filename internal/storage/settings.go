package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"multi-tenant-crm/internal/metrics"
	"multi-tenant-crm/internal/model"
)

// DefaultSettings seeds every new tenant.
var DefaultSettings = []model.Setting{
	{Type: model.SettingStatus, Name: "New", Color: "#3b82f6"},
	{Type: model.SettingStatus, Name: "Contacted", Color: "#8b5cf6"},
	{Type: model.SettingStatus, Name: "Qualified", Color: "#06b6d4"},
	{Type: model.SettingStatus, Name: "Site Visit", Color: "#f59e0b"},
	{Type: model.SettingStatus, Name: "Negotiation", Color: "#f97316"},
	{Type: model.SettingStatus, Name: "Won", Color: "#22c55e"},
	{Type: model.SettingStatus, Name: "Lost", Color: "#ef4444"},
	{Type: model.SettingSource, Name: "Website", Color: "#0ea5e9"},
	{Type: model.SettingSource, Name: "Referral", Color: "#14b8a6"},
	{Type: model.SettingSource, Name: "Social Media", Color: "#a855f7"},
	{Type: model.SettingSource, Name: "Walk-in", Color: "#84cc16"},
	{Type: model.SettingSource, Name: "Cold Call", Color: "#64748b"},
	{Type: model.SettingCategory, Name: "Residential", Color: "#10b981"},
	{Type: model.SettingCategory, Name: "Commercial", Color: "#6366f1"},
	{Type: model.SettingTeam, Name: "Sales", Color: "#f43f5e"},
}

const settingColumns = `id, tenant_id, type, name, color, is_active, sort_order`

func scanSetting(row rowScanner) (*model.Setting, error) {
	var st model.Setting
	if err := row.Scan(&st.ID, &st.TenantID, &st.Type, &st.Name, &st.Color, &st.IsActive, &st.Order); err != nil {
		return nil, err
	}
	return &st, nil
}

// ListSettings lists one taxonomy, or all of them when typ is empty.
func (s *Storage) ListSettings(ctx context.Context, scope Scope, typ string, includeInactive bool) ([]model.Setting, error) {
	if err := scope.check(); err != nil {
		return nil, err
	}
	defer metrics.TrackDBOperation("list_settings")()

	query := `SELECT ` + settingColumns + ` FROM settings WHERE tenant_id = $1`
	args := []any{scope.TenantID()}
	if typ != "" {
		args = append(args, typ)
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if !includeInactive {
		query += " AND is_active"
	}
	query += " ORDER BY type, sort_order, name"

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	settings := []model.Setting{}
	for rows.Next() {
		st, err := scanSetting(rows)
		if err != nil {
			return nil, err
		}
		settings = append(settings, *st)
	}
	return settings, rows.Err()
}

// CreateSetting appends st to the end of its taxonomy unless Order is set.
func (s *Storage) CreateSetting(ctx context.Context, scope Scope, st *model.Setting) error {
	if err := scope.check(); err != nil {
		return err
	}
	defer metrics.TrackDBOperation("create_setting")()

	if st.ID == uuid.Nil {
		st.ID = uuid.New()
	}
	st.TenantID = scope.TenantID()
	st.IsActive = true

	err := s.DB.QueryRowContext(ctx, `
		INSERT INTO settings (id, tenant_id, type, name, color, is_active, sort_order)
		VALUES ($1, $2, $3, $4, $5, TRUE,
			CASE WHEN $6 > 0 THEN $6
			ELSE (SELECT COALESCE(MAX(sort_order), 0) + 1 FROM settings WHERE tenant_id = $2 AND type = $3) END)
		RETURNING sort_order`,
		st.ID, st.TenantID, st.Type, st.Name, st.Color, st.Order,
	).Scan(&st.Order)
	if err != nil {
		return fmt.Errorf("create setting: %w", mapError(err))
	}
	return nil
}

func (s *Storage) UpdateSetting(ctx context.Context, scope Scope, st *model.Setting) error {
	if err := scope.check(); err != nil {
		return err
	}
	defer metrics.TrackDBOperation("update_setting")()

	st.TenantID = scope.TenantID()
	row := s.DB.QueryRowContext(ctx, `
		UPDATE settings SET type = $3, name = $4, color = $5, sort_order = $6, is_active = $7
		WHERE tenant_id = $1 AND id = $2
		RETURNING `+settingColumns,
		st.TenantID, st.ID, st.Type, st.Name, st.Color, st.Order, st.IsActive)
	updated, err := scanSetting(row)
	if err != nil {
		return mapError(err)
	}
	*st = *updated
	return nil
}

// DeactivateSetting hides a setting. Setting rows are never removed.
func (s *Storage) DeactivateSetting(ctx context.Context, scope Scope, id uuid.UUID) error {
	if err := scope.check(); err != nil {
		return err
	}
	defer metrics.TrackDBOperation("deactivate_setting")()

	res, err := s.DB.ExecContext(ctx,
		`UPDATE settings SET is_active = FALSE WHERE tenant_id = $1 AND id = $2`, scope.TenantID(), id)
	if err != nil {
		return fmt.Errorf("deactivate setting: %w", err)
	}
	return rowsAffected(res)
}

// SeedDefaultSettings inserts DefaultSettings, skipping names that exist.
func (s *Storage) SeedDefaultSettings(ctx context.Context, scope Scope) error {
	if err := scope.check(); err != nil {
		return err
	}
	defer metrics.TrackDBOperation("seed_settings")()

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}
	defer tx.Rollback()

	order := map[string]int{}
	for _, def := range DefaultSettings {
		order[def.Type]++
		_, err := tx.ExecContext(ctx, `
			INSERT INTO settings (id, tenant_id, type, name, color, is_active, sort_order)
			VALUES ($1, $2, $3, $4, $5, TRUE, $6)
			ON CONFLICT (tenant_id, type, name) DO NOTHING`,
			uuid.New(), scope.TenantID(), def.Type, def.Name, def.Color, order[def.Type])
		if err != nil {
			return fmt.Errorf("seed setting %s/%s: %w", def.Type, def.Name, err)
		}
	}
	return tx.Commit()
}
