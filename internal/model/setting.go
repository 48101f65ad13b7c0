// internal/model/setting.go
package model

import "github.com/google/uuid"

// Setting types enumerate the per-tenant configurable taxonomies.
const (
	SettingCategory = "category"
	SettingSource   = "source"
	SettingStatus   = "status"
	SettingTeam     = "team"
)

var SettingTypes = []string{SettingCategory, SettingSource, SettingStatus, SettingTeam}

type Setting struct {
	ID       uuid.UUID `json:"id" db:"id"`
	TenantID uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Type     string    `json:"type" db:"type"`
	Name     string    `json:"name" db:"name"`
	Color    string    `json:"color,omitempty" db:"color"`
	IsActive bool      `json:"is_active" db:"is_active"`
	Order    int       `json:"order" db:"sort_order"`
}
