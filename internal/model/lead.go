// internal/model/lead.go
package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Lead struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	TenantID       uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	Name           string          `json:"name" db:"name"`
	Email          string          `json:"email,omitempty" db:"email"`
	Phone          string          `json:"phone,omitempty" db:"phone"`
	AlternatePhone string          `json:"alternate_phone,omitempty" db:"alternate_phone"`
	Status         string          `json:"status" db:"status"`
	Source         string          `json:"source,omitempty" db:"source"`
	Priority       string          `json:"priority" db:"priority"`
	AssignedTo     *uuid.UUID      `json:"assigned_to,omitempty" db:"assigned_to"`
	CustomFields   json.RawMessage `json:"custom_fields,omitempty" db:"custom_fields"`
	Notes          string          `json:"notes,omitempty" db:"notes"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
	DeletedAt      *time.Time      `json:"deleted_at,omitempty" db:"deleted_at"`
}

// LeadFilter narrows a lead listing. Zero values mean "no filter".
type LeadFilter struct {
	Status     string
	Source     string
	AssignedTo *uuid.UUID
	Search     string
	Limit      int
	Offset     int
}
