// internal/model/tenant.go
package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	PlanFree     = "free"
	StatusTrial  = "trial"
	StatusActive = "active"
)

type Tenant struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	Name               string          `json:"name" db:"name"`
	Slug               string          `json:"slug" db:"slug"`
	SubscriptionPlan   string          `json:"subscription_plan" db:"subscription_plan"`
	SubscriptionStatus string          `json:"subscription_status" db:"subscription_status"`
	MaxUsers           int             `json:"max_users" db:"max_users"`
	MaxProperties      int             `json:"max_properties" db:"max_properties"`
	Settings           json.RawMessage `json:"settings" db:"settings"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
	DeletedAt          *time.Time      `json:"deleted_at,omitempty" db:"deleted_at"`
}
