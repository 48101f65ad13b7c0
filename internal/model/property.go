// internal/model/property.go
package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Property struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	TenantID      uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	Name          string          `json:"name" db:"name"`
	Address       string          `json:"address,omitempty" db:"address"`
	City          string          `json:"city,omitempty" db:"city"`
	State         string          `json:"state,omitempty" db:"state"`
	ZipCode       string          `json:"zip_code,omitempty" db:"zip_code"`
	Type          string          `json:"type" db:"type"`
	Status        string          `json:"status" db:"status"`
	Price         float64         `json:"price" db:"price"`
	Bedrooms      int             `json:"bedrooms" db:"bedrooms"`
	Bathrooms     int             `json:"bathrooms" db:"bathrooms"`
	AreaSqft      float64         `json:"area_sqft" db:"area_sqft"`
	Configuration json.RawMessage `json:"configuration,omitempty" db:"configuration"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
	DeletedAt     *time.Time      `json:"deleted_at,omitempty" db:"deleted_at"`
}

type PropertyFilter struct {
	Status string
	Type   string
	City   string
	Search string
	Limit  int
	Offset int
}
