// internal/model/activity.go
package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Change actions carried on the notification stream.
const (
	ActionInsert    = "insert"
	ActionUpdate    = "update"
	ActionDelete    = "delete"
	ActionSignedIn  = "signed_in"
	ActionSignedOut = "signed_out"
)

// ChangeEvent is published to the tenant's change queue after every write.
type ChangeEvent struct {
	TenantID uuid.UUID       `json:"tenant_id"`
	Table    string          `json:"table"`
	Action   string          `json:"action"`
	RowID    uuid.UUID       `json:"row_id"`
	ActorID  uuid.UUID       `json:"actor_id"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	At       time.Time       `json:"at"`
}

// Activity is a stored ChangeEvent.
type Activity struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	TenantID  uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	Table     string          `json:"table" db:"table_name"`
	Action    string          `json:"action" db:"action"`
	RowID     uuid.UUID       `json:"row_id" db:"row_id"`
	ActorID   uuid.UUID       `json:"actor_id" db:"actor_id"`
	Payload   json.RawMessage `json:"payload,omitempty" db:"payload"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}
