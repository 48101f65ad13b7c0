package storage

import (
	"errors"

	"github.com/google/uuid"
)

var ErrNoTenant = errors.New("tenant scope required")

// Scope pins a query to one tenant. The zero value is rejected by every
// scoped method, so a tenant table cannot be read without a tenant id.
type Scope struct {
	tenantID uuid.UUID
}

func ScopeFor(tenantID uuid.UUID) (Scope, error) {
	if tenantID == uuid.Nil {
		return Scope{}, ErrNoTenant
	}
	return Scope{tenantID: tenantID}, nil
}

func (s Scope) TenantID() uuid.UUID {
	return s.tenantID
}

func (s Scope) check() error {
	if s.tenantID == uuid.Nil {
		return ErrNoTenant
	}
	return nil
}
