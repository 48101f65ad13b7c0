// internal/role/authority.go
package role

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"multi-tenant-crm/internal/model"
	"multi-tenant-crm/internal/storage"
)

// CanManageProfile decides whether actor may administer target.
// Super admins may manage anyone; everyone else only strictly lower
// roles inside their own tenant.
func CanManageProfile(actor, target *model.Profile) bool {
	if actor == nil {
		return false
	}
	if Role(actor.Role) == SuperAdmin {
		return true
	}
	if target == nil || actor.TenantID != target.TenantID {
		return false
	}
	return Level(Role(actor.Role)) > Level(Role(target.Role))
}

// ProfileLoader is the part of the storage layer Authority needs.
type ProfileLoader interface {
	ResolveUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetProfile(ctx context.Context, scope storage.Scope, id uuid.UUID) (*model.Profile, error)
}

// Authority answers management questions by loading profiles on demand.
type Authority struct {
	Profiles ProfileLoader
}

func NewAuthority(profiles ProfileLoader) *Authority {
	return &Authority{Profiles: profiles}
}

// CanManage loads both profiles and applies CanManageProfile. A missing
// actor or target denies without error.
func (a *Authority) CanManage(ctx context.Context, actorID, targetID uuid.UUID) (bool, error) {
	actor, err := a.Profiles.ResolveUser(ctx, actorID)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load actor %s: %w", actorID, err)
	}

	actorProfile := actor.Profile()
	if Role(actorProfile.Role) == SuperAdmin {
		return true, nil
	}

	scope, err := storage.ScopeFor(actorProfile.TenantID)
	if err != nil {
		return false, nil
	}
	target, err := a.Profiles.GetProfile(ctx, scope, targetID)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load target %s: %w", targetID, err)
	}

	return CanManageProfile(actorProfile, target), nil
}
