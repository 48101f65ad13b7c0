package manager

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"multi-tenant-crm/internal/model"
	"multi-tenant-crm/internal/role"
	"multi-tenant-crm/internal/storage"
	"multi-tenant-crm/internal/validation"
)

// IdentityCreator is the administrative user API of the auth service.
type IdentityCreator interface {
	CreateUser(ctx context.Context, email, password string) (*model.Identity, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type Company struct {
	Tenant *model.Tenant  `json:"tenant"`
	Admin  *model.Profile `json:"admin"`
}

// CreateCompany provisions a tenant with its first admin and default
// settings. The form must already be validated.
func (tm *TenantManager) CreateCompany(ctx context.Context, form validation.CompanyForm) (*Company, error) {
	slug, err := tm.storage.UniqueSlug(ctx, Slugify(form.Name))
	if err != nil {
		return nil, err
	}

	tenant := &model.Tenant{
		ID:                 uuid.New(),
		Name:               form.Name,
		Slug:               slug,
		SubscriptionPlan:   model.PlanFree,
		SubscriptionStatus: model.StatusTrial,
		MaxUsers:           tm.Limits.MaxUsers,
		MaxProperties:      tm.Limits.MaxProperties,
	}
	if err := tm.storage.CreateTenant(ctx, tenant); err != nil {
		return nil, err
	}

	ident, err := tm.users.CreateUser(ctx, form.Email, form.Password)
	if err != nil {
		tm.abandon(ctx, tenant.ID, uuid.Nil)
		return nil, err
	}

	admin := &model.Profile{
		ID:       ident.ID,
		TenantID: tenant.ID,
		Email:    ident.Email,
		FullName: displayName(ident.Email),
		Role:     string(role.Admin),
		IsActive: true,
	}
	if err := tm.storage.UpsertProfile(ctx, admin); err != nil {
		tm.abandon(ctx, tenant.ID, ident.ID)
		return nil, fmt.Errorf("create admin profile: %w", err)
	}

	scope, err := storage.ScopeFor(tenant.ID)
	if err != nil {
		tm.abandon(ctx, tenant.ID, ident.ID)
		return nil, err
	}
	if err := tm.storage.SeedDefaultSettings(ctx, scope); err != nil {
		tm.abandon(ctx, tenant.ID, ident.ID)
		return nil, fmt.Errorf("seed default settings: %w", err)
	}

	// The company is usable without its change stream; startup recovery
	// retries AddTenant for every active tenant.
	if err := tm.AddTenant(ctx, tenant.ID); err != nil {
		tm.logger.Warn("change stream not started", zap.String("tenant_id", tenant.ID.String()), zap.Error(err))
	}

	payload, _ := json.Marshal(map[string]string{"name": tenant.Name, "slug": tenant.Slug})
	tm.Notify(ctx, model.ChangeEvent{
		TenantID: tenant.ID,
		Table:    "tenants",
		Action:   model.ActionInsert,
		RowID:    tenant.ID,
		ActorID:  admin.ID,
		Payload:  payload,
	})

	tm.logger.Info("company created",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("slug", tenant.Slug))
	return &Company{Tenant: tenant, Admin: admin}, nil
}

// abandon undoes a partial signup. Deleting the identity also drops its
// profile, so the email can be used for another attempt.
func (tm *TenantManager) abandon(ctx context.Context, tenantID, identityID uuid.UUID) {
	ctx = context.WithoutCancel(ctx)
	if identityID != uuid.Nil {
		if err := tm.users.DeleteUser(ctx, identityID); err != nil {
			tm.logger.Error("failed to delete signup identity",
				zap.String("user_id", identityID.String()), zap.Error(err))
		}
	}
	if err := tm.storage.SoftDeleteTenant(ctx, tenantID); err != nil {
		tm.logger.Error("failed to discard tenant", zap.String("tenant_id", tenantID.String()), zap.Error(err))
	}
}

// Slugify lowercases name and joins its alphanumeric runs with dashes.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		return "company"
	}
	return slug
}

func displayName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
