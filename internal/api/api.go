package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"multi-tenant-crm/internal/auth"
	"multi-tenant-crm/internal/config"
	"multi-tenant-crm/internal/manager"
	"multi-tenant-crm/internal/metrics"
	"multi-tenant-crm/internal/model"
	"multi-tenant-crm/internal/role"
	"multi-tenant-crm/internal/storage"
	"multi-tenant-crm/internal/validation"
)

// Store is the storage surface the handlers use.
type Store interface {
	role.ProfileLoader

	GetTenant(ctx context.Context, id uuid.UUID) (*model.Tenant, error)
	SoftDeleteTenant(ctx context.Context, id uuid.UUID) error

	ListProfiles(ctx context.Context, scope storage.Scope) ([]model.Profile, error)
	UpdateProfile(ctx context.Context, scope storage.Scope, id uuid.UUID, upd storage.ProfileUpdate) (*model.Profile, error)
	DeactivateProfile(ctx context.Context, scope storage.Scope, id uuid.UUID) error
	ListCompanyAdmins(ctx context.Context) ([]model.Profile, error)

	ListLeads(ctx context.Context, scope storage.Scope, f model.LeadFilter) ([]model.Lead, error)
	GetLead(ctx context.Context, scope storage.Scope, id uuid.UUID) (*model.Lead, error)
	CreateLead(ctx context.Context, scope storage.Scope, l *model.Lead) error
	UpdateLead(ctx context.Context, scope storage.Scope, l *model.Lead) error
	SoftDeleteLead(ctx context.Context, scope storage.Scope, id uuid.UUID) error

	ListProperties(ctx context.Context, scope storage.Scope, f model.PropertyFilter) ([]model.Property, error)
	GetProperty(ctx context.Context, scope storage.Scope, id uuid.UUID) (*model.Property, error)
	CreateProperty(ctx context.Context, scope storage.Scope, p *model.Property) error
	UpdateProperty(ctx context.Context, scope storage.Scope, p *model.Property) error
	SoftDeleteProperty(ctx context.Context, scope storage.Scope, id uuid.UUID) error

	ListSettings(ctx context.Context, scope storage.Scope, typ string, includeInactive bool) ([]model.Setting, error)
	CreateSetting(ctx context.Context, scope storage.Scope, st *model.Setting) error
	UpdateSetting(ctx context.Context, scope storage.Scope, st *model.Setting) error
	DeactivateSetting(ctx context.Context, scope storage.Scope, id uuid.UUID) error

	ListActivityPaginated(ctx context.Context, scope storage.Scope, cursor string, limit int) ([]model.Activity, string, error)
}

// Sessions is the auth service as seen by the handlers.
type Sessions interface {
	auth.Authenticator
	SignInWithPassword(ctx context.Context, email, password string) (*auth.Session, error)
	SignOut(ctx context.Context, claims *auth.Claims) error
	Refresh(ctx context.Context, claims *auth.Claims) (*auth.Session, error)
}

// Tenants provisions companies and owns their change streams.
type Tenants interface {
	CreateCompany(ctx context.Context, form validation.CompanyForm) (*manager.Company, error)
	RemoveTenant(tenantID uuid.UUID)
	Notify(ctx context.Context, ev model.ChangeEvent)
}

type API struct {
	Store     Store
	Sessions  Sessions
	Tenants   Tenants
	Authority *role.Authority
	Cfg       *config.Config
	logger    *zap.Logger
}

func NewAPI(store Store, sessions Sessions, tenants Tenants, cfg *config.Config, logger *zap.Logger) *API {
	return &API{
		Store:     store,
		Sessions:  sessions,
		Tenants:   tenants,
		Authority: role.NewAuthority(store),
		Cfg:       cfg,
		logger:    logger,
	}
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(a.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   a.Cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler)

	// Public
	r.Get("/healthz", a.Health)
	r.Handle("/metrics", metrics.Handler())
	r.Post("/api/create-company", a.CreateCompany)
	r.Post("/api/auth/login", a.Login)

	// Secured
	r.Group(func(r chi.Router) {
		r.Use(auth.JWTAuthMiddleware(a.Sessions))
		r.Use(a.loadUser)

		r.Post("/api/auth/logout", a.Logout)
		r.Get("/api/auth/session", a.Session)
		r.Post("/api/auth/refresh", a.Refresh)

		r.With(RequireRole(role.SuperAdmin)).Get("/api/get-companies", a.GetCompanies)
		r.With(RequireRole(role.SuperAdmin)).Delete("/api/tenants/{id}", a.DeleteTenant)

		r.Route("/api/leads", func(r chi.Router) {
			r.Get("/", a.ListLeads)
			r.Post("/", a.CreateLead)
			r.Get("/{id}", a.GetLead)
			r.Put("/{id}", a.UpdateLead)
			r.With(RequireMinimumRole(role.Manager)).Delete("/{id}", a.DeleteLead)
		})

		r.Route("/api/properties", func(r chi.Router) {
			r.Get("/", a.ListProperties)
			r.Get("/{id}", a.GetProperty)
			r.With(RequireMinimumRole(role.Agent)).Post("/", a.CreateProperty)
			r.With(RequireMinimumRole(role.Agent)).Put("/{id}", a.UpdateProperty)
			r.With(RequireMinimumRole(role.Manager)).Delete("/{id}", a.DeleteProperty)
		})

		r.Route("/api/settings", func(r chi.Router) {
			r.Get("/", a.ListSettings)
			r.Group(func(r chi.Router) {
				r.Use(RequireMinimumRole(role.Admin))
				r.Post("/", a.CreateSetting)
				r.Put("/{id}", a.UpdateSetting)
				r.Delete("/{id}", a.DeleteSetting)
			})
		})

		r.Route("/api/users", func(r chi.Router) {
			r.With(RequireMinimumRole(role.Manager)).Get("/", a.ListUsers)
			r.Patch("/{id}", a.UpdateUser)
			r.Delete("/{id}", a.DeactivateUser)
		})

		r.Get("/api/activity", a.ListActivity)
	})

	return r
}

// @Summary Liveness probe
// @Tags Health
// @Success 200 {object} map[string]string
// @Router /healthz [get]
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
