package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"multi-tenant-crm/internal/auth"
	"multi-tenant-crm/internal/config"
	"multi-tenant-crm/internal/manager"
	"multi-tenant-crm/internal/model"
	"multi-tenant-crm/internal/role"
	"multi-tenant-crm/internal/storage"
	"multi-tenant-crm/internal/validation"
)

func TestMain(m *testing.M) {
	auth.SetSecret("api-test-secret-0123456789")
	os.Exit(m.Run())
}

type fakeStore struct {
	mu         sync.Mutex
	identities map[uuid.UUID]*model.Identity
	tenants    map[uuid.UUID]*model.Tenant
	profiles   map[uuid.UUID]*model.Profile
	leads      map[uuid.UUID]*model.Lead
	updated    []model.Setting
	calls      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		identities: map[uuid.UUID]*model.Identity{},
		tenants:    map[uuid.UUID]*model.Tenant{},
		profiles:   map[uuid.UUID]*model.Profile{},
		leads:      map[uuid.UUID]*model.Lead{},
	}
}

func (f *fakeStore) touch() {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
}

func (f *fakeStore) CreateIdentity(_ context.Context, ident *model.Identity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.identities {
		if existing.Email == ident.Email {
			return storage.ErrConflict
		}
	}
	if ident.ID == uuid.Nil {
		ident.ID = uuid.New()
	}
	f.identities[ident.ID] = ident
	return nil
}

func (f *fakeStore) DeleteIdentity(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.identities[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.identities, id)
	delete(f.profiles, id)
	return nil
}

func (f *fakeStore) IdentityByEmail(_ context.Context, email string) (*model.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ident := range f.identities {
		if ident.Email == strings.ToLower(email) {
			return ident, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeStore) IdentityByID(_ context.Context, id uuid.UUID) (*model.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ident, ok := f.identities[id]; ok {
		return ident, nil
	}
	return nil, storage.ErrNotFound
}

func (f *fakeStore) ResolveUser(_ context.Context, id uuid.UUID) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	t := f.tenants[p.TenantID]
	return &model.User{ID: p.ID, Email: p.Email, FullName: p.FullName, Role: p.Role,
		IsActive: p.IsActive, TenantID: p.TenantID, TenantName: t.Name}, nil
}

func (f *fakeStore) GetProfile(_ context.Context, scope storage.Scope, id uuid.UUID) (*model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok || p.TenantID != scope.TenantID() {
		return nil, storage.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) GetTenant(_ context.Context, id uuid.UUID) (*model.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.tenants[id]; ok {
		return t, nil
	}
	return nil, storage.ErrNotFound
}

func (f *fakeStore) SoftDeleteTenant(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tenants[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.tenants, id)
	return nil
}

func (f *fakeStore) ListProfiles(_ context.Context, scope storage.Scope) ([]model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Profile{}
	for _, p := range f.profiles {
		if p.TenantID == scope.TenantID() {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateProfile(_ context.Context, scope storage.Scope, id uuid.UUID, upd storage.ProfileUpdate) (*model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok || p.TenantID != scope.TenantID() {
		return nil, storage.ErrNotFound
	}
	if upd.FullName != nil {
		p.FullName = *upd.FullName
	}
	if upd.Role != nil {
		p.Role = *upd.Role
	}
	if upd.IsActive != nil {
		p.IsActive = *upd.IsActive
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) DeactivateProfile(_ context.Context, scope storage.Scope, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok || p.TenantID != scope.TenantID() {
		return storage.ErrNotFound
	}
	p.IsActive = false
	return nil
}

func (f *fakeStore) ListCompanyAdmins(_ context.Context) ([]model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Profile{}
	for _, p := range f.profiles {
		if p.Role == string(role.Admin) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (f *fakeStore) ListLeads(_ context.Context, scope storage.Scope, _ model.LeadFilter) ([]model.Lead, error) {
	f.touch()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Lead{}
	for _, l := range f.leads {
		if l.TenantID == scope.TenantID() && l.DeletedAt == nil {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeStore) GetLead(_ context.Context, scope storage.Scope, id uuid.UUID) (*model.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.leads[id]
	if !ok || l.TenantID != scope.TenantID() || l.DeletedAt != nil {
		return nil, storage.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (f *fakeStore) CreateLead(_ context.Context, scope storage.Scope, l *model.Lead) error {
	f.touch()
	f.mu.Lock()
	defer f.mu.Unlock()
	l.ID = uuid.New()
	l.TenantID = scope.TenantID()
	cp := *l
	f.leads[l.ID] = &cp
	return nil
}

func (f *fakeStore) UpdateLead(_ context.Context, scope storage.Scope, l *model.Lead) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.leads[l.ID]
	if !ok || existing.TenantID != scope.TenantID() {
		return storage.ErrNotFound
	}
	l.TenantID = scope.TenantID()
	cp := *l
	f.leads[l.ID] = &cp
	return nil
}

func (f *fakeStore) SoftDeleteLead(_ context.Context, scope storage.Scope, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.leads[id]
	if !ok || l.TenantID != scope.TenantID() {
		return storage.ErrNotFound
	}
	delete(f.leads, id)
	return nil
}

func (f *fakeStore) ListProperties(context.Context, storage.Scope, model.PropertyFilter) ([]model.Property, error) {
	return []model.Property{}, nil
}

func (f *fakeStore) GetProperty(context.Context, storage.Scope, uuid.UUID) (*model.Property, error) {
	return nil, storage.ErrNotFound
}

func (f *fakeStore) CreateProperty(_ context.Context, scope storage.Scope, p *model.Property) error {
	p.ID = uuid.New()
	p.TenantID = scope.TenantID()
	return nil
}

func (f *fakeStore) UpdateProperty(context.Context, storage.Scope, *model.Property) error {
	return storage.ErrNotFound
}

func (f *fakeStore) SoftDeleteProperty(context.Context, storage.Scope, uuid.UUID) error {
	return nil
}

func (f *fakeStore) ListSettings(context.Context, storage.Scope, string, bool) ([]model.Setting, error) {
	return []model.Setting{}, nil
}

func (f *fakeStore) CreateSetting(_ context.Context, scope storage.Scope, st *model.Setting) error {
	f.touch()
	st.ID = uuid.New()
	st.TenantID = scope.TenantID()
	st.IsActive = true
	return nil
}

func (f *fakeStore) UpdateSetting(_ context.Context, scope storage.Scope, st *model.Setting) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	st.TenantID = scope.TenantID()
	f.updated = append(f.updated, *st)
	return nil
}

func (f *fakeStore) DeactivateSetting(context.Context, storage.Scope, uuid.UUID) error {
	return nil
}

func (f *fakeStore) ListActivityPaginated(context.Context, storage.Scope, string, int) ([]model.Activity, string, error) {
	return []model.Activity{}, "", nil
}

type fakeTenants struct {
	mu      sync.Mutex
	created []validation.CompanyForm
	removed []uuid.UUID
	events  []model.ChangeEvent
	err     error
}

func (f *fakeTenants) CreateCompany(_ context.Context, form validation.CompanyForm) (*manager.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, form)
	if f.err != nil {
		return nil, f.err
	}
	t := &model.Tenant{ID: uuid.New(), Name: form.Name, Slug: manager.Slugify(form.Name)}
	return &manager.Company{Tenant: t, Admin: &model.Profile{ID: uuid.New(), TenantID: t.ID, Email: form.Email, Role: "admin"}}, nil
}

func (f *fakeTenants) RemoveTenant(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, id)
}

func (f *fakeTenants) Notify(_ context.Context, ev model.ChangeEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

func (f *fakeTenants) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, ev := range f.events {
		out = append(out, ev.Table+"."+ev.Action)
	}
	return out
}

type testEnv struct {
	store   *fakeStore
	tenants *fakeTenants
	server  *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := newFakeStore()
	tenants := &fakeTenants{}
	svc := auth.NewService(store, auth.NewMemorySessionStore(), zap.NewNop())
	cfg := config.Default()
	cfg.Server.AllowedOrigins = []string{"http://localhost:3000"}

	a := NewAPI(store, svc, tenants, cfg, zap.NewNop())
	srv := httptest.NewServer(a.Router())
	t.Cleanup(srv.Close)
	return &testEnv{store: store, tenants: tenants, server: srv}
}

// addUser creates a tenant member with password "secret123".
func (e *testEnv) addUser(t *testing.T, tenantID uuid.UUID, r role.Role) *model.Profile {
	t.Helper()
	hash, err := auth.HashPassword("secret123")
	require.NoError(t, err)

	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	if _, ok := e.store.tenants[tenantID]; !ok {
		e.store.tenants[tenantID] = &model.Tenant{ID: tenantID, Name: "Tenant " + tenantID.String()[:4]}
	}
	id := uuid.New()
	email := string(r) + "-" + id.String()[:8] + "@example.com"
	e.store.identities[id] = &model.Identity{ID: id, Email: email, PasswordHash: hash}
	p := &model.Profile{ID: id, TenantID: tenantID, Email: email, FullName: string(r), Role: string(r), IsActive: true}
	e.store.profiles[id] = p
	return p
}

func (e *testEnv) login(t *testing.T, p *model.Profile) string {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": p.Email, "password": "secret123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	var out struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	return out.AccessToken
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*http.Response, string) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out bytes.Buffer
	_, _ = out.ReadFrom(resp.Body)
	return resp, out.String()
}

func TestCreateCompanyValidationNeverReachesManager(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodPost, "/api/create-company", "", map[string]string{
		"name": "", "email": "not-an-email", "password": "123",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, `"fields"`)
	assert.Contains(t, body, `"email"`)
	assert.Contains(t, body, `"password"`)
	assert.Empty(t, env.tenants.created)
}

func TestCreateCompany(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodPost, "/api/create-company", "", map[string]string{
		"name": "  Acme Realty ", "email": "Owner@Acme.test", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	var out struct {
		Success bool            `json:"success"`
		Company manager.Company `json:"company"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	assert.True(t, out.Success)
	assert.Equal(t, "acme-realty", out.Company.Tenant.Slug)
	require.Len(t, env.tenants.created, 1)
	assert.Equal(t, "owner@acme.test", env.tenants.created[0].Email)
}

func TestCreateCompanyDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.tenants.err = auth.ErrEmailTaken

	resp, body := env.do(t, http.MethodPost, "/api/create-company", "", map[string]string{
		"name": "Acme", "email": "owner@acme.test", "password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, auth.ErrEmailTaken.Error())
}

func TestLoginSessionLogout(t *testing.T) {
	env := newTestEnv(t)
	agent := env.addUser(t, uuid.New(), role.Agent)

	resp, _ := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": agent.Email, "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token := env.login(t, agent)

	resp, body := env.do(t, http.MethodGet, "/api/auth/session", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var user model.User
	require.NoError(t, json.Unmarshal([]byte(body), &user))
	assert.Equal(t, agent.ID, user.ID)
	assert.Equal(t, agent.TenantID, user.TenantID)

	resp, _ = env.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/api/auth/session", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "revoked session must not authenticate")

	assert.Equal(t, []string{"profiles.signed_in", "profiles.signed_out"}, env.tenants.actions())
}

func TestRefreshRevokesOldToken(t *testing.T) {
	env := newTestEnv(t)
	agent := env.addUser(t, uuid.New(), role.Agent)
	old := env.login(t, agent)

	resp, body := env.do(t, http.MethodPost, "/api/auth/refresh", old, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	var out struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &out))

	resp, _ = env.do(t, http.MethodGet, "/api/auth/session", old, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, _ = env.do(t, http.MethodGet, "/api/auth/session", out.AccessToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDeactivatedProfileIsRefused(t *testing.T) {
	env := newTestEnv(t)
	agent := env.addUser(t, uuid.New(), role.Agent)
	token := env.login(t, agent)

	env.store.mu.Lock()
	env.store.profiles[agent.ID].IsActive = false
	env.store.mu.Unlock()

	resp, _ := env.do(t, http.MethodGet, "/api/leads", token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": agent.Email, "password": "secret123",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestGetCompaniesRequiresSuperAdmin(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addUser(t, uuid.New(), role.Admin)
	env.addUser(t, uuid.New(), role.Admin)
	super := env.addUser(t, uuid.New(), role.SuperAdmin)

	resp, _ := env.do(t, http.MethodGet, "/api/get-companies", env.login(t, admin), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := env.do(t, http.MethodGet, "/api/get-companies", env.login(t, super), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Companies []model.Profile `json:"companies"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	assert.Len(t, out.Companies, 2)
}

func TestLeadsAreTenantIsolated(t *testing.T) {
	env := newTestEnv(t)
	tenantA, tenantB := uuid.New(), uuid.New()
	agentA := env.addUser(t, tenantA, role.Agent)
	agentB := env.addUser(t, tenantB, role.Agent)
	tokenA, tokenB := env.login(t, agentA), env.login(t, agentB)

	resp, body := env.do(t, http.MethodPost, "/api/leads", tokenA, map[string]any{
		"name": "Jane Buyer", "phone": "5551234567", "assigned_to": agentA.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	var lead model.Lead
	require.NoError(t, json.Unmarshal([]byte(body), &lead))
	assert.Equal(t, tenantA, lead.TenantID)
	assert.Equal(t, "New", lead.Status)
	assert.Equal(t, "medium", lead.Priority)

	resp, _ = env.do(t, http.MethodGet, "/api/leads/"+lead.ID.String(), tokenB, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = env.do(t, http.MethodGet, "/api/leads", tokenB, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"data":[]}`, body)
}

func TestLeadCannotBeAssignedAcrossTenants(t *testing.T) {
	env := newTestEnv(t)
	agentA := env.addUser(t, uuid.New(), role.Agent)
	agentB := env.addUser(t, uuid.New(), role.Agent)

	resp, body := env.do(t, http.MethodPost, "/api/leads", env.login(t, agentA), map[string]any{
		"name": "Jane", "assigned_to": agentB.ID,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "assigned_to")
}

func TestLeadValidationSkipsStore(t *testing.T) {
	env := newTestEnv(t)
	agent := env.addUser(t, uuid.New(), role.Agent)
	token := env.login(t, agent)

	resp, _ := env.do(t, http.MethodPost, "/api/leads", token, map[string]any{
		"name": "", "email": "bad", "priority": "urgent",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, env.store.calls)
}

func TestDeleteLeadRequiresManager(t *testing.T) {
	env := newTestEnv(t)
	tenant := uuid.New()
	agent := env.addUser(t, tenant, role.Agent)
	mgr := env.addUser(t, tenant, role.Manager)
	agentToken := env.login(t, agent)

	_, body := env.do(t, http.MethodPost, "/api/leads", agentToken, map[string]any{"name": "Raj"})
	var lead model.Lead
	require.NoError(t, json.Unmarshal([]byte(body), &lead))

	resp, _ := env.do(t, http.MethodDelete, "/api/leads/"+lead.ID.String(), agentToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = env.do(t, http.MethodDelete, "/api/leads/"+lead.ID.String(), env.login(t, mgr), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	assert.Contains(t, env.tenants.actions(), "leads.insert")
	assert.Contains(t, env.tenants.actions(), "leads.delete")
}

func TestSettingsWritesRequireAdmin(t *testing.T) {
	env := newTestEnv(t)
	tenant := uuid.New()
	mgr := env.addUser(t, tenant, role.Manager)
	admin := env.addUser(t, tenant, role.Admin)
	setting := map[string]any{"type": "source", "name": "Billboard", "color": "#ff0000"}

	resp, _ := env.do(t, http.MethodPost, "/api/settings", env.login(t, mgr), setting)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := env.do(t, http.MethodPost, "/api/settings", env.login(t, admin), setting)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)

	resp, _ = env.do(t, http.MethodGet, "/api/settings?type=colour", env.login(t, mgr), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateSettingChangesType(t *testing.T) {
	env := newTestEnv(t)
	tenant := uuid.New()
	admin := env.addUser(t, tenant, role.Admin)
	id := uuid.New()

	resp, body := env.do(t, http.MethodPut, "/api/settings/"+id.String(), env.login(t, admin),
		map[string]any{"type": "status", "name": "Billboard", "order": 3})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	env.store.mu.Lock()
	defer env.store.mu.Unlock()
	require.Len(t, env.store.updated, 1)
	got := env.store.updated[0]
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "status", got.Type)
	assert.Equal(t, tenant, got.TenantID)
	assert.True(t, got.IsActive)
	assert.Contains(t, body, `"type":"status"`)
}

func TestUpdateUserUsesCanManage(t *testing.T) {
	env := newTestEnv(t)
	tenant := uuid.New()
	agent := env.addUser(t, tenant, role.Agent)
	mgr := env.addUser(t, tenant, role.Manager)
	admin := env.addUser(t, tenant, role.Admin)
	outsider := env.addUser(t, uuid.New(), role.Agent)
	managerToken, adminToken := env.login(t, mgr), env.login(t, admin)

	resp, _ := env.do(t, http.MethodPatch, "/api/users/"+admin.ID.String(), managerToken, map[string]any{"full_name": "x"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "manager cannot manage admin")

	resp, _ = env.do(t, http.MethodPatch, "/api/users/"+outsider.ID.String(), adminToken, map[string]any{"full_name": "x"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "admin cannot manage another tenant")

	resp, _ = env.do(t, http.MethodPatch, "/api/users/"+agent.ID.String(), adminToken, map[string]any{"role": "admin"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "cannot grant own level")

	resp, _ = env.do(t, http.MethodPatch, "/api/users/"+agent.ID.String(), adminToken, map[string]any{"role": "boss"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := env.do(t, http.MethodPatch, "/api/users/"+agent.ID.String(), adminToken, map[string]any{"role": "manager"})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	var p model.Profile
	require.NoError(t, json.Unmarshal([]byte(body), &p))
	assert.Equal(t, "manager", p.Role)

	resp, _ = env.do(t, http.MethodDelete, "/api/users/"+mgr.ID.String(), managerToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "equal level cannot deactivate")
}

func TestDeleteTenant(t *testing.T) {
	env := newTestEnv(t)
	victim := uuid.New()
	env.addUser(t, victim, role.Admin)
	super := env.addUser(t, uuid.New(), role.SuperAdmin)

	resp, _ := env.do(t, http.MethodDelete, "/api/tenants/"+victim.String(), env.login(t, super), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, []uuid.UUID{victim}, env.tenants.removed)
}

func TestActivityRejectsBadCursor(t *testing.T) {
	env := newTestEnv(t)
	agent := env.addUser(t, uuid.New(), role.Agent)

	resp, _ := env.do(t, http.MethodGet, "/api/activity?cursor=nope", env.login(t, agent), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMissingTokenIsUnauthorized(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.do(t, http.MethodGet, "/api/leads", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
