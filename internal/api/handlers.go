package api

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"multi-tenant-crm/internal/auth"
	"multi-tenant-crm/internal/logger"
	"multi-tenant-crm/internal/model"
	"multi-tenant-crm/internal/storage"
	"multi-tenant-crm/internal/validation"
)

// @Summary Create a company
// @Description Provisions a tenant, its first admin user and default settings.
// @Tags Companies
// @Accept json
// @Produce json
// @Param body body validation.CompanyForm true "Company and admin credentials"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /api/create-company [post]
func (a *API) CreateCompany(w http.ResponseWriter, r *http.Request) {
	var form validation.CompanyForm
	if !decode(w, r, &form) {
		return
	}
	if fields, ok := form.Ok(); !ok {
		writeValidation(w, fields)
		return
	}

	company, err := a.Tenants.CreateCompany(r.Context(), form)
	switch {
	case errors.Is(err, auth.ErrEmailTaken), errors.Is(err, auth.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		a.internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "company": company})
}

// @Summary List companies
// @Description Every tenant admin profile, newest first. Super admin only.
// @Tags Companies
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/get-companies [get]
func (a *API) GetCompanies(w http.ResponseWriter, r *http.Request) {
	admins, err := a.Store.ListCompanyAdmins(r.Context())
	if err != nil {
		a.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"companies": admins})
}

// @Summary Delete a tenant
// @Tags Companies
// @Security ApiKeyAuth
// @Param id path string true "Tenant UUID"
// @Success 204
// @Router /api/tenants/{id} [delete]
func (a *API) DeleteTenant(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := a.Store.SoftDeleteTenant(r.Context(), id); err != nil {
		a.storeError(w, r, err)
		return
	}
	a.Tenants.RemoveTenant(id)

	logger.FromContext(r.Context()).Info("tenant deleted", zap.String("deleted_tenant_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

// @Summary Sign in with email and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body validation.LoginForm true "Credentials"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]string
// @Router /api/auth/login [post]
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	var form validation.LoginForm
	if !decode(w, r, &form) {
		return
	}
	if fields, ok := form.Ok(); !ok {
		writeValidation(w, fields)
		return
	}

	sess, err := a.Sessions.SignInWithPassword(r.Context(), form.Email, form.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	if err != nil {
		a.internalError(w, r, err)
		return
	}

	user, err := a.Store.ResolveUser(r.Context(), sess.UserID)
	if err != nil || !user.IsActive {
		// An identity without a usable profile gets no session.
		a.revoke(r, sess)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			a.internalError(w, r, err)
			return
		}
		writeError(w, http.StatusForbidden, "account has no active profile")
		return
	}

	a.publish(r, user, "profiles", model.ActionSignedIn, user.ID, nil)
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": sess.AccessToken,
		"expires_at":   sess.ExpiresAt,
		"user":         user,
	})
}

func (a *API) revoke(r *http.Request, sess *auth.Session) {
	claims, err := a.Sessions.Authenticate(r.Context(), sess.AccessToken)
	if err != nil {
		return
	}
	if err := a.Sessions.SignOut(r.Context(), claims); err != nil {
		logger.FromContext(r.Context()).Warn("revoke session", zap.Error(err))
	}
}

// @Summary Sign out
// @Tags Auth
// @Security ApiKeyAuth
// @Success 204
// @Router /api/auth/logout [post]
func (a *API) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.Sessions.SignOut(r.Context(), auth.GetClaims(r.Context())); err != nil {
		a.internalError(w, r, err)
		return
	}
	user := CurrentUser(r.Context())
	a.notify(r, "profiles", model.ActionSignedOut, user.ID, nil)
	w.WriteHeader(http.StatusNoContent)
}

// @Summary Current session user
// @Tags Auth
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} model.User
// @Router /api/auth/session [get]
func (a *API) Session(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, CurrentUser(r.Context()))
}

// @Summary Rotate the access token
// @Tags Auth
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/auth/refresh [post]
func (a *API) Refresh(w http.ResponseWriter, r *http.Request) {
	sess, err := a.Sessions.Refresh(r.Context(), auth.GetClaims(r.Context()))
	if err != nil {
		a.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": sess.AccessToken,
		"expires_at":   sess.ExpiresAt,
		"user":         CurrentUser(r.Context()),
	})
}
