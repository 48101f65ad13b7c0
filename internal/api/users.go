package api

import (
	"net/http"

	"github.com/google/uuid"

	"multi-tenant-crm/internal/metrics"
	"multi-tenant-crm/internal/model"
	"multi-tenant-crm/internal/role"
	"multi-tenant-crm/internal/storage"
	"multi-tenant-crm/internal/validation"
)

// @Summary List users of the caller's company
// @Tags Users
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/users [get]
func (a *API) ListUsers(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := a.scope(w, r)
	if !ok {
		return
	}
	profiles, err := a.Store.ListProfiles(r.Context(), scope)
	if err != nil {
		a.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": profiles})
}

// @Summary Update a user's profile
// @Description The caller must outrank the target within the same company.
// @Tags Users
// @Security ApiKeyAuth
// @Accept json
// @Param id path string true "Profile id"
// @Param body body validation.ProfileUpdateForm true "Changes"
// @Success 200 {object} model.Profile
// @Failure 403 {object} map[string]string
// @Router /api/users/{id} [patch]
func (a *API) UpdateUser(w http.ResponseWriter, r *http.Request) {
	user, scope, ok := a.scope(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var form validation.ProfileUpdateForm
	if !decode(w, r, &form) {
		return
	}
	if fields, ok := form.Ok(); !ok {
		writeValidation(w, fields)
		return
	}
	if !a.canManage(w, r, user, id) {
		return
	}
	if form.Role != nil {
		// Nobody can hand out a role they could not manage themselves.
		granted := &model.Profile{TenantID: user.TenantID, Role: *form.Role}
		if !role.CanManageProfile(user.Profile(), granted) {
			metrics.RecordDenied("role_grant")
			writeError(w, http.StatusForbidden, "cannot assign a role at or above your own")
			return
		}
	}

	p, err := a.Store.UpdateProfile(r.Context(), scope, id, storage.ProfileUpdate{
		FullName: form.FullName,
		Role:     form.Role,
		IsActive: form.IsActive,
	})
	if err != nil {
		a.storeError(w, r, err)
		return
	}
	a.notify(r, "profiles", model.ActionUpdate, p.ID, p)
	writeJSON(w, http.StatusOK, p)
}

// @Summary Deactivate a user
// @Tags Users
// @Security ApiKeyAuth
// @Param id path string true "Profile id"
// @Success 204
// @Failure 403 {object} map[string]string
// @Router /api/users/{id} [delete]
func (a *API) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	user, scope, ok := a.scope(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if !a.canManage(w, r, user, id) {
		return
	}
	if err := a.Store.DeactivateProfile(r.Context(), scope, id); err != nil {
		a.storeError(w, r, err)
		return
	}
	a.notify(r, "profiles", model.ActionDelete, id, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) canManage(w http.ResponseWriter, r *http.Request, user *model.User, target uuid.UUID) bool {
	ok, err := a.Authority.CanManage(r.Context(), user.ID, target)
	if err != nil {
		a.internalError(w, r, err)
		return false
	}
	if !ok {
		metrics.RecordDenied("can_manage")
		writeError(w, http.StatusForbidden, "you cannot manage this user")
		return false
	}
	return true
}
