package api

import (
	"net/http"
	"strconv"

	"multi-tenant-crm/internal/model"
	"multi-tenant-crm/internal/validation"
)

// @Summary List settings
// @Tags Settings
// @Security ApiKeyAuth
// @Produce json
// @Param type query string false "category, source, status or team"
// @Param include_inactive query bool false "Include deactivated entries"
// @Success 200 {object} map[string]interface{}
// @Router /api/settings [get]
func (a *API) ListSettings(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := a.scope(w, r)
	if !ok {
		return
	}
	typ := r.URL.Query().Get("type")
	if typ != "" && !validSettingType(typ) {
		writeValidation(w, map[string]string{"type": "must be one of category source status team"})
		return
	}
	inactive, _ := strconv.ParseBool(r.URL.Query().Get("include_inactive"))

	settings, err := a.Store.ListSettings(r.Context(), scope, typ, inactive)
	if err != nil {
		a.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": settings})
}

// @Summary Create a setting
// @Tags Settings
// @Security ApiKeyAuth
// @Accept json
// @Param body body validation.SettingForm true "Setting"
// @Success 201 {object} model.Setting
// @Failure 409 {object} map[string]string
// @Router /api/settings [post]
func (a *API) CreateSetting(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := a.scope(w, r)
	if !ok {
		return
	}
	var form validation.SettingForm
	if !decode(w, r, &form) {
		return
	}
	if fields, ok := form.Ok(); !ok {
		writeValidation(w, fields)
		return
	}

	st := &model.Setting{Type: form.Type, Name: form.Name, Color: form.Color, Order: form.Order}
	if err := a.Store.CreateSetting(r.Context(), scope, st); err != nil {
		a.storeError(w, r, err)
		return
	}
	a.notify(r, "settings", model.ActionInsert, st.ID, st)
	writeJSON(w, http.StatusCreated, st)
}

// @Summary Update a setting
// @Tags Settings
// @Security ApiKeyAuth
// @Accept json
// @Param id path string true "Setting id"
// @Param body body validation.SettingForm true "Setting"
// @Success 200 {object} model.Setting
// @Router /api/settings/{id} [put]
func (a *API) UpdateSetting(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := a.scope(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var form validation.SettingForm
	if !decode(w, r, &form) {
		return
	}
	if fields, ok := form.Ok(); !ok {
		writeValidation(w, fields)
		return
	}

	st := &model.Setting{ID: id, Type: form.Type, Name: form.Name, Color: form.Color, Order: form.Order, IsActive: true}
	if form.IsActive != nil {
		st.IsActive = *form.IsActive
	}
	if err := a.Store.UpdateSetting(r.Context(), scope, st); err != nil {
		a.storeError(w, r, err)
		return
	}
	a.notify(r, "settings", model.ActionUpdate, st.ID, st)
	writeJSON(w, http.StatusOK, st)
}

// @Summary Deactivate a setting
// @Tags Settings
// @Security ApiKeyAuth
// @Param id path string true "Setting id"
// @Success 204
// @Router /api/settings/{id} [delete]
func (a *API) DeleteSetting(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := a.scope(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := a.Store.DeactivateSetting(r.Context(), scope, id); err != nil {
		a.storeError(w, r, err)
		return
	}
	a.notify(r, "settings", model.ActionDelete, id, nil)
	w.WriteHeader(http.StatusNoContent)
}

func validSettingType(typ string) bool {
	for _, t := range model.SettingTypes {
		if t == typ {
			return true
		}
	}
	return false
}
