package api

import (
	"net/http"

	"multi-tenant-crm/internal/model"
	"multi-tenant-crm/internal/validation"
)

// @Summary List properties
// @Tags Properties
// @Security ApiKeyAuth
// @Produce json
// @Param status query string false "Status filter"
// @Param type query string false "Type filter"
// @Param city query string false "City filter"
// @Param q query string false "Search name or address"
// @Success 200 {object} map[string]interface{}
// @Router /api/properties [get]
func (a *API) ListProperties(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := a.scope(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	props, err := a.Store.ListProperties(r.Context(), scope, model.PropertyFilter{
		Status: q.Get("status"),
		Type:   q.Get("type"),
		City:   q.Get("city"),
		Search: q.Get("q"),
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	})
	if err != nil {
		a.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": props})
}

// @Summary Get a property
// @Tags Properties
// @Security ApiKeyAuth
// @Param id path string true "Property id"
// @Success 200 {object} model.Property
// @Router /api/properties/{id} [get]
func (a *API) GetProperty(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := a.scope(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := a.Store.GetProperty(r.Context(), scope, id)
	if err != nil {
		a.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// @Summary Create a property
// @Tags Properties
// @Security ApiKeyAuth
// @Accept json
// @Param body body validation.PropertyForm true "Property"
// @Success 201 {object} model.Property
// @Router /api/properties [post]
func (a *API) CreateProperty(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := a.scope(w, r)
	if !ok {
		return
	}
	p, ok := propertyFromRequest(w, r)
	if !ok {
		return
	}
	if err := a.Store.CreateProperty(r.Context(), scope, p); err != nil {
		a.storeError(w, r, err)
		return
	}
	a.notify(r, "properties", model.ActionInsert, p.ID, p)
	writeJSON(w, http.StatusCreated, p)
}

// @Summary Replace a property
// @Tags Properties
// @Security ApiKeyAuth
// @Accept json
// @Param id path string true "Property id"
// @Param body body validation.PropertyForm true "Property"
// @Success 200 {object} model.Property
// @Router /api/properties/{id} [put]
func (a *API) UpdateProperty(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := a.scope(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, ok := propertyFromRequest(w, r)
	if !ok {
		return
	}
	p.ID = id
	if err := a.Store.UpdateProperty(r.Context(), scope, p); err != nil {
		a.storeError(w, r, err)
		return
	}
	a.notify(r, "properties", model.ActionUpdate, p.ID, p)
	writeJSON(w, http.StatusOK, p)
}

// @Summary Soft delete a property
// @Tags Properties
// @Security ApiKeyAuth
// @Param id path string true "Property id"
// @Success 204
// @Router /api/properties/{id} [delete]
func (a *API) DeleteProperty(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := a.scope(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := a.Store.SoftDeleteProperty(r.Context(), scope, id); err != nil {
		a.storeError(w, r, err)
		return
	}
	a.notify(r, "properties", model.ActionDelete, id, nil)
	w.WriteHeader(http.StatusNoContent)
}

func propertyFromRequest(w http.ResponseWriter, r *http.Request) (*model.Property, bool) {
	var form validation.PropertyForm
	if !decode(w, r, &form) {
		return nil, false
	}
	if fields, ok := form.Ok(); !ok {
		writeValidation(w, fields)
		return nil, false
	}
	return &model.Property{
		Name:          form.Name,
		Address:       form.Address,
		City:          form.City,
		State:         form.State,
		ZipCode:       form.ZipCode,
		Type:          form.Type,
		Status:        form.Status,
		Price:         form.Price,
		Bedrooms:      form.Bedrooms,
		Bathrooms:     form.Bathrooms,
		AreaSqft:      form.AreaSqft,
		Configuration: form.Configuration,
	}, true
}
