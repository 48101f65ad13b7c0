package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"multi-tenant-crm/internal/model"
	"multi-tenant-crm/internal/storage"
	"multi-tenant-crm/internal/validation"
)

// @Summary List leads
// @Tags Leads
// @Security ApiKeyAuth
// @Produce json
// @Param status query string false "Status filter"
// @Param source query string false "Source filter"
// @Param assigned_to query string false "Assignee profile id"
// @Param q query string false "Search name, email or phone"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} map[string]interface{}
// @Router /api/leads [get]
func (a *API) ListLeads(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := a.scope(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	filter := model.LeadFilter{
		Status: q.Get("status"),
		Source: q.Get("source"),
		Search: q.Get("q"),
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	}
	if v := q.Get("assigned_to"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid assigned_to")
			return
		}
		filter.AssignedTo = &id
	}

	leads, err := a.Store.ListLeads(r.Context(), scope, filter)
	if err != nil {
		a.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": leads})
}

// @Summary Get a lead
// @Tags Leads
// @Security ApiKeyAuth
// @Param id path string true "Lead id"
// @Success 200 {object} model.Lead
// @Router /api/leads/{id} [get]
func (a *API) GetLead(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := a.scope(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	lead, err := a.Store.GetLead(r.Context(), scope, id)
	if err != nil {
		a.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

// @Summary Create a lead
// @Tags Leads
// @Security ApiKeyAuth
// @Accept json
// @Param body body validation.LeadForm true "Lead"
// @Success 201 {object} model.Lead
// @Router /api/leads [post]
func (a *API) CreateLead(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := a.scope(w, r)
	if !ok {
		return
	}
	lead, ok := a.leadFromRequest(w, r, scope)
	if !ok {
		return
	}
	if err := a.Store.CreateLead(r.Context(), scope, lead); err != nil {
		a.storeError(w, r, err)
		return
	}
	a.notify(r, "leads", model.ActionInsert, lead.ID, lead)
	writeJSON(w, http.StatusCreated, lead)
}

// @Summary Replace a lead
// @Tags Leads
// @Security ApiKeyAuth
// @Accept json
// @Param id path string true "Lead id"
// @Param body body validation.LeadForm true "Lead"
// @Success 200 {object} model.Lead
// @Router /api/leads/{id} [put]
func (a *API) UpdateLead(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := a.scope(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	lead, ok := a.leadFromRequest(w, r, scope)
	if !ok {
		return
	}
	lead.ID = id
	if err := a.Store.UpdateLead(r.Context(), scope, lead); err != nil {
		a.storeError(w, r, err)
		return
	}
	a.notify(r, "leads", model.ActionUpdate, lead.ID, lead)
	writeJSON(w, http.StatusOK, lead)
}

// @Summary Soft delete a lead
// @Tags Leads
// @Security ApiKeyAuth
// @Param id path string true "Lead id"
// @Success 204
// @Router /api/leads/{id} [delete]
func (a *API) DeleteLead(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := a.scope(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := a.Store.SoftDeleteLead(r.Context(), scope, id); err != nil {
		a.storeError(w, r, err)
		return
	}
	a.notify(r, "leads", model.ActionDelete, id, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) leadFromRequest(w http.ResponseWriter, r *http.Request, scope storage.Scope) (*model.Lead, bool) {
	var form validation.LeadForm
	if !decode(w, r, &form) {
		return nil, false
	}
	if fields, ok := form.Ok(); !ok {
		writeValidation(w, fields)
		return nil, false
	}

	lead := &model.Lead{
		Name:           form.Name,
		Email:          form.Email,
		Phone:          form.Phone,
		AlternatePhone: form.AlternatePhone,
		Status:         form.Status,
		Source:         form.Source,
		Priority:       form.Priority,
		CustomFields:   form.CustomFields,
		Notes:          form.Notes,
	}
	if form.AssignedTo != "" {
		id := uuid.MustParse(form.AssignedTo)
		if !a.memberOf(w, r, scope, id) {
			return nil, false
		}
		lead.AssignedTo = &id
	}
	return lead, true
}

// memberOf checks that a referenced profile belongs to the caller's tenant.
func (a *API) memberOf(w http.ResponseWriter, r *http.Request, scope storage.Scope, id uuid.UUID) bool {
	_, err := a.Store.GetProfile(r.Context(), scope, id)
	if errors.Is(err, storage.ErrNotFound) {
		writeValidation(w, map[string]string{"assigned_to": "is not a member of this company"})
		return false
	}
	if err != nil {
		a.internalError(w, r, err)
		return false
	}
	return true
}
