package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"multi-tenant-crm/internal/logger"
	"multi-tenant-crm/internal/model"
	"multi-tenant-crm/internal/storage"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeValidation(w http.ResponseWriter, fields map[string]string) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error":  "validation failed",
		"fields": fields,
	})
}

func (a *API) internalError(w http.ResponseWriter, r *http.Request, err error) {
	logger.FromContext(r.Context()).Error("request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// storeError maps storage sentinels to responses.
func (a *API) storeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, storage.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		a.internalError(w, r, err)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad request body")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

// scope returns the caller and the tenant scope every data query runs under.
func (a *API) scope(w http.ResponseWriter, r *http.Request) (*model.User, storage.Scope, bool) {
	user := CurrentUser(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return nil, storage.Scope{}, false
	}
	scope, err := storage.ScopeFor(user.TenantID)
	if err != nil {
		writeError(w, http.StatusForbidden, "no tenant for this account")
		return nil, storage.Scope{}, false
	}
	return user, scope, true
}

// notify publishes a change event for the caller's tenant. Failures are
// logged by the manager and never fail the request.
func (a *API) notify(r *http.Request, table, action string, rowID uuid.UUID, payload any) {
	user := CurrentUser(r.Context())
	if user == nil {
		return
	}
	a.publish(r, user, table, action, rowID, payload)
}

func (a *API) publish(r *http.Request, user *model.User, table, action string, rowID uuid.UUID, payload any) {
	var raw json.RawMessage
	if payload != nil {
		if b, err := json.Marshal(payload); err == nil {
			raw = b
		}
	}
	a.Tenants.Notify(r.Context(), model.ChangeEvent{
		TenantID: user.TenantID,
		Table:    table,
		Action:   action,
		RowID:    rowID,
		ActorID:  user.ID,
		Payload:  raw,
		At:       time.Now().UTC(),
	})
}
