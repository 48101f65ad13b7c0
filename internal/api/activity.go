package api

import (
	"net/http"

	"github.com/google/uuid"
)

const (
	defaultActivityPage = 20
	maxActivityPage     = 100
)

// @Summary List the company change log
// @Tags Activity
// @Security ApiKeyAuth
// @Produce json
// @Param cursor query string false "Pagination cursor"
// @Param limit query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Router /api/activity [get]
func (a *API) ListActivity(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := a.scope(w, r)
	if !ok {
		return
	}
	cursor := r.URL.Query().Get("cursor")
	if cursor != "" {
		if _, err := uuid.Parse(cursor); err != nil {
			writeError(w, http.StatusBadRequest, "invalid cursor")
			return
		}
	}
	limit := queryInt(r, "limit")
	if limit <= 0 || limit > maxActivityPage {
		limit = defaultActivityPage
	}

	events, next, err := a.Store.ListActivityPaginated(r.Context(), scope, cursor, limit)
	if err != nil {
		a.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":        events,
		"next_cursor": next,
	})
}
