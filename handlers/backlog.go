package handlers

import (
	"net/http"

	"requestarr/middleware"
	"requestarr/models"
	"requestarr/services"
)

type BacklogHandlers struct{}

func NewBacklogHandlers() *BacklogHandlers {
	return &BacklogHandlers{}
}

// Create handles POST /api/backlog; any authenticated user can report.
func (h *BacklogHandlers) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	var in services.CreateBacklogInput
	if err := DecodeJSON(r, &in); err != nil {
		WriteError(w, err)
		return
	}

	item, err := services.CreateBacklogItem(r.Context(), user, in)
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, item)
}

// List handles GET /api/admin/backlog.
func (h *BacklogHandlers) List(w http.ResponseWriter, r *http.Request) {
	page, limit := ParsePagination(r, 500)

	items, total, err := services.ListBacklogItems(r.Context(), services.BacklogFilter{
		Status: models.BacklogStatus(r.URL.Query().Get("status")),
		Type:   models.BacklogType(r.URL.Query().Get("type")),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, NewPaginatedResponse(items, total, page, limit))
}

// Update handles PATCH /api/admin/backlog/{id}.
func (h *BacklogHandlers) Update(w http.ResponseWriter, r *http.Request) {
	actor := middleware.CurrentUser(r)

	id, err := parseIDParam(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var in services.UpdateBacklogInput
	if err := DecodeJSON(r, &in); err != nil {
		WriteError(w, err)
		return
	}

	item, err := services.UpdateBacklogItem(r.Context(), id, actor, in)
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, item)
}

// Delete handles DELETE /api/admin/backlog/{id}.
func (h *BacklogHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	actor := middleware.CurrentUser(r)

	id, err := parseIDParam(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := services.DeleteBacklogItem(r.Context(), id, actor); err != nil {
		WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Stats handles GET /api/admin/backlog/stats.
func (h *BacklogHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := services.GetBacklogStats(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}
