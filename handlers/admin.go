package handlers

import (
	"net/http"

	"requestarr/middleware"
	"requestarr/models"
	"requestarr/services"

	"github.com/go-chi/chi/v5"
)

type AdminHandlers struct {
	status *services.StatusService
	tunnel *services.TunnelService
}

func NewAdminHandlers(status *services.StatusService, tunnel *services.TunnelService) *AdminHandlers {
	return &AdminHandlers{status: status, tunnel: tunnel}
}

// ListRequests handles GET /api/admin/requests across all users.
func (h *AdminHandlers) ListRequests(w http.ResponseWriter, r *http.Request) {
	page, limit := ParsePagination(r, 500)

	requests, total, err := services.ListRequests(r.Context(), services.RequestFilter{
		Status: models.RequestStatus(r.URL.Query().Get("status")),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, NewPaginatedResponse(requests, total, page, limit))
}

type requestUpdateBody struct {
	Status    models.RequestStatus `json:"status"`
	AdminNote *string              `json:"admin_note"`
}

// UpdateRequest handles PATCH /api/admin/requests/{id}.
func (h *AdminHandlers) UpdateRequest(w http.ResponseWriter, r *http.Request) {
	actor := middleware.CurrentUser(r)

	id, err := parseIDParam(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var body requestUpdateBody
	if err := DecodeJSON(r, &body); err != nil {
		WriteError(w, err)
		return
	}

	req, err := services.TransitionRequest(r.Context(), id, actor, body.Status, body.AdminNote)
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, req)
}

// Stats handles GET /api/admin/stats.
func (h *AdminHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := services.GetRequestStats(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

// ListUsers handles GET /api/admin/users.
func (h *AdminHandlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := services.ListUsers(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, users)
}

type roleUpdateBody struct {
	Role models.Role `json:"role"`
}

// UpdateUserRole handles PATCH /api/admin/users/{id}.
func (h *AdminHandlers) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	actor := middleware.CurrentUser(r)
	targetID := chi.URLParam(r, "id")

	var body roleUpdateBody
	if err := DecodeJSON(r, &body); err != nil {
		WriteError(w, err)
		return
	}

	user, err := services.SetRole(r.Context(), actor, targetID, body.Role)
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, user)
}

// Health handles GET /api/admin/health.
func (h *AdminHandlers) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.status.Health(r.Context()))
}

// TunnelStatus handles GET /api/admin/tunnel.
func (h *AdminHandlers) TunnelStatus(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.tunnel.Status())
}

// StartTunnel handles POST /api/admin/tunnel.
func (h *AdminHandlers) StartTunnel(w http.ResponseWriter, r *http.Request) {
	actor := middleware.CurrentUser(r)

	status, err := h.tunnel.Start(r.Context(), actor)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, status)
}

// StopTunnel handles DELETE /api/admin/tunnel.
func (h *AdminHandlers) StopTunnel(w http.ResponseWriter, r *http.Request) {
	actor := middleware.CurrentUser(r)

	if err := h.tunnel.Stop(actor); err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, h.tunnel.Status())
}
