package handlers

import (
	"net/http"
	"strconv"

	"requestarr/apperr"
	"requestarr/middleware"
	"requestarr/models"
	"requestarr/services"

	"github.com/go-chi/chi/v5"
)

type RequestHandlers struct {
	library services.LibraryChecker
}

func NewRequestHandlers(library services.LibraryChecker) *RequestHandlers {
	return &RequestHandlers{library: library}
}

func parseIDParam(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		return 0, apperr.ErrBadRequest.WithDetail("invalid id")
	}
	return id, nil
}

// Create handles POST /api/requests.
func (h *RequestHandlers) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	var in services.CreateRequestInput
	if err := DecodeJSON(r, &in); err != nil {
		WriteError(w, err)
		return
	}

	req, err := services.CreateRequest(r.Context(), h.library, user, in)
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, req)
}

// List handles GET /api/requests, scoped to the caller.
func (h *RequestHandlers) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	page, limit := ParsePagination(r, 100)

	requests, total, err := services.ListRequests(r.Context(), services.RequestFilter{
		UserID: user.ID,
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

// Delete handles DELETE /api/requests/{id}; allowed for the requester or an
// admin.
func (h *RequestHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	id, err := parseIDParam(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := services.DeleteRequest(r.Context(), id, user); err != nil {
		WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
