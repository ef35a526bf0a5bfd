package handlers

import (
	"net/http"
	"strconv"

	"requestarr/apperr"
	"requestarr/middleware"
	"requestarr/models"
	"requestarr/providers"
	"requestarr/services"

	"github.com/go-chi/chi/v5"
)

type SearchHandlers struct {
	search *services.SearchService
	tmdb   *providers.TMDBClient
	books  *providers.OpenLibraryClient
}

func NewSearchHandlers(search *services.SearchService, tmdb *providers.TMDBClient, books *providers.OpenLibraryClient) *SearchHandlers {
	return &SearchHandlers{search: search, tmdb: tmdb, books: books}
}

func parsePage(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// Search handles GET /api/search?query&page&type. Without a type filter
// both providers are queried and merged.
func (h *SearchHandlers) Search(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	query := r.URL.Query().Get("query")
	filter := models.MediaType(r.URL.Query().Get("type"))
	if filter == "all" {
		filter = ""
	}

	resp, err := h.search.Search(r.Context(), user, query, parsePage(r), filter)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, resp)
}

// SearchBooks handles GET /api/books/search?query&page.
func (h *SearchHandlers) SearchBooks(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	query := r.URL.Query().Get("query")

	resp, err := h.search.Search(r.Context(), user, query, parsePage(r), models.MediaBook)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, resp)
}

type bookDetailResponse struct {
	providers.BookDetail
	ExistingRequest models.RequestStatus `json:"existing_request,omitempty"`
}

// BookDetail handles GET /api/books/work/{id}.
func (h *SearchHandlers) BookDetail(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	workID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || workID < 1 {
		WriteError(w, apperr.ErrBadRequest.WithDetail("invalid work id"))
		return
	}

	detail, err := h.books.WorkDetail(r.Context(), workID)
	if err != nil {
		WriteError(w, apperr.ErrUpstreamUnavailable.WithDetail(err.Error()))
		return
	}

	resp := bookDetailResponse{BookDetail: detail}
	if status, found, err := services.ActiveRequestStatus(r.Context(), user.ID, workID, models.MediaBook); err == nil && found {
		resp.ExistingRequest = status
	}

	WriteJSON(w, http.StatusOK, resp)
}

func parseTMDBID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		return 0, apperr.ErrBadRequest.WithDetail("invalid tmdb id")
	}
	return id, nil
}

type movieDetailResponse struct {
	providers.MovieDetail
	ExistingRequest models.RequestStatus `json:"existing_request,omitempty"`
}

// MovieDetail handles GET /api/search/movie/{id}.
func (h *SearchHandlers) MovieDetail(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	tmdbID, err := parseTMDBID(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	detail, err := h.tmdb.MovieDetail(r.Context(), tmdbID)
	if err != nil {
		WriteError(w, apperr.ErrUpstreamUnavailable.WithDetail(err.Error()))
		return
	}

	resp := movieDetailResponse{MovieDetail: detail}
	if status, found, err := services.ActiveRequestStatus(r.Context(), user.ID, tmdbID, models.MediaMovie); err == nil && found {
		resp.ExistingRequest = status
	}

	WriteJSON(w, http.StatusOK, resp)
}

type tvDetailResponse struct {
	providers.TVDetail
	ExistingRequest models.RequestStatus `json:"existing_request,omitempty"`
}

// TVDetail handles GET /api/search/tv/{id}.
func (h *SearchHandlers) TVDetail(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	tmdbID, err := parseTMDBID(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	detail, err := h.tmdb.TVDetail(r.Context(), tmdbID)
	if err != nil {
		WriteError(w, apperr.ErrUpstreamUnavailable.WithDetail(err.Error()))
		return
	}

	resp := tvDetailResponse{TVDetail: detail}
	if status, found, err := services.ActiveRequestStatus(r.Context(), user.ID, tmdbID, models.MediaTV); err == nil && found {
		resp.ExistingRequest = status
	}

	WriteJSON(w, http.StatusOK, resp)
}
